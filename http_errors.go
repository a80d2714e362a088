package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// WriteError maps an error onto the wire contract: `{"error": message}`
// with the taxonomy's status code. Internal failures are collapsed to a
// generic 500 body so no internal detail leaks to the caller.
func WriteError(c *fiber.Ctx, err error) error {
	if verrs, ok := err.(validation.Errors); ok {
		return WriteValidationError(c, verrs)
	}

	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	if rich.Category == errors.CategoryInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	status := rich.Code
	if status == 0 {
		status = fiber.StatusBadRequest
	}

	body := fiber.Map{"error": rich.Message}
	if rich.TextCode != "" {
		body["code"] = rich.TextCode
	}

	return c.Status(status).JSON(body)
}

// WriteValidationError reports every failing field by name so clients can
// surface per-field messages
func WriteValidationError(c *fiber.Ctx, verrs validation.Errors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"code":   "VALIDATION_FAILED",
		"fields": verrs,
	})
}
