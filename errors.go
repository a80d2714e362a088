package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Authentication failures. All of these surface as 401 with a
// machine-readable text code plus the human message.
var (
	// ErrTokenMissing is returned when the Authorization header is absent
	ErrTokenMissing = errors.New("Token is missing", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode("MISSING_TOKEN")

	// ErrTokenInvalid covers signature failures and malformed payloads
	ErrTokenInvalid = errors.New("Invalid token", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode("INVALID_TOKEN")

	// ErrTokenExpired is a valid signature past its expiry
	ErrTokenExpired = errors.New("Token has expired", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode("EXPIRED_TOKEN")

	// ErrAccountNotFound means the token subject no longer exists
	ErrAccountNotFound = errors.New("User not found", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("ACCOUNT_NOT_FOUND")

	// ErrEmailNotConfirmed rejects sessions for unconfirmed accounts
	ErrEmailNotConfirmed = errors.New("Email not confirmed", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("EMAIL_NOT_CONFIRMED")

	// ErrEmailNotRegistered is a login attempt with an unknown email
	ErrEmailNotRegistered = errors.New("Email does not exist", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode("EMAIL_NOT_REGISTERED")

	// ErrMismatchedHashAndPassword is a wrong password at login
	ErrMismatchedHashAndPassword = errors.New("Incorrect password", errors.CategoryAuth).
					WithCode(errors.CodeUnauthorized).
					WithTextCode("INCORRECT_PASSWORD")
)

// ErrForbidden rejects authenticated accounts whose role is not whitelisted
var ErrForbidden = errors.New("Forbidden", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("FORBIDDEN")

// Registration failures
var (
	// ErrEmailTaken is returned when the email is already registered
	ErrEmailTaken = errors.New("User with this email already exists", errors.CategoryConflict).
			WithCode(errors.CodeConflict).
			WithTextCode("EMAIL_TAKEN")

	// ErrInvalidGrade covers malformed grade labels and missing banded fields
	ErrInvalidGrade = errors.New("Invalid grade format", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithTextCode("INVALID_GRADE")

	// ErrInvalidStream is a stream outside the fixed enumerated set
	ErrInvalidStream = errors.New("Invalid stream selected", errors.CategoryValidation).
				WithCode(errors.CodeBadRequest).
				WithTextCode("INVALID_STREAM")
)

// Confirmation endpoint failures surface as 400 per the external contract.
var (
	// ErrConfirmationExpired is a confirmation token older than its max age
	ErrConfirmationExpired = errors.New("Confirmation token expired", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithTextCode("CONFIRMATION_EXPIRED")

	// ErrConfirmationInvalid covers bad signatures and namespace violations
	ErrConfirmationInvalid = errors.New("Invalid confirmation token", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest).
				WithTextCode("CONFIRMATION_INVALID")
)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, including errors coming
// from the JWT library before they are mapped to the rich taxonomy
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == ErrTokenExpired.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed or tampered tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == ErrTokenInvalid.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation detects the store's uniqueness constraint firing on a
// concurrent registration with the same email
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
