package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// AccountLoader loads the account a verified token points at
type AccountLoader interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
}

// AuthMiddleware holds the request-pipeline stages. Each stage is a
// composable fiber handler with a single pass-or-reject contract; RequireRoles
// assumes RequireAuth ran earlier in the chain and never runs standalone.
type AuthMiddleware struct {
	validator  TokenValidator
	users      AccountLoader
	authScheme string
	contextKey string
	logger     Logger
}

// NewAuthMiddleware builds the middleware from explicit collaborators; no
// ambient state is read after construction.
func NewAuthMiddleware(validator TokenValidator, users AccountLoader, cfg Config) *AuthMiddleware {
	return &AuthMiddleware{
		validator:  validator,
		users:      users,
		authScheme: cfg.GetAuthScheme(),
		contextKey: cfg.GetContextKey(),
		logger:     defLogger{},
	}
}

func (m *AuthMiddleware) WithLogger(logger Logger) *AuthMiddleware {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// RequireAuth authenticates the request: extract bearer token, verify it,
// load the account, reject unconfirmed or dangling sessions, and attach the
// account to the request context. CORS preflights bypass every check; they
// carry no body or credentials that business logic consumes.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			m.logger.Debug("authorization header missing for %s", c.Path())
			return WriteError(c, ErrTokenMissing)
		}

		raw := strings.TrimSpace(strings.TrimPrefix(header, m.authScheme+" "))

		claims, err := m.validator.Validate(raw)
		if err != nil {
			return WriteError(c, err)
		}

		user, err := m.users.GetByID(c.UserContext(), claims.UserID())
		if err != nil {
			// the token can outlive the account; not an application error
			if errors.IsNotFound(err) || repository.IsRecordNotFound(err) {
				return WriteError(c, ErrAccountNotFound)
			}
			return WriteError(c, errors.Wrap(err, errors.CategoryInternal, "failed to load account"))
		}

		if !user.Confirmed {
			return WriteError(c, ErrEmailNotConfirmed)
		}

		c.Locals(m.contextKey, user)
		ctx := WithClaimsContext(WithContext(c.UserContext(), user), claims)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireRoles restricts the route to a whitelist of roles. Pure predicate:
// the account must already be attached by RequireAuth.
func (m *AuthMiddleware) RequireRoles(roles ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		user := UserFromFiber(c, m.contextKey)
		if user == nil {
			m.logger.Error("role gate reached without an authenticated account on %s", c.Path())
			return WriteError(c, ErrForbidden)
		}

		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}

		return WriteError(c, ErrForbidden)
	}
}

// UserFromFiber returns the account attached by RequireAuth, or nil
func UserFromFiber(c *fiber.Ctx, key string) *User {
	if key == "" {
		key = "user"
	}
	user, _ := c.Locals(key).(*User)
	return user
}
