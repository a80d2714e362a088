package auth

import (
	"context"
	stderrors "errors"
	"math"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// AccountStore is the slice of the credential store the controller consumes
type AccountStore interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListUsersParams) ([]*User, int, error)
}

// ConfirmationVerifier verifies purpose-scoped confirmation tokens
type ConfirmationVerifier interface {
	Verify(token string) (string, error)
}

// AuthControllerRoutes names the paths the controller binds
type AuthControllerRoutes struct {
	Login        string
	Register     string
	ConfirmEmail string
	Users        string
}

// AuthController exposes the authentication endpoints
type AuthController struct {
	Debug         bool
	Logger        Logger
	Auther        Authenticator
	Register      RegisterUserExecutor
	Confirmations ConfirmationVerifier
	Accounts      AccountStore
	Routes        *AuthControllerRoutes
	// LoginRedirect is where the confirmation endpoint sends the browser
	LoginRedirect string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(auther Authenticator, register RegisterUserExecutor, confirmations ConfirmationVerifier, accounts AccountStore, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:        defLogger{},
		Auther:        auther,
		Register:      register,
		Confirmations: confirmations,
		Accounts:      accounts,
		Routes: &AuthControllerRoutes{
			Login:        "/login",
			Register:     "/register",
			ConfirmEmail: "/confirm_email",
			Users:        "/users",
		},
		LoginRedirect: "/pages/user_login.html",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Register == nil {
		panic("Missing RegisterUserExecutor in auth controller...")
	}

	return c
}

// RegisterAuthRoutes wires the controller and pipeline stages into the app
func RegisterAuthRoutes(app *fiber.App, c *AuthController, mw *AuthMiddleware) {
	app.Post(c.Routes.Login, c.LoginPost)
	app.Post(c.Routes.Register, c.RegistrationCreate)
	app.Get(c.Routes.ConfirmEmail, c.ConfirmEmail)
	app.Get(c.Routes.Users, mw.RequireAuth(), c.ListUsers)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost authenticates credentials and responds with a session token,
// the user summary, and the role's dashboard redirect
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("login parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No data provided",
		})
	}

	if err := payload.Validate(); err != nil {
		return WriteError(c, err)
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	token, identity, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return WriteError(c, err)
	}

	user, err := a.Accounts.GetByID(c.UserContext(), identity.ID())
	if err != nil {
		a.Logger.Error("login account load failed: %v", err)
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account"))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
			"grade":    user.Grade,
			"email":    user.Email,
		},
		"redirect": redirectForRole(user.Role),
	})
}

func redirectForRole(role UserRole) string {
	switch role {
	case RoleAdmin:
		return "admin_control_panel.html"
	case RoleTeacher:
		return "teacher_dashboard.html"
	case RoleStudent:
		return "student_dashboard.html"
	default:
		return ""
	}
}

// RegistrationPayload is the two-phase registration body
type RegistrationPayload struct {
	Phase           int    `form:"phase" json:"phase"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Role            string `form:"role" json:"role"`
	Grade           string `form:"grade" json:"grade"`
	BasketSubject1  string `form:"basket_subject_1" json:"basket_subject_1"`
	BasketSubject2  string `form:"basket_subject_2" json:"basket_subject_2"`
	BasketSubject3  string `form:"basket_subject_3" json:"basket_subject_3"`
	Stream          string `form:"stream" json:"stream"`
	IsTesting       bool   `form:"is_testing" json:"is_testing"`
}

// ValidatePhaseOne checks the preview step: all credential fields present
// and the password confirmed
func (r RegistrationPayload) ValidatePhaseOne() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password, "Passwords do not match")),
		),
	)
}

// ValidatePhaseTwo checks the persisting step, including the role-specific
// grade-banding rules for students
func (r RegistrationPayload) ValidatePhaseTwo() error {
	rules := []*validation.FieldRules{
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.In(RoleStudent, RoleTeacher)),
	}

	if r.Role == RoleStudent {
		rules = append(rules, validation.Field(&r.Grade, validation.Required))

		if band, err := GradeBandFor(r.Grade); err == nil {
			switch band {
			case BandBasket:
				rules = append(rules,
					validation.Field(&r.BasketSubject1, validation.Required),
					validation.Field(&r.BasketSubject2, validation.Required),
					validation.Field(&r.BasketSubject3, validation.Required),
				)
			case BandStream:
				// stream membership is checked when subjects are resolved
				rules = append(rules,
					validation.Field(&r.Stream, validation.Required),
				)
			}
		}
	}

	return validation.ValidateStruct(&r, rules...)
}

// ValidateStringEquals builds a rule asserting equality with a fixed value
func ValidateStringEquals(expected, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != expected {
			return stderrors.New(message)
		}
		return nil
	}
}

// RegistrationCreate handles both phases: phase 1 validates and echoes a
// preview without persisting; phase 2 creates the unconfirmed account and
// kicks off the confirmation flow.
func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("register parse payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No data provided",
		})
	}

	if payload.Phase == 0 {
		payload.Phase = 1
	}

	switch payload.Phase {
	case 1:
		if err := payload.ValidatePhaseOne(); err != nil {
			return WriteError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Phase 1 completed successfully",
			"phase":   1,
			"user_data": fiber.Map{
				"username": payload.Username,
				"email":    payload.Email,
			},
		})

	case 2:
		if err := payload.ValidatePhaseTwo(); err != nil {
			return WriteError(c, err)
		}

		// banding errors the field rules cannot express (bad grade label)
		if payload.Role == RoleStudent {
			if _, err := GradeBandFor(payload.Grade); err != nil {
				return WriteError(c, err)
			}
		}

		msg := RegisterUserMessage{
			Username:  payload.Username,
			Email:     payload.Email,
			Password:  payload.Password,
			Role:      payload.Role,
			Grade:     payload.Grade,
			Stream:    payload.Stream,
			IsTesting: payload.IsTesting,
		}
		if payload.Role == RoleStudent {
			if band, _ := GradeBandFor(payload.Grade); band == BandBasket {
				msg.BasketSubjects = []string{
					payload.BasketSubject1,
					payload.BasketSubject2,
					payload.BasketSubject3,
				}
			}
		}

		user, err := a.Register.Execute(c.UserContext(), msg)
		if err != nil {
			a.Logger.Debug("register execute failed: %v", err)
			return WriteError(c, err)
		}

		message := "Registration successful. Please check your email to confirm your account."
		if payload.IsTesting {
			message = "Registration successful (testing mode)."
		}

		body := fiber.Map{
			"message":  message,
			"user_id":  user.ID,
			"role":     user.Role,
			"redirect": "user_login.html",
		}
		if user.Role == RoleStudent {
			body["grade"] = user.Grade
			body["subjects"] = user.Subjects
		}

		return c.Status(fiber.StatusCreated).JSON(body)

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid registration phase",
		})
	}
}

// ConfirmEmail verifies the query-parameter token and marks the account
// confirmed. Confirming an already-confirmed account is a success, not an
// error; confirmation links get clicked twice.
func (a *AuthController) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing token",
		})
	}

	accountID, err := a.Confirmations.Verify(token)
	if err != nil {
		return WriteError(c, err)
	}

	id, err := uuid.Parse(accountID)
	if err != nil {
		return WriteError(c, ErrConfirmationInvalid)
	}

	user, err := a.Accounts.GetByID(c.UserContext(), accountID)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid token user",
			})
		}
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account"))
	}

	if user.Confirmed {
		return c.JSON(fiber.Map{
			"message": "Email already confirmed",
		})
	}

	if err := a.Accounts.ConfirmEmail(c.UserContext(), id); err != nil {
		a.Logger.Error("confirm email update failed: %v", err)
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email"))
	}

	return c.Redirect(a.LoginRedirect, fiber.StatusFound)
}

// ListUsers returns a filtered, paginated user index. RequireAuth runs
// ahead of it, so the caller is a confirmed account.
func (a *AuthController) ListUsers(c *fiber.Ctx) error {
	params := ListUsersParams{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
		Role:  c.Query("role"),
		Email: c.Query("email"),
	}

	records, total, err := a.Accounts.List(c.UserContext(), params)
	if err != nil {
		a.Logger.Error("list users failed: %v", err)
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users"))
	}

	users := make([]fiber.Map, 0, len(records))
	for _, u := range records {
		users = append(users, fiber.Map{
			"id":           u.ID,
			"username":     u.Username,
			"email":        u.Email,
			"role":         u.Role,
			"is_confirmed": u.Confirmed,
		})
	}

	limit := params.Limit
	if limit < 1 {
		limit = 10
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(fiber.Map{
		"users":    users,
		"total":    total,
		"page":     page,
		"pages":    pages,
		"has_next": page < pages,
		"has_prev": page > 1,
	})
}

// ensure the repository type keeps satisfying the controller contract
var _ AccountStore = (Users)(nil)
