package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries the validated phase-2 registration input
type RegisterUserMessage struct {
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Role           string   `json:"role"`
	Grade          string   `json:"grade"`
	BasketSubjects []string `json:"basket_subjects"`
	Stream         string   `json:"stream"`
	// IsTesting bypasses confirmation: the account is created confirmed and
	// no email is dispatched.
	IsTesting bool `json:"is_testing"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserExecutor is what the HTTP controller needs from registration
type RegisterUserExecutor interface {
	Execute(ctx context.Context, event RegisterUserMessage) (*User, error)
}

// ConfirmationTokenIssuer mints purpose-scoped confirmation tokens
type ConfirmationTokenIssuer interface {
	Issue(accountID string) (string, error)
}

// RegisterUserHandler creates accounts. The create and the confirmation
// token mint run inside one transaction, so a token never references an
// identifier that failed to commit. Email delivery happens after commit and
// is fire-and-forget: a send failure is logged and swallowed, never rolled
// back into the registration result.
type RegisterUserHandler struct {
	repo          RepositoryManager
	confirmations ConfirmationTokenIssuer
	mailer        Mailer
	baseURL       string
	sender        string
	logger        Logger
}

func NewRegisterUserHandler(repo RepositoryManager, confirmations ConfirmationTokenIssuer, mailer Mailer, cfg Config) *RegisterUserHandler {
	if mailer == nil {
		mailer = NewLogMailer(nil)
	}
	return &RegisterUserHandler{
		repo:          repo,
		confirmations: confirmations,
		mailer:        mailer,
		baseURL:       cfg.GetFrontendBaseURL(),
		sender:        cfg.GetMailSender(),
		logger:        defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	role, ok := ParseRole(event.Role)
	if !ok || role == RoleAdmin {
		return nil, goerrors.New("Invalid role selected", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode("INVALID_ROLE")
	}

	user := &User{
		Username:  strings.TrimSpace(event.Username),
		Email:     strings.TrimSpace(event.Email),
		Role:      role,
		Confirmed: event.IsTesting,
	}

	if role == RoleStudent {
		subjects, err := ResolveSubjects(event.Grade, event.BasketSubjects, event.Stream)
		if err != nil {
			return nil, err
		}
		user.Grade = event.Grade
		user.Subjects = subjects
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var confirmToken string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, user.Email); err == nil && existing != nil {
			return ErrEmailTaken
		} else if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		user.PasswordHash = hash

		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// two registrations can race past the pre-check; the unique
			// email constraint decides the winner
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if confirmToken, err = h.confirmations.Issue(user.ID.String()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if !event.IsTesting {
		go h.deliverConfirmation(user, confirmToken)
	}

	return user, nil
}

// deliverConfirmation runs detached from the request; registration already
// succeeded by the time this is called.
func (h *RegisterUserHandler) deliverConfirmation(user *User, token string) {
	msg := ConfirmationMessage(user, token, h.baseURL, h.sender)
	if err := h.mailer.Send(context.Background(), msg); err != nil {
		h.logger.Error("failed to send confirmation email to %s: %v", user.Email, err)
	}
}

var _ RegisterUserExecutor = (*RegisterUserHandler)(nil)
