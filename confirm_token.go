package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// PurposeEmailConfirm is the namespace for email-confirmation tokens
const PurposeEmailConfirm = "email-confirm"

// ConfirmationClaims is the payload of a purpose-scoped token
type ConfirmationClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// ConfirmationService issues and verifies time-limited, purpose-scoped
// signed tokens. The signing key is derived from the configured secret and
// the purpose tag, so tokens from one namespace never validate in another
// even though operators configure a single secret.
type ConfirmationService struct {
	key     []byte
	purpose string
	maxAge  time.Duration
	issuer  string
	logger  Logger
}

// NewConfirmationService creates a codec for the given purpose namespace
func NewConfirmationService(signingKey []byte, purpose string, maxAge time.Duration, issuer string, logger Logger) *ConfirmationService {
	if logger == nil {
		logger = defLogger{}
	}
	return &ConfirmationService{
		key:     derivePurposeKey(signingKey, purpose),
		purpose: purpose,
		maxAge:  maxAge,
		issuer:  issuer,
		logger:  logger,
	}
}

// Issue mints a token for the account identifier, expiring after the
// configured max age
func (s *ConfirmationService) Issue(accountID string) (string, error) {
	now := time.Now()
	claims := &ConfirmationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Purpose: s.purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign confirmation token")
	}

	return signed, nil
}

// Verify checks signature, purpose, and age, returning the account
// identifier the token was issued for
func (s *ConfirmationService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ConfirmationClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrConfirmationExpired
		}
		return "", ErrConfirmationInvalid
	}

	claims, ok := token.Claims.(*ConfirmationClaims)
	if !ok || !token.Valid {
		return "", ErrConfirmationInvalid
	}

	if claims.Purpose != s.purpose {
		s.logger.Error("confirmation token purpose mismatch: got %q want %q", claims.Purpose, s.purpose)
		return "", ErrConfirmationInvalid
	}

	// iat is the authoritative age source; exp alone would trust whatever
	// window the token was minted with.
	if claims.RegisteredClaims.IssuedAt == nil ||
		IsOutsideThresholdPeriod(claims.RegisteredClaims.IssuedAt.Time, s.maxAge) {
		return "", ErrConfirmationExpired
	}

	if claims.RegisteredClaims.Subject == "" {
		return "", ErrConfirmationInvalid
	}

	return claims.RegisteredClaims.Subject, nil
}

func derivePurposeKey(secret []byte, purpose string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}
