package auth

import (
	"context"
)

// Auther pairs an IdentityProvider with a TokenService to produce session
// tokens at login
type Auther struct {
	provider IdentityProvider
	tokens   TokenService
	logger   Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens TokenService) *Auther {
	return &Auther{
		provider: provider,
		tokens:   tokens,
		logger:   defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Login verifies the credentials and mints a session token. The identity is
// returned alongside the token so callers can build their response without
// a second store round trip.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Debug("login verify identity failed: %v", err)
		return "", nil, err
	}

	token, err := s.tokens.Generate(identity)
	if err != nil {
		s.logger.Error("login token generation failed: %v", err)
		return "", nil, err
	}

	return token, identity, nil
}

var _ Authenticator = (*Auther)(nil)
