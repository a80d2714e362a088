package auth

import (
	"os"
	"strconv"
)

// DefaultSigningKey is the compiled-in fallback secret. It is a known weak
// default kept for local development only; NewEnvConfig flags its use so
// deployments can refuse to start with it.
const DefaultSigningKey = "default-secret-key-change-this"

// EnvConfig is the environment-sourced Config implementation. It reads the
// environment exactly once at construction; components receive their values
// through the Config contract and never touch ambient state at call time.
type EnvConfig struct {
	SigningKey         string
	SigningMethod      string
	ContextKey         string
	TokenExpiration    int
	ConfirmationMaxAge int
	AuthScheme         string
	Issuer             string
	Audience           []string
	FrontendBaseURL    string
	MailSender         string

	fallbackSecret bool
}

// NewEnvConfig builds the configuration from the process environment,
// applying the documented defaults for anything unset.
func NewEnvConfig() *EnvConfig {
	cfg := &EnvConfig{
		SigningKey:         os.Getenv("JWT_SECRET_KEY"),
		SigningMethod:      "HS256",
		ContextKey:         "user",
		TokenExpiration:    envInt("TOKEN_EXPIRATION_HOURS", 24),
		ConfirmationMaxAge: envInt("CONFIRMATION_MAX_AGE_HOURS", 24),
		AuthScheme:         "Bearer",
		Issuer:             envString("TOKEN_ISSUER", "edutech-lms"),
		FrontendBaseURL:    envString("FRONTEND_BASE_URL", "http://localhost:5000"),
		MailSender:         os.Getenv("MAIL_DEFAULT_SENDER"),
	}

	if cfg.SigningKey == "" {
		cfg.SigningKey = DefaultSigningKey
		cfg.fallbackSecret = true
	}

	return cfg
}

// UsingFallbackSecret reports whether the weak built-in secret is active.
// Callers should log this loudly and refuse it outside development.
func (c *EnvConfig) UsingFallbackSecret() bool { return c.fallbackSecret }

func (c *EnvConfig) GetSigningKey() string      { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string   { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string      { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int    { return c.TokenExpiration }
func (c *EnvConfig) GetConfirmationMaxAge() int { return c.ConfirmationMaxAge }
func (c *EnvConfig) GetAuthScheme() string      { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string          { return c.Issuer }
func (c *EnvConfig) GetAudience() []string      { return c.Audience }
func (c *EnvConfig) GetFrontendBaseURL() string { return c.FrontendBaseURL }
func (c *EnvConfig) GetMailSender() string      { return c.MailSender }

var _ Config = (*EnvConfig)(nil)

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
