package authkit

import (
	"fmt"
	"time"
)

// Route paths the library and its adapters agree on. Providers embed the
// callback path in redirect URIs; the credential provider embeds the
// verification paths in emailed links.
const (
	RoutePrefix                   = "/api/auth"
	RouteCallback                 = "/api/auth/callback"
	RouteVerifyEmail              = "/api/auth/verify-email"
	RouteVerifyPasswordResetToken = "/api/auth/verify-password-reset-token"
)

// Storage slot names. The user session slot carries the long-lived session
// token; the OAuth state slot carries the short-lived handshake token.
const (
	SlotUserSession = "authkit_user_session"
	SlotOAuthState  = "authkit_oauth_state"
)

// OAuthStateMaxAge bounds the lifetime of the OAuth handshake: the window
// between sign-in initiation and the provider callback.
const OAuthStateMaxAge = 10 * time.Minute

// SessionConfig configures the user session token class.
type SessionConfig struct {
	// Secret is the base64 encoding of the raw symmetric key used for
	// every token the library issues.
	Secret string

	// MaxAge is the user session lifetime, e.g. 7 days.
	MaxAge time.Duration
}

// Config is the process-wide configuration, immutable after construction
// and shared by reference across all operations.
type Config struct {
	// BaseURL is the externally visible origin of the application,
	// e.g. "https://app.example.com". Callback and verification URLs are
	// built against it.
	BaseURL string

	Session SessionConfig

	// Providers is the ordered provider list the registry is built from;
	// a later provider with a duplicate id replaces the earlier one.
	Providers []Provider
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("authkit: BaseURL is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("authkit: Session.Secret is required")
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("authkit: Session.MaxAge must be positive")
	}
	return nil
}
