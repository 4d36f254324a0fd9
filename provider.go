package authkit

import (
	"context"
	"net/http"
)

// Claims is the decoded identity claim set an OAuth provider hands to the
// host application's user resolver.
type Claims map[string]any

// Provider is implemented by every registered authentication provider.
// Concrete providers implement exactly one of OAuthProvider or
// CredentialProvider; dispatch sites type-switch over those two and treat
// anything else as a configuration error.
type Provider interface {
	// ID is the stable identifier the provider registers under. The id
	// "credential" is reserved for the credential provider.
	ID() string
}

// OAuthProvider is the capability set of an authorization-code-with-PKCE
// provider.
type OAuthProvider interface {
	Provider

	// AuthorizationURL builds the provider's authorization endpoint URL
	// carrying the state and S256 code challenge. Pure; fails only on
	// malformed base configuration.
	AuthorizationURL(state, codeChallenge, baseURL string) (string, error)

	// CompleteSignIn validates the callback request against the stored
	// OAuth state, exchanges the authorization code (with the PKCE
	// verifier) for tokens, and returns the decoded identity claims.
	CompleteSignIn(ctx context.Context, r *http.Request, state *OAuthState, baseURL string) (Claims, error)

	// OnAuthentication resolves or creates the local user for a claim
	// set via the host-supplied resolver.
	OnAuthentication(ctx context.Context, claims Claims) (User, error)

	// ErrorRedirectPath is the base path failures of the callback flow
	// redirect to, with the error code appended as a query parameter.
	ErrorRedirectPath() string
}

// CredentialProvider is the capability set of the email/password provider.
// Operations that are reached through a GET link in an email (VerifyEmail,
// VerifyPasswordResetToken) convert typed failures into error-annotated
// redirects instead of returning them; the rest propagate typed errors.
type CredentialProvider interface {
	Provider

	SignUp(ctx context.Context, data SignUpData, secret, baseURL string) (*Redirect, error)

	// SignIn returns the stored user record with the hashed password
	// already stripped.
	SignIn(ctx context.Context, email, password string) (*User, error)

	VerifyEmail(ctx context.Context, r *http.Request, secret string) (*Redirect, error)

	ForgotPassword(ctx context.Context, email, secret, baseURL string) (*Redirect, error)

	// VerifyPasswordResetToken checks that a reset link is still fresh
	// and, on success, appends the token itself to the redirect target
	// so the final reset step can re-verify it.
	VerifyPasswordResetToken(ctx context.Context, r *http.Request, secret string) (*Redirect, error)

	ResetPassword(ctx context.Context, token, newPassword, secret string) (*Redirect, error)
}

// CredentialProviderID is the reserved registry id for the credential
// provider.
const CredentialProviderID = "credential"
