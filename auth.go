package authkit

import (
	"context"
	"net/http"

	"github.com/trailside/authkit/pkce"
)

// Auth is the authentication orchestrator: the top-level operations that
// sequence providers, the token codec and the storage collaborator. An Auth
// value is immutable after construction and safe for concurrent use; the
// session token, not process memory, is the unit of per-user state.
type Auth struct {
	config   Config
	registry *Registry
	session  *sessionOperations
}

// New builds an orchestrator from a config and a storage collaborator. The
// host application owns the returned instance and threads it through its own
// request-handling context; the library keeps no process-wide state.
func New(config Config, storage Storage) (*Auth, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Auth{
		config:   config,
		registry: NewRegistry(config.Providers...),
		session: &sessionOperations{
			storage:       storage,
			sessionMaxAge: config.Session.MaxAge,
		},
	}, nil
}

// Registry exposes the provider registry, mainly for adapters that need to
// resolve providers themselves.
func (a *Auth) Registry() *Registry { return a.registry }

// SignInOptions parameterizes SignIn. Email and Password apply to the
// credential provider only; RedirectTo is where the browser lands after a
// successful sign-in.
type SignInOptions struct {
	Email      string
	Password   string
	RedirectTo string
}

// SignInResult is the outcome of SignIn. Exactly one field is set: for an
// OAuth provider the authorization URL to navigate to, for the credential
// provider the post-sign-in redirect target.
type SignInResult struct {
	AuthorizationURL string
	RedirectTo       string
}

// SignIn starts a sign-in flow with the named provider. OAuth providers get
// a fresh state/verifier pair persisted in the OAuth-state slot and return
// an authorization URL; the credential provider verifies the password and
// issues a session directly.
func (a *Auth) SignIn(ctx context.Context, providerID string, opts SignInOptions) (*SignInResult, error) {
	provider, err := a.registry.Get(providerID)
	if err != nil {
		return nil, err
	}

	switch p := provider.(type) {
	case OAuthProvider:
		return a.oauthSignIn(ctx, p, opts)
	case CredentialProvider:
		return a.credentialSignIn(ctx, p, opts)
	default:
		return nil, NewInvalidProviderTypeError(providerID)
	}
}

func (a *Auth) oauthSignIn(ctx context.Context, provider OAuthProvider, opts SignInOptions) (*SignInResult, error) {
	state, err := pkce.State()
	if err != nil {
		return nil, WrapUnknown(err, "signIn")
	}
	verifier, err := pkce.CodeVerifier()
	if err != nil {
		return nil, WrapUnknown(err, "signIn")
	}
	challenge := pkce.CodeChallenge(verifier)

	redirectTo := opts.RedirectTo
	if redirectTo == "" {
		redirectTo = "/"
	}

	stateToken, err := encryptOAuthState(OAuthState{
		State:        state,
		CodeVerifier: verifier,
		RedirectTo:   redirectTo,
		Provider:     provider.ID(),
	}, a.config.Session.Secret)
	if err != nil {
		return nil, err
	}

	if err := a.session.setOAuthState(ctx, stateToken); err != nil {
		return nil, err
	}

	authorizationURL, err := provider.AuthorizationURL(state, challenge, a.config.BaseURL)
	if err != nil {
		return nil, WrapUnknown(err, "signIn")
	}

	return &SignInResult{AuthorizationURL: authorizationURL}, nil
}

func (a *Auth) credentialSignIn(ctx context.Context, provider CredentialProvider, opts SignInOptions) (*SignInResult, error) {
	user, err := provider.SignIn(ctx, opts.Email, opts.Password)
	if err != nil {
		return nil, WrapUnknown(err, "signIn")
	}

	if err := a.issueSession(ctx, *user, CredentialProviderID); err != nil {
		return nil, err
	}

	return &SignInResult{RedirectTo: opts.RedirectTo}, nil
}

func (a *Auth) issueSession(ctx context.Context, user User, providerID string) error {
	token, err := encryptUserSessionPayload(UserSessionPayload{
		User:     user,
		Provider: providerID,
	}, a.config.Session.Secret, a.config.Session.MaxAge)
	if err != nil {
		return err
	}
	return a.session.setUserSession(ctx, token)
}

// SignUp delegates to the registered credential provider.
func (a *Auth) SignUp(ctx context.Context, data SignUpData) (*Redirect, error) {
	provider, err := a.registry.Credential()
	if err != nil {
		return nil, err
	}
	return provider.SignUp(ctx, data, a.config.Session.Secret, a.config.BaseURL)
}

// SignOut clears the user session slot and returns the caller's redirect
// target. Deleting an absent session is not an error, so SignOut is
// idempotent.
func (a *Auth) SignOut(ctx context.Context, redirectTo string) (*Redirect, error) {
	if err := a.session.deleteUserSession(ctx); err != nil {
		return nil, err
	}
	return &Redirect{RedirectTo: redirectTo}, nil
}

// UserSession reads and decrypts the current user session. An absent
// session returns (nil, nil): "not signed in" is a normal state. An expired
// or invalid token is returned as a typed error for the caller to decide
// whether it means "logged out" or something worse.
func (a *Auth) UserSession(ctx context.Context) (*UserSession, error) {
	token, err := a.session.getUserSession(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	return decryptUserSessionToken(token, a.config.Session.Secret)
}

// DecodeSessionToken decrypts a session token obtained from a transport
// other than the storage collaborator, e.g. gRPC metadata or an
// Authorization header.
func (a *Auth) DecodeSessionToken(token string) (*UserSession, error) {
	return decryptUserSessionToken(token, a.config.Session.Secret)
}

// HandleOAuthCallback completes an OAuth sign-in from the provider redirect.
// This endpoint is reached by a browser GET, so it must always produce a
// navigable response: every typed failure is converted into a redirect to
// the provider's error path with the error code appended, never propagated.
// The OAuth-state slot is consumed on both the success and failure terminal
// paths, so a finished handshake never leaves a live state token behind.
func (a *Auth) HandleOAuthCallback(ctx context.Context, r *http.Request, providerID string) (*Redirect, error) {
	provider, err := a.registry.OAuth(providerID)
	if err != nil {
		// No provider means no error-redirect path to fall back to.
		return nil, err
	}

	redirect, err := a.completeOAuthCallback(ctx, r, provider)
	if err != nil {
		// Best-effort cleanup; the state token's own TTL bounds any
		// leftover.
		_ = a.session.deleteOAuthState(ctx)

		if e, ok := AsError(err); ok {
			return &Redirect{RedirectTo: AppendErrorToPath(provider.ErrorRedirectPath(), e)}, nil
		}
		return nil, WrapUnknown(err, "handleOAuthCallback")
	}
	return redirect, nil
}

func (a *Auth) completeOAuthCallback(ctx context.Context, r *http.Request, provider OAuthProvider) (*Redirect, error) {
	stateToken, err := a.session.getOAuthState(ctx)
	if err != nil {
		return nil, err
	}
	if stateToken == "" {
		return nil, NewOAuthStateCookieNotFoundError()
	}

	oauthState, err := decryptOAuthStateToken(stateToken, a.config.Session.Secret)
	if err != nil {
		return nil, err
	}

	claims, err := provider.CompleteSignIn(ctx, r, oauthState, a.config.BaseURL)
	if err != nil {
		return nil, err
	}

	user, err := provider.OnAuthentication(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := a.issueSession(ctx, user, provider.ID()); err != nil {
		return nil, err
	}

	if err := a.session.deleteOAuthState(ctx); err != nil {
		return nil, err
	}

	redirectTo := oauthState.RedirectTo
	if redirectTo == "" {
		redirectTo = "/"
	}
	return &Redirect{RedirectTo: redirectTo}, nil
}

// VerifyEmail completes a deferred credential sign-up from the emailed
// verification link.
func (a *Auth) VerifyEmail(ctx context.Context, r *http.Request) (*Redirect, error) {
	provider, err := a.registry.Credential()
	if err != nil {
		return nil, err
	}
	return provider.VerifyEmail(ctx, r, a.config.Session.Secret)
}

// ForgotPassword starts the password reset flow for an email address.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (*Redirect, error) {
	provider, err := a.registry.Credential()
	if err != nil {
		return nil, err
	}
	return provider.ForgotPassword(ctx, email, a.config.Session.Secret, a.config.BaseURL)
}

// VerifyPasswordResetToken validates an emailed reset link before the reset
// form is shown.
func (a *Auth) VerifyPasswordResetToken(ctx context.Context, r *http.Request) (*Redirect, error) {
	provider, err := a.registry.Credential()
	if err != nil {
		return nil, err
	}
	return provider.VerifyPasswordResetToken(ctx, r, a.config.Session.Secret)
}

// ResetPassword sets a new password from a reset form submission.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) (*Redirect, error) {
	provider, err := a.registry.Credential()
	if err != nil {
		return nil, err
	}
	return provider.ResetPassword(ctx, token, newPassword, a.config.Session.Secret)
}
