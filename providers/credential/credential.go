// Package credential implements email/password authentication: sign-up with
// deferred account creation behind an email verification link, sign-in
// against a stored password hash, and the password reset flow. Identity
// persistence and email delivery are capabilities the host application
// implements; the provider only sequences them.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trailside/authkit"
	"github.com/trailside/authkit/crypt"
)

// Token lifetimes for the two emailed-link token classes.
const (
	EmailVerificationMaxAge = 24 * time.Hour
	PasswordResetMaxAge     = 1 * time.Hour
)

// IdentityStore is the persistence capability the host application
// implements. All methods may be called concurrently.
type IdentityStore interface {
	// UserExists reports whether a credential account exists for email.
	UserExists(ctx context.Context, email string) (bool, error)

	// GetUserByEmail returns the stored user with its password hash, or
	// (nil, nil) when no account exists for email.
	GetUserByEmail(ctx context.Context, email string) (*authkit.CredentialUser, error)

	// CreateUser creates the account. Called at email verification time,
	// not at sign-up time.
	CreateUser(ctx context.Context, user NewUser) error

	// UpdatePassword replaces the stored password hash for email.
	UpdatePassword(ctx context.Context, email, hashedPassword string) error
}

// NewUser is the payload handed to IdentityStore.CreateUser once the email
// address has been verified.
type NewUser struct {
	Email          string         `json:"email"`
	HashedPassword string         `json:"hashedPassword"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// Mailer is the email delivery capability.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, url string) error
	SendPasswordResetEmail(ctx context.Context, email, url string) error
	SendPasswordChangedEmail(ctx context.Context, email string) error
}

// Redirects names the pages the provider sends browsers to. Error paths get
// the failure's code appended as an "error" query parameter.
type Redirects struct {
	SignUpSuccess            string
	EmailVerificationSuccess string
	EmailVerificationError   string
	ForgotPasswordSuccess    string
	ResetTokenSuccess        string
	ResetTokenError          string
	ResetPasswordSuccess     string
}

// Config assembles the provider's capabilities. Store, Mailer and Redirects
// are required; Hasher defaults to bcrypt.
type Config struct {
	Store     IdentityStore
	Mailer    Mailer
	Hasher    PasswordHasher
	Redirects Redirects
}

// Provider is the credential provider. It is stateless: every operation is
// an independent unit of work.
type Provider struct {
	store     IdentityStore
	mailer    Mailer
	hasher    PasswordHasher
	redirects Redirects
}

var _ authkit.CredentialProvider = (*Provider)(nil)

// New builds the credential provider.
func New(config Config) *Provider {
	hasher := config.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Provider{
		store:     config.Store,
		mailer:    config.Mailer,
		hasher:    hasher,
		redirects: config.Redirects,
	}
}

func (p *Provider) ID() string { return authkit.CredentialProviderID }

// Emailed-link token payloads. Each class nests under its own key so the
// codec rejects one class presented as the other.

type verificationTokenEnvelope struct {
	SignUp *NewUser `json:"signUp"`
}

type resetTokenEnvelope struct {
	Reset *resetPayload `json:"passwordReset"`
}

type resetPayload struct {
	Email string `json:"email"`
}

// SignUp checks that no account exists, hashes the password, and emails a
// verification link carrying the pending account inside a signed token. The
// user row is NOT created here; creation happens when the link is followed,
// so unverified sign-ups never pollute the store.
func (p *Provider) SignUp(ctx context.Context, data authkit.SignUpData, secret, baseURL string) (*authkit.Redirect, error) {
	exists, err := p.store.UserExists(ctx, data.Email)
	if err != nil {
		return nil, authkit.NewCallbackError("IdentityStore.UserExists", err)
	}
	if exists {
		return nil, authkit.NewAccountAlreadyExistsError()
	}

	hashedPassword, err := p.hasher.Hash(data.Password)
	if err != nil {
		return nil, authkit.WrapUnknown(err, "credential.SignUp")
	}

	token, err := crypt.Encrypt(verificationTokenEnvelope{SignUp: &NewUser{
		Email:          data.Email,
		HashedPassword: hashedPassword,
		Extra:          data.Extra,
	}}, secret, EmailVerificationMaxAge)
	if err != nil {
		return nil, authkit.WrapUnknown(err, "credential.SignUp")
	}

	verificationURL := buildTokenURL(baseURL, authkit.RouteVerifyEmail, token)
	if err := p.mailer.SendVerificationEmail(ctx, data.Email, verificationURL); err != nil {
		return nil, authkit.NewCallbackError("Mailer.SendVerificationEmail", err)
	}

	return &authkit.Redirect{RedirectTo: p.redirects.SignUpSuccess}, nil
}

// SignIn verifies the password against the stored hash and returns the user
// record with the hash stripped.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*authkit.User, error) {
	stored, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, authkit.NewCallbackError("IdentityStore.GetUserByEmail", err)
	}
	if stored == nil {
		return nil, authkit.NewAccountNotFoundError()
	}

	ok, err := p.hasher.Verify(password, stored.HashedPassword)
	if err != nil {
		return nil, authkit.WrapUnknown(err, "credential.SignIn")
	}
	if !ok {
		return nil, authkit.NewInvalidCredentialsError()
	}

	user := stored.User
	return &user, nil
}

// VerifyEmail completes a deferred sign-up from the emailed link. This is a
// GET endpoint reached from an email client, so typed failures become
// error-annotated redirects rather than returned errors.
func (p *Provider) VerifyEmail(ctx context.Context, r *http.Request, secret string) (*authkit.Redirect, error) {
	redirect, err := p.verifyEmail(ctx, r, secret)
	if err != nil {
		if e, ok := authkit.AsError(err); ok {
			return &authkit.Redirect{
				RedirectTo: authkit.AppendErrorToPath(p.redirects.EmailVerificationError, e),
			}, nil
		}
		return nil, authkit.WrapUnknown(err, "credential.VerifyEmail")
	}
	return redirect, nil
}

func (p *Provider) verifyEmail(ctx context.Context, r *http.Request, secret string) (*authkit.Redirect, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, authkit.NewEmailVerificationTokenNotFoundError()
	}

	var env verificationTokenEnvelope
	if _, err := crypt.Decrypt(token, secret, &env); err != nil {
		if errors.Is(err, crypt.ErrTokenExpired) {
			return nil, authkit.NewExpiredEmailVerificationTokenError(err)
		}
		return nil, authkit.NewInvalidEmailVerificationTokenError(err)
	}
	if env.SignUp == nil || env.SignUp.Email == "" {
		return nil, authkit.NewInvalidEmailVerificationTokenError(errors.New("token does not carry a pending sign-up"))
	}

	if err := p.store.CreateUser(ctx, *env.SignUp); err != nil {
		return nil, authkit.NewCallbackError("IdentityStore.CreateUser", err)
	}

	return &authkit.Redirect{RedirectTo: p.redirects.EmailVerificationSuccess}, nil
}

// ForgotPassword emails a reset link when an account exists. When it does
// not, the operation returns the identical success redirect without
// generating a token or sending mail, so responses cannot be used to
// enumerate accounts.
func (p *Provider) ForgotPassword(ctx context.Context, email, secret, baseURL string) (*authkit.Redirect, error) {
	exists, err := p.store.UserExists(ctx, email)
	if err != nil {
		return nil, authkit.NewCallbackError("IdentityStore.UserExists", err)
	}

	success := &authkit.Redirect{RedirectTo: p.redirects.ForgotPasswordSuccess}
	if !exists {
		return success, nil
	}

	token, err := crypt.Encrypt(resetTokenEnvelope{Reset: &resetPayload{Email: email}}, secret, PasswordResetMaxAge)
	if err != nil {
		return nil, authkit.WrapUnknown(err, "credential.ForgotPassword")
	}

	resetURL := buildTokenURL(baseURL, authkit.RouteVerifyPasswordResetToken, token)
	if err := p.mailer.SendPasswordResetEmail(ctx, email, resetURL); err != nil {
		return nil, authkit.NewCallbackError("Mailer.SendPasswordResetEmail", err)
	}

	return success, nil
}

// VerifyPasswordResetToken checks that a reset link is still fresh before
// the reset form is shown. On success the token itself is appended to the
// redirect target; ResetPassword re-verifies it when the form is submitted.
// GET endpoint: typed failures become error-annotated redirects.
func (p *Provider) VerifyPasswordResetToken(ctx context.Context, r *http.Request, secret string) (*authkit.Redirect, error) {
	redirect, err := p.verifyResetToken(r, secret)
	if err != nil {
		if e, ok := authkit.AsError(err); ok {
			return &authkit.Redirect{
				RedirectTo: authkit.AppendErrorToPath(p.redirects.ResetTokenError, e),
			}, nil
		}
		return nil, authkit.WrapUnknown(err, "credential.VerifyPasswordResetToken")
	}
	return redirect, nil
}

func (p *Provider) verifyResetToken(r *http.Request, secret string) (*authkit.Redirect, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, authkit.NewPasswordResetTokenNotFoundError()
	}

	if _, err := p.decodeResetToken(token, secret); err != nil {
		return nil, err
	}

	sep := "?"
	if strings.Contains(p.redirects.ResetTokenSuccess, "?") {
		sep = "&"
	}
	return &authkit.Redirect{
		RedirectTo: p.redirects.ResetTokenSuccess + sep + "token=" + url.QueryEscape(token),
	}, nil
}

// ResetPassword re-verifies the token, hashes the new password and updates
// the store. This is a POST submission, so typed errors propagate to the
// caller.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword, secret string) (*authkit.Redirect, error) {
	payload, err := p.decodeResetToken(token, secret)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := p.hasher.Hash(newPassword)
	if err != nil {
		return nil, authkit.WrapUnknown(err, "credential.ResetPassword")
	}

	if err := p.store.UpdatePassword(ctx, payload.Email, hashedPassword); err != nil {
		return nil, authkit.NewCallbackError("IdentityStore.UpdatePassword", err)
	}

	if err := p.mailer.SendPasswordChangedEmail(ctx, payload.Email); err != nil {
		return nil, authkit.NewCallbackError("Mailer.SendPasswordChangedEmail", err)
	}

	return &authkit.Redirect{RedirectTo: p.redirects.ResetPasswordSuccess}, nil
}

func (p *Provider) decodeResetToken(token, secret string) (*resetPayload, error) {
	var env resetTokenEnvelope
	if _, err := crypt.Decrypt(token, secret, &env); err != nil {
		if errors.Is(err, crypt.ErrTokenExpired) {
			return nil, authkit.NewExpiredPasswordResetTokenError(err)
		}
		return nil, authkit.NewInvalidPasswordResetTokenError(err)
	}
	if env.Reset == nil || env.Reset.Email == "" {
		return nil, authkit.NewInvalidPasswordResetTokenError(errors.New("token does not carry a password reset"))
	}
	return env.Reset, nil
}

func buildTokenURL(baseURL, path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", baseURL, path, url.QueryEscape(token))
}
