package authkit

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrorKind groups failure reasons into the coarse categories the library
// reports. Callers branch on Kind; the Name field carries the stable,
// externally visible identifier.
type ErrorKind int

const (
	// KindUnknown covers anything that was not produced by this library.
	// Unknown failures are always wrapped before crossing the public
	// surface so the error set stays closed.
	KindUnknown ErrorKind = iota

	// KindConfig covers setup mistakes: unknown provider ids, providers
	// registered under the wrong type.
	KindConfig

	// KindCrypto covers token encryption and decryption failures,
	// including expiry.
	KindCrypto

	// KindProtocol covers OAuth protocol violations: missing or
	// mismatched code/state parameters.
	KindProtocol

	// KindNetwork covers token-endpoint transport and response failures.
	KindNetwork

	// KindCallback covers failures raised by host-application capability
	// implementations (identity stores, mailers, user resolvers).
	KindCallback

	// KindDomain covers expected business outcomes: account not found,
	// invalid credentials, account already exists.
	KindDomain
)

// Error is the single error variant used across the library. Every failure
// the library can report is an *Error with a stable Name; anything else is
// wrapped into one via WrapUnknown before reaching a caller.
type Error struct {
	Kind    ErrorKind
	Name    string // stable PascalCase identifier, e.g. "InvalidCredentialsError"
	Message string
	Cause   error

	// Status and StatusText are populated for token-endpoint responses
	// with a non-2xx status (Name "TokenResponseError").
	Status     int
	StatusText string

	// Callback holds the capability method that failed when Kind is
	// KindCallback, e.g. "IdentityStore.CreateUser".
	Callback string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches two library errors by Name, so sentinel-style comparisons with
// errors.Is work against the constructors below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Name == other.Name
}

// Code converts the error Name to its URL-safe snake_case form:
// "InvalidCredentialsError" -> "invalid_credentials_error".
func (e *Error) Code() string {
	return errorCode(e.Name)
}

func errorCode(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AppendErrorToPath annotates a redirect path with the error code, using
// "?" when the path has no query string yet and "&" otherwise.
func AppendErrorToPath(path string, err *Error) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "error=" + url.QueryEscape(err.Code())
}

// AsError reports whether err originated from this library, returning the
// typed value when it did.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// WrapUnknown passes library errors through untouched and wraps anything
// else into an UnknownError tagged with the operation that observed it.
func WrapUnknown(err error, context string) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	return &Error{
		Kind:    KindUnknown,
		Name:    "UnknownError",
		Message: fmt.Sprintf("unknown error occurred in %s", context),
		Cause:   err,
	}
}

// NewCallbackError wraps a failure from a host-supplied capability method.
// The callback argument names the method, e.g. "Mailer.SendVerificationEmail".
func NewCallbackError(callback string, cause error) *Error {
	return &Error{
		Kind:     KindCallback,
		Name:     "CallbackError",
		Message:  fmt.Sprintf("callback %q failed to execute", callback),
		Cause:    cause,
		Callback: callback,
	}
}

// Configuration errors.

func NewProviderNotFoundError(providerID string) *Error {
	return &Error{
		Kind:    KindConfig,
		Name:    "ProviderNotFoundError",
		Message: fmt.Sprintf("%q provider was not found", providerID),
	}
}

func NewInvalidProviderTypeError(providerID string) *Error {
	return &Error{
		Kind:    KindConfig,
		Name:    "InvalidProviderTypeError",
		Message: fmt.Sprintf("%q provider is not the expected type", providerID),
	}
}

func NewInvalidCredentialProviderTypeError() *Error {
	return &Error{
		Kind:    KindConfig,
		Name:    "InvalidCredentialProviderTypeError",
		Message: `provider registered under the "credential" id is not a credential provider`,
	}
}

// Session errors.

func NewExpiredUserSessionError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "ExpiredUserSessionError", Message: "user session has expired", Cause: cause}
}

func NewInvalidUserSessionError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "InvalidUserSessionError", Message: "invalid user session", Cause: cause}
}

func NewEncryptUserSessionPayloadError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "EncryptUserSessionPayloadError", Message: "failed to encrypt user session payload", Cause: cause}
}

// OAuth state errors.

func NewOAuthStateCookieNotFoundError() *Error {
	return &Error{Kind: KindProtocol, Name: "OAuthStateCookieNotFoundError", Message: "OAuth state cookie not found"}
}

func NewExpiredOAuthStateError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "ExpiredOAuthStateError", Message: "OAuth state has expired", Cause: cause}
}

func NewInvalidOAuthStateError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "InvalidOAuthStateError", Message: "invalid OAuth state", Cause: cause}
}

func NewEncryptOAuthStateError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "EncryptOAuthStateError", Message: "failed to encrypt OAuth state payload", Cause: cause}
}

// OAuth protocol errors.

func NewAuthorizationCodeNotFoundError() *Error {
	return &Error{Kind: KindProtocol, Name: "AuthorizationCodeNotFoundError", Message: "missing authorization code in callback URL"}
}

func NewStateNotFoundError() *Error {
	return &Error{Kind: KindProtocol, Name: "StateNotFoundError", Message: "missing state in callback URL"}
}

func NewStateMismatchError() *Error {
	return &Error{Kind: KindProtocol, Name: "StateMismatchError", Message: "state parameter mismatch"}
}

func NewCreateAuthorizationURLError(cause error) *Error {
	return &Error{Kind: KindConfig, Name: "CreateAuthorizationUrlError", Message: "failed to create authorization URL", Cause: cause}
}

// Token-endpoint errors.

func NewTokenFetchError(cause error) *Error {
	return &Error{Kind: KindNetwork, Name: "TokenFetchError", Message: "failed to fetch tokens from provider", Cause: cause}
}

func NewTokenResponseError(status int, statusText string, cause error) *Error {
	return &Error{
		Kind:       KindNetwork,
		Name:       "TokenResponseError",
		Message:    fmt.Sprintf("token endpoint returned %d %s", status, statusText),
		Cause:      cause,
		Status:     status,
		StatusText: statusText,
	}
}

func NewTokenParseError(cause error) *Error {
	return &Error{Kind: KindNetwork, Name: "TokenParseError", Message: "failed to parse token response", Cause: cause}
}

func NewDecodeIDTokenError(cause error) *Error {
	return &Error{Kind: KindProtocol, Name: "DecodeIdTokenError", Message: "failed to decode provider ID token", Cause: cause}
}

// Credential domain errors.

func NewAccountNotFoundError() *Error {
	return &Error{Kind: KindDomain, Name: "AccountNotFoundError", Message: "no account found with this email"}
}

func NewInvalidCredentialsError() *Error {
	return &Error{Kind: KindDomain, Name: "InvalidCredentialsError", Message: "invalid email or password"}
}

func NewAccountAlreadyExistsError() *Error {
	return &Error{Kind: KindDomain, Name: "AccountAlreadyExistsError", Message: "an account with this email already exists"}
}

// Verification and reset token errors.

func NewEmailVerificationTokenNotFoundError() *Error {
	return &Error{Kind: KindProtocol, Name: "EmailVerificationTokenNotFoundError", Message: "missing email verification token in URL"}
}

func NewExpiredEmailVerificationTokenError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "ExpiredEmailVerificationTokenError", Message: "email verification token has expired", Cause: cause}
}

func NewInvalidEmailVerificationTokenError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "InvalidEmailVerificationTokenError", Message: "invalid email verification token", Cause: cause}
}

func NewPasswordResetTokenNotFoundError() *Error {
	return &Error{Kind: KindProtocol, Name: "PasswordResetTokenNotFoundError", Message: "missing password reset token in URL"}
}

func NewExpiredPasswordResetTokenError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "ExpiredPasswordResetTokenError", Message: "password reset token has expired", Cause: cause}
}

func NewInvalidPasswordResetTokenError(cause error) *Error {
	return &Error{Kind: KindCrypto, Name: "InvalidPasswordResetTokenError", Message: "invalid password reset token", Cause: cause}
}

// Storage errors.

func NewGetSessionError(cause error) *Error {
	return &Error{Kind: KindCallback, Name: "GetSessionError", Message: "failed to read session storage", Cause: cause}
}

func NewSaveSessionError(cause error) *Error {
	return &Error{Kind: KindCallback, Name: "SaveSessionError", Message: "failed to write session storage", Cause: cause}
}

func NewDeleteSessionError(cause error) *Error {
	return &Error{Kind: KindCallback, Name: "DeleteSessionError", Message: "failed to delete from session storage", Cause: cause}
}
