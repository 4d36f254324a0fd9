package authkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/trailside/authkit"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  *authkit.Error
		want string
	}{
		{authkit.NewInvalidCredentialsError(), "invalid_credentials_error"},
		{authkit.NewAccountNotFoundError(), "account_not_found_error"},
		{authkit.NewOAuthStateCookieNotFoundError(), "o_auth_state_cookie_not_found_error"},
		{authkit.NewStateMismatchError(), "state_mismatch_error"},
		{authkit.NewDecodeIDTokenError(nil), "decode_id_token_error"},
		{authkit.NewCreateAuthorizationURLError(nil), "create_authorization_url_error"},
		{authkit.WrapUnknown(errors.New("boom"), "op"), "unknown_error"},
		{&authkit.Error{Name: "Error"}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Code(); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendErrorToPath(t *testing.T) {
	err := authkit.NewInvalidCredentialsError()

	tests := []struct {
		path string
		want string
	}{
		{"/login", "/login?error=invalid_credentials_error"},
		{"/login?from=home", "/login?from=home&error=invalid_credentials_error"},
	}
	for _, tt := range tests {
		if got := authkit.AppendErrorToPath(tt.path, err); got != tt.want {
			t.Errorf("AppendErrorToPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestErrorIsMatchesByName(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", authkit.NewStateMismatchError())
	if !errors.Is(wrapped, authkit.NewStateMismatchError()) {
		t.Error("errors.Is should match two StateMismatchErrors")
	}
	if errors.Is(wrapped, authkit.NewStateNotFoundError()) {
		t.Error("errors.Is should not match different names")
	}
}

func TestWrapUnknown(t *testing.T) {
	typed := authkit.NewAccountNotFoundError()
	if got := authkit.WrapUnknown(typed, "op"); got != typed {
		t.Error("WrapUnknown should pass library errors through untouched")
	}

	cause := errors.New("disk on fire")
	wrapped := authkit.WrapUnknown(cause, "signIn")
	if wrapped.Name != "UnknownError" {
		t.Errorf("Name = %q, want UnknownError", wrapped.Name)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestCallbackErrorCarriesMethod(t *testing.T) {
	cause := errors.New("connection refused")
	err := authkit.NewCallbackError("IdentityStore.CreateUser", cause)
	if err.Callback != "IdentityStore.CreateUser" {
		t.Errorf("Callback = %q", err.Callback)
	}
	if !errors.Is(err, cause) {
		t.Error("callback error should unwrap to its cause")
	}
}

func TestTokenResponseErrorPreservesStatus(t *testing.T) {
	err := authkit.NewTokenResponseError(503, "Service Unavailable", nil)
	if err.Status != 503 || err.StatusText != "Service Unavailable" {
		t.Errorf("status not preserved: %d %q", err.Status, err.StatusText)
	}
}

func TestAsError(t *testing.T) {
	if _, ok := authkit.AsError(errors.New("plain")); ok {
		t.Error("plain error should not be recognized")
	}
	wrapped := fmt.Errorf("outer: %w", authkit.NewInvalidUserSessionError(nil))
	e, ok := authkit.AsError(wrapped)
	if !ok || e.Name != "InvalidUserSessionError" {
		t.Errorf("AsError failed to find wrapped library error: %v %v", e, ok)
	}
}
