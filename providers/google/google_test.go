package google_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"github.com/trailside/authkit"
	"github.com/trailside/authkit/providers/google"
)

const baseURL = "http://localhost:8080"

type staticResolver struct {
	user authkit.User
	err  error

	claims authkit.Claims
}

func (r *staticResolver) ResolveUser(ctx context.Context, claims authkit.Claims) (authkit.User, error) {
	r.claims = claims
	if r.err != nil {
		return authkit.User{}, r.err
	}
	return r.user, nil
}

// unsignedIDToken builds a structurally valid JWT carrying the given claims.
// The provider only decodes the claims, so an empty signature suffices.
func unsignedIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, _ := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshaling claims: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "."
}

// tokenServer stands in for Google's token endpoint.
func tokenServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, oauth2.Endpoint) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, oauth2.Endpoint{
		AuthURL:  "https://accounts.example.com/authorize",
		TokenURL: server.URL + "/token",
	}
}

func newProvider(t *testing.T, endpoint oauth2.Endpoint, resolver *staticResolver) *google.Provider {
	t.Helper()
	return google.New(google.Config{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		Users:         resolver,
		ErrorRedirect: "/login",
		Endpoint:      endpoint,
	})
}

func oauthState(state string) *authkit.OAuthState {
	return &authkit.OAuthState{
		State:        state,
		CodeVerifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
		Provider:     "google",
	}
}

func callbackRequest(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/auth/callback/google?"+query, nil)
}

func TestAuthorizationURL(t *testing.T) {
	provider := newProvider(t, oauth2.Endpoint{AuthURL: "https://accounts.example.com/authorize"}, &staticResolver{})

	raw, err := provider.AuthorizationURL("the-state", "the-challenge", baseURL)
	if err != nil {
		t.Fatalf("AuthorizationURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad URL %q: %v", raw, err)
	}

	q := u.Query()
	want := map[string]string{
		"response_type":         "code",
		"client_id":             "client-id",
		"redirect_uri":          baseURL + "/api/auth/callback/google",
		"state":                 "the-state",
		"code_challenge":        "the-challenge",
		"code_challenge_method": "S256",
		"scope":                 "openid email profile",
		"prompt":                "select_account",
	}
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
}

func TestAuthorizationURLPromptOverride(t *testing.T) {
	provider := google.New(google.Config{
		ClientID: "client-id",
		Prompt:   "consent",
		Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/authorize"},
	})
	raw, err := provider.AuthorizationURL("s", "c", baseURL)
	if err != nil {
		t.Fatalf("AuthorizationURL failed: %v", err)
	}
	u, _ := url.Parse(raw)
	if got := u.Query().Get("prompt"); got != "consent" {
		t.Errorf("prompt = %q, want consent", got)
	}
}

func TestAuthorizationURLMissingClientID(t *testing.T) {
	provider := google.New(google.Config{})
	_, err := provider.AuthorizationURL("s", "c", baseURL)
	if !errors.Is(err, authkit.NewCreateAuthorizationURLError(nil)) {
		t.Fatalf("expected CreateAuthorizationUrlError, got %v", err)
	}
}

func TestCompleteSignIn(t *testing.T) {
	idToken := unsignedIDToken(t, map[string]any{
		"sub":   "google-user-1",
		"email": "alice@example.com",
		"name":  "Alice",
	})

	var gotForm url.Values
	_, endpoint := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing token request form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"id_token":     idToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	provider := newProvider(t, endpoint, &staticResolver{})
	state := oauthState("the-state")

	claims, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=the-code&state=the-state"), state, baseURL)
	if err != nil {
		t.Fatalf("CompleteSignIn failed: %v", err)
	}
	if claims["email"] != "alice@example.com" || claims["sub"] != "google-user-1" {
		t.Errorf("unexpected claims: %v", claims)
	}

	// The exchange must present the code and the PKCE verifier.
	if got := gotForm.Get("code"); got != "the-code" {
		t.Errorf("code = %q", got)
	}
	if got := gotForm.Get("code_verifier"); got != state.CodeVerifier {
		t.Errorf("code_verifier = %q, want %q", got, state.CodeVerifier)
	}
	if got := gotForm.Get("grant_type"); got != "authorization_code" {
		t.Errorf("grant_type = %q", got)
	}
	if got := gotForm.Get("redirect_uri"); got != baseURL+"/api/auth/callback/google" {
		t.Errorf("redirect_uri = %q", got)
	}
}

func TestCompleteSignInProtocolErrors(t *testing.T) {
	provider := newProvider(t, oauth2.Endpoint{TokenURL: "http://unused.invalid/token"}, &staticResolver{})

	tests := []struct {
		name  string
		query string
		want  *authkit.Error
	}{
		{"missing code", "state=the-state", authkit.NewAuthorizationCodeNotFoundError()},
		{"missing state", "code=abc", authkit.NewStateNotFoundError()},
		{"state mismatch", "code=abc&state=forged", authkit.NewStateMismatchError()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.CompleteSignIn(context.Background(), callbackRequest(tt.query), oauthState("the-state"), baseURL)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCompleteSignInTokenResponseError(t *testing.T) {
	_, endpoint := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	provider := newProvider(t, endpoint, &staticResolver{})

	_, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=bad&state=s"), oauthState("s"), baseURL)
	e, ok := authkit.AsError(err)
	if !ok || e.Name != "TokenResponseError" {
		t.Fatalf("expected TokenResponseError, got %v", err)
	}
	if e.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", e.Status)
	}
}

func TestCompleteSignInTokenFetchError(t *testing.T) {
	// Nothing listens here; the dial fails.
	provider := newProvider(t, oauth2.Endpoint{TokenURL: "http://127.0.0.1:1/token"}, &staticResolver{})

	_, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=c&state=s"), oauthState("s"), baseURL)
	if !errors.Is(err, authkit.NewTokenFetchError(nil)) {
		t.Fatalf("expected TokenFetchError, got %v", err)
	}
}

func TestCompleteSignInTokenParseError(t *testing.T) {
	_, endpoint := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	})
	provider := newProvider(t, endpoint, &staticResolver{})

	_, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=c&state=s"), oauthState("s"), baseURL)
	if !errors.Is(err, authkit.NewTokenParseError(nil)) {
		t.Fatalf("expected TokenParseError, got %v", err)
	}
}

func TestCompleteSignInMissingIDToken(t *testing.T) {
	_, endpoint := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at"})
	})
	provider := newProvider(t, endpoint, &staticResolver{})

	_, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=c&state=s"), oauthState("s"), baseURL)
	if !errors.Is(err, authkit.NewDecodeIDTokenError(nil)) {
		t.Fatalf("expected DecodeIdTokenError, got %v", err)
	}
}

func TestCompleteSignInMalformedIDToken(t *testing.T) {
	_, endpoint := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id_token": "definitely.not-a.jwt"})
	})
	provider := newProvider(t, endpoint, &staticResolver{})

	_, err := provider.CompleteSignIn(context.Background(), callbackRequest("code=c&state=s"), oauthState("s"), baseURL)
	if !errors.Is(err, authkit.NewDecodeIDTokenError(nil)) {
		t.Fatalf("expected DecodeIdTokenError, got %v", err)
	}
}

func TestOnAuthentication(t *testing.T) {
	resolver := &staticResolver{user: authkit.User{ID: "u1", Email: "alice@example.com"}}
	provider := newProvider(t, oauth2.Endpoint{}, resolver)

	user, err := provider.OnAuthentication(context.Background(), authkit.Claims{"email": "alice@example.com"})
	if err != nil {
		t.Fatalf("OnAuthentication failed: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user = %+v", user)
	}
	if resolver.claims["email"] != "alice@example.com" {
		t.Error("resolver did not receive the claims")
	}
}

func TestOnAuthenticationResolverFailure(t *testing.T) {
	resolver := &staticResolver{err: errors.New("db down")}
	provider := newProvider(t, oauth2.Endpoint{}, resolver)

	_, err := provider.OnAuthentication(context.Background(), authkit.Claims{})
	e, ok := authkit.AsError(err)
	if !ok || e.Name != "CallbackError" {
		t.Fatalf("expected CallbackError, got %v", err)
	}
	if e.Callback != "UserResolver.ResolveUser" {
		t.Errorf("Callback = %q", e.Callback)
	}
}
