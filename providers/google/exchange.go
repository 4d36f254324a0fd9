package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/trailside/authkit"
)

// tokenResponse is the subset of Google's token endpoint response the
// provider consumes.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// exchangeCode redeems the authorization code at the token endpoint,
// presenting the PKCE verifier alongside it. Failures are split into three
// classes so callers can tell a dead network from a provider rejection from
// a mangled response: transport errors, non-2xx responses (status preserved)
// and unparseable bodies.
func (p *Provider) exchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, authkit.NewTokenFetchError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, authkit.NewTokenFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the body is not part of
		// the reported error.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, authkit.NewTokenResponseError(resp.StatusCode, http.StatusText(resp.StatusCode), nil)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, authkit.NewTokenParseError(err)
	}

	return &tokens, nil
}
