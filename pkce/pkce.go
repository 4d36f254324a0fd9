// Package pkce produces the random values used by the OAuth
// authorization-code-with-PKCE flow: the CSRF state parameter, the code
// verifier, and the S256 verifier-to-challenge transform (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifier/state entropy in bytes. 32 bytes encode to 43 base64url
// characters, the RFC 7636 minimum verifier length.
const entropyBytes = 32

// State returns a cryptographically random URL-safe state value.
func State() (string, error) {
	b, err := randomBytes()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerateState, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeVerifier returns a cryptographically random PKCE code verifier of 43
// characters.
func CodeVerifier() (string, error) {
	b, err := randomBytes()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerateCodeVerifier, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallenge derives the S256 code challenge for a verifier. The
// transform is deterministic: the same verifier always yields the same
// challenge. The challenge is sent with the authorization request; the
// verifier itself is sent later, with the token exchange.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomBytes() ([]byte, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
