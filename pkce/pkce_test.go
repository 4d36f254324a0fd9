package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/trailside/authkit/pkce"
)

func TestCodeVerifierLength(t *testing.T) {
	verifier, err := pkce.CodeVerifier()
	if err != nil {
		t.Fatalf("CodeVerifier failed: %v", err)
	}
	// RFC 7636 requires 43..128 characters.
	if len(verifier) < 43 || len(verifier) > 128 {
		t.Fatalf("verifier length %d outside RFC 7636 bounds", len(verifier))
	}
	if _, err := base64.RawURLEncoding.DecodeString(verifier); err != nil {
		t.Fatalf("verifier is not URL-safe base64: %v", err)
	}
}

func TestValuesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := pkce.State()
		if err != nil {
			t.Fatalf("State failed: %v", err)
		}
		verifier, err := pkce.CodeVerifier()
		if err != nil {
			t.Fatalf("CodeVerifier failed: %v", err)
		}
		if seen[state] || seen[verifier] {
			t.Fatal("generated a duplicate value")
		}
		seen[state] = true
		seen[verifier] = true
	}
}

func TestCodeChallengeDeterministic(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	sum := sha256.Sum256([]byte(verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])

	got := pkce.CodeChallenge(verifier)
	if got != want {
		t.Errorf("CodeChallenge = %q, want %q", got, want)
	}
	if got != pkce.CodeChallenge(verifier) {
		t.Error("CodeChallenge is not deterministic")
	}

	other := pkce.CodeChallenge(verifier + "x")
	if other == got {
		t.Error("different verifiers produced the same challenge")
	}
}
