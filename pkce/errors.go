package pkce

import "errors"

// Entropy-source failures are never retried and never fall back to a weaker
// random source; they surface as these typed errors.
var (
	ErrGenerateState        = errors.New("failed to generate state")
	ErrGenerateCodeVerifier = errors.New("failed to generate code verifier")
)
