// Package crypt encrypts JSON payloads into compact, authenticated,
// self-expiring tokens. The same codec backs both the short-lived OAuth
// state tokens and the long-lived user session tokens; the two classes
// differ only in max age and payload shape.
//
// Token wire format: three dot-separated base64url (unpadded) segments,
//
//	header . nonce . ciphertext
//
// where header is a fixed JSON description of the algorithm, bound into the
// AEAD as additional data so that any modification of any segment makes
// decryption fail. The plaintext is a JSON envelope carrying issued-at,
// expiry and the caller's payload.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// header is constant for every token this package produces. Direct
// symmetric encryption, AES-GCM content encryption.
const header = `{"alg":"dir","enc":"A256GCM"}`

var encodedHeader = base64.RawURLEncoding.EncodeToString([]byte(header))

// envelope is the plaintext structure inside every token.
type envelope struct {
	IssuedAt  int64           `json:"iat"`
	ExpiresAt int64           `json:"exp"`
	Payload   json.RawMessage `json:"payload"`
}

// Encrypt serializes payload to JSON and seals it into a token that expires
// maxAge from now. The secret is the base64 encoding of the raw key bytes;
// the decoded key must be 32 bytes, the length the token header declares.
// GenerateSecret emits a suitable one.
func Encrypt(payload any, secret string, maxAge time.Duration) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	plaintext, err := json.Marshal(envelope{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(maxAge).Unix(),
		Payload:   data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token envelope: %w", err)
	}

	aead, err := newAEAD(secret)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, []byte(encodedHeader))

	return encodedHeader + "." +
		base64.RawURLEncoding.EncodeToString(nonce) + "." +
		base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// TokenInfo reports the timing claims of a successfully decrypted token.
type TokenInfo struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Decrypt opens a token produced by Encrypt and unmarshals its payload into
// v. It fails closed: any structural problem, wrong key or modified byte
// yields ErrTokenInvalid, and a structurally sound token past its expiry
// yields ErrTokenExpired. Callers distinguish the two with errors.Is.
func Decrypt(token, secret string, v any) (*TokenInfo, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrTokenInvalid, len(parts))
	}

	nonce, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad nonce encoding", ErrTokenInvalid)
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", ErrTokenInvalid)
	}

	aead, err := newAEAD(secret)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length", ErrTokenInvalid)
	}

	// The header segment is authenticated as received, so a tampered
	// header fails the same way as a tampered ciphertext.
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", ErrTokenInvalid)
	}

	if time.Now().Unix() > env.ExpiresAt {
		return nil, ErrTokenExpired
	}

	if err := json.Unmarshal(env.Payload, v); err != nil {
		return nil, fmt.Errorf("%w: payload shape mismatch", ErrTokenInvalid)
	}

	return &TokenInfo{
		IssuedAt:  time.Unix(env.IssuedAt, 0),
		ExpiresAt: time.Unix(env.ExpiresAt, 0),
	}, nil
}

func newAEAD(secret string) (cipher.AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		// Accept unpadded secrets too; provisioning tools differ on
		// whether they emit padding.
		key, err = base64.RawStdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("%w: secret is not valid base64", ErrInvalidSecret)
		}
	}

	// The header declares A256GCM, so only 256-bit keys are accepted.
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes, got %d", ErrInvalidSecret, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return cipher.NewGCM(block)
}

// GenerateSecret returns a fresh base64-encoded 256-bit key suitable for
// the session secret.
func GenerateSecret() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
