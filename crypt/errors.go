package crypt

import "errors"

var (
	// ErrTokenExpired marks a token that decrypted and authenticated
	// correctly but whose expiry has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid marks every other decryption failure: tampered
	// segments, wrong key, malformed structure, payload shape mismatch.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrInvalidSecret marks a secret that is not base64 or does not
	// decode to a valid AES key length.
	ErrInvalidSecret = errors.New("invalid secret")
)
