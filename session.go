package authkit

import (
	"context"
	"errors"
	"time"

	"github.com/trailside/authkit/crypt"
)

// sessionOperations is the facade the orchestrator uses for the two storage
// slots. Built once, wrapping the caller-supplied Storage collaborator.
type sessionOperations struct {
	storage       Storage
	sessionMaxAge time.Duration
}

func (s *sessionOperations) setUserSession(ctx context.Context, token string) error {
	if err := s.storage.Set(ctx, SlotUserSession, token, s.sessionMaxAge); err != nil {
		return NewSaveSessionError(err)
	}
	return nil
}

func (s *sessionOperations) getUserSession(ctx context.Context) (string, error) {
	token, err := s.storage.Get(ctx, SlotUserSession)
	if err != nil {
		return "", NewGetSessionError(err)
	}
	return token, nil
}

func (s *sessionOperations) deleteUserSession(ctx context.Context) error {
	if err := s.storage.Delete(ctx, SlotUserSession); err != nil {
		return NewDeleteSessionError(err)
	}
	return nil
}

func (s *sessionOperations) setOAuthState(ctx context.Context, token string) error {
	if err := s.storage.Set(ctx, SlotOAuthState, token, OAuthStateMaxAge); err != nil {
		return NewSaveSessionError(err)
	}
	return nil
}

func (s *sessionOperations) getOAuthState(ctx context.Context) (string, error) {
	token, err := s.storage.Get(ctx, SlotOAuthState)
	if err != nil {
		return "", NewGetSessionError(err)
	}
	return token, nil
}

func (s *sessionOperations) deleteOAuthState(ctx context.Context) error {
	if err := s.storage.Delete(ctx, SlotOAuthState); err != nil {
		return NewDeleteSessionError(err)
	}
	return nil
}

// Token class wrappers. User session and OAuth state tokens are structurally
// identical but never interchangeable: each class nests its payload under a
// distinct key and checks shape after decryption, so decrypting one class as
// the other fails as invalid rather than yielding a half-filled value.

type userSessionEnvelope struct {
	Session *UserSessionPayload `json:"userSession"`
}

type oauthStateEnvelope struct {
	State *OAuthState `json:"oauthState"`
}

func encryptUserSessionPayload(payload UserSessionPayload, secret string, maxAge time.Duration) (string, error) {
	token, err := crypt.Encrypt(userSessionEnvelope{Session: &payload}, secret, maxAge)
	if err != nil {
		return "", NewEncryptUserSessionPayloadError(err)
	}
	return token, nil
}

func decryptUserSessionToken(token, secret string) (*UserSession, error) {
	var env userSessionEnvelope
	info, err := crypt.Decrypt(token, secret, &env)
	if err != nil {
		if errors.Is(err, crypt.ErrTokenExpired) {
			return nil, NewExpiredUserSessionError(err)
		}
		return nil, NewInvalidUserSessionError(err)
	}
	if env.Session == nil || env.Session.Provider == "" {
		return nil, NewInvalidUserSessionError(errors.New("token does not carry a user session"))
	}
	return &UserSession{
		User:      env.Session.User,
		Provider:  env.Session.Provider,
		ExpiresAt: info.ExpiresAt,
	}, nil
}

func encryptOAuthState(state OAuthState, secret string) (string, error) {
	token, err := crypt.Encrypt(oauthStateEnvelope{State: &state}, secret, OAuthStateMaxAge)
	if err != nil {
		return "", NewEncryptOAuthStateError(err)
	}
	return token, nil
}

func decryptOAuthStateToken(token, secret string) (*OAuthState, error) {
	var env oauthStateEnvelope
	if _, err := crypt.Decrypt(token, secret, &env); err != nil {
		if errors.Is(err, crypt.ErrTokenExpired) {
			return nil, NewExpiredOAuthStateError(err)
		}
		return nil, NewInvalidOAuthStateError(err)
	}
	if env.State == nil || env.State.State == "" || env.State.CodeVerifier == "" {
		return nil, NewInvalidOAuthStateError(errors.New("token does not carry an OAuth state"))
	}
	return env.State, nil
}
