package authkit

import (
	"context"
	"time"

	"github.com/alexedwards/scs/v2"
)

// SCSStorage keeps the session slots in a server-side scs session instead of
// individual cookies; only the scs session id travels to the user agent.
// Requests must pass through scs's LoadAndSave middleware. Implements
// Storage.
type SCSStorage struct {
	Sessions *scs.SessionManager
}

var _ Storage = (*SCSStorage)(nil)

func (s *SCSStorage) Get(ctx context.Context, name string) (string, error) {
	// GetString returns "" for an absent key, which is exactly the
	// absent-slot contract.
	return s.Sessions.GetString(ctx, name), nil
}

func (s *SCSStorage) Set(ctx context.Context, name, value string, maxAge time.Duration) error {
	// The scs session lifetime bounds the slot; the token inside carries
	// its own expiry, so maxAge needs no per-key enforcement here.
	_ = maxAge
	s.Sessions.Put(ctx, name, value)
	return nil
}

func (s *SCSStorage) Delete(ctx context.Context, name string) error {
	s.Sessions.Remove(ctx, name)
	return nil
}
