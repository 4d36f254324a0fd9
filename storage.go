package authkit

import (
	"context"
	"time"
)

// Storage is the session/cookie collaborator contract the host framework
// adapter implements. The library uses two named slots: the user session
// (long TTL) and the OAuth state (short TTL).
//
// Get returns "" with a nil error when the slot is absent; an absent slot is
// a normal state, not a failure. Delete of an absent slot is not an error.
type Storage interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string, maxAge time.Duration) error
	Delete(ctx context.Context, name string) error
}
