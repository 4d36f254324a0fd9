// Package grpcauth carries the encrypted session token over gRPC metadata
// and makes the decoded user session available to service handlers through
// the request context.
package grpcauth

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/trailside/authkit"
)

// DefaultMetadataKeySessionToken is the default metadata key the session
// token travels under.
const DefaultMetadataKeySessionToken = "x-session-token"

// SessionDecoder decrypts a session token. *authkit.Auth satisfies it.
type SessionDecoder interface {
	DecodeSessionToken(token string) (*authkit.UserSession, error)
}

// Config holds the metadata key configuration.
type Config struct {
	// MetadataKeySessionToken is the metadata key carrying the encrypted
	// session token. Defaults to "x-session-token".
	MetadataKeySessionToken string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{MetadataKeySessionToken: DefaultMetadataKeySessionToken}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeySessionToken == "" {
		c.MetadataKeySessionToken = DefaultMetadataKeySessionToken
	}
}

type sessionContextKey struct{}

// SessionFromContext returns the user session the interceptor decoded for
// this request, or nil when the request carried no valid token.
func SessionFromContext(ctx context.Context) *authkit.UserSession {
	session, _ := ctx.Value(sessionContextKey{}).(*authkit.UserSession)
	return session
}

// IsAuthenticated reports whether the context carries a decoded session.
func IsAuthenticated(ctx context.Context) bool {
	return SessionFromContext(ctx) != nil
}

func withSession(ctx context.Context, session *authkit.UserSession) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionTokenToOutgoingContext attaches a session token to an outgoing
// call's metadata under the default key.
func SessionTokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return SessionTokenToOutgoingContextWithKey(ctx, token, DefaultMetadataKeySessionToken)
}

// SessionTokenToOutgoingContextWithKey attaches a session token under a
// custom metadata key.
func SessionTokenToOutgoingContextWithKey(ctx context.Context, token, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, token)
}

// tokenFromIncomingContext pulls the raw token out of the incoming metadata.
func tokenFromIncomingContext(ctx context.Context, config *Config) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(config.MetadataKeySessionToken); len(values) > 0 {
		return values[0]
	}
	return ""
}
