package grpcauth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trailside/authkit"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// RequireAuth when true rejects requests without a valid session.
	// When false, requests proceed but SessionFromContext returns nil.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig()
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

// UnaryAuthInterceptor returns a unary interceptor that decrypts the session
// token from incoming metadata and injects the session into the handler
// context. An expired or invalid token on a protected method is reported as
// Unauthenticated, not ignored.
func UnaryAuthInterceptor(decoder SessionDecoder, config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config = normalize(config)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		session, err := decodeSession(ctx, decoder, config)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if err != nil {
				return nil, err
			}
			if session == nil {
				return nil, status.Error(codes.Unauthenticated, "authentication required")
			}
		}
		if session != nil {
			ctx = withSession(ctx, session)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns the stream counterpart of
// UnaryAuthInterceptor.
func StreamAuthInterceptor(decoder SessionDecoder, config *InterceptorConfig) grpc.StreamServerInterceptor {
	config = normalize(config)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		session, err := decodeSession(ctx, decoder, config)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if err != nil {
				return err
			}
			if session == nil {
				return status.Error(codes.Unauthenticated, "authentication required")
			}
		}
		if session != nil {
			ss = &sessionStream{ServerStream: ss, ctx: withSession(ctx, session)}
		}
		return handler(srv, ss)
	}
}

func normalize(config *InterceptorConfig) *InterceptorConfig {
	if config == nil {
		return DefaultInterceptorConfig()
	}
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	config.Config.EnsureDefaults()
	if config.PublicMethods == nil {
		config.PublicMethods = make(map[string]bool)
	}
	return config
}

// decodeSession returns (nil, nil) when no token is present; a present but
// undecryptable token is an error so protected methods can distinguish
// "anonymous" from "stale credential".
func decodeSession(ctx context.Context, decoder SessionDecoder, config *InterceptorConfig) (*authkit.UserSession, error) {
	token := tokenFromIncomingContext(ctx, config.Config)
	if token == "" {
		return nil, nil
	}
	session, err := decoder.DecodeSessionToken(token)
	if err != nil {
		if e, ok := authkit.AsError(err); ok {
			return nil, status.Error(codes.Unauthenticated, e.Code())
		}
		return nil, status.Error(codes.Unauthenticated, "invalid session token")
	}
	return session, nil
}

// sessionStream overrides Context to expose the decoded session to stream
// handlers.
type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }
