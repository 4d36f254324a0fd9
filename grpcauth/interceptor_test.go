package grpcauth_test

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/trailside/authkit"
	"github.com/trailside/authkit/grpcauth"
)

// mapDecoder resolves tokens from a fixed table, standing in for the real
// token codec.
type mapDecoder struct {
	sessions map[string]*authkit.UserSession
}

func (d *mapDecoder) DecodeSessionToken(token string) (*authkit.UserSession, error) {
	session, ok := d.sessions[token]
	if !ok {
		return nil, authkit.NewInvalidUserSessionError(nil)
	}
	return session, nil
}

func testDecoder() *mapDecoder {
	return &mapDecoder{sessions: map[string]*authkit.UserSession{
		"good-token": {
			User:      authkit.User{ID: "u1", Email: "alice@example.com"},
			Provider:  "credential",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}}
}

func incomingContext(token string) context.Context {
	md := metadata.New(nil)
	if token != "" {
		md.Set(grpcauth.DefaultMetadataKeySessionToken, token)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func unaryInfo(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: method}
}

func TestUnaryInterceptorInjectsSession(t *testing.T) {
	interceptor := grpcauth.UnaryAuthInterceptor(testDecoder(), nil)

	var seen *authkit.UserSession
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = grpcauth.SessionFromContext(ctx)
		return "ok", nil
	}

	resp, err := interceptor(incomingContext("good-token"), nil, unaryInfo("/svc/Method"), handler)
	if err != nil {
		t.Fatalf("interceptor failed: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v", resp)
	}
	if seen == nil || seen.User.ID != "u1" {
		t.Fatalf("handler did not see the session: %+v", seen)
	}
}

func TestUnaryInterceptorRejectsMissingToken(t *testing.T) {
	interceptor := grpcauth.UnaryAuthInterceptor(testDecoder(), nil)

	_, err := interceptor(incomingContext(""), nil, unaryInfo("/svc/Method"), func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestUnaryInterceptorRejectsInvalidToken(t *testing.T) {
	interceptor := grpcauth.UnaryAuthInterceptor(testDecoder(), nil)

	_, err := interceptor(incomingContext("stale-token"), nil, unaryInfo("/svc/Method"), func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if got := status.Convert(err).Message(); got != "invalid_user_session_error" {
		t.Errorf("message = %q", got)
	}
}

func TestUnaryInterceptorPublicMethod(t *testing.T) {
	config := grpcauth.NewPublicMethodsConfig("/svc/Public")
	interceptor := grpcauth.UnaryAuthInterceptor(testDecoder(), config)

	called := false
	_, err := interceptor(incomingContext(""), nil, unaryInfo("/svc/Public"), func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		if grpcauth.IsAuthenticated(ctx) {
			t.Error("anonymous request should carry no session")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("public method should pass: %v", err)
	}
	if !called {
		t.Fatal("handler did not run")
	}
}

func TestUnaryInterceptorOptionalAuth(t *testing.T) {
	interceptor := grpcauth.UnaryAuthInterceptor(testDecoder(), grpcauth.OptionalAuthConfig())

	_, err := interceptor(incomingContext(""), nil, unaryInfo("/svc/Method"), func(ctx context.Context, req interface{}) (interface{}, error) {
		if grpcauth.SessionFromContext(ctx) != nil {
			t.Error("expected nil session")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("optional auth should pass anonymous requests: %v", err)
	}
}

// recordingStream lets the stream interceptor be exercised without a
// transport.
type recordingStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *recordingStream) Context() context.Context { return s.ctx }

func TestStreamInterceptorInjectsSession(t *testing.T) {
	interceptor := grpcauth.StreamAuthInterceptor(testDecoder(), nil)

	var seen *authkit.UserSession
	err := interceptor(nil, &recordingStream{ctx: incomingContext("good-token")},
		&grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv interface{}, stream grpc.ServerStream) error {
			seen = grpcauth.SessionFromContext(stream.Context())
			return nil
		})
	if err != nil {
		t.Fatalf("interceptor failed: %v", err)
	}
	if seen == nil || seen.Provider != "credential" {
		t.Fatalf("stream handler did not see the session: %+v", seen)
	}
}

func TestStreamInterceptorRejectsMissingToken(t *testing.T) {
	interceptor := grpcauth.StreamAuthInterceptor(testDecoder(), nil)

	err := interceptor(nil, &recordingStream{ctx: incomingContext("")},
		&grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv interface{}, stream grpc.ServerStream) error {
			t.Fatal("handler must not run")
			return nil
		})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestSessionTokenToOutgoingContext(t *testing.T) {
	ctx := grpcauth.SessionTokenToOutgoingContext(context.Background(), "tok")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("no outgoing metadata")
	}
	if values := md.Get(grpcauth.DefaultMetadataKeySessionToken); len(values) != 1 || values[0] != "tok" {
		t.Errorf("metadata = %v", values)
	}
}
