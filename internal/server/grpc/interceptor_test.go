package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(secret string) *GRPCServer {
	return NewGRPCServer("", logging.Nop(), nil, nil, secret)
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: ledgerapi.MethodGetBalance}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.adminTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_AdminMethod_MissingToken(t *testing.T) {
	s := newTestServer("secret")

	for _, method := range []string{ledgerapi.MethodIncreaseRate, ledgerapi.MethodTriggerReset} {
		info := &grpc.UnaryServerInfo{FullMethod: method}

		h := func(ctx context.Context, req interface{}) (interface{}, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		}

		_, err := s.adminTokenInterceptor(context.Background(), nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("%s: expected Unauthenticated, got %v", method, status.Code(err))
		}
		if status.Convert(err).Message() != "missing token" {
			t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
		}
	}
}

func TestInterceptor_AdminMethod_InvalidToken(t *testing.T) {
	s := newTestServer("secret")

	md := metadata.New(map[string]string{
		common.AdminTokenHeaderName: "not-a-valid-jwt",
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: ledgerapi.MethodIncreaseRate}

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called for invalid token")
		return nil, nil
	}

	_, err := s.adminTokenInterceptor(ctx, nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_AdminMethod_TokenSignedWithOtherSecret(t *testing.T) {
	s := newTestServer("secret")

	token, err := auth.GenerateAdminToken([]byte("other"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken error: %v", err)
	}
	md := metadata.New(map[string]string{common.AdminTokenHeaderName: token})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: ledgerapi.MethodTriggerReset}

	_, err = s.adminTokenInterceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_AdminMethod_ValidToken(t *testing.T) {
	secret := "super-secret"
	s := newTestServer(secret)

	token, err := auth.GenerateAdminToken([]byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken error: %v", err)
	}

	md := metadata.New(map[string]string{
		common.AdminTokenHeaderName: token,
	})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: ledgerapi.MethodIncreaseRate}

	resp, err := s.adminTokenInterceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_AdminMethod_TokenLifetimeCapped(t *testing.T) {
	s := newTestServer("secret")
	s.SetMaxTokenTTL(10 * time.Minute)

	token, err := auth.GenerateAdminToken([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken error: %v", err)
	}
	md := metadata.New(map[string]string{common.AdminTokenHeaderName: token})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: ledgerapi.MethodIncreaseRate}

	_, err = s.adminTokenInterceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}
