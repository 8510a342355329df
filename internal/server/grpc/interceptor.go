package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/dmitrijs2005/minerledger/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// adminMethods require a valid admin token in the admin_token metadata.
var adminMethods = map[string]bool{
	ledgerapi.MethodIncreaseRate: true,
	ledgerapi.MethodTriggerReset: true,
}

func (s *GRPCServer) adminTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !adminMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AdminTokenHeaderName)
		if len(values) > 0 {
			token = values[0]
		}
	}
	if len(token) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := auth.ValidateAdminTokenLifetime(token, s.jwtSecret, s.maxTTL); err != nil {
		s.logger.Warn(ctx, "admin token rejected", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "gRPC call", "method", info.FullMethod,
		"code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
