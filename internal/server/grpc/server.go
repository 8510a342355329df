// Package grpc exposes the ledger over gRPC. Messages travel with the JSON
// codec from internal/ledgerapi; the standard health service is registered
// alongside.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/dmitrijs2005/minerledger/internal/server/scheduler"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Ledger is the part of services.LedgerService the transport calls.
type Ledger interface {
	Observe(ctx context.Context, uid string) (*models.UserRecord, error)
	IncreaseRate(ctx context.Context, uid string, amount *float64) (*models.UserRecord, error)
	Sync(ctx context.Context, uid string, balance, rate *float64) (*models.UserRecord, error)
}

// Resetter runs an on-demand reset sweep.
type Resetter interface {
	SweepNow(ctx context.Context) (scheduler.SweepReport, error)
}

type GRPCServer struct {
	address   string
	ledger    Ledger
	resetter  Resetter
	logger    logging.Logger
	jwtSecret []byte
	maxTTL    time.Duration
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, ledger Ledger, resetter Resetter, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		ledger:    ledger,
		resetter:  resetter,
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
	}
}

// SetMaxTokenTTL caps the lifetime of admin tokens the server accepts.
// Zero accepts any lifetime.
func (s *GRPCServer) SetMaxTokenTTL(d time.Duration) {
	s.maxTTL = d
}

// NewServer builds a grpc.Server with the ledger and health services
// registered and the interceptors installed.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.adminTokenInterceptor))
	srv := grpc.NewServer(opts...)

	ledgerapi.RegisterLedgerServiceServer(srv, &ledgerHandler{s: s})
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(ledgerapi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
