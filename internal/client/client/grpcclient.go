package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/dmitrijs2005/minerledger/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var privilegedMethods = map[string]bool{
	ledgerapi.MethodIncreaseRate: true,
	ledgerapi.MethodTriggerReset: true,
}

type GRPCClient struct {
	endpointURL string
	secret      []byte
	tokenTTL    time.Duration
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      ledgerapi.LedgerServiceClient
}

func withAdminToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AdminTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) adminTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if privilegedMethods[method] && len(s.secret) > 0 {
		token, err := auth.GenerateAdminToken(s.secret, s.tokenTTL)
		if err != nil {
			return fmt.Errorf("mint admin token: %w", err)
		}
		ctx = withAdminToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. secret may be empty when
// only read-only calls are made. Extra dial options are appended after the
// defaults.
func NewGRPCClient(endpointURL, secret string, tokenTTL, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		timeout:     timeout,
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.adminTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = ledgerapi.NewLedgerServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Balance(ctx context.Context, uid string) (*ledgerapi.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.client.GetBalance(ctx, &ledgerapi.GetBalanceRequest{UID: uid})
	if err != nil {
		return nil, s.mapError(err)
	}
	return rec, nil
}

// IncreaseRate asks for a rate increase; nil amount means the server default.
func (s *GRPCClient) IncreaseRate(ctx context.Context, uid string, amount *float64) (*ledgerapi.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.client.IncreaseRate(ctx, &ledgerapi.IncreaseRateRequest{UID: uid, Amount: amount})
	if err != nil {
		return nil, s.mapError(err)
	}
	return rec, nil
}

func (s *GRPCClient) Sync(ctx context.Context, uid string, balance, rate float64) (*ledgerapi.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec, err := s.client.Sync(ctx, &ledgerapi.SyncRequest{UID: uid, Balance: &balance, Rate: &rate})
	if err != nil {
		return nil, s.mapError(err)
	}
	return rec, nil
}

func (s *GRPCClient) TriggerReset(ctx context.Context) (*ledgerapi.SweepReport, error) {
	// a sweep walks every record, so the call timeout does not apply
	report, err := s.client.TriggerReset(ctx, &ledgerapi.TriggerResetRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return report, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
