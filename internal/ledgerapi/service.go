package ledgerapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "minerledger.LedgerService"

// Full method names.
const (
	MethodGetBalance   = "/" + ServiceName + "/GetBalance"
	MethodIncreaseRate = "/" + ServiceName + "/IncreaseRate"
	MethodSync         = "/" + ServiceName + "/Sync"
	MethodTriggerReset = "/" + ServiceName + "/TriggerReset"
)

// LedgerServiceServer is the server API of the ledger service.
type LedgerServiceServer interface {
	GetBalance(context.Context, *GetBalanceRequest) (*Record, error)
	IncreaseRate(context.Context, *IncreaseRateRequest) (*Record, error)
	Sync(context.Context, *SyncRequest) (*Record, error)
	TriggerReset(context.Context, *TriggerResetRequest) (*SweepReport, error)
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts one typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](method string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the ledger service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetBalance",
			Handler:    unaryHandler(MethodGetBalance, LedgerServiceServer.GetBalance),
		},
		{
			MethodName: "IncreaseRate",
			Handler:    unaryHandler(MethodIncreaseRate, LedgerServiceServer.IncreaseRate),
		},
		{
			MethodName: "Sync",
			Handler:    unaryHandler(MethodSync, LedgerServiceServer.Sync),
		},
		{
			MethodName: "TriggerReset",
			Handler:    unaryHandler(MethodTriggerReset, LedgerServiceServer.TriggerReset),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "minerledger/ledger.json",
}

// LedgerServiceClient is the client API of the ledger service.
type LedgerServiceClient interface {
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*Record, error)
	IncreaseRate(ctx context.Context, in *IncreaseRateRequest, opts ...grpc.CallOption) (*Record, error)
	Sync(ctx context.Context, in *SyncRequest, opts ...grpc.CallOption) (*Record, error)
	TriggerReset(ctx context.Context, in *TriggerResetRequest, opts ...grpc.CallOption) (*SweepReport, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient returns a client that sends every call with the
// JSON content-subtype.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func (c *ledgerServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*Record, error) {
	out := new(Record)
	if err := c.invoke(ctx, MethodGetBalance, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) IncreaseRate(ctx context.Context, in *IncreaseRateRequest, opts ...grpc.CallOption) (*Record, error) {
	out := new(Record)
	if err := c.invoke(ctx, MethodIncreaseRate, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Sync(ctx context.Context, in *SyncRequest, opts ...grpc.CallOption) (*Record, error) {
	out := new(Record)
	if err := c.invoke(ctx, MethodSync, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) TriggerReset(ctx context.Context, in *TriggerResetRequest, opts ...grpc.CallOption) (*SweepReport, error) {
	out := new(SweepReport)
	if err := c.invoke(ctx, MethodTriggerReset, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
