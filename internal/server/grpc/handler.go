package grpc

import (
	"context"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/ledgerapi"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ledgerHandler implements ledgerapi.LedgerServiceServer.
type ledgerHandler struct {
	s *GRPCServer
}

func (h *ledgerHandler) GetBalance(ctx context.Context, req *ledgerapi.GetBalanceRequest) (*ledgerapi.Record, error) {
	rec, err := h.s.ledger.Observe(ctx, req.UID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toRecord(rec), nil
}

func (h *ledgerHandler) IncreaseRate(ctx context.Context, req *ledgerapi.IncreaseRateRequest) (*ledgerapi.Record, error) {
	rec, err := h.s.ledger.IncreaseRate(ctx, req.UID, req.Amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return toRecord(rec), nil
}

func (h *ledgerHandler) Sync(ctx context.Context, req *ledgerapi.SyncRequest) (*ledgerapi.Record, error) {
	rec, err := h.s.ledger.Sync(ctx, req.UID, req.Balance, req.Rate)
	if err != nil {
		return nil, toStatus(err)
	}
	return toRecord(rec), nil
}

func (h *ledgerHandler) TriggerReset(ctx context.Context, _ *ledgerapi.TriggerResetRequest) (*ledgerapi.SweepReport, error) {
	report, err := h.s.resetter.SweepNow(ctx)
	if err != nil {
		h.s.logger.Error(ctx, "on-demand reset failed", "error", err)
		return nil, toStatus(err)
	}
	return &ledgerapi.SweepReport{
		ID:         report.ID,
		Marker:     report.Marker,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Visited:    report.Visited,
		Reset:      report.Reset,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
	}, nil
}

func toRecord(rec *models.UserRecord) *ledgerapi.Record {
	return &ledgerapi.Record{
		UID:            rec.ID,
		Rate:           rec.Rate,
		Balance:        rec.Balance,
		LastObservedAt: rec.LastObservedAt,
		LastIncreaseAt: rec.LastIncreaseAt,
		LastResetAt:    rec.LastResetAt,
		MiningActive:   rec.MiningActive,
	}
}

// toStatus maps ledger errors onto gRPC codes. Store failures are reported
// as Unavailable so callers may retry; unknown errors hide their text.
func toStatus(err error) error {
	switch common.Kind(err) {
	case common.KindInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case common.KindRateLimited:
		return status.Error(codes.ResourceExhausted, err.Error())
	case common.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case common.KindAlreadyExists:
		return status.Error(codes.AlreadyExists, err.Error())
	case common.KindUnauthorized:
		return status.Error(codes.Unauthenticated, "unauthorized")
	case common.KindStore:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
