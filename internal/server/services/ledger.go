// Package services contains server-side business logic. LedgerService runs
// every ledger operation as a single atomic update of one user record.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/clock"
	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/config"
	"github.com/dmitrijs2005/minerledger/internal/server/ledger"
	"github.com/dmitrijs2005/minerledger/internal/server/ledgerstore"
	"github.com/dmitrijs2005/minerledger/internal/server/metrics"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// LedgerService provides the per-user ledger operations:
//   - Observe: settle pending accrual and return the record
//   - IncreaseRate: add to the rate, at most once per cooldown
//   - Sync: commit a client-reported balance and rate
type LedgerService struct {
	store        ledgerstore.Store
	clock        clock.Clock
	log          logging.Logger
	rates        ledger.RateController
	rateConstant float64
	storeTimeout time.Duration
}

// NewLedgerService constructs a LedgerService over store using the accrual
// and rate settings of cfg.
func NewLedgerService(store ledgerstore.Store, clk clock.Clock, log logging.Logger, cfg *config.Config) *LedgerService {
	return &LedgerService{
		store: store,
		clock: clk,
		log:   log.With("module", "ledger"),
		rates: ledger.RateController{
			Step:         cfg.RateIncreaseStep,
			Cooldown:     cfg.RateIncreaseCooldown,
			RateConstant: cfg.AccrualRateConstant,
		},
		rateConstant: cfg.AccrualRateConstant,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Observe creates the record on first access, folds the credit accrued since
// the last observation into the balance and returns the result.
func (s *LedgerService) Observe(ctx context.Context, uid string) (rec *models.UserRecord, err error) {
	defer s.record("observe", time.Now(), &err)

	ctx, cancel, err := s.begin(ctx, uid)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return s.store.AtomicUpdate(ctx, uid, func(cur models.UserRecord) (models.UserRecord, error) {
		next, _ := ledger.Settle(cur, s.now(), s.rateConstant)
		if next == cur {
			return cur, ledgerstore.ErrUnchanged
		}
		return next, nil
	})
}

// IncreaseRate adds amount (the configured step when nil) to the rate of uid.
// A second increase within the cooldown fails with common.ErrRateLimited and
// changes nothing.
func (s *LedgerService) IncreaseRate(ctx context.Context, uid string, amount *float64) (rec *models.UserRecord, err error) {
	defer s.record("increase_rate", time.Now(), &err)

	if _, err := s.rates.Amount(amount); err != nil {
		return nil, err
	}

	ctx, cancel, err := s.begin(ctx, uid)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rec, err = s.store.AtomicUpdate(ctx, uid, func(cur models.UserRecord) (models.UserRecord, error) {
		return s.rates.Apply(cur, amount, s.now())
	})
	if err != nil {
		if errors.Is(err, common.ErrRateLimited) {
			s.log.Info(ctx, "rate increase rejected", "uid", uid, "reason", err.Error())
		}
		return nil, err
	}

	s.log.Info(ctx, "rate increased", "uid", uid, "rate", rec.Rate)
	return rec, nil
}

// Sync replaces the stored balance and rate with the client's values, adding
// the credit the server accrued since its last observation.
func (s *LedgerService) Sync(ctx context.Context, uid string, balance, rate *float64) (rec *models.UserRecord, err error) {
	defer s.record("sync", time.Now(), &err)

	if err := ledger.ValidateSync(balance, rate); err != nil {
		return nil, err
	}

	ctx, cancel, err := s.begin(ctx, uid)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rec, err = s.store.AtomicUpdate(ctx, uid, func(cur models.UserRecord) (models.UserRecord, error) {
		return ledger.Reconcile(cur, balance, rate, s.now(), s.rateConstant)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "synced", "uid", uid, "balance", rec.Balance, "rate", rec.Rate)
	return rec, nil
}

// begin validates uid, bounds ctx with the store timeout and makes sure a
// record exists.
func (s *LedgerService) begin(ctx context.Context, uid string) (context.Context, context.CancelFunc, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, nil, fmt.Errorf("%w: uid is required", common.ErrInvalidInput)
	}

	var cancel context.CancelFunc
	if s.storeTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	if err := s.ensure(ctx, uid); err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, cancel, nil
}

// ensure creates the initial record of uid unless it exists. Losing a
// creation race to another caller is fine.
func (s *LedgerService) ensure(ctx context.Context, uid string) error {
	_, err := s.store.Get(ctx, uid)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	err = s.store.Create(ctx, models.NewUserRecord(uid, s.now()))
	if err != nil && !errors.Is(err, common.ErrAlreadyExists) {
		return err
	}
	if err == nil {
		s.log.Info(ctx, "user record created", "uid", uid)
	}
	return nil
}

func (s *LedgerService) now() int64 {
	return clock.NowMillis(s.clock)
}

func (s *LedgerService) record(op string, start time.Time, err *error) {
	metrics.RecordOperation(op, common.Kind(*err), time.Since(start))
	if *err != nil && common.Kind(*err) == common.KindStore {
		s.log.Error(context.Background(), "ledger operation failed", "op", op, "error", *err)
	}
}
