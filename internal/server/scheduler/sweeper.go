// Package scheduler runs the daily reset of mining rates: a cron entry fires
// at the configured boundary and a periodic check catches boundaries the
// process missed while it was down.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/clock"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/ledger"
	"github.com/dmitrijs2005/minerledger/internal/server/ledgerstore"
	"github.com/dmitrijs2005/minerledger/internal/server/metrics"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/google/uuid"
)

// SweepReport summarizes one pass over all records.
type SweepReport struct {
	ID         string    `json:"id"`
	Marker     int64     `json:"marker"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Visited    int       `json:"visited"`
	Reset      int       `json:"reset"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// Sweeper resets every record in the store. Sweeps never overlap.
type Sweeper struct {
	store    ledgerstore.Store
	clock    clock.Clock
	log      logging.Logger
	pageSize int
	timeout  time.Duration

	mu sync.Mutex
}

// NewSweeper builds a Sweeper listing pageSize records at a time. timeout
// bounds each per-record update; zero means no bound.
func NewSweeper(store ledgerstore.Store, clk clock.Clock, log logging.Logger, pageSize int, timeout time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		clock:    clk,
		log:      log.With("module", "sweeper"),
		pageSize: pageSize,
		timeout:  timeout,
	}
}

// Sweep stamps marker (Unix ms) on every record and zeroes its rate. A
// record that fails to update is logged and counted, and the sweep moves on.
// A listing failure ends the sweep early; the partial report is returned
// together with the error.
func (s *Sweeper) Sweep(ctx context.Context, marker int64) (SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := SweepReport{
		ID:        uuid.NewString(),
		Marker:    marker,
		StartedAt: s.clock.Now(),
	}
	log := s.log.With("sweep_id", report.ID, "marker", marker)
	log.Info(ctx, "reset sweep started")

	var sweepErr error
	for rec, err := range ledgerstore.All(ctx, s.store, s.pageSize) {
		if err != nil {
			sweepErr = fmt.Errorf("list records: %w", err)
			break
		}
		report.Visited++

		changed, err := s.resetOne(ctx, rec.ID, marker)
		switch {
		case err != nil:
			report.Failed++
			log.Warn(ctx, "reset failed", "uid", rec.ID, "error", err)
		case changed:
			report.Reset++
		default:
			report.Skipped++
		}
	}

	report.FinishedAt = s.clock.Now()
	metrics.RecordSweep(report.Reset, report.Skipped, report.Failed,
		report.FinishedAt.Sub(report.StartedAt), report.FinishedAt)

	if sweepErr != nil {
		log.Error(ctx, "reset sweep aborted", "error", sweepErr, "visited", report.Visited)
		return report, sweepErr
	}
	log.Info(ctx, "reset sweep finished",
		"visited", report.Visited, "reset", report.Reset, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *Sweeper) resetOne(ctx context.Context, uid string, marker int64) (bool, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	changed := false
	_, err := s.store.AtomicUpdate(ctx, uid, func(cur models.UserRecord) (models.UserRecord, error) {
		next, ok := ledger.Reset(cur, marker)
		changed = ok
		if !ok {
			return cur, ledgerstore.ErrUnchanged
		}
		return next, nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// SweepNow runs an on-demand sweep stamped with the current time.
func (s *Sweeper) SweepNow(ctx context.Context) (SweepReport, error) {
	return s.Sweep(ctx, clock.NowMillis(s.clock))
}
