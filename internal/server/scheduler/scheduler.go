package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/clock"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers sweeps at a daily boundary.
type Scheduler struct {
	sweeper       *Sweeper
	clock         clock.Clock
	log           logging.Logger
	hour, minute  int
	loc           *time.Location
	checkInterval time.Duration

	cron *cron.Cron

	mu         sync.Mutex
	lastSwept  time.Time
	stopTicker context.CancelFunc
	tickerDone chan struct{}
}

// New builds a Scheduler firing at hour:minute in loc. checkInterval is the
// period of the missed-boundary check.
func New(sweeper *Sweeper, clk clock.Clock, log logging.Logger, hour, minute int, loc *time.Location, checkInterval time.Duration) (*Scheduler, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid reset boundary %02d:%02d", hour, minute)
	}
	if loc == nil {
		loc = time.UTC
	}
	if checkInterval <= 0 {
		return nil, fmt.Errorf("reset check interval must be positive, got %v", checkInterval)
	}

	return &Scheduler{
		sweeper:       sweeper,
		clock:         clk,
		log:           log.With("module", "scheduler"),
		hour:          hour,
		minute:        minute,
		loc:           loc,
		checkInterval: checkInterval,
		cron:          cron.New(cron.WithLocation(loc)),
	}, nil
}

// Start arms the cron entry and the catch-up ticker. Missed boundaries are
// checked right away.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("%d %d * * *", s.minute, s.hour)
	if _, err := s.cron.AddFunc(spec, func() { s.runDue(ctx) }); err != nil {
		return fmt.Errorf("schedule reset %q: %w", spec, err)
	}
	s.cron.Start()

	tctx, cancel := context.WithCancel(ctx)
	s.stopTicker = cancel
	s.tickerDone = make(chan struct{})
	go s.catchUp(tctx)

	s.log.Info(ctx, "reset scheduler started",
		"boundary", fmt.Sprintf("%02d:%02d", s.hour, s.minute), "tz", s.loc.String(), "check_interval", s.checkInterval)
	return nil
}

// Stop halts both triggers and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.stopTicker != nil {
		s.stopTicker()
		<-s.tickerDone
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) catchUp(ctx context.Context) {
	defer close(s.tickerDone)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.runDue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// RunDue sweeps for the most recent boundary unless this scheduler already
// did. It reports whether a sweep ran.
func (s *Scheduler) RunDue(ctx context.Context) (SweepReport, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	boundary := LastBoundary(s.clock.Now(), s.hour, s.minute, s.loc)
	if !boundary.After(s.lastSwept) {
		return SweepReport{}, false, nil
	}

	report, err := s.sweeper.Sweep(ctx, boundary.UnixMilli())
	if err != nil {
		return report, true, err
	}
	s.lastSwept = boundary
	return report, true, nil
}

func (s *Scheduler) runDue(ctx context.Context) {
	// errors are logged by the sweeper; a failed boundary is retried on the next check
	_, _, _ = s.RunDue(ctx)
}

// LastBoundary returns the latest hour:minute in loc that is not after now.
func LastBoundary(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	b := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if b.After(local) {
		b = time.Date(local.Year(), local.Month(), local.Day()-1, hour, minute, 0, 0, loc)
	}
	return b
}
