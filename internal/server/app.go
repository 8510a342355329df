// Package server assembles the ledger: it opens the configured store, builds
// the ledger service and reset scheduler, and runs the gRPC service and
// HTTP gateway until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/clock"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/config"
	"github.com/dmitrijs2005/minerledger/internal/server/httpapi"
	"github.com/dmitrijs2005/minerledger/internal/server/ledgerstore"
	"github.com/dmitrijs2005/minerledger/internal/server/scheduler"
	"github.com/dmitrijs2005/minerledger/internal/server/services"

	gs "github.com/dmitrijs2005/minerledger/internal/server/grpc"
)

const limiterIdle = 10 * time.Minute

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     ledgerstore.Store
	ledger    *services.LedgerService
	sweeper   *scheduler.Sweeper
	scheduler *scheduler.Scheduler
	limiter   *httpapi.RateLimiter
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, nil)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	app, err := newApp(c, logger, store, clock.System{})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, store ledgerstore.Store, clk clock.Clock) (*App, error) {
	hour, minute, err := c.ResetClock()
	if err != nil {
		return nil, err
	}
	loc, err := c.ResetLocation()
	if err != nil {
		return nil, err
	}

	ledger := services.NewLedgerService(store, clk, logger, c)
	sweeper := scheduler.NewSweeper(store, clk, logger, c.SweepPageSize, c.StoreTimeout)
	sched, err := scheduler.New(sweeper, clk, logger, hour, minute, loc, c.ResetCheckInterval)
	if err != nil {
		return nil, fmt.Errorf("scheduler init error: %w", err)
	}

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		ledger:    ledger,
		sweeper:   sweeper,
		scheduler: sched,
		limiter:   httpapi.NewRateLimiter(c.HTTPRequestsPerSecond, c.HTTPBurst, limiterIdle),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.ledger, app.sweeper, app.config.SecretKey)
	s.SetMaxTokenTTL(app.config.AdminTokenValidityDuration)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.ledger, app.sweeper, app.config.SecretKey, app.limiter, app.logger)
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// cleanupLimiter drops idle per-client buckets until ctx is done.
func (app *App) cleanupLimiter(ctx context.Context) {
	t := time.NewTicker(limiterIdle)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			app.limiter.Cleanup(now)
		}
	}
}

// Run blocks until a signal arrives, ctx is cancelled, or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreBackend)

	app.initSignalHandler(cancelFunc)

	if err := app.scheduler.Start(ctx); err != nil {
		app.logger.Error(ctx, "scheduler start failed", "error", err)
		return
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.cleanupLimiter(ctx)
	}()

	wg.Wait()

	app.scheduler.Stop()
	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "store close failed", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
