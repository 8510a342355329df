// Package httpapi is the HTTP gateway of the ledger: the plain JSON routes
// web clients use, plus health and metrics endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/dmitrijs2005/minerledger/internal/server/scheduler"
)

// Ledger is the part of services.LedgerService the gateway calls.
type Ledger interface {
	Observe(ctx context.Context, uid string) (*models.UserRecord, error)
	IncreaseRate(ctx context.Context, uid string, amount *float64) (*models.UserRecord, error)
	Sync(ctx context.Context, uid string, balance, rate *float64) (*models.UserRecord, error)
}

// Resetter runs an on-demand reset sweep.
type Resetter interface {
	SweepNow(ctx context.Context) (scheduler.SweepReport, error)
}

type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewHTTPServer(address string, handler http.Handler, l logging.Logger) *HTTPServer {
	return &HTTPServer{
		address: address,
		handler: handler,
		logger:  l.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
