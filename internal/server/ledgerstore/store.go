// Package ledgerstore persists user records behind a small key-value
// contract: read, create, atomic read-modify-write and paginated listing.
// Backends: in-memory, PostgreSQL, Redis and S3-compatible object storage.
package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/metrics"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// UpdateFunc computes the next state of a record from its current state.
// Returning an error aborts the update without writing; ErrUnchanged aborts
// it successfully and AtomicUpdate returns the current record.
type UpdateFunc func(models.UserRecord) (models.UserRecord, error)

// ErrUnchanged is returned by an UpdateFunc that has nothing to write.
var ErrUnchanged = errors.New("record unchanged")

// Store is the persistence contract of the ledger.
//
// AtomicUpdate applies fn to the current value and persists the result as a
// single atomic step; updates of one id are linearized, updates of different
// ids are independent. Concurrent-write conflicts are retried internally and
// surface as common.ErrStore once the attempts are exhausted.
type Store interface {
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Create(ctx context.Context, rec *models.UserRecord) error
	AtomicUpdate(ctx context.Context, id string, fn UpdateFunc) (*models.UserRecord, error)
	// List returns one page of records starting at cursor ("" for the first
	// page) and the cursor of the next page ("" when done).
	List(ctx context.Context, cursor string, limit int) ([]*models.UserRecord, string, error)
	Close() error
}

// DefaultMaxAttempts bounds conflict retries when a backend is built without
// an explicit limit.
const DefaultMaxAttempts = 5

// All iterates over every record of s page by page. Iteration stops at the
// first listing error, which is yielded with a nil record.
func All(ctx context.Context, s Store, pageSize int) iter.Seq2[*models.UserRecord, error] {
	return func(yield func(*models.UserRecord, error) bool) {
		cursor := ""
		for {
			page, next, err := s.List(ctx, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if next == "" {
				return
			}
			cursor = next
		}
	}
}

// retryOnConflict runs op until it succeeds, fails with a non-conflict error,
// the context ends or maxAttempts is reached.
func retryOnConflict(ctx context.Context, maxAttempts int, isConflict func(error) bool, op func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return storeError("update aborted", ctxErr)
		}
		err = op()
		if err == nil || !isConflict(err) {
			return err
		}
		metrics.StoreWriteConflicts.Inc()
	}
	return fmt.Errorf("%w: write conflict persisted after %d attempts: %w", common.ErrStore, maxAttempts, err)
}

func isWriteConflict(err error) bool {
	return errors.Is(err, common.ErrWriteConflict)
}

// storeError tags a backend failure as common.ErrStore, keeping the cause.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStore, op, err)
}

// passThrough reports errors that are already meaningful to callers and
// must not be re-tagged as store failures. Rejections raised by an
// UpdateFunc belong here too.
func passThrough(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrInvalidInput) ||
		errors.Is(err, common.ErrRateLimited) ||
		errors.Is(err, common.ErrAlreadyExists) ||
		errors.Is(err, common.ErrStore) ||
		errors.Is(err, common.ErrWriteConflict)
}
