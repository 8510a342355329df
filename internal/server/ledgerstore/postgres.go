package ledgerstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/minerledger/internal/dbx"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/dmitrijs2005/minerledger/internal/server/repositories/repomanager"
)

// PostgresStore runs every atomic update in its own transaction: the row is
// locked with SELECT ... FOR UPDATE and written back conditioned on its
// version. Serialization failures and deadlocks count as write conflicts.
type PostgresStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	maxAttempts int
}

func NewPostgresStore(db *sql.DB, m repomanager.RepositoryManager, maxAttempts int) *PostgresStore {
	return &PostgresStore{db: db, repomanager: m, maxAttempts: maxAttempts}
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	rec, err := s.repomanager.Users(s.db).Get(ctx, id)
	if err != nil {
		return nil, s.wrap("get", err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.UserRecord) error {
	if err := s.repomanager.Users(s.db).Create(ctx, rec); err != nil {
		return s.wrap("create", err)
	}
	return nil
}

func (s *PostgresStore) AtomicUpdate(ctx context.Context, id string, fn UpdateFunc) (*models.UserRecord, error) {
	var result *models.UserRecord

	err := retryOnConflict(ctx, s.maxAttempts, s.isConflict, func() error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Users(tx)

			cur, err := repo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}

			next, err := fn(*cur)
			if err != nil {
				if errors.Is(err, ErrUnchanged) {
					result = cur
					return nil
				}
				return err
			}

			next.ID = id
			if err := repo.Update(ctx, &next, cur.Version); err != nil {
				return err
			}
			result = &next
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap("atomic update", err)
	}
	return result, nil
}

func (s *PostgresStore) List(ctx context.Context, cursor string, limit int) ([]*models.UserRecord, string, error) {
	page, err := s.repomanager.Users(s.db).ListAfter(ctx, cursor, limit)
	if err != nil {
		return nil, "", s.wrap("list", err)
	}

	next := ""
	if limit > 0 && len(page) == limit {
		next = page[len(page)-1].ID
	}
	return page, next, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) isConflict(err error) bool {
	return isWriteConflict(err) || dbx.IsConcurrencyFailure(err)
}

// wrap tags database failures as store errors. Errors raised by the update
// function itself (rate limiting, validation) travel through unchanged.
func (s *PostgresStore) wrap(op string, err error) error {
	if passThrough(err) {
		return err
	}
	return storeError(op, err)
}
