// Package users provides the PostgreSQL-backed repository of ledger user
// records.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/dbx"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// PostgresRepository runs user-record queries over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, rate, balance, last_observed_at, last_increase_at, last_reset_at, mining_active, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	err := row.Scan(&rec.ID, &rec.Rate, &rec.Balance, &rec.LastObservedAt, &rec.LastIncreaseAt,
		&rec.LastResetAt, &rec.MiningActive, &rec.Version, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.UserRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.get(ctx, query, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.UserRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.get(ctx, query, id)
}

// Create inserts rec. An existing row with the same id yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.UserRecord) error {
	query :=
		`INSERT INTO users (id, rate, balance, last_observed_at, last_increase_at, last_reset_at, mining_active, version, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, rec.ID, rec.Rate, rec.Balance, rec.LastObservedAt,
		rec.LastIncreaseAt, rec.LastResetAt, rec.MiningActive, rec.Version, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

// Update writes rec only if the stored version still equals expectedVersion,
// bumping the version. A lost race yields common.ErrWriteConflict.
func (r *PostgresRepository) Update(ctx context.Context, rec *models.UserRecord, expectedVersion int64) error {
	query :=
		`UPDATE users SET rate = $2, balance = $3, last_observed_at = $4, last_increase_at = $5,
		 last_reset_at = $6, mining_active = $7, version = version + 1
		 WHERE id = $1 AND version = $8
		 `

	res, err := r.db.ExecContext(ctx, query, rec.ID, rec.Rate, rec.Balance, rec.LastObservedAt,
		rec.LastIncreaseAt, rec.LastResetAt, rec.MiningActive, expectedVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrWriteConflict
	}

	rec.Version = expectedVersion + 1
	return nil
}

// ListAfter returns up to limit records with id > afterID in id order
// (keyset pagination).
func (r *PostgresRepository) ListAfter(ctx context.Context, afterID string, limit int) ([]*models.UserRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
