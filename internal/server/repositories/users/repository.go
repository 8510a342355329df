package users

import (
	"context"

	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	GetForUpdate(ctx context.Context, id string) (*models.UserRecord, error)
	Create(ctx context.Context, rec *models.UserRecord) error
	Update(ctx context.Context, rec *models.UserRecord, expectedVersion int64) error
	ListAfter(ctx context.Context, afterID string, limit int) ([]*models.UserRecord, error)
}
