package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/minerledger/internal/server/config"
	"github.com/dmitrijs2005/minerledger/internal/server/ledgerstore"
	"github.com/dmitrijs2005/minerledger/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// openStore builds the Store selected by c.StoreBackend. The postgres
// backend runs pending migrations before returning.
func openStore(ctx context.Context, c *config.Config) (ledgerstore.Store, error) {
	switch c.StoreBackend {
	case config.StoreMemory:
		return ledgerstore.NewMemoryStore(), nil

	case config.StorePostgres:
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}
		m := repomanager.NewPostgresRepositoryManager()
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		return ledgerstore.NewPostgresStore(db, m, c.StoreMaxAttempts), nil

	case config.StoreRedis:
		client := ledgerstore.NewRedisClient(c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
		return ledgerstore.NewRedisStore(client, c.StoreMaxAttempts), nil

	case config.StoreS3:
		s, err := ledgerstore.NewS3Store(ctx, ledgerstore.S3Options{
			Region:   c.S3Region,
			User:     c.S3RootUser,
			Password: c.S3RootPassword,
			Endpoint: c.S3BaseEndpoint,
			Bucket:   c.S3Bucket,
			Prefix:   c.S3Prefix,
		}, c.StoreMaxAttempts)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
}
