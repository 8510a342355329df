package ledgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "minerledger:user:"

// RedisStore keeps each record as a JSON string under its own key. Updates
// use WATCH/MULTI: a transaction aborted because the key changed is a write
// conflict and is retried.
type RedisStore struct {
	client      redis.UniversalClient
	maxAttempts int
}

func NewRedisStore(client redis.UniversalClient, maxAttempts int) *RedisStore {
	return &RedisStore{client: client, maxAttempts: maxAttempts}
}

// NewRedisClient builds a client for a single redis node.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func idFromRedisKey(key string) string {
	return strings.TrimPrefix(key, redisKeyPrefix)
}

func encodeRecord(rec *models.UserRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (*models.UserRecord, error) {
	rec := &models.UserRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("malformed record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, storeError("get", err)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, storeError("get", err)
	}
	return rec, nil
}

func (s *RedisStore) Create(ctx context.Context, rec *models.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return storeError("create", err)
	}
	ok, err := s.client.SetNX(ctx, redisKey(rec.ID), data, 0).Result()
	if err != nil {
		return storeError("create", err)
	}
	if !ok {
		return common.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) AtomicUpdate(ctx context.Context, id string, fn UpdateFunc) (*models.UserRecord, error) {
	key := redisKey(id)
	var result *models.UserRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return common.ErrorNotFound
			}
			return err
		}
		cur, err := decodeRecord(data)
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
		next.Version = cur.Version + 1

		encoded, err := encodeRecord(&next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = &next
		return nil
	}

	err := retryOnConflict(ctx, s.maxAttempts, isRedisConflict, func() error {
		return s.client.Watch(ctx, txf, key)
	})
	if err != nil {
		if passThrough(err) {
			return nil, err
		}
		return nil, storeError("atomic update", err)
	}
	return result, nil
}

func isRedisConflict(err error) bool {
	return errors.Is(err, redis.TxFailedErr) || isWriteConflict(err)
}

// List walks the keyspace with SCAN. The cursor is the decimal SCAN cursor;
// limit is a hint, as with SCAN COUNT, and a key may be returned more than
// once while the keyspace is resized.
func (s *RedisStore) List(ctx context.Context, cursor string, limit int) ([]*models.UserRecord, string, error) {
	var scanCursor uint64
	if cursor != "" {
		c, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad cursor %q", common.ErrInvalidInput, cursor)
		}
		scanCursor = c
	}

	keys, nextCursor, err := s.client.Scan(ctx, scanCursor, redisKeyPrefix+"*", int64(limit)).Result()
	if err != nil {
		return nil, "", storeError("list", err)
	}

	page := make([]*models.UserRecord, 0, len(keys))
	if len(keys) > 0 {
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, "", storeError("list", err)
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				// deleted between SCAN and MGET
				continue
			}
			rec, err := decodeRecord([]byte(str))
			if err != nil {
				return nil, "", storeError("list "+idFromRedisKey(keys[i]), err)
			}
			page = append(page, rec)
		}
	}

	next := ""
	if nextCursor != 0 {
		next = strconv.FormatUint(nextCursor, 10)
	}
	return page, next, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
