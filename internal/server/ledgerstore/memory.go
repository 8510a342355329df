package ledgerstore

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
)

// MemoryStore keeps records in a map guarded by one mutex. Every update runs
// under the lock, so it never conflicts. ids mirrors the map keys in sorted
// order for paging. Meant for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.UserRecord
	ids     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.UserRecord)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) Create(_ context.Context, rec *models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return common.ErrAlreadyExists
	}
	s.records[rec.ID] = *rec
	i, _ := slices.BinarySearch(s.ids, rec.ID)
	s.ids = slices.Insert(s.ids, i, rec.ID)
	return nil
}

func (s *MemoryStore) AtomicUpdate(_ context.Context, id string, fn UpdateFunc) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	next, err := fn(cur)
	if err != nil {
		if errors.Is(err, ErrUnchanged) {
			return &cur, nil
		}
		return nil, err
	}

	next.ID = id
	next.Version = cur.Version + 1
	s.records[id] = next
	return &next, nil
}

func (s *MemoryStore) List(_ context.Context, cursor string, limit int) ([]*models.UserRecord, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, found := slices.BinarySearch(s.ids, cursor)
	if found {
		start++
	}
	ids := s.ids[start:]

	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	page := make([]*models.UserRecord, 0, limit)
	for _, id := range ids[:limit] {
		rec := s.records[id]
		page = append(page, &rec)
	}

	next := ""
	if limit < len(ids) {
		next = ids[limit-1]
	}
	return page, next, nil
}

func (s *MemoryStore) Close() error { return nil }
