package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/minerledger/internal/clock"
	"github.com/dmitrijs2005/minerledger/internal/common"
	"github.com/dmitrijs2005/minerledger/internal/logging"
	"github.com/dmitrijs2005/minerledger/internal/server/config"
	"github.com/dmitrijs2005/minerledger/internal/server/ledgerstore"
	"github.com/dmitrijs2005/minerledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConstant = 2e-15

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccrualRateConstant = testConstant
	cfg.RateIncreaseStep = 5
	cfg.RateIncreaseCooldown = 10 * time.Second
	return cfg
}

func newLedgerService(t *testing.T) (*LedgerService, *ledgerstore.MemoryStore, *clock.Manual) {
	t.Helper()
	store := ledgerstore.NewMemoryStore()
	clk := clock.NewManualMillis(0)
	return NewLedgerService(store, clk, logging.Nop(), testConfig()), store, clk
}

func ptr(v float64) *float64 { return &v }

func TestObserve_CreatesRecordOnFirstAccess(t *testing.T) {
	svc, store, clk := newLedgerService(t)
	clk.Set(time.UnixMilli(42_000))

	rec, err := svc.Observe(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, rec.Rate)
	assert.Zero(t, rec.Balance)
	assert.Equal(t, int64(42_000), rec.LastObservedAt)

	stored, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, rec.LastObservedAt, stored.LastObservedAt)
}

func TestScenario_IncreaseThenObserveTenSecondsLater(t *testing.T) {
	svc, _, clk := newLedgerService(t)
	ctx := context.Background()

	rec, err := svc.IncreaseRate(ctx, "u1", ptr(5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec.Rate)

	clk.Advance(10 * time.Second)
	rec, err = svc.Observe(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 1e-13, rec.Balance, 1e-27)
	assert.Equal(t, int64(10_000), rec.LastObservedAt)
}

func TestScenario_SyncAddsBridgingCredit(t *testing.T) {
	svc, store, clk := newLedgerService(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.UserRecord{ID: "u1", Rate: 10, Balance: 3, LastObservedAt: 0}))
	clk.Set(time.UnixMilli(5_000))

	rec, err := svc.Sync(ctx, "u1", ptr(100), ptr(20))
	require.NoError(t, err)
	assert.InDelta(t, 100+5*10*testConstant, rec.Balance, 1e-12)
	assert.Equal(t, 20.0, rec.Rate)
	assert.Equal(t, int64(5_000), rec.LastObservedAt)
}

func TestObserve_IdempotentWithinOneSecond(t *testing.T) {
	svc, store, clk := newLedgerService(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &models.UserRecord{ID: "u1", Rate: 7}))

	clk.Set(time.UnixMilli(3_000))
	first, err := svc.Observe(ctx, "u1")
	require.NoError(t, err)

	clk.Advance(999 * time.Millisecond)
	second, err := svc.Observe(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.Balance, second.Balance)
}

func TestObserve_BalanceNeverDecreases(t *testing.T) {
	svc, store, clk := newLedgerService(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &models.UserRecord{ID: "u1", Rate: 3}))

	prev := 0.0
	for _, step := range []time.Duration{1500 * time.Millisecond, 0, 20 * time.Second, -5 * time.Second, time.Hour} {
		clk.Advance(step)
		rec, err := svc.Observe(ctx, "u1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.Balance, prev)
		prev = rec.Balance
	}
}

func TestObserve_ClockBehindWatermarkChangesNothing(t *testing.T) {
	svc, store, clk := newLedgerService(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &models.UserRecord{ID: "u1", Rate: 3, LastObservedAt: 50_000, Version: 4}))

	clk.Set(time.UnixMilli(10_000))
	rec, err := svc.Observe(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), rec.LastObservedAt)
	assert.Equal(t, int64(4), rec.Version, "nothing written")
}

func TestIncreaseRate_DefaultStepAndCooldown(t *testing.T) {
	svc, _, clk := newLedgerService(t)
	ctx := context.Background()
	clk.Set(time.UnixMilli(1_000))

	rec, err := svc.IncreaseRate(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec.Rate)

	clk.Advance(9 * time.Second)
	_, err = svc.IncreaseRate(ctx, "u1", nil)
	require.ErrorIs(t, err, common.ErrRateLimited)

	cur, err := svc.Observe(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cur.Rate, "rejected increase leaves the rate alone")

	clk.Advance(time.Second)
	rec, err = svc.IncreaseRate(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, rec.Rate)
}

func TestIncreaseRate_ConcurrentCallsAcceptOne(t *testing.T) {
	svc, _, clk := newLedgerService(t)
	ctx := context.Background()
	clk.Set(time.UnixMilli(1_000))

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, limited := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IncreaseRate(ctx, "u1", nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, common.ErrRateLimited):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, limited)

	rec, err := svc.Observe(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec.Rate)
}

func TestInvalidInput(t *testing.T) {
	svc, store, _ := newLedgerService(t)
	ctx := context.Background()

	_, err := svc.Observe(ctx, "  ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.IncreaseRate(ctx, "u1", ptr(-2))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Sync(ctx, "u1", nil, ptr(1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Sync(ctx, "u1", ptr(-1), ptr(1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = store.Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "rejected calls create nothing")
}

// brokenStore fails every call with a backend error.
type brokenStore struct{ ledgerstore.Store }

func (brokenStore) Get(context.Context, string) (*models.UserRecord, error) {
	return nil, errBackendDown
}

var errBackendDown = fmt.Errorf("%w: connection refused", common.ErrStore)

func TestStoreErrorsSurface(t *testing.T) {
	svc := NewLedgerService(brokenStore{}, clock.NewManualMillis(0), logging.Nop(), testConfig())

	_, err := svc.Observe(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrStore)
	assert.Equal(t, common.KindStore, common.Kind(err))
}

// racingStore reports the record missing once, as if another caller created
// it between Get and Create.
type racingStore struct {
	*ledgerstore.MemoryStore
	once sync.Once
}

func (r *racingStore) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	missing := false
	r.once.Do(func() { missing = true })
	if missing {
		_ = r.MemoryStore.Create(ctx, models.NewUserRecord(id, 0))
		return nil, common.ErrorNotFound
	}
	return r.MemoryStore.Get(ctx, id)
}

func TestObserve_ToleratesCreationRace(t *testing.T) {
	store := &racingStore{MemoryStore: ledgerstore.NewMemoryStore()}
	svc := NewLedgerService(store, clock.NewManualMillis(0), logging.Nop(), testConfig())

	_, err := svc.Observe(context.Background(), "u1")
	require.NoError(t, err)
}
