package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	config := RedisCacheConfig{
		Addr: mr.Addr(),
		DB:   0,
		TTL:  15 * time.Minute,
	}

	return &testRedisCacheSetup{
		cache:     NewRedisCache(config, zerolog.Nop()),
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

func newTestRecord(model, signal string, evaluatedAt time.Time) *models.SignalRecord {
	return &models.SignalRecord{
		ID:          uuid.New(),
		Model:       model,
		Signal:      signal,
		Kind:        "actionable",
		Result:      json.RawMessage(`{"signal":"` + signal + `","edge_estimate":0.05}`),
		RequestedAt: evaluatedAt.Add(-time.Millisecond),
		EvaluatedAt: evaluatedAt,
	}
}

// TestNewRedisCache tests cache creation
func TestNewRedisCache(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.cache)
	assert.NotNil(t, setup.cache.client)
	assert.Equal(t, 15*time.Minute, setup.cache.ttl)
}

// TestRecordKey tests the key layout
func TestRecordKey(t *testing.T) {
	id := uuid.MustParse("7f2c1b9e-3a4d-4e5f-8a6b-1c2d3e4f5a6b")
	assert.Equal(t, "signal:stat_arb:7f2c1b9e-3a4d-4e5f-8a6b-1c2d3e4f5a6b", recordKey(models.ModelStatArb, id))
}

// TestSet_Success tests successful record caching
func TestSet_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelVolatility, "BET_OVER", time.Now().UTC())

	err := setup.cache.Set(setup.ctx, record)

	assert.NoError(t, err)
	assert.True(t, setup.miniRedis.Exists(recordKey(record.Model, record.ID)))
}

// TestSet_ContextCanceled tests set operation with canceled context
func TestSet_ContextCanceled(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := setup.cache.Set(ctx, newTestRecord(models.ModelMiddle, "NO_TRADE", time.Now()))

	assert.Error(t, err)
}

// TestGet_Success tests successful record retrieval
func TestGet_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	original := newTestRecord(models.ModelStatArb, "BET", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, setup.cache.Set(setup.ctx, original))

	retrieved, err := setup.cache.Get(setup.ctx, models.ModelStatArb, original.ID)

	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, original.ID, retrieved.ID)
	assert.Equal(t, original.Model, retrieved.Model)
	assert.Equal(t, original.Signal, retrieved.Signal)
	assert.True(t, original.EvaluatedAt.Equal(retrieved.EvaluatedAt))
	assert.JSONEq(t, string(original.Result), string(retrieved.Result))
}

// TestGet_NotFound tests retrieval when the record does not exist
func TestGet_NotFound(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	retrieved, err := setup.cache.Get(setup.ctx, models.ModelKelly, uuid.New())

	assert.Error(t, err)
	assert.Nil(t, retrieved)
	assert.ErrorIs(t, err, models.ErrSignalNotFound)
}

// TestGet_WrongModel tests that records are namespaced by model
func TestGet_WrongModel(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelMiddle, "MIDDLE_SCALP", time.Now())
	require.NoError(t, setup.cache.Set(setup.ctx, record))

	_, err := setup.cache.Get(setup.ctx, models.ModelKelly, record.ID)

	assert.ErrorIs(t, err, models.ErrSignalNotFound)
}

// TestGet_ExpiredKey tests retrieval of expired key
func TestGet_ExpiredKey(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelMiddle, "MIDDLE_SCALP", time.Now())
	require.NoError(t, setup.cache.Set(setup.ctx, record))

	setup.miniRedis.FastForward(20 * time.Minute)

	retrieved, err := setup.cache.Get(setup.ctx, record.Model, record.ID)

	assert.ErrorIs(t, err, models.ErrSignalNotFound)
	assert.Nil(t, retrieved)
}

// TestGet_CorruptedData tests retrieval of a value that is not a record
func TestGet_CorruptedData(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	id := uuid.New()
	require.NoError(t, setup.miniRedis.Set(recordKey(models.ModelKelly, id), "invalid json data"))

	retrieved, err := setup.cache.Get(setup.ctx, models.ModelKelly, id)

	assert.Error(t, err)
	assert.Nil(t, retrieved)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

// TestSetBatch_Success tests successful batch caching
func TestSetBatch_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	now := time.Now().UTC()
	records := []*models.SignalRecord{
		newTestRecord(models.ModelVolatility, "BET_OVER", now),
		newTestRecord(models.ModelVolatility, "NO_BET", now),
		newTestRecord(models.ModelDivergence, "BET", now),
	}

	err := setup.cache.SetBatch(setup.ctx, records)
	require.NoError(t, err)

	for _, record := range records {
		retrieved, err := setup.cache.Get(setup.ctx, record.Model, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.Signal, retrieved.Signal)
	}
}

// TestSetBatch_EmptyList tests batch caching with an empty list
func TestSetBatch_EmptyList(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NoError(t, setup.cache.SetBatch(setup.ctx, []*models.SignalRecord{}))
	assert.NoError(t, setup.cache.SetBatch(setup.ctx, nil))
}

// TestSetBatch_SkipsNilRecords tests that nil entries are ignored
func TestSetBatch_SkipsNilRecords(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelKelly, "BET", time.Now())

	err := setup.cache.SetBatch(setup.ctx, []*models.SignalRecord{nil, record, nil})

	require.NoError(t, err)
	assert.Len(t, setup.miniRedis.Keys(), 1)
}

// TestSetBatch_LargeBatch tests caching a large batch in one pipeline
func TestSetBatch_LargeBatch(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	now := time.Now()
	records := make([]*models.SignalRecord, 0, 250)
	for i := 0; i < 250; i++ {
		records = append(records, newTestRecord(models.ModelMiddle, "AVOID_MIDDLE", now.Add(time.Duration(i)*time.Second)))
	}

	require.NoError(t, setup.cache.SetBatch(setup.ctx, records))

	retrieved, err := setup.cache.GetByModel(setup.ctx, models.ModelMiddle)
	require.NoError(t, err)
	assert.Len(t, retrieved, 250)
}

// TestGetByModel_Success tests listing records for a model, newest first
func TestGetByModel_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	base := time.Now().UTC().Truncate(time.Second)
	older := newTestRecord(models.ModelStatArb, "NO_BET", base)
	newer := newTestRecord(models.ModelStatArb, "BET", base.Add(time.Minute))
	other := newTestRecord(models.ModelKelly, "BET", base)

	require.NoError(t, setup.cache.SetBatch(setup.ctx, []*models.SignalRecord{older, newer, other}))

	records, err := setup.cache.GetByModel(setup.ctx, models.ModelStatArb)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

// TestGetByModel_NotFound tests listing a model with no records
func TestGetByModel_NotFound(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	records, err := setup.cache.GetByModel(setup.ctx, models.ModelDivergence)

	assert.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

// TestGetByModel_PartialData tests listing with some corrupted data
func TestGetByModel_PartialData(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	valid := newTestRecord(models.ModelMiddle, "MIDDLE_SCALP", time.Now())
	require.NoError(t, setup.cache.Set(setup.ctx, valid))

	require.NoError(t, setup.miniRedis.Set(recordKey(models.ModelMiddle, uuid.New()), "invalid json data"))

	records, err := setup.cache.GetByModel(setup.ctx, models.ModelMiddle)

	assert.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, valid.ID, records[0].ID)
}

// TestPing_Success tests successful Redis ping
func TestPing_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NoError(t, setup.cache.Ping(setup.ctx))
}

// TestPing_RedisDown tests ping when Redis is down
func TestPing_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)

	setup.miniRedis.Close()

	err := setup.cache.Ping(setup.ctx)

	assert.Error(t, err)

	setup.cache.Close()
}

// TestClose tests cache closing
func TestClose(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.miniRedis.Close()

	assert.NoError(t, setup.cache.Close())
}

// TestCache_ConcurrentAccess tests thread safety
func TestCache_ConcurrentAccess(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelMiddle, "MIDDLE_SCALP", time.Now())
	require.NoError(t, setup.cache.Set(setup.ctx, record))

	done := make(chan bool)

	// Writers
	for i := 0; i < 5; i++ {
		go func() {
			assert.NoError(t, setup.cache.Set(setup.ctx, record))
			done <- true
		}()
	}

	// Readers
	for i := 0; i < 5; i++ {
		go func() {
			retrieved, err := setup.cache.Get(setup.ctx, record.Model, record.ID)
			assert.NoError(t, err)
			assert.NotNil(t, retrieved)
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

// TestCache_TTLRespected tests that TTL is properly set
func TestCache_TTLRespected(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	record := newTestRecord(models.ModelKelly, "BET", time.Now())
	require.NoError(t, setup.cache.Set(setup.ctx, record))

	ttl := setup.miniRedis.TTL(recordKey(record.Model, record.ID))
	assert.True(t, ttl > 0)
	assert.True(t, ttl <= 15*time.Minute)
}

// TestNewRedisCache_Configuration tests cache creation with different configurations
func TestNewRedisCache_Configuration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	configs := []RedisCacheConfig{
		{Addr: mr.Addr(), DB: 0, TTL: 5 * time.Minute},
		{Addr: mr.Addr(), DB: 1, TTL: 30 * time.Minute},
		{Addr: mr.Addr(), DB: 2, TTL: time.Hour},
	}

	for i, config := range configs {
		t.Run(fmt.Sprintf("db_%d", config.DB), func(t *testing.T) {
			cache := NewRedisCache(config, zerolog.Nop())
			defer cache.Close()

			assert.Equal(t, configs[i].TTL, cache.ttl)
			assert.NoError(t, cache.Ping(context.Background()))
		})
	}
}
