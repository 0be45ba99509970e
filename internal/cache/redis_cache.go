package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

const (
	keyPrefix = "signal"
	scanCount = 100
)

// RedisCache caches evaluated signal records in Redis for a bounded time
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 15 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// recordKey builds signal:{model}:{id}
func recordKey(model string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, model, id)
}

// Set caches a signal record
func (c *RedisCache) Set(ctx context.Context, record *models.SignalRecord) error {
	key := recordKey(record.Model, record.ID)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal signal record: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached signal record")

	return nil
}

// Get retrieves a cached signal record
func (c *RedisCache) Get(ctx context.Context, model string, id uuid.UUID) (*models.SignalRecord, error) {
	key := recordKey(model, id)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w in cache: %s", models.ErrSignalNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var record models.SignalRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal record: %w", err)
	}

	return &record, nil
}

// SetBatch caches multiple signal records in one pipeline
func (c *RedisCache) SetBatch(ctx context.Context, records []*models.SignalRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	queued := 0

	for _, record := range records {
		if record == nil {
			continue
		}
		data, err := json.Marshal(record)
		if err != nil {
			c.logger.Error().Err(err).Str("id", record.ID.String()).Msg("failed to marshal signal record")
			continue
		}
		pipe.Set(ctx, recordKey(record.Model, record.ID), data, c.ttl)
		queued++
	}

	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	c.logger.Info().
		Int("count", queued).
		Msg("cached batch of signal records")

	return nil
}

// GetByModel retrieves every cached record for a model, newest first
func (c *RedisCache) GetByModel(ctx context.Context, model string) ([]*models.SignalRecord, error) {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, model)

	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = c.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	records := make([]*models.SignalRecord, 0, len(keys))
	if len(keys) == 0 {
		return records, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	for i, value := range values {
		// expired between SCAN and MGET
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var record models.SignalRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			c.logger.Warn().Err(err).Str("key", keys[i]).Msg("failed to unmarshal signal record")
			continue
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].EvaluatedAt.After(records[j].EvaluatedAt)
	})

	return records, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
