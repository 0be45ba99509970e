package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/hedge-signal-service/internal/metrics"
	"github.com/cypherlabdev/hedge-signal-service/internal/models"
	"github.com/cypherlabdev/hedge-signal-service/internal/service"
)

// DefaultTopic carries batches of signal requests
const DefaultTopic = "signal_requests"

// KafkaConsumer consumes signal request batches from Kafka, evaluates them and
// caches the records
type KafkaConsumer struct {
	reader    *kafka.Reader
	evaluator service.Evaluator
	cache     service.Cache
	logger    zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // defaults to DefaultTopic
	GroupID string   // e.g., "hedge-signal"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	evaluator service.Evaluator,
	cache service.Cache,
	logger zerolog.Logger,
) *KafkaConsumer {
	topic := config.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:    reader,
		evaluator: evaluator,
		cache:     cache,
		logger:    logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start consumes messages until ctx is canceled. A message is committed only
// after it has been evaluated and cached.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info().Msg("stopping Kafka consumer")
				return nil
			}
			c.logger.Error().Err(err).Msg("failed to fetch message")
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Str("key", string(msg.Key)).
				Msg("failed to process message")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error().Err(err).Msg("failed to commit message")
		}
	}
}

// processMessage evaluates one request batch
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var batch models.KafkaSignalRequestMessage
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		metrics.RecordConsumerBatch("invalid", 0)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	c.logger.Debug().
		Int("request_count", len(batch.Requests)).
		Str("batch_id", batch.BatchID).
		Msg("processing signal request batch")

	if len(batch.Requests) == 0 {
		metrics.RecordConsumerBatch("empty", 0)
		return nil
	}

	requests := make([]*models.SignalRequest, len(batch.Requests))
	for i := range batch.Requests {
		requests[i] = &batch.Requests[i]
		if requests[i].RequestedAt.IsZero() {
			requests[i].RequestedAt = batch.Timestamp
		}
	}

	start := time.Now()
	records, err := c.evaluator.BatchEvaluate(requests)
	if err != nil {
		metrics.RecordConsumerBatch("failed", len(requests))
		return fmt.Errorf("failed to evaluate requests: %w", err)
	}

	metrics.RecordBatch(requests, records, time.Since(start))

	if err := c.cache.SetBatch(ctx, records); err != nil {
		metrics.RecordConsumerBatch("failed", len(requests))
		return fmt.Errorf("failed to cache signal records: %w", err)
	}

	metrics.RecordConsumerBatch("processed", len(requests))

	c.logger.Info().
		Int("input_count", len(requests)).
		Int("output_count", len(records)).
		Str("batch_id", batch.BatchID).
		Msg("processed and cached signal records")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
