package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/hedge-signal-service/internal/metrics"
	"github.com/cypherlabdev/hedge-signal-service/internal/mocks"
	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	consumer      *KafkaConsumer
	mockEvaluator *mocks.MockEvaluator
	mockCache     *mocks.MockCache
	ctrl          *gomock.Controller
}

// setupTestKafkaConsumer creates a test consumer with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	mockEvaluator := mocks.NewMockEvaluator(ctrl)
	mockCache := mocks.NewMockCache(ctrl)

	config := KafkaConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   DefaultTopic,
		GroupID: "test-group",
	}

	return &testKafkaConsumerSetup{
		consumer:      NewKafkaConsumer(config, mockEvaluator, mockCache, zerolog.Nop()),
		mockEvaluator: mockEvaluator,
		mockCache:     mockCache,
		ctrl:          ctrl,
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.consumer.Close()
}

func batchMessage(t *testing.T, batch models.KafkaSignalRequestMessage) kafka.Message {
	value, err := json.Marshal(batch)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(batch.BatchID), Value: value, Offset: 42}
}

func testBatch() models.KafkaSignalRequestMessage {
	return models.KafkaSignalRequestMessage{
		Requests: []models.SignalRequest{
			{
				ID:      uuid.New(),
				Model:   models.ModelMiddle,
				Payload: json.RawMessage(`{"line_a":45.5,"line_b":47.5,"juice_buffer":0.02}`),
			},
			{
				ID:          uuid.New(),
				Model:       models.ModelKelly,
				Payload:     json.RawMessage(`{"bankroll":1000,"win_probability":0.55,"decimal_odds":1.9,"kelly_multiplier":1}`),
				RequestedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		Timestamp: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
		BatchID:   "batch-123",
	}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.consumer.reader)
	assert.NotNil(t, setup.consumer.evaluator)
	assert.NotNil(t, setup.consumer.cache)
	assert.Equal(t, DefaultTopic, setup.consumer.reader.Config().Topic)
	assert.Equal(t, "test-group", setup.consumer.reader.Config().GroupID)
}

// TestNewKafkaConsumer_DefaultTopic tests the topic fallback
func TestNewKafkaConsumer_DefaultTopic(t *testing.T) {
	ctrl := gomock.NewController(t)

	consumer := NewKafkaConsumer(
		KafkaConsumerConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"},
		mocks.NewMockEvaluator(ctrl),
		mocks.NewMockCache(ctrl),
		zerolog.Nop(),
	)
	defer consumer.Close()

	assert.Equal(t, "signal_requests", consumer.reader.Config().Topic)
}

// TestProcessMessage_Success tests that a batch is evaluated and cached
func TestProcessMessage_Success(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()
	ctx := context.Background()

	batch := testBatch()
	records := []*models.SignalRecord{
		{ID: batch.Requests[0].ID, Model: models.ModelMiddle, Signal: "MIDDLE_SCALP", Kind: "actionable"},
		{ID: batch.Requests[1].ID, Model: models.ModelKelly, Signal: "BET", Kind: "actionable"},
	}

	setup.mockEvaluator.EXPECT().
		BatchEvaluate(gomock.Any()).
		DoAndReturn(func(reqs []*models.SignalRequest) ([]*models.SignalRecord, error) {
			require.Len(t, reqs, 2)
			assert.Equal(t, batch.Requests[0].ID, reqs[0].ID)
			// missing request times inherit the batch timestamp
			assert.True(t, batch.Timestamp.Equal(reqs[0].RequestedAt))
			assert.True(t, batch.Requests[1].RequestedAt.Equal(reqs[1].RequestedAt))
			return records, nil
		})
	setup.mockCache.EXPECT().SetBatch(ctx, records).Return(nil)

	err := setup.consumer.processMessage(ctx, batchMessage(t, batch))

	assert.NoError(t, err)
}

// TestProcessMessage_SkippedRequests tests that requests without a record count as evaluation errors
func TestProcessMessage_SkippedRequests(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()
	ctx := context.Background()

	metrics.InitRegistry()
	kellyErrors := metrics.SignalEvaluationErrorsTotal.WithLabelValues(models.ModelKelly)
	before := testutil.ToFloat64(kellyErrors)

	batch := testBatch()
	records := []*models.SignalRecord{
		{ID: batch.Requests[0].ID, Model: models.ModelMiddle, Signal: "MIDDLE_SCALP", Kind: "actionable"},
	}

	setup.mockEvaluator.EXPECT().BatchEvaluate(gomock.Any()).Return(records, nil)
	setup.mockCache.EXPECT().SetBatch(ctx, records).Return(nil)

	err := setup.consumer.processMessage(ctx, batchMessage(t, batch))

	assert.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(kellyErrors))
}

// TestProcessMessage_InvalidJSON tests that malformed messages are rejected
func TestProcessMessage_InvalidJSON(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	err := setup.consumer.processMessage(context.Background(), kafka.Message{Value: []byte("{not json")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal message")
}

// TestProcessMessage_EvaluationFailure tests handling of evaluator failure
func TestProcessMessage_EvaluationFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	setup.mockEvaluator.EXPECT().BatchEvaluate(gomock.Any()).Return(nil, errors.New("engine unavailable"))

	err := setup.consumer.processMessage(context.Background(), batchMessage(t, testBatch()))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate requests")
}

// TestProcessMessage_CacheFailure tests that cache failure leaves the message uncommitted
func TestProcessMessage_CacheFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()
	ctx := context.Background()

	records := []*models.SignalRecord{{ID: uuid.New(), Model: models.ModelMiddle, Signal: "NO_TRADE", Kind: "no_signal"}}

	setup.mockEvaluator.EXPECT().BatchEvaluate(gomock.Any()).Return(records, nil)
	setup.mockCache.EXPECT().SetBatch(ctx, records).Return(errors.New("redis down"))

	err := setup.consumer.processMessage(ctx, batchMessage(t, testBatch()))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cache signal records")
}

// TestProcessMessage_EmptyBatch tests that an empty batch needs no evaluation
func TestProcessMessage_EmptyBatch(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	batch := models.KafkaSignalRequestMessage{
		Requests:  []models.SignalRequest{},
		Timestamp: time.Now(),
		BatchID:   "batch-empty",
	}

	err := setup.consumer.processMessage(context.Background(), batchMessage(t, batch))

	assert.NoError(t, err)
}

// TestKafkaConsumerConfig tests different configurations
func TestKafkaConsumerConfig(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	tests := []struct {
		name   string
		config KafkaConsumerConfig
	}{
		{
			name: "Single broker",
			config: KafkaConsumerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "test-topic",
				GroupID: "test-group",
			},
		},
		{
			name: "Multiple brokers",
			config: KafkaConsumerConfig{
				Brokers: []string{"broker1:9092", "broker2:9092", "broker3:9092"},
				Topic:   "test-topic",
				GroupID: "test-group",
			},
		},
		{
			name: "Different topic",
			config: KafkaConsumerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "signal_requests_v2",
				GroupID: "test-group",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewKafkaConsumer(tt.config, setup.mockEvaluator, setup.mockCache, zerolog.Nop())

			assert.NotNil(t, consumer)
			assert.Equal(t, tt.config.Topic, consumer.reader.Config().Topic)
			assert.Equal(t, tt.config.GroupID, consumer.reader.Config().GroupID)
			assert.Equal(t, tt.config.Brokers, consumer.reader.Config().Brokers)

			consumer.Close()
		})
	}
}

// TestKafkaConsumer_ContextCancellation tests context cancellation handling
func TestKafkaConsumer_ContextCancellation(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- setup.consumer.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not stop within timeout")
	}
}
