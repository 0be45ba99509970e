package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/hedge-signal-service/internal/metrics"
	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

// ErrInvalidRequest is returned when a request envelope fails validation
var ErrInvalidRequest = errors.New("invalid signal request")

// SignalService orchestrates model evaluation with caching
type SignalService struct {
	evaluator Evaluator
	cache     Cache
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewSignalService creates a new signal service
func NewSignalService(
	evaluator Evaluator,
	cache Cache,
	logger zerolog.Logger,
) *SignalService {
	return &SignalService{
		evaluator: evaluator,
		cache:     cache,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "signal_service").Logger(),
	}
}

// Evaluate validates a request, runs its model and caches the record
func (s *SignalService) Evaluate(ctx context.Context, req *models.SignalRequest) (*models.SignalRecord, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	record, err := s.evaluator.Evaluate(req)
	if err != nil {
		metrics.RecordEvaluationError(req.Model)
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	metrics.RecordEvaluation(record.Model, record.Signal, record.Kind, time.Since(start))

	// Cache errors never fail the request
	if err := s.cache.Set(ctx, record); err != nil {
		metrics.RecordCacheError("set")
		s.logger.Warn().
			Err(err).
			Str("model", record.Model).
			Str("id", record.ID.String()).
			Msg("failed to cache signal record")
	}

	s.logger.Info().
		Str("model", record.Model).
		Str("id", record.ID.String()).
		Str("signal", record.Signal).
		Str("kind", record.Kind).
		Msg("evaluated signal")

	return record, nil
}

// EvaluateBatch evaluates a batch of requests and caches the results.
// Requests that fail validation are skipped.
func (s *SignalService) EvaluateBatch(ctx context.Context, reqs []*models.SignalRequest) ([]*models.SignalRecord, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	valid := make([]*models.SignalRequest, 0, len(reqs))
	for _, req := range reqs {
		if err := s.validateRequest(req); err != nil {
			metrics.RecordEvaluationError(metrics.ModelLabel(req))
			s.logger.Warn().Err(err).Msg("skipping invalid signal request")
			continue
		}
		valid = append(valid, req)
	}
	if len(valid) == 0 {
		return nil, nil
	}

	start := time.Now()
	records, err := s.evaluator.BatchEvaluate(valid)
	if err != nil {
		return nil, fmt.Errorf("batch evaluation failed: %w", err)
	}
	metrics.RecordBatch(valid, records, time.Since(start))

	if err := s.cache.SetBatch(ctx, records); err != nil {
		metrics.RecordCacheError("set_batch")
		s.logger.Warn().
			Err(err).
			Int("count", len(records)).
			Msg("failed to cache batch of signal records")
	}

	s.logger.Info().
		Int("input_count", len(reqs)).
		Int("output_count", len(records)).
		Msg("evaluated and cached batch")

	return records, nil
}

// GetSignal retrieves a cached record by model and ID
func (s *SignalService) GetSignal(ctx context.Context, model string, id uuid.UUID) (*models.SignalRecord, error) {
	record, err := s.cache.Get(ctx, model, id)
	if err != nil {
		if !errors.Is(err, models.ErrSignalNotFound) {
			metrics.RecordCacheError("get")
		}
		return nil, fmt.Errorf("failed to retrieve signal %s/%s: %w", model, id, err)
	}

	s.logger.Debug().
		Str("model", model).
		Str("id", id.String()).
		Msg("cache hit for signal record")

	return record, nil
}

// GetSignalsByModel retrieves all cached records for a model
func (s *SignalService) GetSignalsByModel(ctx context.Context, model string) ([]*models.SignalRecord, error) {
	records, err := s.cache.GetByModel(ctx, model)
	if err != nil {
		metrics.RecordCacheError("get_by_model")
		return nil, fmt.Errorf("failed to retrieve signals for model: %w", err)
	}

	s.logger.Debug().
		Str("model", model).
		Int("count", len(records)).
		Msg("retrieved signal records by model")

	return records, nil
}

// Ping checks the cache backing the service
func (s *SignalService) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *SignalService) validateRequest(req *models.SignalRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
