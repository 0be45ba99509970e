package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

var (
	// ErrUnknownModel is returned for a request naming no supported model
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidPayload is returned when a request payload does not decode into the model input
	ErrInvalidPayload = errors.New("invalid payload")

	errFieldType = errors.New("payload field has the wrong type")
)

// Engine evaluates the signal models with a fixed calibration.
// It keeps no per-call state and is safe for concurrent use.
type Engine struct {
	params Params
	logger zerolog.Logger
}

// NewEngine creates a new signal engine
func NewEngine(params Params, logger zerolog.Logger) *Engine {
	return &Engine{
		params: params,
		logger: logger.With().Str("component", "signal_engine").Logger(),
	}
}

// Params returns the engine calibration
func (e *Engine) Params() Params {
	return e.params
}

// Evaluate runs the model named by the request on its payload.
// Model-level failures, including payload fields of the wrong type, are reported
// inside the result with an ERROR tag; an error is returned only when the request
// itself cannot be dispatched.
func (e *Engine) Evaluate(req *models.SignalRequest) (*models.SignalRecord, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidPayload)
	}

	var (
		tag    Tag
		result any
		err    error
	)

	switch req.Model {
	case models.ModelMeanReversion:
		var in MeanReversionInput
		if err = decodePayload(req.Payload, &in); err == nil {
			r := e.MeanReversion(in)
			tag, result = labelTag(r.Label), r
		}

	case models.ModelStatArb:
		in := StatArbInput{KellyMultiplier: DefaultFractionalKelly}
		if err = decodePayload(req.Payload, &in); err == nil {
			r := e.StatArb(in)
			tag, result = r.Signal, r
		}

	case models.ModelVolatility:
		in := VolatilityInput{KellyMultiplier: DefaultFractionalKelly}
		if err = decodePayload(req.Payload, &in); err == nil {
			r := e.Volatility(in)
			tag, result = r.Signal, r
		}

	case models.ModelMiddle:
		var in MiddleInput
		if err = decodePayload(req.Payload, &in); err == nil {
			r := e.Middle(in)
			tag, result = r.Signal, r
		}

	case models.ModelDivergence:
		var in DivergenceInput
		if err = decodePayload(req.Payload, &in); err == nil {
			r := e.Divergence(in)
			tag, result = r.Signal, r
		}

	case models.ModelKelly:
		in := KellyInput{KellyMultiplier: DefaultKellyMultiplier}
		if err = decodePayload(req.Payload, &in); err == nil {
			r := KellySizing(in)
			tag, result = r.Signal, r
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, req.Model)
	}

	if err != nil {
		if !errors.Is(err, errFieldType) {
			return nil, err
		}
		tag, result = TagError, fieldTypeResult(req.Model, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s result: %w", req.Model, err)
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	signal := string(tag)
	if r, ok := result.(MeanReversionResult); ok {
		signal = string(r.Label)
	}

	return &models.SignalRecord{
		ID:          id,
		Model:       req.Model,
		Signal:      signal,
		Kind:        tag.Kind().String(),
		Result:      data,
		RequestedAt: req.RequestedAt,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

// BatchEvaluate evaluates a batch of requests, skipping ones that cannot be dispatched
func (e *Engine) BatchEvaluate(reqs []*models.SignalRequest) ([]*models.SignalRecord, error) {
	records := make([]*models.SignalRecord, 0, len(reqs))

	for _, req := range reqs {
		record, err := e.Evaluate(req)
		if err != nil {
			event := e.logger.Warn().Err(err)
			if req != nil {
				event = event.Str("request_id", req.ID.String()).Str("model", req.Model)
			}
			event.Msg("failed to evaluate signal request")
			continue
		}
		records = append(records, record)
	}

	e.logger.Info().
		Int("input_count", len(reqs)).
		Int("output_count", len(records)).
		Msg("batch evaluation complete")

	return records, nil
}

// decodePayload strictly decodes a model payload
func decodePayload(payload json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %s must be %s, got %s", errFieldType, typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// fieldTypeResult builds the ERROR result for a payload that decoded with a
// field of the wrong type
func fieldTypeResult(model string, err error) any {
	if model == models.ModelMeanReversion {
		return MeanReversionResult{Label: LabelError, Message: err.Error()}
	}
	return struct {
		Signal  Tag    `json:"signal"`
		Message string `json:"message"`
	}{Signal: TagError, Message: err.Error()}
}

// labelTag maps a mean reversion label onto the shared tag set
func labelTag(l Label) Tag {
	switch l {
	case LabelBetOpportunity:
		return TagBet
	case LabelError:
		return TagError
	default:
		return TagNoBet
	}
}
