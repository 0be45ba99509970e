package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSignalNotFound is returned when no cached record exists for a model and ID
var ErrSignalNotFound = errors.New("signal not found")

// Model names accepted by the signal engine
const (
	ModelMeanReversion = "mean_reversion"
	ModelStatArb       = "stat_arb"
	ModelVolatility    = "volatility"
	ModelMiddle        = "middle"
	ModelDivergence    = "divergence"
	ModelKelly         = "kelly"
)

// Models lists every supported model name
func Models() []string {
	return []string{
		ModelMeanReversion,
		ModelStatArb,
		ModelVolatility,
		ModelMiddle,
		ModelDivergence,
		ModelKelly,
	}
}

// IsKnownModel reports whether name is a supported model
func IsKnownModel(name string) bool {
	for _, m := range Models() {
		if m == name {
			return true
		}
	}
	return false
}

// SignalRequest asks the engine to evaluate one model on a payload of scalar inputs
type SignalRequest struct {
	ID          uuid.UUID       `json:"id"`
	Model       string          `json:"model" validate:"required,oneof=mean_reversion stat_arb volatility middle divergence kelly"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
	RequestedAt time.Time       `json:"requested_at"`
}

// SignalRecord is the evaluated result of a SignalRequest
type SignalRecord struct {
	ID          uuid.UUID       `json:"id"`
	Model       string          `json:"model"`
	Signal      string          `json:"signal"` // tag or label of the result
	Kind        string          `json:"kind"`   // actionable, no_signal or error
	Result      json.RawMessage `json:"result"` // model-specific diagnostics
	RequestedAt time.Time       `json:"requested_at"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// KafkaSignalRequestMessage represents a batch of requests on the request topic
type KafkaSignalRequestMessage struct {
	Requests  []SignalRequest `json:"requests"`
	Timestamp time.Time       `json:"timestamp"`
	BatchID   string          `json:"batch_id"`
}
