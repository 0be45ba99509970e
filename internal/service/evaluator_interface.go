package service

import (
	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

// Evaluator is an interface that abstracts signal model evaluation
// This allows for easier testing and mocking
type Evaluator interface {
	Evaluate(req *models.SignalRequest) (*models.SignalRecord, error)
	BatchEvaluate(reqs []*models.SignalRequest) ([]*models.SignalRecord, error)
}
