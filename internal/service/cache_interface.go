package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

// Cache is an interface that abstracts cache operations
// This allows for easier testing and mocking
type Cache interface {
	Set(ctx context.Context, record *models.SignalRecord) error
	Get(ctx context.Context, model string, id uuid.UUID) (*models.SignalRecord, error)
	SetBatch(ctx context.Context, records []*models.SignalRecord) error
	GetByModel(ctx context.Context, model string) ([]*models.SignalRecord, error)
	Ping(ctx context.Context) error
	Close() error
}
