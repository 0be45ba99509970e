package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
	"github.com/cypherlabdev/hedge-signal-service/internal/service"
	"github.com/cypherlabdev/hedge-signal-service/pkg/signal"
)

// maxPayloadBytes bounds a model payload; inputs are a handful of scalars
const maxPayloadBytes = 64 << 10

// SignalHandler handles HTTP requests for signal evaluation and lookup
type SignalHandler struct {
	service *service.SignalService
	logger  zerolog.Logger
}

// NewSignalHandler creates a new signal HTTP handler
func NewSignalHandler(service *service.SignalService, logger zerolog.Logger) *SignalHandler {
	return &SignalHandler{
		service: service,
		logger:  logger.With().Str("component", "signal_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *SignalHandler) RegisterRoutes(mux *http.ServeMux) {
	// POST /api/v1/signals/:model      - Evaluate a model on the request body
	// GET  /api/v1/signals/:model/:id  - Get a cached signal record
	mux.HandleFunc("/api/v1/signals/", h.handleSignals)

	// GET /api/v1/models              - List supported models
	// GET /api/v1/models/:model/signals - Get all cached records for a model
	mux.HandleFunc("/api/v1/models", h.handleListModels)
	mux.HandleFunc("/api/v1/models/", h.handleGetModelSignals)
}

// handleSignals routes /api/v1/signals/ by method
func (h *SignalHandler) handleSignals(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/signals/"), "/")
	parts := strings.Split(path, "/")

	switch r.Method {
	case http.MethodPost:
		if len(parts) != 1 || parts[0] == "" {
			h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/signals/:model")
			return
		}
		h.handleEvaluate(w, r, parts[0])

	case http.MethodGet:
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/signals/:model/:id")
			return
		}
		h.handleGetSignal(w, r, parts[0], parts[1])

	default:
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleEvaluate handles POST /api/v1/signals/:model
func (h *SignalHandler) handleEvaluate(w http.ResponseWriter, r *http.Request, model string) {
	if !models.IsKnownModel(model) {
		h.errorResponse(w, http.StatusNotFound, "unknown model: "+model)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	req := &models.SignalRequest{
		ID:          uuid.New(),
		Model:       model,
		Payload:     body,
		RequestedAt: time.Now().UTC(),
	}

	record, err := h.service.Evaluate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest),
			errors.Is(err, signal.ErrInvalidPayload),
			errors.Is(err, signal.ErrUnknownModel):
			h.logger.Debug().Err(err).Str("model", model).Msg("rejected signal request")
			h.errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("model", model).Msg("failed to evaluate signal")
			h.errorResponse(w, http.StatusInternalServerError, "failed to evaluate signal")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, record)
}

// handleGetSignal handles GET /api/v1/signals/:model/:id
func (h *SignalHandler) handleGetSignal(w http.ResponseWriter, r *http.Request, model, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "id must be a UUID")
		return
	}

	record, err := h.service.GetSignal(r.Context(), model, id)
	if err != nil {
		if errors.Is(err, models.ErrSignalNotFound) {
			h.errorResponse(w, http.StatusNotFound, "signal not found")
			return
		}
		h.logger.Error().
			Err(err).
			Str("model", model).
			Str("id", rawID).
			Msg("failed to retrieve signal")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve signal")
		return
	}

	h.jsonResponse(w, http.StatusOK, record)
}

// handleListModels handles GET /api/v1/models
func (h *SignalHandler) handleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"models": models.Models(),
	})
}

// handleGetModelSignals handles GET /api/v1/models/:model/signals
func (h *SignalHandler) handleGetModelSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/models/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "signals" {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/models/:model/signals")
		return
	}

	model := parts[0]
	if !models.IsKnownModel(model) {
		h.errorResponse(w, http.StatusNotFound, "unknown model: "+model)
		return
	}

	records, err := h.service.GetSignalsByModel(r.Context(), model)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("model", model).
			Msg("failed to retrieve model signals")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve signals")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"model":   model,
		"count":   len(records),
		"signals": records,
	})
}

// jsonResponse writes a JSON response
func (h *SignalHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *SignalHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
