package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

func TestMetricsRegistry(t *testing.T) {
	registry := InitRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, GetRegistry())
}

func TestRecordEvaluation(t *testing.T) {
	InitRegistry()
	counter := SignalEvaluationsTotal.WithLabelValues("middle", "MIDDLE_SCALP", "actionable")
	before := testutil.ToFloat64(counter)

	RecordEvaluation("middle", "MIDDLE_SCALP", "actionable", 150*time.Microsecond)
	RecordEvaluation("middle", "MIDDLE_SCALP", "actionable", 90*time.Microsecond)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordEvaluationError(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(SignalEvaluationErrorsTotal.WithLabelValues("unknown"))

	RecordEvaluationError("unknown")

	assert.Equal(t, before+1, testutil.ToFloat64(SignalEvaluationErrorsTotal.WithLabelValues("unknown")))
}

func TestRecordBatch(t *testing.T) {
	InitRegistry()
	evaluated := SignalEvaluationsTotal.WithLabelValues("divergence", "BET", "actionable")
	kellyErrors := SignalEvaluationErrorsTotal.WithLabelValues("kelly")
	unknownErrors := SignalEvaluationErrorsTotal.WithLabelValues("unknown")
	beforeEvaluated := testutil.ToFloat64(evaluated)
	beforeKelly := testutil.ToFloat64(kellyErrors)
	beforeUnknown := testutil.ToFloat64(unknownErrors)

	reqs := []*models.SignalRequest{
		{ID: uuid.New(), Model: models.ModelDivergence},
		{ID: uuid.New(), Model: models.ModelKelly},
		{ID: uuid.New(), Model: "arbitrage"},
		{ID: uuid.Nil, Model: models.ModelKelly},
		nil,
	}
	records := []*models.SignalRecord{
		{ID: reqs[0].ID, Model: models.ModelDivergence, Signal: "BET", Kind: "actionable"},
	}

	RecordBatch(reqs, records, time.Millisecond)

	assert.Equal(t, beforeEvaluated+1, testutil.ToFloat64(evaluated))
	assert.Equal(t, beforeKelly+1, testutil.ToFloat64(kellyErrors))
	assert.Equal(t, beforeUnknown+2, testutil.ToFloat64(unknownErrors))
}

func TestModelLabel(t *testing.T) {
	tests := []struct {
		name string
		req  *models.SignalRequest
		want string
	}{
		{"Known", &models.SignalRequest{Model: models.ModelMiddle}, "middle"},
		{"Unknown", &models.SignalRequest{Model: "arbitrage"}, "unknown"},
		{"Nil", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelLabel(tt.req))
		})
	}
}

func TestRecordConsumerBatch(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name     string
		status   string
		requests int
	}{
		{name: "processed batch", status: "processed", requests: 3},
		{name: "failed batch", status: "failed", requests: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := testutil.ToFloat64(ConsumerBatchesTotal.WithLabelValues(tt.status))
			requests := testutil.ToFloat64(ConsumerRequestsTotal)

			RecordConsumerBatch(tt.status, tt.requests)

			assert.Equal(t, batches+1, testutil.ToFloat64(ConsumerBatchesTotal.WithLabelValues(tt.status)))
			assert.Equal(t, requests+float64(tt.requests), testutil.ToFloat64(ConsumerRequestsTotal))
		})
	}
}

func TestHandler(t *testing.T) {
	RecordCacheError("set")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "hedge_signal_cache_errors_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
