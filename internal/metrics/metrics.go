// Package metrics holds the Prometheus collectors exported by the signal service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cypherlabdev/hedge-signal-service/internal/models"
)

const namespace = "hedge_signal"

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SignalEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Total number of model evaluations by model and resulting signal",
	}, []string{"model", "signal", "kind"})
	SignalEvaluationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_errors_total",
		Help:      "Total number of requests that could not be evaluated",
	}, []string{"model"})
	CacheErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_errors_total",
		Help:      "Total number of failed cache operations",
	}, []string{"operation"})
	ConsumerBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consumer_batches_total",
		Help:      "Total number of request batches consumed from Kafka",
	}, []string{"status"})
	ConsumerRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consumer_requests_total",
		Help:      "Total number of signal requests received from Kafka",
	})
)

// Histogram metrics
var (
	SignalEvaluationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of model evaluation in seconds",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"model"})
)

// InitRegistry initializes the service registry
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		registry.MustRegister(SignalEvaluationsTotal)
		registry.MustRegister(SignalEvaluationErrorsTotal)
		registry.MustRegister(CacheErrorsTotal)
		registry.MustRegister(ConsumerBatchesTotal)
		registry.MustRegister(ConsumerRequestsTotal)
		registry.MustRegister(SignalEvaluationDuration)
	})
	return registry
}

// GetRegistry returns the service registry, initializing it on first use
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler for the service registry
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEvaluation records a completed evaluation
func RecordEvaluation(model, signal, kind string, duration time.Duration) {
	SignalEvaluationsTotal.WithLabelValues(model, signal, kind).Inc()
	SignalEvaluationDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordEvaluationError records a request that could not be dispatched
func RecordEvaluationError(model string) {
	SignalEvaluationErrorsTotal.WithLabelValues(model).Inc()
}

// RecordBatch spreads the batch duration evenly over the records it produced
// and counts requests that produced none as evaluation errors.
// Requests without an ID are skipped since their record ID is generated.
func RecordBatch(reqs []*models.SignalRequest, records []*models.SignalRecord, elapsed time.Duration) {
	evaluated := make(map[uuid.UUID]struct{}, len(records))
	var per time.Duration
	if len(records) > 0 {
		per = elapsed / time.Duration(len(records))
	}
	for _, r := range records {
		evaluated[r.ID] = struct{}{}
		RecordEvaluation(r.Model, r.Signal, r.Kind, per)
	}
	for _, req := range reqs {
		if req == nil {
			RecordEvaluationError(ModelLabel(req))
			continue
		}
		if req.ID == uuid.Nil {
			continue
		}
		if _, ok := evaluated[req.ID]; !ok {
			RecordEvaluationError(ModelLabel(req))
		}
	}
}

// ModelLabel bounds the model label to the supported models
func ModelLabel(req *models.SignalRequest) string {
	if req == nil || !models.IsKnownModel(req.Model) {
		return "unknown"
	}
	return req.Model
}

// RecordCacheError records a failed cache operation
func RecordCacheError(operation string) {
	CacheErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordConsumerBatch records a consumed batch and the number of requests it carried
func RecordConsumerBatch(status string, requests int) {
	ConsumerBatchesTotal.WithLabelValues(status).Inc()
	ConsumerRequestsTotal.Add(float64(requests))
}
