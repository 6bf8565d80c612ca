package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
)

var latencyBuckets = []float64{25, 50, 100, 250, 500, 1000, 2000, 5000}

// Observer records saga stage latencies and outcomes in Prometheus.
// It implements domain.Observer.
type Observer struct {
	registry        *prometheus.Registry
	stageLatency    *prometheus.HistogramVec
	outcomes        *prometheus.CounterVec
	processingTotal *prometheus.HistogramVec
}

var _ domain.Observer = (*Observer)(nil)

// NewObserver registers the network metrics on a fresh registry that also
// carries the Go runtime and process collectors.
func NewObserver() *Observer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Observer{
		registry: registry,
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paynet_stage_latency_ms",
				Help:    "Simulated bank response time per saga stage",
				Buckets: latencyBuckets,
			},
			[]string{"stage", "response_code"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paynet_network_transactions_total",
				Help: "Completed purchase attempts by final status and acquirer",
			},
			[]string{"final_status", "acquirer"},
		),
		processingTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paynet_total_processing_ms",
				Help:    "End to end processing time of purchase attempts",
				Buckets: latencyBuckets,
			},
			[]string{"final_status"},
		),
	}
}

// ObserveStage records one stage response.
func (o *Observer) ObserveStage(stage domain.Stage, code domain.ResponseCode, latencyMs int) {
	o.stageLatency.WithLabelValues(string(stage), string(code)).Observe(float64(latencyMs))
}

// ObserveOutcome records the final state of a purchase attempt.
func (o *Observer) ObserveOutcome(txn *domain.NetworkTransaction) {
	status := string(txn.FinalStatus)
	o.outcomes.WithLabelValues(status, txn.AcquirerBankCode).Inc()
	o.processingTotal.WithLabelValues(status).Observe(float64(txn.TotalProcessingTimeMs))
}

// Registry exposes the registry, e.g. for tests.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
