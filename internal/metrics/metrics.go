package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

// Analysis paths
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
)

// BusinessMetrics holds the Prometheus collectors for credibility analyses
type BusinessMetrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
}

// NewBusinessMetrics registers the analysis collectors under namespace.
// A nil registerer means prometheus.DefaultRegisterer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &BusinessMetrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed credibility analyses by result path and reason.",
		}, []string{"path", "reason"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis duration by result path.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"path"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Chat completion requests sent to the model API by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Latency of chat completion requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}),
	}
}

// RecordAnalysis counts one finished analysis and observes its duration
func (m *BusinessMetrics) RecordAnalysis(ctx context.Context, path, reason string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(path, reason).Inc()
	ObserveWithExemplar(ctx, m.AnalysisDuration.WithLabelValues(path), seconds)
}

// RecordUpstream counts one upstream request and observes its latency
func (m *BusinessMetrics) RecordUpstream(ctx context.Context, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(outcome).Inc()
	ObserveWithExemplar(ctx, m.UpstreamDuration, seconds)
}

// ObserveWithExemplar records value, attaching the active trace ID as an exemplar when there is one
func ObserveWithExemplar(ctx context.Context, obs prometheus.Observer, value float64) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if eo, ok := obs.(prometheus.ExemplarObserver); ok && spanCtx.HasTraceID() {
		eo.ObserveWithExemplar(value, prometheus.Labels{"trace_id": spanCtx.TraceID().String()})
		return
	}
	obs.Observe(value)
}
