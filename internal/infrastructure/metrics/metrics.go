package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConversIQ Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "conversiq",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	EmbeddingCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "embedding",
			Name:      "calls_total",
			Help:      "Embedding service calls by outcome",
		},
		[]string{"outcome"},
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "conversiq",
			Subsystem: "embedding",
			Name:      "duration_seconds",
			Help:      "Embedding call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// LLM calls by purpose (reply, summary) and outcome
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Chat completion calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "conversiq",
			Subsystem: "llm",
			Name:      "duration_seconds",
			Help:      "Chat completion duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"purpose"},
	)

	VectorSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "conversiq",
			Subsystem: "recall",
			Name:      "vector_search_duration_seconds",
			Help:      "Vector search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "embedding",
			Name:      "cache_hits_total",
			Help:      "Total embedding cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "embedding",
			Name:      "cache_misses_total",
			Help:      "Total embedding cache misses",
		},
		[]string{"cache_type"},
	)

	BackfillMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "conversiq",
			Subsystem: "backfill",
			Name:      "messages_total",
			Help:      "Messages processed by the embedding backfill by result",
		},
		[]string{"result"},
	)

	BackfillPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "conversiq",
			Subsystem: "backfill",
			Name:      "pending_messages",
			Help:      "Messages without an embedding at the start of the last backfill run",
		},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordEmbedding records one embedding call
func RecordEmbedding(outcome string, durationSec float64) {
	EmbeddingCallsTotal.WithLabelValues(outcome).Inc()
	EmbeddingDuration.Observe(durationSec)
	recordOTelEmbedding(outcome, durationSec)
}

// RecordLLMCall records one chat completion call
func RecordLLMCall(purpose, outcome string, durationSec float64) {
	LLMCallsTotal.WithLabelValues(purpose, outcome).Inc()
	LLMDuration.WithLabelValues(purpose).Observe(durationSec)
	recordOTelLLMCall(purpose, outcome, durationSec)
}

// RecordVectorSearch records vector search time
func RecordVectorSearch(durationSec float64) {
	VectorSearchDuration.Observe(durationSec)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	CacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// RecordBackfill records the result of embedding one pending message
func RecordBackfill(result string) {
	BackfillMessagesTotal.WithLabelValues(result).Inc()
}
