package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding calls made on behalf of ingestion and query vectorization.
var (
	EmbeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "calls_total",
			Help:      "Embedding API calls by outcome",
		},
		[]string{"model", "outcome"}, // "ok" / "failed"
	)

	EmbeddingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "call_duration_seconds",
			Help:      "Latency of successful embedding API calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingBatchTexts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "batch_texts",
			Help:      "Texts sent per embedding call; 1 is a query, more is an ingestion batch",
			Buckets:   []float64{1, 2, 8, 32, 128, 512, 1000},
		},
		[]string{"model"},
	)

	EmbeddingTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"model", "kind"}, // "prompt" / "total"
	)

	EmbeddingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "failures_total",
			Help:      "Failed embedding calls by reason",
		},
		[]string{"model", "reason"},
	)

	// EmbeddingCacheLookups is handed to the embedding cache, which labels it "hit" or "miss".
	EmbeddingCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Embedding cache lookups per text",
		},
		[]string{"result"},
	)
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers embedding metrics. Must be called once from main.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		EmbeddingCalls,
		EmbeddingLatency,
		EmbeddingBatchTexts,
		EmbeddingTokens,
		EmbeddingFailures,
		EmbeddingCacheLookups,
	)
	embMetricsRegistered = true
}

// ObserveEmbedding records one successful call. Token counters move only when the provider reports usage.
func ObserveEmbedding(model string, texts int, took time.Duration, promptTokens, totalTokens int) {
	EmbeddingCalls.WithLabelValues(model, "ok").Inc()
	EmbeddingLatency.WithLabelValues(model).Observe(took.Seconds())
	EmbeddingBatchTexts.WithLabelValues(model).Observe(float64(texts))
	if totalTokens > 0 {
		EmbeddingTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
		EmbeddingTokens.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// EmbeddingFailed records one failed call.
func EmbeddingFailed(model, reason string) {
	EmbeddingCalls.WithLabelValues(model, "failed").Inc()
	EmbeddingFailures.WithLabelValues(model, reason).Inc()
}
