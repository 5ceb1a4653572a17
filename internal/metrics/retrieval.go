package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval, ingestion and synthesis Prometheus metrics.
var (
	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Name:      "retrieval_duration_seconds",
			Help:      "Hybrid retrieval duration in seconds, including query embedding",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridrag",
			Name:      "retrieval_candidates",
			Help:      "Candidates returned per signal before fusion",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"signal"}, // "lexical" / "vector"
	)

	IngestedChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Name:      "ingested_chunks_total",
			Help:      "Total chunks committed to the store and index",
		},
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Name:      "ingest_batches_total",
			Help:      "Total ingestion batches by outcome",
		},
		[]string{"status"},
	)

	SynthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Name:      "synthesis_requests_total",
			Help:      "Total answer synthesis requests",
		},
		[]string{"status"}, // "success" / "error" / "empty"
	)

	ReindexedChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hybridrag",
			Name:      "reindexed_chunks_total",
			Help:      "Stored chunks written back to the search index at startup",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval, ingestion and synthesis metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(IngestedChunksTotal)
	prometheus.MustRegister(IngestBatchesTotal)
	prometheus.MustRegister(SynthesisRequestsTotal)
	prometheus.MustRegister(ReindexedChunksTotal)
	retrievalMetricsRegistered = true
}
