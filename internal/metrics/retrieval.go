package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Name:      "retrieval_requests_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"status"}, // "success" / "error"
	)

	RetrievalChunksReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Name:      "retrieval_chunks_returned",
			Help:      "Number of chunks returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	RetrievalContextChars = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Name:      "retrieval_context_chars",
			Help:      "Context size in characters per retrieval",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000},
		},
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Name:      "ingest_documents_total",
			Help:      "Total number of ingested documents",
		},
		[]string{"status"}, // "success" / "error"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Name:      "ingest_chunks_total",
			Help:      "Total number of indexed chunks",
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval and ingestion metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalChunksReturned)
	prometheus.MustRegister(RetrievalContextChars)
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestChunksTotal)
	retrievalMetricsRegistered = true
}
