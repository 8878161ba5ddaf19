package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and speaker-matching Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "search_duration_seconds",
			Help:      "Fragment search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "search_results_total",
			Help:      "Total number of fragments returned by searches",
		},
		[]string{"mode"},
	)

	RerankAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "rerank_applied_total",
			Help:      "Searches whose results were reordered by the reranker",
		},
	)

	RerankFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "rerank_fallback_total",
			Help:      "Searches that fell back to fused order after a rerank failure",
		},
		[]string{"reason"}, // "error" / "invalid"
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "speaker_match_duration_seconds",
			Help:      "Voiceprint match duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	MatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "speaker_match_total",
			Help:      "Total voiceprint match attempts by outcome",
		},
		[]string{"outcome"}, // "matched" / "unmatched"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(RerankAppliedTotal)
	prometheus.MustRegister(RerankFallbackTotal)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(MatchTotal)
	searchMetricsRegistered = true
}
