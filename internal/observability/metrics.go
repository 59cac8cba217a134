package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper metasearch service.
// Metrics are organized by subsystem: searches, sources, planning, ranking,
// and LLM operations. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// SearchesStarted counts the total number of metasearch requests initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts the total number of searches that finished successfully.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts the total number of searches that ended in failure.
	SearchesFailed prometheus.Counter

	// SearchDuration observes the end-to-end duration of searches in seconds.
	SearchDuration prometheus.Histogram

	// PapersReturned observes the distribution of papers returned per search.
	PapersReturned prometheus.Histogram

	// SubQueriesDispatched counts sub-queries dispatched, labeled by paper source.
	SubQueriesDispatched *prometheus.CounterVec

	// SubQueriesFailed counts sub-queries that failed, labeled by paper source.
	SubQueriesFailed *prometheus.CounterVec

	// SourceSearchDuration observes per-source search duration in seconds.
	SourceSearchDuration *prometheus.HistogramVec

	// PapersBySource counts papers retrieved, labeled by paper source.
	PapersBySource *prometheus.CounterVec

	// PlannerFallbacks counts planner failures that degraded to the verbatim plan.
	PlannerFallbacks prometheus.Counter

	// RankingDegrades counts ranking failures that returned unranked results.
	RankingDegrades prometheus.Counter

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by operation and model.
	LLMRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of metasearch requests started",
		}),
		SearchesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of metasearch requests completed successfully",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of metasearch requests that failed",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end duration of metasearch requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		PapersReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_returned",
			Help:      "Number of papers returned per metasearch request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),

		// Sources
		SubQueriesDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subqueries_dispatched_total",
			Help:      "Total number of sub-queries dispatched by source",
		}, []string{"source"}),
		SubQueriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subqueries_failed_total",
			Help:      "Total number of sub-queries that failed by source",
		}, []string{"source"}),
		SourceSearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_search_duration_seconds",
			Help:      "Duration of per-source searches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		}, []string{"source"}),
		PapersBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_by_source_total",
			Help:      "Total number of papers retrieved by source",
		}, []string{"source"}),

		// Planning and ranking
		PlannerFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planner_fallbacks_total",
			Help:      "Total number of planner failures degraded to the verbatim plan",
		}),
		RankingDegrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_degrades_total",
			Help:      "Total number of ranking failures that returned unranked results",
		}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),
	}
}

// RecordSearchStarted records that a metasearch request has started.
func (m *Metrics) RecordSearchStarted() {
	m.SearchesStarted.Inc()
}

// RecordSearchCompleted records that a metasearch request has completed.
func (m *Metrics) RecordSearchCompleted(paperCount int, durationSeconds float64) {
	m.SearchesCompleted.Inc()
	m.SearchDuration.Observe(durationSeconds)
	m.PapersReturned.Observe(float64(paperCount))
}

// RecordSearchFailed records that a metasearch request has failed.
func (m *Metrics) RecordSearchFailed(durationSeconds float64) {
	m.SearchesFailed.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordSubQueryDispatched records a sub-query dispatched to a source.
func (m *Metrics) RecordSubQueryDispatched(source string) {
	m.SubQueriesDispatched.WithLabelValues(source).Inc()
}

// RecordSubQueryFailed records a sub-query that failed at a source.
func (m *Metrics) RecordSubQueryFailed(source string, durationSeconds float64) {
	m.SubQueriesFailed.WithLabelValues(source).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSubQueryCompleted records a sub-query that completed at a source.
func (m *Metrics) RecordSubQueryCompleted(source string, paperCount int, durationSeconds float64) {
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersBySource.WithLabelValues(source).Add(float64(paperCount))
}

// RecordPlannerFallback records a planner failure degraded to the verbatim plan.
func (m *Metrics) RecordPlannerFallback() {
	m.PlannerFallbacks.Inc()
}

// RecordRankingDegrade records a ranking failure that returned unranked results.
func (m *Metrics) RecordRankingDegrade() {
	m.RankingDegrades.Inc()
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}
