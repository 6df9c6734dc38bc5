package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total match requests that ran the full pipeline, labelled by outcome
	// (ok when at least one candidate was returned, empty otherwise); failed
	// and result-cache-served requests are not counted
	MatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorstream_match_requests_total",
			Help: "Total match requests processed",
		},
		[]string{"outcome"},
	)

	// end-to-end match pipeline latency
	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sponsorstream_match_duration_seconds",
			Help:    "Duration of the full match pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)

	// number of candidates returned per match, labelled by placement
	MatchCandidateCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sponsorstream_match_candidates",
			Help:    "Number of candidates returned per match request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"placement"},
	)

	// policy denials, labelled by reason
	PolicyDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorstream_policy_denials_total",
			Help: "Total creatives denied by the policy engine, by reason",
		},
		[]string{"reason"},
	)

	// pacing denials, labelled by reason
	PacingDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorstream_pacing_denials_total",
			Help: "Total creatives denied by the pacing engine, by reason",
		},
		[]string{"reason"},
	)

	// embedding/result cache hit and miss counts, labelled by cache name
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorstream_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache"},
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorstream_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache"},
	)

	// analytics write failures
	AnalyticsWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sponsorstream_analytics_write_errors_total",
			Help: "Total failures writing a match analytics event",
		},
	)

	// audit-trace store size, sampled on write
	AuditStoreSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sponsorstream_audit_store_size",
			Help: "Current number of entries held in the audit-trace store",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MatchRequests,
		MatchDuration,
		MatchCandidateCount,
		PolicyDenials,
		PacingDenials,
		CacheHits,
		CacheMisses,
		AnalyticsWriteErrors,
		AuditStoreSize,
	)
}
