package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions for the validation pipeline

var (
	validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubscrape",
			Subsystem: "validation",
			Name:      "emails_total",
			Help:      "Total emails processed, by terminal status",
		},
		[]string{"status"},
	)

	validationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pubscrape",
			Subsystem: "validation",
			Name:      "duration_seconds",
			Help:      "Per-email pipeline duration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 100us to ~6.5s
		},
	)

	qualityGrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubscrape",
			Subsystem: "validation",
			Name:      "quality_total",
			Help:      "Terminal results by quality grade",
		},
		[]string{"grade"},
	)

	verifierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubscrape",
			Subsystem: "verifier",
			Name:      "requests_total",
			Help:      "External verification requests, by outcome",
		},
		[]string{"outcome"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pubscrape",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	mergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pubscrape",
			Subsystem: "dedup",
			Name:      "merges_total",
			Help:      "Contact records merged into an existing identity",
		},
	)
)

// RecordValidation records one terminal pipeline result
func RecordValidation(status, grade string, latency time.Duration) {
	validationsTotal.WithLabelValues(status).Inc()
	qualityGrades.WithLabelValues(grade).Inc()
	validationDuration.Observe(latency.Seconds())
}

// RecordVerifierRequest records one external service call outcome
func RecordVerifierRequest(outcome string) {
	verifierRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a hit or miss against a named cache
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordMerge records a dedup merge
func RecordMerge() {
	mergesTotal.Inc()
}
