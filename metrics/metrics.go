// metrics/metrics.go
// Package metrics exposes the request pipeline's Prometheus collectors.
// Collectors are registered on a caller supplied Registerer so that several
// clients, or several tests, never collide on the global registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lark_sdk"

// Recorder is implemented by Metrics and NoopMetrics.
type Recorder interface {
	// Token cache
	RecordTokenCacheLookup(scope string, hit bool)
	RecordTokenRefresh(scope string, success bool, duration time.Duration)
	RecordTokenInvalidation(scope string)

	// Requests
	RecordRequest(method, result string, attempts int, duration time.Duration)
	RecordRetry(category string, delay time.Duration)
	IncRequestsInFlight()
	DecRequestsInFlight()
	RecordConcurrencyWait(duration time.Duration)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus collectors of the pipeline.
type Metrics struct {
	// Token Metrics
	TokenCacheLookupsTotal  *prometheus.CounterVec
	TokenRefreshesTotal     *prometheus.CounterVec
	TokenRefreshDuration    *prometheus.HistogramVec
	TokenInvalidationsTotal *prometheus.CounterVec

	// Request Metrics
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	RequestAttempts        prometheus.Histogram
	RetriesTotal           *prometheus.CounterVec
	RetryDelay             *prometheus.HistogramVec
	RequestsInFlight       prometheus.Gauge
	ConcurrencyWaitSeconds prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TokenCacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_cache_lookups_total",
				Help:      "Total number of token cache lookups",
			},
			[]string{"scope", "result"}, // result: hit, miss
		),
		TokenRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Total number of token fetches from the token endpoints",
			},
			[]string{"scope", "result"}, // result: success, error
		),
		TokenRefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "token_refresh_duration_seconds",
				Help:      "Time taken to fetch a token",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scope"},
		),
		TokenInvalidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_invalidations_total",
				Help:      "Total number of cached tokens invalidated after an authentication failure",
			},
			[]string{"scope"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of logical API requests by outcome",
			},
			[]string{"method", "result"}, // result: success or the failure category
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time taken by a logical API request including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RequestAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_attempts",
				Help:      "Number of attempts made per logical API request",
				Buckets:   []float64{1, 2, 3, 4, 5, 10},
			},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retries by failure category",
			},
			[]string{"category"},
		),
		RetryDelay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retry_delay_seconds",
				Help:      "Wait applied before a retry",
				Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 16, 30, 60, 120},
			},
			[]string{"category"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Current number of API calls holding a concurrency permit",
			},
		),
		ConcurrencyWaitSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "concurrency_wait_seconds",
				Help:      "Time spent waiting for a concurrency permit",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// RecordTokenCacheLookup records a cache hit or miss.
func (m *Metrics) RecordTokenCacheLookup(scope string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TokenCacheLookupsTotal.WithLabelValues(scope, result).Inc()
}

// RecordTokenRefresh records one token fetch.
func (m *Metrics) RecordTokenRefresh(scope string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	m.TokenRefreshesTotal.WithLabelValues(scope, result).Inc()
	m.TokenRefreshDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordTokenInvalidation records a forced invalidation.
func (m *Metrics) RecordTokenInvalidation(scope string) {
	m.TokenInvalidationsTotal.WithLabelValues(scope).Inc()
}

// RecordRequest records a terminal outcome.
func (m *Metrics) RecordRequest(method, result string, attempts int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, result).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.RequestAttempts.Observe(float64(attempts))
}

// RecordRetry records a retry decision.
func (m *Metrics) RecordRetry(category string, delay time.Duration) {
	m.RetriesTotal.WithLabelValues(category).Inc()
	m.RetryDelay.WithLabelValues(category).Observe(delay.Seconds())
}

// IncRequestsInFlight increments the in-flight gauge.
func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

// DecRequestsInFlight decrements the in-flight gauge.
func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}

// RecordConcurrencyWait records the time spent acquiring a permit.
func (m *Metrics) RecordConcurrencyWait(duration time.Duration) {
	m.ConcurrencyWaitSeconds.Observe(duration.Seconds())
}
