// concurrency/metrics.go
package concurrency

import (
	"sync"
	"time"
)

// ConcurrencyMetrics captures counters about the client's interactions with the API.
type ConcurrencyMetrics struct {
	TotalRequests        int64         // Total number of permits granted
	TotalRetries         int64         // Total number of retry attempts
	TotalRateLimitErrors int64         // Total number of rate limit errors encountered
	PermitWaitTime       time.Duration // Total time spent waiting for permits
	Lock                 sync.Mutex    // Lock for all fields
}

// ConcurrencyStats is a point in time copy of ConcurrencyMetrics.
type ConcurrencyStats struct {
	TotalRequests        int64
	TotalRetries         int64
	TotalRateLimitErrors int64
	PermitWaitTime       time.Duration
	AveragePermitWait    time.Duration
}

func (m *ConcurrencyMetrics) recordAcquisition(wait time.Duration) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.TotalRequests++
	m.PermitWaitTime += wait
}

// RecordRetry counts one retry attempt.
func (m *ConcurrencyMetrics) RecordRetry() {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.TotalRetries++
}

// RecordRateLimitError counts one rate limited response.
func (m *ConcurrencyMetrics) RecordRateLimitError() {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.TotalRateLimitErrors++
}

// Snapshot returns a copy of the counters.
func (m *ConcurrencyMetrics) Snapshot() ConcurrencyStats {
	m.Lock.Lock()
	defer m.Lock.Unlock()

	stats := ConcurrencyStats{
		TotalRequests:        m.TotalRequests,
		TotalRetries:         m.TotalRetries,
		TotalRateLimitErrors: m.TotalRateLimitErrors,
		PermitWaitTime:       m.PermitWaitTime,
	}
	if m.TotalRequests > 0 {
		stats.AveragePermitWait = m.PermitWaitTime / time.Duration(m.TotalRequests)
	}
	return stats
}
