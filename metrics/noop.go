// metrics/noop.go
package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordTokenCacheLookup(scope string, hit bool)                             {}
func (n *NoopMetrics) RecordTokenRefresh(scope string, success bool, duration time.Duration)     {}
func (n *NoopMetrics) RecordTokenInvalidation(scope string)                                      {}
func (n *NoopMetrics) RecordRequest(method, result string, attempts int, duration time.Duration) {}
func (n *NoopMetrics) RecordRetry(category string, delay time.Duration)                          {}
func (n *NoopMetrics) IncRequestsInFlight()                                                      {}
func (n *NoopMetrics) DecRequestsInFlight()                                                      {}
func (n *NoopMetrics) RecordConcurrencyWait(duration time.Duration)                              {}
