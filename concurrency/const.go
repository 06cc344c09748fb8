// concurrency/const.go
package concurrency

import "time"

const (
	// DefaultMaxConcurrentRequests is the permit count when the client config leaves it unset.
	DefaultMaxConcurrentRequests = 5

	// MaxConcurrency represents the maximum allowed concurrent requests.
	MaxConcurrency = 50

	// MinConcurrency represents the minimum allowed concurrent requests.
	MinConcurrency = 1

	// DefaultAcquireTimeout bounds the wait for a permit on top of the caller's context.
	DefaultAcquireTimeout = 10 * time.Second
)
