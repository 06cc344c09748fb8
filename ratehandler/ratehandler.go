// ratehandler/ratehandler.go

/*
Components:

Backoff Strategy: An exponential backoff with jitter, used when a failure carries
no suggested delay of its own. The delay doubles with each retry and is capped at
maxDelay.

Header Parsing: Extracts the server's retry hint from rate-limit responses. The
open platform gateway sends x-ogw-ratelimit-reset (seconds until the window
resets); standard Retry-After (seconds or HTTP date) and X-RateLimit-Reset (unix
time) are honoured as well. The hint is a floor for the retry policy, never a
ceiling.
*/

package ratehandler

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"go.uber.org/zap"
)

// Constants for exponential backoff with jitter
const (
	baseDelay    = 1 * time.Second  // Initial delay
	maxDelay     = 60 * time.Second // Maximum delay
	jitterFactor = 0.5              // Random jitter factor
	skewBuffer   = 5 * time.Second  // Added to absolute reset times to absorb clock skew
)

// Rate limit headers
const (
	HeaderRetryAfter         = "Retry-After"
	HeaderOGWRateLimitReset  = "X-Ogw-Ratelimit-Reset"
	HeaderOGWRateLimitLimit  = "X-Ogw-Ratelimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// CalculateBackoff calculates the next delay for retry with exponential backoff and jitter.
// The baseDelay is the initial delay duration, which is exponentially increased on each retry.
// The jitterFactor adds randomness to the delay to avoid simultaneous retries (thundering herd problem).
// The delay is capped at maxDelay to prevent excessive wait times.
func CalculateBackoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0 // Ensure non-negative retry count
	}

	backoff := float64(baseDelay) * math.Pow(2, float64(retry))
	jitter := (rand.Float64() - 0.5) * 2 * jitterFactor * backoff // Random value in [-jitterFactor*backoff, +jitterFactor*backoff]

	delay := backoff + jitter
	if delay >= float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delay)
}

// MaxDelay returns the cap applied by CalculateBackoff.
func MaxDelay() time.Duration {
	return maxDelay
}

// ParseRateLimitHeaders returns the wait suggested by the response headers,
// or 0 when there is no usable hint.
func ParseRateLimitHeaders(resp *http.Response, log logger.Logger) time.Duration {
	if resp == nil {
		return 0
	}
	return ParseRateLimitHeadersAt(resp.Header, time.Now(), log)
}

// ParseRateLimitHeadersAt is ParseRateLimitHeaders evaluated at now. The
// longest hint wins.
func ParseRateLimitHeadersAt(header http.Header, now time.Time, log logger.Logger) time.Duration {
	var wait time.Duration

	// Check for the Retry-After header
	if retryAfter := header.Get(HeaderRetryAfter); retryAfter != "" {
		if d, ok := parseRetryAfter(retryAfter, now); ok {
			log.Debug("Retry-After header present", zap.String("retry_after", retryAfter), zap.Duration("wait", d))
			wait = maxDuration(wait, d)
		}
	}

	// Gateway reset counter, in seconds
	if reset := header.Get(HeaderOGWRateLimitReset); reset != "" {
		if seconds, err := strconv.ParseInt(reset, 10, 64); err == nil && seconds > 0 {
			d := time.Duration(seconds) * time.Second
			log.Debug("Gateway rate limit reset header present",
				zap.String("reset", reset),
				zap.String("limit", header.Get(HeaderOGWRateLimitLimit)),
				zap.Duration("wait", d))
			wait = maxDuration(wait, d)
		}
	}

	// Absolute reset time, only meaningful once the window is exhausted
	if header.Get(HeaderRateLimitRemaining) == "0" {
		if reset := header.Get(HeaderRateLimitReset); reset != "" {
			if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
				d := time.Unix(epoch, 0).Sub(now) + skewBuffer
				if d > 0 {
					log.Debug("X-RateLimit-Reset header present", zap.String("reset", reset), zap.Duration("wait", d))
					wait = maxDuration(wait, d)
				}
			}
		}
	}

	return wait
}

// RetryAfterString returns the raw hint for logging.
func RetryAfterString(header http.Header) string {
	if v := header.Get(HeaderRetryAfter); v != "" {
		return v
	}
	return header.Get(HeaderOGWRateLimitReset)
}

func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if date, err := http.ParseTime(value); err == nil {
		d := date.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
