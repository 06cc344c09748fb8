// httpclient/options.go
package httpclient

import (
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/internal/clock"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
)

// Option customises a Client beyond what ClientConfig expresses.
type Option func(*clientOptions)

type clientOptions struct {
	transport authenticationhandler.Doer
	clock     clock.Clock
	metrics   metrics.Recorder
	tickets   authenticationhandler.AppTicketSource
	logger    logger.Logger
	onRotated func(userID, refreshToken string)
	backoff   func(retry int) time.Duration
}

// WithTransport sends token exchanges and API calls through doer instead of
// the internal http.Client.
func WithTransport(doer authenticationhandler.Doer) Option {
	return func(o *clientOptions) { o.transport = doer }
}

// WithClock replaces the wall clock used for token expiry and backoff sleeps.
func WithClock(c clock.Clock) Option {
	return func(o *clientOptions) { o.clock = c }
}

// WithMetrics records client metrics on m, typically a *metrics.Metrics.
func WithMetrics(m metrics.Recorder) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithAppTicketSource supplies app tickets for marketplace apps.
func WithAppTicketSource(s authenticationhandler.AppTicketSource) Option {
	return func(o *clientOptions) { o.tickets = s }
}

// WithLogger uses log instead of building one from the log settings of the config.
func WithLogger(log logger.Logger) Option {
	return func(o *clientOptions) { o.logger = log }
}

// WithRefreshTokenHook is called when a user token exchange rotates the refresh token.
func WithRefreshTokenHook(fn func(userID, refreshToken string)) Option {
	return func(o *clientOptions) { o.onRotated = fn }
}

// WithBackoff replaces the jittered exponential backoff used when a failure
// carries no suggested delay.
func WithBackoff(fn func(retry int) time.Duration) Option {
	return func(o *clientOptions) { o.backoff = fn }
}
