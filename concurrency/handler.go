// concurrency/handler.go
package concurrency

import (
	"context"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
	"github.com/google/uuid"
)

// ConcurrencyHandler controls the number of concurrent HTTP requests.
type ConcurrencyHandler struct {
	sem            chan struct{}
	logger         logger.Logger
	recorder       metrics.Recorder
	acquireTimeout time.Duration
	lock           sync.Mutex
	lastAcquired   time.Time
	Metrics        *ConcurrencyMetrics
}

// NewConcurrencyHandler initializes a new ConcurrencyHandler with the given
// concurrency limit, logger, and metrics recorder. The limit is clamped to
// [MinConcurrency, MaxConcurrency]. A nil recorder disables Prometheus metrics.
func NewConcurrencyHandler(limit int, log logger.Logger, recorder metrics.Recorder) *ConcurrencyHandler {
	if limit < MinConcurrency {
		limit = MinConcurrency
	}
	if limit > MaxConcurrency {
		limit = MaxConcurrency
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if recorder == nil {
		recorder = metrics.NewNoopMetrics()
	}
	return &ConcurrencyHandler{
		sem:            make(chan struct{}, limit),
		logger:         log,
		recorder:       recorder,
		acquireTimeout: DefaultAcquireTimeout,
		Metrics:        &ConcurrencyMetrics{},
	}
}

// SetAcquireTimeout changes the permit wait bound. Zero waits on the caller's context only.
func (ch *ConcurrencyHandler) SetAcquireTimeout(d time.Duration) {
	ch.lock.Lock()
	defer ch.lock.Unlock()
	ch.acquireTimeout = d
}

// Limit returns the number of permits.
func (ch *ConcurrencyHandler) Limit() int {
	return cap(ch.sem)
}

// InUse returns the number of permits currently held.
func (ch *ConcurrencyHandler) InUse() int {
	return len(ch.sem)
}

// RequestIDKey is type used as a key for storing and retrieving
// request-specific identifiers from a context.Context object. The value
// associated with this key is the uuid.UUID of the permit held by the
// request, which is also sent as the X-Request-Id header.
type RequestIDKey struct{}

// RequestIDFromContext returns the request id stored by AcquireConcurrencyPermit.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(uuid.UUID)
	return id, ok
}
