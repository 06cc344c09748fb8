// concurrency/semaphore.go
/* package provides utilities to manage concurrency control. The Concurrency Manager
ensures no more than a certain number of concurrent requests are sent to the open
platform at the same time. This is managed using a semaphore */
package concurrency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcquireConcurrencyPermit acquires a permit to regulate the number of concurrent
// operations. It generates a unique request ID for tracking and waits until a permit
// is free, ctx is done or the acquire timeout passes, whichever comes first.
//
// The returned context carries the request ID under RequestIDKey. Every successful
// call must be paired with ReleaseConcurrencyPermit.
//
// Example:
//
//	ctx, requestID, err := concurrencyHandler.AcquireConcurrencyPermit(ctx)
//	if err != nil {
//	    // Handle permit acquisition failure
//	}
//	defer concurrencyHandler.ReleaseConcurrencyPermit(requestID)
func (ch *ConcurrencyHandler) AcquireConcurrencyPermit(ctx context.Context) (context.Context, uuid.UUID, error) {
	log := ch.logger

	acquisitionStart := time.Now()
	requestID := uuid.New()

	ch.lock.Lock()
	timeout := ch.acquireTimeout
	ch.lock.Unlock()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case ch.sem <- struct{}{}:
		acquisitionDuration := time.Since(acquisitionStart)

		ch.lock.Lock()
		ch.lastAcquired = time.Now()
		ch.lock.Unlock()
		ch.Metrics.recordAcquisition(acquisitionDuration)
		ch.recorder.RecordConcurrencyWait(acquisitionDuration)
		ch.recorder.IncRequestsInFlight()

		utilizedPermits := len(ch.sem)
		log.Debug("Acquired concurrency permit",
			zap.String("request_id", requestID.String()),
			zap.Duration("acquisition_time", acquisitionDuration),
			zap.Int("utilized_permits", utilizedPermits),
			zap.Int("available_permits", cap(ch.sem)-utilizedPermits),
		)

		return context.WithValue(ctx, RequestIDKey{}, requestID), requestID, nil

	case <-waitCtx.Done():
		log.Warn("Failed to acquire concurrency permit", zap.String("request_id", requestID.String()), zap.Error(waitCtx.Err()))
		return ctx, requestID, fmt.Errorf("failed to acquire concurrency permit: %w", waitCtx.Err())
	}
}

// ReleaseConcurrencyPermit returns a permit to the semaphore pool, allowing other
// operations to proceed. The requestID is used for structured logging only.
func (ch *ConcurrencyHandler) ReleaseConcurrencyPermit(requestID uuid.UUID) {
	<-ch.sem
	ch.recorder.DecRequestsInFlight()

	utilizedPermits := len(ch.sem)
	ch.logger.Debug("Released concurrency permit",
		zap.String("request_id", requestID.String()),
		zap.Int("utilized_permits", utilizedPermits),
		zap.Int("available_permits", cap(ch.sem)-utilizedPermits),
	)
}
