// authenticationhandler/tokenmanager.go
package authenticationhandler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/internal/clock"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSafetyMargin is how long before expiry a cached token stops being handed out.
	DefaultSafetyMargin = 5 * time.Minute
	// DefaultFetchTimeout bounds one token exchange.
	DefaultFetchTimeout = 30 * time.Second
)

// CacheConfig configures a TokenCache.
type CacheConfig struct {
	Enabled      bool
	SafetyMargin time.Duration
	FetchTimeout time.Duration
	Clock        clock.Clock
	Logger       logger.Logger
	Metrics      metrics.Recorder
}

// TokenCache is a concurrent, expiring store of access tokens keyed by
// scope. Misses for one key are collapsed into a single provider call.
type TokenCache struct {
	provider     TokenProvider
	enabled      bool
	safetyMargin time.Duration
	fetchTimeout time.Duration
	clock        clock.Clock
	logger       logger.Logger
	metrics      metrics.Recorder

	group singleflight.Group

	mu          sync.Mutex // mu guards entries and generations. It is never held across a fetch.
	entries     map[string]Token
	generations map[string]uint64
}

// NewTokenCache creates a TokenCache in front of provider.
func NewTokenCache(provider TokenProvider, cfg CacheConfig) *TokenCache {
	if cfg.SafetyMargin < 0 {
		cfg.SafetyMargin = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopMetrics()
	}

	return &TokenCache{
		provider:     provider,
		enabled:      cfg.Enabled,
		safetyMargin: cfg.SafetyMargin,
		fetchTimeout: cfg.FetchTimeout,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		entries:      make(map[string]Token),
		generations:  make(map[string]uint64),
	}
}

// Enabled reports whether tokens are stored.
func (c *TokenCache) Enabled() bool {
	return c.enabled
}

// SafetyMargin returns the refresh cushion.
func (c *TokenCache) SafetyMargin() time.Duration {
	return c.safetyMargin
}

// GetOrRefresh returns a token for scope. A cached token is returned while
// it is outside the safety margin; otherwise one refresh per key runs and
// every concurrent caller for that key receives its result.
//
// The shared refresh is detached from ctx. A caller whose ctx ends stops
// waiting with CodeCanceled while the refresh completes for the others.
func (c *TokenCache) GetOrRefresh(ctx context.Context, scope TokenScope) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, canceled(err)
	}

	kind := string(scope.Kind)
	key := scope.Key()

	if !c.enabled {
		c.metrics.RecordTokenCacheLookup(kind, false)
		fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
		return c.fetch(fctx, scope)
	}

	c.mu.Lock()
	if tok, ok := c.validLocked(key); ok {
		c.mu.Unlock()
		c.metrics.RecordTokenCacheLookup(kind, true)
		return tok, nil
	}
	gen := c.generations[key]
	c.mu.Unlock()

	c.metrics.RecordTokenCacheLookup(kind, false)

	// At most one flight per key runs at a time. A flight that started
	// before an invalidation seen by this caller is waited out, then
	// replaced by a new one.
	for {
		ch := c.group.DoChan(key, func() (interface{}, error) {
			return c.refresh(ctx, scope)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return Token{}, canceled(ctx.Err())
		case res = <-ch:
		}

		flight := res.Val.(flightResult)
		if flight.gen < gen {
			continue
		}
		if res.Err != nil {
			return Token{}, res.Err
		}
		return flight.token, nil
	}
}

// flightResult is what one shared refresh hands to its waiters.
type flightResult struct {
	token Token
	gen   uint64
}

// refresh runs inside a flight. It is detached from the cancellation of the
// caller that started it.
func (c *TokenCache) refresh(ctx context.Context, scope TokenScope) (flightResult, error) {
	key := scope.Key()

	c.mu.Lock()
	gen := c.generations[key]
	if tok, ok := c.validLocked(key); ok {
		c.mu.Unlock()
		return flightResult{token: tok, gen: gen}, nil
	}
	c.mu.Unlock()

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	tok, err := c.fetch(fctx, scope)
	if err != nil {
		return flightResult{gen: gen}, err
	}

	c.mu.Lock()
	if c.generations[key] == gen {
		c.entries[key] = tok
	}
	c.mu.Unlock()
	return flightResult{token: tok, gen: gen}, nil
}

// Invalidate drops the entry for scope. A refresh that started before the
// call is not stored, and later readers wait for it to finish before
// starting their own.
func (c *TokenCache) Invalidate(scope TokenScope) {
	key := scope.Key()

	c.mu.Lock()
	delete(c.entries, key)
	c.generations[key]++
	c.mu.Unlock()

	c.metrics.RecordTokenInvalidation(string(scope.Kind))
	c.logger.Debug("Token invalidated", zap.String("scope", key))
}

// InvalidateToken drops the entry for scope only if it still holds value.
// It reports whether an entry was dropped. Many requests failing on the same
// stale token therefore cause one refresh.
func (c *TokenCache) InvalidateToken(scope TokenScope, value string) bool {
	key := scope.Key()

	c.mu.Lock()
	tok, ok := c.entries[key]
	if !ok || tok.Value != value {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, key)
	c.generations[key]++
	c.mu.Unlock()

	c.metrics.RecordTokenInvalidation(string(scope.Kind))
	c.logger.Debug("Stale token invalidated", zap.String("scope", key))
	return true
}

// Peek returns the stored entry for scope without refreshing it, even when
// it is inside the safety margin.
func (c *TokenCache) Peek(scope TokenScope) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.entries[scope.Key()]
	return tok, ok
}

// validLocked returns the entry for key if it may be handed out. c.mu must be held.
func (c *TokenCache) validLocked(key string) (Token, bool) {
	tok, ok := c.entries[key]
	if !ok || !tok.ValidAt(c.clock.Now(), c.safetyMargin) {
		return Token{}, false
	}
	return tok, true
}

// fetch calls the provider once and turns the result into a Token.
func (c *TokenCache) fetch(ctx context.Context, scope TokenScope) (Token, error) {
	key := scope.Key()
	start := c.clock.Now()

	fetched, err := c.provider.FetchToken(ctx, scope)
	if err == nil && fetched.ValidFor <= c.safetyMargin {
		err = errorcode.New(errorcode.CodeTokenLifetimeTooShort, fmt.Sprintf(
			"token lifetime %s does not exceed the refresh buffer period %s", fetched.ValidFor, c.safetyMargin))
	}
	if err != nil {
		if _, ok := errorcode.AsError(err); !ok {
			err = errorcode.FromTransport(err)
		}
	}

	now := c.clock.Now()
	duration := now.Sub(start)
	c.metrics.RecordTokenRefresh(string(scope.Kind), err == nil, duration)
	c.logger.LogTokenRefresh("token_refresh", key, duration, fetched.ValidFor, err)

	if err != nil {
		return Token{}, err
	}
	return Token{
		Value:     fetched.Value,
		IssuedAt:  now,
		ExpiresAt: now.Add(fetched.ValidFor),
		Scope:     scope.identity(),
	}, nil
}

func canceled(err error) error {
	return errorcode.Wrap(errorcode.CodeCanceled, err, err.Error())
}
