// retrypolicy/retrypolicy.go
// Package retrypolicy decides, per logical request, whether a classified
// failure is retried, how long to wait and whether the token used in the
// failed attempt has to be invalidated first.
package retrypolicy

import (
	"errors"
	"fmt"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/ratehandler"
)

const (
	DefaultMaxAttempts    = 3
	DefaultMaxAuthRetries = 1
	DefaultMaxDelay       = 30 * time.Second
)

// ErrInvalidTransition is returned when an Execution is driven out of order.
var ErrInvalidTransition = errors.New("retrypolicy: invalid state transition")

// State of a logical request.
type State int

const (
	StatePending State = iota
	StateExecuting
	StateClassifying
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateExecuting:
		return "Executing"
	case StateClassifying:
		return "Classifying"
	case StateRetrying:
		return "Retrying"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Policy holds the limits shared by every Execution it creates. The zero
// value is usable and picks the defaults.
type Policy struct {
	// MaxAttempts counts every attempt including the first.
	MaxAttempts int
	// MaxAuthRetries bounds retries after an Authentication failure.
	MaxAuthRetries int
	// MaxDelay caps the growing Server and Network delays. RateLimit delays are never capped.
	MaxDelay time.Duration
	// Backoff returns the wait before retry n (0 based) when the failure carries no suggested delay.
	Backoff func(retry int) time.Duration
}

// DefaultPolicy returns a Policy with the package defaults.
func DefaultPolicy() Policy {
	return Policy{}.withDefaults()
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.MaxAuthRetries <= 0 {
		p.MaxAuthRetries = DefaultMaxAuthRetries
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Backoff == nil {
		p.Backoff = ratehandler.CalculateBackoff
	}
	return p
}

// NewExecution starts tracking one logical request. A positive
// maxAttemptsOverride replaces the policy's MaxAttempts for this request.
func (p Policy) NewExecution(maxAttemptsOverride int) *Execution {
	p = p.withDefaults()
	if maxAttemptsOverride > 0 {
		p.MaxAttempts = maxAttemptsOverride
	}
	return &Execution{policy: p, state: StatePending}
}

// Decision is the outcome of classifying one failed attempt.
type Decision struct {
	Retry           bool
	Delay           time.Duration
	InvalidateToken bool
	Code            errorcode.ErrorCode
	Reason          string
}

// Execution is the state machine of one logical request. It is not safe
// for concurrent use; a logical request is driven by one goroutine.
type Execution struct {
	policy      Policy
	state       State
	attempts    int
	authRetries int
	last        *errorcode.ErrorCode
}

// State returns the current state.
func (e *Execution) State() State { return e.state }

// Attempts returns the number of attempts started so far.
func (e *Execution) Attempts() int { return e.attempts }

// MaxAttempts returns the effective attempt limit.
func (e *Execution) MaxAttempts() int { return e.policy.MaxAttempts }

// LastCode returns the classification of the most recent failure.
func (e *Execution) LastCode() (errorcode.ErrorCode, bool) {
	if e.last == nil {
		return errorcode.ErrorCode{}, false
	}
	return *e.last, true
}

// Begin moves Pending or Retrying to Executing and returns the 1 based
// attempt number.
func (e *Execution) Begin() (int, error) {
	if e.state != StatePending && e.state != StateRetrying {
		return e.attempts, fmt.Errorf("%w: begin from %s", ErrInvalidTransition, e.state)
	}
	e.attempts++
	e.state = StateExecuting
	return e.attempts, nil
}

// Succeed moves Executing to Succeeded.
func (e *Execution) Succeed() error {
	if e.state != StateExecuting {
		return fmt.Errorf("%w: succeed from %s", ErrInvalidTransition, e.state)
	}
	e.state = StateSucceeded
	return nil
}

// Abort moves any non terminal state to Failed without a retry decision.
// Used when the caller's context ends.
func (e *Execution) Abort(code errorcode.ErrorCode) {
	if e.state.Terminal() {
		return
	}
	e.last = &code
	e.state = StateFailed
}

// Fail classifies a failed attempt and moves to Retrying or Failed.
// serverHint is the wait requested by the server, 0 if none.
func (e *Execution) Fail(code errorcode.ErrorCode, serverHint time.Duration) (Decision, error) {
	if e.state != StateExecuting {
		return Decision{Code: code}, fmt.Errorf("%w: fail from %s", ErrInvalidTransition, e.state)
	}
	e.state = StateClassifying
	e.last = &code

	decision := e.decide(code, serverHint)
	if decision.Retry {
		e.state = StateRetrying
	} else {
		e.state = StateFailed
	}
	return decision, nil
}

func (e *Execution) decide(code errorcode.ErrorCode, serverHint time.Duration) Decision {
	d := Decision{Code: code}

	if !code.Retryable {
		d.Reason = "not retryable"
		return d
	}
	if e.attempts >= e.policy.MaxAttempts {
		d.Reason = fmt.Sprintf("max attempts (%d) reached", e.policy.MaxAttempts)
		return d
	}

	switch code.Category {
	case errorcode.CategoryAuthentication:
		if !code.InvalidatesToken {
			d.Reason = "authentication failure without a stale token"
			return d
		}
		if e.authRetries >= e.policy.MaxAuthRetries {
			d.Reason = "authentication retry already spent"
			return d
		}
		e.authRetries++
		d.InvalidateToken = true
		d.Delay = e.suggestedOrBackoff(code)

	case errorcode.CategoryRateLimit:
		d.Delay = code.SuggestedDelay
		if serverHint > d.Delay {
			d.Delay = serverHint
		}
		if d.Delay <= 0 {
			d.Delay = e.policy.Backoff(e.attempts - 1)
		}

	default:
		d.Delay = e.growingDelay(code)
		if serverHint > d.Delay {
			d.Delay = serverHint
		}
	}

	d.Retry = true
	d.Reason = code.Category.String()
	return d
}

func (e *Execution) suggestedOrBackoff(code errorcode.ErrorCode) time.Duration {
	if code.SuggestedDelay > 0 {
		return code.SuggestedDelay
	}
	return e.capped(e.policy.Backoff(e.attempts - 1))
}

// growingDelay returns suggested × 2^(n-1) for the n-th attempt, capped.
func (e *Execution) growingDelay(code errorcode.ErrorCode) time.Duration {
	if code.SuggestedDelay <= 0 {
		return e.capped(e.policy.Backoff(e.attempts - 1))
	}
	delay := code.SuggestedDelay
	for i := 1; i < e.attempts; i++ {
		delay *= 2
		if delay >= e.policy.MaxDelay {
			return e.policy.MaxDelay
		}
	}
	return e.capped(delay)
}

func (e *Execution) capped(d time.Duration) time.Duration {
	if d > e.policy.MaxDelay {
		return e.policy.MaxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}
