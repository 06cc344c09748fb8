// httpclient/request.go
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/headers"
	"github.com/deploymenttheory/go-api-sdk-lark-core/ratehandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/response"
	"github.com/deploymenttheory/go-api-sdk-lark-core/retrypolicy"
	"go.uber.org/zap"
)

// RequestSpec describes one logical API call. Endpoint packages own it; the
// client only reads it.
type RequestSpec struct {
	Method      string
	Path        string // Path is relative to the credential's BaseURL, or an absolute URL.
	Query       url.Values
	Body        []byte
	ContentType string // ContentType defaults to JSON when Body is set.
	Headers     http.Header

	// Scopes lists the acceptable token scopes, first preferred. An empty
	// list sends the request without an Authorization header.
	Scopes []authenticationhandler.TokenScope

	// MaxAttempts overrides the client's MaxRetryAttempts when positive.
	MaxAttempts int
}

func (s RequestSpec) validate() error {
	if s.Method == "" {
		return errorcode.New(errorcode.CodeInvalidRequest, "request method is required")
	}
	if s.Path == "" {
		return errorcode.New(errorcode.CodeInvalidRequest, "request path is required")
	}
	if s.MaxAttempts < 0 {
		return errorcode.New(errorcode.CodeInvalidRequest, fmt.Sprintf("max attempts must not be negative, got %d", s.MaxAttempts))
	}
	return nil
}

// Failure is the terminal failure of a logical request.
type Failure struct {
	Code       errorcode.ErrorCode
	Message    string
	Attempts   int
	StatusCode int    // StatusCode of the last response, 0 when none was received.
	LogID      string // LogID is the platform log id of the last response.
	Err        error
}

// RequestOutcome is the terminal result of Execute. Exactly one of Payload
// and Failure is meaningful.
type RequestOutcome struct {
	Payload    []byte
	StatusCode int
	Header     http.Header
	Attempts   int
	Failure    *Failure
}

// Succeeded reports whether the request succeeded.
func (o RequestOutcome) Succeeded() bool {
	return o.Failure == nil
}

// Err returns the failure as an *errorcode.Error, nil on success.
func (o RequestOutcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return &errorcode.Error{
		Code:     o.Failure.Code,
		Message:  o.Failure.Message,
		Attempts: o.Failure.Attempts,
		Err:      o.Failure.Err,
	}
}

// attemptResult is what one attempt yields before the retry decision.
type attemptResult struct {
	payload    []byte
	statusCode int
	header     http.Header
	logID      string
	hint       time.Duration
	err        *errorcode.Error
}

// Execute runs spec until it succeeds or the retry policy gives up. Each
// attempt resolves a token from the cache, holds a concurrency permit while
// the call is in flight and classifies any failure. A business code in the
// response envelope takes precedence over the HTTP status.
//
// The returned outcome is terminal. Cancelling ctx aborts the current token
// fetch, API call or backoff sleep and yields a CodeCanceled failure.
func (c *Client) Execute(ctx context.Context, spec RequestSpec) RequestOutcome {
	start := c.clock.Now()

	if err := spec.validate(); err != nil {
		return c.failed(spec, start, 0, attemptResult{err: classified(err)})
	}

	execution := c.policy.NewExecution(spec.MaxAttempts)
	var last attemptResult

	for {
		if ctx.Err() != nil {
			return c.aborted(ctx, spec, start, execution, last)
		}

		attempt, err := execution.Begin()
		if err != nil {
			return c.failed(spec, start, execution.Attempts(), attemptResult{err: errorcode.Wrap(errorcode.CodeInvalidRequest, err, err.Error())})
		}

		scope, token, err := c.resolveToken(ctx, spec.Scopes)
		var result attemptResult
		if err != nil {
			result = attemptResult{err: classified(err)}
		} else {
			result = c.attempt(ctx, spec, token)
		}

		if result.err == nil {
			if err := execution.Succeed(); err != nil {
				c.Logger.Warn("Unexpected retry state on success", zap.Error(err))
			}
			return c.succeeded(spec, start, attempt, result)
		}

		last = result
		if ctx.Err() != nil {
			return c.aborted(ctx, spec, start, execution, last)
		}

		decision, err := execution.Fail(result.err.Code, result.hint)
		if err != nil {
			return c.failed(spec, start, attempt, attemptResult{err: errorcode.Wrap(errorcode.CodeInvalidRequest, err, err.Error())})
		}

		if decision.InvalidateToken && token.Value != "" {
			if c.Auth.Cache().InvalidateToken(scope, token.Value) {
				c.Logger.Info("Invalidated stale access token",
					zap.String("scope", scope.Key()),
					zap.Int("code", result.err.Code.Numeric),
				)
			}
		}

		if !decision.Retry {
			c.Logger.Debug("Request not retried", zap.String("reason", decision.Reason), zap.Int("attempt", attempt))
			return c.failed(spec, start, attempt, result)
		}

		c.logRetry(spec, attempt, decision, result)
		if err := c.clock.Sleep(ctx, decision.Delay); err != nil {
			return c.aborted(ctx, spec, start, execution, last)
		}
	}
}

// resolveToken tries scopes in order. A non-retryable failure falls through
// to the next scope; a retryable one is returned so the retry policy can act
// on it. The scope returned is the one the token, or the error, belongs to.
func (c *Client) resolveToken(ctx context.Context, scopes []authenticationhandler.TokenScope) (authenticationhandler.TokenScope, authenticationhandler.Token, error) {
	if len(scopes) == 0 {
		return authenticationhandler.TokenScope{}, authenticationhandler.Token{}, nil
	}

	var lastErr error
	for i, scope := range scopes {
		token, err := c.Auth.Cache().GetOrRefresh(ctx, scope)
		if err == nil {
			return scope, token, nil
		}
		lastErr = err

		if ctx.Err() != nil || errorcode.CodeOf(err).Retryable {
			return scope, authenticationhandler.Token{}, err
		}
		if i < len(scopes)-1 {
			c.Logger.Warn("Token scope unavailable, trying next scope",
				zap.String("scope", scope.Key()),
				zap.String("next_scope", scopes[i+1].Key()),
				zap.Error(err),
			)
		}
	}
	return scopes[len(scopes)-1], authenticationhandler.Token{}, lastErr
}

// attempt performs one HTTP call with token.
func (c *Client) attempt(ctx context.Context, spec RequestSpec, token authenticationhandler.Token) attemptResult {
	log := c.Logger

	ctx, requestID, err := c.Concurrency.AcquireConcurrencyPermit(ctx)
	if err != nil {
		return attemptResult{err: errorcode.Wrap(errorcode.CodeNetworkTimeout, err, "timed out waiting for a concurrency permit")}
	}
	defer c.Concurrency.ReleaseConcurrencyPermit(requestID)

	requestURL := c.buildURL(spec)

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(ctx, spec.Method, requestURL, body)
	if err != nil {
		return attemptResult{err: errorcode.Wrap(errorcode.CodeInvalidRequest, err, "failed to build request")}
	}

	contentType := spec.ContentType
	if contentType == "" && len(spec.Body) > 0 {
		contentType = headers.ContentTypeJSON
	}
	headerHandler := headers.NewHeaderHandler(req, log)
	headerHandler.SetStandardHeaders(contentType)
	headerHandler.SetCustomHeaders(spec.Headers)
	if token.Value != "" {
		headerHandler.SetAuthorization(token.Value)
	}
	headerHandler.SetRequestID(requestID.String())
	log.LogRequestStart("api_request", requestID.String(), spec.Method, requestURL, headerHandler.RedactedHeaders(c.config.HideSensitiveData))

	sent := c.clock.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		return attemptResult{err: errorcode.FromTransport(err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{statusCode: resp.StatusCode, header: resp.Header, err: errorcode.FromTransport(err)}
	}
	log.LogRequestEnd("api_request", spec.Method, requestURL, resp.StatusCode, c.clock.Now().Sub(sent))
	headers.CheckDeprecationHeader(resp, log)

	result := attemptResult{
		payload:    bodyBytes,
		statusCode: resp.StatusCode,
		header:     resp.Header,
		logID:      headers.LogID(resp),
	}

	env, isEnvelope := response.ParseEnvelope(bodyBytes)
	switch {
	case isEnvelope && env.Failed():
		apiErr := response.HandleAPIErrorResponse(resp, bodyBytes, log)
		result.err = errorcode.Wrap(errorcode.ResponseCode(resp.StatusCode, env.BusinessCode()), apiErr, apiErr.Message)
		if apiErr.LogID != "" {
			result.logID = apiErr.LogID
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		apiErr := response.HandleAPIErrorResponse(resp, bodyBytes, log)
		result.err = errorcode.Wrap(resp.StatusCode, apiErr, apiErr.Message)
	default:
		return result
	}

	result.hint = ratehandler.ParseRateLimitHeadersAt(resp.Header, c.clock.Now(), log)
	return result
}

// buildURL joins the base URL, spec.Path and spec.Query.
func (c *Client) buildURL(spec RequestSpec) string {
	requestURL := spec.Path
	if !strings.HasPrefix(requestURL, "http://") && !strings.HasPrefix(requestURL, "https://") {
		requestURL = c.Auth.Credential.BaseURL + "/" + strings.TrimLeft(requestURL, "/")
	}
	if len(spec.Query) > 0 {
		separator := "?"
		if strings.Contains(requestURL, "?") {
			separator = "&"
		}
		requestURL += separator + spec.Query.Encode()
	}
	return requestURL
}

func (c *Client) logRetry(spec RequestSpec, attempt int, decision retrypolicy.Decision, result attemptResult) {
	c.Concurrency.Metrics.RecordRetry()
	c.metrics.RecordRetry(decision.Code.Category.String(), decision.Delay)

	if decision.Code.Category == errorcode.CategoryRateLimit {
		c.Concurrency.Metrics.RecordRateLimitError()
		c.Logger.LogRateLimiting("api_rate_limited", spec.Method, spec.Path, ratehandler.RetryAfterString(result.header), decision.Delay)
	}
	c.Logger.LogRetryAttempt("api_retry", spec.Method, spec.Path, attempt, decision.Reason, decision.Delay, result.err)
}

func (c *Client) succeeded(spec RequestSpec, start time.Time, attempts int, result attemptResult) RequestOutcome {
	c.metrics.RecordRequest(spec.Method, "success", attempts, c.clock.Now().Sub(start))
	return RequestOutcome{
		Payload:    result.payload,
		StatusCode: result.statusCode,
		Header:     result.header,
		Attempts:   attempts,
	}
}

func (c *Client) failed(spec RequestSpec, start time.Time, attempts int, result attemptResult) RequestOutcome {
	c.metrics.RecordRequest(spec.Method, "failure", attempts, c.clock.Now().Sub(start))

	e := result.err
	c.Logger.LogError("api_request_failed", spec.Method, spec.Path, result.statusCode, failureMessage(e), e, string(result.payload))
	c.Logger.Debug("Request failure classified", e.Code.Fields()...)

	return RequestOutcome{
		StatusCode: result.statusCode,
		Header:     result.header,
		Attempts:   attempts,
		Failure: &Failure{
			Code:       e.Code,
			Message:    failureMessage(e),
			Attempts:   attempts,
			StatusCode: result.statusCode,
			LogID:      result.logID,
			Err:        e.Err,
		},
	}
}

func (c *Client) aborted(ctx context.Context, spec RequestSpec, start time.Time, execution *retrypolicy.Execution, last attemptResult) RequestOutcome {
	code := errorcode.Classify(errorcode.CodeCanceled)
	execution.Abort(code)
	c.metrics.RecordRequest(spec.Method, "canceled", execution.Attempts(), c.clock.Now().Sub(start))
	c.Logger.Info("Request cancelled",
		zap.String("method", spec.Method),
		zap.String("path", spec.Path),
		zap.Int("attempts", execution.Attempts()),
		zap.Error(ctx.Err()),
	)

	return RequestOutcome{
		StatusCode: last.statusCode,
		Header:     last.header,
		Attempts:   execution.Attempts(),
		Failure: &Failure{
			Code:       code,
			Message:    ctx.Err().Error(),
			Attempts:   execution.Attempts(),
			StatusCode: last.statusCode,
			LogID:      last.logID,
			Err:        ctx.Err(),
		},
	}
}

// classified returns err as an *errorcode.Error, treating unclassified
// errors as transport failures.
func classified(err error) *errorcode.Error {
	if e, ok := errorcode.AsError(err); ok {
		return e
	}
	return errorcode.FromTransport(err)
}

func failureMessage(e *errorcode.Error) string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Description
}
