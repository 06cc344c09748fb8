// zaplogger_logfields.go
package logger

import (
	"time"

	"go.uber.org/zap"
)

// LogRequestStart logs the initiation of an API call, including the HTTP method, URL, and headers.
// Headers are expected to be redacted by the caller.
func (d *defaultLogger) LogRequestStart(event string, requestID string, method string, url string, headers map[string][]string) {
	if d.logLevel <= LogLevelDebug {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("url", url),
			zap.Any("headers", headers),
		}
		d.logger.Debug("HTTP request started", fields...)
	}
}

// LogRequestEnd logs the completion of an API call, including the HTTP method, URL, status code, and duration.
func (d *defaultLogger) LogRequestEnd(event string, method string, url string, statusCode int, duration time.Duration) {
	if d.logLevel <= LogLevelDebug {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		}
		d.logger.Debug("HTTP request completed", fields...)
	}
}

// LogError logs a terminal failure of an API call.
func (d *defaultLogger) LogError(event string, method string, url string, statusCode int, serverStatusMessage string, err error, rawResponse string) {
	if d.logLevel <= LogLevelError {
		errorMessage := ""
		if err != nil {
			errorMessage = err.Error()
		}

		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", statusCode),
			zap.String("status_message", serverStatusMessage),
			zap.String("error_message", errorMessage),
			zap.String("raw_response", rawResponse),
		}
		d.logger.Error("Error during HTTP request", fields...)
	}
}

// LogTokenRefresh logs the outcome of a token fetch for a cache key. A nil
// err is logged at Info, anything else at Warn.
func (d *defaultLogger) LogTokenRefresh(event string, scopeKey string, duration time.Duration, expiresIn time.Duration, err error) {
	fields := []zap.Field{
		zap.String("event", event),
		zap.String("scope", scopeKey),
		zap.Duration("duration", duration),
	}

	if err != nil {
		if d.logLevel <= LogLevelWarn {
			d.logger.Warn("Token refresh failed", append(fields, zap.Error(err))...)
		}
		return
	}

	if d.logLevel <= LogLevelInfo {
		d.logger.Info("Token refreshed", append(fields, zap.Duration("expires_in", expiresIn))...)
	}
}

// LogRetryAttempt logs a retry attempt for an API call, including the attempt number, the reason and the wait.
func (d *defaultLogger) LogRetryAttempt(event string, method string, url string, attempt int, reason string, waitDuration time.Duration, err error) {
	if d.logLevel <= LogLevelWarn {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.String("reason", reason),
			zap.Duration("wait_duration", waitDuration),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		d.logger.Warn("HTTP request retry", fields...)
	}
}

// LogRateLimiting logs when an API call is rate-limited, including the server's hint and the wait applied.
func (d *defaultLogger) LogRateLimiting(event string, method string, url string, retryAfter string, waitDuration time.Duration) {
	if d.logLevel <= LogLevelWarn {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("method", method),
			zap.String("url", url),
			zap.String("retry_after", retryAfter),
			zap.Duration("wait_duration", waitDuration),
		}
		d.logger.Warn("HTTP request rate-limited", fields...)
	}
}
