// errorcode.go
// Package errorcode maps HTTP statuses, Lark business codes and transport
// failures onto one semantic record that the retry policy acts on.
package errorcode

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTransientDelay is the suggested wait for Server and Network failures.
	DefaultTransientDelay = 2 * time.Second
	// DefaultRateLimitDelay is the minimum wait after a rate limit response.
	DefaultRateLimitDelay = 60 * time.Second
)

// Pseudo codes for failures that carry neither an HTTP status nor a business
// code. They are negative so they never collide with either space.
const (
	CodeNetworkTimeout           = -1
	CodeConnectionRefused        = -2
	CodeDNSFailure               = -3
	CodeTLSFailure               = -4
	CodeNetworkError             = -5
	CodeCanceled                 = -6
	CodeMissingUserAuthorization = -10
	CodeMissingAppTicket         = -11
	CodeTokenLifetimeTooShort    = -12
	CodeMalformedResponse        = -13
	CodeInvalidRequest           = -14
)

// Lark business codes with a fixed meaning in the classification table.
const (
	CodeInvalidAppID               = 10003
	CodeInvalidAppSecret           = 10014
	CodeInvalidAppTicket           = 10015
	CodeInvalidAuthorizationCode   = 20003
	CodeAuthorizationCodeExpired   = 20004
	CodeInvalidRefreshToken        = 20024
	CodeRequestRateLimited         = 99991400
	CodeNoPermissionForApp         = 99991401
	CodeInvalidAuthorizationHeader = 99991661
	CodeTenantAccessTokenInvalid   = 99991663
	CodeAppAccessTokenInvalid      = 99991664
	CodeUserAccessTokenInvalid     = 99991668
	CodeInvalidTokenFormat         = 99991671
	CodeAppScopeNotGranted         = 99991672
	CodeUserAccessTokenExpired     = 99991677
	CodeUserScopeNotGranted        = 99991679
)

const (
	helpCenterURL          = "https://open.feishu.cn/search?from=openapi&q=%d"
	httpStatusReferenceURL = "https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/%d"
)

// ErrorCode is the classified view of a numeric code. Values are immutable
// and freely shared.
type ErrorCode struct {
	Numeric          int
	Category         Category
	Severity         Severity
	Retryable        bool
	SuggestedDelay   time.Duration
	HelpRef          string
	Description      string
	InvalidatesToken bool
}

// Fields returns the diagnostics surface as zap fields.
func (c ErrorCode) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Int("code", c.Numeric),
		zap.String("category", c.Category.String()),
		zap.String("severity", c.Severity.String()),
		zap.String("description", c.Description),
		zap.Bool("retryable", c.Retryable),
	}
	if c.SuggestedDelay > 0 {
		fields = append(fields, zap.Duration("suggested_delay", c.SuggestedDelay))
	}
	if c.HelpRef != "" {
		fields = append(fields, zap.String("help_ref", c.HelpRef))
	}
	return fields
}

// String formats the code for error messages.
func (c ErrorCode) String() string {
	return fmt.Sprintf("%d (%s): %s", c.Numeric, c.Category, c.Description)
}

// Classify returns the record for code. It is total: any code not in the
// table is Other and not retryable.
func Classify(code int) ErrorCode {
	if ec, ok := table[code]; ok {
		return ec
	}

	ec := ErrorCode{
		Numeric:  code,
		Category: CategoryOther,
		Severity: SeverityError,
	}
	switch {
	case IsHTTPStatus(code):
		ec.Description = TranslateStatusCode(code)
		ec.HelpRef = fmt.Sprintf(httpStatusReferenceURL, code)
	case code > 0:
		ec.Description = fmt.Sprintf("Unrecognised business error code %d.", code)
		ec.HelpRef = fmt.Sprintf(helpCenterURL, code)
	default:
		ec.Description = fmt.Sprintf("Unrecognised error code %d.", code)
	}
	return ec
}

// Known reports whether code has its own entry in the classification table.
func Known(code int) bool {
	_, ok := table[code]
	return ok
}

// ResponseCode picks the code a failed response is classified by. The
// business code in the body wins unless the table does not know it while
// it knows the non-2xx HTTP status.
func ResponseCode(statusCode, businessCode int) int {
	if businessCode == 0 {
		return statusCode
	}
	if !IsSuccessStatus(statusCode) && !Known(businessCode) && Known(statusCode) {
		return statusCode
	}
	return businessCode
}

// IsAuthentication reports whether code is in the Authentication category.
func IsAuthentication(code int) bool {
	return Classify(code).Category == CategoryAuthentication
}

var table = buildTable()

func buildTable() map[int]ErrorCode {
	t := make(map[int]ErrorCode)

	httpCode := func(code int, category Category, severity Severity, retryable bool, delay time.Duration) {
		t[code] = ErrorCode{
			Numeric:        code,
			Category:       category,
			Severity:       severity,
			Retryable:      retryable,
			SuggestedDelay: delay,
			HelpRef:        fmt.Sprintf(httpStatusReferenceURL, code),
			Description:    TranslateStatusCode(code),
		}
	}
	businessCode := func(code int, category Category, severity Severity, retryable bool, delay time.Duration, description string) {
		t[code] = ErrorCode{
			Numeric:        code,
			Category:       category,
			Severity:       severity,
			Retryable:      retryable,
			SuggestedDelay: delay,
			HelpRef:        fmt.Sprintf(helpCenterURL, code),
			Description:    description,
		}
	}
	pseudoCode := func(code int, category Category, severity Severity, retryable bool, delay time.Duration, description string) {
		t[code] = ErrorCode{
			Numeric:        code,
			Category:       category,
			Severity:       severity,
			Retryable:      retryable,
			SuggestedDelay: delay,
			Description:    description,
		}
	}
	staleToken := func(code int) {
		ec := t[code]
		ec.Retryable = true
		ec.InvalidatesToken = true
		t[code] = ec
	}

	// HTTP statuses
	for _, code := range []int{400, 405, 411, 412, 413, 414, 415, 416, 417, 422, 431} {
		httpCode(code, CategoryParameter, SeverityError, false, 0)
	}
	for _, code := range []int{404, 409, 410, 423} {
		httpCode(code, CategoryResource, SeverityError, false, 0)
	}
	httpCode(401, CategoryAuthentication, SeverityError, false, 0)
	staleToken(401)
	httpCode(403, CategoryAuthentication, SeverityError, false, 0)
	httpCode(408, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay)
	httpCode(429, CategoryRateLimit, SeverityWarning, true, DefaultRateLimitDelay)
	for _, code := range []int{500, 502, 503, 504} {
		httpCode(code, CategoryServer, SeverityWarning, true, DefaultTransientDelay)
	}

	// Transport and client-side pseudo codes
	pseudoCode(CodeNetworkTimeout, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay, "Network timeout while waiting for the server.")
	pseudoCode(CodeConnectionRefused, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay, "Connection refused by the remote host.")
	pseudoCode(CodeDNSFailure, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay, "DNS lookup failed for the remote host.")
	pseudoCode(CodeTLSFailure, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay, "TLS handshake or certificate verification failed.")
	pseudoCode(CodeNetworkError, CategoryNetwork, SeverityWarning, true, DefaultTransientDelay, "Network error while sending the request.")
	pseudoCode(CodeCanceled, CategoryOther, SeverityInfo, false, 0, "Request cancelled or deadline exceeded by the caller.")
	pseudoCode(CodeMissingUserAuthorization, CategoryAuthentication, SeverityError, false, 0, "No authorization code or refresh token available for the user.")
	pseudoCode(CodeMissingAppTicket, CategoryAuthentication, SeverityError, false, 0, "No app_ticket available for the marketplace app.")
	pseudoCode(CodeTokenLifetimeTooShort, CategoryAuthentication, SeverityError, false, 0, "Issued token lifetime does not exceed the refresh buffer period.")
	pseudoCode(CodeMalformedResponse, CategoryOther, SeverityError, false, 0, "Response body could not be parsed.")
	pseudoCode(CodeInvalidRequest, CategoryParameter, SeverityError, false, 0, "The request is invalid and was not sent.")

	// Lark business codes: stale tokens, retried once after invalidation
	businessCode(CodeTenantAccessTokenInvalid, CategoryAuthentication, SeverityWarning, false, 0, "Invalid or expired tenant_access_token.")
	businessCode(CodeAppAccessTokenInvalid, CategoryAuthentication, SeverityWarning, false, 0, "Invalid or expired app_access_token.")
	businessCode(CodeUserAccessTokenInvalid, CategoryAuthentication, SeverityWarning, false, 0, "Invalid user_access_token.")
	businessCode(CodeUserAccessTokenExpired, CategoryAuthentication, SeverityWarning, false, 0, "Expired user_access_token.")
	for _, code := range []int{CodeTenantAccessTokenInvalid, CodeAppAccessTokenInvalid, CodeUserAccessTokenInvalid, CodeUserAccessTokenExpired} {
		staleToken(code)
	}

	// Lark business codes: credentials that cannot recover by retrying
	businessCode(CodeInvalidAppID, CategoryAuthentication, SeverityCritical, false, 0, "Invalid app_id.")
	businessCode(CodeInvalidAppSecret, CategoryAuthentication, SeverityCritical, false, 0, "Invalid app_secret.")
	businessCode(CodeInvalidAppTicket, CategoryAuthentication, SeverityCritical, false, 0, "Invalid app_ticket.")
	businessCode(CodeInvalidAuthorizationCode, CategoryAuthentication, SeverityCritical, false, 0, "Invalid authorization code.")
	businessCode(CodeAuthorizationCodeExpired, CategoryAuthentication, SeverityCritical, false, 0, "Authorization code expired.")
	businessCode(CodeInvalidRefreshToken, CategoryAuthentication, SeverityCritical, false, 0, "Invalid or expired refresh_token.")

	// Lark business codes: caller mistakes
	businessCode(CodeInvalidAuthorizationHeader, CategoryParameter, SeverityError, false, 0, "Missing or malformed Authorization header.")
	businessCode(CodeInvalidTokenFormat, CategoryParameter, SeverityError, false, 0, "Access token format is invalid.")
	businessCode(CodeAppScopeNotGranted, CategoryPermission, SeverityError, false, 0, "The app has not been granted the required API scope.")
	businessCode(CodeUserScopeNotGranted, CategoryPermission, SeverityError, false, 0, "The user has not granted the required scope.")
	businessCode(CodeNoPermissionForApp, CategoryPermission, SeverityError, false, 0, "The app has no permission for this tenant or resource.")

	businessCode(CodeRequestRateLimited, CategoryRateLimit, SeverityWarning, true, DefaultRateLimitDelay, "Request frequency limit triggered.")

	return t
}
