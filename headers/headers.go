// headers/headers.go
package headers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-api-sdk-lark-core/headers/redact"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/version"
	"go.uber.org/zap"
)

// Header names used by the open platform.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"
	HeaderRequestID     = "X-Request-Id"
	HeaderLogID         = "X-Tt-Logid"
	HeaderDeprecation   = "Deprecation"
)

// ContentTypeJSON is the content type of every JSON request body.
const ContentTypeJSON = "application/json; charset=utf-8"

// HeaderHandler is responsible for managing and setting headers on HTTP requests.
type HeaderHandler struct {
	req *http.Request // The http.Request for which headers are being managed
	log logger.Logger // The logger to use for logging headers
}

// NewHeaderHandler creates a new instance of HeaderHandler for a given http.Request and logger.
func NewHeaderHandler(req *http.Request, log logger.Logger) *HeaderHandler {
	return &HeaderHandler{
		req: req,
		log: log,
	}
}

// SetAuthorization sets the Authorization header for the request.
func (h *HeaderHandler) SetAuthorization(token string) {
	// Ensure the token is prefixed with "Bearer " only once
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	h.req.Header.Set(HeaderAuthorization, token)
}

// SetContentType sets the Content-Type header for the request.
func (h *HeaderHandler) SetContentType(contentType string) {
	h.req.Header.Set(HeaderContentType, contentType)
}

// SetAccept sets the Accept header for the request.
func (h *HeaderHandler) SetAccept(acceptHeader string) {
	h.req.Header.Set(HeaderAccept, acceptHeader)
}

// SetUserAgent sets the User-Agent header for the request.
func (h *HeaderHandler) SetUserAgent(userAgent string) {
	h.req.Header.Set(HeaderUserAgent, userAgent)
}

// SetRequestID sets the X-Request-Id header used to correlate client and server logs.
func (h *HeaderHandler) SetRequestID(requestID string) {
	if requestID != "" {
		h.req.Header.Set(HeaderRequestID, requestID)
	}
}

// SetStandardHeaders sets Accept, User-Agent and, when a body is present, Content-Type.
func (h *HeaderHandler) SetStandardHeaders(contentType string) {
	h.SetAccept("application/json")
	h.SetUserAgent(version.GetUserAgentHeader())
	if contentType != "" {
		h.SetContentType(contentType)
	}
}

// SetCustomHeaders copies caller supplied headers onto the request.
// Authorization is owned by the token pipeline and is never overwritten.
func (h *HeaderHandler) SetCustomHeaders(custom http.Header) {
	for name, values := range custom {
		if strings.EqualFold(name, HeaderAuthorization) {
			h.log.Warn("Ignoring caller supplied Authorization header")
			continue
		}
		h.req.Header.Del(name)
		for _, v := range values {
			h.req.Header.Add(name, v)
		}
	}
}

// RedactedHeaders returns a copy of the request headers with sensitive values redacted.
func (h *HeaderHandler) RedactedHeaders(hideSensitiveData bool) map[string][]string {
	redacted := make(map[string][]string, len(h.req.Header))
	for name, values := range h.req.Header {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = redact.RedactSensitiveHeaderData(hideSensitiveData, name, v)
		}
		redacted[name] = out
	}
	return redacted
}

// LogHeaders prints all the current headers in the http.Request using the zap logger.
// It uses the RedactSensitiveHeaderData function to redact sensitive data based on the hideSensitiveData flag.
func (h *HeaderHandler) LogHeaders(hideSensitiveData bool) {
	if h.log.GetLogLevel() <= logger.LogLevelDebug {
		headersStr := HeadersToString(h.RedactedHeaders(hideSensitiveData))
		h.log.Debug("HTTP Request Headers", zap.String("Headers", headersStr))
	}
}

// HeadersToString converts headers to a string for logging,
// with each header on a new line for readability and names in sorted order.
func HeadersToString(headers map[string][]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headerStrings := make([]string, 0, len(names))
	for _, name := range names {
		// Join all values for the header with a comma, as per HTTP standard
		headerStrings = append(headerStrings, fmt.Sprintf("%s: %s", name, strings.Join(headers[name], ", ")))
	}
	return strings.Join(headerStrings, "\n")
}

// CheckDeprecationHeader checks the response headers for the Deprecation header and logs a warning if present.
func CheckDeprecationHeader(resp *http.Response, log logger.Logger) {
	deprecationHeader := resp.Header.Get(HeaderDeprecation)
	if deprecationHeader != "" {
		endpoint := ""
		if resp.Request != nil && resp.Request.URL != nil {
			endpoint = resp.Request.URL.String()
		}
		log.Warn("API endpoint is deprecated",
			zap.String("Date", deprecationHeader),
			zap.String("Endpoint", endpoint),
		)
	}
}

// LogID returns the platform log id of a response, empty if absent.
func LogID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	return resp.Header.Get(HeaderLogID)
}
