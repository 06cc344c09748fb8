// headers/headers_test.go
package headers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/mocklogger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSetAuthorization(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	headerHandler := NewHeaderHandler(req, mocklogger.NewMockLogger())

	headerHandler.SetAuthorization("t-abc")
	assert.Equal(t, "Bearer t-abc", req.Header.Get("Authorization"), "Authorization header should be correctly set")

	headerHandler.SetAuthorization("Bearer t-def")
	assert.Equal(t, "Bearer t-def", req.Header.Get("Authorization"), "Bearer prefix should not be duplicated")
}

func TestSetStandardHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://open.feishu.cn", nil)
	headerHandler := NewHeaderHandler(req, mocklogger.NewMockLogger())

	headerHandler.SetStandardHeaders(ContentTypeJSON)
	headerHandler.SetRequestID("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	assert.Equal(t, ContentTypeJSON, req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, version.GetUserAgentHeader(), req.Header.Get("User-Agent"))
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", req.Header.Get("X-Request-Id"))
}

func TestSetStandardHeadersWithoutBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	NewHeaderHandler(req, mocklogger.NewMockLogger()).SetStandardHeaders("")

	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestSetCustomHeadersKeepsAuthorization(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Warn", "Ignoring caller supplied Authorization header", mock.Anything).Once()

	headerHandler := NewHeaderHandler(req, mockLog)
	headerHandler.SetAuthorization("t-abc")
	headerHandler.SetCustomHeaders(http.Header{
		"Authorization": {"Bearer forged"},
		"X-Custom":      {"a", "b"},
	})

	assert.Equal(t, "Bearer t-abc", req.Header.Get("Authorization"))
	assert.Equal(t, []string{"a", "b"}, req.Header.Values("X-Custom"))
	mockLog.AssertExpectations(t)
}

func TestRedactedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	headerHandler := NewHeaderHandler(req, mocklogger.NewMockLogger())
	headerHandler.SetAuthorization("t-abc")
	headerHandler.SetUserAgent("agent")

	redacted := headerHandler.RedactedHeaders(true)
	assert.Equal(t, []string{"REDACTED"}, redacted["Authorization"])
	assert.Equal(t, []string{"agent"}, redacted["User-Agent"])
	assert.Equal(t, "Bearer t-abc", req.Header.Get("Authorization"), "request must not be modified")

	assert.Equal(t, []string{"Bearer t-abc"}, headerHandler.RedactedHeaders(false)["Authorization"])
}

func TestLogHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("SetLevel", logger.LogLevelDebug).Once()
	mockLog.On("Debug", "HTTP Request Headers", mock.Anything).Once()
	mockLog.SetLevel(logger.LogLevelDebug)

	headerHandler := NewHeaderHandler(req, mockLog)
	headerHandler.LogHeaders(true)

	mockLog.AssertExpectations(t)
}

func TestLogHeadersSkippedAboveDebug(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn", nil)
	mockLog := mocklogger.NewMockLogger()
	mockLog.On("SetLevel", logger.LogLevelInfo).Once()
	mockLog.SetLevel(logger.LogLevelInfo)

	NewHeaderHandler(req, mockLog).LogHeaders(true)

	mockLog.AssertNotCalled(t, "Debug", mock.Anything, mock.Anything)
}

func TestHeadersToString(t *testing.T) {
	out := HeadersToString(map[string][]string{
		"X-B": {"2"},
		"X-A": {"1", "one"},
	})
	assert.Equal(t, "X-A: 1, one\nX-B: 2", out)
}

func TestCheckDeprecationHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://open.feishu.cn/open-apis/old", nil)
	resp := &http.Response{Header: http.Header{}, Request: req}
	resp.Header.Set("Deprecation", "Sun, 01 Sep 2024 00:00:00 GMT")

	mockLog := mocklogger.NewMockLogger()
	mockLog.On("Warn", "API endpoint is deprecated", mock.Anything).Once()

	CheckDeprecationHeader(resp, mockLog)
	mockLog.AssertExpectations(t)
}

func TestLogID(t *testing.T) {
	assert.Empty(t, LogID(nil))

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-Tt-Logid", "2024050112000001")
	assert.Equal(t, "2024050112000001", LogID(resp))
}
