// httpclient/request_test.go
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/internal/clock"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppID     = "cli_a1b2c3d4e5f6"
	testAppSecret = "dskLLdkasdjlasdKK"

	appTokenPath    = "/open-apis/auth/v3/app_access_token/internal"
	tenantTokenPath = "/open-apis/auth/v3/tenant_access_token/internal"
	chatsPath       = "/open-apis/im/v1/chats"
)

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// fakePlatform serves the token endpoints and whatever business handlers a
// test registers.
type fakePlatform struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	requests map[string][]*http.Request
	handlers map[string]http.HandlerFunc
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	p := &fakePlatform{
		hits:     map[string]int{},
		requests: map[string][]*http.Request{},
		handlers: map[string]http.HandlerFunc{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.hits[r.URL.Path]++
		n := p.hits[r.URL.Path]
		p.requests[r.URL.Path] = append(p.requests[r.URL.Path], r.Clone(context.Background()))
		h := p.handlers[r.URL.Path]
		p.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		switch r.URL.Path {
		case appTokenPath:
			fmt.Fprintf(w, `{"code":0,"msg":"ok","app_access_token":"a-%d","expire":7200}`, n)
		case tenantTokenPath:
			fmt.Fprintf(w, `{"code":0,"msg":"ok","tenant_access_token":"t-%d","expire":7200}`, n)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":404,"msg":"not found"}`)
		}
	}))
	t.Cleanup(p.Close)
	return p
}

func (p *fakePlatform) handle(path string, h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[path] = h
}

func (p *fakePlatform) hitCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *fakePlatform) authorizations(path string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, r := range p.requests[path] {
		out = append(out, r.Header.Get("Authorization"))
	}
	return out
}

// sequence answers the n-th call with responses[n], repeating the last one.
func sequence(responses ...func(w http.ResponseWriter)) http.HandlerFunc {
	var mu sync.Mutex
	calls := 0
	return func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		i := calls
		calls++
		mu.Unlock()
		if i >= len(responses) {
			i = len(responses) - 1
		}
		responses[i](w)
	}
}

func jsonReply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func newTestClient(t *testing.T, baseURL string, mutate func(*ClientConfig), opts ...Option) (*Client, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(testEpoch)
	config := ClientConfig{
		AppID:     testAppID,
		AppSecret: testAppSecret,
		BaseURL:   baseURL,
	}
	if mutate != nil {
		mutate(&config)
	}
	opts = append([]Option{
		WithClock(fake),
		WithLogger(logger.NewNopLogger()),
		WithBackoff(func(int) time.Duration { return time.Second }),
	}, opts...)

	client, err := BuildClient(config, true, opts...)
	require.NoError(t, err)
	return client, fake
}

func tenantSpec() RequestSpec {
	return RequestSpec{
		Method: http.MethodGet,
		Path:   chatsPath,
		Scopes: []authenticationhandler.TokenScope{authenticationhandler.TenantScope("")},
	}
}

func TestExecuteSuccessAttachesTenantToken(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{"has_more":false}}`)))
	client, _ := newTestClient(t, platform.URL, nil)

	spec := tenantSpec()
	spec.Query = map[string][]string{"page_size": {"20"}}
	outcome := client.Execute(context.Background(), spec)

	require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
	assert.NoError(t, outcome.Err())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.JSONEq(t, `{"code":0,"msg":"success","data":{"has_more":false}}`, string(outcome.Payload))
	assert.Equal(t, []string{"Bearer t-1"}, platform.authorizations(chatsPath))

	platform.mu.Lock()
	req := platform.requests[chatsPath][0]
	platform.mu.Unlock()
	assert.Equal(t, "20", req.URL.Query().Get("page_size"))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
	assert.Contains(t, req.Header.Get("User-Agent"), "go-api-sdk-lark-core/")
}

func TestExecuteReusesCachedToken(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`)))
	client, fake := newTestClient(t, platform.URL, nil)

	require.True(t, client.Execute(context.Background(), tenantSpec()).Succeeded())
	fake.Advance(time.Millisecond)
	require.True(t, client.Execute(context.Background(), tenantSpec()).Succeeded())

	assert.Equal(t, 1, platform.hitCount(tenantTokenPath))
	assert.Equal(t, []string{"Bearer t-1", "Bearer t-1"}, platform.authorizations(chatsPath))
}

func TestExecuteStaleTenantTokenRetriedOnce(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":99991663,"msg":"Invalid access token for authorization"}`)))
	client, fake := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, errorcode.CodeTenantAccessTokenInvalid, outcome.Failure.Code.Numeric)
	assert.Equal(t, errorcode.CategoryAuthentication, outcome.Failure.Code.Category)
	assert.Equal(t, 2, outcome.Failure.Attempts)
	assert.Equal(t, 2, platform.hitCount(tenantTokenPath), "the stale token is invalidated before the retry")
	assert.Equal(t, []string{"Bearer t-1", "Bearer t-2"}, platform.authorizations(chatsPath))
	assert.Equal(t, []time.Duration{time.Second}, fake.Sleeps())

	var classified *errorcode.Error
	require.ErrorAs(t, outcome.Err(), &classified)
	assert.Equal(t, 2, classified.Attempts)
}

func TestExecuteStaleTenantTokenRecovers(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(
		jsonReply(http.StatusOK, `{"code":99991663,"msg":"Invalid access token for authorization"}`),
		jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`),
	))
	client, _ := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.True(t, outcome.Succeeded())
	assert.Equal(t, 2, outcome.Attempts)
	token, ok := client.TokenCache().Peek(authenticationhandler.TenantScope(""))
	require.True(t, ok)
	assert.Equal(t, "t-2", token.Value)
}

func TestExecuteRateLimitWaitsSuggestedDelay(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "too many requests")
	}))
	client, fake := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, errorcode.CategoryRateLimit, outcome.Failure.Code.Category)
	assert.Equal(t, http.StatusTooManyRequests, outcome.Failure.StatusCode)
	sleeps := fake.Sleeps()
	require.Len(t, sleeps, 2)
	for _, d := range sleeps {
		assert.GreaterOrEqual(t, d, 60*time.Second)
	}
	assert.Equal(t, 1, platform.hitCount(tenantTokenPath), "rate limits leave the token cache alone")
}

func TestExecuteRateLimitHonoursLongerServerHint(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(
		func(w http.ResponseWriter) {
			w.Header().Set("Retry-After", "90")
			jsonReply(http.StatusBadRequest, `{"code":99991400,"msg":"request trigger frequency limit"}`)(w)
		},
		jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`),
	))
	client, fake := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.True(t, outcome.Succeeded())
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, []time.Duration{90 * time.Second}, fake.Sleeps(), "the business code wins over the 400 status")
}

func TestExecuteServerErrorsBackOff(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html><body><h1>502 Bad Gateway</h1></body></html>")
	}))
	client, fake := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, http.StatusBadGateway, outcome.Failure.Code.Numeric)
	assert.Equal(t, errorcode.CategoryServer, outcome.Failure.Code.Category)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fake.Sleeps())
}

func TestExecuteStatusWinsOverUnknownBusinessCode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category errorcode.Category
		minSleep time.Duration
	}{
		{"service unavailable", http.StatusServiceUnavailable, errorcode.CategoryServer, time.Second},
		{"too many requests", http.StatusTooManyRequests, errorcode.CategoryRateLimit, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform(t)
			platform.handle(chatsPath, sequence(
				jsonReply(tt.status, `{"code":1500,"msg":"internal error"}`),
				jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`),
			))
			client, fake := newTestClient(t, platform.URL, nil)

			outcome := client.Execute(context.Background(), tenantSpec())

			require.True(t, outcome.Succeeded())
			assert.Equal(t, 2, outcome.Attempts)
			sleeps := fake.Sleeps()
			require.Len(t, sleeps, 1)
			assert.GreaterOrEqual(t, sleeps[0], tt.minSleep)
		})
	}

	t.Run("final failure carries the status classification", func(t *testing.T) {
		platform := newFakePlatform(t)
		platform.handle(chatsPath, sequence(jsonReply(http.StatusServiceUnavailable, `{"code":1500,"msg":"internal error"}`)))
		client, _ := newTestClient(t, platform.URL, nil)

		outcome := client.Execute(context.Background(), tenantSpec())

		require.False(t, outcome.Succeeded())
		assert.Equal(t, 3, outcome.Attempts)
		assert.Equal(t, http.StatusServiceUnavailable, outcome.Failure.Code.Numeric)
		assert.Equal(t, errorcode.CategoryServer, outcome.Failure.Code.Category)
	})
}

func TestExecuteMaxAttemptsOverride(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusServiceUnavailable, `{"code":503,"msg":"unavailable"}`)))
	client, fake := newTestClient(t, platform.URL, nil)

	spec := tenantSpec()
	spec.MaxAttempts = 1
	outcome := client.Execute(context.Background(), spec)

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, fake.Sleeps())
}

func TestExecuteCallerErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		numeric  int
		category errorcode.Category
	}{
		{"bad request", http.StatusBadRequest, `{"message":"bad field"}`, 400, errorcode.CategoryParameter},
		{"forbidden", http.StatusForbidden, `{"message":"denied"}`, 403, errorcode.CategoryAuthentication},
		{"unknown business code on 400", http.StatusBadRequest, `{"code":1500,"msg":"bad field"}`, 400, errorcode.CategoryParameter},
		{"not found", http.StatusNotFound, `{"message":"missing"}`, 404, errorcode.CategoryResource},
		{"scope not granted", http.StatusOK, `{"code":99991672,"msg":"Access denied"}`, errorcode.CodeAppScopeNotGranted, errorcode.CategoryPermission},
		{"unknown business code", http.StatusOK, `{"code":1254043,"msg":"record not exist"}`, 1254043, errorcode.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := newFakePlatform(t)
			platform.handle(chatsPath, sequence(jsonReply(tt.status, tt.body)))
			client, fake := newTestClient(t, platform.URL, nil)

			outcome := client.Execute(context.Background(), tenantSpec())

			require.False(t, outcome.Succeeded())
			assert.Equal(t, 1, outcome.Attempts)
			assert.Equal(t, tt.numeric, outcome.Failure.Code.Numeric)
			assert.Equal(t, tt.category, outcome.Failure.Code.Category)
			assert.False(t, outcome.Failure.Code.Retryable)
			assert.Empty(t, fake.Sleeps())
			assert.Equal(t, 1, platform.hitCount(chatsPath))
		})
	}
}

func TestExecuteFallsBackToNextScope(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(tenantTokenPath, sequence(jsonReply(http.StatusOK, `{"code":10014,"msg":"app secret invalid"}`)))
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`)))
	client, _ := newTestClient(t, platform.URL, nil)

	spec := tenantSpec()
	spec.Scopes = append(spec.Scopes, authenticationhandler.AppScope())
	outcome := client.Execute(context.Background(), spec)

	require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, []string{"Bearer a-1"}, platform.authorizations(chatsPath))
}

func TestExecuteNoScopeAvailable(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(tenantTokenPath, sequence(jsonReply(http.StatusOK, `{"code":10014,"msg":"app secret invalid"}`)))
	client, _ := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, errorcode.CodeInvalidAppSecret, outcome.Failure.Code.Numeric)
	assert.Equal(t, "app secret invalid", outcome.Failure.Message)
	assert.Equal(t, 0, platform.hitCount(chatsPath))
}

func TestExecuteRetriesTransientTokenFailure(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(tenantTokenPath, sequence(
		jsonReply(http.StatusServiceUnavailable, `{"message":"unavailable"}`),
		jsonReply(http.StatusOK, `{"code":0,"msg":"ok","tenant_access_token":"t-ok","expire":7200}`),
	))
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`)))
	client, fake := newTestClient(t, platform.URL, nil)

	spec := tenantSpec()
	spec.Scopes = append(spec.Scopes, authenticationhandler.AppScope())
	outcome := client.Execute(context.Background(), spec)

	require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, []time.Duration{2 * time.Second}, fake.Sleeps())
	assert.Equal(t, 0, platform.hitCount(appTokenPath), "a retryable failure does not fall through")
	assert.Equal(t, []string{"Bearer t-ok"}, platform.authorizations(chatsPath))
}

func TestExecuteWithoutScopesSendsNoAuthorization(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success"}`)))
	client, _ := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), RequestSpec{Method: http.MethodGet, Path: chatsPath})

	require.True(t, outcome.Succeeded())
	assert.Equal(t, []string{""}, platform.authorizations(chatsPath))
	assert.Equal(t, 0, platform.hitCount(tenantTokenPath))
}

func TestExecuteTokenCacheDisabled(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`)))
	client, _ := newTestClient(t, platform.URL, func(c *ClientConfig) { c.EnableTokenCache = Bool(false) })

	for i := 0; i < 3; i++ {
		require.True(t, client.Execute(context.Background(), tenantSpec()).Succeeded())
	}

	assert.Equal(t, 3, platform.hitCount(tenantTokenPath))
	assert.Equal(t, []string{"Bearer t-1", "Bearer t-2", "Bearer t-3"}, platform.authorizations(chatsPath))
}

func TestExecuteInvalidSpec(t *testing.T) {
	platform := newFakePlatform(t)
	client, _ := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(context.Background(), RequestSpec{Path: chatsPath})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 0, outcome.Attempts)
	assert.Equal(t, errorcode.CodeInvalidRequest, outcome.Failure.Code.Numeric)
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	platform := newFakePlatform(t)
	client, _ := newTestClient(t, platform.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := client.Execute(ctx, tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 0, outcome.Attempts)
	assert.Equal(t, errorcode.CodeCanceled, outcome.Failure.Code.Numeric)
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
	assert.Equal(t, 0, platform.hitCount(tenantTokenPath))
}

func TestExecuteCancelledDuringCall(t *testing.T) {
	platform := newFakePlatform(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	platform.handle(chatsPath, func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		jsonReply(http.StatusInternalServerError, `{"message":"boom"}`)(w)
	})
	client, fake := newTestClient(t, platform.URL, nil)

	outcome := client.Execute(ctx, tenantSpec())

	require.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, errorcode.CodeCanceled, outcome.Failure.Code.Numeric)
	assert.Empty(t, fake.Sleeps())
	token, ok := client.TokenCache().Peek(authenticationhandler.TenantScope(""))
	require.True(t, ok, "cancellation leaves the cache intact")
	assert.Equal(t, "t-1", token.Value)
}

func TestExecuteConcurrentRequestsShareOneTokenFetch(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`)))
	client, _ := newTestClient(t, platform.URL, func(c *ClientConfig) { c.MaxConcurrentRequests = 4 })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, client.Execute(context.Background(), tenantSpec()).Succeeded())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, platform.hitCount(tenantTokenPath))
	assert.Equal(t, 20, platform.hitCount(chatsPath))
	assert.Equal(t, 0, client.Concurrency.InUse())
	assert.Equal(t, int64(20), client.Concurrency.Metrics.Snapshot().TotalRequests)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	platform := newFakePlatform(t)
	platform.handle(chatsPath, sequence(
		jsonReply(http.StatusInternalServerError, `{"message":"boom"}`),
		jsonReply(http.StatusOK, `{"code":0,"msg":"success","data":{}}`),
	))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client, _ := newTestClient(t, platform.URL, nil, WithMetrics(m))

	require.True(t, client.Execute(context.Background(), tenantSpec()).Succeeded())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RetriesTotal.WithLabelValues("Server")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TokenRefreshesTotal.WithLabelValues("tenant", "success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RequestsInFlight))
	assert.Equal(t, int64(1), client.Concurrency.Metrics.Snapshot().TotalRetries)
}

func TestBuildURL(t *testing.T) {
	platform := newFakePlatform(t)
	client, _ := newTestClient(t, platform.URL+"/", nil)

	tests := []struct {
		name string
		spec RequestSpec
		want string
	}{
		{"relative path", RequestSpec{Path: chatsPath}, platform.URL + chatsPath},
		{"path without slash", RequestSpec{Path: "open-apis/im/v1/chats"}, platform.URL + chatsPath},
		{"query", RequestSpec{Path: chatsPath, Query: map[string][]string{"page_size": {"10"}}}, platform.URL + chatsPath + "?page_size=10"},
		{"query appended", RequestSpec{Path: chatsPath + "?a=1", Query: map[string][]string{"b": {"2"}}}, platform.URL + chatsPath + "?a=1&b=2"},
		{"absolute url", RequestSpec{Path: "https://open.larksuite.com/open-apis/im/v1/chats"}, "https://open.larksuite.com/open-apis/im/v1/chats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.buildURL(tt.spec))
		})
	}
	assert.False(t, strings.HasSuffix(client.Credential().BaseURL, "/"))
}
