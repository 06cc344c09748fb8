// authenticationhandler/authenticationhandler.go

package authenticationhandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/internal/clock"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
	"go.uber.org/zap"
)

// DefaultBaseURL is the production origin of the open platform.
const DefaultBaseURL = "https://open.feishu.cn"

// AppType selects how app and tenant tokens are obtained.
type AppType string

const (
	// AppTypeSelfBuild apps exchange app_id and app_secret directly.
	AppTypeSelfBuild AppType = "SelfBuild"
	// AppTypeMarketplace apps need an app_ticket pushed by the platform.
	AppTypeMarketplace AppType = "Marketplace"
)

// Credential is the application identity. It is created once per client and
// never mutated.
type Credential struct {
	AppID            string
	AppSecret        string
	BaseURL          string
	AppType          AppType
	EnableTokenCache bool
}

// NewCredential fills BaseURL and AppType defaults.
func NewCredential(appID, appSecret, baseURL string, appType AppType, enableTokenCache bool) Credential {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if appType == "" {
		appType = AppTypeSelfBuild
	}
	return Credential{
		AppID:            appID,
		AppSecret:        appSecret,
		BaseURL:          strings.TrimRight(baseURL, "/"),
		AppType:          appType,
		EnableTokenCache: enableTokenCache,
	}
}

// Doer executes an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider performs the network exchange that yields a fresh token.
type TokenProvider interface {
	FetchToken(ctx context.Context, scope TokenScope) (FetchedToken, error)
}

// AuthTokenHandler implements TokenProvider for all three scopes and owns the
// TokenCache in front of it.
type AuthTokenHandler struct {
	Credential        Credential    // Credential holds the application identity.
	Logger            logger.Logger // Logger provides structured logging capabilities for logging information, warnings, and errors.
	HideSensitiveData bool          // HideSensitiveData redacts token values in logs.

	// OnRefreshTokenRotated is called after a user exchange returns a new
	// refresh token, so the caller can persist it.
	OnRefreshTokenRotated func(userID, refreshToken string)

	httpClient Doer
	tickets    AppTicketSource
	cache      *TokenCache

	refreshLock   sync.Mutex        // refreshLock guards refreshTokens.
	refreshTokens map[string]string // refreshTokens holds the latest rotated refresh token per user id.
}

// Option configures an AuthTokenHandler.
type Option func(*handlerOptions)

type handlerOptions struct {
	clock        clock.Clock
	metrics      metrics.Recorder
	tickets      AppTicketSource
	safetyMargin time.Duration
	fetchTimeout time.Duration
	hide         bool
	onRotated    func(userID, refreshToken string)
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *handlerOptions) { o.clock = c }
}

// WithMetrics records cache and refresh metrics on m.
func WithMetrics(m metrics.Recorder) Option {
	return func(o *handlerOptions) { o.metrics = m }
}

// WithAppTicketSource supplies app tickets for marketplace apps.
func WithAppTicketSource(s AppTicketSource) Option {
	return func(o *handlerOptions) { o.tickets = s }
}

// WithSafetyMargin sets how long before expiry a token is treated as expired.
func WithSafetyMargin(d time.Duration) Option {
	return func(o *handlerOptions) { o.safetyMargin = d }
}

// WithFetchTimeout bounds a single token exchange.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *handlerOptions) { o.fetchTimeout = d }
}

// WithHideSensitiveData redacts token values in logs.
func WithHideSensitiveData(hide bool) Option {
	return func(o *handlerOptions) { o.hide = hide }
}

// WithRefreshTokenHook sets OnRefreshTokenRotated.
func WithRefreshTokenHook(fn func(userID, refreshToken string)) Option {
	return func(o *handlerOptions) { o.onRotated = fn }
}

// NewAuthTokenHandler creates a handler and the TokenCache in front of it.
func NewAuthTokenHandler(credential Credential, httpClient Doer, log logger.Logger, opts ...Option) *AuthTokenHandler {
	o := handlerOptions{
		clock:        clock.Real{},
		metrics:      metrics.NewNoopMetrics(),
		safetyMargin: DefaultSafetyMargin,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if o.tickets == nil {
		o.tickets = NewMemoryAppTicketStore()
	}

	h := &AuthTokenHandler{
		Credential:            credential,
		Logger:                log,
		HideSensitiveData:     o.hide,
		OnRefreshTokenRotated: o.onRotated,
		httpClient:            httpClient,
		tickets:               o.tickets,
		refreshTokens:         make(map[string]string),
	}
	h.cache = NewTokenCache(h, CacheConfig{
		Enabled:      credential.EnableTokenCache,
		SafetyMargin: o.safetyMargin,
		FetchTimeout: o.fetchTimeout,
		Clock:        o.clock,
		Logger:       log,
		Metrics:      o.metrics,
	})
	return h
}

// Cache returns the TokenCache backed by this handler.
func (h *AuthTokenHandler) Cache() *TokenCache {
	return h.cache
}

// AppTickets returns the app ticket source used for marketplace apps.
func (h *AuthTokenHandler) AppTickets() AppTicketSource {
	return h.tickets
}

// FetchToken performs one exchange for scope. It does not consult the cache
// for scope itself.
func (h *AuthTokenHandler) FetchToken(ctx context.Context, scope TokenScope) (FetchedToken, error) {
	switch scope.Kind {
	case ScopeApp:
		return h.fetchAppAccessToken(ctx)
	case ScopeTenant:
		return h.fetchTenantAccessToken(ctx, scope.TenantKey)
	case ScopeUser:
		return h.fetchUserAccessToken(ctx, scope.User)
	default:
		return FetchedToken{}, errorcode.New(errorcode.CodeInvalidRequest, fmt.Sprintf("unknown token scope %q", scope.Kind))
	}
}

// appAccessToken resolves the app token through the cache. Marketplace tenant
// exchanges and every user exchange authenticate with it.
func (h *AuthTokenHandler) appAccessToken(ctx context.Context) (Token, error) {
	tok, err := h.cache.GetOrRefresh(ctx, AppScope())
	if err != nil {
		h.Logger.Debug("Failed to resolve app access token", zap.Error(err))
		return Token{}, err
	}
	return tok, nil
}

// dropStaleAppToken invalidates appToken when an exchange reports that it is
// no longer accepted, so the next attempt fetches a new one.
func (h *AuthTokenHandler) dropStaleAppToken(err error, appToken string) {
	if e, ok := errorcode.AsError(err); ok && e.Code.Numeric == errorcode.CodeAppAccessTokenInvalid {
		h.cache.InvalidateToken(AppScope(), appToken)
	}
}
