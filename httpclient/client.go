// httpclient/client.go
/* The `httpclient` package is the authenticated request pipeline of the Lark/Feishu open platform SDK.
A Client owns the application credential, the token cache in front of the app, tenant and user token
providers, one retry policy driven by the error classification table, and a semaphore bounding
concurrent API calls. Endpoint packages describe a call with a RequestSpec and hand it to Execute. */
package httpclient

import (
	"net/http"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/concurrency"
	"github.com/deploymenttheory/go-api-sdk-lark-core/internal/clock"
	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/deploymenttheory/go-api-sdk-lark-core/metrics"
	"github.com/deploymenttheory/go-api-sdk-lark-core/proxy"
	"github.com/deploymenttheory/go-api-sdk-lark-core/redirecthandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/retrypolicy"
	"github.com/deploymenttheory/go-api-sdk-lark-core/version"
	"go.uber.org/zap"
)

// Client executes authenticated requests against the open platform.
type Client struct {
	Logger      logger.Logger                           // Logger is shared by every component of the client.
	Auth        *authenticationhandler.AuthTokenHandler // Auth owns the token providers and the token cache.
	Concurrency *concurrency.ConcurrencyHandler         // Concurrency bounds simultaneous API calls.

	config     ClientConfig
	httpClient *http.Client
	doer       authenticationhandler.Doer
	clock      clock.Clock
	policy     retrypolicy.Policy
	metrics    metrics.Recorder
}

// BuildClient creates a new Client from config. With populateDefaultValues
// unset the caller is expected to have called SetDefaultValuesClientConfig.
func BuildClient(config ClientConfig, populateDefaultValues bool, opts ...Option) (*Client, error) {
	if populateDefaultValues {
		SetDefaultValuesClientConfig(&config)
	}

	if err := validateClientConfig(config); err != nil {
		return nil, err
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		parsedLogLevel := logger.ParseLogLevelFromString(config.LogLevel)
		log = logger.BuildLogger(parsedLogLevel, config.LogOutputFormat, config.LogConsoleSeparator)
	}
	log = log.With(zap.String("app_id", config.AppID), zap.String("sdk_version", version.GetVersion()))

	httpClient := &http.Client{
		Timeout: config.CustomTimeout,
	}

	redirecthandler.SetupRedirectHandler(httpClient, config.RedirectLimit(), log)

	if err := proxy.InitializeProxy(httpClient, proxy.Config{
		URL:       config.ProxyURL,
		Username:  config.ProxyUsername,
		Password:  config.ProxyPassword,
		AuthToken: config.ProxyAuthToken,
	}, log); err != nil {
		return nil, log.Error("Failed to initialize proxy", zap.Error(err))
	}

	var doer authenticationhandler.Doer = httpClient
	if o.transport != nil {
		doer = o.transport
	}
	if o.clock == nil {
		o.clock = clock.Real{}
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNoopMetrics()
	}

	credential := authenticationhandler.NewCredential(config.AppID, config.AppSecret, config.BaseURL, config.AppType, config.TokenCacheEnabled())

	authOpts := []authenticationhandler.Option{
		authenticationhandler.WithClock(o.clock),
		authenticationhandler.WithMetrics(o.metrics),
		authenticationhandler.WithSafetyMargin(config.RefreshBufferPeriod()),
		authenticationhandler.WithFetchTimeout(config.TokenFetchTimeout),
		authenticationhandler.WithHideSensitiveData(config.HideSensitiveData),
	}
	if o.tickets != nil {
		authOpts = append(authOpts, authenticationhandler.WithAppTicketSource(o.tickets))
	}
	if o.onRotated != nil {
		authOpts = append(authOpts, authenticationhandler.WithRefreshTokenHook(o.onRotated))
	}

	client := &Client{
		Logger:      log,
		Auth:        authenticationhandler.NewAuthTokenHandler(credential, doer, log, authOpts...),
		Concurrency: concurrency.NewConcurrencyHandler(config.MaxConcurrentRequests, log, o.metrics),
		config:      config,
		httpClient:  httpClient,
		doer:        doer,
		clock:       o.clock,
		policy: retrypolicy.Policy{
			MaxAttempts: config.MaxRetryAttempts,
			MaxDelay:    config.MaxRetryDelay,
			Backoff:     o.backoff,
		},
		metrics: o.metrics,
	}

	log.Debug("New API client initialized",
		zap.String("base_url", credential.BaseURL),
		zap.String("app_type", string(credential.AppType)),
		zap.Bool("token_cache_enabled", credential.EnableTokenCache),
		zap.String("log_level", config.LogLevel),
		zap.String("log_output_format", config.LogOutputFormat),
		zap.Bool("hide_sensitive_data", config.HideSensitiveData),
		zap.Int("max_retry_attempts", config.MaxRetryAttempts),
		zap.Int("max_concurrent_requests", config.MaxConcurrentRequests),
		zap.Duration("custom_timeout", config.CustomTimeout),
		zap.Duration("token_refresh_buffer_period", config.RefreshBufferPeriod()),
		zap.Duration("token_fetch_timeout", config.TokenFetchTimeout),
		zap.Duration("max_retry_delay", config.MaxRetryDelay),
		zap.Int("max_redirects", config.RedirectLimit()),
		zap.Bool("proxy_enabled", config.ProxyURL != ""),
	)

	return client, nil
}

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() ClientConfig {
	return c.config
}

// Credential returns the application identity.
func (c *Client) Credential() authenticationhandler.Credential {
	return c.Auth.Credential
}

// HTTPClient returns the internal http.Client. Requests go through the
// WithTransport doer instead when one was supplied.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// TokenCache returns the token cache shared by every request of the client.
func (c *Client) TokenCache() *authenticationhandler.TokenCache {
	return c.Auth.Cache()
}
