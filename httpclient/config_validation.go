// httpclient/config_validation.go
package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/concurrency"
	"github.com/deploymenttheory/go-api-sdk-lark-core/redirecthandler"
)

const (
	DefaultLogLevelString           = "LogLevelInfo"
	DefaultLogOutputFormatString    = "json"
	DefaultLogConsoleSeparator      = "\t"
	DefaultMaxRetryAttempts         = 3
	DefaultMaxConcurrentRequests    = concurrency.DefaultMaxConcurrentRequests
	DefaultHideSensitiveData        = false
	DefaultCustomTimeout            = 30 * time.Second
	DefaultTokenRefreshBufferPeriod = authenticationhandler.DefaultSafetyMargin
	DefaultTokenFetchTimeout        = authenticationhandler.DefaultFetchTimeout
	DefaultMaxRetryDelay            = 30 * time.Second
	DefaultMaxRedirects             = redirecthandler.DefaultMaxRedirects
)

var validLogLevels = []string{
	"LogLevelDebug",
	"LogLevelInfo",
	"LogLevelWarn",
	"LogLevelError",
	"LogLevelDPanic",
	"LogLevelPanic",
	"LogLevelFatal",
	"LogLevelNone",
}

var validLogFormats = []string{
	"json",
	"console",
}

// SetDefaultValuesClientConfig fills every unset option with its default.
func SetDefaultValuesClientConfig(config *ClientConfig) {
	if config.BaseURL == "" {
		config.BaseURL = authenticationhandler.DefaultBaseURL
	}

	if config.AppType == "" {
		config.AppType = authenticationhandler.AppTypeSelfBuild
	}

	if config.EnableTokenCache == nil {
		config.EnableTokenCache = Bool(true)
	}

	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevelString
	}

	if config.LogOutputFormat == "" {
		config.LogOutputFormat = DefaultLogOutputFormatString
	}

	if config.LogConsoleSeparator == "" {
		config.LogConsoleSeparator = DefaultLogConsoleSeparator
	}

	if config.MaxRetryAttempts == 0 {
		config.MaxRetryAttempts = DefaultMaxRetryAttempts
	}

	if config.MaxConcurrentRequests == 0 {
		config.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}

	if config.CustomTimeout == 0 {
		config.CustomTimeout = DefaultCustomTimeout
	}

	if config.TokenRefreshBufferPeriod == nil {
		config.TokenRefreshBufferPeriod = Duration(DefaultTokenRefreshBufferPeriod)
	}

	if config.TokenFetchTimeout == 0 {
		config.TokenFetchTimeout = DefaultTokenFetchTimeout
	}

	if config.MaxRetryDelay == 0 {
		config.MaxRetryDelay = DefaultMaxRetryDelay
	}

	if config.MaxRedirects == nil {
		config.MaxRedirects = Int(DefaultMaxRedirects)
	}
}

// validateClientConfig checks a config after defaults were applied.
func validateClientConfig(config ClientConfig) error {
	if ok, msg := authenticationhandler.IsValidAppID(config.AppID); !ok {
		return errors.New(msg)
	}

	if ok, msg := authenticationhandler.IsValidAppSecret(config.AppSecret); !ok {
		return errors.New(msg)
	}

	if ok, msg := authenticationhandler.IsValidAppType(config.AppType); !ok {
		return errors.New(msg)
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil || (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return fmt.Errorf("invalid base url: %q", config.BaseURL)
	}

	if !slices.Contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	if !slices.Contains(validLogFormats, config.LogOutputFormat) {
		return fmt.Errorf("invalid log output format: %s", config.LogOutputFormat)
	}

	if config.MaxRetryAttempts < 1 {
		return errors.New("max retry attempts cannot be less than 1")
	}

	if config.MaxConcurrentRequests < concurrency.MinConcurrency || config.MaxConcurrentRequests > concurrency.MaxConcurrency {
		return fmt.Errorf("maximum concurrent requests must be between %d and %d", concurrency.MinConcurrency, concurrency.MaxConcurrency)
	}

	if config.CustomTimeout < 0 {
		return errors.New("timeout cannot be less than 0 seconds")
	}

	if config.RefreshBufferPeriod() < 0 {
		return errors.New("refresh buffer period cannot be less than 0 seconds")
	}

	if config.TokenFetchTimeout < 0 {
		return errors.New("token fetch timeout cannot be less than 0 seconds")
	}

	if config.MaxRetryDelay < 0 {
		return errors.New("max retry delay cannot be less than 0 seconds")
	}

	if config.RedirectLimit() < 0 {
		return errors.New("max redirects cannot be less than 0")
	}

	if config.ProxyURL != "" {
		if _, err := url.Parse(config.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy url: %w", err)
		}
	}

	return nil
}
