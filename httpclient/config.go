// httpclient/config.go
package httpclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
)

// ClientConfig holds every option of a Client. Durations accept Go duration
// strings ("30s") in JSON, YAML and environment variables.
//
// TokenRefreshBufferPeriod and MaxRedirects are pointers so that zero can be
// chosen: a zero margin hands tokens out until expiry, zero redirects follows
// none.
type ClientConfig struct {
	// Credential
	AppID            string                        `json:"app_id" yaml:"app_id"`
	AppSecret        string                        `json:"app_secret" yaml:"app_secret"`
	BaseURL          string                        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	AppType          authenticationhandler.AppType `json:"app_type,omitempty" yaml:"app_type,omitempty"`
	EnableTokenCache *bool                         `json:"enable_token_cache,omitempty" yaml:"enable_token_cache,omitempty"`

	// Log
	LogLevel            string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogOutputFormat     string `json:"log_output_format,omitempty" yaml:"log_output_format,omitempty"` // Output format of the logs. Use "json" for JSON format, "console" for human-readable format
	LogConsoleSeparator string `json:"log_console_separator,omitempty" yaml:"log_console_separator,omitempty"`
	HideSensitiveData   bool   `json:"hide_sensitive_data,omitempty" yaml:"hide_sensitive_data,omitempty"`

	// Misc
	MaxRetryAttempts         int            `json:"max_retry_attempts,omitempty" yaml:"max_retry_attempts,omitempty"` // MaxRetryAttempts counts every attempt including the first.
	MaxConcurrentRequests    int            `json:"max_concurrent_requests,omitempty" yaml:"max_concurrent_requests,omitempty"`
	CustomTimeout            time.Duration  `json:"custom_timeout,omitempty" yaml:"custom_timeout,omitempty"`
	TokenRefreshBufferPeriod *time.Duration `json:"token_refresh_buffer_period,omitempty" yaml:"token_refresh_buffer_period,omitempty"`
	TokenFetchTimeout        time.Duration  `json:"token_fetch_timeout,omitempty" yaml:"token_fetch_timeout,omitempty"`
	MaxRetryDelay            time.Duration  `json:"max_retry_delay,omitempty" yaml:"max_retry_delay,omitempty"`
	MaxRedirects             *int           `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty"`

	// Proxy
	ProxyURL       string `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty"`
	ProxyUsername  string `json:"proxy_username,omitempty" yaml:"proxy_username,omitempty"`
	ProxyPassword  string `json:"proxy_password,omitempty" yaml:"proxy_password,omitempty"`
	ProxyAuthToken string `json:"proxy_auth_token,omitempty" yaml:"proxy_auth_token,omitempty"`
}

// Bool returns a pointer to v, for ClientConfig.EnableTokenCache.
func Bool(v bool) *bool {
	return &v
}

// Int returns a pointer to v, for ClientConfig.MaxRedirects.
func Int(v int) *int {
	return &v
}

// Duration returns a pointer to v, for ClientConfig.TokenRefreshBufferPeriod.
func Duration(v time.Duration) *time.Duration {
	return &v
}

// RefreshBufferPeriod returns the effective TokenRefreshBufferPeriod.
func (c ClientConfig) RefreshBufferPeriod() time.Duration {
	if c.TokenRefreshBufferPeriod == nil {
		return DefaultTokenRefreshBufferPeriod
	}
	return *c.TokenRefreshBufferPeriod
}

// RedirectLimit returns the effective MaxRedirects.
func (c ClientConfig) RedirectLimit() int {
	if c.MaxRedirects == nil {
		return DefaultMaxRedirects
	}
	return *c.MaxRedirects
}

// TokenCacheEnabled reports the effective EnableTokenCache value. Unset means enabled.
func (c ClientConfig) TokenCacheEnabled() bool {
	return c.EnableTokenCache == nil || *c.EnableTokenCache
}

// UnmarshalJSON accepts durations as Go duration strings or as nanosecond numbers.
func (c *ClientConfig) UnmarshalJSON(data []byte) error {
	type plain ClientConfig
	aux := struct {
		*plain
		CustomTimeout            json.RawMessage `json:"custom_timeout,omitempty"`
		TokenRefreshBufferPeriod json.RawMessage `json:"token_refresh_buffer_period,omitempty"`
		TokenFetchTimeout        json.RawMessage `json:"token_fetch_timeout,omitempty"`
		MaxRetryDelay            json.RawMessage `json:"max_retry_delay,omitempty"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *time.Duration
	}{
		{"custom_timeout", aux.CustomTimeout, &c.CustomTimeout},
		{"token_fetch_timeout", aux.TokenFetchTimeout, &c.TokenFetchTimeout},
		{"max_retry_delay", aux.MaxRetryDelay, &c.MaxRetryDelay},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		d, err := parseJSONDuration(f.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}

	if len(aux.TokenRefreshBufferPeriod) > 0 {
		d, err := parseJSONDuration(aux.TokenRefreshBufferPeriod)
		if err != nil {
			return fmt.Errorf("token_refresh_buffer_period: %w", err)
		}
		c.TokenRefreshBufferPeriod = &d
	}
	return nil
}

func parseJSONDuration(raw json.RawMessage) (time.Duration, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.ParseDuration(s)
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %s", string(raw))
	}
	return time.Duration(n), nil
}
