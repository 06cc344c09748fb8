// proxy/proxy.go

package proxy

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"go.uber.org/zap"
)

// Config describes an outbound proxy. Username/Password take precedence over AuthToken.
type Config struct {
	URL       string
	Username  string
	Password  string
	AuthToken string
}

// InitializeProxy routes httpClient through the proxy described by cfg. An
// empty URL leaves the client untouched.
func InitializeProxy(httpClient *http.Client, cfg Config, log logger.Logger) error {
	if cfg.URL == "" {
		return nil
	}

	parsedProxyURL, err := url.Parse(cfg.URL)
	if err != nil {
		return log.Error("Failed to parse proxy URL", zap.Error(err))
	}
	if parsedProxyURL.Scheme == "" || parsedProxyURL.Host == "" {
		return log.Error("Proxy URL must include scheme and host", zap.String("proxy_url", parsedProxyURL.Redacted()))
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if existing, ok := httpClient.Transport.(*http.Transport); ok && existing != nil {
		transport = existing.Clone()
	}

	switch {
	case cfg.Username != "" && cfg.Password != "":
		parsedProxyURL.User = url.UserPassword(cfg.Username, cfg.Password)
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		transport.ProxyConnectHeader = http.Header{
			"Proxy-Authorization": []string{"Basic " + credentials},
		}
	case cfg.AuthToken != "":
		transport.ProxyConnectHeader = http.Header{
			"Proxy-Authorization": []string{fmt.Sprintf("Bearer %s", cfg.AuthToken)},
		}
	}
	transport.Proxy = http.ProxyURL(parsedProxyURL)
	httpClient.Transport = transport

	log.Info("Proxy configured", zap.String("proxy_url", parsedProxyURL.Redacted()))
	return nil
}
