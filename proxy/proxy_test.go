// proxy/proxy_test.go
package proxy

import (
	"net/http"
	"testing"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeProxyNoURL(t *testing.T) {
	client := &http.Client{}
	require.NoError(t, InitializeProxy(client, Config{}, logger.NewNopLogger()))
	assert.Nil(t, client.Transport)
}

func TestInitializeProxyInvalidURL(t *testing.T) {
	client := &http.Client{}
	assert.Error(t, InitializeProxy(client, Config{URL: "://bad"}, logger.NewNopLogger()))
	assert.Error(t, InitializeProxy(client, Config{URL: "proxy.internal"}, logger.NewNopLogger()))
	assert.Nil(t, client.Transport)
}

func TestInitializeProxyBasicAuth(t *testing.T) {
	client := &http.Client{}
	err := InitializeProxy(client, Config{URL: "http://proxy.internal:3128", Username: "user", Password: "pass"}, logger.NewNopLogger())
	require.NoError(t, err)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, "Basic dXNlcjpwYXNz", transport.ProxyConnectHeader.Get("Proxy-Authorization"))

	req, _ := http.NewRequest(http.MethodGet, "https://open.feishu.cn/open-apis", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:3128", proxyURL.Host)
	assert.Equal(t, "user", proxyURL.User.Username())
}

func TestInitializeProxyBearer(t *testing.T) {
	client := &http.Client{}
	err := InitializeProxy(client, Config{URL: "http://proxy.internal:3128", AuthToken: "sso-token"}, logger.NewNopLogger())
	require.NoError(t, err)

	transport := client.Transport.(*http.Transport)
	assert.Equal(t, "Bearer sso-token", transport.ProxyConnectHeader.Get("Proxy-Authorization"))
}
