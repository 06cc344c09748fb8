// redirecthandler/redirecthandler.go
package redirecthandler

import (
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-api-sdk-lark-core/logger"
	"go.uber.org/zap"
)

// DefaultMaxRedirects bounds the redirects followed for one request.
const DefaultMaxRedirects = 5

// RedirectHandler is the redirect policy of the client's http.Client. A
// redirect it refuses is not an error: the 3xx response is handed back and
// classified like any other non-2xx answer.
type RedirectHandler struct {
	Logger           logger.Logger // Logger instance for logging.
	MaxRedirects     int           // Maximum allowed redirects to prevent infinite loops.
	SensitiveHeaders []string      // Headers to be removed on cross-host redirects.
}

// NewRedirectHandler creates a new instance of RedirectHandler. A negative
// maxRedirects selects DefaultMaxRedirects; zero follows no redirects.
func NewRedirectHandler(log logger.Logger, maxRedirects int) *RedirectHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if maxRedirects < 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &RedirectHandler{
		Logger:           log,
		MaxRedirects:     maxRedirects,
		SensitiveHeaders: []string{"Authorization", "Cookie"},
	}
}

// AddSensitiveHeader allows adding configurable sensitive headers.
func (r *RedirectHandler) AddSensitiveHeader(header string) {
	r.SensitiveHeaders = append(r.SensitiveHeaders, header)
}

// WithRedirectHandling applies the redirect handling policy to an http.Client.
func (r *RedirectHandler) WithRedirectHandling(client *http.Client) {
	client.CheckRedirect = r.checkRedirect
}

// checkRedirect implements the redirect handling logic. via holds the
// requests already made, oldest first.
func (r *RedirectHandler) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) == 0 {
		return nil
	}
	original := via[0]
	previous := via[len(via)-1]

	// A 307/308 would replay a non-idempotent call against another URL.
	if (original.Method == http.MethodPost || original.Method == http.MethodPatch) && req.Method == original.Method {
		r.Logger.Warn("Redirect attempted on non-idempotent method, not following",
			zap.String("method", req.Method),
			zap.String("location", req.URL.Redacted()),
		)
		return http.ErrUseLastResponse
	}

	if hasLoop(req.URL, via) {
		r.Logger.Warn("Redirect loop detected", zap.String("location", req.URL.Redacted()), zap.Int("redirect_count", len(via)))
		return http.ErrUseLastResponse
	}

	if len(via) > r.MaxRedirects {
		r.Logger.Warn("Maximum redirects reached", zap.Int("max_redirects", r.MaxRedirects))
		return http.ErrUseLastResponse
	}

	if req.URL.Host != previous.URL.Host {
		r.secureRequest(req)
	}

	r.Logger.Info("Redirecting request",
		zap.String("original_url", previous.URL.Redacted()),
		zap.String("new_url", req.URL.Redacted()),
		zap.Int("redirect_count", len(via)),
	)
	return nil
}

// secureRequest removes sensitive headers from the request if the new destination is a different host.
func (r *RedirectHandler) secureRequest(req *http.Request) {
	for _, header := range r.SensitiveHeaders {
		req.Header.Del(header)
	}
}

// hasLoop reports whether next was already requested.
func hasLoop(next *url.URL, via []*http.Request) bool {
	target := next.String()
	for _, prior := range via {
		if prior.URL.String() == target {
			return true
		}
	}
	return false
}

// SetupRedirectHandler installs a RedirectHandler on client.
func SetupRedirectHandler(client *http.Client, maxRedirects int, log logger.Logger) *RedirectHandler {
	redirectHandler := NewRedirectHandler(log, maxRedirects)
	redirectHandler.WithRedirectHandling(client)
	redirectHandler.Logger.Debug("Redirect handling enabled", zap.Int("max_redirects", redirectHandler.MaxRedirects))
	return redirectHandler
}
