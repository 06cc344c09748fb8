// authenticationhandler/auth_oauth.go

/* Token exchanges against the open platform auth endpoints. Every exchange is
a JSON POST answered by a {code,msg,...} envelope. */

package authenticationhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/headers"
	"github.com/deploymenttheory/go-api-sdk-lark-core/headers/redact"
	"github.com/deploymenttheory/go-api-sdk-lark-core/response"
	"go.uber.org/zap"
)

// Token endpoint paths.
const (
	appAccessTokenInternalPath    = "/open-apis/auth/v3/app_access_token/internal"
	appAccessTokenPath            = "/open-apis/auth/v3/app_access_token"
	tenantAccessTokenInternalPath = "/open-apis/auth/v3/tenant_access_token/internal"
	tenantAccessTokenPath         = "/open-apis/auth/v3/tenant_access_token"
	appTicketResendPath           = "/open-apis/auth/v3/app_ticket/resend"
	userAccessTokenPath           = "/open-apis/authen/v1/oidc/access_token"
	userRefreshAccessTokenPath    = "/open-apis/authen/v1/oidc/refresh_access_token"
)

// accessTokenResponse is the body of the app and tenant token endpoints. The
// token fields sit next to code and msg.
type accessTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	AppAccessToken    string `json:"app_access_token,omitempty"`
	TenantAccessToken string `json:"tenant_access_token,omitempty"`
	Expire            int64  `json:"expire"` // Expire is the remaining validity in seconds.
}

// postJSON sends body to path and returns the raw response body once the
// envelope reports success. Every failure is an *errorcode.Error.
func (h *AuthTokenHandler) postJSON(ctx context.Context, path string, body any, bearer string) ([]byte, error) {
	endpoint := h.Credential.BaseURL + path

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errorcode.Wrap(errorcode.CodeInvalidRequest, err, "failed to encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errorcode.Wrap(errorcode.CodeInvalidRequest, err, "failed to create token request")
	}
	headerHandler := headers.NewHeaderHandler(req, h.Logger)
	headerHandler.SetStandardHeaders(headers.ContentTypeJSON)
	if bearer != "" {
		headerHandler.SetAuthorization(bearer)
	}

	h.Logger.Debug("Requesting token", zap.String("url", endpoint))

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errorcode.Wrap(errorcode.CodeCanceled, ctxErr, "token request cancelled")
		}
		return nil, errorcode.FromTransport(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorcode.FromTransport(err)
	}

	env, ok := response.ParseEnvelope(bodyBytes)
	if ok && env.Failed() {
		e := errorcode.New(errorcode.ResponseCode(resp.StatusCode, env.BusinessCode()), env.Msg)
		h.Logger.Warn("Token endpoint returned an error", append(e.Fields(), zap.String("url", endpoint), zap.String("log_id", headers.LogID(resp)))...)
		return nil, e
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := response.HandleAPIErrorResponse(resp, bodyBytes, h.Logger)
		return nil, errorcode.Wrap(resp.StatusCode, apiErr, apiErr.Message)
	}
	if !ok {
		return nil, errorcode.New(errorcode.CodeMalformedResponse, "token endpoint did not return a JSON envelope")
	}
	return bodyBytes, nil
}

// exchangeAccessToken posts to one of the app or tenant token endpoints and
// extracts the token selected by pick.
func (h *AuthTokenHandler) exchangeAccessToken(ctx context.Context, path string, body any, pick func(accessTokenResponse) string) (FetchedToken, error) {
	bodyBytes, err := h.postJSON(ctx, path, body, "")
	if err != nil {
		return FetchedToken{}, err
	}

	var tokenResp accessTokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return FetchedToken{}, errorcode.Wrap(errorcode.CodeMalformedResponse, err, "failed to decode token response")
	}

	value := pick(tokenResp)
	if value == "" {
		return FetchedToken{}, errorcode.New(errorcode.CodeMalformedResponse, "empty access token received")
	}

	validFor := time.Duration(tokenResp.Expire) * time.Second
	h.Logger.Debug("Access token obtained",
		zap.String("path", path),
		zap.String("AccessToken", redact.RedactSensitiveHeaderData(h.HideSensitiveData, "AccessToken", value)),
		zap.Duration("ExpiresIn", validFor),
	)
	return FetchedToken{Value: value, ValidFor: validFor}, nil
}

// fetchAppAccessToken obtains an app_access_token. Marketplace apps need an
// app_ticket; when none is stored a resend is requested and the exchange
// fails with CodeMissingAppTicket.
func (h *AuthTokenHandler) fetchAppAccessToken(ctx context.Context) (FetchedToken, error) {
	pick := func(r accessTokenResponse) string { return r.AppAccessToken }

	if h.Credential.AppType != AppTypeMarketplace {
		return h.exchangeAccessToken(ctx, appAccessTokenInternalPath, map[string]string{
			"app_id":     h.Credential.AppID,
			"app_secret": h.Credential.AppSecret,
		}, pick)
	}

	ticket, err := h.tickets.AppTicket(ctx, h.Credential.AppID)
	if err != nil {
		return FetchedToken{}, errorcode.Wrap(errorcode.CodeMissingAppTicket, err, "failed to read app_ticket")
	}
	if ticket == "" {
		h.requestAppTicketResend(ctx)
		return FetchedToken{}, errorcode.New(errorcode.CodeMissingAppTicket, fmt.Sprintf("no app_ticket stored for %s", h.Credential.AppID))
	}

	token, err := h.exchangeAccessToken(ctx, appAccessTokenPath, map[string]string{
		"app_id":     h.Credential.AppID,
		"app_secret": h.Credential.AppSecret,
		"app_ticket": ticket,
	}, pick)
	if e, ok := errorcode.AsError(err); ok && e.Code.Numeric == errorcode.CodeInvalidAppTicket {
		h.requestAppTicketResend(ctx)
	}
	return token, err
}

// fetchTenantAccessToken obtains a tenant_access_token. Self-built apps use
// their own credentials; marketplace apps exchange the app token for the
// installing tenant's token.
func (h *AuthTokenHandler) fetchTenantAccessToken(ctx context.Context, tenantKey string) (FetchedToken, error) {
	pick := func(r accessTokenResponse) string { return r.TenantAccessToken }

	if h.Credential.AppType != AppTypeMarketplace {
		return h.exchangeAccessToken(ctx, tenantAccessTokenInternalPath, map[string]string{
			"app_id":     h.Credential.AppID,
			"app_secret": h.Credential.AppSecret,
		}, pick)
	}

	if tenantKey == "" {
		return FetchedToken{}, errorcode.New(errorcode.CodeInvalidRequest, "marketplace apps need a tenant key for tenant tokens")
	}

	appToken, err := h.appAccessToken(ctx)
	if err != nil {
		return FetchedToken{}, err
	}

	token, err := h.exchangeAccessToken(ctx, tenantAccessTokenPath, map[string]string{
		"app_access_token": appToken.Value,
		"tenant_key":       tenantKey,
	}, pick)
	if err != nil {
		h.dropStaleAppToken(err, appToken.Value)
	}
	return token, err
}
