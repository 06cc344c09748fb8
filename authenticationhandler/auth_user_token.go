// authenticationhandler/auth_user_token.go
package authenticationhandler

import (
	"context"
	"time"

	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/headers/redact"
	"github.com/deploymenttheory/go-api-sdk-lark-core/response"
	"go.uber.org/zap"
)

// userAccessTokenData is the data block of the user token endpoints.
type userAccessTokenData struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type,omitempty"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
	Scope            string `json:"scope,omitempty"`
}

// fetchUserAccessToken exchanges a caller supplied artifact for a
// user_access_token. A refresh token rotated by an earlier exchange wins over
// the one in user, and either wins over the single use authorization code.
func (h *AuthTokenHandler) fetchUserAccessToken(ctx context.Context, user UserContext) (FetchedToken, error) {
	if user.UserID == "" {
		return FetchedToken{}, errorcode.New(errorcode.CodeInvalidRequest, "user scope needs a user id")
	}

	refreshToken := h.rememberedRefreshToken(user.UserID)
	if refreshToken == "" {
		refreshToken = user.RefreshToken
	}

	var (
		path string
		body map[string]string
	)
	switch {
	case refreshToken != "":
		path = userRefreshAccessTokenPath
		body = map[string]string{"grant_type": "refresh_token", "refresh_token": refreshToken}
	case user.AuthorizationCode != "":
		path = userAccessTokenPath
		body = map[string]string{"grant_type": "authorization_code", "code": user.AuthorizationCode}
	default:
		return FetchedToken{}, errorcode.New(errorcode.CodeMissingUserAuthorization, "no authorization code or refresh token supplied for user "+user.UserID)
	}

	appToken, err := h.appAccessToken(ctx)
	if err != nil {
		return FetchedToken{}, err
	}

	bodyBytes, err := h.postJSON(ctx, path, body, appToken.Value)
	if err != nil {
		h.dropStaleAppToken(err, appToken.Value)
		if e, ok := errorcode.AsError(err); ok && e.Code.Numeric == errorcode.CodeInvalidRefreshToken {
			h.forgetRefreshToken(user.UserID, refreshToken)
		}
		return FetchedToken{}, err
	}

	var data userAccessTokenData
	if err := response.DecodeEnvelopeData(bodyBytes, &data); err != nil {
		return FetchedToken{}, errorcode.Wrap(errorcode.CodeMalformedResponse, err, "failed to decode user token response")
	}
	if data.AccessToken == "" {
		return FetchedToken{}, errorcode.New(errorcode.CodeMalformedResponse, "empty user access token received")
	}

	if data.RefreshToken != "" && data.RefreshToken != refreshToken {
		h.rememberRefreshToken(user.UserID, data.RefreshToken)
	}

	validFor := time.Duration(data.ExpiresIn) * time.Second
	h.Logger.Debug("User access token obtained",
		zap.String("user_id", user.UserID),
		zap.String("AccessToken", redact.RedactSensitiveHeaderData(h.HideSensitiveData, "AccessToken", data.AccessToken)),
		zap.Duration("ExpiresIn", validFor),
	)
	return FetchedToken{Value: data.AccessToken, ValidFor: validFor, RefreshToken: data.RefreshToken}, nil
}

// RefreshTokenFor returns the latest refresh token rotated in for userID.
func (h *AuthTokenHandler) RefreshTokenFor(userID string) (string, bool) {
	token := h.rememberedRefreshToken(userID)
	return token, token != ""
}

func (h *AuthTokenHandler) rememberedRefreshToken(userID string) string {
	h.refreshLock.Lock()
	defer h.refreshLock.Unlock()
	return h.refreshTokens[userID]
}

func (h *AuthTokenHandler) rememberRefreshToken(userID, refreshToken string) {
	h.refreshLock.Lock()
	h.refreshTokens[userID] = refreshToken
	h.refreshLock.Unlock()

	if h.OnRefreshTokenRotated != nil {
		h.OnRefreshTokenRotated(userID, refreshToken)
	}
}

// forgetRefreshToken drops refreshToken if it is still the remembered one.
func (h *AuthTokenHandler) forgetRefreshToken(userID, refreshToken string) {
	h.refreshLock.Lock()
	defer h.refreshLock.Unlock()
	if h.refreshTokens[userID] == refreshToken {
		delete(h.refreshTokens, userID)
	}
}
