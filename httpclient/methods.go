// httpclient/methods.go
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deploymenttheory/go-api-sdk-lark-core/authenticationhandler"
	"github.com/deploymenttheory/go-api-sdk-lark-core/errorcode"
	"github.com/deploymenttheory/go-api-sdk-lark-core/headers"
	"github.com/deploymenttheory/go-api-sdk-lark-core/response"
	"go.uber.org/zap"
)

// NewJSONRequest builds a RequestSpec whose body is body marshalled as JSON.
// A nil body sends no body.
func NewJSONRequest(method, path string, body any, scopes ...authenticationhandler.TokenScope) (RequestSpec, error) {
	spec := RequestSpec{
		Method: method,
		Path:   path,
		Scopes: scopes,
	}
	if body == nil {
		return spec, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return RequestSpec{}, errorcode.Wrap(errorcode.CodeInvalidRequest, err, fmt.Sprintf("failed to marshal request body: %v", err))
	}
	spec.Body = payload
	spec.ContentType = headers.ContentTypeJSON
	return spec, nil
}

// DoRequest executes spec and decodes the data block of a successful
// envelope into out. A nil out discards the payload. The returned outcome is
// the one Execute produced; a decode failure is returned as the error.
func (c *Client) DoRequest(ctx context.Context, spec RequestSpec, out any) (RequestOutcome, error) {
	outcome := c.Execute(ctx, spec)
	if !outcome.Succeeded() {
		return outcome, outcome.Err()
	}

	if err := response.HandleAPISuccessResponse(outcome.Header, spec.Method, outcome.Payload, out, c.Logger); err != nil {
		c.Logger.Warn("Failed to decode response payload", zap.String("method", spec.Method), zap.String("path", spec.Path), zap.Error(err))
		return outcome, errorcode.Wrap(errorcode.CodeMalformedResponse, err, err.Error())
	}
	return outcome, nil
}

// Do executes spec and decodes the envelope data into a new T.
//
// Example:
//
//	type chat struct {
//	    ChatID string `json:"chat_id"`
//	}
//	got, err := httpclient.Do[chat](ctx, client, httpclient.RequestSpec{
//	    Method: http.MethodGet,
//	    Path:   "/open-apis/im/v1/chats/oc_123",
//	    Scopes: []authenticationhandler.TokenScope{authenticationhandler.TenantScope("")},
//	})
func Do[T any](ctx context.Context, c *Client, spec RequestSpec) (*T, error) {
	out := new(T)
	if _, err := c.DoRequest(ctx, spec, out); err != nil {
		return nil, err
	}
	return out, nil
}
