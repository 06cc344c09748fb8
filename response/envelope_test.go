// response/envelope_test.go
package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		ok       bool
		code     int
		failed   bool
		dataJSON string
	}{
		{"Success", `{"code":0,"msg":"success","data":{"id":"om_1"}}`, true, 0, false, `{"id":"om_1"}`},
		{"BusinessFailure", `{"code":99991663,"msg":"Invalid access token for authorization."}`, true, 99991663, true, ""},
		{"TokenEndpoint", `{"code":0,"msg":"ok","tenant_access_token":"t-abc","expire":7200}`, true, 0, false, ""},
		{"NoCode", `{"message":"hello"}`, false, 0, false, ""},
		{"Array", `[1,2,3]`, false, 0, false, ""},
		{"HTML", `<html></html>`, false, 0, false, ""},
		{"Empty", ``, false, 0, false, ""},
		{"Broken", `{"code":`, false, 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := ParseEnvelope([]byte(tt.body))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, env.BusinessCode())
			assert.Equal(t, tt.failed, env.Failed())
			if tt.dataJSON != "" {
				assert.JSONEq(t, tt.dataJSON, string(env.Data))
			}
		})
	}
}

func TestParseEnvelopeErrorDetail(t *testing.T) {
	body := `{"code":1254001,"msg":"invalid param","error":{"log_id":"2024050112000001","troubleshooter":"https://open.feishu.cn/search?log_id=2024050112000001","field_violations":[{"field":"receive_id","description":"required"}]}}`

	env, ok := ParseEnvelope([]byte(body))
	require.True(t, ok)
	require.NotNil(t, env.Error)
	assert.Equal(t, "2024050112000001", env.Error.LogID)
	require.Len(t, env.Error.FieldViolations, 1)
	assert.Equal(t, "receive_id", env.Error.FieldViolations[0].Field)
}
