// response/envelope.go
package response

import (
	"bytes"
	"encoding/json"
)

// Envelope is the common body of every open platform response:
// {"code":0,"msg":"success","data":{...}}. Token endpoints put their fields
// next to code and msg instead of under data.
type Envelope struct {
	Code  *int            `json:"code"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail carries the troubleshooting block attached to failed calls.
type ErrorDetail struct {
	LogID           string           `json:"log_id,omitempty"`
	Troubleshooter  string           `json:"troubleshooter,omitempty"`
	FieldViolations []FieldViolation `json:"field_violations,omitempty"`
}

// FieldViolation names a rejected request field.
type FieldViolation struct {
	Field       string `json:"field,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// BusinessCode returns the envelope code, 0 when absent.
func (e Envelope) BusinessCode() int {
	if e.Code == nil {
		return 0
	}
	return *e.Code
}

// HasCode reports whether the body carried a code field.
func (e Envelope) HasCode() bool {
	return e.Code != nil
}

// Failed reports whether the envelope carries a non-zero code.
func (e Envelope) Failed() bool {
	return e.BusinessCode() != 0
}

// ParseEnvelope decodes body as an Envelope. ok is false when body is not a
// JSON object or has no code field.
func ParseEnvelope(body []byte) (env Envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, false
	}
	return env, env.HasCode()
}
