// error.go
package errorcode

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Error is a classified failure. Token providers, the token cache and the
// request executor all return it so that callers inspect one shape.
type Error struct {
	Code     ErrorCode
	Message  string
	Attempts int
	Err      error
}

// New returns an Error classified from code.
func New(code int, message string) *Error {
	return &Error{Code: Classify(code), Message: message}
}

// Wrap returns an Error classified from code that wraps err.
func Wrap(code int, err error, message string) *Error {
	return &Error{Code: Classify(code), Message: message, Err: err}
}

// FromTransport classifies a transport level error.
func FromTransport(err error) *Error {
	return Wrap(ClassifyTransportError(err), err, err.Error())
}

// Error returns a string representation of the Error.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Description
	}
	if e.Attempts > 0 {
		return fmt.Sprintf("lark error (Category: %s, Code: %d, Attempts: %d): %s", e.Code.Category, e.Code.Numeric, e.Attempts, msg)
	}
	return fmt.Sprintf("lark error (Category: %s, Code: %d): %s", e.Code.Category, e.Code.Numeric, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Fields returns the diagnostics surface of the error as zap fields.
func (e *Error) Fields() []zap.Field {
	fields := e.Code.Fields()
	if e.Message != "" {
		fields = append(fields, zap.String("message", e.Message))
	}
	if e.Attempts > 0 {
		fields = append(fields, zap.Int("attempts", e.Attempts))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	return fields
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf classifies any error. An *Error in the chain wins, anything else is
// treated as a transport failure.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Classify(0)
	}
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return Classify(ClassifyTransportError(err))
}
