package connection

import "fmt"

// Error is ConnectionEngine's domain error type (spec §7).
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

const (
	ErrCodeNotFound        = "CONN_NOT_FOUND"
	ErrCodeInvalidPatch    = "CONN_INVALID_PATCH"
	ErrCodeInvalidActivation = "CONN_INVALID_ACTIVATION"
	ErrCodeInvalidSDP      = "CONN_INVALID_SDP"
)

func newErr(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}
