package node

import "fmt"

// Error is NodeModel's domain error type (spec §7).
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
	ErrCodeInvalidSDP       = "NODE_INVALID_SDP"
	ErrCodeDuplicateID      = "NODE_DUPLICATE_ID"
	ErrCodeInterfaceMissing = "NODE_INTERFACE_NOT_FOUND"
	ErrCodeNotFound         = "NODE_NOT_FOUND"
)

func newErr(code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}
