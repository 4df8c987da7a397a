package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in the shell.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001

	// Lifecycle
	ErrCodeInvalidTransition ErrorCode = 2001
	ErrCodeContextMissing    ErrorCode = 2002
	ErrCodeSerialization     ErrorCode = 2003

	// Window stage
	ErrCodeWindowConfig ErrorCode = 3001
	ErrCodeContentLoad  ErrorCode = 3002

	// Permissions
	ErrCodePermission ErrorCode = 4001

	// Host capability panicked inside an async chain
	ErrCodePanic ErrorCode = 5001
)

// ShellError is a structured error carrying an error code, the operation being
// performed, and the underlying cause.
type ShellError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *ShellError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ShellError) Unwrap() error {
	return e.Err
}

// New creates a new ShellError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &ShellError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// HostCoder is implemented by errors reported by the host runtime that carry
// a numeric result code.
type HostCoder interface {
	HostCode() int
}

// CodeOf returns the host-reported numeric code found in err's chain.
// It falls back to the ShellError code, and to 0 when neither is present.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var hc HostCoder
	if stderrors.As(err, &hc) {
		return hc.HostCode()
	}
	var se *ShellError
	if stderrors.As(err, &se) {
		return int(se.Code)
	}
	return 0
}

// Is reports whether err carries the given ShellError code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var se *ShellError
	for err != nil {
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Err
	}
	return false
}

// Personal.AI order the ending
