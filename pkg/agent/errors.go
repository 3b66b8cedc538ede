package agent

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindNotInitialized     ErrorKind = "not_initialized"
	KindBackendError       ErrorKind = "backend_error"
	KindToolExecutionError ErrorKind = "tool_execution_error"
	KindCompressionError   ErrorKind = "compression_error"
)

// Error is the failure type returned by the Manager. Kind tells the caller
// how to recover; Err is the underlying cause when there is one.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is matching on kind.
var (
	ErrNotInitialized = &Error{Kind: KindNotInitialized}
	ErrBackend        = &Error{Kind: KindBackendError}
	ErrToolExecution  = &Error{Kind: KindToolExecutionError}
	ErrCompression    = &Error{Kind: KindCompressionError}
)

func newError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrBackend) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
