package caption

import (
	"errors"
	"fmt"
)

// Kind classifies a ServiceError.
type Kind string

const (
	// KindConfig means the service is not configured, usually a missing API key.
	KindConfig Kind = "config"
	// KindTransport means the remote call failed.
	KindTransport Kind = "transport"
	// KindResponse means the remote service answered with nothing usable.
	KindResponse Kind = "response"
	// KindInput means the request itself was incomplete.
	KindInput Kind = "input"
)

// FallbackExplanation is shown when a failure cannot be explained by the model.
const FallbackExplanation = "Failed to generate caption. Please check your API key and try again."

// ServiceError is returned by every Service operation.
type ServiceError struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewError creates a ServiceError without a cause.
func NewError(kind Kind, op, message string) *ServiceError {
	return &ServiceError{Kind: kind, Op: op, Message: message}
}

// Wrap attaches kind, op and message to err. An err that already carries a
// ServiceError is returned unchanged so the innermost classification wins.
func Wrap(kind Kind, op, message string, err error) *ServiceError {
	if err == nil {
		return nil
	}

	var typed *ServiceError
	if errors.As(err, &typed) {
		return typed
	}

	return &ServiceError{Kind: kind, Op: op, Message: message, Cause: err}
}

// WithMessage returns err with message as its user-facing text. The kind
// and op of a ServiceError in err are kept; other errors become transport
// errors of op.
func WithMessage(err error, op, message string) *ServiceError {
	if err == nil {
		return nil
	}

	kind := KindTransport
	var typed *ServiceError
	if errors.As(err, &typed) {
		kind, op = typed.Kind, typed.Op
	}
	return &ServiceError{Kind: kind, Op: op, Message: message, Cause: err}
}

// IsKind reports whether err carries a ServiceError of the given kind.
func IsKind(err error, kind Kind) bool {
	var typed *ServiceError
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

// Message returns the human-readable part of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var typed *ServiceError
	if errors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}
