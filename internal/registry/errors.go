package registry

import (
	"errors"
	"fmt"
)

// Kind classifies registry failures so the handler boundary can map them
// to HTTP responses uniformly.
type Kind int

const (
	// KindValidation marks missing or malformed input.
	KindValidation Kind = iota
	// KindConflict marks an attempt to register an already existing name.
	KindConflict
	// KindEncodingFailure marks face detection/encoding failures.
	KindEncodingFailure
	// KindIOFailure marks filesystem or database failures.
	KindIOFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindEncodingFailure:
		return "encoding_failure"
	case KindIOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// Error is a classified registry failure with an operator-facing message.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewValidationError builds a validation error with an operator-facing
// message. Used by handlers for failures before the service is reached.
func NewValidationError(message string) *Error {
	return newError(KindValidation, message)
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// KindOf returns the Kind of a registry error, or KindIOFailure for any
// other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIOFailure
}
