// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a pipeline action failed.
type FailureKind string

const (
	// FailureConnectionExhausted means the transport failed on every attempt.
	FailureConnectionExhausted FailureKind = "connection_exhausted"
	// FailureInvalidResponse means a payload could not be parsed.
	FailureInvalidResponse FailureKind = "invalid_response"
	// FailureCompletion means the completion service errored or was unreachable.
	FailureCompletion FailureKind = "completion_error"
	// FailureValidation means required user input was missing.
	FailureValidation FailureKind = "validation_error"
	// FailureUnknown covers anything else.
	FailureUnknown FailureKind = "unknown"
)

// Failure is the error type surfaced to users. Raw carries an unparseable
// payload when Kind is FailureInvalidResponse.
type Failure struct {
	Kind    FailureKind
	Message string
	Raw     string
	Err     error
}

func (f *Failure) Error() string {
	switch {
	case f.Message != "" && f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	case f.Message != "":
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a Failure with a formatted message.
func NewFailure(kind FailureKind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a FailureValidation with a formatted message.
func Validation(format string, args ...any) *Failure {
	return NewFailure(FailureValidation, nil, format, args...)
}

// KindOf returns the kind of the first Failure in err's chain, or
// FailureUnknown when err is not a Failure. A nil error has no kind.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnknown
}
