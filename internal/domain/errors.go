package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a flag could not be evaluated.
type FailureKind string

const (
	// FailureEmptyKey means the caller supplied a blank flag key.
	FailureEmptyKey FailureKind = "empty_key"

	// FailureTransport covers connection errors, DNS failures and timeouts.
	FailureTransport FailureKind = "transport"

	// FailureProtocol covers non-success statuses and undecodable or non-boolean bodies.
	FailureProtocol FailureKind = "protocol"
)

// -----------------------------
// EvaluationError
// -----------------------------

type EvaluationError struct {
	FlagKey    string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func NewEvaluationError(flagKey string, kind FailureKind, err error) *EvaluationError {
	return &EvaluationError{
		FlagKey: flagKey,
		Kind:    kind,
		Err:     err,
	}
}

func NewStatusError(flagKey string, statusCode int, body string) *EvaluationError {
	return &EvaluationError{
		FlagKey:    flagKey,
		Kind:       FailureProtocol,
		StatusCode: statusCode,
		Err:        fmt.Errorf("unexpected status %d: %s", statusCode, body),
	}
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluation error on flag %s (%s): %v", e.FlagKey, e.Kind, e.Err)
	}
	return fmt.Sprintf("evaluation error on flag %s (%s)", e.FlagKey, e.Kind)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or "" if err is not an EvaluationError.
func KindOf(err error) FailureKind {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return evalErr.Kind
	}
	return ""
}

func IsTransportFailure(err error) bool {
	return KindOf(err) == FailureTransport
}

func IsProtocolFailure(err error) bool {
	return KindOf(err) == FailureProtocol
}

// -----------------------------
// ValidationError
// -----------------------------

// ValidationError reports an invalid setting of an internal component.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}
