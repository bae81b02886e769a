package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying domain failures. Handlers map these to HTTP
// status codes in internal/response.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrGateway        = errors.New("payment gateway error")
	ErrUnmappedStatus = errors.New("unmapped provider status")
)

// DomainError carries a sentinel classification together with a human-readable
// message and optional structured detail.
type DomainError struct {
	Err     error
	Message string
	Detail  any
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing entity by type and identifier.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewConflictError reports a conflicting write. Detail may carry the colliding
// slots so the caller can re-pick.
func NewConflictError(message string, detail any) *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Message: message,
		Detail:  detail,
	}
}

// NewValidationError reports malformed input. Detail enumerates the offending
// fields.
func NewValidationError(message string, fields ...string) *DomainError {
	var detail any
	if len(fields) > 0 {
		detail = fields
	}
	return &DomainError{
		Err:     ErrValidation,
		Message: message,
		Detail:  detail,
	}
}

// NewInvalidStateError reports a transition that the state machine forbids.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewGatewayError reports a failed call to the external payment provider.
// The raw provider response is kept in Detail for diagnosis, never surfaced
// as a successful state.
func NewGatewayError(message string, raw string) *DomainError {
	return &DomainError{
		Err:     ErrGateway,
		Message: message,
		Detail:  raw,
	}
}
