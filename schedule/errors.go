/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All engine error types in one place. Callers classify errors with
  errors.Is / errors.As; the API layer maps classes to HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed caller input, never retried
  2. Store errors - infrastructure failures, safe to retry (writes are
     idempotent by key, reads are side-effect free)
  3. Duplicate-key signal - internal only, always resolved by the processor
     into an isDuplicate result and never surfaced to callers

SEE ALSO:
  - processor.go: Resolves ErrDuplicateIdempotencyKey internally
  - store.go: Store implementations wrap failures in StoreError
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the class of all caller-input errors.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateIdempotencyKey is returned by Store.Insert when a record
	// with the same idempotency key already exists. The processor resolves
	// this internally; it is never visible to API callers.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrStoreUnavailable is the class of transient store failures. The whole
	// submit or query call is safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError wraps an infrastructure failure from a Store implementation.
// No partial write is ever observable when one of these is returned.
type StoreError struct {
	Op  string // the store operation that failed, e.g. "insert"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return ErrStoreUnavailable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDuplicateKey returns true if the error signals an idempotency-key
// collision from the store.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
