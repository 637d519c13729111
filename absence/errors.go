/*
errors.go - Centralized error types for the absence engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Callers branch on sentinels with errors.Is; structured types carry the
  detail needed to build a useful response.

ERROR CATEGORIES:
  1. ValidationError  - one or more admission rule violations, recoverable
     by correcting the input; never partially applied
  2. AuthorizationError - the actor may not act on the current stage; fatal
     to the attempted action, no retry without a role/ownership change
  3. StaleState - a concurrent transition won the compare-and-swap; the
     caller should re-fetch and retry
  4. NotFound - unknown employee, request or policy id

All errors are returned synchronously. The engine performs no automatic
retries; retry policy belongs to the calling collaborator.

SEE ALSO:
  - validator.go: Produces ValidationError
  - workflow.go: Produces AuthorizationError and StaleState
*/
package absence

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced employee, request or
	// policy rule does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleState is returned when a state transition loses the
	// compare-and-swap on (status, stage). Re-fetch and retry.
	ErrStaleState = errors.New("stale state: request was modified concurrently")

	// ErrNotAuthorized is returned when an actor attempts an action the
	// current stage does not permit them. No state change, no event.
	ErrNotAuthorized = errors.New("actor not authorized for current stage")

	// ErrTerminalRequest is returned when any action targets a request
	// already approved or rejected. Terminal requests are read-only.
	ErrTerminalRequest = errors.New("request is terminal")

	// ErrInvalidAction is returned for transitions the state machine does
	// not define, e.g. an advance at the final stage.
	ErrInvalidAction = errors.New("invalid action for current stage")

	// ErrValidationFailed wraps one or more admission violations.
	ErrValidationFailed = errors.New("request validation failed")

	// ErrBadCredentials is returned by the bare credential check.
	ErrBadCredentials = errors.New("invalid email or password")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies what was missing.
type NotFoundError struct {
	Kind string // "employee", "request", "policy"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthorizationError explains why an actor was refused.
type AuthorizationError struct {
	ActorID   string
	RequestID string
	Stage     Stage
	Reason    string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s may not act on request %s at stage %s: %s",
		e.ActorID, e.RequestID, e.Stage, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return ErrNotAuthorized }

// StaleStateError reports a lost compare-and-swap with the versions involved.
type StaleStateError struct {
	RequestID       string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("request %s changed concurrently (expected version %d, found %d)",
		e.RequestID, e.ExpectedVersion, e.ActualVersion)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

// ValidationError aggregates every violated admission rule so the caller
// can show a complete error list. Validation never short-circuits.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return "validation failed: " + strings.Join(codes, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// FieldError reports an invariant violation on a single field, e.g. a
// supervisor reference that is not a supervisor.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Field errors are recoverable by correcting the input, same as admission
// violations.
func (e *FieldError) Unwrap() error { return ErrValidationFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
// Only stale-state conflicts qualify; everything else needs a change of
// input or of actor.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleState)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrBadCredentials)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthorization returns true for stage/role refusals, including actions
// against terminal requests.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrTerminalRequest)
}
