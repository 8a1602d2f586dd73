package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Callers branch with
// errors.Is; messages are wrapped with the offending id at the call site.
var (
	// ErrNotFound: a board, conflict or resolution id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrTerminalState: a resolve/ignore was attempted on a conflict that is
	// already resolved, ignored or auto-resolved.
	ErrTerminalState = errors.New("conflict is already in a terminal state")

	// ErrDuplicateConflict: an active conflict already covers the same
	// (type, task set). Detection treats this as a silent no-op.
	ErrDuplicateConflict = errors.New("duplicate active conflict")
)

// ValidationError rejects malformed input before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateEffectiveness checks a user-supplied 1-5 rating.
func ValidateEffectiveness(rating int) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "effectiveness", Reason: fmt.Sprintf("rating %d outside 1-5", rating)}
	}
	return nil
}
