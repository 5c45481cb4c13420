package gcs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Contradiction is the ordinary search-control-flow signal raised when a
// propagator infers False. It is not an error in the Go sense of "a bug
// happened" — catching it is the scheduler's normal job, and the search
// driver backtracks exactly one step in response. Use errors.As to detect
// it rather than string matching.
type Contradiction struct {
	// Reason, if non-nil, names the condition whose assertion failed.
	// It is optional: some contradictions (e.g. an empty guess list) have
	// no single literal to blame.
	Reason *VariableCondition
}

func (c *Contradiction) Error() string {
	if c.Reason == nil {
		return "gcs: contradiction"
	}
	return fmt.Sprintf("gcs: contradiction asserting %s", c.Reason)
}

// ErrTrackedPropagationFailed is returned by a propagator function to
// signal contradiction without constructing a *Contradiction value
// itself; the scheduler treats it identically to a HowChanged of
// Contradiction bubbling out of an inference primitive.
var ErrTrackedPropagationFailed = &Contradiction{}

// ModelError reports misuse of the model-construction API: a duplicate
// variable where uniqueness is required, a bound outside a declared
// range, or similar author mistakes caught at constraint-installation
// time (§7, "Model misuse"). ModelError wraps github.com/pkg/errors for
// stack context, since — unlike a Contradiction — it represents a bug the
// caller needs to go and fix, not a normal search event.
type ModelError struct {
	cause error
}

// NewModelError wraps msg (formatted like fmt.Sprintf) as a ModelError
// with a captured stack trace.
func NewModelError(format string, args ...any) *ModelError {
	return &ModelError{cause: errors.Errorf(format, args...)}
}

func (e *ModelError) Error() string { return e.cause.Error() }
func (e *ModelError) Unwrap() error { return e.cause }

// ProofLogicError reports a programmer error in how the proof machinery
// was driven: asking for a ProofFlag that was never allocated, forgetting
// the top proof level, finalising a ProofModel twice, and so on (§7,
// "Proof-log inconsistency"). These are
// always bugs in a propagator or in this package, never a consequence of
// the model being solved.
type ProofLogicError struct {
	cause error
}

// NewProofLogicError wraps msg as a ProofLogicError with a captured stack
// trace.
func NewProofLogicError(format string, args ...any) *ProofLogicError {
	return &ProofLogicError{cause: errors.Errorf(format, args...)}
}

func (e *ProofLogicError) Error() string { return e.cause.Error() }
func (e *ProofLogicError) Unwrap() error { return e.cause }
