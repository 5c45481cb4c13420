package gcs

// InferenceTracker is the seam between State's domain-level inference and
// the proof machinery: every propagator inference passes through exactly
// one InferenceTracker, chosen once per Problem, which decides whether
// and how to turn the inference into a proof step. The four flavours
// trade proof-log size against how much of the trail a propagator author
// has to reconstruct by hand.
type InferenceTracker interface {
	// Record applies lit to state and, depending on the flavour, writes
	// or defers the proof step justifying it. It returns the resulting
	// HowChanged and, if the inference contradicted the domain, a
	// non-nil *Contradiction error the search driver should catch.
	Record(state *State, lit Literal, justification Justification, reason Reason) (HowChanged, error)

	// Mark and DiscardTo let the search driver undo buffered-but-unwritten
	// proof steps on backtrack; flavours that write eagerly implement
	// them as no-ops.
	Mark() int
	DiscardTo(mark int)
}

func contradictionFor(lit Literal) error {
	cond, ok := lit.AsCondition()
	if !ok {
		return &Contradiction{}
	}
	return &Contradiction{Reason: &cond}
}

// SimpleInferenceTracker applies inferences to the domain and never
// writes a proof; used when proof logging is disabled entirely.
type SimpleInferenceTracker struct{}

// NewSimpleInferenceTracker returns a tracker that performs no logging.
func NewSimpleInferenceTracker() *SimpleInferenceTracker { return &SimpleInferenceTracker{} }

func (t *SimpleInferenceTracker) Record(state *State, lit Literal, _ Justification, _ Reason) (HowChanged, error) {
	how := state.Infer(lit)
	if how == Contradiction {
		return how, contradictionFor(lit)
	}
	return how, nil
}

func (t *SimpleInferenceTracker) Mark() int      { return 0 }
func (t *SimpleInferenceTracker) DiscardTo(int) {}

// LogUsingGuessesInferenceTracker writes a proof step for every
// non-trivial inference immediately, justifying it under the current
// guess trail rather than an explicit reason set. It is the cheapest
// logging flavour to drive: a propagator author supplies no Reason at
// all and the logger asks the verifier to reconstruct the step from
// whatever is currently assumed.
type LogUsingGuessesInferenceTracker struct {
	logger *ProofLogger
}

// NewLogUsingGuessesInferenceTracker returns a tracker that logs eagerly
// under the guess trail.
func NewLogUsingGuessesInferenceTracker(logger *ProofLogger) *LogUsingGuessesInferenceTracker {
	return &LogUsingGuessesInferenceTracker{logger: logger}
}

func (t *LogUsingGuessesInferenceTracker) Record(state *State, lit Literal, justification Justification, _ Reason) (HowChanged, error) {
	how := state.Infer(lit)
	if how == Contradiction {
		t.logger.Infer(lit, justification, func() []Literal { return state.GuessStackAsLiterals() })
		return how, contradictionFor(lit)
	}
	if how != Unchanged {
		t.logger.Infer(lit, justification, func() []Literal { return state.GuessStackAsLiterals() })
	}
	return how, nil
}

func (t *LogUsingGuessesInferenceTracker) Mark() int    { return 0 }
func (t *LogUsingGuessesInferenceTracker) DiscardTo(int) {}

// LogUsingReasonsInferenceTracker writes a proof step for every
// non-trivial inference immediately, justifying it under the explicit
// Reason the propagator supplied. Reason must be non-nil when
// justification is JustifyUsingRUP or JustifyExplicitlyThenRUP; Record
// panics otherwise.
type LogUsingReasonsInferenceTracker struct {
	logger *ProofLogger
}

// NewLogUsingReasonsInferenceTracker returns a tracker that logs eagerly
// under explicit reasons.
func NewLogUsingReasonsInferenceTracker(logger *ProofLogger) *LogUsingReasonsInferenceTracker {
	return &LogUsingReasonsInferenceTracker{logger: logger}
}

func (t *LogUsingReasonsInferenceTracker) Record(state *State, lit Literal, justification Justification, reason Reason) (HowChanged, error) {
	if reason == nil && (justification.kind == justRUP || justification.kind == justExplicitThenRUP) {
		panic(NewProofLogicError("LogUsingReasonsInferenceTracker requires a Reason for RUP-justified inferences"))
	}
	how := state.Infer(lit)
	if how == Contradiction {
		t.logger.Infer(lit, justification, reason)
		return how, contradictionFor(lit)
	}
	if how != Unchanged {
		t.logger.Infer(lit, justification, reason)
	}
	return how, nil
}

func (t *LogUsingReasonsInferenceTracker) Mark() int    { return 0 }
func (t *LogUsingReasonsInferenceTracker) DiscardTo(int) {}

// bufferedInference is one deferred proof step awaiting either a flush
// (on contradiction, when the verifier actually needs the derivation) or
// a discard (on backtrack past the node that produced it).
type bufferedInference struct {
	lit           Literal
	justification Justification
	reason        Reason
}

// LazyProofGenerationInferenceTracker defers writing proof steps until a
// contradiction is actually reached, at which point the buffered steps
// along the current branch are flushed in order and the conclusion is
// drawn. This keeps the proof log free of derivations for branches that
// turn out to need no justification (most of the search tree, in
// practice), at the cost of holding the pending steps in memory. The
// buffer lives here rather than on State: State has no notion of
// "proof step", only of domain changes, and keeping the two concerns
// separate lets SimpleInferenceTracker skip the bookkeeping entirely.
type LazyProofGenerationInferenceTracker struct {
	logger *ProofLogger
	buffer []bufferedInference
}

// NewLazyProofGenerationInferenceTracker returns a tracker that defers
// proof writing until a contradiction forces it.
func NewLazyProofGenerationInferenceTracker(logger *ProofLogger) *LazyProofGenerationInferenceTracker {
	return &LazyProofGenerationInferenceTracker{logger: logger}
}

func (t *LazyProofGenerationInferenceTracker) Record(state *State, lit Literal, justification Justification, reason Reason) (HowChanged, error) {
	how := state.Infer(lit)
	if how == Unchanged {
		return how, nil
	}
	t.buffer = append(t.buffer, bufferedInference{lit: lit, justification: justification, reason: reason})
	if how == Contradiction {
		t.flush()
		return how, contradictionFor(lit)
	}
	return how, nil
}

func (t *LazyProofGenerationInferenceTracker) flush() {
	for _, b := range t.buffer {
		t.logger.Infer(b.lit, b.justification, b.reason)
	}
	t.buffer = t.buffer[:0]
}

// Mark returns a position in the pending buffer that DiscardTo can later
// roll back to, for use around NewEpoch/Backtrack pairs.
func (t *LazyProofGenerationInferenceTracker) Mark() int { return len(t.buffer) }

// DiscardTo drops every buffered step recorded after mark, because the
// branch that produced them was abandoned before it ever contradicted.
func (t *LazyProofGenerationInferenceTracker) DiscardTo(mark int) {
	if mark < len(t.buffer) {
		t.buffer = t.buffer[:mark]
	}
}
