package gcs

// Reason is a lazily-evaluated thunk producing the set of literals that,
// together with the constraint that owns it, forces an inference. It is
// only invoked when a proof is actually being written and the active
// InferenceTracker flavour needs it (LogUsingReasons, and
// LazyProofGeneration if the branch survives to a contradiction).
type Reason func() []Literal

// NoReason is the Reason used alongside NoJustificationNeeded or
// JustifyUsingAssertion, where no explicit reason set is required.
func NoReason() []Literal { return nil }

// justificationKind discriminates the five Justification variants.
type justificationKind int

const (
	justNone justificationKind = iota
	justRUP
	justAssertion
	justExplicit
	justExplicitThenRUP
)

// ExplicitProofWriter is supplied by a propagator author to write
// arbitrary proof steps before the conclusion is emitted. It receives the
// ProofLogger so it can call emit_proof_line/emit_rup_proof_line/etc.
// directly, and the ProofLevel the steps should be tagged at.
type ExplicitProofWriter func(logger *ProofLogger, level ProofLevel)

// Justification selects how the proof logger will justify an inference:
//
//   - NoJustificationNeeded: the fact follows from the model alone.
//   - JustifyUsingRUP: reconstructed by reverse unit propagation.
//   - JustifyUsingAssertion: self-evident from the arithmetic encoding.
//   - JustifyExplicitly: propagator supplies a closure writing proof steps.
//   - JustifyExplicitlyThenRUP: explicit steps, then a RUP conclusion.
type Justification struct {
	kind     justificationKind
	explicit ExplicitProofWriter
}

// NoJustificationNeeded is used only when proofs are disabled, or when a
// top-level pseudo-Boolean constraint already implies the inference in
// one RUP step.
func NoJustificationNeeded() Justification { return Justification{kind: justNone} }

// JustifyUsingRUP asks the logger to reconstruct the inference by reverse
// unit propagation over the current accumulated constraints.
func JustifyUsingRUP() Justification { return Justification{kind: justRUP} }

// JustifyUsingAssertion marks the inference as self-evident from the
// arithmetic encoding (used for definitional steps, e.g. bit-sum
// equalities).
func JustifyUsingAssertion() Justification { return Justification{kind: justAssertion} }

// JustifyExplicitly supplies a closure that writes arbitrary proof steps;
// the logger invokes it and writes no concluding line of its own, so the
// closure's steps are the whole justification.
func JustifyExplicitly(f ExplicitProofWriter) Justification {
	return Justification{kind: justExplicit, explicit: f}
}

// JustifyExplicitlyThenRUP supplies explicit supporting lines followed by
// a RUP conclusion.
func JustifyExplicitlyThenRUP(f ExplicitProofWriter) Justification {
	return Justification{kind: justExplicitThenRUP, explicit: f}
}
