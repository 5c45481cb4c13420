package gcs

import "fmt"

// SimpleIntegerVariableID is an index into the State's vector of stored
// domains. Indices are never reused within a Problem's lifetime, giving
// O(1) lookup, cheap copies and stable identifier semantics across proof
// emission (an arena-of-indices design).
type SimpleIntegerVariableID int

// ProofOnlyIntegerVariableID names a ghost quantity that exists only in
// the proof log — for example a circuit constraint's position variable —
// and has no slot in the DomainStore.
type ProofOnlyIntegerVariableID int

// ProofFlag is a fresh Boolean extension variable used only inside the
// proof, to name a conjunction or a reification. It never appears in the
// user model.
type ProofFlag struct {
	index    int
	Positive bool
}

// Negate returns the flag with polarity flipped; the index is shared.
func (f ProofFlag) Negate() ProofFlag {
	return ProofFlag{index: f.index, Positive: !f.Positive}
}

func (f ProofFlag) String() string {
	if f.Positive {
		return fmt.Sprintf("flag%d", f.index)
	}
	return fmt.Sprintf("~flag%d", f.index)
}

// variableIDKind discriminates the four VariableID variants described in
// §3 of the specification. Dispatch on a VariableID is always an explicit
// switch over this tag — never a type hierarchy.
type variableIDKind int

const (
	kindSimple variableIDKind = iota
	kindProofOnly
	kindConstant
	kindView
)

// VariableID is a tagged union over the four kinds of thing a constraint
// can refer to as if it were a variable:
//
//   - Simple: a stored variable with state in the DomainStore.
//   - ProofOnly: exists only in the proof log.
//   - Constant: a literal integer masquerading as a variable.
//   - View: a linear view (negate? a) + k over a Simple variable.
//
// VariableID is a small value type, safe to copy and to use as a map key.
type VariableID struct {
	kind     variableIDKind
	simple   SimpleIntegerVariableID
	proof    ProofOnlyIntegerVariableID
	constant Integer
	// view fields: the underlying Simple variable, whether it is negated,
	// and the additive offset applied after optional negation.
	viewOf    SimpleIntegerVariableID
	viewNeg   bool
	viewShift Integer
}

// SimpleVar wraps a SimpleIntegerVariableID as a VariableID.
func SimpleVar(id SimpleIntegerVariableID) VariableID {
	return VariableID{kind: kindSimple, simple: id}
}

// ProofOnlyVar wraps a ProofOnlyIntegerVariableID as a VariableID.
func ProofOnlyVar(id ProofOnlyIntegerVariableID) VariableID {
	return VariableID{kind: kindProofOnly, proof: id}
}

// ConstantVar returns a VariableID that always evaluates to value.
func ConstantVar(value Integer) VariableID {
	return VariableID{kind: kindConstant, constant: value}
}

// ViewVar returns a VariableID representing (negate? base) + shift over a
// Simple variable, without copying any domain state.
func ViewVar(base SimpleIntegerVariableID, negate bool, shift Integer) VariableID {
	return VariableID{kind: kindView, viewOf: base, viewNeg: negate, viewShift: shift}
}

// IsSimple reports whether v is a Simple variable, returning its id.
func (v VariableID) IsSimple() (SimpleIntegerVariableID, bool) {
	if v.kind == kindSimple {
		return v.simple, true
	}
	return 0, false
}

// IsConstant reports whether v is a Constant variable, returning its value.
func (v VariableID) IsConstant() (Integer, bool) {
	if v.kind == kindConstant {
		return v.constant, true
	}
	return 0, false
}

// IsView reports whether v is a View variable, returning its components.
func (v VariableID) IsView() (base SimpleIntegerVariableID, negate bool, shift Integer, ok bool) {
	if v.kind == kindView {
		return v.viewOf, v.viewNeg, v.viewShift, true
	}
	return 0, false, 0, false
}

// IsProofOnly reports whether v is a ProofOnly variable, returning its id.
func (v VariableID) IsProofOnly() (ProofOnlyIntegerVariableID, bool) {
	if v.kind == kindProofOnly {
		return v.proof, true
	}
	return 0, false
}

// toUnderlying translates a value expressed in View-space into the
// coordinate space of the Simple variable actually stored. ok is false
// for ProofOnly and Constant variables, which have no underlying domain
// to delegate to; callers resolve Constants before reaching here.
func (v VariableID) toUnderlying(value Integer) (underlying Integer, negate bool, ok bool) {
	switch v.kind {
	case kindSimple:
		return value, false, true
	case kindView:
		if v.viewNeg {
			return -(value - v.viewShift), true, true
		}
		return value - v.viewShift, false, true
	default:
		return 0, false, false
	}
}

// fromUnderlying translates a value expressed in the coordinate space of
// the underlying Simple variable back into View-space.
func (v VariableID) fromUnderlying(stored Integer) Integer {
	if v.viewNeg {
		return -stored + v.viewShift
	}
	return stored + v.viewShift
}

func (v VariableID) String() string {
	switch v.kind {
	case kindSimple:
		return fmt.Sprintf("v%d", int(v.simple))
	case kindProofOnly:
		return fmt.Sprintf("p%d", int(v.proof))
	case kindConstant:
		return v.constant.String()
	case kindView:
		if v.viewNeg {
			return fmt.Sprintf("(-v%d+%s)", int(v.viewOf), v.viewShift)
		}
		return fmt.Sprintf("(v%d+%s)", int(v.viewOf), v.viewShift)
	default:
		return "?"
	}
}
