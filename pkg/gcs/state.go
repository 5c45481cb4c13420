package gcs

// LiteralIs is the three-valued result of testing a Literal against the
// current domains without mutating anything.
type LiteralIs int

const (
	// Undecided means the literal is neither proven true nor proven
	// false by the current domains.
	Undecided LiteralIs = iota
	// DefinitelyTrue means every remaining value satisfies the literal.
	DefinitelyTrue
	// DefinitelyFalse means no remaining value satisfies the literal.
	DefinitelyFalse
)

// changedEntry merges the HowChanged values observed for one variable
// since the scheduler last drained the changed set; Instantiated
// subsumes BoundsChanged which subsumes InteriorValuesChanged, matching
// §4.4 step 5's wake-up ordering.
func mergeHowChanged(existing, next HowChanged) HowChanged {
	return increaseTo(existing, next)
}

// State bundles a DomainStore with a guess stack and the bookkeeping the
// propagation scheduler needs: which variables changed since the last
// drain, and how. It also counts NewEpoch scopes not yet closed by
// Backtrack (OpenEpochs), the one RAII-style contract this package cannot
// get from the language automatically; it does not itself reject an
// unpaired call.
type State struct {
	store       *DomainStore
	guessStack  []Literal
	changed     map[SimpleIntegerVariableID]HowChanged
	changedKeys []SimpleIntegerVariableID // insertion order, for deterministic draining
	openEpochs  int
}

// NewState returns a State over a fresh, empty DomainStore.
func NewState() *State {
	return &State{store: NewDomainStore(), changed: map[SimpleIntegerVariableID]HowChanged{}}
}

// Store exposes the underlying DomainStore for read-only queries that
// don't need View/Constant resolution (e.g. proof encoding setup, which
// always operates on Simple/ProofOnly variables directly).
func (s *State) Store() *DomainStore { return s.store }

// CreateVariable allocates a new Simple variable with initial domain
// [lower, upper].
func (s *State) CreateVariable(lower, upper Integer) SimpleIntegerVariableID {
	return s.store.CreateVariable(lower, upper)
}

func (s *State) noteChanged(id SimpleIntegerVariableID, how HowChanged) {
	if how == Unchanged {
		return
	}
	if _, seen := s.changed[id]; !seen {
		s.changedKeys = append(s.changedKeys, id)
	}
	s.changed[id] = mergeHowChanged(s.changed[id], how)
}

// resolve maps a VariableID + target value onto the underlying Simple
// variable's coordinate space, applying View arithmetic, or reports that
// the VariableID is a Constant (ok=false, constant result computed
// immediately) or ProofOnly (ok=false, no domain to mutate).
func (s *State) resolve(v VariableID) (id SimpleIntegerVariableID, ok bool) {
	if simple, isSimple := v.IsSimple(); isSimple {
		return simple, true
	}
	if base, _, _, isView := v.IsView(); isView {
		return base, true
	}
	return 0, false
}

// InferGreaterOrEqual raises the lower bound of v to value, delegating
// through View arithmetic and resolving Constant variables immediately.
func (s *State) InferGreaterOrEqual(v VariableID, value Integer) HowChanged {
	if c, isConst := v.IsConstant(); isConst {
		if c >= value {
			return Unchanged
		}
		return Contradiction
	}
	id, ok := s.resolve(v)
	if !ok {
		return Unchanged // ProofOnly: no domain, nothing to tighten.
	}
	underlying, negated, _ := v.toUnderlying(value)
	var how HowChanged
	if negated {
		how = s.store.InferLessThan(id, underlying+1)
	} else {
		how = s.store.InferGreaterOrEqual(id, underlying)
	}
	s.noteChanged(id, how)
	return how
}

// InferLessThan lowers the upper bound of v so that value is excluded and
// everything above it too.
func (s *State) InferLessThan(v VariableID, value Integer) HowChanged {
	if c, isConst := v.IsConstant(); isConst {
		if c < value {
			return Unchanged
		}
		return Contradiction
	}
	id, ok := s.resolve(v)
	if !ok {
		return Unchanged
	}
	underlying, negated, _ := v.toUnderlying(value)
	var how HowChanged
	if negated {
		how = s.store.InferGreaterOrEqual(id, underlying+1)
	} else {
		how = s.store.InferLessThan(id, underlying)
	}
	s.noteChanged(id, how)
	return how
}

// InferEqual reduces the domain of v to exactly {value}.
func (s *State) InferEqual(v VariableID, value Integer) HowChanged {
	if c, isConst := v.IsConstant(); isConst {
		if c == value {
			return Unchanged
		}
		return Contradiction
	}
	id, ok := s.resolve(v)
	if !ok {
		return Unchanged
	}
	underlying, _, _ := v.toUnderlying(value)
	how := s.store.InferEqual(id, underlying)
	s.noteChanged(id, how)
	return how
}

// InferNotEqual removes value from the domain of v.
func (s *State) InferNotEqual(v VariableID, value Integer) HowChanged {
	if c, isConst := v.IsConstant(); isConst {
		if c != value {
			return Unchanged
		}
		return Contradiction
	}
	id, ok := s.resolve(v)
	if !ok {
		return Unchanged
	}
	underlying, _, _ := v.toUnderlying(value)
	how := s.store.InferNotEqual(id, underlying)
	s.noteChanged(id, how)
	return how
}

// Infer applies lit's condition using the matching primitive above. It is
// the single entry point InferenceTracker flavours call after deciding
// how (or whether) to log the inference.
func (s *State) Infer(lit Literal) HowChanged {
	cond, ok := lit.AsCondition()
	if !ok {
		if lit.IsFalse() {
			return Contradiction
		}
		return Unchanged
	}
	switch cond.Op {
	case OpGreaterEqual:
		return s.InferGreaterOrEqual(cond.Var, cond.Value)
	case OpLessThan:
		return s.InferLessThan(cond.Var, cond.Value)
	case OpEqual:
		return s.InferEqual(cond.Var, cond.Value)
	case OpNotEqual:
		return s.InferNotEqual(cond.Var, cond.Value)
	default:
		panic("unreachable condition operator")
	}
}

// LowerBound returns the current lower bound of v.
func (s *State) LowerBound(v VariableID) Integer {
	if c, ok := v.IsConstant(); ok {
		return c
	}
	id, ok := s.resolve(v)
	if !ok {
		return 0
	}
	if base, negate, shift, isView := v.IsView(); isView {
		_ = base
		if negate {
			return -s.store.Upper(id) + shift
		}
		return s.store.Lower(id) + shift
	}
	return s.store.Lower(id)
}

// UpperBound returns the current upper bound of v.
func (s *State) UpperBound(v VariableID) Integer {
	if c, ok := v.IsConstant(); ok {
		return c
	}
	id, ok := s.resolve(v)
	if !ok {
		return 0
	}
	if base, negate, shift, isView := v.IsView(); isView {
		_ = base
		if negate {
			return -s.store.Lower(id) + shift
		}
		return s.store.Upper(id) + shift
	}
	return s.store.Upper(id)
}

// InDomain reports whether value is currently in the domain of v.
func (s *State) InDomain(v VariableID, value Integer) bool {
	if c, ok := v.IsConstant(); ok {
		return c == value
	}
	id, ok := s.resolve(v)
	if !ok {
		return true
	}
	underlying, _, _ := v.toUnderlying(value)
	return s.store.Contains(id, underlying)
}

// OptionalSingleValue returns the unique value and true iff v's domain has
// exactly one remaining value.
func (s *State) OptionalSingleValue(v VariableID) (Integer, bool) {
	if c, ok := v.IsConstant(); ok {
		return c, true
	}
	id, ok := s.resolve(v)
	if !ok {
		return 0, false
	}
	if s.store.Size(id) != 1 {
		return 0, false
	}
	return v.fromUnderlying(s.store.Lower(id)), true
}

// DomainHasHoles reports whether v's domain has more than one interval.
func (s *State) DomainHasHoles(v VariableID) bool {
	id, ok := s.resolve(v)
	if !ok {
		return false
	}
	return s.store.HasHoles(id)
}

// ForEachValue calls f for every value currently in v's domain, in
// increasing order (decreasing, if v is a negated View). Modifying any
// domain from within f is forbidden; see ForEachValueMutable.
func (s *State) ForEachValue(v VariableID, f func(Integer)) {
	if c, ok := v.IsConstant(); ok {
		f(c)
		return
	}
	id, ok := s.resolve(v)
	if !ok {
		return
	}
	s.store.EachValue(id, func(stored Integer) { f(v.fromUnderlying(stored)) })
}

// ForEachValueMutable snapshots v's domain before iterating, so f may
// freely mutate it.
func (s *State) ForEachValueMutable(v VariableID, f func(Integer)) {
	var values []Integer
	s.ForEachValue(v, func(x Integer) { values = append(values, x) })
	for _, x := range values {
		f(x)
	}
}

// TestLiteral reports whether lit is definitely true, definitely false, or
// undecided under the current domains, without mutating anything.
func (s *State) TestLiteral(lit Literal) LiteralIs {
	if lit.IsTrue() {
		return DefinitelyTrue
	}
	if lit.IsFalse() {
		return DefinitelyFalse
	}
	cond, _ := lit.AsCondition()
	switch cond.Op {
	case OpGreaterEqual:
		if s.LowerBound(cond.Var) >= cond.Value {
			return DefinitelyTrue
		}
		if s.UpperBound(cond.Var) < cond.Value {
			return DefinitelyFalse
		}
	case OpLessThan:
		if s.UpperBound(cond.Var) < cond.Value {
			return DefinitelyTrue
		}
		if s.LowerBound(cond.Var) >= cond.Value {
			return DefinitelyFalse
		}
	case OpEqual:
		if v, ok := s.OptionalSingleValue(cond.Var); ok && v == cond.Value {
			return DefinitelyTrue
		}
		if !s.InDomain(cond.Var, cond.Value) {
			return DefinitelyFalse
		}
	case OpNotEqual:
		if !s.InDomain(cond.Var, cond.Value) {
			return DefinitelyTrue
		}
		if v, ok := s.OptionalSingleValue(cond.Var); ok && v == cond.Value {
			return DefinitelyFalse
		}
	}
	return Undecided
}

// LiteralIsNonfalsified reports whether lit is not DefinitelyFalse.
func (s *State) LiteralIsNonfalsified(lit Literal) bool {
	return s.TestLiteral(lit) != DefinitelyFalse
}

// Guess pushes lit onto the guess stack, stamping a new guess timestamp.
func (s *State) Guess(lit Literal) {
	s.guessStack = append(s.guessStack, lit)
	s.store.bumpGuessCount()
}

// ForEachGuess calls f for every literal currently on the guess stack, in
// the order they were guessed (outermost choice first).
func (s *State) ForEachGuess(f func(Literal)) {
	for _, lit := range s.guessStack {
		f(lit)
	}
}

// GuessStackAsLiterals returns a copy of the current guess stack, used by
// the LogUsingGuesses InferenceTracker flavour as a cheap Reason.
func (s *State) GuessStackAsLiterals() []Literal {
	out := make([]Literal, len(s.guessStack))
	copy(out, s.guessStack)
	return out
}

// NewEpoch opens a checkpoint scope. The caller must invoke Backtrack with
// the returned Timestamp on every exit path (normal return, error,
// contradiction) before this State is used again at the enclosing depth.
func (s *State) NewEpoch() Timestamp {
	s.openEpochs++
	ts := s.store.Checkpoint()
	return Timestamp{trailLength: ts.trailLength, guessCount: ts.guessCount}
}

// Backtrack closes the scope opened by the matching NewEpoch, restoring
// every domain mutated since, and truncating the guess stack back to the
// number of guesses recorded at ts.
func (s *State) Backtrack(ts Timestamp) {
	s.store.Backtrack(Timestamp{trailLength: ts.trailLength, guessCount: ts.guessCount})
	if int(ts.guessCount) <= len(s.guessStack) {
		s.guessStack = s.guessStack[:ts.guessCount]
	}
	s.openEpochs--
}

// OpenEpochs reports how many NewEpoch scopes are currently unbalanced by
// a matching Backtrack; tests use it to check that every scope was
// closed.
func (s *State) OpenEpochs() int { return s.openEpochs }

// DrainChanged calls f once for every (variable, HowChanged) pair observed
// since the last drain, in the order the variables first changed, then
// clears the changed set. This is the only way the propagation scheduler
// learns what moved.
func (s *State) DrainChanged(f func(SimpleIntegerVariableID, HowChanged)) {
	for _, id := range s.changedKeys {
		f(id, s.changed[id])
	}
	s.changed = map[SimpleIntegerVariableID]HowChanged{}
	s.changedKeys = nil
}
