package gcs

import roaring "github.com/RoaringBitmap/roaring/v2"

// triggerKindOrder fixes the order DrainChanged's callback considers a
// changed variable's trigger groups in, so that a variable satisfying more
// than one TriggerKind at once (e.g. Instantiated satisfies OnChange,
// OnBounds, and OnInstantiated together) enqueues its propagators in the
// same relative order on every run, not whatever order map iteration
// happens to produce.
var triggerKindOrder = [...]TriggerKind{TriggerOnChange, TriggerOnBounds, TriggerOnInstantiated}

// TriggerKind selects which category of domain change wakes a
// propagator: any change at all, a change to either bound (including
// instantiation), or instantiation alone. Picking the narrowest trigger
// that is still correct for a propagator is what keeps the fixed-point
// loop from re-examining constraints that cannot possibly have anything
// new to infer.
type TriggerKind int

const (
	TriggerOnChange TriggerKind = iota
	TriggerOnBounds
	TriggerOnInstantiated
)

func (k TriggerKind) matches(how HowChanged) bool {
	switch k {
	case TriggerOnChange:
		return how != Unchanged
	case TriggerOnBounds:
		return how == BoundsChanged || how == Instantiated
	case TriggerOnInstantiated:
		return how == Instantiated
	default:
		return false
	}
}

// Trigger names one (variable, kind) pair a propagator should be woken
// by.
type Trigger struct {
	Var  SimpleIntegerVariableID
	Kind TriggerKind
}

// PropagatorFunc is a constraint's propagation step: given the current
// state and the tracker to route inferences through, it prunes whatever
// it can and returns a non-nil error (ordinarily a *Contradiction) if the
// domain it is examining became empty.
type PropagatorFunc func(state *State, tracker InferenceTracker) error

// PropagatorID identifies a propagator within a Propagators set, stable
// for the set's lifetime.
type PropagatorID int

type propagatorRecord struct {
	name     string
	fn       PropagatorFunc
	triggers []Trigger
}

// Propagators holds every propagator posted against a Problem, the
// inverted index from (variable, trigger kind) to the propagators it
// wakes, and the worklist that drives the fixed-point loop. Propagators
// can only be installed before the first call to RunToFixpoint; this
// mirrors the original engine's restriction that the constraint set is
// fixed once search begins, which is what lets the inverted index be
// built once and never touched again.
type Propagators struct {
	records []*propagatorRecord
	byVar   map[SimpleIntegerVariableID]map[TriggerKind][]PropagatorID

	disabled      map[PropagatorID]bool
	disabledTrail []PropagatorID

	searchStarted bool

	// queue is the fixed-point worklist, kept as a roaring bitmap of
	// pending PropagatorIDs rather than a FIFO slice: spec.md §4.4
	// mandates a priority queue keyed by propagator index, always running
	// the lowest-index scheduled propagator next, mirroring the original
	// engine's std::set<int>-backed propagation_queue (which repeatedly
	// takes .begin(), its minimum element). A propagator enqueued more
	// than once before it next runs still only runs once, in index order,
	// never in arrival order.
	queue *roaring.Bitmap
}

// NewPropagators returns an empty propagator set.
func NewPropagators() *Propagators {
	return &Propagators{
		byVar:    map[SimpleIntegerVariableID]map[TriggerKind][]PropagatorID{},
		disabled: map[PropagatorID]bool{},
		queue:    roaring.New(),
	}
}

// Install registers a propagator woken by triggers, returning its ID.
// Panics if called after the first RunToFixpoint: installing a
// propagator mid-search would leave the inverted index and any
// in-flight worklist inconsistent.
func (p *Propagators) Install(name string, triggers []Trigger, fn PropagatorFunc) PropagatorID {
	if p.searchStarted {
		panic(NewModelError("cannot install propagator %q: search has already started", name))
	}
	id := PropagatorID(len(p.records))
	p.records = append(p.records, &propagatorRecord{name: name, fn: fn, triggers: triggers})
	for _, tr := range triggers {
		perKind, ok := p.byVar[tr.Var]
		if !ok {
			perKind = map[TriggerKind][]PropagatorID{}
			p.byVar[tr.Var] = perKind
		}
		perKind[tr.Kind] = append(perKind[tr.Kind], id)
	}
	return id
}

// Count returns how many propagators are installed.
func (p *Propagators) Count() int { return len(p.records) }

// Name returns the diagnostic name a propagator was installed with.
func (p *Propagators) Name(id PropagatorID) string { return p.records[id].name }

// DisableUntilBacktrack suspends a propagator: it is skipped by
// RunToFixpoint and by trigger-based wake-ups until either EnableNow is
// called or the search backtracks past the point DisableUntilBacktrack
// was called at. This is how a propagator that has proven itself
// entailed (e.g. an AllDifferent pair that is already provably distinct)
// avoids being re-examined on every node below it.
func (p *Propagators) DisableUntilBacktrack(id PropagatorID) {
	if p.disabled[id] {
		return
	}
	p.disabled[id] = true
	p.disabledTrail = append(p.disabledTrail, id)
}

// EnableNow re-enables a propagator immediately, without waiting for a
// backtrack.
func (p *Propagators) EnableNow(id PropagatorID) {
	if !p.disabled[id] {
		return
	}
	delete(p.disabled, id)
}

// Checkpoint returns a mark Backtrack can later restore the disabled set
// to, for pairing with State.NewEpoch at the same search node.
func (p *Propagators) Checkpoint() int { return len(p.disabledTrail) }

// Backtrack re-enables every propagator that was disabled after mark.
func (p *Propagators) Backtrack(mark int) {
	for i := len(p.disabledTrail) - 1; i >= mark; i-- {
		delete(p.disabled, p.disabledTrail[i])
	}
	p.disabledTrail = p.disabledTrail[:mark]
}

func (p *Propagators) enqueue(id PropagatorID) {
	if p.disabled[id] {
		return
	}
	p.queue.Add(uint32(id))
}

// RunToFixpoint repeatedly runs the lowest-index queued propagator until
// none has anything left to infer: every enabled propagator starts
// queued, and completing one enqueues whatever its changes woke, so the
// loop terminates exactly when a domain fixed point is reached. It
// returns the first contradiction encountered, if any, and otherwise
// nil.
func (p *Propagators) RunToFixpoint(state *State, tracker InferenceTracker) error {
	p.searchStarted = true
	p.queue.Clear()
	for id := range p.records {
		p.enqueue(PropagatorID(id))
	}

	for !p.queue.IsEmpty() {
		id := PropagatorID(p.queue.Minimum())
		p.queue.Remove(uint32(id))
		if p.disabled[id] {
			continue
		}
		if err := p.records[id].fn(state, tracker); err != nil {
			return err
		}
		state.DrainChanged(func(v SimpleIntegerVariableID, how HowChanged) {
			perKind, ok := p.byVar[v]
			if !ok {
				return
			}
			for _, kind := range triggerKindOrder {
				if !kind.matches(how) {
					continue
				}
				for _, wake := range perKind[kind] {
					p.enqueue(wake)
				}
			}
		})
	}
	return nil
}
