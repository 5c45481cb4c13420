package gcs

import "fmt"

// HowChanged is the four-valued (plus out-of-band Contradiction) result
// every inference primitive returns, letting propagators dispatch on
// bound-sensitive vs change-sensitive triggers without recomputing a diff
// of the whole domain.
type HowChanged int

const (
	// Unchanged means the operation had no effect on the domain.
	Unchanged HowChanged = iota
	// BoundsChanged means the lower and/or upper bound moved, but the
	// domain may still have more than one value.
	BoundsChanged
	// InteriorValuesChanged means a value strictly between the current
	// bounds was removed, with the bounds themselves untouched.
	InteriorValuesChanged
	// Instantiated means the domain was reduced to exactly one value.
	Instantiated
	// Contradiction is the out-of-band signal that the domain became
	// empty. IntervalSet's Erase, EraseLessThan, EraseGreaterThan and
	// Clear return it whenever they remove the last remaining value.
	Contradiction
)

func (h HowChanged) String() string {
	switch h {
	case Unchanged:
		return "unchanged"
	case BoundsChanged:
		return "bounds-changed"
	case InteriorValuesChanged:
		return "interior-values-changed"
	case Instantiated:
		return "instantiated"
	case Contradiction:
		return "contradiction"
	default:
		return "?"
	}
}

// increaseTo widens h to at least min, used when a single operation could
// be described by more than one HowChanged (e.g. an erase that is both a
// bounds change and leaves a singleton is reported as Instantiated, which
// is considered "more severe" than BoundsChanged).
func increaseTo(h HowChanged, min HowChanged) HowChanged {
	rank := func(x HowChanged) int {
		switch x {
		case Unchanged:
			return 0
		case InteriorValuesChanged:
			return 1
		case BoundsChanged:
			return 2
		case Instantiated:
			return 3
		default:
			return 4
		}
	}
	if rank(min) > rank(h) {
		return min
	}
	return h
}

// interval is a closed, inclusive range [lo, hi].
type interval struct {
	lo, hi Integer
}

// IntervalSet represents a domain as a sorted sequence of disjoint,
// non-adjacent closed intervals. It is a pure-value type: every mutating
// operation returns a HowChanged describing what happened, and mutates the
// receiver in place (IntervalSet is owned exclusively by one DomainStore
// slot at a time; sharing is achieved by the DomainStore's trail, not by
// the IntervalSet itself).
//
// Invariant: intervals[i].hi < intervals[i+1].lo - 1 for all i (a gap of
// at least one integer between consecutive intervals), and
// intervals[i].lo <= intervals[i].hi for every interval.
type IntervalSet struct {
	intervals []interval
}

// NewIntervalSet returns the single-interval domain [lower, upper]. It
// panics if lower > upper: an empty initial domain is a model-time error
// the caller must detect before constructing the set (see §7,
// "Unsatisfiable at model time").
func NewIntervalSet(lower, upper Integer) IntervalSet {
	if lower > upper {
		panic("gcs: NewIntervalSet requires lower <= upper")
	}
	return IntervalSet{intervals: []interval{{lo: lower, hi: upper}}}
}

// NewEmptyIntervalSet returns a domain with no values.
func NewEmptyIntervalSet() IntervalSet {
	return IntervalSet{}
}

// Empty reports whether the set has no values.
func (s IntervalSet) Empty() bool {
	return len(s.intervals) == 0
}

// Size returns the number of values represented, which is
// O(number-of-intervals), not O(range).
func (s IntervalSet) Size() Integer {
	var total Integer
	for _, iv := range s.intervals {
		total += iv.hi - iv.lo + 1
	}
	return total
}

// Lower returns the smallest value in the set. Behaviour is undefined if
// the set is empty.
func (s IntervalSet) Lower() Integer {
	return s.intervals[0].lo
}

// Upper returns the largest value in the set. Behaviour is undefined if
// the set is empty.
func (s IntervalSet) Upper() Integer {
	return s.intervals[len(s.intervals)-1].hi
}

// HasHoles reports whether the set is split across more than one interval.
func (s IntervalSet) HasHoles() bool {
	return len(s.intervals) > 1
}

// Contains reports whether value is a member of the set. It runs in
// O(number-of-intervals); intervals are searched in increasing order and
// the search stops as soon as it passes value.
func (s IntervalSet) Contains(value Integer) bool {
	for _, iv := range s.intervals {
		if value < iv.lo {
			return false
		}
		if value <= iv.hi {
			return true
		}
	}
	return false
}

// Clear empties the set and returns HowChanged: Contradiction if the set
// had any values, Unchanged if it was already empty.
func (s *IntervalSet) Clear() HowChanged {
	if len(s.intervals) == 0 {
		return Unchanged
	}
	s.intervals = nil
	return Contradiction
}

// Erase removes a single value and reports how the set changed.
func (s *IntervalSet) Erase(value Integer) HowChanged {
	for i := range s.intervals {
		iv := s.intervals[i]
		if value < iv.lo {
			return Unchanged
		}
		if value > iv.hi {
			continue
		}
		// value is within this interval.
		atBound := value == s.Lower() || value == s.Upper()
		switch {
		case iv.lo == iv.hi:
			// Singleton interval disappears entirely.
			s.intervals = append(s.intervals[:i], s.intervals[i+1:]...)
		case value == iv.lo:
			s.intervals[i].lo++
		case value == iv.hi:
			s.intervals[i].hi--
		default:
			// Interior erase splits the interval in two.
			left := interval{lo: iv.lo, hi: value - 1}
			right := interval{lo: value + 1, hi: iv.hi}
			s.intervals[i] = left
			tail := append([]interval{right}, s.intervals[i+1:]...)
			s.intervals = append(s.intervals[:i+1], tail...)
			return InteriorValuesChanged
		}
		how := boundsOrInstantiated(s)
		if how == BoundsChanged && !atBound {
			return InteriorValuesChanged
		}
		return how
	}
	return Unchanged
}

// boundsOrInstantiated is the common tail of the three Erase cases that
// can legally shrink the set to a single remaining value: removing an
// endpoint, or removing the last element of a singleton interval.
func boundsOrInstantiated(s *IntervalSet) HowChanged {
	if len(s.intervals) == 0 {
		return Contradiction
	}
	if len(s.intervals) == 1 && s.intervals[0].lo == s.intervals[0].hi {
		return Instantiated
	}
	return BoundsChanged
}

// EraseLessThan removes every value strictly less than value (raising the
// lower bound to value if it was lower).
func (s *IntervalSet) EraseLessThan(value Integer) HowChanged {
	idx := 0
	for idx < len(s.intervals) && s.intervals[idx].hi < value {
		idx++
	}
	if idx == len(s.intervals) {
		empty := len(s.intervals) > 0
		s.intervals = nil
		if empty {
			return Contradiction
		}
		return Unchanged
	}
	changed := idx > 0
	if s.intervals[idx].lo < value {
		s.intervals[idx].lo = value
		changed = true
	}
	if idx > 0 {
		s.intervals = s.intervals[idx:]
	}
	if !changed {
		return Unchanged
	}
	return boundsOrInstantiated(s)
}

// EraseGreaterThan removes every value strictly greater than value
// (lowering the upper bound to value if it was higher).
func (s *IntervalSet) EraseGreaterThan(value Integer) HowChanged {
	idx := len(s.intervals) - 1
	for idx >= 0 && s.intervals[idx].lo > value {
		idx--
	}
	if idx < 0 {
		empty := len(s.intervals) > 0
		s.intervals = nil
		if empty {
			return Contradiction
		}
		return Unchanged
	}
	changed := idx < len(s.intervals)-1
	if s.intervals[idx].hi > value {
		s.intervals[idx].hi = value
		changed = true
	}
	s.intervals = s.intervals[:idx+1]
	if !changed {
		return Unchanged
	}
	return boundsOrInstantiated(s)
}

// AppendAtEnd appends [lower, upper] to the set, merging with the current
// final interval if adjacent. It is for construction only: lower must be
// greater than the current Upper()+1 minus one, i.e. the set must already
// be sorted and disjoint before and after the append. Used by decoders
// that build up a domain from a sorted list of ranges.
func (s *IntervalSet) AppendAtEnd(lower, upper Integer) {
	if lower > upper {
		panic("gcs: AppendAtEnd requires lower <= upper")
	}
	if len(s.intervals) == 0 {
		s.intervals = append(s.intervals, interval{lo: lower, hi: upper})
		return
	}
	last := &s.intervals[len(s.intervals)-1]
	if last.hi == lower-1 {
		last.hi = upper
		return
	}
	s.intervals = append(s.intervals, interval{lo: lower, hi: upper})
}

// Clone returns an independent copy of the set.
func (s IntervalSet) Clone() IntervalSet {
	if len(s.intervals) == 0 {
		return IntervalSet{}
	}
	cp := make([]interval, len(s.intervals))
	copy(cp, s.intervals)
	return IntervalSet{intervals: cp}
}

// EachValue calls f for every value in the set in increasing order.
// Modifying the receiver from within f is forbidden (mirroring
// State.for_each_value's invariant); use EachValueMutable for that.
func (s IntervalSet) EachValue(f func(Integer)) {
	for _, iv := range s.intervals {
		for v := iv.lo; v <= iv.hi; v++ {
			f(v)
		}
	}
}

// EachValueMutable snapshots the current values before iterating, so f may
// freely erase from the IntervalSet that produced the snapshot.
func (s IntervalSet) EachValueMutable(f func(Integer)) {
	values := make([]Integer, 0, s.Size())
	s.EachValue(func(v Integer) { values = append(values, v) })
	for _, v := range values {
		f(v)
	}
}

// EachInterval calls f with (lower, upper) for every interval in order.
func (s IntervalSet) EachInterval(f func(lower, upper Integer)) {
	for _, iv := range s.intervals {
		f(iv.lo, iv.hi)
	}
}

// EachGap calls f for every value strictly between two consecutive
// intervals (i.e. every "hole" in the domain).
func (s IntervalSet) EachGap(f func(Integer)) {
	for i := 0; i+1 < len(s.intervals); i++ {
		for v := s.intervals[i].hi + 1; v < s.intervals[i+1].lo; v++ {
			f(v)
		}
	}
}

// EachGapInterval calls f with (lower, upper) for every maximal gap
// between consecutive intervals.
func (s IntervalSet) EachGapInterval(f func(lower, upper Integer)) {
	for i := 0; i+1 < len(s.intervals); i++ {
		f(s.intervals[i].hi+1, s.intervals[i+1].lo-1)
	}
}

// IntervalCount returns the number of disjoint intervals.
func (s IntervalSet) IntervalCount() int {
	return len(s.intervals)
}

func (s IntervalSet) String() string {
	if len(s.intervals) == 0 {
		return "{}"
	}
	out := "{"
	for i, iv := range s.intervals {
		if i > 0 {
			out += ","
		}
		if iv.lo == iv.hi {
			out += fmt.Sprintf("%d", int64(iv.lo))
		} else {
			out += fmt.Sprintf("%d..%d", int64(iv.lo), int64(iv.hi))
		}
	}
	return out + "}"
}
