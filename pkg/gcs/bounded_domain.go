package gcs

import roaring "github.com/RoaringBitmap/roaring/v2"

// boundedDomain is the storage-agnostic contract a DomainStore slot must
// satisfy. §3 of the specification leaves the concrete representation an
// implementation choice as long as observable semantics match; this
// package offers two: an IntervalSet (good for domains with few,
// possibly wide, intervals) and a roaring-bitmap-backed bitmask (good for
// small, dense, hole-ridden ranges). There is no separate single-value
// representation; a fixed variable uses whichever of the two its initial
// range selected.
//
// Every method mirrors IntervalSet's so DomainStore can treat both
// uniformly; HowChanged semantics are identical across representations.
type boundedDomain interface {
	Empty() bool
	Size() Integer
	Lower() Integer
	Upper() Integer
	Contains(Integer) bool
	HasHoles() bool
	Erase(Integer) HowChanged
	EraseLessThan(Integer) HowChanged
	EraseGreaterThan(Integer) HowChanged
	Clear() HowChanged
	EachValue(func(Integer))
	Clone() boundedDomain
	String() string
}

// intervalDomain adapts IntervalSet to boundedDomain.
type intervalDomain struct {
	set IntervalSet
}

func newIntervalDomain(lower, upper Integer) *intervalDomain {
	return &intervalDomain{set: NewIntervalSet(lower, upper)}
}

func (d *intervalDomain) Empty() bool                       { return d.set.Empty() }
func (d *intervalDomain) Size() Integer                     { return d.set.Size() }
func (d *intervalDomain) Lower() Integer                     { return d.set.Lower() }
func (d *intervalDomain) Upper() Integer                     { return d.set.Upper() }
func (d *intervalDomain) Contains(v Integer) bool            { return d.set.Contains(v) }
func (d *intervalDomain) HasHoles() bool                     { return d.set.HasHoles() }
func (d *intervalDomain) Erase(v Integer) HowChanged         { return d.set.Erase(v) }
func (d *intervalDomain) EraseLessThan(v Integer) HowChanged { return d.set.EraseLessThan(v) }
func (d *intervalDomain) EraseGreaterThan(v Integer) HowChanged {
	return d.set.EraseGreaterThan(v)
}
func (d *intervalDomain) Clear() HowChanged           { return d.set.Clear() }
func (d *intervalDomain) EachValue(f func(Integer))   { d.set.EachValue(f) }
func (d *intervalDomain) String() string              { return d.set.String() }
func (d *intervalDomain) Clone() boundedDomain {
	return &intervalDomain{set: d.set.Clone()}
}

// bitmaskDomain backs a small, dense initial range with a roaring bitmap,
// chosen by DomainStore.CreateVariable when upper-lower is below
// bitmaskThreshold. Values are shifted so that lower maps to bitmap index
// 0, since roaring bitmaps index non-negative uint32s.
type bitmaskDomain struct {
	base Integer
	bits *roaring.Bitmap
}

const bitmaskThreshold = Integer(4096)

func newBitmaskDomain(lower, upper Integer) *bitmaskDomain {
	bm := roaring.New()
	bm.AddRange(0, uint64(upper-lower)+1)
	return &bitmaskDomain{base: lower, bits: bm}
}

func (d *bitmaskDomain) index(v Integer) uint32 { return uint32(v - d.base) }
func (d *bitmaskDomain) value(idx uint32) Integer { return d.base + Integer(idx) }

func (d *bitmaskDomain) Empty() bool   { return d.bits.IsEmpty() }
func (d *bitmaskDomain) Size() Integer { return Integer(d.bits.GetCardinality()) }

func (d *bitmaskDomain) Lower() Integer { return d.value(d.bits.Minimum()) }
func (d *bitmaskDomain) Upper() Integer { return d.value(d.bits.Maximum()) }

func (d *bitmaskDomain) Contains(v Integer) bool {
	if v < d.base {
		return false
	}
	return d.bits.Contains(d.index(v))
}

func (d *bitmaskDomain) HasHoles() bool {
	if d.bits.IsEmpty() {
		return false
	}
	span := uint64(d.bits.Maximum()-d.bits.Minimum()) + 1
	return uint64(d.bits.GetCardinality()) != span
}

func (d *bitmaskDomain) Erase(v Integer) HowChanged {
	if !d.Contains(v) {
		return Unchanged
	}
	wasEndpoint := v == d.Lower() || v == d.Upper()
	d.bits.Remove(d.index(v))
	return d.howChangedAfterShrink(wasEndpoint)
}

func (d *bitmaskDomain) EraseLessThan(v Integer) HowChanged {
	if d.bits.IsEmpty() || v <= d.Lower() {
		return Unchanged
	}
	d.bits.RemoveRange(0, uint64(d.index(v)))
	return d.howChangedAfterShrink(true)
}

func (d *bitmaskDomain) EraseGreaterThan(v Integer) HowChanged {
	if d.bits.IsEmpty() || v >= d.Upper() {
		return Unchanged
	}
	if v < d.Lower() {
		d.bits.Clear()
		return Contradiction
	}
	d.bits.RemoveRange(uint64(d.index(v))+1, uint64(d.bits.Maximum())+1)
	return d.howChangedAfterShrink(true)
}

func (d *bitmaskDomain) howChangedAfterShrink(wasEndpointOrRange bool) HowChanged {
	switch {
	case d.bits.IsEmpty():
		return Contradiction
	case d.bits.GetCardinality() == 1:
		return Instantiated
	case wasEndpointOrRange:
		return BoundsChanged
	default:
		return InteriorValuesChanged
	}
}

func (d *bitmaskDomain) Clear() HowChanged {
	if d.bits.IsEmpty() {
		return Unchanged
	}
	d.bits.Clear()
	return Contradiction
}

func (d *bitmaskDomain) EachValue(f func(Integer)) {
	it := d.bits.Iterator()
	for it.HasNext() {
		f(d.value(it.Next()))
	}
}

func (d *bitmaskDomain) Clone() boundedDomain {
	return &bitmaskDomain{base: d.base, bits: d.bits.Clone()}
}

func (d *bitmaskDomain) String() string {
	return (&intervalDomain{set: bitmaskToIntervalSet(d)}).String()
}

// bitmaskToIntervalSet is used only for diagnostic rendering; the hot
// path never converts between representations.
func bitmaskToIntervalSet(d *bitmaskDomain) IntervalSet {
	var s IntervalSet
	var runStart Integer
	inRun := false
	prev := Integer(0)
	d.EachValue(func(v Integer) {
		if !inRun {
			runStart = v
			inRun = true
		} else if v != prev+1 {
			s.AppendAtEnd(runStart, prev)
			runStart = v
		}
		prev = v
	})
	if inRun {
		s.AppendAtEnd(runStart, prev)
	}
	return s
}
