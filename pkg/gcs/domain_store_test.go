package gcs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainStoreInferEqualOutOfDomainIsContradiction(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(1, 5)
	how := ds.InferEqual(x, 7)
	require.Equal(t, Contradiction, how)
}

func TestDomainStoreBacktrackRestoresExactShape(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(1, 10)

	ts := ds.Checkpoint()
	ds.InferNotEqual(x, 5)
	ds.InferGreaterOrEqual(x, 3)
	require.True(t, ds.Contains(x, 3))
	require.False(t, ds.Contains(x, 5))

	ds.Backtrack(ts)
	require.Equal(t, Integer(1), ds.Lower(x))
	require.Equal(t, Integer(10), ds.Upper(x))
	require.True(t, ds.Contains(x, 5))
	require.Equal(t, 0, ds.TrailLength())
}

func TestDomainStoreNestedCheckpoints(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(1, 3)

	outer := ds.Checkpoint()
	ds.InferNotEqual(x, 1)
	inner := ds.Checkpoint()
	ds.InferNotEqual(x, 2)
	require.Equal(t, Integer(1), ds.Size(x))

	ds.Backtrack(inner)
	require.True(t, ds.Contains(x, 2))
	require.False(t, ds.Contains(x, 1))

	ds.Backtrack(outer)
	require.True(t, ds.Contains(x, 1))
	require.Equal(t, Integer(3), ds.Size(x))
}

func TestDomainStoreLargeRangeUsesIntervalRepresentation(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(0, 1_000_000)
	_, ok := ds.slot(x).(*intervalDomain)
	require.True(t, ok)
}

func TestDomainStoreSmallRangeUsesBitmaskRepresentation(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(0, 9)
	_, ok := ds.slot(x).(*bitmaskDomain)
	require.True(t, ok)
}

func TestDomainStoreUnchangedInferenceDoesNotGrowTrail(t *testing.T) {
	ds := NewDomainStore()
	x := ds.CreateVariable(1, 5)
	require.Equal(t, Unchanged, ds.InferGreaterOrEqual(x, 0))
	require.Equal(t, 0, ds.TrailLength())
}
