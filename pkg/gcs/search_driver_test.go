package gcs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func firstUnassigned(ids ...SimpleIntegerVariableID) VariableSelector {
	return func(state *State) (SimpleIntegerVariableID, bool) {
		for _, id := range ids {
			if state.Store().Size(id) > 1 {
				return id, true
			}
		}
		return 0, false
	}
}

func ascendingValues(state *State, id SimpleIntegerVariableID) []Integer {
	var values []Integer
	state.Store().EachValue(id, func(v Integer) { values = append(values, v) })
	return values
}

func TestSearchDriverSingletonDomainNeedsNoBranching(t *testing.T) {
	state := NewState()
	a := state.CreateVariable(4, 4)
	props := NewPropagators()
	tracker := NewSimpleInferenceTracker()

	driver := NewSearchDriver(state, props, tracker, nil, firstUnassigned(a), ascendingValues, nil)
	var solutions int
	driver.WithSolutionCallback(func(*State) bool {
		solutions++
		return false
	})
	stats := driver.Run()
	require.Equal(t, 1, solutions)
	require.Equal(t, 1, stats.Solutions)
	require.Equal(t, 1, stats.Nodes)
}

func TestSearchDriverAllDifferentFindsBothSolutions(t *testing.T) {
	state := NewState()
	a := state.CreateVariable(1, 2)
	b := state.CreateVariable(1, 2)
	props := NewPropagators()
	props.Install("a!=b", []Trigger{
		{Var: a, Kind: TriggerOnInstantiated},
		{Var: b, Kind: TriggerOnInstantiated},
	}, notEqualPropagator(a, b))
	tracker := NewSimpleInferenceTracker()

	driver := NewSearchDriver(state, props, tracker, nil, firstUnassigned(a, b), ascendingValues, nil)
	var found [][2]Integer
	driver.WithSolutionCallback(func(s *State) bool {
		av, _ := s.OptionalSingleValue(SimpleVar(a))
		bv, _ := s.OptionalSingleValue(SimpleVar(b))
		found = append(found, [2]Integer{av, bv})
		return true
	})
	stats := driver.Run()
	require.ElementsMatch(t, [][2]Integer{{1, 2}, {2, 1}}, found)
	require.Equal(t, 2, stats.Solutions)
	require.Equal(t, 0, state.OpenEpochs())
}

func TestSearchDriverBacktrackFidelityRestoresDomain(t *testing.T) {
	state := NewState()
	x := state.CreateVariable(1, 3)
	props := NewPropagators()
	tracker := NewSimpleInferenceTracker()

	driver := NewSearchDriver(state, props, tracker, nil, firstUnassigned(x), ascendingValues, nil)
	var seen []Integer
	driver.WithSolutionCallback(func(s *State) bool {
		v, _ := s.OptionalSingleValue(SimpleVar(x))
		seen = append(seen, v)
		return true
	})
	driver.Run()
	require.Equal(t, []Integer{1, 2, 3}, seen)
	require.Equal(t, Integer(1), state.Store().Lower(x))
	require.Equal(t, Integer(3), state.Store().Upper(x))
	require.Equal(t, 0, state.OpenEpochs())
	require.Equal(t, 0, state.Store().TrailLength())
}

func TestSearchDriverObjectiveTighteningFindsMinimum(t *testing.T) {
	state := NewState()
	x := state.CreateVariable(1, 5)
	props := NewPropagators()
	tracker := NewSimpleInferenceTracker()

	driver := NewSearchDriver(state, props, tracker, nil, firstUnassigned(x), ascendingValues, nil).
		WithObjective(x, true)
	var best Integer = -1
	driver.WithSolutionCallback(func(s *State) bool {
		best, _ = s.OptionalSingleValue(SimpleVar(x))
		return true
	})
	stats := driver.Run()
	require.Equal(t, Integer(1), best)
	require.GreaterOrEqual(t, stats.Solutions, 1)
}

func TestSearchDriverCancellationUnwindsCleanly(t *testing.T) {
	state := NewState()
	x := state.CreateVariable(1, 100)
	props := NewPropagators()
	tracker := NewSimpleInferenceTracker()

	calls := 0
	driver := NewSearchDriver(state, props, tracker, nil, firstUnassigned(x), ascendingValues, nil).
		WithCancellation(func() bool {
			calls++
			return calls > 2
		})
	stats := driver.Run()
	require.True(t, stats.Cancelled)
}
