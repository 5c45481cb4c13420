package gcs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// notEqualPropagator is a minimal test-only propagator enforcing a != b,
// woken whenever either variable is instantiated.
func notEqualPropagator(a, b SimpleIntegerVariableID) PropagatorFunc {
	return func(state *State, tracker InferenceTracker) error {
		if v, ok := state.OptionalSingleValue(SimpleVar(a)); ok {
			lit := LitCondition(Cond(SimpleVar(b), OpNotEqual, v))
			if _, err := tracker.Record(state, lit, JustifyUsingRUP(), func() []Literal {
				return []Literal{LitCondition(Cond(SimpleVar(a), OpEqual, v))}
			}); err != nil {
				return err
			}
		}
		if v, ok := state.OptionalSingleValue(SimpleVar(b)); ok {
			lit := LitCondition(Cond(SimpleVar(a), OpNotEqual, v))
			if _, err := tracker.Record(state, lit, JustifyUsingRUP(), func() []Literal {
				return []Literal{LitCondition(Cond(SimpleVar(b), OpEqual, v))}
			}); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestPropagatorsNotEqualDetectsTrivialUnsat(t *testing.T) {
	state := NewState()
	a := state.CreateVariable(1, 1)
	b := state.CreateVariable(1, 1)

	props := NewPropagators()
	props.Install("a!=b", []Trigger{
		{Var: a, Kind: TriggerOnInstantiated},
		{Var: b, Kind: TriggerOnInstantiated},
	}, notEqualPropagator(a, b))

	tracker := NewSimpleInferenceTracker()
	err := props.RunToFixpoint(state, tracker)
	require.Error(t, err)
	var contradiction *Contradiction
	require.ErrorAs(t, err, &contradiction)
}

// sumEqualPropagator is a minimal test-only propagator enforcing
// a + b + c = target by tightening each variable's bounds from the other
// two's current bounds, repeatedly reaching a fixed point through the
// scheduler rather than inside the propagator itself.
func sumEqualPropagator(vars [3]SimpleIntegerVariableID, target Integer) PropagatorFunc {
	return func(state *State, tracker InferenceTracker) error {
		lower := [3]Integer{}
		upper := [3]Integer{}
		for i, v := range vars {
			lower[i] = state.LowerBound(SimpleVar(v))
			upper[i] = state.UpperBound(SimpleVar(v))
		}
		for i := range vars {
			var otherLowerSum, otherUpperSum Integer
			for j := range vars {
				if j == i {
					continue
				}
				otherLowerSum += lower[j]
				otherUpperSum += upper[j]
			}
			newUpper := target - otherLowerSum
			newLower := target - otherUpperSum
			if newUpper < upper[i] {
				lit := LitCondition(Cond(SimpleVar(vars[i]), OpLessThan, newUpper+1))
				if _, err := tracker.Record(state, lit, JustifyUsingRUP(), NoReason); err != nil {
					return err
				}
			}
			if newLower > lower[i] {
				lit := LitCondition(Cond(SimpleVar(vars[i]), OpGreaterEqual, newLower))
				if _, err := tracker.Record(state, lit, JustifyUsingRUP(), NoReason); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func TestPropagatorsChainedBoundsTightening(t *testing.T) {
	state := NewState()
	a := state.CreateVariable(0, 10)
	b := state.CreateVariable(0, 10)
	c := state.CreateVariable(0, 10)

	props := NewPropagators()
	props.Install("sum=5", []Trigger{
		{Var: a, Kind: TriggerOnBounds},
		{Var: b, Kind: TriggerOnBounds},
		{Var: c, Kind: TriggerOnBounds},
	}, sumEqualPropagator([3]SimpleIntegerVariableID{a, b, c}, 5))

	tracker := NewSimpleInferenceTracker()
	require.NoError(t, props.RunToFixpoint(state, tracker))

	require.Equal(t, Integer(0), state.Store().Lower(a))
	require.Equal(t, Integer(5), state.Store().Upper(a))
	require.Equal(t, Integer(0), state.Store().Lower(b))
	require.Equal(t, Integer(5), state.Store().Upper(b))
	require.Equal(t, Integer(0), state.Store().Lower(c))
	require.Equal(t, Integer(5), state.Store().Upper(c))
}

func TestPropagatorsDisableUntilBacktrackSkipsScheduling(t *testing.T) {
	state := NewState()
	a := state.CreateVariable(1, 1)
	b := state.CreateVariable(1, 1)

	props := NewPropagators()
	id := props.Install("a!=b", []Trigger{{Var: a, Kind: TriggerOnInstantiated}}, notEqualPropagator(a, b))

	mark := props.Checkpoint()
	props.DisableUntilBacktrack(id)

	tracker := NewSimpleInferenceTracker()
	require.NoError(t, props.RunToFixpoint(state, tracker))

	props.Backtrack(mark) // re-enables the propagator
	require.Error(t, props.RunToFixpoint(state, tracker))
}

func TestPropagatorsInstallAfterSearchStartedPanics(t *testing.T) {
	state := NewState()
	props := NewPropagators()
	tracker := NewSimpleInferenceTracker()
	require.NoError(t, props.RunToFixpoint(state, tracker))

	require.Panics(t, func() {
		props.Install("late", nil, func(*State, InferenceTracker) error { return nil })
	})
}
