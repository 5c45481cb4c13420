package gcs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemSolveWithoutProofFindsAllSolutions(t *testing.T) {
	p := NewProblem(nil)
	a := p.CreateVariable(1, 2, "a")
	b := p.CreateVariable(1, 2, "b")
	p.Propagators().Install("a!=b", []Trigger{
		{Var: a, Kind: TriggerOnInstantiated},
		{Var: b, Kind: TriggerOnInstantiated},
	}, notEqualPropagator(a, b))

	var found [][2]Integer
	stats := p.Solve(func(s *State) bool {
		av, _ := s.OptionalSingleValue(SimpleVar(a))
		bv, _ := s.OptionalSingleValue(SimpleVar(b))
		found = append(found, [2]Integer{av, bv})
		return true
	})
	require.Equal(t, 2, stats.Solutions)
	require.ElementsMatch(t, [][2]Integer{{1, 2}, {2, 1}}, found)
}

func TestProblemSolveWithProofEmitsModelAndLog(t *testing.T) {
	var model, proof bytes.Buffer
	p := NewProblemWithProof(ProofOptions{UseFriendlyNames: true}, LogUsingReasons, &model, &proof, nil)
	a := p.CreateVariable(1, 2, "a")
	b := p.CreateVariable(1, 2, "b")
	p.Propagators().Install("a!=b", []Trigger{
		{Var: a, Kind: TriggerOnInstantiated},
		{Var: b, Kind: TriggerOnInstantiated},
	}, notEqualPropagator(a, b))

	stats := p.Solve(func(*State) bool { return true })
	require.Equal(t, 2, stats.Solutions)
	require.NotEmpty(t, model.String())
	require.Contains(t, model.String(), "#constraint=")
	require.NotEmpty(t, proof.String())
	require.Contains(t, proof.String(), "pseudo-Boolean proof version")
	require.True(t, strings.Contains(proof.String(), "end pseudo-Boolean proof"))
}

func TestProblemUnsatisfiableModelConcludesUnsat(t *testing.T) {
	var proof bytes.Buffer
	p := NewProblemWithProof(ProofOptions{}, LazyProofGeneration, nil, &proof, nil)
	a := p.CreateVariable(1, 1, "a")
	b := p.CreateVariable(1, 1, "b")
	p.Propagators().Install("a!=b", []Trigger{
		{Var: a, Kind: TriggerOnInstantiated},
		{Var: b, Kind: TriggerOnInstantiated},
	}, notEqualPropagator(a, b))

	stats := p.Solve(func(*State) bool { return true })
	require.Equal(t, 0, stats.Solutions)
	require.Contains(t, proof.String(), "conclusion UNSAT")
}

func TestProblemModelTimeTriviallyUnsatisfiableSkipsSearch(t *testing.T) {
	var proof bytes.Buffer
	p := NewProblemWithProof(ProofOptions{}, LogUsingReasons, nil, &proof, nil)
	a := p.CreateVariable(0, 1, "a")

	// "a >= 5" can never hold: a's only positive-coefficient term tops out
	// at 1, far short of the bound of 5. ProofModel catches this the
	// moment the constraint is posted, before any search runs.
	p.ProofModel().AddConstraintGreaterEqual(SumGreaterEqual{
		Sum:   Sum(Term(1, Cond(SimpleVar(a), OpGreaterEqual, 1))),
		Bound: 5,
	})
	require.True(t, p.ProofModel().IsTriviallyUnsatisfiable())

	stats := p.Solve(func(*State) bool { return true })
	require.Equal(t, 0, stats.Solutions)
	require.Equal(t, 0, stats.Nodes)
	require.Contains(t, proof.String(), "conclusion UNSAT")
}

func TestProblemMinimiseFindsLowestValue(t *testing.T) {
	p := NewProblem(nil)
	x := p.CreateVariable(1, 5, "x")
	p.Minimise(x)

	var best Integer
	stats := p.SolveWithDriver(DefaultVariableSelector(p), AscendingValueOrderer, func(s *State) bool {
		best, _ = s.OptionalSingleValue(SimpleVar(x))
		return true
	})
	require.Equal(t, Integer(1), best)
	require.GreaterOrEqual(t, stats.Solutions, 1)
}
