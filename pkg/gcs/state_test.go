package gcs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// literalCmpOpts lets cmp.Diff reach into Literal's unexported fields: it
// has no exported accessors for kind/cond, since nothing outside the
// package needs them, but proof and reason plumbing compare slices of it
// structurally in tests.
var literalCmpOpts = cmp.AllowUnexported(Literal{})

func TestGuessStackAsLiteralsSnapshotIsIndependentOfLiveStack(t *testing.T) {
	s := NewState()
	x := s.CreateVariable(0, 5)
	y := s.CreateVariable(0, 5)

	s.Guess(LitCondition(Cond(SimpleVar(x), OpEqual, 2)))
	s.Guess(LitCondition(Cond(SimpleVar(y), OpEqual, 3)))

	want := []Literal{
		LitCondition(Cond(SimpleVar(x), OpEqual, 2)),
		LitCondition(Cond(SimpleVar(y), OpEqual, 3)),
	}
	got := s.GuessStackAsLiterals()
	if diff := cmp.Diff(want, got, literalCmpOpts); diff != "" {
		t.Fatalf("guess stack snapshot mismatch (-want +got):\n%s", diff)
	}

	// Mutating the live stack afterwards must not retroactively change a
	// snapshot already taken.
	s.Guess(LitCondition(Cond(SimpleVar(x), OpEqual, 4)))
	if diff := cmp.Diff(want, got, literalCmpOpts); diff != "" {
		t.Fatalf("snapshot mutated after later Guess (-want +got):\n%s", diff)
	}
}

func TestBacktrackRestoresGuessStackExactly(t *testing.T) {
	s := NewState()
	x := s.CreateVariable(0, 5)

	before := s.GuessStackAsLiterals()
	ts := s.NewEpoch()
	s.Guess(LitCondition(Cond(SimpleVar(x), OpEqual, 2)))
	require.Len(t, s.GuessStackAsLiterals(), 1)

	s.Backtrack(ts)
	after := s.GuessStackAsLiterals()
	if diff := cmp.Diff(before, after, literalCmpOpts); diff != "" {
		t.Fatalf("guess stack not restored by Backtrack (-before +after):\n%s", diff)
	}
	require.Equal(t, 0, s.OpenEpochs())
}
