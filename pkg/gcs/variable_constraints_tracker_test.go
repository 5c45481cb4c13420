package gcs

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// pbConstraintLine matches a complete OPB inequality body: one or more
// signed "coefficient literal" terms followed by ">= bound ;". A
// defining constraint that regressed to a bare "* ..." comment, or to
// any other non-inequality text, fails this match.
var pbConstraintLine = regexp.MustCompile(`^([+-]\d+ ~?x\d+ )+>= -?\d+ ;$`)

func requireRealConstraintLines(t *testing.T, body string) (count int) {
	t.Helper()
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "min:") {
			continue
		}
		require.NotContains(t, line, "encoding for", "defining constraint must not be a descriptive comment: %q", line)
		require.NotContains(t, line, "reifies to", "defining constraint must not be a descriptive comment: %q", line)
		require.Regexp(t, pbConstraintLine, line, "constraint line must be a well-formed pseudo-Boolean sum")
		count++
	}
	return count
}

func TestBitsEncodingEmitsRealBoundingInequalities(t *testing.T) {
	var buf bytes.Buffer
	m := NewProofModel(ProofOptions{}, nil)
	id := m.CreateProofOnlyIntegerVariable(0, 5, "v", false)
	key := FromProofOnlyVariable(id)
	tracker := m.VariableConstraintsTracker()

	tracker.NeedOrderLiteral(key, 3)
	tracker.NeedValueLiteral(key, 2)
	tracker.NeedAtLeastOneValue(key)

	require.NoError(t, m.Finalise(&buf))
	require.Greater(t, requireRealConstraintLines(t, buf.String()), 0)
}

func TestDirectEncodingEmitsMonotonicityAndAtMostOne(t *testing.T) {
	var buf bytes.Buffer
	m := NewProofModel(ProofOptions{}, nil)
	// useDirectEncoding eagerly requests every order literal plus the
	// at-least-one/at-most-one pair, all from SetUpIntegerVariable alone.
	m.CreateProofOnlyIntegerVariable(0, 3, "w", true)

	require.NoError(t, m.Finalise(&buf))
	lines := requireRealConstraintLines(t, buf.String())
	require.Greater(t, lines, 0)
	// At-most-one is the sum of value literals negated, bounded by -1.
	require.Regexp(t, regexp.MustCompile(`>= -1 ;`), buf.String())
}

func TestNeedOrderLiteralIsIdempotent(t *testing.T) {
	m := NewProofModel(ProofOptions{}, nil)
	id := m.CreateProofOnlyIntegerVariable(0, 7, "v", false)
	key := FromProofOnlyVariable(id)
	tracker := m.VariableConstraintsTracker()

	first := tracker.NeedOrderLiteral(key, 4)
	second := tracker.NeedOrderLiteral(key, 4)
	require.Equal(t, first, second)
}
