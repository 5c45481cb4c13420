package gcs

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ProofOptions configures how a Problem's proof machinery names things
// and which variable encoding it prefers, set once per Problem and never
// touched by core propagation code.
type ProofOptions struct {
	// FilenamePrefix is a path prefix from which a caller may derive
	// .opb/.pbp filenames; nothing in this module reads it, and
	// cmd/gcsdemo names its files model.opb and proof.pbp. The core
	// engine never opens files itself; ProofModel/ProofLogger only ever
	// write to the io.Writer they are given.
	FilenamePrefix string

	// UseFriendlyNames is carried in the options but not read: literals
	// are always written as bare xN identifiers, and setting it changes
	// no output.
	UseFriendlyNames bool

	// AlwaysUseFullEncoding forces the direct (eager, one-literal-per-value)
	// encoding for every variable regardless of domain size, trading
	// proof size for simplicity. The default, lazy bit encoding, is
	// cheaper for wide domains.
	AlwaysUseFullEncoding bool
}

// ProofModel accumulates the OPB ("pseudo-Boolean") model file: variable
// declarations, the objective, and the constraints translated from the
// Problem's own constraint set. It shares a VariableConstraintsTracker
// with the ProofLogger that will continue numbering lines once the model
// is finalised.
type ProofModel struct {
	options ProofOptions
	tracker *VariableConstraintsTracker
	log     *logrus.Entry

	lines []string

	nextProofOnlyID int

	hasObjective  bool
	objectiveSum  PBSum
	minimiseSense bool

	unsatisfiable bool
	finalised     bool
}

// NewProofModel constructs an empty model and wires a fresh tracker to
// write into it.
func NewProofModel(opts ProofOptions, log *logrus.Logger) *ProofModel {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &ProofModel{
		options: opts,
		log:     log.WithField("component", "proof_model"),
	}
	m.tracker = NewVariableConstraintsTracker(opts)
	m.tracker.StartWritingModel(m)
	return m
}

// VariableConstraintsTracker returns the tracker this model shares with
// whatever ProofLogger continues it.
func (m *ProofModel) VariableConstraintsTracker() *VariableConstraintsTracker { return m.tracker }

// NumberOfConstraints reports how many numbered lines the OPB file will
// contain, the value a following ProofLogger.StartProof needs.
func (m *ProofModel) NumberOfConstraints() int { return len(m.lines) }

// IsTriviallyUnsatisfiable reports whether model construction has already
// proven the problem has no solutions, e.g. because a posted constraint's
// right-hand side exceeds the sum of its positive coefficients.
func (m *ProofModel) IsTriviallyUnsatisfiable() bool { return m.unsatisfiable }

// SetUpIntegerVariable registers the encoding for a Simple or ProofOnly
// variable's domain: the lazy bit encoding by default, or the eager
// direct (order-literal) encoding when useDirectEncoding is set or
// options.AlwaysUseFullEncoding forces it.
func (m *ProofModel) SetUpIntegerVariable(id simpleOrProofOnly, lower, upper Integer, name string, useDirectEncoding bool) {
	m.tracker.TrackVariableName(id, name)
	m.tracker.TrackBounds(id, lower, upper)
	if useDirectEncoding || m.options.AlwaysUseFullEncoding {
		for v := lower + 1; v <= upper; v++ {
			m.tracker.NeedOrderLiteral(id, v)
		}
		m.tracker.NeedAtLeastOneValue(id)
		return
	}
	m.tracker.SetUpBitsEncoding(id, lower, upper)
}

// CreateProofOnlyIntegerVariable allocates a variable that exists only in
// the proof (it has no DomainStore slot), sets up its encoding, and
// returns its ID.
func (m *ProofModel) CreateProofOnlyIntegerVariable(lower, upper Integer, name string, useDirectEncoding bool) ProofOnlyIntegerVariableID {
	id := ProofOnlyIntegerVariableID(m.nextProofOnlyID)
	m.nextProofOnlyID++
	key := FromProofOnlyVariable(id)
	m.SetUpIntegerVariable(key, lower, upper, name, useDirectEncoding)
	return id
}

// CreateProofFlag allocates a fresh Boolean extension variable, not tied
// to any integer variable's domain.
func (m *ProofModel) CreateProofFlag(name string) ProofFlag {
	return m.tracker.CreateProofFlag(name)
}

// AddConstraintGreaterEqual posts "sum >= bound" to the model. If the
// right-hand side exceeds the sum of the sum's positive coefficients, the
// constraint can never be satisfied and the model is marked trivially
// unsatisfiable rather than returning an error: the caller (typically
// Problem.Solve) checks IsTriviallyUnsatisfiable once model construction
// finishes.
func (m *ProofModel) AddConstraintGreaterEqual(c SumGreaterEqual) ProofLine {
	normalised := NormaliseLinear(c.Sum.Terms)
	if c.Bound > sumOfPositiveCoefficients(PBSum{Terms: normalised}) {
		m.unsatisfiable = true
	}
	m.tracker.NeedAllProofNamesIn(PBSum{Terms: normalised})
	text := fmt.Sprintf("%s >= %d ;", pbSumString(m.tracker, PBSum{Terms: normalised}), int64(c.Bound))
	return m.appendLine(text)
}

// AddConstraintLessEqual posts "sum <= bound" by rewriting it to the
// native ">=" form the OPB format uses: negate every coefficient and the
// bound.
func (m *ProofModel) AddConstraintLessEqual(c SumLessEqual) ProofLine {
	negated := make([]WeightedTerm, len(c.Sum.Terms))
	for i, t := range c.Sum.Terms {
		negated[i] = Term(-t.Coefficient, t.Condition)
	}
	return m.AddConstraintGreaterEqual(SumGreaterEqual{Sum: PBSum{Terms: negated}, Bound: -c.Bound})
}

// AddConstraintEqual posts "sum = bound" as the conjunction of both
// directions, returning the ">=" half's line (the "<=" half is also
// written, but only the first line is independently addressable by most
// callers; both are numbered normally).
func (m *ProofModel) AddConstraintEqual(sum PBSum, bound Integer) ProofLine {
	first := m.AddConstraintGreaterEqual(SumGreaterEqual{Sum: sum, Bound: bound})
	m.AddConstraintLessEqual(SumLessEqual{Sum: sum, Bound: bound})
	return first
}

// AddClause posts a CNF clause (disjunction of literals/flags) as its
// equivalent pseudo-Boolean sum: "lit1 + lit2 + ... >= 1".
func (m *ProofModel) AddClause(lits []ProofLiteralOrFlag) ProofLine {
	terms := make([]string, len(lits))
	for i, l := range lits {
		terms[i] = "+1 " + m.tracker.pbFileStringFor(l)
	}
	text := fmt.Sprintf("%s >= 1 ;", strings.Join(terms, " "))
	return m.appendLine(text)
}

// Minimise records the objective function to minimise. Calling it twice
// replaces the previous objective: a Problem has at most one.
func (m *ProofModel) Minimise(sum PBSum) {
	m.hasObjective = true
	m.minimiseSense = true
	m.objectiveSum = sum
	m.tracker.NeedAllProofNamesIn(sum)
}

// Maximise records an objective to maximise, internally negated into a
// minimisation since that is the only sense OPB's "min:" line expresses.
func (m *ProofModel) Maximise(sum PBSum) {
	negated := make([]WeightedTerm, len(sum.Terms))
	for i, t := range sum.Terms {
		negated[i] = Term(-t.Coefficient, t.Condition)
	}
	m.Minimise(PBSum{Terms: negated})
}

func (m *ProofModel) appendLine(text string) ProofLine {
	m.lines = append(m.lines, text)
	return ProofLine(len(m.lines))
}

// defineConstraint implements definitionSink: while the model is still
// open, a lazily-introduced literal's defining constraint becomes an
// ordinary numbered OPB line. The model has no use for witness: every
// fact it records is true unconditionally, not introduced as a redundant
// extension to the proof.
func (m *ProofModel) defineConstraint(sumText string, _ XLiteral) ProofLine {
	return m.appendLine(sumText)
}

// Finalise writes the complete OPB file to w: a header comment with the
// variable and constraint counts, the objective line if one was posted,
// then every constraint in posting order. It must be called exactly
// once, after every variable and constraint has been added and before
// the ProofLogger that continues numbering is started.
func (m *ProofModel) Finalise(w io.Writer) error {
	if m.finalised {
		return NewProofLogicError("ProofModel.Finalise called twice")
	}
	m.finalised = true
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "* #variable= %d #constraint= %d\n", m.tracker.nextXLiteral-1, len(m.lines))
	if m.hasObjective {
		fmt.Fprintf(bw, "min: %s ;\n", pbSumString(m.tracker, m.objectiveSum))
	}
	for _, line := range m.lines {
		fmt.Fprintln(bw, line)
	}
	m.log.WithFields(logrus.Fields{
		"variables":   m.tracker.nextXLiteral - 1,
		"constraints": len(m.lines),
		"objective":   m.hasObjective,
	}).Info("proof model finalised")
	return bw.Flush()
}
