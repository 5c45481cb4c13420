package gcs

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ProofLine is the sequential line number of a pseudo-Boolean proof step,
// shared between the OPB model file (lines 1..N) and the proof log that
// follows it (lines N+1..).
type ProofLine int64

type proofLevelKind int

const (
	levelTop proofLevelKind = iota
	levelNumbered
	levelTemporary
)

// ProofLevel scopes a group of proof lines for later deletion with `del`.
// TopProofLevel lines are never deleted; NumberedProofLevel(n) lines are
// deleted together when the search backtracks past depth n;
// TemporaryProofLevel tags scratch lines. Lines at any level, Temporary
// included, are deleted only by ForgetProofLevel while that level is the
// current one; nothing deletes Temporary lines automatically.
type ProofLevel struct {
	kind   proofLevelKind
	number int
}

// TopProofLevel is the permanent level: model facts and literal
// definitions live here and are never deleted.
var TopProofLevel = ProofLevel{kind: levelTop}

// TemporaryProofLevel is for scratch lines. Its lines are recorded like
// those of any other level and are deleted only when ForgetProofLevel is
// called while it is the current level.
var TemporaryProofLevel = ProofLevel{kind: levelTemporary}

// NumberedProofLevel returns the level associated with search depth n; all
// lines entered at this level are deleted together when the search
// backtracks out of depth n.
func NumberedProofLevel(n int) ProofLevel { return ProofLevel{kind: levelNumbered, number: n} }

func (l ProofLevel) String() string {
	switch l.kind {
	case levelTop:
		return "top"
	case levelTemporary:
		return "temporary"
	default:
		return fmt.Sprintf("level(%d)", l.number)
	}
}

// ProofLogger writes the pseudo-Boolean (VeriPB) proof log that follows a
// ProofModel's OPB file: one `u`/`red`/`del`/`f` line per proof step. It
// shares a VariableConstraintsTracker with the ProofModel that preceded
// it, so literal names stay consistent across the model/proof boundary.
type ProofLogger struct {
	tracker *VariableConstraintsTracker
	out     *bufio.Writer
	log     *logrus.Entry

	nextLine     ProofLine
	currentLevel ProofLevel
	levelStack   []ProofLevel
	linesAtLevel map[ProofLevel][]ProofLine

	concluded bool
}

// NewProofLogger constructs a logger writing to w, sharing tracker with
// whatever ProofModel already ran StartWritingModel on it.
func NewProofLogger(w io.Writer, tracker *VariableConstraintsTracker, log *logrus.Logger) *ProofLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProofLogger{
		tracker:      tracker,
		out:          bufio.NewWriter(w),
		log:          log.WithField("component", "proof_logger"),
		currentLevel: TopProofLevel,
		linesAtLevel: map[ProofLevel][]ProofLine{},
	}
}

// VariableConstraintsTracker returns the tracker this logger shares with
// its ProofModel.
func (l *ProofLogger) VariableConstraintsTracker() *VariableConstraintsTracker { return l.tracker }

// StartProof writes the proof log header. numberOfModelConstraints is the
// line count already consumed by the OPB file; proof lines continue
// numbering from there.
func (l *ProofLogger) StartProof(numberOfModelConstraints int) {
	l.nextLine = ProofLine(numberOfModelConstraints) + 1
	fmt.Fprintln(l.out, "pseudo-Boolean proof version 2.0")
	fmt.Fprintf(l.out, "f %d 0\n", numberOfModelConstraints)
	l.log.WithField("model_constraints", numberOfModelConstraints).Debug("proof log started")
}

func (l *ProofLogger) allocateLine(level ProofLevel) ProofLine {
	line := l.nextLine
	l.nextLine++
	l.linesAtLevel[level] = append(l.linesAtLevel[level], line)
	return line
}

// EmitProofComment writes an unnumbered `*` comment line, useful for
// human debugging of a generated proof.
func (l *ProofLogger) EmitProofComment(text string) {
	fmt.Fprintf(l.out, "* %s\n", text)
}

// EmitProofLine writes a raw, already-formatted proof step body at the
// current level and returns its line number. Most callers prefer one of
// the Emit*ProofLine helpers below, which format the body for them.
func (l *ProofLogger) EmitProofLine(body string) ProofLine {
	line := l.allocateLine(l.currentLevel)
	fmt.Fprintf(l.out, "%d %s\n", int64(line), body)
	return line
}

func (l *ProofLogger) emitAtLevel(body string, level ProofLevel) ProofLine {
	line := l.allocateLine(level)
	fmt.Fprintf(l.out, "%d %s\n", int64(line), body)
	return line
}

// EmitRUPProofLine emits "u <sum> >= bound ;", asking the verifier to
// reconstruct the step by reverse unit propagation.
func (l *ProofLogger) EmitRUPProofLine(sum SumGreaterEqual) ProofLine {
	l.tracker.NeedAllProofNamesIn(sum.Sum)
	body := fmt.Sprintf("u %s >= %d ;", pbSumString(l.tracker, sum.Sum), int64(sum.Bound))
	line := l.EmitProofLine(body)
	l.log.WithFields(logrus.Fields{"kind": "rup", "line": int64(line)}).Debug("emitted proof line")
	return line
}

// EmitRUPProofLineUnderTrail is like EmitRUPProofLine, but records the
// current guess trail in a comment to help a human reader, without
// changing what the verifier must check.
func (l *ProofLogger) EmitRUPProofLineUnderTrail(sum SumGreaterEqual, trail []Literal) ProofLine {
	if len(trail) > 0 {
		l.EmitProofComment(fmt.Sprintf("under trail: %v", trail))
	}
	return l.EmitRUPProofLine(sum)
}

// EmitRUPProofLineUnderReason is like EmitRUPProofLine, but adds the
// negation of every condition in reason to the sum, weighted so that any
// false reason literal satisfies the line on its own: the written step
// reads "reason implies sum >= bound".
func (l *ProofLogger) EmitRUPProofLineUnderReason(sum SumGreaterEqual, reason Reason) ProofLine {
	if reason != nil {
		slack := sum.Bound
		for _, t := range sum.Sum.Terms {
			if t.Coefficient < 0 {
				slack -= t.Coefficient
			}
		}
		terms := append([]WeightedTerm{}, sum.Sum.Terms...)
		for _, lit := range reason() {
			if cond, ok := lit.AsCondition(); ok {
				terms = append(terms, Term(slack, cond.Negate()))
			}
		}
		sum = SumGreaterEqual{Sum: Sum(terms...), Bound: sum.Bound}
	}
	return l.EmitRUPProofLine(sum)
}

// EmitAssertProofLine emits "a <sum> >= bound ;", marking the step as
// self-evident from the arithmetic encoding rather than derived by unit
// propagation.
func (l *ProofLogger) EmitAssertProofLine(sum SumGreaterEqual) ProofLine {
	l.tracker.NeedAllProofNamesIn(sum.Sum)
	body := fmt.Sprintf("a %s >= %d ;", pbSumString(l.tracker, sum.Sum), int64(sum.Bound))
	line := l.EmitProofLine(body)
	l.log.WithFields(logrus.Fields{"kind": "assert", "line": int64(line)}).Debug("emitted proof line")
	return line
}

// EmitAssertProofLineUnderTrail is EmitAssertProofLine with a trail
// comment, symmetric with EmitRUPProofLineUnderTrail.
func (l *ProofLogger) EmitAssertProofLineUnderTrail(sum SumGreaterEqual, trail []Literal) ProofLine {
	if len(trail) > 0 {
		l.EmitProofComment(fmt.Sprintf("under trail: %v", trail))
	}
	return l.EmitAssertProofLine(sum)
}

// EmitRedProofLine emits a `red` (redundance) step: sum >= bound is added
// to the proof under the substitution witness, which is how new
// extension variables and half-reified definitions are introduced
// without changing the set of solutions over the original variables.
func (l *ProofLogger) EmitRedProofLine(sum SumGreaterEqual, witness []ProofLiteralOrFlag, level ProofLevel) ProofLine {
	l.tracker.NeedAllProofNamesIn(sum.Sum)
	witnessParts := make([]string, len(witness))
	for i, w := range witness {
		witnessParts[i] = l.tracker.pbFileStringFor(w)
	}
	body := fmt.Sprintf("red %s >= %d ;", pbSumString(l.tracker, sum.Sum), int64(sum.Bound))
	for _, w := range witnessParts {
		body += " " + w
	}
	line := l.emitAtLevel(body, level)
	l.log.WithFields(logrus.Fields{"kind": "red", "line": int64(line), "level": level.String()}).Debug("emitted proof line")
	return line
}

// EmitRedProofLinesReifying emits the forward half of a half-reification:
// "conjunction -> sum >= bound", written reif -> constraint only, per
// HalfReifyOnConjunctionOf.
func (l *ProofLogger) EmitRedProofLinesReifying(reif HalfReifyOnConjunctionOf, sum SumGreaterEqual, level ProofLevel) []ProofLine {
	witness := append([]ProofLiteralOrFlag{}, reif.Conjunction...)
	return []ProofLine{l.EmitRedProofLine(sum, witness, level)}
}

// CreateProofFlagReifying allocates a fresh ProofFlag and writes the red
// step establishing "flag -> AND(conjunction)", returning the flag.
//
// conjunction entries that are themselves ProofFlags are currently
// dropped from the written sum: PBSum's terms are VariableConditions only,
// with no flag-term variant, so flag-of-flags reification isn't
// expressible yet. No caller in this package builds one.
func (l *ProofLogger) CreateProofFlagReifying(conjunction []ProofLiteralOrFlag, level ProofLevel) ProofFlag {
	flag := l.tracker.CreateProofFlag("")
	terms := make([]WeightedTerm, 0, len(conjunction))
	for _, c := range conjunction {
		if c.isFlag {
			continue
		}
		terms = append(terms, Term(1, c.cond))
	}
	l.EmitRedProofLine(SumGreaterEqual{Sum: Sum(terms...), Bound: Integer(len(terms))}, []ProofLiteralOrFlag{PLFlag(flag)}, level)
	return flag
}

// EnterProofLevel pushes a new scope; subsequent EmitProofLine calls (via
// the current-level helpers) are tagged with it until ForgetProofLevel
// pops it.
func (l *ProofLogger) EnterProofLevel(level ProofLevel) {
	l.levelStack = append(l.levelStack, l.currentLevel)
	l.currentLevel = level
}

// CurrentProofLevel returns the scope new lines are currently tagged
// with.
func (l *ProofLogger) CurrentProofLevel() ProofLevel { return l.currentLevel }

// ForgetProofLevel deletes every line entered at the current level with a
// `del` step, then restores the previous level. Forgetting TopProofLevel
// is a logic error: top-level facts are never deleted.
func (l *ProofLogger) ForgetProofLevel() {
	if l.currentLevel == TopProofLevel {
		panic(NewProofLogicError("cannot forget the top proof level"))
	}
	lines := l.linesAtLevel[l.currentLevel]
	if len(lines) > 0 {
		parts := make([]string, len(lines))
		for i, ln := range lines {
			parts[i] = fmt.Sprintf("%d", int64(ln))
		}
		fmt.Fprintf(l.out, "del id %s\n", strings.Join(parts, " "))
	}
	delete(l.linesAtLevel, l.currentLevel)
	if len(l.levelStack) == 0 {
		l.currentLevel = TopProofLevel
		return
	}
	l.currentLevel = l.levelStack[len(l.levelStack)-1]
	l.levelStack = l.levelStack[:len(l.levelStack)-1]
}

// Infer is the single entry point InferenceTracker flavours call to
// justify an inference according to its Justification, writing whatever
// proof steps (if any) that justification requires and returning the line
// that concludes lit, or 0 when Infer itself wrote no such line
// (NoJustificationNeeded, JustifyExplicitly, or a True/False literal).
func (l *ProofLogger) Infer(lit Literal, justification Justification, reason Reason) ProofLine {
	switch justification.kind {
	case justNone:
		return 0
	case justExplicit:
		justification.explicit(l, l.currentLevel)
		return 0
	case justExplicitThenRUP:
		justification.explicit(l, l.currentLevel)
		return l.emitLiteralRUP(lit, reason)
	case justAssertion:
		sum, ok := l.literalAsSum(lit)
		if !ok {
			return 0
		}
		return l.EmitAssertProofLine(sum)
	default: // justRUP
		return l.emitLiteralRUP(lit, reason)
	}
}

func (l *ProofLogger) emitLiteralRUP(lit Literal, reason Reason) ProofLine {
	sum, ok := l.literalAsSum(lit)
	if !ok {
		return 0
	}
	return l.EmitRUPProofLineUnderReason(sum, reason)
}

// literalAsSum rewrites lit as the trivial unit sum "1 x >= 1" the proof
// format uses to assert a single literal; TrueLiteral/FalseLiteral need
// no line since they are constants of the encoding, not facts about it.
func (l *ProofLogger) literalAsSum(lit Literal) (SumGreaterEqual, bool) {
	cond, ok := lit.AsCondition()
	if !ok {
		return SumGreaterEqual{}, false
	}
	return SumGreaterEqual{Sum: Sum(Term(1, cond)), Bound: 1}, true
}

// ConcludeUnsatisfiable writes the closing "conclusion UNSAT" / "end"
// lines stating the model has no solutions.
func (l *ProofLogger) ConcludeUnsatisfiable() {
	l.conclude("conclusion UNSAT : -1")
}

// ConcludeSatisfiable writes the closing lines stating at least one
// solution was found and no further search was required to prove it
// optimal (no objective was posted).
func (l *ProofLogger) ConcludeSatisfiable() {
	l.conclude("conclusion SAT")
}

// ConcludeOptimality writes the closing lines stating the best solution
// found is provably optimal for the posted objective.
func (l *ProofLogger) ConcludeOptimality() {
	l.conclude("conclusion BOUNDS INF INF")
}

// ConcludeBounds writes the closing lines stating only that the
// objective lies within the given bounds, not that it is optimal
// (search was stopped early, e.g. by cancellation).
func (l *ProofLogger) ConcludeBounds(lower, upper Integer) {
	l.conclude(fmt.Sprintf("conclusion BOUNDS %d %d", int64(lower), int64(upper)))
}

// ConcludeNone marks the proof as incomplete rather than drawing any
// conclusion: used when a cancellation unwound the search before it
// could finish exploring the tree, so no claim about satisfiability can
// be backed by what was actually checked.
func (l *ProofLogger) ConcludeNone() {
	l.EmitProofComment("incomplete: search was cancelled before a conclusion could be proven")
	l.conclude("")
}

func (l *ProofLogger) conclude(line string) {
	if l.concluded {
		return
	}
	if line != "" {
		fmt.Fprintln(l.out, line)
	}
	fmt.Fprintln(l.out, "end pseudo-Boolean proof")
	l.concluded = true
	l.out.Flush()
}

// defineConstraint implements definitionSink: once the proof has started,
// a lazily-introduced literal's defining constraint is written as a
// permanent proof step rather than an OPB model line. When witness names
// the literal the constraint introduces, it is written as a `red` step
// with that literal's substitution witness, which is how a proof may add
// an extension variable without changing the set of solutions over the
// original variables; otherwise (witness is the zero XLiteral) the
// constraint only restates a fact about literals that already exist, and
// is written as a plain RUP step instead.
func (l *ProofLogger) defineConstraint(sumText string, witness XLiteral) ProofLine {
	if witness.ID == 0 {
		return l.emitAtLevel("u "+sumText, TopProofLevel)
	}
	w := fmt.Sprintf("%s -> 1", l.tracker.pbFileStringForXLiteral(XLiteral{ID: witness.ID}))
	return l.emitAtLevel(fmt.Sprintf("red %s %s", sumText, w), TopProofLevel)
}
