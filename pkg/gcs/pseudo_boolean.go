package gcs

import (
	"fmt"
	"strings"
)

// ProofLiteralOrFlag is a term that can appear in a pseudo-Boolean sum or
// a redundance witness: either a condition on a Simple/ProofOnly variable,
// or a ProofFlag.
type ProofLiteralOrFlag struct {
	isFlag bool
	cond   VariableCondition
	flag   ProofFlag
}

// PLCondition wraps a VariableCondition as a ProofLiteralOrFlag.
func PLCondition(c VariableCondition) ProofLiteralOrFlag {
	return ProofLiteralOrFlag{cond: c}
}

// PLFlag wraps a ProofFlag as a ProofLiteralOrFlag.
func PLFlag(f ProofFlag) ProofLiteralOrFlag {
	return ProofLiteralOrFlag{isFlag: true, flag: f}
}

// WeightedTerm is one coefficient*literal addend of a pseudo-Boolean sum.
// The literal is expressed as a VariableCondition so it can later be
// looked up in the VariableConstraintsTracker as either an order literal
// or a value literal.
type WeightedTerm struct {
	Coefficient Integer
	Condition   VariableCondition
}

// Term builds a WeightedTerm.
func Term(coefficient Integer, cond VariableCondition) WeightedTerm {
	return WeightedTerm{Coefficient: coefficient, Condition: cond}
}

// PBSum is a pseudo-Boolean linear expression: a sum of weighted terms.
type PBSum struct {
	Terms []WeightedTerm
}

// Sum builds a PBSum from a list of terms.
func Sum(terms ...WeightedTerm) PBSum {
	return PBSum{Terms: terms}
}

// SumLessEqual is a pseudo-Boolean inequality "sum <= bound", the
// canonical shape the proof format's `>=` lines are derived from by
// negating: the core always emits `>=`, so SumLessEqual is normalised to
// its GreaterEqual form when written (see ProofModel.AddConstraintLessEqual).
type SumLessEqual struct {
	Sum   PBSum
	Bound Integer
}

// SumGreaterEqual is a pseudo-Boolean inequality "sum >= bound", the
// native shape of lines the proof format emits.
type SumGreaterEqual struct {
	Sum   PBSum
	Bound Integer
}

// HalfReifyOnConjunctionOf names a conjunction of literals/flags under
// which a constraint is only half-reified: the logger writes
// "conjunction -> constraint" but not the converse, matching §4.6's
// "the reification encoding introduces the implication reif -> constraint
// only; the converse is the caller's responsibility."
type HalfReifyOnConjunctionOf struct {
	Conjunction []ProofLiteralOrFlag
}

// NormaliseLinear returns the sanitised form of a linear combination,
// used by ProofModel.AddConstraintGreaterEqual before writing a PBSum:
// zero-coefficient terms are removed and terms with identical conditions
// are combined, keeping first-seen order. Signs are not normalised: a
// condition and its negation (x >= 3 and x < 3) stay separate terms, and
// negative coefficients are kept as they are. The specification documents
// two historical code paths ("legacy" and "sanitised") that differ in this
// handling (§9, Open Questions).
func NormaliseLinear(terms []WeightedTerm) []WeightedTerm {
	byVar := make(map[VariableCondition]Integer)
	order := make([]VariableCondition, 0, len(terms))
	for _, t := range terms {
		if t.Coefficient == 0 {
			continue
		}
		if _, seen := byVar[t.Condition]; !seen {
			order = append(order, t.Condition)
		}
		byVar[t.Condition] += t.Coefficient
	}
	out := make([]WeightedTerm, 0, len(order))
	for _, cond := range order {
		coeff := byVar[cond]
		if coeff == 0 {
			continue
		}
		out = append(out, Term(coeff, cond))
	}
	return out
}

// pbTermString renders one weighted term the way the OPB/proof formats
// expect: "+c x" for a positive literal, "+c ~x" for a negated one, using
// the tracker's name resolution for x.
func pbTermString(tracker *VariableConstraintsTracker, t WeightedTerm) string {
	lit := tracker.xliteralFor(t.Condition)
	sign := "+"
	coeff := t.Coefficient
	if coeff < 0 {
		sign = "-"
		coeff = -coeff
	}
	name := tracker.pbFileStringForXLiteral(lit)
	return fmt.Sprintf("%s%d %s", sign, int64(coeff), name)
}

// pbSumString renders a PBSum's terms, space separated, each already
// carrying its own sign, e.g. "+1 x1 +2 ~x2".
func pbSumString(tracker *VariableConstraintsTracker, s PBSum) string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = pbTermString(tracker, t)
	}
	return strings.Join(parts, " ")
}

// sumOfPositiveCoefficients is used by ProofModel's model-time
// unsatisfiability check: if the right-hand side of a ">=" constraint
// exceeds the sum of the positive coefficients on its left-hand side, no
// assignment can ever satisfy it.
func sumOfPositiveCoefficients(s PBSum) Integer {
	var total Integer
	for _, t := range s.Terms {
		if t.Coefficient > 0 {
			total += t.Coefficient
		}
	}
	return total
}
