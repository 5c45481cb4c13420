package gcs

import (
	"io"

	"github.com/sirupsen/logrus"
)

// ProofTrackerFlavour selects which InferenceTracker implementation a
// Problem uses, trading proof-log size and eagerness against how much
// bookkeeping a propagator author has to do. See the InferenceTracker
// flavours in inference_tracker.go for the tradeoffs between them.
type ProofTrackerFlavour int

const (
	// NoProof disables proof logging entirely; propagators still run
	// identically, but no .opb/.pbp pair is produced.
	NoProof ProofTrackerFlavour = iota
	// LogUsingGuesses justifies every inference under the current guess
	// trail, as soon as it happens.
	LogUsingGuesses
	// LogUsingReasons justifies every inference under its explicit
	// Reason, as soon as it happens.
	LogUsingReasons
	// LazyProofGeneration defers justification until a contradiction is
	// actually reached.
	LazyProofGeneration
)

// Problem bundles the pieces a caller needs to build a model and search
// it: the domain state, the propagator set, and (optionally) the
// pseudo-Boolean proof machinery. A caller creates one Problem per model,
// creates variables and posts propagators against it, then calls Solve.
type Problem struct {
	state   *State
	props   *Propagators
	tracker InferenceTracker
	log     *logrus.Logger

	proofModel  *ProofModel
	proofLogger *ProofLogger
	modelOut    io.Writer

	objective         *SimpleIntegerVariableID
	objectiveMinimise bool

	bounds map[SimpleIntegerVariableID]boundsRecord
}

// NewProblem creates a Problem with no proof logging. Use
// NewProblemWithProof to additionally emit an OPB model and a proof log.
func NewProblem(log *logrus.Logger) *Problem {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Problem{
		state:   NewState(),
		props:   NewPropagators(),
		tracker: NewSimpleInferenceTracker(),
		log:     log,
		bounds:  map[SimpleIntegerVariableID]boundsRecord{},
	}
}

// NewProblemWithProof creates a Problem that writes its finalised OPB
// model to modelOut and its proof log to proofOut once Solve begins. With
// flavour NoProof it behaves like NewProblem and writes neither.
func NewProblemWithProof(opts ProofOptions, flavour ProofTrackerFlavour, modelOut, proofOut io.Writer, log *logrus.Logger) *Problem {
	if flavour == NoProof {
		return NewProblem(log)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Problem{
		state:    NewState(),
		props:    NewPropagators(),
		log:      log,
		modelOut: modelOut,
		bounds:   map[SimpleIntegerVariableID]boundsRecord{},
	}
	p.proofModel = NewProofModel(opts, log)
	p.proofLogger = NewProofLogger(proofOut, p.proofModel.VariableConstraintsTracker(), log)
	switch flavour {
	case LogUsingGuesses:
		p.tracker = NewLogUsingGuessesInferenceTracker(p.proofLogger)
	case LogUsingReasons:
		p.tracker = NewLogUsingReasonsInferenceTracker(p.proofLogger)
	case LazyProofGeneration:
		p.tracker = NewLazyProofGenerationInferenceTracker(p.proofLogger)
	default:
		p.tracker = NewSimpleInferenceTracker()
	}
	return p
}

// State returns the domain-level state a model builder populates with
// variables and a search driver reads from.
func (p *Problem) State() *State { return p.state }

// Propagators returns the propagator set a model builder installs
// constraints into.
func (p *Problem) Propagators() *Propagators { return p.props }

// ProofModel returns the OPB model writer, or nil if this Problem has no
// proof logging enabled.
func (p *Problem) ProofModel() *ProofModel { return p.proofModel }

// CreateVariable creates a fresh Simple variable with domain [lower,
// upper], wiring its proof encoding if proof logging is enabled.
func (p *Problem) CreateVariable(lower, upper Integer, name string) SimpleIntegerVariableID {
	id := p.state.CreateVariable(lower, upper)
	p.bounds[id] = boundsRecord{lower: lower, upper: upper}
	if p.proofModel != nil {
		p.proofModel.SetUpIntegerVariable(FromSimpleVariable(id), lower, upper, name, false)
	}
	return id
}

// orderEncodedObjective expresses "id" itself as a pseudo-Boolean sum,
// up to the constant offset of its lower bound: the order encoding makes
// "x - lower" equal to the count of order literals (x >= v) that hold for
// v ranging over (lower, upper], so minimising that sum minimises x.
func (p *Problem) orderEncodedObjective(id SimpleIntegerVariableID) PBSum {
	b := p.bounds[id]
	var terms []WeightedTerm
	for v := b.lower + 1; v <= b.upper; v++ {
		terms = append(terms, Term(1, Cond(SimpleVar(id), OpGreaterEqual, v)))
	}
	return Sum(terms...)
}

// Minimise records the objective variable to minimise during Solve.
func (p *Problem) Minimise(id SimpleIntegerVariableID) {
	p.objective = &id
	p.objectiveMinimise = true
	if p.proofModel != nil {
		p.proofModel.Minimise(p.orderEncodedObjective(id))
	}
}

// Maximise records the objective variable to maximise during Solve.
func (p *Problem) Maximise(id SimpleIntegerVariableID) {
	p.objective = &id
	p.objectiveMinimise = false
	if p.proofModel != nil {
		p.proofModel.Maximise(p.orderEncodedObjective(id))
	}
}

// Solve finalises the model (if proof logging is enabled), starts the
// proof log, and runs a depth-first search to completion using the
// default first-unassigned/ascending-value strategy. Use SolveWithDriver
// for custom branching.
func (p *Problem) Solve(onSolution SolutionFunc) Stats {
	return p.SolveWithDriver(DefaultVariableSelector(p), AscendingValueOrderer, onSolution)
}

// SolveWithDriver is Solve with caller-supplied branching strategies. If
// the model was already proven trivially unsatisfiable at construction
// time (see ProofModel.IsTriviallyUnsatisfiable), it concludes the proof
// immediately and returns without running any search at all.
func (p *Problem) SolveWithDriver(selectVar VariableSelector, orderValues ValueOrderer, onSolution SolutionFunc) Stats {
	if p.proofModel != nil && p.proofLogger != nil {
		out := p.modelOut
		if out == nil {
			out = io.Discard
		}
		_ = p.proofModel.Finalise(out)
		trivialUnsat := p.proofModel.IsTriviallyUnsatisfiable()
		p.proofModel.VariableConstraintsTracker().SwitchFromModelToProof(p.proofLogger)
		p.proofLogger.StartProof(p.proofModel.NumberOfConstraints())
		if trivialUnsat {
			p.log.Info("model proven unsatisfiable at construction time, skipping search")
			p.proofLogger.ConcludeUnsatisfiable()
			return Stats{}
		}
	}

	driver := NewSearchDriver(p.state, p.props, p.tracker, p.proofLogger, selectVar, orderValues, p.log)
	if onSolution != nil {
		driver.WithSolutionCallback(onSolution)
	}
	if p.objective != nil {
		driver.WithObjective(*p.objective, p.objectiveMinimise)
	}
	return driver.Run()
}

// DefaultVariableSelector returns a VariableSelector that picks the
// lowest-indexed variable with more than one remaining value, the
// simplest "first unassigned" strategy.
func DefaultVariableSelector(p *Problem) VariableSelector {
	return func(state *State) (SimpleIntegerVariableID, bool) {
		n := state.Store().NumVariables()
		for i := 0; i < n; i++ {
			id := SimpleIntegerVariableID(i)
			if state.Store().Size(id) > 1 {
				return id, true
			}
		}
		return 0, false
	}
}

// AscendingValueOrderer tries every value in a variable's current domain
// from lowest to highest.
func AscendingValueOrderer(state *State, id SimpleIntegerVariableID) []Integer {
	var values []Integer
	state.Store().EachValue(id, func(v Integer) { values = append(values, v) })
	return values
}
