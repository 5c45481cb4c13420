package gcs

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// errStopRequested is returned internally when a SolutionFunc asks the
// driver to stop looking for further solutions.
var errStopRequested = errors.New("gcs: search stopped by solution callback")

// errCancelled is returned internally when the caller's cancellation
// predicate reports true.
var errCancelled = errors.New("gcs: search cancelled")

// VariableSelector picks the next variable to branch on. Returning
// ok=false means every variable is already instantiated: the current
// state is a solution.
type VariableSelector func(state *State) (id SimpleIntegerVariableID, ok bool)

// ValueOrderer returns the values of id to try, in the order the driver
// should try them.
type ValueOrderer func(state *State, id SimpleIntegerVariableID) []Integer

// TraceEvent describes one step of the search, for a caller-supplied
// TraceFunc to log or display.
type TraceEvent struct {
	Kind  string // "guess", "solution", "backtrack"
	Depth int
	Var   SimpleIntegerVariableID
	Value Integer
}

// TraceFunc receives a TraceEvent for every guess, solution, and
// backtrack, purely for observability; it must not mutate search state.
type TraceFunc func(event TraceEvent)

// SolutionFunc is called with the state at a solution node. Returning
// false stops the search immediately; returning true asks it to keep
// looking (only useful when an objective is being optimised, or every
// solution is wanted).
type SolutionFunc func(state *State) bool

// Stats summarises one Run of a SearchDriver.
type Stats struct {
	Nodes        int
	Backtracks   int
	Solutions    int
	Propagations int
	ProofLines   int
	Cancelled    bool
}

// SearchDriver runs a single-threaded, trailed depth-first search over a
// State: select a variable, try its values in order, propagate to a
// fixed point after each guess, and recurse. Parallel search is not
// supported; every node touches the same State, Propagators and
// InferenceTracker in place, relying entirely on Checkpoint/Backtrack
// pairing for correctness.
type SearchDriver struct {
	state   *State
	props   *Propagators
	tracker InferenceTracker
	logger  *ProofLogger
	log     *logrus.Entry

	selectVar   VariableSelector
	orderValues ValueOrderer

	trace      TraceFunc
	onSolution SolutionFunc
	cancelled  func() bool

	objective         *SimpleIntegerVariableID
	objectiveMinimise bool
	bestObjective     *Integer

	stats Stats
}

// NewSearchDriver builds a driver over an already fully-constructed
// model: every propagator must already be installed, since Propagators
// locks installation on the first RunToFixpoint.
func NewSearchDriver(state *State, props *Propagators, tracker InferenceTracker, logger *ProofLogger, selectVar VariableSelector, orderValues ValueOrderer, log *logrus.Logger) *SearchDriver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SearchDriver{
		state:       state,
		props:       props,
		tracker:     tracker,
		logger:      logger,
		log:         log.WithField("component", "search_driver"),
		selectVar:   selectVar,
		orderValues: orderValues,
	}
}

// WithTrace installs a trace callback.
func (d *SearchDriver) WithTrace(f TraceFunc) *SearchDriver { d.trace = f; return d }

// WithSolutionCallback installs the callback invoked at every solution.
func (d *SearchDriver) WithSolutionCallback(f SolutionFunc) *SearchDriver { d.onSolution = f; return d }

// WithCancellation installs a predicate polled on entry to every node and
// before every guess; when it returns true the search unwinds and Run
// reports Stats.Cancelled.
func (d *SearchDriver) WithCancellation(f func() bool) *SearchDriver { d.cancelled = f; return d }

// WithObjective marks id as the value to optimise: after every solution,
// the driver posts a tightening bound ("id < value" when minimising,
// "id > value" when maximising) before continuing, so later branches can
// only find strictly better solutions.
func (d *SearchDriver) WithObjective(id SimpleIntegerVariableID, minimise bool) *SearchDriver {
	d.objective = &id
	d.objectiveMinimise = minimise
	return d
}

// Run performs the search to completion (or until cancelled or stopped by
// the solution callback) and returns the accumulated Stats. It also
// drives the ProofLogger's conclusion line, if a logger was supplied.
func (d *SearchDriver) Run() Stats {
	d.stats = Stats{}
	err := d.search(0)
	switch {
	case errors.Is(err, errCancelled):
		d.stats.Cancelled = true
		if d.logger != nil {
			if d.objective != nil && d.bestObjective != nil {
				d.logger.ConcludeBounds(*d.bestObjective, *d.bestObjective)
			} else {
				d.logger.ConcludeNone()
			}
		}
	case errors.Is(err, errStopRequested):
		if d.logger != nil {
			if d.objective != nil {
				d.logger.ConcludeBounds(*d.bestObjective, *d.bestObjective)
			} else {
				d.logger.ConcludeSatisfiable()
			}
		}
	default:
		// The whole tree was explored: a Contradiction bubbling all the
		// way to the root means there was nothing left to try, whether
		// or not any solution was found along the way — Stats.Solutions
		// is what actually distinguishes UNSAT from a fully-enumerated
		// satisfiable (or proven-optimal) search.
		if d.logger != nil {
			if d.stats.Solutions == 0 {
				d.logger.ConcludeUnsatisfiable()
			} else if d.objective != nil {
				d.logger.ConcludeOptimality()
			} else {
				d.logger.ConcludeSatisfiable()
			}
		}
	}
	return d.stats
}

// search explores the subtree rooted at the current state, assuming
// every guess up to this point has already been applied and propagated.
// It never returns nil: errCancelled on cancellation, errStopRequested
// when the solution callback asks to stop, and otherwise a
// *Contradiction once the subtree is fully explored (solution leaves
// also return one, to force backtracking).
func (d *SearchDriver) search(depth int) error {
	if d.cancelled != nil && d.cancelled() {
		return errCancelled
	}
	d.stats.Nodes++

	// Re-derive the objective cutoff at every node from the best bound
	// found so far, rather than leaving a one-shot inference on the
	// trail: the cutoff must survive backtracking past the solution that
	// established it, exactly like an ordinary propagator that is simply
	// invoked again at each node.
	if d.objective != nil && d.bestObjective != nil {
		var lit Literal
		if d.objectiveMinimise {
			lit = LitCondition(Cond(SimpleVar(*d.objective), OpLessThan, *d.bestObjective))
		} else {
			lit = LitCondition(Cond(SimpleVar(*d.objective), OpGreaterEqual, *d.bestObjective+1))
		}
		if _, err := d.tracker.Record(d.state, lit, JustifyUsingAssertion(), nil); err != nil {
			return err
		}
	}

	if err := d.props.RunToFixpoint(d.state, d.tracker); err != nil {
		return err
	}
	d.stats.Propagations++

	varID, ok := d.selectVar(d.state)
	if !ok {
		return d.handleSolution(depth)
	}

	values := d.orderValues(d.state, varID)
	var lastErr error
	for _, v := range values {
		if d.cancelled != nil && d.cancelled() {
			return errCancelled
		}
		if d.trace != nil {
			d.trace(TraceEvent{Kind: "guess", Depth: depth, Var: varID, Value: v})
		}

		epoch := d.state.NewEpoch()
		propMark := d.props.Checkpoint()
		trackMark := d.tracker.Mark()
		if d.logger != nil {
			d.logger.EnterProofLevel(NumberedProofLevel(depth))
		}

		lit := LitCondition(Cond(SimpleVar(varID), OpEqual, v))
		d.state.Guess(lit)
		_, err := d.tracker.Record(d.state, lit, NoJustificationNeeded(), nil)
		if err == nil {
			err = d.search(depth + 1)
		}

		if d.logger != nil {
			d.logger.ForgetProofLevel()
		}
		d.props.Backtrack(propMark)
		d.tracker.DiscardTo(trackMark)
		d.state.Backtrack(epoch)

		if errors.Is(err, errStopRequested) || errors.Is(err, errCancelled) {
			return err
		}
		// This value is exhausted (either a genuine contradiction, or a
		// solution subtree that was fully explored): try the next one.
		d.stats.Backtracks++
		if d.trace != nil {
			d.trace(TraceEvent{Kind: "backtrack", Depth: depth, Var: varID, Value: v})
		}
		lastErr = err
	}
	if lastErr == nil {
		// The domain was already empty before any guess was tried: a
		// modelling bug, since propagation should have caught this.
		lastErr = &Contradiction{}
	}
	return lastErr
}

func (d *SearchDriver) handleSolution(depth int) error {
	d.stats.Solutions++
	if d.trace != nil {
		d.trace(TraceEvent{Kind: "solution", Depth: depth})
	}
	d.log.WithField("solutions", d.stats.Solutions).Debug("solution found")

	keepGoing := true
	if d.onSolution != nil {
		keepGoing = d.onSolution(d.state)
	}

	if d.objective != nil {
		value := d.state.LowerBound(SimpleVar(*d.objective))
		d.bestObjective = &value
		if !keepGoing {
			return errStopRequested
		}
		// The cutoff derived from this bound is re-applied at the start
		// of every subsequent node (see search); here we only need to
		// force backtracking away from this now-fully-explored leaf.
		return &Contradiction{}
	}

	if !keepGoing {
		return errStopRequested
	}
	return &Contradiction{}
}
