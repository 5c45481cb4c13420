// Command gcsdemo is a thin external driver over pkg/gcs: it sets up a
// small send-more-money-style digit puzzle, solves it, and optionally
// writes a VeriPB-style proof pair alongside the solution. It exists to
// exercise the solver end to end from outside its own test suite, not as
// a supported entry point.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gcsgo/pkg/gcs"
)

func main() {
	var (
		verbose    bool
		proofDir   string
		flavourStr string
	)

	rootCmd := &cobra.Command{
		Use:   "gcsdemo",
		Short: "gcsdemo",
		Long:  `A small driver that solves a digit puzzle with the gcs constraint solver.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New()
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			return run(logger, proofDir, flavourStr)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&proofDir, "proof-dir", "", "directory to write model.opb and proof.pbp into (omit to skip proof logging)")
	flags.StringVar(&flavourStr, "tracker", "reasons", "proof tracker flavour: guesses, reasons, lazy")

	if err := rootCmd.Execute(); err != nil {
		log.StandardLogger().WithError(err).Error("gcsdemo failed")
		os.Exit(1)
	}
}

func run(logger *log.Logger, proofDir, flavourStr string) error {
	flavour, err := parseFlavour(flavourStr)
	if err != nil {
		return err
	}

	var problem *gcs.Problem
	var modelFile, proofFile *os.File
	if proofDir != "" {
		if err := os.MkdirAll(proofDir, 0o755); err != nil {
			return errors.Wrap(err, "gcsdemo: creating proof directory")
		}
		modelFile, err = os.Create(proofDir + "/model.opb")
		if err != nil {
			return errors.Wrap(err, "gcsdemo: creating model.opb")
		}
		defer modelFile.Close()
		proofFile, err = os.Create(proofDir + "/proof.pbp")
		if err != nil {
			return errors.Wrap(err, "gcsdemo: creating proof.pbp")
		}
		defer proofFile.Close()
		problem = gcs.NewProblemWithProof(gcs.ProofOptions{UseFriendlyNames: true}, flavour, modelFile, proofFile, logger)
	} else {
		problem = gcs.NewProblem(logger)
	}

	letters := []string{"S", "E", "N", "D", "M", "O", "R", "Y"}
	vars := make(map[string]gcs.SimpleIntegerVariableID, len(letters))
	for _, l := range letters {
		lower := gcs.Integer(0)
		if l == "S" || l == "M" {
			lower = 1
		}
		vars[l] = problem.CreateVariable(lower, 9, l)
	}

	installAllDifferent(problem, vars, letters)
	installSendMoreMoney(problem, vars)

	var solution map[string]gcs.Integer
	stats := problem.Solve(func(s *gcs.State) bool {
		solution = make(map[string]gcs.Integer, len(letters))
		for _, l := range letters {
			v, _ := s.OptionalSingleValue(gcs.SimpleVar(vars[l]))
			solution[l] = v
		}
		return false // first solution is enough for a demo
	})

	if solution == nil {
		fmt.Println("no solution found")
		return nil
	}
	fmt.Printf("SEND+MORE=MONEY: %v (nodes=%d, backtracks=%d)\n", solution, stats.Nodes, stats.Backtracks)
	return nil
}

func parseFlavour(s string) (gcs.ProofTrackerFlavour, error) {
	switch s {
	case "guesses":
		return gcs.LogUsingGuesses, nil
	case "reasons":
		return gcs.LogUsingReasons, nil
	case "lazy":
		return gcs.LazyProofGeneration, nil
	default:
		return 0, errors.Errorf("gcsdemo: unknown tracker flavour %q", s)
	}
}

// installAllDifferent posts a pairwise not-equal propagator between every
// pair of letters, the simplest possible encoding of an AllDifferent
// constraint.
func installAllDifferent(p *gcs.Problem, vars map[string]gcs.SimpleIntegerVariableID, letters []string) {
	for i := 0; i < len(letters); i++ {
		for j := i + 1; j < len(letters); j++ {
			a, b := vars[letters[i]], vars[letters[j]]
			p.Propagators().Install(
				fmt.Sprintf("%s!=%s", letters[i], letters[j]),
				[]gcs.Trigger{
					{Var: a, Kind: gcs.TriggerOnInstantiated},
					{Var: b, Kind: gcs.TriggerOnInstantiated},
				},
				notEqualPropagator(a, b),
			)
		}
	}
}

func notEqualPropagator(a, b gcs.SimpleIntegerVariableID) gcs.PropagatorFunc {
	return func(state *gcs.State, tracker gcs.InferenceTracker) error {
		if v, ok := state.OptionalSingleValue(gcs.SimpleVar(a)); ok {
			lit := gcs.LitCondition(gcs.Cond(gcs.SimpleVar(b), gcs.OpNotEqual, v))
			if _, err := tracker.Record(state, lit, gcs.JustifyUsingRUP(), func() []gcs.Literal {
				return []gcs.Literal{gcs.LitCondition(gcs.Cond(gcs.SimpleVar(a), gcs.OpEqual, v))}
			}); err != nil {
				return err
			}
		}
		if v, ok := state.OptionalSingleValue(gcs.SimpleVar(b)); ok {
			lit := gcs.LitCondition(gcs.Cond(gcs.SimpleVar(a), gcs.OpNotEqual, v))
			if _, err := tracker.Record(state, lit, gcs.JustifyUsingRUP(), func() []gcs.Literal {
				return []gcs.Literal{gcs.LitCondition(gcs.Cond(gcs.SimpleVar(b), gcs.OpEqual, v))}
			}); err != nil {
				return err
			}
		}
		return nil
	}
}

// installSendMoreMoney posts the arithmetic identity
//
//	1000*S + 100*E + 10*N + D + 1000*M + 100*O + 10*R + E
//	  == 10000*M + 1000*O + 100*N + 10*E + Y
//
// as a single propagator, woken whenever any of the eight digits' bounds
// move. It only checks whether the two sides' value ranges still overlap
// and fails if they do not; it prunes no digit's domain.
func installSendMoreMoney(p *gcs.Problem, vars map[string]gcs.SimpleIntegerVariableID) {
	letters := []string{"S", "E", "N", "D", "M", "O", "R", "Y"}
	var triggers []gcs.Trigger
	for _, l := range letters {
		triggers = append(triggers, gcs.Trigger{Var: vars[l], Kind: gcs.TriggerOnBounds})
	}

	p.Propagators().Install("send+more=money", triggers, func(state *gcs.State, tracker gcs.InferenceTracker) error {
		lhs := []struct {
			v gcs.SimpleIntegerVariableID
			w gcs.Integer
		}{
			{vars["S"], 1000}, {vars["E"], 100}, {vars["N"], 10}, {vars["D"], 1},
			{vars["M"], 1000}, {vars["O"], 100}, {vars["R"], 10}, {vars["E"], 1},
		}
		rhs := []struct {
			v gcs.SimpleIntegerVariableID
			w gcs.Integer
		}{
			{vars["M"], 10000}, {vars["O"], 1000}, {vars["N"], 100}, {vars["E"], 10}, {vars["Y"], 1},
		}

		var lhsLower, lhsUpper, rhsLower, rhsUpper gcs.Integer
		for _, t := range lhs {
			lhsLower += t.w * state.LowerBound(gcs.SimpleVar(t.v))
			lhsUpper += t.w * state.UpperBound(gcs.SimpleVar(t.v))
		}
		for _, t := range rhs {
			rhsLower += t.w * state.LowerBound(gcs.SimpleVar(t.v))
			rhsUpper += t.w * state.UpperBound(gcs.SimpleVar(t.v))
		}

		// lhs == rhs is impossible once one side's lowest possible value
		// exceeds the other side's highest; this is the only check made,
		// and no individual digit is tightened.
		if lhsLower > rhsUpper || rhsLower > lhsUpper {
			return &gcs.Contradiction{}
		}
		return nil
	})
}
