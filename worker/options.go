package worker

import (
	"runtime"

	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/solver"
)

// Creates the solver used for an imported scene.
type SolverFactory func(sc *scene.Scene) solver.Solver

type Options struct {
	// Number of goroutines executing tasks.
	Workers int

	// Mapping batch settings.
	Batch planner.BatchOptions

	Import scene.ImportOptions

	// Defaults to the direct lighting solver.
	Solver SolverFactory
}

// Get the default worker options.
func DefaultOptions() Options {
	return Options{
		Workers: runtime.NumCPU(),
		Batch: planner.BatchOptions{
			MaxBatchSize:          64,
			SmallMappingThreshold: 64 * 64,
		},
	}
}

func DirectSolver(opts solver.Options) SolverFactory {
	return func(sc *scene.Scene) solver.Solver {
		return solver.NewDirect(sc, opts)
	}
}
