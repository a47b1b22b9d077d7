// Package worker drives a scene bake: it imports the scene from the fabric,
// plans the lighting tasks and executes them on a pool of goroutines that
// export their results to the fabric.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/exporter"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/solver"
	"github.com/achilleasa/lightbake/types"
)

type Worker struct {
	logger log.Logger
	fabric fabric.Fabric
	opts   Options

	mu    sync.Mutex
	state State
	stats Stats

	// Read only once planning starts.
	sc     *scene.Scene
	solver solver.Solver

	numTasks  int64
	completed atomic.Int64

	// Traces of the debug mapping, exported by the debug output task.
	debugMu     sync.Mutex
	debugOutput *lighting.DebugOutput
	debugSample *encoder.DebugSample
}

// Create a worker that exchanges data over f.
func New(f fabric.Fabric, opts Options) *Worker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Solver == nil {
		opts.Solver = DirectSolver(solver.DefaultOptions())
	}

	return &Worker{
		logger: log.New("worker"),
		fabric: f,
		opts:   opts,
	}
}

// Get the current worker state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(state State) {
	w.mu.Lock()
	prev := w.state
	w.state = state
	w.mu.Unlock()
	w.logger.Debugf("state: %s -> %s", prev, state)
}

// Get a snapshot of the worker statistics. Runner statistics are only
// available once the worker terminates.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	stats := w.stats
	stats.Runners = append([]RunnerStats(nil), w.stats.Runners...)
	return stats
}

// Get the imported scene or nil if the scene has not been imported yet.
func (w *Worker) Scene() *scene.Scene {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sc
}

// Bake the scene with the given guid. Task failures are reported through the
// fabric and the worker statistics; only a failed scene import or a
// cancelled context make Run return an error.
func (w *Worker) Run(ctx context.Context, sceneGuid types.Guid) error {
	w.mu.Lock()
	if w.state != Init {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.mu.Unlock()

	session := fabric.NewSession(w.fabric)
	defer session.Close()

	w.setState(ImportingScene)
	importStart := time.Now()
	sc, err := scene.Import(session, sceneGuid, w.opts.Import)
	if err != nil {
		w.logger.Errorf("importing scene %s: %v", sceneGuid, err)
		session.SendTextMessage("fatal: could not import scene %s: %v", sceneGuid, err)
		w.setState(Terminated)
		return fmt.Errorf("%w: %w", ErrSceneImport, err)
	}
	w.logger.Noticef("imported scene %s in %d ms", sceneGuid, time.Since(importStart).Nanoseconds()/1e6)
	w.logger.Infof("scene statistics\n%s", sc.Stats())

	w.setState(Planning)
	plan := planner.Build(sc)
	batches := planner.Group(plan.Mappings, w.opts.Batch)
	w.mu.Lock()
	w.sc = sc
	w.stats.Tasks = plan.Len()
	w.mu.Unlock()
	w.numTasks = int64(plan.Len())
	w.solver = w.opts.Solver(sc)
	w.logger.Noticef(
		"planned %d mappings in %d batches, %d auxiliary and %d visibility tasks",
		len(plan.Mappings), len(batches), len(plan.Auxiliary), len(plan.Visibility),
	)

	w.setState(Executing)
	execStart := time.Now()
	runners := make([]*runner, w.opts.Workers)
	for idx := range runners {
		runners[idx] = w.newRunner(idx, sc)
	}

	// Mappings must complete before the debug output task runs.
	w.execute(ctx, runners, batches)
	var auxBatches []planner.Batch
	for _, task := range append(plan.Auxiliary, plan.Visibility...) {
		auxBatches = append(auxBatches, planner.Batch{Tasks: []*planner.Task{task}})
	}
	w.execute(ctx, runners, auxBatches)

	w.setState(Draining)
	runnerStats := make([]RunnerStats, len(runners))
	for idx, r := range runners {
		r.drain()
		runnerStats[idx] = r.stats
	}
	w.mu.Lock()
	w.stats.Runners = runnerStats
	w.stats.ExecutionTime = time.Since(execStart)
	w.mu.Unlock()

	stats := w.Stats()
	w.setState(Terminated)
	if err = ctx.Err(); err != nil {
		session.SendTextMessage("bake of scene %s cancelled after %d of %d tasks", sceneGuid, w.completed.Load(), plan.Len())
		return err
	}
	session.SendTextMessage("bake of scene %s completed: %d tasks, %d failed", sceneGuid, plan.Len(), stats.Failed())
	w.logger.Noticef("worker statistics\n%s", stats)
	return nil
}

// Feed batches to the runners and wait for them to finish. A cancelled
// context stops the dispatch of further batches.
func (w *Worker) execute(ctx context.Context, runners []*runner, batches []planner.Batch) {
	if len(batches) == 0 {
		return
	}

	batchCh := make(chan planner.Batch)
	var wg sync.WaitGroup
	wg.Add(len(runners))
	for _, r := range runners {
		go func(r *runner) {
			defer wg.Done()
			for batch := range batchCh {
				r.run(ctx, batch)
			}
		}(r)
	}

dispatch:
	for _, batch := range batches {
		if ctx.Err() != nil {
			w.logger.Warningf("context cancelled; skipping remaining batches")
			break
		}
		select {
		case batchCh <- batch:
		case <-ctx.Done():
			w.logger.Warningf("context cancelled; skipping remaining batches")
			break dispatch
		}
	}
	close(batchCh)
	wg.Wait()
}

// Record a completed task and return the overall progress percentage.
func (w *Worker) taskDone() int {
	done := w.completed.Add(1)
	if w.numTasks == 0 {
		return 100
	}
	return int(done * 100 / w.numTasks)
}

func (w *Worker) setDebugTraces(out *lighting.DebugOutput, sample *encoder.DebugSample) {
	w.debugMu.Lock()
	w.debugOutput, w.debugSample = out, sample
	w.debugMu.Unlock()
}

// Get the traces of the debug mapping. If the debug mapping failed an
// invalid, empty output is returned.
func (w *Worker) debugTraces() (*lighting.DebugOutput, *encoder.DebugSample) {
	w.debugMu.Lock()
	defer w.debugMu.Unlock()
	if w.debugOutput == nil {
		return &lighting.DebugOutput{}, nil
	}
	return w.debugOutput, w.debugSample
}

func (w *Worker) newRunner(id int, sc *scene.Scene) *runner {
	session := fabric.NewSession(w.fabric)
	return &runner{
		w:       w,
		logger:  log.New(fmt.Sprintf("runner %d", id)),
		session: session,
		exporter: exporter.New(session, exporter.Options{
			Encoder:      encoder.OptionsFromConstants(sc.Constants),
			DebugMapping: sc.Constants.DebugMappingGuid,
		}),
		stats: RunnerStats{Id: id},
	}
}
