package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/exporter"
	"github.com/achilleasa/lightbake/fabric"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/planner"
	"github.com/achilleasa/lightbake/scene"
)

// A runner executes tasks on a single goroutine. It owns its fabric session
// so channel stacks are never shared.
type runner struct {
	w        *Worker
	logger   log.Logger
	session  *fabric.Session
	exporter *exporter.Exporter
	stats    RunnerStats
}

// A solved mapping waiting to be exported.
type solvedMapping struct {
	task *planner.Task
	res  lighting.MappingResult
	dbg  *lighting.DebugRecorder
}

func (r *runner) run(ctx context.Context, batch planner.Batch) {
	start := time.Now()
	if r.w.opts.Batch.Enabled && batch.First().IsMapping() {
		r.runBatch(ctx, batch)
	} else {
		for _, task := range batch.Tasks {
			r.finish(task, r.runTask(ctx, task))
		}
	}
	r.stats.BusyTime += time.Since(start)
	r.stats.BytesWritten = r.session.BytesWritten
}

// Solve every mapping of a batch and export the successful ones to a single
// channel named after the first planned task, so readers can locate the batch
// even when that mapping failed.
func (r *runner) runBatch(ctx context.Context, batch planner.Batch) {
	solved := make([]solvedMapping, 0, len(batch.Tasks))
	results := make([]lighting.MappingResult, 0, len(batch.Tasks))
	for _, task := range batch.Tasks {
		res, dbg, err := r.solveMapping(ctx, task)
		if err != nil {
			r.finish(task, err)
			continue
		}
		solved = append(solved, solvedMapping{task: task, res: res, dbg: dbg})
		results = append(results, res)
	}
	if len(solved) == 0 {
		return
	}

	first := batch.First()
	exported := r.exporter.ExportBatch(first.Kind.ChannelKind(), first.Guid, results)
	for idx, sm := range solved {
		out := exported[idx]
		if out.Err == nil && sm.task.Debug {
			r.w.setDebugTraces(sm.dbg.Output(), out.Debug)
		}
		r.finish(sm.task, out.Err)
	}
}

func (r *runner) runTask(ctx context.Context, task *planner.Task) error {
	sc, slv := r.w.sc, r.w.solver

	switch task.Kind {
	case planner.TextureMappingTask, planner.VertexMappingTask:
		res, dbg, err := r.solveMapping(ctx, task)
		if err != nil {
			return err
		}
		var sample *encoder.DebugSample
		switch res := res.(type) {
		case *lighting.TextureMappingResult:
			sample, err = r.exporter.ExportTextureMapping(res)
		case *lighting.VertexMappingResult:
			sample, err = r.exporter.ExportVertexMapping(res)
		}
		if err == nil && task.Debug {
			r.w.setDebugTraces(dbg.Output(), sample)
		}
		return err
	case planner.VolumeSamplesTask:
		res, err := slv.VolumeSamples(ctx, lighting.NewDebugRecorder(sc.Constants.HasDebugMapping()))
		if err != nil {
			return err
		}
		return r.exporter.ExportVolumeLighting(res)
	case planner.VolumeDistanceFieldTask:
		res, err := slv.VolumeDistanceField(ctx)
		if err != nil {
			return err
		}
		return r.exporter.ExportVolumeDistanceField(res)
	case planner.MeshAreaLightTask:
		lights := exporter.SynthesizeMeshAreaLights(sc.MeshAreaLights, sc.Constants.MeshAreaLightSurfaceOffset)
		return r.exporter.ExportMeshAreaLights(lights)
	case planner.DominantShadowTask:
		res, err := slv.DominantShadow(ctx, task.Light)
		if err != nil {
			return err
		}
		return r.exporter.ExportDominantShadow(res)
	case planner.DebugOutputTask:
		return r.exporter.ExportDebugOutput(r.w.debugTraces())
	case planner.VisibilityTask:
		res, err := slv.Visibility(ctx, task.Visibility)
		if err != nil {
			return err
		}
		return r.exporter.ExportVisibility(res)
	}

	return fmt.Errorf("%w: %s", ErrUnknownTask, task.Kind)
}

func (r *runner) solveMapping(ctx context.Context, task *planner.Task) (lighting.MappingResult, *lighting.DebugRecorder, error) {
	dbg := lighting.NewDebugRecorder(task.Debug)
	switch m := task.Mapping.(type) {
	case *scene.TextureMapping:
		res, err := r.w.solver.TextureMapping(ctx, m, dbg)
		if err != nil {
			return nil, nil, err
		}
		return res, dbg, nil
	case *scene.VertexMapping:
		res, err := r.w.solver.VertexMapping(ctx, m, dbg)
		if err != nil {
			return nil, nil, err
		}
		return res, dbg, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTask, task.Kind)
}

// Update statistics and report progress for a finished task.
func (r *runner) finish(task *planner.Task, err error) {
	if err != nil {
		r.stats.Failed++
		r.logger.Errorf("%s task %s failed: %v", task.Kind, task.Guid, err)
		r.session.SendTextMessage("%s task %s failed: %v", task.Kind, task.Guid, err)
	} else {
		r.stats.Completed++
	}
	r.session.SendProgress(r.w.taskDone())
}

// Close any channel left open by an interrupted task.
func (r *runner) drain() {
	if r.exporter.InBatch() {
		if err := r.exporter.EndExport(); err != nil {
			r.logger.Warningf("discarding batch while draining: %v", err)
		}
	}
	if depth := r.session.Depth(); depth != 0 {
		r.logger.Warningf("closing %d channels left open", depth)
		if err := r.session.Close(); err != nil {
			r.logger.Errorf("closing channels: %v", err)
		}
	}
}
