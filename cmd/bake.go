package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/achilleasa/lightbake/solver"
	"github.com/achilleasa/lightbake/types"
	"github.com/achilleasa/lightbake/worker"
	"github.com/urfave/cli"
)

// Bake the lighting for a scene stored in a channel directory.
func Bake(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sceneGuid, err := sceneGuidArg(ctx)
	if err != nil {
		return err
	}

	dir, err := openChannels(ctx)
	if err != nil {
		return err
	}

	opts := workerOptions(ctx)
	logger.Noticef("baking scene %s using %d workers (batching: %t)", sceneGuid, opts.Workers, opts.Batch.Enabled)

	runCtx, cancel := signalContext()
	defer cancel()

	w := worker.New(dir, opts)
	err = w.Run(runCtx, sceneGuid)

	stats := w.Stats()
	if len(stats.Runners) != 0 {
		logger.Noticef("bake statistics\n%s", stats.String())
	}

	switch {
	case err != nil:
		return err
	case stats.Failed() != 0:
		return fmt.Errorf("%d of %d tasks failed", stats.Failed(), stats.Tasks)
	}
	return nil
}

func workerOptions(ctx *cli.Context) worker.Options {
	opts := worker.DefaultOptions()
	if n := ctx.Int("workers"); n > 0 {
		opts.Workers = n
	}
	opts.Batch.Enabled = ctx.Bool("batch")
	if n := ctx.Int("batch-size"); n > 0 {
		opts.Batch.MaxBatchSize = n
	}
	opts.Import.StrictMeshReferences = ctx.Bool("strict")

	solverOpts := solver.DefaultOptions()
	if n := ctx.Int("sky-samples"); n > 0 {
		solverOpts.SkySamples = n
	}
	solverOpts.DebugVisibility = ctx.Bool("debug-visibility")
	opts.Solver = worker.DirectSolver(solverOpts)
	return opts
}

// Get a context that gets cancelled when the process receives SIGINT or
// SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Warningf("received %s; aborting outstanding tasks", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func sceneGuidArg(ctx *cli.Context) (types.Guid, error) {
	value := ctx.String("scene")
	if value == "" {
		return types.Guid{}, errors.New("missing --scene argument")
	}
	return types.ParseGuid(value)
}
