package batch

import (
	"context"
	"runtime"

	"ammarena/internal/config"
	"ammarena/pkg/simtypes"

	"golang.org/x/sync/errgroup"
)

// maxAutoWorkers caps the auto-selected worker count (WorkerCount == 0)
// so a batch run never oversubscribes a large machine for what is, per
// simulation, a single-threaded driver loop.
const maxAutoWorkers = 8

// SimFunc runs one simulation to completion and returns its result. The
// runner is agnostic to which executor variant (native, sandboxed,
// mixed) SimFunc closes over.
type SimFunc func(cfg config.SimulationConfig) (simtypes.SimResult, error)

// Run executes one simulation per cfg in configs across a worker pool,
// preserving the input order in the returned BatchResult. workerCount
// of 0 selects min(runtime.NumCPU(), maxAutoWorkers).
//
// If any simulation returns an error, Run cancels the remaining work
// and returns that error; the partial BatchResult is discarded, per the
// batch runner's fail-the-whole-batch policy.
func Run(ctx context.Context, configs []config.SimulationConfig, workerCount int, run SimFunc) (simtypes.BatchResult, error) {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
		if workerCount > maxAutoWorkers {
			workerCount = maxAutoWorkers
		}
	}

	results := make([]simtypes.SimResult, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			result, err := run(cfg)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return simtypes.BatchResult{}, err
	}
	return simtypes.FromResults(results), nil
}
