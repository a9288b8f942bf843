package interp

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aledsdavies/shellvm/pkgs/ast"
	"github.com/aledsdavies/shellvm/pkgs/ioprim"
)

// execPipeline runs every stage of pl concurrently, connecting each
// adjacent pair with an in-memory ioprim.Pipe: all stages start together,
// a write blocks until the downstream stage reads it, and the pipeline's
// own exit code is the last stage's. A single-stage pipeline runs inline
// with no pipe plumbing.
func (it *Interpreter) execPipeline(ctx context.Context, pl *ast.Pipeline, sc *scope, depth int) (int, error) {
	n := len(pl.Stages)
	if n == 0 {
		return 0, nil
	}
	if n == 1 {
		return it.execCommand(ctx, pl.Stages[0], sc, depth)
	}

	traceID := newPipelineTraceID()
	if it.logger != nil {
		it.logger.WithField("pipeline", traceID).WithField("stages", n).Debug("starting pipeline")
	}

	pipes := make([]*ioprim.Pipe, n-1)
	for i := range pipes {
		pipes[i] = ioprim.NewPipe()
	}

	codes := make([]int, n)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		i := i
		stage := pl.Stages[i]
		stageScope := &scope{env: sc.env, stdin: sc.stdin, stdout: sc.stdout, stderr: sc.stderr}
		if i > 0 {
			stageScope.stdin = pipes[i-1].Reader()
		}
		if i < n-1 {
			stageScope.stdout = pipes[i].Writer()
		}

		g.Go(func() error {
			code, err := it.execCommand(gctx, stage, stageScope, depth)
			codes[i] = code
			if i < n-1 {
				_ = pipes[i].Writer().Close()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if it.logger != nil {
		it.logger.WithField("pipeline", traceID).WithField("exit_code", codes[n-1]).Debug("pipeline complete")
	}

	return codes[n-1], nil
}
