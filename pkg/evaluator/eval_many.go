package evaluator

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one expression evaluated by EvalMany.
type Result struct {
	Input string
	Value float64
	Err   error
}

// EvalMany compiles and evaluates independent expressions, each against its
// own clone of evalCtx, so that memory and last-result updates do not leak
// between them. Per-expression failures are reported in Result.Err; the
// returned error is non-nil only when ctx is cancelled.
//
// Evaluation runs concurrently unless the evaluator was created with
// WithConcurrency(false). Results keep the order of inputs.
func (e *Evaluator) EvalMany(ctx context.Context, inputs []string, evalCtx *EvalContext) ([]Result, error) {
	if evalCtx == nil {
		evalCtx = NewContext()
	}
	results := make([]Result, len(inputs))

	if !e.opts.Concurrency || len(inputs) < 2 {
		for i, input := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := e.EvalString(ctx, input, evalCtx.Clone())
			results[i] = Result{Input: input, Value: v, Err: err}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, input := range inputs {
		local := evalCtx.Clone()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := e.EvalString(gctx, input, local)
			results[i] = Result{Input: input, Value: v, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
