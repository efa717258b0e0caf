package transit

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// EvalOption configures EvaluateAll.
type EvalOption func(*evalOptions)

type evalOptions struct {
	progress func(done, total int)
}

// WithProgress registers a callback invoked after every completed chord. It
// is called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) EvalOption {
	return func(o *evalOptions) { o.progress = fn }
}

// WorkerCount resolves the pool size: requested if positive, otherwise the
// number of CPUs, never more than the number of tasks and never below 1.
func WorkerCount(requested, tasks int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if tasks > 0 && n > tasks {
		n = tasks
	}
	if n < 1 {
		n = 1
	}
	return n
}

// EvaluateAll runs model on every chord of grid using a fixed pool of
// workers and returns the results in grid order.
//
// Each result is written to the slot of its chord index, so completion order
// does not matter. The first failing chord cancels the remaining work and the
// call returns a *ModelEvaluationError and no table. Cancelling ctx also
// returns no table.
func EvaluateAll(ctx context.Context, grid Grid, args *SharedArguments, model ChordModel, workers int, opts ...EvalOption) (ResultTable, error) {
	if model == nil {
		return nil, fmt.Errorf("evaluate: chord model is nil")
	}
	if args == nil {
		return nil, fmt.Errorf("evaluate: shared arguments are nil")
	}
	var o evalOptions
	for _, opt := range opts {
		opt(&o)
	}

	total := len(grid)
	results := make(ResultTable, total)
	if total == 0 {
		return results, nil
	}
	workers = WorkerCount(workers, total)
	wavelengths := args.WavelengthCount()
	flags := args.Flags()

	g, gctx := errgroup.WithContext(ctx)
	indices := make(chan int, workers)

	g.Go(func() error {
		defer close(indices)
		for i := range grid {
			select {
			case indices <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	var done atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range indices {
				if gctx.Err() != nil {
					return nil
				}
				res, err := evaluateOne(model, grid[i], args)
				if err == nil {
					err = checkResult(res, wavelengths, flags)
				}
				if err != nil {
					return &ModelEvaluationError{ChordIndex: i, Chord: grid[i], Err: err}
				}
				results[i] = res
				n := int(done.Add(1))
				if o.progress != nil {
					o.progress(n, total)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n := int(done.Load()); n != total {
		return nil, &ShapeMismatchError{What: "evaluated chords", Want: total, Got: n}
	}
	return results, nil
}

// evaluateOne converts a model panic into an error.
func evaluateOne(model ChordModel, ch Chord, args *SharedArguments) (res ChordResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chord model panicked: %v", r)
		}
	}()
	return model.Evaluate(ch, args)
}
