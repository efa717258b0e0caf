package transit

import (
	"context"
	"fmt"
	"math"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/monitoring"
)

// RunOptions tunes a run.
type RunOptions struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers int
	// Progress, if set, is called after every completed chord.
	Progress func(done, total int)
}

// Result is a complete, reduced run.
type Result struct {
	Axes      Axes
	Shape     Shape
	Flags     OutputFlags
	Reduction *Reduction
}

// Summary holds the headline numbers of a light curve, in percent.
type Summary struct {
	MaxDecreasePercent float64
	MinDecreasePercent float64
}

// Summary reports the largest and smallest flux decrease of the light curve
// as absolute percentages.
func (r *Result) Summary() Summary {
	lc := r.Reduction.LightCurve
	return Summary{
		MaxDecreasePercent: math.Abs(100 * (1 - lc.Min())),
		MinDecreasePercent: math.Abs(100 * (1 - lc.Max())),
	}
}

// Run prepares the grid for cfg, builds the chord model, evaluates every
// chord and reduces the results. It returns either a complete result or an
// error, never a partial result.
func Run(ctx context.Context, cfg *config.Config, factory ModelFactory, opts RunOptions) (*Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("run: model factory is nil")
	}
	grid, args, err := PrepareGrid(cfg)
	if err != nil {
		return nil, err
	}
	shape := args.Shape()
	monitoring.Logf("grid ready: %d phases x %d phi x %d rho = %d chords, %d wavelengths (%s)",
		shape.PhaseCount, shape.PhiCount, shape.RhoCount, len(grid), shape.WavelengthCount, GridNesting)

	model, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("build chord model: %w", err)
	}

	var evalOpts []EvalOption
	if opts.Progress != nil {
		evalOpts = append(evalOpts, WithProgress(opts.Progress))
	}
	table, err := EvaluateAll(ctx, grid, args, model, opts.Workers, evalOpts...)
	if err != nil {
		return nil, fmt.Errorf("evaluate chords: %w", err)
	}

	red, err := Reduce(table, shape, args.Flags())
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	return &Result{Axes: args.Axes(), Shape: shape, Flags: args.Flags(), Reduction: red}, nil
}
