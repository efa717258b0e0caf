package transit_test

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exotransit/chordgrid/internal/testutil"
	"github.com/exotransit/chordgrid/internal/transit"
)

func prepare(t *testing.T, phases, rhos, phis, wavelengths int) (transit.Grid, *transit.SharedArguments) {
	t.Helper()
	grid, args, err := transit.PrepareGrid(testutil.SmallConfig(phases, rhos, phis, wavelengths))
	require.NoError(t, err)
	return grid, args
}

func TestEvaluateAll_PreservesOrder(t *testing.T) {
	grid, args := prepare(t, 3, 4, 5, 1)

	for _, workers := range []int{2, 4, 7} {
		model := testutil.JitterModel(testutil.IndexModel(), 2*time.Millisecond, uint64(workers))
		table, err := transit.EvaluateAll(context.Background(), grid, args, model, workers)
		require.NoError(t, err)
		require.Len(t, table, len(grid))
		for i, res := range table {
			require.Len(t, res.Transmission, 1)
			assert.Equal(t, float64(i), res.Transmission[0], "workers=%d slot %d", workers, i)
		}
	}
}

func TestEvaluateAll_EvaluatesEveryChordOnce(t *testing.T) {
	grid, args := prepare(t, 2, 3, 4, 2)
	model := &testutil.CountingModel{Model: testutil.ConstantModel(1)}

	table, err := transit.EvaluateAll(context.Background(), grid, args, model, 3)
	require.NoError(t, err)
	assert.Len(t, table, len(grid))
	assert.Equal(t, len(grid), model.Calls())
}

func TestEvaluateAll_FailFast(t *testing.T) {
	grid, args := prepare(t, 3, 4, 5, 2)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 5; trial++ {
		bad := rng.Intn(len(grid))
		model := testutil.FailAt(testutil.ConstantModel(0.5), bad)

		table, err := transit.EvaluateAll(context.Background(), grid, args, model, 4)
		require.Error(t, err)
		assert.Nil(t, table)

		var evalErr *transit.ModelEvaluationError
		require.True(t, errors.As(err, &evalErr), "want *ModelEvaluationError, got %T", err)
		assert.Equal(t, bad, evalErr.ChordIndex)
		assert.Equal(t, grid[bad], evalErr.Chord)
		assert.True(t, errors.Is(err, testutil.ErrInjected))
	}
}

func TestEvaluateAll_RecoversPanic(t *testing.T) {
	grid, args := prepare(t, 1, 2, 2, 1)
	model := transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		if ch.Index == 3 {
			panic("boom")
		}
		return transit.ChordResult{Transmission: []float64{1}}, nil
	})

	table, err := transit.EvaluateAll(context.Background(), grid, args, model, 2)
	assert.Nil(t, table)
	var evalErr *transit.ModelEvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 3, evalErr.ChordIndex)
	assert.Contains(t, err.Error(), "boom")
}

func TestEvaluateAll_RejectsWrongRowLength(t *testing.T) {
	grid, args := prepare(t, 1, 2, 2, 3)
	model := transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		return transit.ChordResult{Transmission: []float64{1, 1}}, nil
	})

	table, err := transit.EvaluateAll(context.Background(), grid, args, model, 2)
	assert.Nil(t, table)
	var shapeErr *transit.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr), "want *ShapeMismatchError, got %T", err)
	assert.Equal(t, 3, shapeErr.Want)
	assert.Equal(t, 2, shapeErr.Got)
	var evalErr *transit.ModelEvaluationError
	assert.True(t, errors.As(err, &evalErr))
}

func TestEvaluateAll_RequiresBenchmarkWhenRequested(t *testing.T) {
	cfg := testutil.SmallConfig(1, 2, 2, 2)
	cfg.Output.Benchmark = true
	grid, args, err := transit.PrepareGrid(cfg)
	require.NoError(t, err)

	model := transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		return transit.ChordResult{Transmission: []float64{1, 1}}, nil
	})
	_, err = transit.EvaluateAll(context.Background(), grid, args, model, 1)
	var shapeErr *transit.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "benchmark row", shapeErr.What)
}

func TestEvaluateAll_RejectsNegativeTau(t *testing.T) {
	cfg := testutil.SmallConfig(1, 1, 1, 1)
	cfg.Output.RecordTau = true
	grid, args, err := transit.PrepareGrid(cfg)
	require.NoError(t, err)

	_, err = transit.EvaluateAll(context.Background(), grid, args, testutil.ConstantModel(-1), 1)
	var evalErr *transit.ModelEvaluationError
	assert.True(t, errors.As(err, &evalErr))
}

func TestEvaluateAll_Cancelled(t *testing.T) {
	grid, args := prepare(t, 2, 3, 3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := transit.EvaluateAll(ctx, grid, args, testutil.ConstantModel(1), 2)
	assert.Nil(t, table)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAll_Progress(t *testing.T) {
	grid, args := prepare(t, 2, 3, 4, 1)
	var calls, last atomic.Int64

	table, err := transit.EvaluateAll(context.Background(), grid, args, testutil.ConstantModel(1), 3,
		transit.WithProgress(func(done, total int) {
			calls.Add(1)
			assert.Equal(t, len(grid), total)
			for {
				prev := last.Load()
				if int64(done) <= prev || last.CompareAndSwap(prev, int64(done)) {
					break
				}
			}
		}))
	require.NoError(t, err)
	assert.Len(t, table, len(grid))
	assert.Equal(t, int64(len(grid)), calls.Load())
	assert.Equal(t, int64(len(grid)), last.Load())
}

func TestEvaluateAll_NilInputs(t *testing.T) {
	grid, args := prepare(t, 1, 1, 1, 1)
	_, err := transit.EvaluateAll(context.Background(), grid, args, nil, 1)
	assert.Error(t, err)
	_, err = transit.EvaluateAll(context.Background(), grid, nil, testutil.ConstantModel(1), 1)
	assert.Error(t, err)

	table, err := transit.EvaluateAll(context.Background(), nil, args, testutil.ConstantModel(1), 1)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestWorkerCount(t *testing.T) {
	cpus := runtime.NumCPU()
	tests := []struct {
		name      string
		requested int
		tasks     int
		want      int
	}{
		{"explicit", 3, 100, 3},
		{"capped by tasks", 8, 2, 2},
		{"default", 0, 1 << 20, cpus},
		{"negative means default", -1, 1 << 20, cpus},
		{"default capped", 0, 1, 1},
		{"no tasks", 4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transit.WorkerCount(tt.requested, tt.tasks))
		})
	}
}
