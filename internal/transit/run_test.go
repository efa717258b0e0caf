package transit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/testutil"
	"github.com/exotransit/chordgrid/internal/transit"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testutil.SmallConfig(1, 2, 2, 1)
	res, err := transit.Run(context.Background(), cfg, testutil.ConstantFactory(0.5), transit.RunOptions{Workers: 2})
	require.NoError(t, err)

	lc := res.Reduction.LightCurve
	require.Equal(t, 1, lc.PhaseCount)
	require.Equal(t, 1, lc.WavelengthCount)
	assert.Equal(t, 2.0, lc.At(0, 0))
	assert.Equal(t, transit.Shape{PhaseCount: 1, RhoCount: 2, PhiCount: 2, WavelengthCount: 1}, res.Shape)
	assert.Equal(t, 2, res.Axes.Rho.Len())

	s := res.Summary()
	assert.Equal(t, 100.0, s.MaxDecreasePercent)
	assert.Equal(t, 100.0, s.MinDecreasePercent)
}

func TestRun_ProgressAndFlags(t *testing.T) {
	cfg := testutil.SmallConfig(3, 2, 2, 2)
	cfg.Output.Benchmark = true
	cfg.Output.RecordTau = true

	var last int
	res, err := transit.Run(context.Background(), cfg, testutil.ConstantFactory(0.25), transit.RunOptions{
		Workers:  1,
		Progress: func(done, total int) { last = done },
	})
	require.NoError(t, err)
	assert.Equal(t, 12, last)
	require.NotNil(t, res.Reduction.Benchmark)
	require.NotNil(t, res.Reduction.Tau)
	assert.Equal(t, 1, res.Flags.TauPhaseIndex)

	s := res.Summary()
	assert.InDelta(t, 0.0, s.MaxDecreasePercent, 1e-12)
}

func TestRun_Errors(t *testing.T) {
	cfg := testutil.SmallConfig(1, 2, 2, 1)

	_, err := transit.Run(context.Background(), cfg, nil, transit.RunOptions{})
	assert.Error(t, err)

	factoryErr := errors.New("no tables")
	_, err = transit.Run(context.Background(), cfg, func(*transit.SharedArguments) (transit.ChordModel, error) {
		return nil, factoryErr
	}, transit.RunOptions{})
	assert.ErrorIs(t, err, factoryErr)

	failing := func(*transit.SharedArguments) (transit.ChordModel, error) {
		return testutil.FailAt(testutil.ConstantModel(1), 1), nil
	}
	res, err := transit.Run(context.Background(), cfg, failing, transit.RunOptions{})
	assert.Nil(t, res)
	var evalErr *transit.ModelEvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 1, evalErr.ChordIndex)

	bad := testutil.SmallConfig(1, 0, 2, 1)
	_, err = transit.Run(context.Background(), bad, testutil.ConstantFactory(1), transit.RunOptions{})
	var cfgErr *transit.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
