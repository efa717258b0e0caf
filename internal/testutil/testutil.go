// Package testutil provides shared test fixtures: small configurations and
// synthetic chord models with known reductions.
package testutil

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/transit"
)

// ErrInjected is returned by FailAt.
var ErrInjected = errors.New("injected chord failure")

// SmallConfig returns a valid configuration with the given grid dimensions
// and a single weak sodium line in the bandpass.
func SmallConfig(phases, rhos, phis, wavelengths int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grids = config.Grids{
		OrbphaseLower: config.Float64(-0.05),
		OrbphaseUpper: config.Float64(0.05),
		OrbphaseSteps: phases,
		LambdaSteps:   wavelengths,
		RhoSteps:      rhos,
		PhiSteps:      phis,
	}
	cfg.Output = config.Output{}
	return cfg
}

// ConstantModel returns value for every wavelength of every chord, with a
// matching benchmark and a tau equal to value.
func ConstantModel(value float64) transit.ChordModel {
	return transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		return fill(args, func(int) float64 { return value }, value), nil
	})
}

// ConstantFactory wraps ConstantModel as a model factory.
func ConstantFactory(value float64) transit.ModelFactory {
	return func(*transit.SharedArguments) (transit.ChordModel, error) {
		return ConstantModel(value), nil
	}
}

// IndexModel returns the chord index as its only transmission value. Use it
// with shared arguments that have a single wavelength.
func IndexModel() transit.ChordModel {
	return transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		return transit.ChordResult{Transmission: []float64{float64(ch.Index)}}, nil
	})
}

// JitterModel wraps m with a sleep of up to maxDelay before every
// evaluation so completions arrive out of order. The delay is a hash of seed
// and the chord index, so workers share no state.
func JitterModel(m transit.ChordModel, maxDelay time.Duration, seed uint64) transit.ChordModel {
	return transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		frac := float64(splitmix64(seed^uint64(ch.Index))%1000) / 1000
		time.Sleep(time.Duration(frac * float64(maxDelay)))
		return m.Evaluate(ch, args)
	})
}

// TableModel returns a model whose transmission for (phase, rho, phi, w) is
// value(phase, rho, phi, w).
func TableModel(value func(phase, rho, phi, w int) float64) transit.ChordModel {
	return transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		res := fill(args, func(w int) float64 { return value(ch.PhaseIndex, ch.RhoIndex, ch.PhiIndex, w) }, 0)
		if args.RecordTau() {
			res.Tau = float64(ch.RhoIndex) + 1000*float64(ch.PhiIndex)
		}
		return res, nil
	})
}

// FailAt wraps m and fails with ErrInjected on the chord at index.
func FailAt(m transit.ChordModel, index int) transit.ChordModel {
	return transit.ChordModelFunc(func(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
		if ch.Index == index {
			return transit.ChordResult{}, ErrInjected
		}
		return m.Evaluate(ch, args)
	})
}

// CountingModel wraps m and counts evaluations.
type CountingModel struct {
	Model transit.ChordModel
	calls atomic.Int64
}

// Evaluate counts the call and delegates.
func (c *CountingModel) Evaluate(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
	c.calls.Add(1)
	return c.Model.Evaluate(ch, args)
}

// Calls returns the number of evaluations so far.
func (c *CountingModel) Calls() int { return int(c.calls.Load()) }

func fill(args *transit.SharedArguments, value func(w int) float64, tau float64) transit.ChordResult {
	n := args.WavelengthCount()
	res := transit.ChordResult{Transmission: make([]float64, n)}
	for w := range res.Transmission {
		res.Transmission[w] = value(w)
	}
	if args.Benchmark() {
		res.Benchmark = append([]float64(nil), res.Transmission...)
	}
	if args.RecordTau() {
		res.Tau = tau
	}
	return res
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
