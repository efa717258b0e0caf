package transit

import (
	"fmt"
	"math"
)

// ChordResult is what a chord model returns for one chord.
type ChordResult struct {
	// Transmission holds one value per wavelength, already weighted so that
	// summing over the spatial grid integrates over the stellar disk.
	Transmission []float64
	// Tau is the chord's optical-depth diagnostic. Set when RecordTau is on.
	Tau float64
	// Benchmark holds the reference transmission. Set when Benchmark is on.
	Benchmark []float64
}

// ResultTable holds one ChordResult per chord, in grid order.
type ResultTable []ChordResult

// ChordModel evaluates the absorption along one chord. Implementations must
// be pure functions of their inputs: they are called concurrently, in any
// order, and must not depend on other chords.
type ChordModel interface {
	Evaluate(ch Chord, args *SharedArguments) (ChordResult, error)
}

// ChordModelFunc adapts a function to ChordModel.
type ChordModelFunc func(ch Chord, args *SharedArguments) (ChordResult, error)

// Evaluate calls f.
func (f ChordModelFunc) Evaluate(ch Chord, args *SharedArguments) (ChordResult, error) {
	return f(ch, args)
}

// ModelFactory builds a chord model for one run. Models typically precompute
// tables from the shared arguments here.
type ModelFactory func(args *SharedArguments) (ChordModel, error)

// checkResult checks the shape of one result. Value ranges are the model's
// responsibility and are not checked.
func checkResult(res ChordResult, wavelengths int, flags OutputFlags) error {
	if len(res.Transmission) != wavelengths {
		return &ShapeMismatchError{What: "transmission row", Want: wavelengths, Got: len(res.Transmission)}
	}
	if flags.Benchmark {
		if len(res.Benchmark) != wavelengths {
			return &ShapeMismatchError{What: "benchmark row", Want: wavelengths, Got: len(res.Benchmark)}
		}
	}
	if flags.RecordTau && (math.IsNaN(res.Tau) || res.Tau < 0) {
		return fmt.Errorf("optical depth %g is not a non-negative number", res.Tau)
	}
	return nil
}
