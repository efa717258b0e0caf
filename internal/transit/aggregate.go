package transit

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// LightCurve holds transmission per (orbital phase, wavelength), row-major by
// phase.
type LightCurve struct {
	PhaseCount      int
	WavelengthCount int
	Values          []float64
}

func newLightCurve(phases, wavelengths int) *LightCurve {
	return &LightCurve{
		PhaseCount:      phases,
		WavelengthCount: wavelengths,
		Values:          make([]float64, phases*wavelengths),
	}
}

// At returns the value at phase p and wavelength w.
func (lc *LightCurve) At(p, w int) float64 {
	return lc.Values[p*lc.WavelengthCount+w]
}

// Row returns a copy of the spectrum at phase p.
func (lc *LightCurve) Row(p int) []float64 {
	return append([]float64(nil), lc.row(p)...)
}

func (lc *LightCurve) row(p int) []float64 {
	return lc.Values[p*lc.WavelengthCount : (p+1)*lc.WavelengthCount]
}

// Min returns the smallest value of the light curve.
func (lc *LightCurve) Min() float64 { return floats.Min(lc.Values) }

// Max returns the largest value of the light curve.
func (lc *LightCurve) Max() float64 { return floats.Max(lc.Values) }

// TauMap holds the per-chord optical depth over (phi, rho) at one orbital
// phase, indexed phi outer and rho inner like the grid.
type TauMap struct {
	PhaseIndex int
	PhiCount   int
	RhoCount   int
	Values     []float64
}

// At returns the optical depth of chord (rho, phi).
func (m *TauMap) At(rhoIdx, phiIdx int) float64 {
	return m.Values[phiIdx*m.RhoCount+rhoIdx]
}

// Reduction is the output of Reduce.
type Reduction struct {
	LightCurve *LightCurve
	Benchmark  *LightCurve // nil unless Benchmark was requested
	Tau        *TauMap     // nil unless RecordTau was requested
}

// Reduce sums the result table over the spatial grid for every orbital phase
// and wavelength. The table must be in grid order; its length and every row
// length are checked against shape.
func Reduce(table ResultTable, shape Shape, flags OutputFlags) (*Reduction, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if want := shape.ChordCount(); len(table) != want {
		return nil, &ShapeMismatchError{What: "result table", Want: want, Got: len(table)}
	}
	for i, res := range table {
		if len(res.Transmission) != shape.WavelengthCount {
			return nil, &ShapeMismatchError{What: fmt.Sprintf("transmission row %d", i), Want: shape.WavelengthCount, Got: len(res.Transmission)}
		}
		if flags.Benchmark && len(res.Benchmark) != shape.WavelengthCount {
			return nil, &ShapeMismatchError{What: fmt.Sprintf("benchmark row %d", i), Want: shape.WavelengthCount, Got: len(res.Benchmark)}
		}
	}

	out := &Reduction{LightCurve: sumOverSpace(table, shape, func(r ChordResult) []float64 { return r.Transmission })}
	if flags.Benchmark {
		out.Benchmark = sumOverSpace(table, shape, func(r ChordResult) []float64 { return r.Benchmark })
	}
	if flags.RecordTau {
		m, err := tauMap(table, shape, flags.TauPhaseIndex)
		if err != nil {
			return nil, err
		}
		out.Tau = m
	}
	return out, nil
}

// sumOverSpace adds every spatial row of a phase group into that phase's
// light-curve row.
func sumOverSpace(table ResultTable, shape Shape, pick func(ChordResult) []float64) *LightCurve {
	lc := newLightCurve(shape.PhaseCount, shape.WavelengthCount)
	spatial := shape.SpatialCount()
	for p := 0; p < shape.PhaseCount; p++ {
		acc := lc.row(p)
		group := table[p*spatial : (p+1)*spatial]
		for _, res := range group {
			floats.Add(acc, pick(res))
		}
	}
	return lc
}

func tauMap(table ResultTable, shape Shape, phaseIdx int) (*TauMap, error) {
	if phaseIdx < 0 || phaseIdx >= shape.PhaseCount {
		return nil, configErrorf("tau_phase_index", "must be in [0, %d), got %d", shape.PhaseCount, phaseIdx)
	}
	m := &TauMap{
		PhaseIndex: phaseIdx,
		PhiCount:   shape.PhiCount,
		RhoCount:   shape.RhoCount,
		Values:     make([]float64, shape.SpatialCount()),
	}
	for f := 0; f < shape.PhiCount; f++ {
		for r := 0; r < shape.RhoCount; r++ {
			m.Values[shape.SpatialIndex(r, f)] = table[shape.ChordIndex(phaseIdx, r, f)].Tau
		}
	}
	return m, nil
}
