package transit

import (
	"math"

	"github.com/exotransit/chordgrid/internal/config"
)

// Dimension names one of the four grid axes.
type Dimension string

const (
	DimOrbphase   Dimension = "orbphase"
	DimWavelength Dimension = "wavelength"
	DimRho        Dimension = "rho"
	DimPhi        Dimension = "phi"
)

// Dimensions lists the recognised dimensions in output order.
var Dimensions = []Dimension{DimOrbphase, DimWavelength, DimRho, DimPhi}

// maxAxisSteps bounds a single axis to keep a typo from allocating gigabytes.
const maxAxisSteps = 1 << 20

// ParseDimension maps a dimension name to a Dimension.
func ParseDimension(name string) (Dimension, error) {
	for _, d := range Dimensions {
		if string(d) == name {
			return d, nil
		}
	}
	return "", configErrorf("dimension", "unknown dimension %q", name)
}

// Axis is an immutable, strictly increasing sequence of bin centres for one
// dimension, together with the bin edges it was built from.
type Axis struct {
	dim    Dimension
	values []float64
	edges  []float64
}

// Dimension returns the axis dimension.
func (a Axis) Dimension() Dimension { return a.dim }

// Len returns the number of points on the axis.
func (a Axis) Len() int { return len(a.values) }

// At returns the i-th coordinate.
func (a Axis) At(i int) float64 { return a.values[i] }

// Width returns the width of the i-th bin.
func (a Axis) Width(i int) float64 { return a.edges[i+1] - a.edges[i] }

// Values returns a copy of the coordinates.
func (a Axis) Values() []float64 { return append([]float64(nil), a.values...) }

// Edges returns a copy of the Len()+1 bin edges.
func (a Axis) Edges() []float64 { return append([]float64(nil), a.edges...) }

type axisSpec struct {
	lower, upper float64
	steps        int
	spacing      string
}

// BuildAxis builds one axis from the grid and architecture parameters.
//
// Every axis divides [lower, upper] into steps equal bins (equal in log space
// for log spacing) and holds the bin midpoints, so a one-step axis is the
// interval centre. The wavelength bounds fall back to the architecture
// bandpass, and rho defaults to [0, R_star].
func BuildAxis(dim Dimension, grids config.Grids, arch config.Architecture) (Axis, error) {
	spec, err := axisSpecFor(dim, grids, arch)
	if err != nil {
		return Axis{}, err
	}
	return newAxis(dim, spec)
}

func axisSpecFor(dim Dimension, grids config.Grids, arch config.Architecture) (axisSpec, error) {
	switch dim {
	case DimOrbphase:
		if grids.OrbphaseLower == nil || grids.OrbphaseUpper == nil {
			return axisSpec{}, configErrorf(string(dim), "orbphase_lower and orbphase_upper are required")
		}
		return axisSpec{lower: *grids.OrbphaseLower, upper: *grids.OrbphaseUpper, steps: grids.OrbphaseSteps}, nil

	case DimWavelength:
		lower, upper := grids.LambdaLower, grids.LambdaUpper
		if lower == nil {
			lower = arch.BandpassMin
		}
		if upper == nil {
			upper = arch.BandpassMax
		}
		if lower == nil || upper == nil {
			return axisSpec{}, configErrorf(string(dim), "wavelength bounds need lambda_lower/lambda_upper or an architecture bandpass")
		}
		return axisSpec{lower: *lower, upper: *upper, steps: grids.LambdaSteps, spacing: grids.LambdaSpacing}, nil

	case DimRho:
		lower := 0.0
		if grids.RhoLower != nil {
			lower = *grids.RhoLower
		}
		var upper float64
		switch {
		case grids.RhoUpper != nil:
			upper = *grids.RhoUpper
		case arch.StarRadius != nil:
			upper = *arch.StarRadius
		default:
			return axisSpec{}, configErrorf(string(dim), "rho_upper or R_star is required")
		}
		return axisSpec{lower: lower, upper: upper, steps: grids.RhoSteps, spacing: grids.RhoSpacing}, nil

	case DimPhi:
		return axisSpec{lower: 0, upper: 2 * math.Pi, steps: grids.PhiSteps}, nil
	}
	return axisSpec{}, configErrorf("dimension", "unknown dimension %q", dim)
}

func newAxis(dim Dimension, s axisSpec) (Axis, error) {
	field := string(dim)
	if s.steps < 1 {
		return Axis{}, configErrorf(field, "step count must be at least 1, got %d", s.steps)
	}
	if s.steps > maxAxisSteps {
		return Axis{}, configErrorf(field, "step count %d exceeds limit %d", s.steps, maxAxisSteps)
	}
	if !isFinite(s.lower) || !isFinite(s.upper) {
		return Axis{}, configErrorf(field, "bounds must be finite, got [%g, %g]", s.lower, s.upper)
	}
	if !(s.lower < s.upper) {
		return Axis{}, configErrorf(field, "lower bound %g must be below upper bound %g", s.lower, s.upper)
	}

	edges := make([]float64, s.steps+1)
	values := make([]float64, s.steps)
	n := float64(s.steps)

	switch s.spacing {
	case "", config.SpacingLinear:
		width := (s.upper - s.lower) / n
		for i := range values {
			edges[i] = s.lower + float64(i)*width
			values[i] = s.lower + (float64(i)+0.5)*width
		}
	case config.SpacingLog:
		if !(s.lower > 0) {
			return Axis{}, configErrorf(field, "log spacing needs a positive lower bound, got %g", s.lower)
		}
		lo, hi := math.Log(s.lower), math.Log(s.upper)
		width := (hi - lo) / n
		for i := range values {
			edges[i] = math.Exp(lo + float64(i)*width)
			values[i] = math.Exp(lo + (float64(i)+0.5)*width)
		}
		edges[0] = s.lower
	default:
		return Axis{}, configErrorf(field, "unknown spacing %q", s.spacing)
	}
	edges[s.steps] = s.upper

	for i := 1; i < len(values); i++ {
		if !(values[i] > values[i-1]) {
			return Axis{}, configErrorf(field, "%d steps over [%g, %g] exceed float64 resolution", s.steps, s.lower, s.upper)
		}
	}
	return Axis{dim: dim, values: values, edges: edges}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
