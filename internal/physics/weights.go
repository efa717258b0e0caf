package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/exotransit/chordgrid/internal/transit"
)

// intensity is the quadratic limb-darkening law normalised to 1 at disk
// centre. It is 0 off the disk.
func intensity(rho, starRadius, u1, u2 float64) float64 {
	x := rho / starRadius
	if x >= 1 {
		return 0
	}
	m := 1 - math.Sqrt(1-x*x)
	return 1 - u1*m - u2*m*m
}

// diskWeights returns the weight of one cell in each rho ring. Weights are
// normalised so that the sum over every (rho, phi) cell is 1.
func diskWeights(rho transit.Axis, phiCount int, starRadius, u1, u2 float64) ([]float64, error) {
	w := make([]float64, rho.Len())
	for r := range w {
		w[r] = intensity(rho.At(r), starRadius, u1, u2) * rho.At(r) * rho.Width(r)
		if w[r] < 0 {
			return nil, fmt.Errorf("limb darkening gives negative intensity at rho=%g", rho.At(r))
		}
	}
	total := floats.Sum(w)
	if !(total > 0) {
		return nil, fmt.Errorf("rho grid does not cover the stellar disk")
	}
	floats.Scale(1/(total*float64(phiCount)), w)
	return w, nil
}
