package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/units"
)

// profile is a radial number density n(r) of one species.
type profile interface {
	density(r float64) float64
	// chapman returns the analytic column at impact distance d, if the
	// profile has one.
	chapman(d float64) (float64, bool)
}

type barometric struct {
	n0, radius, height float64
}

func (p barometric) density(r float64) float64 {
	return p.n0 * math.Exp(-(r-p.radius)/p.height)
}

func (p barometric) chapman(d float64) (float64, bool) {
	return p.density(d) * math.Sqrt(2*math.Pi*d*p.height), true
}

type powerLaw struct {
	n0, radius, q float64
}

func (p powerLaw) density(r float64) float64 {
	return p.n0 * math.Pow(p.radius/r, p.q)
}

func (p powerLaw) chapman(float64) (float64, bool) { return 0, false }

// newProfile builds the density profile of sp around a body of the given
// radius and mass. mass may be nil when the scenario fixes H.
func newProfile(sp config.Species, sc config.Scenario, radius float64, mass *float64) (profile, error) {
	switch sc.Type {
	case config.ScenarioBarometric:
		var h float64
		switch {
		case sc.ScaleHeight != nil:
			h = *sc.ScaleHeight
		case mass != nil:
			h = units.ScaleHeight(sc.GetTemperature(), sc.GetMeanMolecularWeight(), *mass, radius)
		default:
			return nil, fmt.Errorf("barometric scenario needs H or M_body")
		}
		return barometric{n0: sp.ReferenceDensity, radius: radius, height: h}, nil
	case config.ScenarioPowerLaw:
		return powerLaw{n0: sp.ReferenceDensity, radius: radius, q: sc.GetExponent()}, nil
	}
	return nil, fmt.Errorf("unknown scenario type %q", sc.Type)
}

// sightline integrates a density profile along a chord through a sphere of
// radius extent around the body. Samples are spaced quadratically so they
// crowd near the point of closest approach.
type sightline struct {
	extent float64
	u      []float64 // normalised sample positions in [0, 1]
}

func newSightline(extent float64, steps int) sightline {
	u := make([]float64, steps)
	for k := range u {
		s := float64(k) / float64(steps-1)
		u[k] = s * s
	}
	return sightline{extent: extent, u: u}
}

// column returns the number column density of p along a chord passing at
// distance d from the body centre. Chords missing the sphere return 0.
func (s sightline) column(p profile, d float64) float64 {
	if d >= s.extent {
		return 0
	}
	half := math.Sqrt(s.extent*s.extent - d*d)
	if !(half > 0) {
		return 0
	}
	x := make([]float64, len(s.u))
	f := make([]float64, len(s.u))
	for k, u := range s.u {
		z := half * u
		x[k] = z
		f[k] = p.density(math.Hypot(d, z))
	}
	return 2 * integrate.Simpsons(x, f)
}
