package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/transit"
)

type absorber struct {
	name    string
	profile profile
	sigma   []float64 // cm^2 per wavelength
}

// Model is the default transit.ChordModel. It is immutable after New and
// safe for concurrent use.
type Model struct {
	starRadius    float64
	bodyRadius    float64
	semiMajorAxis float64
	offsetY       float64 // b R_star
	weights       []float64
	absorbers     []absorber
	path          sightline
	wavelengths   int
}

var _ transit.ChordModel = (*Model)(nil)

// New precomputes disk weights, cross-sections and density profiles from the
// shared arguments. It has the transit.ModelFactory signature.
func New(args *transit.SharedArguments) (transit.ChordModel, error) {
	return NewModel(args)
}

// NewModel is New with the concrete return type.
func NewModel(args *transit.SharedArguments) (*Model, error) {
	arch := args.Architecture()
	fund := args.Fundamentals()
	rs, rp, a := *arch.StarRadius, *arch.BodyRadius, *arch.SemiMajorAxis
	u1, u2 := arch.GetLimbDarkening()

	axes := args.Axes()
	weights, err := diskWeights(axes.Rho, axes.Phi.Len(), rs, u1, u2)
	if err != nil {
		return nil, err
	}

	m := &Model{
		starRadius:    rs,
		bodyRadius:    rp,
		semiMajorAxis: a,
		offsetY:       arch.GetImpactParameter() * rs,
		weights:       weights,
		path:          newSightline(fund.GetSightlineExtent()*rp, fund.GetIntegrationSteps()),
		wavelengths:   args.WavelengthCount(),
	}

	wl := args.Wavelengths()
	for _, sp := range args.Species() {
		prof, err := newProfile(sp.Species, sp.Scenario, rp, arch.BodyMass)
		if err != nil {
			return nil, fmt.Errorf("species %q: %w", sp.Name, err)
		}
		sigma, err := crossSection(sp.Species, sp.Scenario, fund.GetLineProfile(), wl)
		if err != nil {
			return nil, fmt.Errorf("species %q: %w", sp.Name, err)
		}
		m.absorbers = append(m.absorbers, absorber{name: sp.Name, profile: prof, sigma: sigma})
	}
	monitoring.Logf("physics: %d absorbers, %s profile, %d samples per sightline",
		len(m.absorbers), fund.GetLineProfile(), len(m.path.u))
	return m, nil
}

// bodyCentre returns the projected position of the body at orbital phase.
// inFront is false while the body is behind the star.
func (m *Model) bodyCentre(phase float64) (x, y float64, inFront bool) {
	return m.semiMajorAxis * math.Sin(phase), m.offsetY, math.Cos(phase) >= 0
}

// Evaluate returns the weighted transmission of one chord.
func (m *Model) Evaluate(ch transit.Chord, args *transit.SharedArguments) (transit.ChordResult, error) {
	weight := m.weights[ch.RhoIndex]
	res := transit.ChordResult{Transmission: make([]float64, m.wavelengths)}
	bench := args.Benchmark()
	if bench {
		res.Benchmark = make([]float64, m.wavelengths)
	}

	bx, by, inFront := m.bodyCentre(ch.Phase)
	if !inFront {
		fill(res.Transmission, weight)
		if bench {
			fill(res.Benchmark, weight)
		}
		return res, nil
	}

	sx, sy := ch.Rho*math.Cos(ch.Phi), ch.Rho*math.Sin(ch.Phi)
	d := math.Hypot(sx-bx, sy-by)
	if d < m.bodyRadius {
		if args.RecordTau() {
			res.Tau = math.Inf(1)
		}
		return res, nil
	}

	tau := make([]float64, m.wavelengths)
	var benchTau []float64
	if bench {
		benchTau = make([]float64, m.wavelengths)
	}
	for _, ab := range m.absorbers {
		n := m.path.column(ab.profile, d)
		floats.AddScaled(tau, n, ab.sigma)
		if bench {
			if nc, ok := ab.profile.chapman(d); ok {
				n = nc
			}
			floats.AddScaled(benchTau, n, ab.sigma)
		}
	}

	if floats.HasNaN(tau) {
		return transit.ChordResult{}, fmt.Errorf("optical depth is NaN at distance %g cm", d)
	}
	transmit(res.Transmission, tau, weight)
	if bench {
		transmit(res.Benchmark, benchTau, weight)
	}
	if args.RecordTau() {
		res.Tau = floats.Max(tau)
	}
	return res, nil
}

func transmit(dst, tau []float64, weight float64) {
	for i, t := range tau {
		dst[i] = weight * math.Exp(-t)
	}
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
