package transit

import (
	"github.com/exotransit/chordgrid/internal/config"
)

// GridNesting documents the enumeration order of the chord grid, outermost
// dimension first. Shape.ChordIndex implements it.
const GridNesting = "orbphase>phi>rho"

// maxChords bounds the size of a single grid.
const maxChords = 1 << 28

// Shape holds the dimensions of a grid and of its result table.
type Shape struct {
	PhaseCount      int
	RhoCount        int
	PhiCount        int
	WavelengthCount int
}

// SpatialCount returns the number of chords per orbital phase.
func (s Shape) SpatialCount() int { return s.RhoCount * s.PhiCount }

// ChordCount returns the number of chords in the grid.
func (s Shape) ChordCount() int { return s.PhaseCount * s.SpatialCount() }

// SpatialIndex returns the position of (rho, phi) within one phase group:
// phi outer, rho inner.
func (s Shape) SpatialIndex(rhoIdx, phiIdx int) int {
	return phiIdx*s.RhoCount + rhoIdx
}

// ChordIndex returns the flat grid position of a chord.
func (s Shape) ChordIndex(phaseIdx, rhoIdx, phiIdx int) int {
	return phaseIdx*s.SpatialCount() + s.SpatialIndex(rhoIdx, phiIdx)
}

// Coordinates inverts ChordIndex.
func (s Shape) Coordinates(index int) (phaseIdx, rhoIdx, phiIdx int) {
	spatial := s.SpatialCount()
	phaseIdx = index / spatial
	rem := index % spatial
	return phaseIdx, rem % s.RhoCount, rem / s.RhoCount
}

func (s Shape) validate() error {
	if s.PhaseCount < 1 || s.RhoCount < 1 || s.PhiCount < 1 || s.WavelengthCount < 1 {
		return configErrorf("shape", "all dimensions must be at least 1, got %+v", s)
	}
	return nil
}

// Chord is one sightline: a (rho, phi) position on the stellar disk at one
// orbital phase.
type Chord struct {
	Index      int
	PhaseIndex int
	RhoIndex   int
	PhiIndex   int
	Phase      float64 // rad
	Rho        float64 // cm
	Phi        float64 // rad
}

// Grid is the ordered sequence of chords; see GridNesting.
type Grid []Chord

// Axes bundles the four axes of a run for output labelling.
type Axes struct {
	Orbphase   Axis
	Wavelength Axis
	Rho        Axis
	Phi        Axis
}

// Shape returns the grid shape described by the axes.
func (a Axes) Shape() Shape {
	return Shape{
		PhaseCount:      a.Orbphase.Len(),
		RhoCount:        a.Rho.Len(),
		PhiCount:        a.Phi.Len(),
		WavelengthCount: a.Wavelength.Len(),
	}
}

// BuildAxes builds all four axes.
func BuildAxes(grids config.Grids, arch config.Architecture) (Axes, error) {
	var axes Axes
	built := map[Dimension]*Axis{
		DimOrbphase:   &axes.Orbphase,
		DimWavelength: &axes.Wavelength,
		DimRho:        &axes.Rho,
		DimPhi:        &axes.Phi,
	}
	for _, dim := range Dimensions {
		a, err := BuildAxis(dim, grids, arch)
		if err != nil {
			return Axes{}, err
		}
		*built[dim] = a
	}
	return axes, nil
}

// OutputFlags selects the optional products of a run.
type OutputFlags struct {
	RecordTau     bool
	Benchmark     bool
	TauPhaseIndex int
}

// SpeciesParams is one absorber resolved against its scenario.
type SpeciesParams struct {
	Name         string
	ScenarioName string
	Scenario     config.Scenario
	config.Species
}

// SharedArguments is the read-only parameter bundle handed to every chord
// evaluation. Fields are unexported and accessors return copies, so no
// evaluation can alter what another one sees.
type SharedArguments struct {
	fundamentals config.Fundamentals
	architecture config.Architecture
	species      []SpeciesParams
	axes         Axes
	flags        OutputFlags
}

// Fundamentals returns the numerical settings.
func (a *SharedArguments) Fundamentals() config.Fundamentals { return a.fundamentals }

// Architecture returns a copy of the system geometry.
func (a *SharedArguments) Architecture() config.Architecture { return a.architecture.Clone() }

// Species returns a copy of the absorbers, sorted by name.
func (a *SharedArguments) Species() []SpeciesParams {
	out := make([]SpeciesParams, len(a.species))
	for i, sp := range a.species {
		out[i] = sp
		out[i].Species = sp.Species.Clone()
	}
	return out
}

// Wavelengths returns a copy of the wavelength axis values (cm).
func (a *SharedArguments) Wavelengths() []float64 { return a.axes.Wavelength.Values() }

// WavelengthCount returns the length of every transmission row.
func (a *SharedArguments) WavelengthCount() int { return a.axes.Wavelength.Len() }

// Axes returns the four axes. Axis values are immutable.
func (a *SharedArguments) Axes() Axes { return a.axes }

// Shape returns the grid shape.
func (a *SharedArguments) Shape() Shape { return a.axes.Shape() }

// Flags returns the output flags.
func (a *SharedArguments) Flags() OutputFlags { return a.flags }

// RecordTau reports whether chord models must return an optical depth.
func (a *SharedArguments) RecordTau() bool { return a.flags.RecordTau }

// Benchmark reports whether chord models must return a benchmark row.
func (a *SharedArguments) Benchmark() bool { return a.flags.Benchmark }

// NewSharedArguments assembles the shared bundle from a validated config and
// its axes.
func NewSharedArguments(cfg *config.Config, axes Axes) (*SharedArguments, error) {
	shape := axes.Shape()
	if err := shape.validate(); err != nil {
		return nil, err
	}

	species := make([]SpeciesParams, 0, len(cfg.Species))
	for _, name := range cfg.SpeciesNames() {
		sp := cfg.Species[name]
		sc, ok := cfg.Scenarios[sp.Scenario]
		if !ok {
			return nil, configErrorf("species", "species %q references unknown scenario %q", name, sp.Scenario)
		}
		species = append(species, SpeciesParams{
			Name:         name,
			ScenarioName: sp.Scenario,
			Scenario:     sc,
			Species:      sp.Clone(),
		})
	}

	flags := OutputFlags{
		RecordTau: cfg.Output.RecordTau,
		Benchmark: cfg.Output.Benchmark,
	}
	if flags.RecordTau {
		flags.TauPhaseIndex = cfg.Output.GetTauPhaseIndex(shape.PhaseCount)
		if flags.TauPhaseIndex < 0 || flags.TauPhaseIndex >= shape.PhaseCount {
			return nil, configErrorf("tau_phase_index", "must be in [0, %d), got %d", shape.PhaseCount, flags.TauPhaseIndex)
		}
	}

	return &SharedArguments{
		fundamentals: cfg.Fundamentals,
		architecture: cfg.Architecture.Clone(),
		species:      species,
		axes:         axes,
		flags:        flags,
	}, nil
}

// PrepareGrid validates the configuration, builds the axes and shared
// arguments and enumerates the chord grid in GridNesting order.
func PrepareGrid(cfg *config.Config) (Grid, *SharedArguments, error) {
	if cfg == nil {
		return nil, nil, configErrorf("config", "configuration is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, &ConfigurationError{Field: "config", Reason: "validation failed", Err: err}
	}

	axes, err := BuildAxes(cfg.Grids, cfg.Architecture)
	if err != nil {
		return nil, nil, err
	}
	args, err := NewSharedArguments(cfg, axes)
	if err != nil {
		return nil, nil, err
	}
	grid, err := EnumerateGrid(axes)
	if err != nil {
		return nil, nil, err
	}
	return grid, args, nil
}

// EnumerateGrid returns one chord per (phase, phi, rho) combination.
func EnumerateGrid(axes Axes) (Grid, error) {
	shape := axes.Shape()
	if shape.PhaseCount < 1 || shape.RhoCount < 1 || shape.PhiCount < 1 {
		return nil, configErrorf("shape", "all spatial dimensions must be at least 1, got %+v", shape)
	}
	if int64(shape.PhaseCount)*int64(shape.RhoCount)*int64(shape.PhiCount) > maxChords {
		return nil, configErrorf("shape", "grid of %d x %d x %d chords exceeds limit %d",
			shape.PhaseCount, shape.PhiCount, shape.RhoCount, maxChords)
	}

	grid := make(Grid, shape.ChordCount())
	for p := 0; p < shape.PhaseCount; p++ {
		for f := 0; f < shape.PhiCount; f++ {
			for r := 0; r < shape.RhoCount; r++ {
				idx := shape.ChordIndex(p, r, f)
				grid[idx] = Chord{
					Index:      idx,
					PhaseIndex: p,
					RhoIndex:   r,
					PhiIndex:   f,
					Phase:      axes.Orbphase.At(p),
					Rho:        axes.Rho.At(r),
					Phi:        axes.Phi.At(f),
				}
			}
		}
	}
	return grid, nil
}
