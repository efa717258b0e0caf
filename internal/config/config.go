package config

import (
	"fmt"
	"math"
	"sort"
)

// Config is the root parameter set for one light-curve run. The six groups
// mirror the sections of a parameter file.
type Config struct {
	Fundamentals Fundamentals        `json:"Fundamentals" yaml:"Fundamentals"`
	Scenarios    map[string]Scenario `json:"Scenarios" yaml:"Scenarios"`
	Architecture Architecture        `json:"Architecture" yaml:"Architecture"`
	Species      map[string]Species  `json:"Species" yaml:"Species"`
	Grids        Grids               `json:"Grids" yaml:"Grids"`
	Output       Output              `json:"Output" yaml:"Output"`
}

// Line profiles understood by the chord model.
const (
	ProfileDoppler = "doppler"
	ProfileLorentz = "lorentz"
)

// Scenario density profiles.
const (
	ScenarioBarometric = "barometric"
	ScenarioPowerLaw   = "powerlaw"
)

// Axis spacing policies.
const (
	SpacingLinear = "linear"
	SpacingLog    = "log"
)

// Fundamentals holds numerical settings shared by every chord evaluation.
type Fundamentals struct {
	LineProfile      *string  `json:"line_profile,omitempty" yaml:"line_profile,omitempty"`           // "doppler" (default) or "lorentz"
	IntegrationSteps *int     `json:"integration_steps,omitempty" yaml:"integration_steps,omitempty"` // samples along each sightline half
	SightlineExtent  *float64 `json:"sightline_extent,omitempty" yaml:"sightline_extent,omitempty"`   // half-length of the sightline in body radii
}

// Architecture describes the star/body geometry. Lengths are in cm, masses in g.
type Architecture struct {
	StarRadius      *float64  `json:"R_star,omitempty" yaml:"R_star,omitempty"`
	BodyRadius      *float64  `json:"R_body,omitempty" yaml:"R_body,omitempty"`
	BodyMass        *float64  `json:"M_body,omitempty" yaml:"M_body,omitempty"`
	SemiMajorAxis   *float64  `json:"a_body,omitempty" yaml:"a_body,omitempty"`
	ImpactParameter *float64  `json:"impact_parameter,omitempty" yaml:"impact_parameter,omitempty"` // in stellar radii
	LimbDarkening   []float64 `json:"limb_darkening,omitempty" yaml:"limb_darkening,omitempty"`     // quadratic u1, u2
	BandpassMin     *float64  `json:"bandpass_min,omitempty" yaml:"bandpass_min,omitempty"`
	BandpassMax     *float64  `json:"bandpass_max,omitempty" yaml:"bandpass_max,omitempty"`
}

// Scenario selects the density profile of the species that reference it.
type Scenario struct {
	Type                string   `json:"type" yaml:"type"`
	Temperature         *float64 `json:"T,omitempty" yaml:"T,omitempty"`
	MeanMolecularWeight *float64 `json:"mu,omitempty" yaml:"mu,omitempty"`
	ScaleHeight         *float64 `json:"H,omitempty" yaml:"H,omitempty"`
	Exponent            *float64 `json:"q,omitempty" yaml:"q,omitempty"`
}

// Species is one absorber and its line list.
type Species struct {
	Scenario         string  `json:"scenario" yaml:"scenario"`
	ReferenceDensity float64 `json:"n_ref" yaml:"n_ref"` // cm^-3 at the body radius
	MassAMU          float64 `json:"mass_amu" yaml:"mass_amu"`
	Lines            []Line  `json:"lines" yaml:"lines"`
}

// Line is a single absorption transition.
type Line struct {
	Wavelength         float64 `json:"lambda" yaml:"lambda"` // cm
	OscillatorStrength float64 `json:"f" yaml:"f"`
	Damping            float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"` // s^-1
}

// Grids holds bounds and step counts for the four axes.
type Grids struct {
	OrbphaseLower *float64 `json:"orbphase_lower,omitempty" yaml:"orbphase_lower,omitempty"`
	OrbphaseUpper *float64 `json:"orbphase_upper,omitempty" yaml:"orbphase_upper,omitempty"`
	OrbphaseSteps int      `json:"orbphase_steps" yaml:"orbphase_steps"`

	LambdaLower   *float64 `json:"lambda_lower,omitempty" yaml:"lambda_lower,omitempty"`
	LambdaUpper   *float64 `json:"lambda_upper,omitempty" yaml:"lambda_upper,omitempty"`
	LambdaSteps   int      `json:"lambda_steps" yaml:"lambda_steps"`
	LambdaSpacing string   `json:"lambda_spacing,omitempty" yaml:"lambda_spacing,omitempty"`

	RhoLower   *float64 `json:"rho_lower,omitempty" yaml:"rho_lower,omitempty"`
	RhoUpper   *float64 `json:"rho_upper,omitempty" yaml:"rho_upper,omitempty"`
	RhoSteps   int      `json:"rho_steps" yaml:"rho_steps"`
	RhoSpacing string   `json:"rho_spacing,omitempty" yaml:"rho_spacing,omitempty"`

	PhiSteps int `json:"phi_steps" yaml:"phi_steps"`
}

// Output holds the optional products of a run.
type Output struct {
	Benchmark     bool `json:"benchmark" yaml:"benchmark"`
	RecordTau     bool `json:"recordTau" yaml:"recordTau"`
	TauPhaseIndex *int `json:"tau_phase_index,omitempty" yaml:"tau_phase_index,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Float64 returns a pointer to v, for building configs in code.
func Float64(v float64) *float64 { return ptrFloat64(v) }

// Int returns a pointer to v, for building configs in code.
func Int(v int) *int { return ptrInt(v) }

// String returns a pointer to v, for building configs in code.
func String(v string) *string { return ptrString(v) }

// GetLineProfile returns the line profile or the default.
func (f Fundamentals) GetLineProfile() string {
	if f.LineProfile == nil || *f.LineProfile == "" {
		return ProfileDoppler
	}
	return *f.LineProfile
}

// GetIntegrationSteps returns the sightline sample count or the default.
func (f Fundamentals) GetIntegrationSteps() int {
	if f.IntegrationSteps == nil {
		return 201
	}
	return *f.IntegrationSteps
}

// GetSightlineExtent returns the sightline half-length in body radii or the default.
func (f Fundamentals) GetSightlineExtent() float64 {
	if f.SightlineExtent == nil {
		return 30
	}
	return *f.SightlineExtent
}

// GetImpactParameter returns the impact parameter (stellar radii) or the default.
func (a Architecture) GetImpactParameter() float64 {
	if a.ImpactParameter == nil {
		return 0
	}
	return *a.ImpactParameter
}

// GetLimbDarkening returns the quadratic coefficients, padding missing ones with 0.
func (a Architecture) GetLimbDarkening() (u1, u2 float64) {
	if len(a.LimbDarkening) > 0 {
		u1 = a.LimbDarkening[0]
	}
	if len(a.LimbDarkening) > 1 {
		u2 = a.LimbDarkening[1]
	}
	return u1, u2
}

// Clone returns a copy that shares no slices with a.
func (a Architecture) Clone() Architecture {
	out := a
	if a.LimbDarkening != nil {
		out.LimbDarkening = append([]float64(nil), a.LimbDarkening...)
	}
	return out
}

// GetTemperature returns the scenario temperature in K or the default.
func (s Scenario) GetTemperature() float64 {
	if s.Temperature == nil {
		return 1000
	}
	return *s.Temperature
}

// GetMeanMolecularWeight returns mu or the default.
func (s Scenario) GetMeanMolecularWeight() float64 {
	if s.MeanMolecularWeight == nil {
		return 2.3
	}
	return *s.MeanMolecularWeight
}

// GetExponent returns the power-law exponent or the default.
func (s Scenario) GetExponent() float64 {
	if s.Exponent == nil {
		return 3
	}
	return *s.Exponent
}

// Clone returns a copy that shares no slices with s.
func (s Species) Clone() Species {
	out := s
	out.Lines = append([]Line(nil), s.Lines...)
	return out
}

// GetTauPhaseIndex returns the orbital phase index of the tau map, defaulting
// to the middle of the phase axis.
func (o Output) GetTauPhaseIndex(phaseCount int) int {
	if o.TauPhaseIndex == nil {
		return phaseCount / 2
	}
	return *o.TauPhaseIndex
}

// SpeciesNames returns the species names in sorted order.
func (c *Config) SpeciesNames() []string {
	names := make([]string, 0, len(c.Species))
	for name := range c.Species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the configuration values are valid. Axis bounds are
// checked when the axes are built.
func (c *Config) Validate() error {
	if err := c.Fundamentals.validate(); err != nil {
		return err
	}
	if err := c.Architecture.validate(); err != nil {
		return err
	}
	for name, sc := range c.Scenarios {
		if err := sc.validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", name, err)
		}
	}
	for _, name := range c.SpeciesNames() {
		sp := c.Species[name]
		if _, ok := c.Scenarios[sp.Scenario]; !ok {
			return fmt.Errorf("species %q references unknown scenario %q", name, sp.Scenario)
		}
		if err := sp.validate(); err != nil {
			return fmt.Errorf("species %q: %w", name, err)
		}
	}
	if c.Output.TauPhaseIndex != nil && *c.Output.TauPhaseIndex < 0 {
		return fmt.Errorf("tau_phase_index must be non-negative, got %d", *c.Output.TauPhaseIndex)
	}
	return nil
}

func (f Fundamentals) validate() error {
	switch p := f.GetLineProfile(); p {
	case ProfileDoppler, ProfileLorentz:
	default:
		return fmt.Errorf("unknown line_profile %q", p)
	}
	if n := f.GetIntegrationSteps(); n < 3 {
		return fmt.Errorf("integration_steps must be at least 3, got %d", n)
	}
	if e := f.GetSightlineExtent(); !(e > 1) || math.IsInf(e, 0) {
		return fmt.Errorf("sightline_extent must be a finite value above 1, got %g", e)
	}
	return nil
}

func (a Architecture) validate() error {
	if err := requirePositive("R_star", a.StarRadius); err != nil {
		return err
	}
	if err := requirePositive("R_body", a.BodyRadius); err != nil {
		return err
	}
	if err := requirePositive("a_body", a.SemiMajorAxis); err != nil {
		return err
	}
	if a.BodyMass != nil && !(*a.BodyMass > 0) {
		return fmt.Errorf("M_body must be positive, got %g", *a.BodyMass)
	}
	if b := a.GetImpactParameter(); b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return fmt.Errorf("impact_parameter must be a finite non-negative value, got %g", b)
	}
	if len(a.LimbDarkening) > 2 {
		return fmt.Errorf("limb_darkening takes at most 2 coefficients, got %d", len(a.LimbDarkening))
	}
	if (a.BandpassMin == nil) != (a.BandpassMax == nil) {
		return fmt.Errorf("bandpass_min and bandpass_max must be set together")
	}
	return nil
}

func (s Scenario) validate() error {
	switch s.Type {
	case ScenarioBarometric, ScenarioPowerLaw:
	default:
		return fmt.Errorf("unknown scenario type %q", s.Type)
	}
	if t := s.GetTemperature(); !(t > 0) {
		return fmt.Errorf("T must be positive, got %g", t)
	}
	if mu := s.GetMeanMolecularWeight(); !(mu > 0) {
		return fmt.Errorf("mu must be positive, got %g", mu)
	}
	if s.ScaleHeight != nil && !(*s.ScaleHeight > 0) {
		return fmt.Errorf("H must be positive, got %g", *s.ScaleHeight)
	}
	if q := s.GetExponent(); !(q > 1) {
		return fmt.Errorf("q must be greater than 1 for a finite column, got %g", q)
	}
	return nil
}

func (s Species) validate() error {
	if s.ReferenceDensity < 0 || math.IsNaN(s.ReferenceDensity) || math.IsInf(s.ReferenceDensity, 0) {
		return fmt.Errorf("n_ref must be finite and non-negative, got %g", s.ReferenceDensity)
	}
	if !(s.MassAMU > 0) {
		return fmt.Errorf("mass_amu must be positive, got %g", s.MassAMU)
	}
	for i, l := range s.Lines {
		if !(l.Wavelength > 0) {
			return fmt.Errorf("line %d: lambda must be positive, got %g", i, l.Wavelength)
		}
		if l.OscillatorStrength < 0 {
			return fmt.Errorf("line %d: f must be non-negative, got %g", i, l.OscillatorStrength)
		}
		if l.Damping < 0 {
			return fmt.Errorf("line %d: gamma must be non-negative, got %g", i, l.Damping)
		}
	}
	return nil
}

func requirePositive(name string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%s is required", name)
	}
	if !(*v > 0) || math.IsInf(*v, 0) {
		return fmt.Errorf("%s must be a finite positive value, got %g", name, *v)
	}
	return nil
}
