package physics

import (
	"fmt"
	"math"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/units"
)

// lineShape is a frequency-normalised line profile phi(nu - nu0) in Hz^-1.
type lineShape func(dnu float64) float64

func dopplerShape(width float64) lineShape {
	norm := 1 / (width * math.Sqrt(math.Pi))
	return func(dnu float64) float64 {
		x := dnu / width
		return norm * math.Exp(-x*x)
	}
}

func lorentzShape(gamma float64) lineShape {
	hwhm := gamma / (4 * math.Pi)
	return func(dnu float64) float64 {
		return hwhm / (math.Pi * (dnu*dnu + hwhm*hwhm))
	}
}

// dopplerWidth returns the thermal Doppler width in Hz of a line at nu0.
func dopplerWidth(nu0, temperature, massAMU float64) float64 {
	v := math.Sqrt(2 * units.Boltzmann * temperature / (massAMU * units.AtomicMassUnit))
	return nu0 * v / units.SpeedOfLight
}

// crossSection returns the absorption cross-section of sp in cm^2 at every
// wavelength (cm).
func crossSection(sp config.Species, sc config.Scenario, profileName string, wavelengths []float64) ([]float64, error) {
	sigma := make([]float64, len(wavelengths))
	for i, line := range sp.Lines {
		nu0 := units.SpeedOfLight / line.Wavelength
		var shape lineShape
		switch profileName {
		case config.ProfileDoppler:
			shape = dopplerShape(dopplerWidth(nu0, sc.GetTemperature(), sp.MassAMU))
		case config.ProfileLorentz:
			if !(line.Damping > 0) {
				return nil, fmt.Errorf("line %d: lorentz profile needs a positive gamma", i)
			}
			shape = lorentzShape(line.Damping)
		default:
			return nil, fmt.Errorf("unknown line profile %q", profileName)
		}
		strength := units.LineStrengthConstant * line.OscillatorStrength
		for w, lambda := range wavelengths {
			sigma[w] += strength * shape(units.SpeedOfLight/lambda-nu0)
		}
	}
	return sigma, nil
}
