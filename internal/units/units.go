// Package units provides the CGS physical constants and length unit
// conversions shared by the grid engine, the chord models and the writers.
// All internal quantities are CGS; conversions happen at the edges.
package units

import "math"

// Physical constants (CGS).
const (
	SpeedOfLight     = 2.99792458e10     // cm s^-1
	Boltzmann        = 1.380649e-16      // erg K^-1
	Gravitational    = 6.67430e-8        // cm^3 g^-1 s^-2
	AtomicMassUnit   = 1.66053906660e-24 // g
	HydrogenMass     = 1.6735575e-24     // g
	ElectronMass     = 9.1093837015e-28  // g
	ElementaryCharge = 4.80320471e-10    // statC
	SolarRadius      = 6.957e10          // cm
	JupiterRadius    = 7.1492e9          // cm
	JupiterMass      = 1.89813e30        // g
	AstronomicalUnit = 1.495978707e13    // cm
)

// LineStrengthConstant is pi e^2 / (m_e c), the integrated cross-section of a
// classical oscillator in cm^2 Hz.
var LineStrengthConstant = math.Pi * ElementaryCharge * ElementaryCharge / (ElectronMass * SpeedOfLight)

// Length unit identifiers.
const (
	CM       = "cm"
	Angstrom = "angstrom"
	NM       = "nm"
	Micron   = "micron"
)

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{CM, Angstrom, NM, Micron}

// IsValid checks if the given unit is in the list of valid length units
func IsValid(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "cm, angstrom, nm, micron"
}

// ConvertLength converts a length in centimetres to the target unit.
// Unknown units return the value unchanged.
func ConvertLength(cm float64, targetUnit string) float64 {
	switch targetUnit {
	case Angstrom:
		return cm * 1e8
	case NM:
		return cm * 1e7
	case Micron:
		return cm * 1e4
	default:
		return cm
	}
}

// ScaleHeight returns the isothermal pressure scale height k T / (mu m_H g)
// for a body of the given mass and radius.
func ScaleHeight(temperature, meanMolecularWeight, mass, radius float64) float64 {
	g := Gravitational * mass / (radius * radius)
	return Boltzmann * temperature / (meanMolecularWeight * HydrogenMass * g)
}
