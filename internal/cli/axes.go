package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/transit"
	"github.com/exotransit/chordgrid/internal/units"
)

// AxisReport describes one axis of a parameter file.
type AxisReport struct {
	Dimension string    `json:"dimension"`
	Steps     int       `json:"steps"`
	Unit      string    `json:"unit"`
	Values    []float64 `json:"values"`
}

// AxesReport is what the axes command prints.
type AxesReport struct {
	Nesting string       `json:"nesting"`
	Chords  int          `json:"chords"`
	Axes    []AxisReport `json:"axes"`
}

func (r AxesReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d chords, nesting %s\n", r.Chords, r.Nesting)
	for _, a := range r.Axes {
		fmt.Fprintf(&b, "%-10s %6d  [%g, %g] %s\n", a.Dimension, a.Steps, a.Values[0], a.Values[len(a.Values)-1], a.Unit)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewAxesCommand creates the axes command.
func NewAxesCommand(opts *RootOptions) *cobra.Command {
	var wavelengthUnit string
	cmd := &cobra.Command{
		Use:   "axes <params>",
		Short: "Print the grid axes of a parameter file",
		Long: `Build the four grid axes of a parameter file without evaluating any chord.
Text output shows the size and range of each axis; JSON output carries every
bin centre.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := describeAxes(args[0], wavelengthUnit)
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(report)
		},
	}
	cmd.Flags().StringVar(&wavelengthUnit, "wavelength-unit", units.Angstrom,
		"unit for wavelength values ("+units.GetValidUnitsString()+")")
	return cmd
}

// axisUnits are the units of the internal axis values.
var axisUnits = map[transit.Dimension]string{
	transit.DimOrbphase:   "rad",
	transit.DimWavelength: units.CM,
	transit.DimRho:        units.CM,
	transit.DimPhi:        "rad",
}

func describeAxes(paramsPath, wavelengthUnit string) (*AxesReport, error) {
	if !units.IsValid(wavelengthUnit) {
		return nil, WrapExitError(ExitCommandError, "bad flags",
			fmt.Errorf("invalid wavelength unit %q: must be one of %s", wavelengthUnit, units.GetValidUnitsString()))
	}
	cfg, err := config.LoadConfig(paramsPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load parameters", err)
	}
	axes, err := transit.BuildAxes(cfg.Grids, cfg.Architecture)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build axes", err)
	}
	report := &AxesReport{Nesting: transit.GridNesting, Chords: axes.Shape().ChordCount()}
	for _, a := range []transit.Axis{axes.Orbphase, axes.Wavelength, axes.Rho, axes.Phi} {
		ar := AxisReport{
			Dimension: string(a.Dimension()),
			Steps:     a.Len(),
			Unit:      axisUnits[a.Dimension()],
			Values:    a.Values(),
		}
		if a.Dimension() == transit.DimWavelength {
			for i, v := range ar.Values {
				ar.Values[i] = units.ConvertLength(v, wavelengthUnit)
			}
			ar.Unit = wavelengthUnit
		}
		report.Axes = append(report.Axes, ar)
	}
	return report, nil
}
