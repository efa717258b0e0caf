// Package output persists a reduced run: plain-text tables readable by
// numpy.loadtxt, an optional PNG plot and an optional HTML chart page.
package output

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/exotransit/chordgrid/internal/transit"
	"github.com/exotransit/chordgrid/internal/units"
)

// Column headers of the text tables.
const (
	LightCurveHeader = "Wavelength grid (Å), Orbital phase grid [rad], R"
	TauHeader        = "phi grid [rad], rho grid [cm], tau"
)

// formatValue renders v the way numpy.savetxt does with fmt='%.18e'.
func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'e', 18, 64)
}

type tableWriter struct {
	bw  *bufio.Writer
	err error
}

func newTableWriter(w io.Writer, header string) *tableWriter {
	t := &tableWriter{bw: bufio.NewWriter(w)}
	_, t.err = fmt.Fprintf(t.bw, "# %s\n", header)
	return t
}

func (t *tableWriter) row(values ...float64) {
	if t.err != nil {
		return
	}
	for i, v := range values {
		if i > 0 {
			if t.err = t.bw.WriteByte(' '); t.err != nil {
				return
			}
		}
		if _, t.err = t.bw.WriteString(formatValue(v)); t.err != nil {
			return
		}
	}
	t.err = t.bw.WriteByte('\n')
}

func (t *tableWriter) close() error {
	if t.err != nil {
		return t.err
	}
	return t.bw.Flush()
}

// WriteLightCurve writes one row per (wavelength, orbital phase) pair,
// wavelength outer, with the wavelength in Angstrom.
func WriteLightCurve(w io.Writer, axes transit.Axes, lc *transit.LightCurve) error {
	if lc == nil {
		return fmt.Errorf("light curve is nil")
	}
	if lc.WavelengthCount != axes.Wavelength.Len() || lc.PhaseCount != axes.Orbphase.Len() {
		return &transit.ShapeMismatchError{
			What: "light curve",
			Want: axes.Wavelength.Len() * axes.Orbphase.Len(),
			Got:  lc.WavelengthCount * lc.PhaseCount,
		}
	}
	t := newTableWriter(w, LightCurveHeader)
	for wi := 0; wi < lc.WavelengthCount; wi++ {
		lambda := units.ConvertLength(axes.Wavelength.At(wi), units.Angstrom)
		for p := 0; p < lc.PhaseCount; p++ {
			t.row(lambda, axes.Orbphase.At(p), lc.At(p, wi))
		}
	}
	return t.close()
}

// WriteTauMap writes one row per (phi, rho) chord of the tau map, phi outer.
// Opaque chords are written as inf.
func WriteTauMap(w io.Writer, axes transit.Axes, m *transit.TauMap) error {
	if m == nil {
		return fmt.Errorf("tau map is nil")
	}
	if m.PhiCount != axes.Phi.Len() || m.RhoCount != axes.Rho.Len() {
		return &transit.ShapeMismatchError{
			What: "tau map",
			Want: axes.Phi.Len() * axes.Rho.Len(),
			Got:  m.PhiCount * m.RhoCount,
		}
	}
	t := newTableWriter(w, TauHeader)
	for f := 0; f < m.PhiCount; f++ {
		for r := 0; r < m.RhoCount; r++ {
			t.row(axes.Phi.At(f), axes.Rho.At(r), m.At(r, f))
		}
	}
	return t.close()
}
