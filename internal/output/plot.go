package output

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/exotransit/chordgrid/internal/transit"
	"github.com/exotransit/chordgrid/internal/units"
)

// PlotLightCurve draws R against wavelength, one line per orbital phase, and
// encodes the figure as PNG.
func PlotLightCurve(w io.Writer, title string, axes transit.Axes, lc *transit.LightCurve) error {
	if lc == nil {
		return fmt.Errorf("light curve is nil")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Wavelength (Å)"
	p.Y.Label.Text = "R"

	colors := generateColors(lc.PhaseCount)
	for ph := 0; ph < lc.PhaseCount; ph++ {
		pts := make(plotter.XYs, lc.WavelengthCount)
		for wi := range pts {
			pts[wi] = plotter.XY{
				X: units.ConvertLength(axes.Wavelength.At(wi), units.Angstrom),
				Y: lc.At(ph, wi),
			}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("phase %d line: %w", ph, err)
		}
		line.Color = colors[ph]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("φ=%.4f", axes.Orbphase.At(ph)), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// generateColors returns n evenly spaced hues.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
