package output

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/exotransit/chordgrid/internal/transit"
	"github.com/exotransit/chordgrid/internal/units"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderCharts writes an HTML page with a light-curve heat map and, when the
// result carries one, a sky-projected scatter of the tau map.
func RenderCharts(w io.Writer, title string, res *transit.Result) error {
	if res == nil || res.Reduction == nil {
		return fmt.Errorf("result is empty")
	}
	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(lightCurveHeatMap(title, res.Axes, res.Reduction.LightCurve))
	if res.Reduction.Tau != nil {
		page.AddCharts(tauScatter(res.Axes, res.Reduction.Tau))
	}
	return page.Render(w)
}

func lightCurveHeatMap(title string, axes transit.Axes, lc *transit.LightCurve) *charts.HeatMap {
	xs := make([]string, lc.WavelengthCount)
	for i := range xs {
		xs[i] = fmt.Sprintf("%.3f", units.ConvertLength(axes.Wavelength.At(i), units.Angstrom))
	}
	ys := make([]string, lc.PhaseCount)
	for i := range ys {
		ys[i] = fmt.Sprintf("%.4f", axes.Orbphase.At(i))
	}
	data := make([]opts.HeatMapData, 0, len(lc.Values))
	for p := 0; p < lc.PhaseCount; p++ {
		for wi := 0; wi < lc.WavelengthCount; wi++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{wi, p, lc.At(p, wi)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Light curve", Subtitle: fmt.Sprintf("%d phases x %d wavelengths", lc.PhaseCount, lc.WavelengthCount)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, Name: "Wavelength (Å)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, Name: "Orbital phase (rad)", NameLocation: "middle", NameGap: 50}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lc.Min()),
			Max:        float32(lc.Max()),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.AddSeries("R", data)
	return hm
}

// tauScatter places every chord at its sky position in stellar radii. Opaque
// chords are left out.
func tauScatter(axes transit.Axes, m *transit.TauMap) *charts.Scatter {
	edges := axes.Rho.Edges()
	scale := edges[len(edges)-1]

	data := make([]opts.ScatterData, 0, len(m.Values))
	maxTau := 0.0
	for f := 0; f < m.PhiCount; f++ {
		phi := axes.Phi.At(f)
		for r := 0; r < m.RhoCount; r++ {
			tau := m.At(r, f)
			if math.IsNaN(tau) || math.IsInf(tau, 0) {
				continue
			}
			maxTau = math.Max(maxTau, tau)
			rho := axes.Rho.At(r) / scale
			data = append(data, opts.ScatterData{Value: []interface{}{rho * math.Cos(phi), rho * math.Sin(phi), tau}})
		}
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Optical depth", Subtitle: fmt.Sprintf("phase index %d, %d chords", m.PhaseIndex, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1.05, Max: 1.05, Name: "x (R_star)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1.05, Max: 1.05, Name: "y (R_star)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxTau),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	sc.AddSeries("tau", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return sc
}
