package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/exotransit/chordgrid/internal/fsutil"
	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/security"
	"github.com/exotransit/chordgrid/internal/transit"
)

// File name suffixes appended to the run name.
const (
	LightCurveSuffix = "_lightcurve.txt"
	BenchmarkSuffix  = "_barometricBenchmark.txt"
	TauSuffix        = "_tau.txt"
	PlotSuffix       = "_lightcurve.png"
	ChartSuffix      = "_charts.html"
)

// Writer persists a run under Dir with file names prefixed by Name.
type Writer struct {
	Dir  string
	Name string
	FS   fsutil.FileSystem

	// Plot adds a PNG of the light curve; HTML adds an echarts page.
	Plot bool
	HTML bool
}

// NewWriter returns a Writer on the real filesystem.
func NewWriter(dir, name string) *Writer {
	return &Writer{Dir: dir, Name: name, FS: fsutil.OSFileSystem{}}
}

// product is one rendered output file waiting to be committed.
type product struct {
	path string
	data []byte
}

// WriteAll writes every product present in res and returns the paths
// written, in order. Every product is rendered before any file is created,
// and files already created are removed if a later one fails, so an error
// leaves no products behind.
func (w *Writer) WriteAll(res *transit.Result) ([]string, error) {
	if res == nil || res.Reduction == nil {
		return nil, fmt.Errorf("nothing to write: result is empty")
	}
	products, err := w.render(res)
	if err != nil {
		return nil, err
	}
	if err := w.FS.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	written := make([]string, 0, len(products))
	for _, p := range products {
		if err := w.commit(p); err != nil {
			w.Remove(append(written, p.path))
			return nil, err
		}
		written = append(written, p.path)
	}

	monitoring.Logf("wrote %d files to %s", len(written), w.Dir)
	return written, nil
}

// Remove deletes paths written by WriteAll. Missing files are ignored;
// other failures are logged.
func (w *Writer) Remove(paths []string) {
	for _, path := range paths {
		if err := w.FS.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			monitoring.Logf("remove %s: %v", path, err)
		}
	}
}

func (w *Writer) render(res *transit.Result) ([]product, error) {
	red := res.Reduction
	var products []product
	add := func(suffix string, fn func(io.Writer) error) error {
		path, err := security.OutputPath(w.Dir, w.Name+suffix)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := fn(&buf); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		products = append(products, product{path: path, data: buf.Bytes()})
		return nil
	}

	if err := add(LightCurveSuffix, func(out io.Writer) error {
		return WriteLightCurve(out, res.Axes, red.LightCurve)
	}); err != nil {
		return nil, err
	}
	if red.Benchmark != nil {
		if err := add(BenchmarkSuffix, func(out io.Writer) error {
			return WriteLightCurve(out, res.Axes, red.Benchmark)
		}); err != nil {
			return nil, err
		}
	}
	if red.Tau != nil {
		if err := add(TauSuffix, func(out io.Writer) error {
			return WriteTauMap(out, res.Axes, red.Tau)
		}); err != nil {
			return nil, err
		}
	}
	if w.Plot {
		if err := add(PlotSuffix, func(out io.Writer) error {
			return PlotLightCurve(out, w.Name, res.Axes, red.LightCurve)
		}); err != nil {
			return nil, err
		}
	}
	if w.HTML {
		if err := add(ChartSuffix, func(out io.Writer) error {
			return RenderCharts(out, w.Name, res)
		}); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (w *Writer) commit(p product) (err error) {
	f, err := w.FS.Create(p.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", p.path, cerr)
		}
	}()
	if _, err := f.Write(p.data); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	return nil
}
