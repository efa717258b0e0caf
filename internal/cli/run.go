package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/output"
	"github.com/exotransit/chordgrid/internal/physics"
	"github.com/exotransit/chordgrid/internal/store"
	"github.com/exotransit/chordgrid/internal/timeutil"
	"github.com/exotransit/chordgrid/internal/transit"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Workers   int
	OutputDir string
	Database  string
	Plot      bool
	HTML      bool

	// Clock overrides the clock used for timing and run records (for testing).
	Clock timeutil.Clock
	// Factory overrides the chord model (for testing). Defaults to physics.New.
	Factory transit.ModelFactory
}

// RunReport is what the run command prints.
type RunReport struct {
	Name               string   `json:"name"`
	Chords             int      `json:"chords"`
	Phases             int      `json:"phases"`
	Wavelengths        int      `json:"wavelengths"`
	MaxDecreasePercent float64  `json:"max_decrease_percent"`
	MinDecreasePercent float64  `json:"min_decrease_percent"`
	Elapsed            string   `json:"elapsed"`
	Files              []string `json:"files"`
	RunID              string   `json:"run_id,omitempty"`
}

func (r RunReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s finished: %d chords, %d phases x %d wavelengths in %s\n",
		r.Name, r.Chords, r.Phases, r.Wavelengths, r.Elapsed)
	fmt.Fprintf(&b, "maximal flux decrease due to absorption: %.5f %%\n", r.MaxDecreasePercent)
	fmt.Fprintf(&b, "minimal flux decrease due to absorption: %.5f %%\n", r.MinDecreasePercent)
	for _, f := range r.Files {
		fmt.Fprintf(&b, "wrote %s\n", f)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "stored as run %s\n", r.RunID)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <params>",
		Short: "Compute a light curve from a parameter file",
		Long: `Compute the transit light curve described by a JSON or YAML parameter file
and write the text products next to each other in the output directory.

Example:
  chordgrid run config/example.json
  chordgrid run --workers 8 --plot --html --db runs.db params/wasp49.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runTransit(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(report)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "number of parallel workers (0 = one per CPU)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", ".", "directory for output files")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite run archive to record the run in")
	cmd.Flags().BoolVar(&opts.Plot, "plot", false, "also write a PNG plot of the light curve")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "also write an HTML page of interactive charts")

	return cmd
}

func runTransit(parent context.Context, opts *RunOptions, paramsPath string) (*RunReport, error) {
	if opts.Workers < 0 {
		return nil, WrapExitError(ExitCommandError, "bad flags", fmt.Errorf("--workers must not be negative, got %d", opts.Workers))
	}
	cfg, err := config.LoadConfig(paramsPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load parameters", err)
	}
	name := config.RunName(paramsPath)

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	factory := opts.Factory
	if factory == nil {
		factory = physics.New
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sw := monitoring.StartStopwatch("run "+name, clock)
	runOpts := transit.RunOptions{Workers: opts.Workers}
	if opts.Verbose {
		runOpts.Progress = progressLogger()
	}
	res, err := transit.Run(ctx, cfg, factory, runOpts)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "run failed", err)
	}

	w := output.NewWriter(opts.OutputDir, name)
	w.Plot = opts.Plot
	w.HTML = opts.HTML
	files, err := w.WriteAll(res)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to write outputs", err)
	}

	report := &RunReport{
		Name:        name,
		Chords:      res.Shape.ChordCount(),
		Phases:      res.Shape.PhaseCount,
		Wavelengths: res.Shape.WavelengthCount,
		Files:       files,
	}
	summary := res.Summary()
	report.MaxDecreasePercent = summary.MaxDecreasePercent
	report.MinDecreasePercent = summary.MinDecreasePercent

	if opts.Database != "" {
		id, err := archiveRun(ctx, opts.Database, clock, name, res)
		if err != nil {
			w.Remove(files)
			return nil, err
		}
		report.RunID = id
	}

	report.Elapsed = sw.Stop().String()
	monitoring.Logf("maximal flux decrease due to absorption: %.5f %%", summary.MaxDecreasePercent)
	monitoring.Logf("minimal flux decrease due to absorption: %.5f %%", summary.MinDecreasePercent)
	return report, nil
}

func archiveRun(ctx context.Context, path string, clock timeutil.Clock, name string, res *transit.Result) (string, error) {
	st, err := store.Open(path, clock)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			monitoring.Logf("error closing database: %v", closeErr)
		}
	}()
	rec, err := st.SaveRun(ctx, name, res)
	if err != nil {
		return "", WrapExitError(ExitFailure, "failed to store run", err)
	}
	return rec.ID, nil
}

// progressLogger logs every completed tenth of the grid.
func progressLogger() func(done, total int) {
	return func(done, total int) {
		step := total / 10
		if step == 0 {
			step = 1
		}
		if done%step == 0 || done == total {
			monitoring.Logf("evaluated %d/%d chords", done, total)
		}
	}
}
