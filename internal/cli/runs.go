package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/store"
)

// RunsOptions holds flags for the runs command and its subcommands.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunSummary is one archived run as printed by the runs commands.
type RunSummary struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreatedAt          time.Time `json:"created_at"`
	Nesting            string    `json:"nesting"`
	Phases             int       `json:"phases"`
	Rho                int       `json:"rho"`
	Phi                int       `json:"phi"`
	Wavelengths        int       `json:"wavelengths"`
	MaxDecreasePercent float64   `json:"max_decrease_percent"`
	MinDecreasePercent float64   `json:"min_decrease_percent"`
}

func (s RunSummary) String() string {
	return fmt.Sprintf("%s  %s  %-20s  %dx%dx%dx%d  max %.5f %%  min %.5f %%",
		s.ID, s.CreatedAt.Format(time.RFC3339), s.Name,
		s.Phases, s.Phi, s.Rho, s.Wavelengths, s.MaxDecreasePercent, s.MinDecreasePercent)
}

// RunList is the output of runs.
type RunList []RunSummary

func (l RunList) String() string {
	if len(l) == 0 {
		return "no runs recorded"
	}
	lines := make([]string, len(l))
	for i, s := range l {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

// RunDetail is the output of runs show: the record and its light curve.
type RunDetail struct {
	RunSummary
	LightCurve [][]float64 `json:"lightcurve"`
	Benchmark  [][]float64 `json:"benchmark,omitempty"`
}

func (d RunDetail) String() string {
	var b strings.Builder
	b.WriteString(d.RunSummary.String())
	for p, row := range d.LightCurve {
		fmt.Fprintf(&b, "\nphase %d: min %.8f", p, floats.Min(row))
		if d.Benchmark != nil {
			fmt.Fprintf(&b, " (benchmark %.8f)", floats.Min(d.Benchmark[p]))
		}
	}
	return b.String()
}

func summarize(rec store.RunRecord) RunSummary {
	return RunSummary{
		ID:                 rec.ID,
		Name:               rec.Name,
		CreatedAt:          rec.CreatedAt,
		Nesting:            rec.Nesting,
		Phases:             rec.Shape.PhaseCount,
		Rho:                rec.Shape.RhoCount,
		Phi:                rec.Shape.PhiCount,
		Wavelengths:        rec.Shape.WavelengthCount,
		MaxDecreasePercent: rec.MaxDecreasePercent,
		MinDecreasePercent: rec.MinDecreasePercent,
	}
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a run archive",
		Long: `List, inspect or delete runs recorded with "chordgrid run --db".

Example:
  chordgrid runs --db runs.db
  chordgrid runs show --db runs.db 5f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list RunList
			err := withStore(cmd.Context(), opts.Database, func(ctx context.Context, st *store.Store) error {
				recs, err := st.ListRuns(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list runs", err)
				}
				list = make(RunList, len(recs))
				for i, rec := range recs {
					list[i] = summarize(rec)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(list)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite run archive (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one run and its light curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var detail RunDetail
			err := withStore(cmd.Context(), opts.Database, func(ctx context.Context, st *store.Store) error {
				rec, err := st.GetRun(ctx, args[0])
				if err != nil {
					return runLookupError(err)
				}
				lc, bench, err := st.LoadLightCurve(ctx, rec.ID)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to load light curve", err)
				}
				detail.RunSummary = summarize(rec)
				for p := 0; p < lc.PhaseCount; p++ {
					detail.LightCurve = append(detail.LightCurve, lc.Row(p))
					if bench != nil {
						detail.Benchmark = append(detail.Benchmark, bench.Row(p))
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(detail)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withStore(cmd.Context(), opts.Database, func(ctx context.Context, st *store.Store) error {
				if err := st.DeleteRun(ctx, args[0]); err != nil {
					return runLookupError(err)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("deleted run %s", args[0]))
		},
	})

	return cmd
}

func runLookupError(err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	return WrapExitError(ExitFailure, "archive query failed", err)
}

func withStore(ctx context.Context, path string, fn func(context.Context, *store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			monitoring.Logf("error closing database: %v", closeErr)
		}
	}()
	return fn(ctx, st)
}
