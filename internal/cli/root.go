// Package cli implements the chordgrid command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/version"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func (o *RootOptions) formatter(cmd *cobra.Command) *Formatter {
	return &Formatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chordgrid",
		Short: "Synthetic transit light curves on a polar chord grid",
		Long: `chordgrid computes the transmission spectrum of a transiting body with an
absorbing atmosphere or exosphere. The stellar disk is cut into a polar grid
of chords, each chord is evaluated in parallel and the results are summed
into a light curve per orbital phase and wavelength.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "bad flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			monitoring.SetLogger(log.New(cmd.ErrOrStderr(), "", log.LstdFlags).Printf)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log run progress")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewAxesCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// Execute runs the command line in args and returns the process exit code.
// Errors are reported on stderr, or on stdout as a JSON envelope when
// --format=json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if opts.Format == "json" {
		f := &Formatter{Format: opts.Format, Writer: stdout}
		if ferr := f.Failure(err); ferr == nil {
			return GetExitCode(err)
		}
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return GetExitCode(err)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// NewVersionCommand creates the version command.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format == "json" {
				return opts.formatter(cmd).Success(version.Get())
			}
			return opts.formatter(cmd).Success(version.String())
		},
	}
}
