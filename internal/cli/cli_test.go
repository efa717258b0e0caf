package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exotransit/chordgrid/internal/config"
	"github.com/exotransit/chordgrid/internal/monitoring"
	"github.com/exotransit/chordgrid/internal/output"
	"github.com/exotransit/chordgrid/internal/testutil"
	"github.com/exotransit/chordgrid/internal/timeutil"
	"github.com/exotransit/chordgrid/internal/transit"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// writeParams writes cfg as a JSON parameter file and returns its path.
func writeParams(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), args, &out, &errOut)
	monitoring.SetLogger(nil)
	return out.String(), errOut.String(), code
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "chordgrid", cmd.Use)

	for _, name := range []string{"run", "axes", "runs", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"workers":    "0",
		"output-dir": ".",
		"db":         "",
		"plot":       "false",
		"html":       "false",
	} {
		f := runCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestExecute_InvalidFormat(t *testing.T) {
	_, stderr, code := execute(t, "--format", "xml", "version")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid format")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, code := execute(t, "version")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "chordgrid")

	stdout, _, code = execute(t, "--format", "json", "version")
	require.Equal(t, ExitSuccess, code)
	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, resp.Data, "version")
}

func TestAxesCommand(t *testing.T) {
	params := writeParams(t, testutil.SmallConfig(3, 4, 5, 6), "small.json")

	stdout, _, code := execute(t, "--format", "json", "axes", params)
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Data AxesReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 3*4*5, resp.Data.Chords)
	require.Len(t, resp.Data.Axes, 4)

	steps := map[string]int{}
	for _, a := range resp.Data.Axes {
		steps[a.Dimension] = a.Steps
		assert.Len(t, a.Values, a.Steps)
	}
	assert.Equal(t, map[string]int{"orbphase": 3, "wavelength": 6, "rho": 4, "phi": 5}, steps)

	stdout, _, code = execute(t, "axes", params)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "60 chords")
	assert.Contains(t, stdout, "angstrom")

	stdout, _, code = execute(t, "--format", "json", "axes", "--wavelength-unit", "cm", params)
	require.Equal(t, ExitSuccess, code)
	var inCM struct {
		Data AxesReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &inCM))
	assert.InDelta(t, resp.Data.Axes[1].Values[0]*1e-8, inCM.Data.Axes[1].Values[0], 1e-18)
	assert.Equal(t, "cm", inCM.Data.Axes[1].Unit)

	_, stderr, code := execute(t, "axes", "--wavelength-unit", "furlong", params)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid wavelength unit")
}

func TestAxesCommand_BadParams(t *testing.T) {
	_, stderr, code := execute(t, "axes", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load parameters")

	bad := testutil.SmallConfig(2, 0, 2, 2)
	params := writeParams(t, bad, "bad.json")
	_, _, code = execute(t, "axes", params)
	assert.Equal(t, ExitCommandError, code)
}

func TestRunCommand_Text(t *testing.T) {
	cfg := testutil.SmallConfig(2, 4, 6, 3)
	cfg.Output = config.Output{Benchmark: true, RecordTau: true}
	params := writeParams(t, cfg, "wasp.json")
	outDir := t.TempDir()

	stdout, stderr, code := execute(t, "run", "--workers", "2", "--output-dir", outDir, "--verbose", params)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Contains(t, stdout, "wasp finished: 48 chords")
	assert.Contains(t, stdout, "maximal flux decrease due to absorption")
	assert.Contains(t, stderr, "evaluated 48/48 chords")

	for _, suffix := range []string{output.LightCurveSuffix, output.BenchmarkSuffix, output.TauSuffix} {
		assert.FileExists(t, filepath.Join(outDir, "wasp"+suffix))
	}
	assert.NoFileExists(t, filepath.Join(outDir, "wasp"+output.PlotSuffix))
}

func TestRunCommand_ArchiveRoundTrip(t *testing.T) {
	params := writeParams(t, testutil.SmallConfig(2, 3, 4, 2), "archived.json")
	outDir := t.TempDir()
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, stderr, code := execute(t, "--format", "json", "run", "-o", outDir, "--db", db, params)
	require.Equal(t, ExitSuccess, code, stderr)

	var runResp struct {
		Status string    `json:"status"`
		Data   RunReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &runResp))
	require.Equal(t, "ok", runResp.Status)
	id := runResp.Data.RunID
	require.NotEmpty(t, id)
	assert.Equal(t, 24, runResp.Data.Chords)
	assert.Len(t, runResp.Data.Files, 1)

	stdout, _, code = execute(t, "--format", "json", "runs", "--db", db)
	require.Equal(t, ExitSuccess, code)
	var listResp struct {
		Data RunList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &listResp))
	require.Len(t, listResp.Data, 1)
	assert.Equal(t, id, listResp.Data[0].ID)
	assert.Equal(t, "archived", listResp.Data[0].Name)

	stdout, _, code = execute(t, "--format", "json", "runs", "show", "--db", db, id)
	require.Equal(t, ExitSuccess, code)
	var showResp struct {
		Data RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &showResp))
	require.Len(t, showResp.Data.LightCurve, 2)
	assert.Len(t, showResp.Data.LightCurve[0], 2)
	assert.Nil(t, showResp.Data.Benchmark)

	stdout, _, code = execute(t, "runs", "show", "--db", db, id)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "phase 1: min")

	_, _, code = execute(t, "runs", "delete", "--db", db, id)
	require.Equal(t, ExitSuccess, code)

	stdout, _, code = execute(t, "--format", "json", "runs", "show", "--db", db, id)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stdout, `"status":"error"`)

	stdout, _, code = execute(t, "runs", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "no runs recorded")
}

func TestRunDetail_String(t *testing.T) {
	d := RunDetail{
		RunSummary: RunSummary{ID: "r1", Name: "wasp", Phases: 2, Rho: 1, Phi: 1, Wavelengths: 3},
		LightCurve: [][]float64{{0.99, 0.97, 0.98}, {1, 1, 0.995}},
		Benchmark:  [][]float64{{0.99, 0.96, 0.98}, {1, 1, 1}},
	}
	out := d.String()
	assert.Contains(t, out, "phase 0: min 0.97000000 (benchmark 0.96000000)")
	assert.Contains(t, out, "phase 1: min 0.99500000 (benchmark 1.00000000)")
}

func TestRunsCommand_RequiresDB(t *testing.T) {
	_, stderr, code := execute(t, "runs")
	assert.NotEqual(t, ExitSuccess, code)
	assert.Contains(t, stderr, "db")
}

func TestRunTransit_InjectedModel(t *testing.T) {
	params := writeParams(t, testutil.SmallConfig(1, 2, 2, 1), "const.json")
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		OutputDir:   t.TempDir(),
		Clock:       clock,
		Factory:     testutil.ConstantFactory(0.25),
	}
	report, err := runTransit(context.Background(), opts, params)
	require.NoError(t, err)

	// Four chords at 0.25 integrate to exactly 1: no decrease at all.
	assert.Equal(t, 0.0, report.MaxDecreasePercent)
	assert.Equal(t, 0.0, report.MinDecreasePercent)
	assert.Equal(t, "0s", report.Elapsed)
	assert.Empty(t, report.RunID)
}

func TestRunTransit_Errors(t *testing.T) {
	params := writeParams(t, testutil.SmallConfig(1, 2, 2, 1), "fail.json")
	base := func() *RunOptions {
		return &RunOptions{RootOptions: &RootOptions{Format: "text"}, OutputDir: t.TempDir()}
	}

	t.Run("model failure", func(t *testing.T) {
		opts := base()
		opts.Factory = func(args *transit.SharedArguments) (transit.ChordModel, error) {
			return testutil.FailAt(testutil.ConstantModel(1), 2), nil
		}
		_, err := runTransit(context.Background(), opts, params)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.True(t, errors.Is(err, testutil.ErrInjected))
	})

	t.Run("negative workers", func(t *testing.T) {
		opts := base()
		opts.Workers = -1
		_, err := runTransit(context.Background(), opts, params)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := runTransit(context.Background(), base(), filepath.Join(t.TempDir(), "params.ini"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("archive failure removes outputs", func(t *testing.T) {
		opts := base()
		opts.Factory = testutil.ConstantFactory(0.25)
		opts.Database = filepath.Join(t.TempDir(), "missing", "runs.db")
		_, err := runTransit(context.Background(), opts, params)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))

		entries, err := os.ReadDir(opts.OutputDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		opts := base()
		opts.Factory = testutil.ConstantFactory(1)
		_, err := runTransit(ctx, opts, params)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := WrapExitError(ExitCommandError, "outer", errors.New("inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: inner", wrapped.Error())
}
