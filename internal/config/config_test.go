package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleDir(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "config")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_ExampleJSON(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(exampleDir(t), "example.json"))
	require.NoError(t, err)

	assert.Equal(t, ProfileDoppler, cfg.Fundamentals.GetLineProfile())
	assert.Equal(t, 201, cfg.Fundamentals.GetIntegrationSteps())
	assert.Equal(t, 11, cfg.Grids.OrbphaseSteps)
	assert.Equal(t, 300, cfg.Grids.LambdaSteps)
	assert.Nil(t, cfg.Grids.LambdaLower, "wavelength bounds come from the bandpass")
	require.Contains(t, cfg.Species, "NaI")
	assert.Len(t, cfg.Species["NaI"].Lines, 2)
	assert.True(t, cfg.Output.Benchmark)
	assert.True(t, cfg.Output.RecordTau)
	assert.Equal(t, 5, cfg.Output.GetTauPhaseIndex(cfg.Grids.OrbphaseSteps))

	u1, u2 := cfg.Architecture.GetLimbDarkening()
	assert.InDelta(t, 0.4, u1, 1e-12)
	assert.InDelta(t, 0.25, u2, 1e-12)
}

func TestLoadConfig_ExampleYAML(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(exampleDir(t), "example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ProfileLorentz, cfg.Fundamentals.GetLineProfile())
	sc := cfg.Scenarios["escaping"]
	assert.Equal(t, ScenarioPowerLaw, sc.Type)
	assert.InDelta(t, 3.5, sc.GetExponent(), 1e-12)
	assert.InDelta(t, 5000, sc.GetTemperature(), 1e-9)
	assert.False(t, cfg.Output.Benchmark)
	assert.Equal(t, 2, cfg.Output.GetTauPhaseIndex(cfg.Grids.OrbphaseSteps))
	assert.InDelta(t, 5.885e-5, *cfg.Architecture.BandpassMin, 1e-15)
}

func TestLoadConfig_TxtIsJSON(t *testing.T) {
	data, err := os.ReadFile(filepath.Join(exampleDir(t), "example.json"))
	require.NoError(t, err)
	path := writeFile(t, "sodium.txt", string(data))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Grids.PhiSteps)
	assert.Equal(t, "sodium", RunName(path))
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("bad extension", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "params.toml", "x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "big.json", strings.Repeat(" ", maxFileSize+1)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "bad.json", "{"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config JSON")
	})

	t.Run("unknown yaml field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "bad.yaml", "Gridz: {}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config YAML")
	})

	t.Run("unknown json field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "typo.json", `{"Grids": {"lambda_lowr": 5.89e-5}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config JSON")
		assert.Contains(t, err.Error(), "lambda_lowr")
	})

	t.Run("unknown yaml grid field", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "typo.yaml", "Grids:\n  lambda_lowr: 5.89e-5\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config YAML")
	})

	t.Run("trailing json", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "trailing.json", `{} {}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trailing data")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "invalid.json", `{"Architecture": {"R_star": -1}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"NaI"}, cfg.SpeciesNames())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"unknown profile", func(c *Config) { c.Fundamentals.LineProfile = String("voigt") }, "line_profile"},
		{"too few integration steps", func(c *Config) { c.Fundamentals.IntegrationSteps = Int(2) }, "integration_steps"},
		{"short sightline", func(c *Config) { c.Fundamentals.SightlineExtent = Float64(0.5) }, "sightline_extent"},
		{"missing star radius", func(c *Config) { c.Architecture.StarRadius = nil }, "R_star is required"},
		{"negative body mass", func(c *Config) { c.Architecture.BodyMass = Float64(-1) }, "M_body"},
		{"negative impact parameter", func(c *Config) { c.Architecture.ImpactParameter = Float64(-0.1) }, "impact_parameter"},
		{"three limb darkening coefficients", func(c *Config) { c.Architecture.LimbDarkening = []float64{0.1, 0.2, 0.3} }, "limb_darkening"},
		{"half a bandpass", func(c *Config) { c.Architecture.BandpassMax = nil }, "bandpass"},
		{"unknown scenario type", func(c *Config) {
			c.Scenarios["exosphere"] = Scenario{Type: "isothermal-ish"}
		}, "unknown scenario type"},
		{"shallow power law", func(c *Config) {
			c.Scenarios["exosphere"] = Scenario{Type: ScenarioPowerLaw, Exponent: Float64(1)}
		}, "q must be"},
		{"dangling scenario", func(c *Config) {
			sp := c.Species["NaI"]
			sp.Scenario = "missing"
			c.Species["NaI"] = sp
		}, "unknown scenario"},
		{"zero mass species", func(c *Config) {
			sp := c.Species["NaI"]
			sp.MassAMU = 0
			c.Species["NaI"] = sp
		}, "mass_amu"},
		{"bad line", func(c *Config) {
			sp := c.Species["NaI"].Clone()
			sp.Lines[0].Wavelength = 0
			c.Species["NaI"] = sp
		}, "lambda must be positive"},
		{"negative tau phase", func(c *Config) { c.Output.TauPhaseIndex = Int(-1) }, "tau_phase_index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClone_DoesNotAlias(t *testing.T) {
	cfg := DefaultConfig()

	arch := cfg.Architecture.Clone()
	arch.LimbDarkening[0] = 0.99
	u1, _ := cfg.Architecture.GetLimbDarkening()
	assert.InDelta(t, 0.4, u1, 1e-12)

	sp := cfg.Species["NaI"].Clone()
	sp.Lines[0].OscillatorStrength = 42
	assert.InDelta(t, 0.641, cfg.Species["NaI"].Lines[0].OscillatorStrength, 1e-12)
}
