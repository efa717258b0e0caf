package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/exotransit/chordgrid/internal/units"
)

// DefaultConfigPath is the example parameter file shipped with the repository.
const DefaultConfigPath = "config/example.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// LoadConfig loads a Config from a JSON or YAML parameter file. ".txt" files
// are read as JSON, matching the historical parameter file naming. Both
// formats reject keys the Config does not know.
// The file is validated to ensure it has a supported extension and is under
// the max file size.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".txt", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .txt, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if ext == ".yaml" || ext == ".yml" {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("failed to parse config JSON: trailing data after the top-level object")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// RunName derives the output file prefix from a parameter file path.
func RunName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultConfig returns a complete parameter set for a neutral sodium
// exosphere around a hot Jupiter, observed across the Na D doublet.
func DefaultConfig() *Config {
	return &Config{
		Fundamentals: Fundamentals{
			LineProfile:      ptrString(ProfileDoppler),
			IntegrationSteps: ptrInt(201),
			SightlineExtent:  ptrFloat64(30),
		},
		Scenarios: map[string]Scenario{
			"exosphere": {
				Type:                ScenarioBarometric,
				Temperature:         ptrFloat64(1500),
				MeanMolecularWeight: ptrFloat64(2.3),
			},
		},
		Architecture: Architecture{
			StarRadius:      ptrFloat64(1.038 * units.SolarRadius),
			BodyRadius:      ptrFloat64(1.198 * units.JupiterRadius),
			BodyMass:        ptrFloat64(0.399 * units.JupiterMass),
			SemiMajorAxis:   ptrFloat64(0.0379 * units.AstronomicalUnit),
			ImpactParameter: ptrFloat64(0.77),
			LimbDarkening:   []float64{0.4, 0.25},
			BandpassMin:     ptrFloat64(5.885e-5),
			BandpassMax:     ptrFloat64(5.900e-5),
		},
		Species: map[string]Species{
			"NaI": {
				Scenario:         "exosphere",
				ReferenceDensity: 1e5,
				MassAMU:          22.99,
				Lines: []Line{
					{Wavelength: 5.889951e-5, OscillatorStrength: 0.641, Damping: 6.16e7},
					{Wavelength: 5.895924e-5, OscillatorStrength: 0.320, Damping: 6.14e7},
				},
			},
		},
		Grids: Grids{
			OrbphaseLower: ptrFloat64(-0.1),
			OrbphaseUpper: ptrFloat64(0.1),
			OrbphaseSteps: 11,
			LambdaSteps:   300,
			RhoSteps:      60,
			PhiSteps:      90,
		},
		Output: Output{
			Benchmark: true,
			RecordTau: true,
		},
	}
}
