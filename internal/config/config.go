package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete processing configuration.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler" envconfig:"SCHEDULER"`
	Solver    SolverConfig    `yaml:"solver" envconfig:"SOLVER"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Ancillary AncillaryConfig `yaml:"ancillary" envconfig:"ANCILLARY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// SchedulerConfig bounds the worker pool and per-job execution time.
type SchedulerConfig struct {
	// WorkerCap is the hard upper bound on pool size; jobs are I/O bound on
	// the external solver, so the pool oversubscribes CPUs up to this cap.
	WorkerCap   int           `yaml:"worker_cap" envconfig:"WORKER_CAP" default:"32" validate:"gt=0"`
	WorkerSlack int           `yaml:"worker_slack" envconfig:"WORKER_SLACK" default:"4" validate:"gte=0"`
	JobTimeout  time.Duration `yaml:"job_timeout" envconfig:"JOB_TIMEOUT" default:"40s" validate:"gt=0"`
}

// SolverConfig locates and throttles the external radiative-transfer solver.
type SolverConfig struct {
	Executable string  `yaml:"executable" envconfig:"EXECUTABLE" default:"uvspec" validate:"required"`
	DataDir    string  `yaml:"data_dir" envconfig:"DATA_DIR"`
	RateLimit  float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"20" validate:"gt=0"`
	RateBurst  int     `yaml:"rate_burst" envconfig:"RATE_BURST" default:"5" validate:"gt=0"`
}

// PipelineConfig carries the numerical correction settings.
type PipelineConfig struct {
	// TempCoefficient is c in the uniform factor 1 + c*(T - TempReference).
	TempCoefficient float64 `yaml:"temp_coefficient" envconfig:"TEMP_COEFFICIENT" default:"0.0"`
	TempReference   float64 `yaml:"temp_reference" envconfig:"TEMP_REFERENCE" default:"21.0"`
	// DiffuseThreshold is the cloud-cover fraction at or above which the sky
	// is treated as fully diffuse for the cosine correction.
	DiffuseThreshold float64 `yaml:"diffuse_threshold" envconfig:"DIFFUSE_THRESHOLD" default:"0.9" validate:"gte=0,lte=1"`
	CosineCorrection bool    `yaml:"cosine_correction" envconfig:"COSINE_CORRECTION" default:"true"`
	// StraylightDefault applies to instrument types absent from Instruments.
	StraylightDefault bool               `yaml:"straylight_default" envconfig:"STRAYLIGHT_DEFAULT" default:"true"`
	Instruments       []InstrumentConfig `yaml:"instruments" envconfig:"-"`
	DefaultAlbedo     float64            `yaml:"default_albedo" envconfig:"DEFAULT_ALBEDO" default:"0.04"`
	DefaultAerosol    AerosolConfig      `yaml:"default_aerosol" envconfig:"DEFAULT_AEROSOL"`
	DefaultOzone      float64            `yaml:"default_ozone" envconfig:"DEFAULT_OZONE" default:"300" validate:"gt=0"`
}

// AerosolConfig is the Angstrom aerosol parameter pair.
type AerosolConfig struct {
	Alpha float64 `yaml:"alpha" envconfig:"ALPHA" default:"1.3"`
	Beta  float64 `yaml:"beta" envconfig:"BETA" default:"0.1"`
}

// InstrumentConfig describes one instrument model's correction behavior.
type InstrumentConfig struct {
	// Type is the two-letter instrument type code from the raw file header.
	Type       string `yaml:"type" validate:"required,len=2"`
	Model      string `yaml:"model"`
	Straylight bool   `yaml:"straylight"`
}

// AncillaryConfig tunes the ancillary file loaders.
type AncillaryConfig struct {
	// ARFColumn selects the response column in the angular response file.
	// Out-of-range values fall back to the last column with a warning.
	ARFColumn int `yaml:"arf_column" envconfig:"ARF_COLUMN" default:"1" validate:"gte=0"`
	// OzoneMaxAirMass and OzoneMaxStd quality-filter ozone summary records.
	OzoneMaxAirMass float64 `yaml:"ozone_max_air_mass" envconfig:"OZONE_MAX_AIR_MASS" default:"3.5" validate:"gt=0"`
	OzoneMaxStd     float64 `yaml:"ozone_max_std" envconfig:"OZONE_MAX_STD" default:"2.5" validate:"gt=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/uvcal.log"`
}

// Load loads configuration from environment variables, then overlays the
// YAML file (when present) for settings that only live there, such as the
// instrument model registry.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("UVCAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg.Pipeline.Instruments = fileCfg.Pipeline.Instruments
		}
	}

	if len(cfg.Pipeline.Instruments) == 0 {
		cfg.Pipeline.Instruments = Default().Pipeline.Instruments
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Pipeline.Instruments))
	for _, inst := range c.Pipeline.Instruments {
		if seen[inst.Type] {
			return fmt.Errorf("duplicate instrument type %q", inst.Type)
		}
		seen[inst.Type] = true
	}
	return nil
}

// StraylightFor resolves whether the given instrument type requires the
// stray-light correction, falling back to the configured default for
// unknown types.
func (c *Config) StraylightFor(instrumentType string) bool {
	for _, inst := range c.Pipeline.Instruments {
		if inst.Type == instrumentType {
			return inst.Straylight
		}
	}
	return c.Pipeline.StraylightDefault
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			WorkerCap:   32,
			WorkerSlack: 4,
			JobTimeout:  40 * time.Second,
		},
		Solver: SolverConfig{
			Executable: "uvspec",
			RateLimit:  20,
			RateBurst:  5,
		},
		Pipeline: PipelineConfig{
			TempReference:     21.0,
			DiffuseThreshold:  0.9,
			CosineCorrection:  true,
			StraylightDefault: true,
			DefaultAlbedo:     0.04,
			DefaultAerosol:    AerosolConfig{Alpha: 1.3, Beta: 0.1},
			DefaultOzone:      300,
			Instruments: []InstrumentConfig{
				{Type: "UV", Model: "single monochromator", Straylight: true},
				{Type: "UX", Model: "double monochromator", Straylight: false},
			},
		},
		Ancillary: AncillaryConfig{
			ARFColumn:       1,
			OzoneMaxAirMass: 3.5,
			OzoneMaxStd:     2.5,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/uvcal.log",
		},
	}
}
