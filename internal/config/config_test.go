package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvcal/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Scheduler.WorkerCap)
	assert.Equal(t, 4, cfg.Scheduler.WorkerSlack)
	assert.Equal(t, 40*time.Second, cfg.Scheduler.JobTimeout)
	assert.Equal(t, "uvspec", cfg.Solver.Executable)
	assert.Equal(t, 0.9, cfg.Pipeline.DiffuseThreshold)
	assert.True(t, cfg.Pipeline.CosineCorrection)
	assert.Equal(t, 300.0, cfg.Pipeline.DefaultOzone)
	assert.Equal(t, 1.3, cfg.Pipeline.DefaultAerosol.Alpha)
	assert.NotEmpty(t, cfg.Pipeline.Instruments)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("UVCAL_SCHEDULER_WORKER_CAP", "7")
	t.Setenv("UVCAL_SOLVER_EXECUTABLE", "/opt/solver/bin/uvspec")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Scheduler.WorkerCap)
	assert.Equal(t, "/opt/solver/bin/uvspec", cfg.Solver.Executable)
}

func TestLoadInstrumentsFromFile(t *testing.T) {
	raw := `pipeline:
  instruments:
    - type: UV
      model: single monochromator
      straylight: true
    - type: XX
      model: double monochromator
      straylight: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Pipeline.Instruments, 2)
	assert.Equal(t, "XX", cfg.Pipeline.Instruments[1].Type)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, 32, cfg.Scheduler.WorkerCap)
}

func TestValidateDuplicateInstrumentType(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Instruments = append(cfg.Pipeline.Instruments, config.InstrumentConfig{Type: "UV"})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate instrument type")
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero worker cap", func(c *config.Config) { c.Scheduler.WorkerCap = 0 }},
		{"zero job timeout", func(c *config.Config) { c.Scheduler.JobTimeout = 0 }},
		{"empty executable", func(c *config.Config) { c.Solver.Executable = "" }},
		{"threshold above one", func(c *config.Config) { c.Pipeline.DiffuseThreshold = 1.5 }},
		{"one-letter type code", func(c *config.Config) { c.Pipeline.Instruments[0].Type = "u" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}

func TestStraylightFor(t *testing.T) {
	cfg := config.Default()

	assert.True(t, cfg.StraylightFor("UV"))
	assert.False(t, cfg.StraylightFor("UX"))

	// Unknown types take the configured default.
	assert.True(t, cfg.StraylightFor("ZZ"))
	cfg.Pipeline.StraylightDefault = false
	assert.False(t, cfg.StraylightFor("ZZ"))
}
