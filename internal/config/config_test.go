package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, 0.85, cfg.Peak)
	assert.Equal(t, 3.0, cfg.RampUp)
	assert.Equal(t, 3.0, cfg.RampDown)
	assert.False(t, cfg.ProfileNoise)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Empty(t, cfg.Only)
	assert.Equal(t, "assets/audio/sensory-tracks", cfg.OutputDir)
	assert.Equal(t, "assets/audio/test-profiles", cfg.TestOutputDir)
	assert.Equal(t, "assets/audio/manifest.json", cfg.ManifestPath)
	assert.Empty(t, cfg.MetricsFile)
	assert.Equal(t, ":8090", cfg.PreviewAddr)
	assert.Equal(t, 2*time.Second, cfg.Crossfade)
	assert.Equal(t, "auto", cfg.LogFormat)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EASEL_SAMPLE_RATE", "44100")
	t.Setenv("EASEL_SEED", "99")
	t.Setenv("EASEL_PEAK", "0.5")
	t.Setenv("EASEL_PROFILE_NOISE", "true")
	t.Setenv("EASEL_WORKERS", "3")
	t.Setenv("EASEL_OUTPUT_DIR", "/tmp/sensory")
	t.Setenv("EASEL_TEST_OUTPUT_DIR", "/tmp/tests")
	t.Setenv("EASEL_CROSSFADE", "750ms")
	t.Setenv("EASEL_LOG_FORMAT", "json")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, 0.5, cfg.Peak)
	assert.True(t, cfg.ProfileNoise)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/tmp/sensory", cfg.OutputDir)
	assert.Equal(t, "/tmp/tests", cfg.TestOutputDir)
	assert.Equal(t, 750*time.Millisecond, cfg.Crossfade)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestEnvInvalidNumberFails(t *testing.T) {
	t.Setenv("EASEL_WORKERS", "not-a-number")
	_, err := Load(New(), "")
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"seed: 42\npeak: 0.7\nramp_up: 1.5\nonly: edge-\ncrossfade: 500ms\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 0.7, cfg.Peak)
	assert.Equal(t, 1.5, cfg.RampUp)
	assert.Equal(t, 3.0, cfg.RampDown)
	assert.Equal(t, "edge-", cfg.Only)
	assert.Equal(t, 500*time.Millisecond, cfg.Crossfade)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "easel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 42\n"), 0o644))
	t.Setenv("EASEL_SEED", "7")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Seed)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestBindFlags(t *testing.T) {
	t.Setenv("EASEL_OUTPUT_DIR", "/from/env")

	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fs.String("output-dir", "", "")
	fs.Int("workers", 0, "")
	fs.Bool("dry-run", false, "") // not a config key
	v := New()
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--output-dir=/from/flag"}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.OutputDir)
	// Unset flags leave the default in place.
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.False(t, v.IsSet("dry_run"))
}

func TestValidate(t *testing.T) {
	base, err := Load(New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative sample rate", func(c *Config) { c.SampleRate = -1 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero peak", func(c *Config) { c.Peak = 0 }},
		{"peak above one", func(c *Config) { c.Peak = 1.01 }},
		{"negative ramp", func(c *Config) { c.RampDown = -1 }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"empty test output dir", func(c *Config) { c.TestOutputDir = "" }},
		{"negative crossfade", func(c *Config) { c.Crossfade = -time.Second }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}

	c := base
	c.Peak = 1
	assert.NoError(t, c.Validate(), "full-scale peak is allowed")
}

func TestInvalidEnvFailsLoad(t *testing.T) {
	t.Setenv("EASEL_SAMPLE_RATE", "0")
	_, err := Load(New(), "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSynthOptions(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	cfg.Seed = 5
	cfg.ProfileNoise = true

	opts := cfg.SynthOptions()
	assert.Equal(t, 48000, opts.SampleRate)
	assert.Equal(t, 0.85, opts.Peak)
	assert.Equal(t, uint64(5), opts.Seed)
	assert.True(t, opts.ProfileNoise)
	assert.Equal(t, 3.0, opts.RampUp)
}
