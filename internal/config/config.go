package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/satindergrewal/easel/internal/synth"
)

// EnvPrefix prefixes every environment override, e.g. EASEL_OUTPUT_DIR.
const EnvPrefix = "EASEL"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all runtime configuration. Values come from defaults, an
// optional YAML file, EASEL_* environment variables and command-line flags,
// in increasing order of precedence.
type Config struct {
	// Rendering
	SampleRate   int     `mapstructure:"sample_rate"`
	Seed         uint64  `mapstructure:"seed"`
	Peak         float64 `mapstructure:"peak"`
	RampUp       float64 `mapstructure:"ramp_up"`   // seconds
	RampDown     float64 `mapstructure:"ramp_down"` // seconds
	ProfileNoise bool    `mapstructure:"profile_noise"`
	Workers      int     `mapstructure:"workers"`
	Only         string  `mapstructure:"only"` // asset name prefix filter

	// Output layout
	OutputDir     string `mapstructure:"output_dir"`
	TestOutputDir string `mapstructure:"test_output_dir"`
	ManifestPath  string `mapstructure:"manifest_path"`
	MetricsFile   string `mapstructure:"metrics_file"`

	// Preview server
	PreviewAddr string        `mapstructure:"preview_addr"`
	Crossfade   time.Duration `mapstructure:"crossfade"`

	LogFormat string `mapstructure:"log_format"` // auto, console or json
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", 48000)
	v.SetDefault("seed", 1)
	v.SetDefault("peak", 0.85)
	v.SetDefault("ramp_up", synth.DefaultRamp)
	v.SetDefault("ramp_down", synth.DefaultRamp)
	v.SetDefault("profile_noise", false)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("only", "")

	v.SetDefault("output_dir", "assets/audio/sensory-tracks")
	v.SetDefault("test_output_dir", "assets/audio/test-profiles")
	v.SetDefault("manifest_path", "assets/audio/manifest.json")
	v.SetDefault("metrics_file", "")

	v.SetDefault("preview_addr", ":8090")
	v.SetDefault("crossfade", 2*time.Second)

	v.SetDefault("log_format", "auto")
}

// New returns a viper instance with defaults and environment overrides wired.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag whose name matches a config key. Flag names use
// dashes where keys use underscores (--output-dir binds output_dir).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnown(v, key) {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("bind flag --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

func isKnown(v *viper.Viper, key string) bool {
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no render can succeed with.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive, got %d", ErrInvalid, c.SampleRate)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.Peak <= 0 || c.Peak > 1:
		return fmt.Errorf("%w: peak must be in (0, 1], got %v", ErrInvalid, c.Peak)
	case c.RampUp < 0 || c.RampDown < 0:
		return fmt.Errorf("%w: ramps must not be negative", ErrInvalid)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	case c.TestOutputDir == "":
		return fmt.Errorf("%w: test_output_dir is empty", ErrInvalid)
	case c.Crossfade < 0:
		return fmt.Errorf("%w: crossfade must not be negative", ErrInvalid)
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("%w: log_format must be auto, console or json, got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// SynthOptions returns the synthesizer settings carried by c.
func (c Config) SynthOptions() synth.Options {
	return synth.Options{
		SampleRate:   c.SampleRate,
		Peak:         c.Peak,
		RampUp:       c.RampUp,
		RampDown:     c.RampDown,
		Seed:         c.Seed,
		ProfileNoise: c.ProfileNoise,
	}
}
