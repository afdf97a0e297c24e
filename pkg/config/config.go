// Package config loads the fixture tool's settings from defaults, an
// optional YAML file, and environment variable overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const DefaultFileName = "config.yaml"

// Config captures the user-adjustable knobs for fixture generation and
// validation.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envPrefix:"INPUTFIXTURE_"`
	Generate GenerateConfig `yaml:"generate" envPrefix:"INPUTFIXTURE_GENERATE_"`
	Validation ValidateConfig `yaml:"validate" envPrefix:"INPUTFIXTURE_VALIDATE_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"INPUTFIXTURE_LOG_"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-" env:"-"`
}

// PathsConfig controls filesystem locations used by the CLI.
type PathsConfig struct {
	FixturesDir string `yaml:"fixtures_dir" env:"FIXTURES_DIR"`
	CacheDir    string `yaml:"cache_dir" env:"CACHE_DIR"`
}

// GenerateConfig sets the default synthesis parameters.
type GenerateConfig struct {
	Scenario        string  `yaml:"scenario" env:"SCENARIO"`
	DurationSeconds int     `yaml:"duration_seconds" env:"DURATION_SECONDS"`
	SampleRateHz    int     `yaml:"sample_rate_hz" env:"SAMPLE_RATE_HZ"`
	CaptureWidth    int     `yaml:"capture_width" env:"CAPTURE_WIDTH"`
	CaptureHeight   int     `yaml:"capture_height" env:"CAPTURE_HEIGHT"`
	ScaleFactor     float64 `yaml:"scale_factor" env:"SCALE_FACTOR"`
}

// ValidateConfig sets the acceptance thresholds for log validation.
type ValidateConfig struct {
	MinDurationSeconds int `yaml:"min_duration_seconds" env:"MIN_DURATION_SECONDS"`
	MaxDriftMs         int `yaml:"max_drift_ms" env:"MAX_DRIFT_MS"`
	DefaultRateHz      int `yaml:"default_rate_hz" env:"DEFAULT_RATE_HZ"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			FixturesDir: "fixtures",
			CacheDir:    "cache",
		},
		Generate: GenerateConfig{
			Scenario:        "standard",
			DurationSeconds: 600,
			SampleRateHz:    60,
			CaptureWidth:    1920,
			CaptureHeight:   1080,
			ScaleFactor:     1.0,
		},
		Validation: ValidateConfig{
			MinDurationSeconds: 600,
			MaxDriftMs:         100,
			DefaultRateHz:      60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, applies environment
// variable overrides, and returns the result. When path is empty, the loader
// attempts to read ./config.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config file %q: %w", candidate, err)
		}
		cfg.Source = candidate
	case errors.Is(err, os.ErrNotExist):
		if explicit {
			return cfg, fmt.Errorf("config file %q not found", candidate)
		}
	default:
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("apply environment overrides: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.FixturesDir) == "" {
		return errors.New("paths.fixtures_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must not be empty")
	}

	if strings.TrimSpace(c.Generate.Scenario) == "" {
		return errors.New("generate.scenario must not be empty")
	}
	if c.Generate.DurationSeconds <= 0 {
		return errors.New("generate.duration_seconds must be positive")
	}
	if c.Generate.SampleRateHz <= 0 {
		return errors.New("generate.sample_rate_hz must be positive")
	}
	if c.Generate.CaptureWidth <= 0 || c.Generate.CaptureHeight <= 0 {
		return errors.New("generate capture dimensions must be positive")
	}
	if c.Generate.ScaleFactor <= 0 {
		return errors.New("generate.scale_factor must be positive")
	}

	if c.Validation.MinDurationSeconds <= 0 {
		return errors.New("validate.min_duration_seconds must be positive")
	}
	if c.Validation.MaxDriftMs <= 0 {
		return errors.New("validate.max_drift_ms must be positive")
	}
	if c.Validation.DefaultRateHz <= 0 {
		return errors.New("validate.default_rate_hz must be positive")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	return nil
}

func (c *Config) normalize() {
	c.Paths.FixturesDir = filepath.Clean(strings.TrimSpace(c.Paths.FixturesDir))
	c.Paths.CacheDir = filepath.Clean(strings.TrimSpace(c.Paths.CacheDir))

	defaults := Default()

	if c.Paths.FixturesDir == "." || c.Paths.FixturesDir == "" {
		c.Paths.FixturesDir = defaults.Paths.FixturesDir
	}
	if c.Paths.CacheDir == "." || c.Paths.CacheDir == "" {
		c.Paths.CacheDir = defaults.Paths.CacheDir
	}
	if strings.TrimSpace(c.Generate.Scenario) == "" {
		c.Generate.Scenario = defaults.Generate.Scenario
	}
	if c.Generate.DurationSeconds <= 0 {
		c.Generate.DurationSeconds = defaults.Generate.DurationSeconds
	}
	if c.Generate.SampleRateHz <= 0 {
		c.Generate.SampleRateHz = defaults.Generate.SampleRateHz
	}
	if c.Generate.CaptureWidth <= 0 {
		c.Generate.CaptureWidth = defaults.Generate.CaptureWidth
	}
	if c.Generate.CaptureHeight <= 0 {
		c.Generate.CaptureHeight = defaults.Generate.CaptureHeight
	}
	if c.Generate.ScaleFactor <= 0 {
		c.Generate.ScaleFactor = defaults.Generate.ScaleFactor
	}
	if c.Validation.MinDurationSeconds <= 0 {
		c.Validation.MinDurationSeconds = defaults.Validation.MinDurationSeconds
	}
	if c.Validation.MaxDriftMs <= 0 {
		c.Validation.MaxDriftMs = defaults.Validation.MaxDriftMs
	}
	if c.Validation.DefaultRateHz <= 0 {
		c.Validation.DefaultRateHz = defaults.Validation.DefaultRateHz
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// NormalizeLogLevel validates and lowercases known logging levels.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat validates and canonicalizes logging format identifiers.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
