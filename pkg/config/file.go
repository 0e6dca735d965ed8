package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Driver names recognised by the CLI.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Environment variables that override file values.
const (
	EnvWait     = "STEPWISE_WAIT"
	EnvInterval = "STEPWISE_INTERVAL"
	EnvDriver   = "STEPWISE_DRIVER"
	EnvHeadless = "STEPWISE_HEADLESS"
)

// File represents the on-disk configuration for a stepwise run.
type File struct {
	// Run settings
	Settings Settings `yaml:"settings" json:"settings"`

	// Browser driver selection
	Driver DriverConfig `yaml:"driver" json:"driver"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
}

// DriverConfig selects and configures the browser driver.
type DriverConfig struct {
	Name     string        `yaml:"name" json:"name"`
	Headless bool          `yaml:"headless" json:"headless"`
	Viewport Viewport      `yaml:"viewport" json:"viewport"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"` // per driver call

	// RemoteURL attaches to an already running browser (chromedp only).
	RemoteURL string `yaml:"remote_url" json:"remote_url"`
}

// Viewport is the initial browser window size.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File enables the diagnostic log file under ~/.stepwise/logs
	File bool `yaml:"file" json:"file"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Settings: DefaultSettings(),
		Driver: DriverConfig{
			Name:     DriverPlaywright,
			Headless: true,
			Viewport: Viewport{Width: 1280, Height: 720},
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
		Artifacts: ArtifactConfig{
			OutputDir: ".stepwise",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and applies
// environment overrides. An empty path yields the defaults.
func Load(path string) (File, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return File{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return File{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return File{}, err
	}
	cfg.Settings = cfg.Settings.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return File{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides values from the environment.
func (c *File) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWait); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", EnvWait, err)
		}
		c.Settings.Wait = d
	}
	if v, ok := lookup(EnvInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", EnvInterval, err)
		}
		c.Settings.Interval = d
	}
	if v, ok := lookup(EnvDriver); ok && v != "" {
		c.Driver.Name = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %w", EnvHeadless, err)
		}
		c.Driver.Headless = b
	}
	return nil
}

// Validate validates the configuration
func (c *File) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}

	switch c.Driver.Name {
	case DriverPlaywright, DriverChromedp:
	default:
		return fmt.Errorf("invalid driver: %s (must be '%s' or '%s')", c.Driver.Name, DriverPlaywright, DriverChromedp)
	}

	if c.Driver.Viewport.Width < 0 || c.Driver.Viewport.Height < 0 {
		return fmt.Errorf("viewport dimensions must not be negative")
	}

	switch c.Logging.Verbosity {
	case "", "quiet", "normal", "verbose", "debug":
	default:
		return fmt.Errorf("invalid verbosity: %s (must be 'quiet', 'normal', 'verbose' or 'debug')", c.Logging.Verbosity)
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}
	return nil
}
