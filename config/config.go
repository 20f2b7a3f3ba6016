// Package config loads the countdown configuration file.
//
// The file is chosen by the --config flag or the COUNTDOWN_CONFIG
// environment variable. There is no automatic discovery: without
// either, the defaults apply unchanged.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	countdown "github.com/d093w1z/countdown/api"
)

const (
	// EnvConfig names the config file when no --config flag is given.
	EnvConfig = "COUNTDOWN_CONFIG"
	// EnvPipe overrides polybar.pipe.
	EnvPipe = "COUNTDOWN_PIPE"
)

// Config is the full countdown configuration.
type Config struct {
	// Duration is the countdown length, in whole seconds.
	// Default: 25m
	Duration Duration `yaml:"duration"`

	// Format is "hh:mm:ss" or "mm:ss".
	// Default: mm:ss
	Format string `yaml:"format"`

	// Step is how much inc/dec change the duration.
	// Default: 5s
	Step Duration `yaml:"step"`

	Polybar PolybarConfig `yaml:"polybar"`
	Sound   SoundConfig   `yaml:"sound"`
}

// PolybarConfig configures the status-bar driver.
type PolybarConfig struct {
	Enabled bool `yaml:"enabled"`

	// Pipe is the FIFO base path; the PID is appended to it.
	// Default: /tmp/countdown.pipe
	Pipe string `yaml:"pipe"`
}

// SoundConfig configures the completion chime.
type SoundConfig struct {
	Enabled bool `yaml:"enabled"`

	// Frequency of the chime in Hz.
	// Default: 880
	Frequency float64 `yaml:"frequency"`

	// Length of the chime.
	// Default: 600ms
	Length Duration `yaml:"length"`
}

// Duration is a time.Duration read from a Go duration string such as
// "25m" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Seconds truncates d to whole seconds.
func (d Duration) Seconds() int {
	return int(time.Duration(d) / time.Second)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Duration: Duration(25 * time.Minute),
		Format:   string(countdown.FormatMMSS),
		Step:     Duration(5 * time.Second),
		Polybar: PolybarConfig{
			Pipe: "/tmp/countdown.pipe",
		},
		Sound: SoundConfig{
			Frequency: 880,
			Length:    Duration(600 * time.Millisecond),
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path falls back to EnvConfig, and then to the defaults alone.
// EnvPipe, when set, overrides polybar.pipe.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if pipe := os.Getenv(EnvPipe); pipe != "" {
		cfg.Polybar.Pipe = pipe
	}

	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field a frontend depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Duration < 0 {
		errs = append(errs, errors.New("duration must not be negative"))
	}
	if _, err := countdown.ParseFormat(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	if c.Step.Seconds() <= 0 {
		errs = append(errs, errors.New("step must be at least 1s"))
	}
	if c.Polybar.Enabled && c.Polybar.Pipe == "" {
		errs = append(errs, errors.New("polybar.pipe is required when polybar is enabled"))
	}
	if c.Sound.Enabled {
		if c.Sound.Frequency <= 0 {
			errs = append(errs, errors.New("sound.frequency must be positive"))
		}
		if c.Sound.Length <= 0 {
			errs = append(errs, errors.New("sound.length must be positive"))
		}
	}
	return errors.Join(errs...)
}

// TimerFormat returns the validated display format.
func (c *Config) TimerFormat() countdown.Format {
	f, err := countdown.ParseFormat(c.Format)
	if err != nil {
		return countdown.FormatMMSS
	}
	return f
}
