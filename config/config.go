// Package config loads the optional keypacer.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"KeyPacer/i18n"
	"KeyPacer/input"
	"KeyPacer/pacer"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing file is not an error.
const DefaultPath = "keypacer.yaml"

// Environment overrides.
const (
	EnvKey    = "KEYPACER_KEY"
	EnvPrompt = "KEYPACER_PROMPT"
)

// Prompt backends.
const (
	PromptConsole = "console"
	PromptDialog  = "dialog"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all KeyPacer configuration.
type Config struct {
	Key      string         `yaml:"key"`
	DryRun   bool           `yaml:"dry_run"`
	Prompt   string         `yaml:"prompt"` // console, dialog
	Lang     string         `yaml:"lang"`
	Hotkeys  bool           `yaml:"hotkeys"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Sound    SoundConfig    `yaml:"sound"`
	Control  ControlConfig  `yaml:"control"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultsConfig overrides the compiled-in pacing parameters.
type DefaultsConfig struct {
	BaseIntervalMs int     `yaml:"base_interval_ms"`
	SlowDownFactor float64 `yaml:"slow_down_factor"`
	SpeedUpFactor  float64 `yaml:"speed_up_factor"`
	RoundBudget    int     `yaml:"round_budget"`
}

// SoundConfig configures the cue played when a run ends on its own.
type SoundConfig struct {
	Enabled     bool `yaml:"enabled"`
	FrequencyHz int  `yaml:"frequency_hz"`
	DurationMs  int  `yaml:"duration_ms"`
}

// ControlConfig configures the HTTP control endpoint. Empty Listen disables it.
type ControlConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	p := pacer.DefaultParams()
	return &Config{
		Key:     input.DefaultKey,
		Prompt:  PromptConsole,
		Hotkeys: true,
		Defaults: DefaultsConfig{
			BaseIntervalMs: int(p.BaseInterval.Milliseconds()),
			SlowDownFactor: p.SlowDownFactor,
			SpeedUpFactor:  p.SpeedUpFactor,
			RoundBudget:    p.RoundBudget,
		},
		Sound: SoundConfig{
			Enabled:     true,
			FrequencyHz: 880,
			DurationMs:  250,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and validates
// the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvKey); v != "" {
		c.Key = v
	}
	if v := os.Getenv(EnvPrompt); v != "" {
		c.Prompt = v
	}
	if v := os.Getenv(i18n.EnvLang); v != "" {
		c.Lang = v
	}
}

// Validate normalizes enumerations in place and checks every field that would
// otherwise fail later at runtime.
func (c *Config) Validate() error {
	c.Prompt = strings.ToLower(strings.TrimSpace(c.Prompt))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	var errs []error
	if key, err := input.NormalizeKey(c.Key); err != nil {
		errs = append(errs, err)
	} else {
		c.Key = key
	}
	if c.Prompt != PromptConsole && c.Prompt != PromptDialog {
		errs = append(errs, fmt.Errorf("prompt %q (valid: %s, %s)", c.Prompt, PromptConsole, PromptDialog))
	}
	if _, err := pacer.IntervalFromMillis(c.Defaults.BaseIntervalMs); err != nil {
		errs = append(errs, fmt.Errorf("defaults.base_interval_ms: %w", err))
	} else if err := c.Params().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if c.Sound.Enabled && (c.Sound.FrequencyHz <= 0 || c.Sound.DurationMs <= 0) {
		errs = append(errs, errors.New("sound: frequency_hz and duration_ms must be greater than zero"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Params converts the configured defaults into store parameters.
func (c *Config) Params() pacer.Params {
	base := time.Duration(c.Defaults.BaseIntervalMs) * time.Millisecond
	return pacer.Params{
		BaseInterval:    base,
		CurrentInterval: base,
		SlowDownFactor:  c.Defaults.SlowDownFactor,
		SpeedUpFactor:   c.Defaults.SpeedUpFactor,
		RoundBudget:     c.Defaults.RoundBudget,
	}
}

// SoundDuration is the cue length.
func (c *Config) SoundDuration() time.Duration {
	return time.Duration(c.Sound.DurationMs) * time.Millisecond
}
