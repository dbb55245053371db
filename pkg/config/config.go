// Package config loads autokalimba settings from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/strum"
)

// StenoConfig describes the steno keyboard device
type StenoConfig struct {
	Device     string `json:"device,omitempty"`
	ReportSize int    `json:"reportSize,omitempty"`
	ReportID   bool   `json:"reportId"`
}

// Config is everything the commands need to build a player
type Config struct {
	Settings   kalimba.Settings
	Instrument string
	SampleDir  string
	Volume     float64
	Latency    time.Duration
	// Keys overrides or adds key bindings on top of the defaults
	Keys  map[string]string
	Steno StenoConfig
}

// file is the on-disk representation; durations are strings like "40ms"
type file struct {
	LowestBassNote *int              `json:"lowestBassNote,omitempty"`
	StrumDelay     string            `json:"strumDelay,omitempty"`
	StrumStyle     *strum.Style      `json:"strumStyle,omitempty"`
	Instrument     string            `json:"instrument,omitempty"`
	SampleDir      string            `json:"sampleDir,omitempty"`
	Volume         *float64          `json:"volume,omitempty"`
	Latency        string            `json:"latency,omitempty"`
	Keys           map[string]string `json:"keys,omitempty"`
	Steno          *StenoConfig      `json:"steno,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Settings:   kalimba.DefaultSettings(),
		Instrument: "synth",
		SampleDir:  "instruments",
		Volume:     1,
		Latency:    20 * time.Millisecond,
		Steno: StenoConfig{
			ReportSize: 9,
			ReportID:   true,
		},
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "autokalimba"), nil
}

// Path returns the default settings file path
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load reads path over the defaults. An empty path reads the default location;
// a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.apply(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.LowestBassNote != nil {
		c.Settings.LowestBassNote = *f.LowestBassNote
	}
	if f.StrumDelay != "" {
		d, err := time.ParseDuration(f.StrumDelay)
		if err != nil {
			return fmt.Errorf("strumDelay: %w", err)
		}
		c.Settings.StrumDelay = d
	}
	if f.StrumStyle != nil {
		c.Settings.StrumStyle = *f.StrumStyle
	}
	if f.Instrument != "" {
		c.Instrument = f.Instrument
	}
	if f.SampleDir != "" {
		c.SampleDir = f.SampleDir
	}
	if f.Volume != nil {
		c.Volume = *f.Volume
	}
	if f.Latency != "" {
		d, err := time.ParseDuration(f.Latency)
		if err != nil {
			return fmt.Errorf("latency: %w", err)
		}
		c.Latency = d
	}
	if len(f.Keys) > 0 {
		c.Keys = f.Keys
	}
	if f.Steno != nil {
		c.Steno = *f.Steno
	}
	return c.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Settings.StrumDelay < 0 {
		return fmt.Errorf("strum delay must not be negative, got %v", c.Settings.StrumDelay)
	}
	if c.Volume < 0 {
		return fmt.Errorf("volume must not be negative, got %v", c.Volume)
	}
	if c.Latency <= 0 {
		return fmt.Errorf("latency must be positive, got %v", c.Latency)
	}
	if c.Steno.ReportSize < 0 {
		return fmt.Errorf("steno report size must not be negative, got %d", c.Steno.ReportSize)
	}
	return nil
}

// KeyBindings returns the default bindings with the configured overrides
// applied. Binding a key to an empty name removes it.
func (c *Config) KeyBindings() map[string]string {
	bindings := kalimba.DefaultKeyBindings()
	for k, v := range c.Keys {
		if v == "" {
			delete(bindings, k)
			continue
		}
		bindings[k] = v
	}
	return bindings
}

// InstrumentName normalizes the instrument name for lookups
func (c *Config) InstrumentName() string {
	return strings.ToLower(strings.TrimSpace(c.Instrument))
}
