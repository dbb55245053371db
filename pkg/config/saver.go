package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/james-see/autokalimba/pkg/kalimba"
)

// SaveDelay is how long settings must stay unchanged before they are written
const SaveDelay = 500 * time.Millisecond

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	style := cfg.Settings.StrumStyle
	lowest := cfg.Settings.LowestBassNote
	volume := cfg.Volume
	f := file{
		LowestBassNote: &lowest,
		StrumDelay:     cfg.Settings.StrumDelay.String(),
		StrumStyle:     &style,
		Instrument:     cfg.Instrument,
		SampleDir:      cfg.SampleDir,
		Volume:         &volume,
		Latency:        cfg.Latency.String(),
		Keys:           cfg.Keys,
		Steno:          &cfg.Steno,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}

// Saver writes settings changes back to the settings file once they settle.
// Only the settings are written; everything else in the file is kept as it
// is on disk, so command-line overrides never end up persisted.
type Saver struct {
	path      string
	mu        sync.Mutex
	settings  kalimba.Settings
	dirty     bool
	saving    sync.Mutex
	debounced func(func())
	logger    *slog.Logger
}

// NewSaver saves settings to the file at path, waiting wait after the last
// change.
func NewSaver(path string, wait time.Duration, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		path:      path,
		debounced: debounce.New(wait),
		logger:    logger,
	}
}

// Update records new settings and schedules a save. It matches the
// kalimba.Controller OnSettings signature.
func (s *Saver) Update(settings kalimba.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.dirty = true
	s.mu.Unlock()
	s.debounced(s.save)
}

// Flush writes pending changes immediately.
func (s *Saver) Flush() error {
	s.saving.Lock()
	defer s.saving.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	settings := s.settings
	s.dirty = false
	s.mu.Unlock()

	err := s.write(settings)
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
	return err
}

func (s *Saver) write(settings kalimba.Settings) error {
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	cfg.Settings = settings
	return Save(s.path, cfg)
}

func (s *Saver) save() {
	if err := s.Flush(); err != nil {
		s.logger.Warn("saving settings failed", "path", s.path, "err", err)
		return
	}
	s.logger.Debug("settings saved", "path", s.path)
}
