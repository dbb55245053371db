package kalimba

import (
	"log/slog"
	"time"

	"github.com/james-see/autokalimba/pkg/strum"
	"github.com/james-see/autokalimba/pkg/voicing"
)

// Controller starts and stops targets and keeps sounding notes in tune with
// the musical context. It is not safe for concurrent use; see Player.
type Controller struct {
	registry   *Registry
	backend    Backend
	settings   Settings
	context    voicing.Context
	rng        strum.Source
	onChange   func(name string, active bool)
	onSettings func(Settings)
	logger     *slog.Logger
}

// NewController creates a controller over registry. A nil backend makes every
// target silent; a nil logger uses slog.Default().
func NewController(registry *Registry, backend Backend, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		registry: registry,
		backend:  backend,
		settings: settings,
		logger:   logger,
	}
}

// OnChange registers fn to be called whenever a target becomes active or idle.
func (c *Controller) OnChange(fn func(name string, active bool)) {
	c.onChange = fn
}

// SetRand sets the random source used for strum timing. nil uses the
// process-wide generator.
func (c *Controller) SetRand(rng strum.Source) {
	c.rng = rng
}

// OnSettings registers fn to be called after every SetSettings.
func (c *Controller) OnSettings(fn func(Settings)) {
	c.onSettings = fn
}

// Registry returns the registry the controller mutates
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Context returns a copy of the current musical context
func (c *Controller) Context() voicing.Context {
	return voicing.Context{
		Bass:  c.context.Bass,
		Chord: append([]int(nil), c.context.Chord...),
	}
}

// Settings returns the settings in effect
func (c *Controller) Settings() Settings {
	return c.settings
}

// SetSettings replaces the settings. Sounding bass notes glide to the new
// lowest bass note.
func (c *Controller) SetSettings(s Settings) {
	old := c.settings
	c.settings = s
	if old.LowestBassNote != s.LowestBassNote {
		c.glideBass(KindBass)
		c.glideBass(KindBassSplit)
	}
	if c.onSettings != nil {
		c.onSettings(s)
	}
}

// IsActive reports whether name is sounding
func (c *Controller) IsActive(name string) bool {
	return c.registry.IsActive(name)
}

// Start plays a target. It returns false, doing nothing, when the name is
// unknown or the target is already active.
func (c *Controller) Start(name string) bool {
	t, ok := c.registry.Get(name)
	if !ok || t.active {
		return false
	}

	switch t.Kind {
	case KindBass, KindBassSplit:
		c.context.Bass = t.Semitones[0]
		f := voicing.BassFrequency(c.context.Bass, t.Kind == KindBassSplit, c.context, c.settings.LowestBassNote)
		t.voices = []Voice{c.acquire(t.Name, f, bassGain, 0, RoleBass)}
		c.glideChords()
		c.glideBass(KindBassSplit)
	case KindChord:
		c.context.Chord = append([]int(nil), t.Semitones...)
		n := len(t.Semitones)
		t.voices = make([]Voice, n)
		for i, offset := range t.Semitones {
			f := voicing.ChordFrequency(offset, c.context, c.remap())
			delay := strum.Delay(i, n, c.settings.StrumStyle, c.settings.StrumDelay, c.rng)
			t.voices[i] = c.acquire(t.Name, f, chordGain, delay, RoleChord)
		}
		c.glideBass(KindBassSplit)
	}

	t.active = true
	c.logger.Debug("target started", "target", t.Name, "kind", t.Kind, "voices", len(t.Voices()))
	c.notify(t.Name, true)
	return true
}

// Stop releases every voice of a target. Stopping an unknown or idle target
// does nothing.
func (c *Controller) Stop(name string) {
	t, ok := c.registry.Get(name)
	if !ok || !t.active {
		return
	}
	for _, v := range t.voices {
		if v != nil {
			v.Stop()
		}
	}
	t.voices = nil
	t.active = false
	c.logger.Debug("target stopped", "target", t.Name)
	c.notify(t.Name, false)
}

// StopAll stops every active target.
func (c *Controller) StopAll() {
	for _, t := range c.registry.targets {
		if t.active {
			c.Stop(t.Name)
		}
	}
}

func (c *Controller) acquire(name string, freq, gain float64, delay time.Duration, role Role) Voice {
	if c.backend == nil {
		return nil
	}
	v, err := c.backend.Start(freq, gain, delay, role)
	if err != nil {
		c.logger.Warn("voice start failed", "target", name, "freq", freq, "err", err)
		return nil
	}
	return v
}

func (c *Controller) remap() func(float64) float64 {
	if c.backend == nil {
		return nil
	}
	return c.backend.Remap
}

// glideChords retunes sounding chords to the current bass root.
func (c *Controller) glideChords() {
	remap := c.remap()
	c.registry.each(KindChord, func(t *Target) {
		for i, v := range t.voices {
			if v != nil {
				v.SetFrequency(voicing.ChordFrequency(t.Semitones[i], c.context, remap))
			}
		}
	})
}

// glideBass retunes sounding bass targets of kind, which re-derives the split
// offset from the current chord.
func (c *Controller) glideBass(kind Kind) {
	c.registry.each(kind, func(t *Target) {
		f := voicing.BassFrequency(t.Semitones[0], kind == KindBassSplit, c.context, c.settings.LowestBassNote)
		for _, v := range t.voices {
			if v != nil {
				v.SetFrequency(f)
			}
		}
	})
}

func (c *Controller) notify(name string, active bool) {
	if c.onChange != nil {
		c.onChange(name, active)
	}
}
