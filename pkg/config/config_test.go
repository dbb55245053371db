package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/strum"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, kalimba.DefaultSettings(), cfg.Settings)
	assert.Equal(t, "synth", cfg.Instrument)
	assert.Equal(t, 1.0, cfg.Volume)
	assert.Equal(t, 9, cfg.Steno.ReportSize)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"lowestBassNote": -3,
		"strumDelay": "25ms",
		"strumStyle": "down",
		"instrument": "Piano",
		"volume": 0.5,
		"keys": {"v": "m7", "1": ""},
		"steno": {"device": "/dev/hidraw3", "reportSize": 8, "reportId": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, -3, cfg.Settings.LowestBassNote)
	assert.Equal(t, 25*time.Millisecond, cfg.Settings.StrumDelay)
	assert.Equal(t, strum.StyleDown, cfg.Settings.StrumStyle)
	assert.Equal(t, "piano", cfg.InstrumentName())
	assert.Equal(t, 0.5, cfg.Volume)
	assert.Equal(t, 20*time.Millisecond, cfg.Latency, "unset fields keep defaults")
	assert.Equal(t, StenoConfig{Device: "/dev/hidraw3", ReportSize: 8}, cfg.Steno)

	keys := cfg.KeyBindings()
	assert.Equal(t, "m7", keys["v"])
	_, ok := keys["1"]
	assert.False(t, ok, "empty binding removes the key")
	assert.Equal(t, "f", keys["2"])
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"lowestBassNote":`},
		{"negative delay", `{"strumDelay": "-5ms"}`},
		{"bad duration", `{"strumDelay": "soon"}`},
		{"bad style", `{"strumStyle": "sideways"}`},
		{"negative volume", `{"volume": -1}`},
		{"zero latency", `{"latency": "0s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("HOME", "/home/kal")
	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/home/kal/.config/autokalimba/settings.json", path)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	cfg := Default()
	cfg.Settings.LowestBassNote = -5
	cfg.Settings.StrumStyle = strum.StyleTimed
	cfg.Instrument = "rhodes"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaverDebounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewSaver(path, 20*time.Millisecond, nil)

	for i := range 5 {
		s.Update(kalimba.Settings{LowestBassNote: -i, StrumDelay: time.Millisecond, StrumStyle: strum.StyleUp})
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "saved before the delay")

	assert.Eventually(t, func() bool {
		cfg, err := Load(path)
		return err == nil && cfg.Settings.LowestBassNote == -4
	}, time.Second, 10*time.Millisecond)
}

func TestSaverFlushWithoutChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := NewSaver(path, time.Hour, nil)
	require.NoError(t, s.Flush())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing to save")

	s.Update(kalimba.Settings{LowestBassNote: 2})
	require.NoError(t, s.Flush())
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Settings.LowestBassNote)
}

func TestSaverKeepsFileFields(t *testing.T) {
	path := writeConfig(t, `{"instrument": "piano", "sampleDir": "/srv/samples", "strumDelay": "30ms"}`)
	s := NewSaver(path, time.Hour, nil)

	// a one-off --instrument override must not reach the file
	running, err := Load(path)
	require.NoError(t, err)
	running.Instrument = "rhodes"
	running.Settings.LowestBassNote = 1
	s.Update(running.Settings)
	require.NoError(t, s.Flush())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "piano", cfg.Instrument)
	assert.Equal(t, "/srv/samples", cfg.SampleDir)
	assert.Equal(t, 1, cfg.Settings.LowestBassNote)
	assert.Equal(t, 30*time.Millisecond, cfg.Settings.StrumDelay)
}
