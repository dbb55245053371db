package kalimba

import (
	"errors"
	"time"
)

type fakeVoice struct {
	freq    float64
	gain    float64
	delay   time.Duration
	role    Role
	retunes []float64
	stops   int
}

func (v *fakeVoice) SetFrequency(freq float64) {
	v.freq = freq
	v.retunes = append(v.retunes, freq)
}

func (v *fakeVoice) Stop() { v.stops++ }

// fakeBackend records every voice it hands out
type fakeBackend struct {
	voices []*fakeVoice
	fail   bool
	remap  func(float64) float64
}

func (b *fakeBackend) Start(freq, gain float64, delay time.Duration, role Role) (Voice, error) {
	if b.fail {
		return nil, errors.New("no audio device")
	}
	v := &fakeVoice{freq: freq, gain: gain, delay: delay, role: role}
	b.voices = append(b.voices, v)
	return v, nil
}

func (b *fakeBackend) Remap(freq float64) float64 {
	if b.remap != nil {
		return b.remap(freq)
	}
	return freq
}

// countingSwitch wraps a Switch and counts calls
type countingSwitch struct {
	inner  Switch
	starts map[string]int
	stops  map[string]int
}

func newCountingSwitch(inner Switch) *countingSwitch {
	return &countingSwitch{inner: inner, starts: map[string]int{}, stops: map[string]int{}}
}

func (c *countingSwitch) Start(name string) bool {
	c.starts[name]++
	return c.inner.Start(name)
}

func (c *countingSwitch) Stop(name string) {
	c.stops[name]++
	c.inner.Stop(name)
}

func newTestController(backend Backend) *Controller {
	return NewController(NewRegistry(Catalog()), backend, DefaultSettings(), nil)
}
