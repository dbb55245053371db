package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/james-see/autokalimba/pkg/kalimba"
)

// Wave maps a phase in [0, 1) to a sample in [-1, 1].
type Wave func(phase float64) float64

// Triangle is the default synth waveform
func Triangle(phase float64) float64 {
	return 2*math.Abs(2*phase-1) - 1
}

// Sine is a pure tone
func Sine(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

type oscillator struct {
	rate  float64
	freq  float64
	phase float64
	wave  Wave
}

func (o *oscillator) Stream(samples [][2]float64) (int, bool) {
	step := o.freq / o.rate
	for i := range samples {
		s := o.wave(o.phase)
		samples[i][0] = s
		samples[i][1] = s
		o.phase += step
		o.phase -= math.Floor(o.phase)
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

func (o *oscillator) setFrequency(freq float64) { o.freq = freq }

// Synth is a backend that plays oscillator voices.
type Synth struct {
	mix      *Mix
	register Register
	wave     Wave
}

// NewSynth creates a synth that adds voices to mix. A nil wave uses Triangle.
func NewSynth(mix *Mix, register Register, wave Wave) *Synth {
	if wave == nil {
		wave = Triangle
	}
	return &Synth{mix: mix, register: register, wave: wave}
}

// Start implements kalimba.Backend
func (s *Synth) Start(freq, gain float64, delay time.Duration, role kalimba.Role) (kalimba.Voice, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("synth: invalid frequency %v", freq)
	}
	osc := &oscillator{rate: float64(s.mix.Rate), freq: freq, wave: s.wave}
	v := newVoice(s.mix, osc, gain, delay)
	s.mix.add(v)
	return v, nil
}

// Remap implements kalimba.Backend
func (s *Synth) Remap(freq float64) float64 {
	return s.register.Fold(freq)
}

var (
	_ kalimba.Backend = (*Synth)(nil)
	_ kalimba.Backend = (*Sampler)(nil)
)
