// Package audio provides the sound backends behind kalimba voices: a
// synthesized oscillator and a sample player, both mixed through beep.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is used when the speaker is opened without a rate
const DefaultSampleRate = beep.SampleRate(44100)

// Release timings applied when a voice is stopped: it holds full level, then
// decays exponentially and is dropped from the mix.
const (
	releaseHold     = 50 * time.Millisecond
	releaseTotal    = 200 * time.Millisecond
	releaseConstant = 10 * time.Millisecond
)

// Mix is the shared mixer voices are added to. Lock guards every voice and
// the mixer against the goroutine that pulls audio.
type Mix struct {
	Rate   beep.SampleRate
	Mixer  *beep.Mixer
	Lock   sync.Locker
	Volume float64
}

// NewMix creates a mix that is streamed by the caller, guarded by a mutex.
func NewMix(rate beep.SampleRate) *Mix {
	return &Mix{
		Rate:   rate,
		Mixer:  &beep.Mixer{},
		Lock:   &sync.Mutex{},
		Volume: 1,
	}
}

type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// OpenSpeaker initializes the system audio device and starts playing a new
// mix on it.
func OpenSpeaker(rate beep.SampleRate, latency time.Duration) (*Mix, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if err := speaker.Init(rate, rate.N(latency)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	m := &Mix{
		Rate:   rate,
		Mixer:  &beep.Mixer{},
		Lock:   speakerLock{},
		Volume: 1,
	}
	speaker.Play(m.Mixer)
	return m, nil
}

// CloseSpeaker silences and shuts down the audio device.
func CloseSpeaker() {
	speaker.Clear()
	speaker.Close()
}

// Voices returns how many voices are still in the mix
func (m *Mix) Voices() int {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	return m.Mixer.Len()
}

func (m *Mix) add(v *voice) {
	m.Lock.Lock()
	m.Mixer.Add(v)
	m.Lock.Unlock()
}

// Register is the frequency band a backend plays chords in. Frequencies are
// moved by octaves until they fall inside [Lo, Hi).
type Register struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Fold moves freq into the register by whole octaves. A zero register leaves
// freq unchanged.
func (r Register) Fold(freq float64) float64 {
	if r.Lo <= 0 || r.Hi <= r.Lo || freq <= 0 {
		return freq
	}
	for freq < r.Lo {
		freq *= 2
	}
	for freq >= r.Hi && freq/2 >= r.Lo {
		freq /= 2
	}
	return freq
}
