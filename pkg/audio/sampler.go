package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/james-see/autokalimba/pkg/kalimba"
)

// ErrNoSamples is returned when a sampler has nothing to play.
var ErrNoSamples = errors.New("audio: no samples loaded")

// Sample restrictions
const (
	OnlyBass   = "bass"
	OnlyChords = "chords"
)

const resampleQuality = 4

// Sample is a recorded note and the frequency it was recorded at.
type Sample struct {
	Name      string
	Frequency float64
	Only      string
	Buffer    *beep.Buffer
}

func (s Sample) allows(role kalimba.Role) bool {
	switch s.Only {
	case OnlyBass:
		return role == kalimba.RoleBass
	case OnlyChords:
		return role == kalimba.RoleChord
	default:
		return true
	}
}

type sampleTone struct {
	res  *beep.Resampler
	base float64
	// scale converts the sample's rate to the mix rate
	scale float64
}

func (t *sampleTone) Stream(samples [][2]float64) (int, bool) { return t.res.Stream(samples) }

func (t *sampleTone) Err() error { return t.res.Err() }

func (t *sampleTone) setFrequency(freq float64) {
	t.res.SetRatio(freq / t.base * t.scale)
}

// Sampler is a backend that repitches the recorded sample closest to each
// requested frequency.
type Sampler struct {
	mix      *Mix
	register Register
	samples  []Sample
}

// NewSampler creates a sampler over samples.
func NewSampler(mix *Mix, register Register, samples []Sample) *Sampler {
	return &Sampler{mix: mix, register: register, samples: samples}
}

// Start implements kalimba.Backend
func (s *Sampler) Start(freq, gain float64, delay time.Duration, role kalimba.Role) (kalimba.Voice, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("sampler: invalid frequency %v", freq)
	}
	sample, ok := s.choose(freq, role)
	if !ok {
		return nil, ErrNoSamples
	}
	scale := float64(sample.Buffer.Format().SampleRate) / float64(s.mix.Rate)
	t := &sampleTone{
		res:   beep.ResampleRatio(resampleQuality, freq/sample.Frequency*scale, sample.Buffer.Streamer(0, sample.Buffer.Len())),
		base:  sample.Frequency,
		scale: scale,
	}
	v := newVoice(s.mix, t, gain, delay)
	s.mix.add(v)
	return v, nil
}

// Remap implements kalimba.Backend
func (s *Sampler) Remap(freq float64) float64 {
	return s.register.Fold(freq)
}

// choose picks the sample nearest to freq that may play role, falling back to
// the nearest sample of any role.
func (s *Sampler) choose(freq float64, role kalimba.Role) (Sample, bool) {
	best, found := nearest(s.samples, freq, func(x Sample) bool { return x.allows(role) })
	if !found {
		best, found = nearest(s.samples, freq, func(Sample) bool { return true })
	}
	return best, found
}

func nearest(samples []Sample, freq float64, allow func(Sample) bool) (Sample, bool) {
	var best Sample
	found := false
	bestDiff := math.Inf(1)
	for _, x := range samples {
		if x.Buffer == nil || x.Frequency <= 0 || !allow(x) {
			continue
		}
		if d := math.Abs(freq - x.Frequency); d < bestDiff {
			best, bestDiff, found = x, d, true
		}
	}
	return best, found
}

// SampleSpec describes a sample file of an instrument.
type SampleSpec struct {
	File      string  `json:"file"`
	Frequency float64 `json:"frequency"`
	Only      string  `json:"only,omitempty"`
}

// Instrument is a named sound: either a sample set or, with no samples, the
// synth.
type Instrument struct {
	Name     string       `json:"name"`
	Register Register     `json:"register"`
	Samples  []SampleSpec `json:"samples,omitempty"`
}

// Instruments are the built-in sounds, keyed by lower-case name.
var Instruments = map[string]Instrument{
	"synth": {
		Name:     "Synth",
		Register: Register{Lo: 250, Hi: 650},
	},
	"piano": {
		Name:     "Piano",
		Register: Register{Lo: 250, Hi: 650},
		Samples: []SampleSpec{
			{File: "piano-cs3.wav", Frequency: 138.59},
			{File: "piano-f4.wav", Frequency: 698.46 / 2},
		},
	},
	"rhodes": {
		Name:     "Rhodes",
		Register: Register{Lo: 250, Hi: 650},
		Samples: []SampleSpec{
			{File: "rhodes-low.wav", Frequency: 110, Only: OnlyBass},
			{File: "rhodes-high.wav", Frequency: 329, Only: OnlyChords},
		},
	},
}

// LoadSamples decodes the WAV files of inst from dir.
func LoadSamples(dir string, inst Instrument) ([]Sample, error) {
	samples := make([]Sample, 0, len(inst.Samples))
	for _, spec := range inst.Samples {
		buf, err := loadWAV(filepath.Join(dir, spec.File))
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{
			Name:      spec.File,
			Frequency: spec.Frequency,
			Only:      spec.Only,
			Buffer:    buf,
		})
	}
	return samples, nil
}

func loadWAV(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return buf, nil
}

// NewBackend builds the backend for inst: a sampler loading from dir when the
// instrument has samples, the synth otherwise.
func NewBackend(mix *Mix, inst Instrument, dir string) (kalimba.Backend, error) {
	if len(inst.Samples) == 0 {
		return NewSynth(mix, inst.Register, nil), nil
	}
	samples, err := LoadSamples(dir, inst)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", inst.Name, err)
	}
	return NewSampler(mix, inst.Register, samples), nil
}
