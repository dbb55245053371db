package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/james-see/autokalimba/pkg/kalimba"
)

const testRate = beep.SampleRate(1000)

func stream(m *Mix, n int) [][2]float64 {
	buf := make([][2]float64, n)
	m.Mixer.Stream(buf)
	return buf
}

// settle gives finished voices the extra pull the mixer needs to drop them
func settle(m *Mix) {
	stream(m, 8)
	stream(m, 8)
}

func TestRegisterFold(t *testing.T) {
	r := Register{Lo: 250, Hi: 650}
	tests := []struct {
		freq, expected float64
	}{
		{300, 300},
		{125, 250},
		{100, 400},
		{1300, 325},
		{650, 325},
		{649, 649},
	}
	for _, tt := range tests {
		if got := r.Fold(tt.freq); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Fold(%v) = %v, want %v", tt.freq, got, tt.expected)
		}
	}

	if got := (Register{}).Fold(123); got != 123 {
		t.Errorf("zero register Fold(123) = %v", got)
	}
	// narrower than an octave: stays at or above Lo
	if got := (Register{Lo: 300, Hi: 400}).Fold(700); got < 300 {
		t.Errorf("narrow register Fold(700) = %v, below Lo", got)
	}
}

func TestOscillator(t *testing.T) {
	o := &oscillator{rate: 1000, freq: 250, wave: Triangle}
	buf := make([][2]float64, 4)
	o.Stream(buf)
	want := []float64{1, 0, -1, 0}
	for i, w := range want {
		if math.Abs(buf[i][0]-w) > 1e-9 || buf[i][0] != buf[i][1] {
			t.Errorf("sample %d = %v, want %v on both channels", i, buf[i], w)
		}
	}

	o.setFrequency(500)
	o.Stream(buf[:2])
	if math.Abs(buf[0][0]-1) > 1e-9 || math.Abs(buf[1][0]+1) > 1e-9 {
		t.Errorf("after retune = %v, want [1 -1]", buf[:2])
	}
}

func TestSynthDelayAndGain(t *testing.T) {
	mix := NewMix(testRate)
	synth := NewSynth(mix, Register{}, nil)

	if _, err := synth.Start(100, 0.5, 10*time.Millisecond, kalimba.RoleChord); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	buf := stream(mix, 20)
	for i := 0; i < 10; i++ {
		if buf[i] != [2]float64{} {
			t.Fatalf("sample %d = %v before onset, want silence", i, buf[i])
		}
	}
	if math.Abs(buf[10][0]-0.5) > 1e-9 {
		t.Errorf("first sample after onset = %v, want 0.5", buf[10][0])
	}
}

func TestSynthVolume(t *testing.T) {
	mix := NewMix(testRate)
	mix.Volume = 0.5
	synth := NewSynth(mix, Register{}, nil)
	_, _ = synth.Start(100, 0.5, 0, kalimba.RoleBass)

	buf := stream(mix, 1)
	if math.Abs(buf[0][0]-0.25) > 1e-9 {
		t.Errorf("first sample = %v, want 0.25", buf[0][0])
	}
}

func TestSynthStopReleases(t *testing.T) {
	mix := NewMix(testRate)
	synth := NewSynth(mix, Register{}, Sine)
	v, err := synth.Start(50, 1, 0, kalimba.RoleBass)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	stream(mix, 10)

	v.Stop()
	v.Stop()
	if mix.Voices() != 1 {
		t.Fatalf("voice removed immediately on Stop")
	}

	buf := stream(mix, 300)
	peakEarly, peakLate := 0.0, 0.0
	for i := 0; i < 40; i++ {
		peakEarly = math.Max(peakEarly, math.Abs(buf[i][0]))
	}
	for i := 150; i < 200; i++ {
		peakLate = math.Max(peakLate, math.Abs(buf[i][0]))
	}
	if peakLate >= peakEarly/10 {
		t.Errorf("release did not decay: early peak %v, late peak %v", peakEarly, peakLate)
	}
	for i := 200; i < 300; i++ {
		if buf[i] != [2]float64{} {
			t.Fatalf("sample %d = %v after release, want silence", i, buf[i])
		}
	}
	settle(mix)
	if mix.Voices() != 0 {
		t.Errorf("Voices() = %d after release, want 0", mix.Voices())
	}
}

func TestSynthStopBeforeOnset(t *testing.T) {
	mix := NewMix(testRate)
	synth := NewSynth(mix, Register{}, nil)
	v, _ := synth.Start(100, 1, time.Second, kalimba.RoleChord)
	v.Stop()

	buf := stream(mix, 400)
	for i, s := range buf {
		if s != [2]float64{} {
			t.Fatalf("sample %d = %v, want silence", i, s)
		}
	}
	settle(mix)
	if mix.Voices() != 0 {
		t.Errorf("Voices() = %d, want 0", mix.Voices())
	}
}

func TestSynthRejectsBadFrequency(t *testing.T) {
	synth := NewSynth(NewMix(testRate), Register{}, nil)
	if _, err := synth.Start(0, 1, 0, kalimba.RoleBass); err == nil {
		t.Error("Start(0) should fail")
	}
}

// constStreamer yields n samples of value
type constStreamer struct {
	n     int
	value float64
}

func (c *constStreamer) Stream(samples [][2]float64) (int, bool) {
	if c.n <= 0 {
		return 0, false
	}
	k := len(samples)
	if k > c.n {
		k = c.n
	}
	for i := 0; i < k; i++ {
		samples[i] = [2]float64{c.value, c.value}
	}
	c.n -= k
	return k, true
}

func (c *constStreamer) Err() error { return nil }

func testBuffer(n int) *beep.Buffer {
	buf := beep.NewBuffer(beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2})
	buf.Append(&constStreamer{n: n, value: 0.5})
	return buf
}

func TestSamplerChoose(t *testing.T) {
	buf := testBuffer(10)
	s := NewSampler(NewMix(testRate), Register{}, []Sample{
		{Name: "low", Frequency: 110, Only: OnlyBass, Buffer: buf},
		{Name: "high", Frequency: 329, Only: OnlyChords, Buffer: buf},
		{Name: "mid", Frequency: 200, Buffer: buf},
	})

	tests := []struct {
		freq     float64
		role     kalimba.Role
		expected string
	}{
		{120, kalimba.RoleBass, "low"},
		{320, kalimba.RoleBass, "mid"},
		{120, kalimba.RoleChord, "mid"},
		{300, kalimba.RoleChord, "high"},
	}
	for _, tt := range tests {
		got, ok := s.choose(tt.freq, tt.role)
		if !ok || got.Name != tt.expected {
			t.Errorf("choose(%v, %v) = %q, want %q", tt.freq, tt.role, got.Name, tt.expected)
		}
	}
}

func TestSamplerFallsBackAcrossRoles(t *testing.T) {
	s := NewSampler(NewMix(testRate), Register{}, []Sample{
		{Name: "low", Frequency: 110, Only: OnlyBass, Buffer: testBuffer(10)},
	})
	got, ok := s.choose(440, kalimba.RoleChord)
	if !ok || got.Name != "low" {
		t.Errorf("choose() = %q, %v, want fallback to low", got.Name, ok)
	}
}

func TestSamplerNoSamples(t *testing.T) {
	s := NewSampler(NewMix(testRate), Register{}, nil)
	if _, err := s.Start(220, 1, 0, kalimba.RoleBass); !errors.Is(err, ErrNoSamples) {
		t.Errorf("Start() error = %v, want ErrNoSamples", err)
	}
}

func TestSamplerPlaysAndDrains(t *testing.T) {
	mix := NewMix(testRate)
	s := NewSampler(mix, Register{}, []Sample{{Name: "c", Frequency: 220, Buffer: testBuffer(100)}})

	v, err := s.Start(220, 1, 0, kalimba.RoleBass)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	buf := stream(mix, 50)
	// 16-bit buffer precision
	if math.Abs(buf[25][0]-0.5) > 1e-3 {
		t.Errorf("sample 25 = %v, want 0.5", buf[25][0])
	}

	v.SetFrequency(440)
	tone := v.(*voice).src.(*sampleTone)
	if math.Abs(tone.res.Ratio()-2) > 1e-9 {
		t.Errorf("ratio = %v after octave up, want 2", tone.res.Ratio())
	}

	stream(mix, 500)
	settle(mix)
	if mix.Voices() != 0 {
		t.Errorf("Voices() = %d after the sample ended, want 0", mix.Voices())
	}
}

func TestLoadSamplesMissingFile(t *testing.T) {
	_, err := LoadSamples(t.TempDir(), Instruments["piano"])
	if err == nil {
		t.Error("LoadSamples() should fail when files are missing")
	}
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(NewMix(testRate), Instruments["synth"], "")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if _, ok := b.(*Synth); !ok {
		t.Errorf("NewBackend(synth) = %T, want *Synth", b)
	}
	if got := b.Remap(1000); math.Abs(got-500) > 1e-9 {
		t.Errorf("Remap(1000) = %v, want 500", got)
	}

	if _, err := NewBackend(NewMix(testRate), Instruments["rhodes"], t.TempDir()); err == nil {
		t.Error("NewBackend(rhodes) without sample files should fail")
	}
}
