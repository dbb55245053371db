package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// tone is the raw pitched signal of a voice
type tone interface {
	beep.Streamer
	setFrequency(freq float64)
}

// voice applies onset delay, gain and release to a tone. It implements
// kalimba.Voice.
type voice struct {
	mix       *Mix
	src       tone
	gain      float64
	wait      int
	level     float64
	hold      int
	left      int
	decay     float64
	releasing bool
	finished  bool
}

func newVoice(mix *Mix, src tone, gain float64, delay time.Duration) *voice {
	wait := 0
	if delay > 0 {
		wait = mix.Rate.N(delay)
	}
	return &voice{
		mix:   mix,
		src:   src,
		gain:  gain * mix.Volume,
		wait:  wait,
		level: 1,
		decay: math.Exp(-1 / float64(mix.Rate.N(releaseConstant))),
	}
}

func (v *voice) SetFrequency(freq float64) {
	if freq <= 0 {
		return
	}
	v.mix.Lock.Lock()
	v.src.setFrequency(freq)
	v.mix.Lock.Unlock()
}

func (v *voice) Stop() {
	v.mix.Lock.Lock()
	defer v.mix.Lock.Unlock()
	if v.releasing {
		return
	}
	v.releasing = true
	v.hold = v.mix.Rate.N(releaseHold)
	v.left = v.mix.Rate.N(releaseTotal)
}

func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	if v.finished {
		return 0, false
	}
	for n < len(samples) && v.wait > 0 {
		if !v.tick() {
			return n, n > 0
		}
		samples[n] = [2]float64{}
		v.wait--
		n++
	}
	if n == len(samples) {
		return n, true
	}

	sn, sok := v.src.Stream(samples[n:])
	for i := 0; i < sn; i++ {
		if !v.tick() {
			return n + i, n+i > 0
		}
		g := v.gain * v.level
		samples[n+i][0] *= g
		samples[n+i][1] *= g
	}
	n += sn
	if !sok {
		v.finished = true
	}
	return n, n > 0 || !v.finished
}

func (v *voice) Err() error {
	return v.src.Err()
}

// tick advances the release envelope by one sample and reports whether the
// voice is still audible.
func (v *voice) tick() bool {
	if !v.releasing {
		return true
	}
	if v.left <= 0 {
		v.finished = true
		return false
	}
	v.left--
	if v.hold > 0 {
		v.hold--
	} else {
		v.level *= v.decay
	}
	return true
}
