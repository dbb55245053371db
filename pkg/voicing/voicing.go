// Package voicing maps semitone offsets and the current musical context to frequencies.
package voicing

import (
	"fmt"
	"math"

	"gitlab.com/gomidi/midi/v2"
)

// ReferenceHz is the frequency of semitone 0 (A3).
const ReferenceHz = 220.0

// referenceNote is the MIDI key number of semitone 0.
const referenceNote = 57

// Context is the musical state that already-sounding notes depend on.
type Context struct {
	Bass  int   // semitone of the most recently played bass root
	Chord []int // offsets of the most recently played chord
}

// Frequency converts semitones from the reference to Hz using equal temperament.
func Frequency(semitone float64) float64 {
	return ReferenceHz * math.Pow(2, semitone/12)
}

// Semitones is the inverse of Frequency.
func Semitones(freq float64) float64 {
	return 12 * math.Log2(freq/ReferenceHz)
}

// Fold wraps value into [lowest, lowest+12).
func Fold(value, lowest int) int {
	return ((value-lowest)%12+12)%12 + lowest
}

// SplitOffset picks the interval the split bass sits below the root: a tritone
// when the chord contains a b5 or #5, a fourth otherwise.
func SplitOffset(chord []int) int {
	for _, s := range chord {
		m := ((s % 12) + 12) % 12
		if m == 6 || m == 8 {
			return -6
		}
	}
	return -5
}

// BassSemitone returns the folded semitone a bass root sounds at.
func BassSemitone(root int, split bool, ctx Context, lowest int) int {
	offset := 0
	if split {
		offset = SplitOffset(ctx.Chord)
	}
	return Fold(root+offset, lowest)
}

// BassFrequency returns the frequency of a bass root, folded into the octave
// above lowest.
func BassFrequency(root int, split bool, ctx Context, lowest int) float64 {
	return Frequency(float64(BassSemitone(root, split, ctx, lowest)))
}

// ChordFrequency returns the frequency of a chord offset above the current bass.
// remap lets the sound backend move the note to a register it can play; nil
// leaves the frequency alone.
func ChordFrequency(offset int, ctx Context, remap func(float64) float64) float64 {
	f := Frequency(float64(ctx.Bass + offset))
	if remap != nil {
		f = remap(f)
	}
	return f
}

// NoteName returns a display name such as "C4" for a semitone offset from A3.
func NoteName(semitone int) string {
	key := referenceNote + semitone
	if key < 0 || key > 127 {
		return fmt.Sprintf("?%d", semitone)
	}
	n := midi.Note(uint8(key))
	return fmt.Sprintf("%s%d", n.Name(), key/12-1)
}
