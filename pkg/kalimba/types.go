// Package kalimba holds the instrument core: the target catalog and its state
// machine, input arbitration, and the single goroutine that serializes both.
package kalimba

import (
	"errors"
	"fmt"
	"time"

	"github.com/james-see/autokalimba/pkg/strum"
)

// Kind identifies what a target plays
type Kind int

const (
	KindBass Kind = iota
	KindBassSplit
	KindChord
)

func (k Kind) String() string {
	switch k {
	case KindBass:
		return "bass"
	case KindBassSplit:
		return "split"
	case KindChord:
		return "chord"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindBass, KindBassSplit, KindChord} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown target kind %q", text)
}

// Role tells the backend which register a voice belongs to
type Role int

const (
	RoleBass Role = iota
	RoleChord
)

// Voice is one sounding note owned by a target.
type Voice interface {
	// SetFrequency retunes the note while it plays.
	SetFrequency(freq float64)
	// Stop releases the note. Called at most once.
	Stop()
}

// Backend produces voices. Implementations schedule onsets themselves and must
// not block the caller for delay.
type Backend interface {
	Start(freq, gain float64, delay time.Duration, role Role) (Voice, error)
	// Remap moves a chord frequency into a register the backend can play.
	Remap(freq float64) float64
}

// Settings are the user-facing knobs the core reads on every operation.
type Settings struct {
	LowestBassNote int           `json:"lowestBassNote"`
	StrumDelay     time.Duration `json:"strumDelay"`
	StrumStyle     strum.Style   `json:"strumStyle"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		LowestBassNote: -8,
		StrumDelay:     40 * time.Millisecond,
		StrumStyle:     strum.StyleUp,
	}
}

// KeyEvent is a key press or release from a computer keyboard.
type KeyEvent struct {
	Key    string
	Repeat bool
}

// ErrStopped is returned by Player methods once Run has exited.
var ErrStopped = errors.New("kalimba: player stopped")

const (
	bassGain  = 0.5
	chordGain = 0.2
)
