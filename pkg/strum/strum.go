// Package strum computes staggered onset delays for the notes of a chord.
package strum

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Style selects the strum algorithm
type Style int

const (
	StyleNone Style = iota
	StyleRandom
	StyleUp
	StyleDown
	StyleTimed
)

// Jitter is the relative random spread applied to Up, Down and Timed delays.
const Jitter = 0.115

var styleNames = []string{"none", "random", "up", "down", "timed"}

// Styles lists every style in cycling order
func Styles() []Style {
	return []Style{StyleNone, StyleRandom, StyleUp, StyleDown, StyleTimed}
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// Next returns the following style, wrapping around.
func (s Style) Next() Style {
	return Style((int(s) + 1) % len(styleNames))
}

// ParseStyle parses a style name, case-insensitively.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return StyleNone, fmt.Errorf("unknown strum style %q (want one of %s)", name, strings.Join(styleNames, ", "))
}

// MarshalText implements encoding.TextMarshaler
func (s Style) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(styleNames) {
		return nil, fmt.Errorf("invalid strum style %d", int(s))
	}
	return []byte(styleNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Source provides uniform random numbers in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Delay returns how long after the chord is triggered note index of count
// should start. A nil rng uses the process-wide generator.
//
// Down and Timed currently share the same factor.
func Delay(index, count int, style Style, strumDelay time.Duration, rng Source) time.Duration {
	if style == StyleNone || count <= 0 || strumDelay <= 0 {
		return 0
	}
	if rng == nil {
		rng = globalSource{}
	}

	position := float64(index) / float64(count)
	base := strumDelay.Seconds()

	var seconds float64
	switch style {
	case StyleRandom:
		seconds = base * position * rng.Float64()
	case StyleUp:
		seconds = base * position * jitter(rng)
	case StyleDown, StyleTimed:
		seconds = base * (1 - position) * jitter(rng)
	default:
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func jitter(rng Source) float64 {
	return 1 + (rng.Float64()*2-1)*Jitter
}
