package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/strum"
	"github.com/james-see/autokalimba/pkg/voicing"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0B050")).Padding(0, 1)
var rowStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return rowStyle
		})
}

// targetTable lists every target with the notes it plays. Split basses are
// shown without a chord context and chords over root.
func targetTable(s kalimba.Settings, root string, remap func(float64) float64) (string, error) {
	entries := kalimba.Catalog()
	rootSemitone := -1
	for _, e := range entries {
		if e.Kind == kalimba.KindBass && e.Name == root {
			rootSemitone = e.Semitones[0]
		}
	}
	if rootSemitone < 0 {
		return "", fmt.Errorf("unknown bass root %q", root)
	}

	t := newTable("TARGET", "KIND", "NOTES", "HZ")
	for _, e := range entries {
		var notes, freqs []string
		switch e.Kind {
		case kalimba.KindBass, kalimba.KindBassSplit:
			r := e.Semitones[0]
			split := e.Kind == kalimba.KindBassSplit
			ctx := voicing.Context{Bass: r}
			notes = append(notes, voicing.NoteName(voicing.BassSemitone(r, split, ctx, s.LowestBassNote)))
			freqs = append(freqs, fmt.Sprintf("%.2f", voicing.BassFrequency(r, split, ctx, s.LowestBassNote)))
		case kalimba.KindChord:
			ctx := voicing.Context{Bass: rootSemitone, Chord: e.Semitones}
			for _, off := range e.Semitones {
				f := voicing.ChordFrequency(off, ctx, remap)
				notes = append(notes, voicing.NoteName(int(math.Round(voicing.Semitones(f)))))
				freqs = append(freqs, fmt.Sprintf("%.2f", f))
			}
		}
		name := e.Name
		if l, ok := kalimba.ChordLabels[name]; ok {
			name = fmt.Sprintf("%s (%s)", name, l)
		}
		t.Row(name, e.Kind.String(), strings.Join(notes, " "), strings.Join(freqs, " "))
	}
	return t.Render(), nil
}

// strumTable shows the onset delay of each note of a count-note chord
func strumTable(style strum.Style, count int, delay time.Duration, rng strum.Source) string {
	t := newTable("NOTE", "DELAY")
	for i := range count {
		d := strum.Delay(i, count, style, delay, rng)
		t.Row(fmt.Sprintf("%d", i+1), d.Round(100*time.Microsecond).String())
	}
	return fmt.Sprintf("strum %s over %v\n%s", style, delay, t.Render())
}
