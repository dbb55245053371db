package kalimba

import "fmt"

// Entry is one line of a target catalog.
type Entry struct {
	Name      string
	Kind      Kind
	Semitones []int
}

// Bass roots in semitones above A, in the order of the bass grid.
var bassRoots = []struct {
	name     string
	semitone int
}{
	{"db", 4}, {"f", 8}, {"a", 0},
	{"ab", 11}, {"c", 3}, {"e", 7},
	{"eb", 6}, {"g", 10}, {"b", 2},
	{"bb", 1}, {"d", 5}, {"gb", 9},
}

// Chords in the order of the chord grid.
var chords = []Entry{
	{Name: "Δ9", Semitones: []int{7, 11, 14, 16}},
	{Name: "Δ", Semitones: []int{7, 11, 12, 16}},
	{Name: "6", Semitones: []int{7, 9, 12, 16}},
	{Name: "m9", Semitones: []int{7, 10, 12, 15}},
	{Name: "m7", Semitones: []int{7, 10, 14, 15}},
	{Name: "m6", Semitones: []int{7, 9, 12, 15}},
	{Name: "7s", Semitones: []int{7, 10, 12, 17}},
	{Name: "7", Semitones: []int{7, 10, 12, 16}},
	{Name: "ø", Semitones: []int{6, 10, 12, 15}},
	{Name: "7b9", Semitones: []int{7, 10, 13, 16}},
	{Name: "7#5", Semitones: []int{8, 10, 12, 16}},
	{Name: "o", Semitones: []int{6, 9, 12, 15}},
	{Name: "13s", Semitones: []int{10, 14, 17, 21}},
	{Name: "13", Semitones: []int{10, 14, 16, 21}},
	// listed low to high; strums 12 before 14
	{Name: "II/", Semitones: []int{9, 12, 14, 18}},
}

// ChordLabels maps chord target names to their display labels.
var ChordLabels = map[string]string{
	"7s":  "7sus4",
	"7b9": "7♭9",
	"7#5": "7♯5",
	"o":   "dim",
	"13s": "13sus",
}

// SplitName returns the target name of the split bass on a root semitone.
func SplitName(semitone int) string {
	return fmt.Sprintf("s-%d", ((semitone%12)+12)%12)
}

// BassNames returns the plain bass target names in grid order
func BassNames() []string {
	names := make([]string, len(bassRoots))
	for i, b := range bassRoots {
		names[i] = b.name
	}
	return names
}

// ChordNames returns the chord target names in grid order
func ChordNames() []string {
	names := make([]string, len(chords))
	for i, c := range chords {
		names[i] = c.Name
	}
	return names
}

// Catalog returns the full target catalog: 12 bass notes, their 12 split
// variants and the chord shapes.
func Catalog() []Entry {
	entries := make([]Entry, 0, 2*len(bassRoots)+len(chords))
	for _, b := range bassRoots {
		entries = append(entries, Entry{Name: b.name, Kind: KindBass, Semitones: []int{b.semitone}})
	}
	for _, b := range bassRoots {
		entries = append(entries, Entry{Name: SplitName(b.semitone), Kind: KindBassSplit, Semitones: []int{b.semitone}})
	}
	for _, c := range chords {
		entries = append(entries, Entry{Name: c.Name, Kind: KindChord, Semitones: c.Semitones})
	}
	return entries
}

// splitKeys maps a bass key to the key produced with shift held.
var splitKeys = map[string]string{
	"1": "!", "2": "@", "3": "#",
	"q": "Q", "w": "W", "e": "E",
	"a": "A", "s": "S", "d": "D",
	"z": "Z", "x": "X", "c": "C",
}

// DefaultKeyBindings maps computer keys to targets. The left hand plays the
// bass grid, shifted for split basses; the right hand plays the chord grid.
func DefaultKeyBindings() map[string]string {
	bassKeys := []string{"1", "2", "3", "q", "w", "e", "a", "s", "d", "z", "x", "c"}
	chordKeys := []string{"7", "8", "9", "u", "i", "o", "j", "k", "l", "m", ",", ".", "0", "p", ";"}

	bindings := make(map[string]string, 2*len(bassKeys)+len(chordKeys))
	for i, k := range bassKeys {
		bindings[k] = bassRoots[i].name
		bindings[splitKeys[k]] = SplitName(bassRoots[i].semitone)
	}
	for i, k := range chordKeys {
		bindings[k] = chords[i].Name
	}
	return bindings
}
