// Package steno decodes reports from a Plover HID steno keyboard into key
// presses and releases.
package steno

// Plover HID identifiers
const (
	UsagePage = 0xff50
	Usage     = 0x4c56
)

// Keys is the number of meaningful bits in a report.
const Keys = 23

// Alphabet names the steno key behind each bit index.
const Alphabet = "STKPWHRAO*EUFRPBLGTSDZ#"

// DefaultBindings maps each steno key to a target: the left bank plays bass
// roots, the right bank split basses.
var DefaultBindings = []string{
	"db",   // S
	"bb",   // T
	"eb",   // K
	"c",    // P
	"f",    // W
	"d",    // H
	"g",    // R
	"a",    // A
	"e",    // O
	"b",    // *
	"s-3",  // -E
	"s-8",  // -U
	"s-5",  // -F
	"s-10", // -R
	"s-7",  // -P
	"s-0",  // -B
	"s-9",  // -L
	"s-2",  // -G
	"s-11", // -T
	"s-4",  // -S
	"s-1",  // -D
	"s-6",  // -Z
	"ab",   // #
}

// Sink receives decoded key events. The bit index is used as the pointer id.
type Sink interface {
	PointerDown(id int, target string) bool
	PointerUp(id int)
}

// Decoder turns successive report snapshots into edge events.
type Decoder struct {
	bindings []string
	sink     Sink
	last     uint32
}

// NewDecoder creates a decoder that forwards to sink. Bits without a binding
// are sent with an empty target name.
func NewDecoder(bindings []string, sink Sink) *Decoder {
	return &Decoder{
		bindings: append([]string(nil), bindings...),
		sink:     sink,
	}
}

// Process compares report with the previous one and emits a press for every
// newly set bit and a release for every newly cleared bit.
func (d *Decoder) Process(report uint32) {
	for i := 0; i < Keys; i++ {
		is := bit(report, i)
		was := bit(d.last, i)
		switch {
		case is && !was:
			d.sink.PointerDown(i, d.binding(i))
		case was && !is:
			d.sink.PointerUp(i)
		}
	}
	d.last = report
}

// Reset releases every key still down, as if an empty report arrived.
func (d *Decoder) Reset() {
	d.Process(0)
}

// Last returns the most recent report
func (d *Decoder) Last() uint32 {
	return d.last
}

// Chord renders the keys set in report in steno order, e.g. "STK".
func Chord(report uint32) string {
	var out []rune
	for i, r := range []rune(Alphabet) {
		if bit(report, i) {
			out = append(out, r)
		}
	}
	return string(out)
}

func (d *Decoder) binding(i int) string {
	if i < len(d.bindings) {
		return d.bindings[i]
	}
	return ""
}

// bit reads bit index i counted from the most significant bit.
func bit(report uint32, i int) bool {
	return (report>>(31-i))&1 == 1
}
