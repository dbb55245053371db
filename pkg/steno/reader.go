package steno

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortReport is returned when a report holds fewer than four data bytes.
var ErrShortReport = errors.New("steno: report shorter than 4 bytes")

// DefaultReportSize is the Plover HID report length: a report id byte
// followed by a 64-bit key bitmap.
const DefaultReportSize = 9

// Reader reads fixed-size input reports from a keyboard.
type Reader struct {
	r     io.Reader
	size  int
	hasID bool
	buf   []byte
}

// NewReader creates a reader of size-byte reports. When hasID is set the first
// byte of each report is the report id and is skipped.
func NewReader(r io.Reader, size int, hasID bool) *Reader {
	if size <= 0 {
		size = DefaultReportSize
	}
	return &Reader{r: r, size: size, hasID: hasID, buf: make([]byte, size)}
}

// Next reads one report and returns its first 32 bits, big-endian.
func (r *Reader) Next() (uint32, error) {
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return 0, err
	}
	data := r.buf
	if r.hasID {
		data = data[1:]
	}
	if len(data) < 4 {
		return 0, ErrShortReport
	}
	return binary.BigEndian.Uint32(data), nil
}

// Listen calls handle for every report until the reader is exhausted, handle
// fails, or ctx is done. A clean end of input returns nil.
func (r *Reader) Listen(ctx context.Context, handle func(uint32) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		bits, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read steno report: %w", err)
		}
		if err := handle(bits); err != nil {
			return err
		}
	}
}
