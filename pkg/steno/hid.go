package steno

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sstallion/go-hid"
)

// AutoDevice asks Open to find the keyboard instead of naming a device.
const AutoDevice = "auto"

// PollInterval bounds how long a read blocks before ctx is checked again.
const PollInterval = 100 * time.Millisecond

// ErrNoKeyboard is returned when no connected HID device is a steno keyboard.
var ErrNoKeyboard = errors.New("steno: no Plover HID keyboard found")

// DeviceInfo describes one HID interface.
type DeviceInfo struct {
	Path      string
	Product   string
	UsagePage uint16
	Usage     uint16
}

// IsSteno reports whether the interface speaks Plover HID.
func (d DeviceInfo) IsSteno() bool {
	return d.UsagePage == UsagePage && d.Usage == Usage
}

func fromHID(info *hid.DeviceInfo) DeviceInfo {
	return DeviceInfo{
		Path:      info.Path,
		Product:   info.ProductStr,
		UsagePage: info.UsagePage,
		Usage:     info.Usage,
	}
}

// Enumerate lists the connected HID interfaces.
func Enumerate() ([]DeviceInfo, error) {
	var devices []DeviceInfo
	err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		devices = append(devices, fromHID(info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate hid devices: %w", err)
	}
	return devices, nil
}

// FindKeyboard returns the first steno keyboard among devices.
func FindKeyboard(devices []DeviceInfo) (DeviceInfo, error) {
	for _, d := range devices {
		if d.IsSteno() {
			return d, nil
		}
	}
	return DeviceInfo{}, ErrNoKeyboard
}

// Discover finds a connected steno keyboard.
func Discover() (DeviceInfo, error) {
	devices, err := Enumerate()
	if err != nil {
		return DeviceInfo{}, err
	}
	return FindKeyboard(devices)
}

type timedReader interface {
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
}

// pollReader turns timed reads into an io.Reader that reports io.EOF once
// ctx is done.
type pollReader struct {
	ctx  context.Context
	r    timedReader
	poll time.Duration
}

func (p *pollReader) Read(b []byte) (int, error) {
	for {
		if p.ctx.Err() != nil {
			return 0, io.EOF
		}
		n, err := p.r.ReadWithTimeout(b, p.poll)
		if errors.Is(err, hid.ErrTimeout) || (err == nil && n == 0) {
			continue
		}
		return n, err
	}
}

// Keyboard is an open steno keyboard. Reads end with io.EOF when the context
// given to Open is done.
type Keyboard struct {
	Info DeviceInfo
	dev  *hid.Device
	r    *pollReader
}

// Open opens the keyboard at path, or discovers one when path is AutoDevice
// or empty.
func Open(ctx context.Context, path string) (*Keyboard, error) {
	info := DeviceInfo{Path: path, UsagePage: UsagePage, Usage: Usage}
	if path == "" || path == AutoDevice {
		var err error
		if info, err = Discover(); err != nil {
			return nil, err
		}
	}
	dev, err := hid.OpenPath(info.Path)
	if err != nil {
		return nil, fmt.Errorf("open steno device %s: %w", info.Path, err)
	}
	return &Keyboard{
		Info: info,
		dev:  dev,
		r:    &pollReader{ctx: ctx, r: dev, poll: PollInterval},
	}, nil
}

func (k *Keyboard) Read(p []byte) (int, error) {
	return k.r.Read(p)
}

// Close releases the device.
func (k *Keyboard) Close() error {
	return k.dev.Close()
}
