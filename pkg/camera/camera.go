package camera

import (
	"errors"
	"image"
)

var (
	// ErrUnavailable is returned when the capture device cannot be opened.
	ErrUnavailable = errors.New("camera: unavailable")

	// ErrRead is returned when a frame cannot be read from an open device.
	ErrRead = errors.New("camera: read failed")

	// ErrClosed is returned when reading from a closed device.
	ErrClosed = errors.New("camera: device closed")

	// ErrInvalidConfig is returned when a config or preset is rejected.
	ErrInvalidConfig = errors.New("camera: invalid config")
)

// Opener opens capture devices.
type Opener interface {
	// Open starts capturing with cfg. Resolution settings are hints.
	Open(cfg Config) (Device, error)
}

// Device is an open capture device. Read returns a fresh frame the caller
// owns; the device never touches it again.
type Device interface {
	Read() (*image.RGBA, error)
	Close() error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(cfg Config) (Device, error)

// Open calls f(cfg).
func (f OpenerFunc) Open(cfg Config) (Device, error) {
	return f(cfg)
}
