package camera

import (
	"image"
	"image/color"
	"sync"
)

// Mock is an in-memory Opener and Device for tests and headless runs.
// Each Read returns a copy of Frame, or the next queued error.
type Mock struct {
	// Frame is returned by Read. nil means a solid gray frame at the
	// opened resolution.
	Frame *image.RGBA

	// OpenErr is returned by Open when set.
	OpenErr error

	mu       sync.Mutex
	errs     []error
	opened   Config
	opens    int
	reads    int
	closed   bool
	isOpened bool
}

// NewMock creates a mock camera returning frame.
func NewMock(frame *image.RGBA) *Mock {
	return &Mock{Frame: frame}
}

// Open records cfg and returns the mock itself as the device.
func (m *Mock) Open(cfg Config) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.opened = cfg
	m.closed = false
	m.isOpened = true
	return m, nil
}

// FailNext queues errors returned by the following Read calls.
func (m *Mock) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// Read returns a copy of the configured frame.
func (m *Mock) Read() (*image.RGBA, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.closed || !m.isOpened {
		return nil, ErrClosed
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	if m.Frame == nil {
		return grayFrame(m.opened.Width, m.opened.Height), nil
	}
	out := image.NewRGBA(m.Frame.Bounds())
	copy(out.Pix, m.Frame.Pix)
	return out, nil
}

// Close marks the device closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Opened returns the config passed to the last successful Open.
func (m *Mock) Opened() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Opens returns how many times Open was called.
func (m *Mock) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Reads returns how many times Read was called.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether the device was closed.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func grayFrame(w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		w, h = 64, 48
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, gray)
		}
	}
	return img
}

// Verify Mock implements Opener and Device at compile time.
var (
	_ Opener = (*Mock)(nil)
	_ Device = (*Mock)(nil)
)
