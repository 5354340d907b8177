// Package webcam implements camera.Opener on top of OpenCV's VideoCapture.
package webcam

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/debug"
)

// Opener opens local capture devices by index.
type Opener struct{}

// Open starts capturing from cfg.Device and requests cfg's resolution and
// framerate. Drivers are free to ignore the requests.
func (Opener) Open(cfg camera.Config) (camera.Device, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", camera.ErrUnavailable, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d not opened", camera.ErrUnavailable, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	debug.Log("📷 Opened device %d (requested %dx%d, got %.0fx%.0f)\n",
		cfg.Device, cfg.Width, cfg.Height,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))

	return &Device{
		vc:     vc,
		mirror: cfg.Mirror,
		raw:    gocv.NewMat(),
		out:    gocv.NewMat(),
	}, nil
}

// Device is an open OpenCV capture.
type Device struct {
	vc     *gocv.VideoCapture
	mirror bool

	mu     sync.Mutex // Protects the Mats below
	raw    gocv.Mat
	out    gocv.Mat
	closed bool
}

// Read grabs one frame, mirrors it if configured, and converts it to RGBA.
// The returned image does not share memory with the device.
func (d *Device) Read() (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, camera.ErrClosed
	}
	if ok := d.vc.Read(&d.raw); !ok || d.raw.Empty() {
		return nil, camera.ErrRead
	}

	src := d.raw
	if d.mirror {
		gocv.Flip(d.raw, &d.out, 1)
		src = d.out
	}

	// ToImage reads 3-channel Mats as BGR
	img, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrRead, err)
	}
	return toRGBA(img), nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.raw.Close()
	d.out.Close()
	return d.vc.Close()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return rgba
}

// Verify Opener implements camera.Opener at compile time.
var _ camera.Opener = Opener{}
