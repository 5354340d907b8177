// Package preprocess crops and normalizes face images before they are
// handed to the expression classifier.
package preprocess

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
)

// ErrEmptyCrop is returned when asked to normalize a zero-area image.
var ErrEmptyCrop = errors.New("preprocess: empty crop")

// Config holds the normalization parameters.
type Config struct {
	Size       int     // Output is Size x Size pixels
	Contrast   float64 // Per-channel gain
	Brightness float64 // Per-channel offset, applied after gain
}

// DefaultConfig returns the tuning the expression model was validated with:
// 224x224, gain 1.2, offset +15. The model degrades sharply on other input
// sizes, and the lift helps in dim rooms.
func DefaultConfig() Config {
	return Config{
		Size:       224,
		Contrast:   1.2,
		Brightness: 15,
	}
}

// Crop returns the part of frame covered by box, clipped to the frame.
// The box is in frame pixels relative to frame.Bounds().Min. ok is false
// when nothing of the box lies inside the frame.
func Crop(frame image.Image, box emotion.FaceBox) (img *image.NRGBA, ok bool) {
	if box.Area() == 0 {
		return nil, false
	}
	b := frame.Bounds()
	r := box.Rect().Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(frame, r), true
}

// Face resizes img to cfg.Size square and applies
// out = clip(round(in*Contrast + Brightness), 0, 255) to each color channel.
// Alpha is preserved.
func Face(img image.Image, cfg Config) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyCrop
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}

	resized := imaging.Resize(img, cfg.Size, cfg.Size, imaging.Linear)
	return Adjust(resized, cfg.Contrast, cfg.Brightness), nil
}

// Adjust applies the linear gain/offset transform without resizing.
func Adjust(img image.Image, contrast, brightness float64) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clip(float64(i)*contrast + brightness)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

func clip(v float64) uint8 {
	v = math.RoundToEven(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
