package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/teslashibe/go-emoscan/pkg/emotion"
)

var black = color.RGBA{A: 255}

func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, black)
		}
	}
	return img
}

func TestBox_Outline(t *testing.T) {
	frame := newFrame(100, 100)
	box := emotion.FaceBox{X: 20, Y: 20, Width: 40, Height: 40}
	style := DefaultStyle()
	style.Draw(frame, box)

	corners := []image.Point{{20, 20}, {60, 20}, {20, 60}, {60, 60}}
	for _, p := range corners {
		if got := frame.RGBAAt(p.X, p.Y); got != style.BoxColor {
			t.Errorf("corner %v: got %v, want box color", p, got)
		}
	}

	// Pixels outside the box are untouched
	for _, p := range []image.Point{{19, 19}, {61, 40}, {40, 61}, {0, 0}} {
		if got := frame.RGBAAt(p.X, p.Y); got != black {
			t.Errorf("outside %v: got %v, want untouched", p, got)
		}
	}
}

func TestBox_Grid(t *testing.T) {
	frame := newFrame(100, 100)
	box := emotion.FaceBox{X: 0, Y: 0, Width: 80, Height: 40}
	style := DefaultStyle()
	style.Draw(frame, box)

	// Interior vertical lines at x = 20, 40, 60; horizontal at y = 10, 20, 30
	for _, x := range []int{20, 40, 60} {
		if got := frame.RGBAAt(x, 5); got != style.GridColor {
			t.Errorf("vertical line x=%d: got %v", x, got)
		}
	}
	for _, y := range []int{10, 20, 30} {
		if got := frame.RGBAAt(5, y); got != style.GridColor {
			t.Errorf("horizontal line y=%d: got %v", y, got)
		}
	}

	// Cell interiors stay clear
	if got := frame.RGBAAt(30, 15); got != black {
		t.Errorf("cell interior: got %v, want untouched", got)
	}
}

func TestBox_ClipsToFrame(t *testing.T) {
	frame := newFrame(30, 30)
	// Must not panic when the box spills over the frame edge
	Box(frame, emotion.FaceBox{X: 20, Y: 20, Width: 50, Height: 50})

	if got := frame.RGBAAt(20, 25); got != DefaultStyle().BoxColor {
		t.Errorf("left edge inside frame: got %v", got)
	}
}

func TestBox_ZeroWidthDrawsLine(t *testing.T) {
	frame := newFrame(10, 10)
	Box(frame, emotion.FaceBox{X: 2, Y: 2, Width: 0, Height: 5})

	for y := 2; y <= 7; y++ {
		if got := frame.RGBAAt(2, y); got != DefaultStyle().BoxColor {
			t.Errorf("(2,%d): got %v, want box color", y, got)
		}
	}
	if got := frame.RGBAAt(6, 5); got != black {
		t.Errorf("(6,5): got %v, want untouched", got)
	}
}

func TestBox_NegativeOrNil(t *testing.T) {
	frame := newFrame(10, 10)
	Box(frame, emotion.FaceBox{X: 2, Y: 2, Width: -3, Height: 5})
	Box(frame, emotion.FaceBox{X: 2, Y: 2, Width: 4, Height: -1})
	Box(nil, emotion.FaceBox{Width: 5, Height: 5})

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if frame.RGBAAt(x, y) != black {
				t.Fatalf("negative box drew at (%d,%d)", x, y)
			}
		}
	}
}

func TestLookupTheme(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"pastel", true},
		{"futuristic", true},
		{"neon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := LookupTheme(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && (s.Divisions != 4 || s.BoxWidth != 2) {
				t.Errorf("got %+v", s)
			}
		})
	}

	if def, _ := LookupTheme(DefaultTheme); def != DefaultStyle() {
		t.Errorf("DefaultTheme does not match DefaultStyle")
	}
	if names := ThemeNames(); len(names) != 2 || names[0] != "futuristic" {
		t.Errorf("ThemeNames: got %v", names)
	}
}
