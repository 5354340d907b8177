// Package annotate draws the face overlay on display frames.
package annotate

import (
	"image"
	"image/color"
	"sort"

	"github.com/teslashibe/go-emoscan/pkg/emotion"
)

// Style controls overlay colors and line widths.
type Style struct {
	BoxColor  color.RGBA
	GridColor color.RGBA
	BoxWidth  int
	GridWidth int
	Divisions int // Grid cells per side
}

// DefaultTheme names the style returned by DefaultStyle.
const DefaultTheme = "pastel"

var themes = map[string]Style{
	// Lavender box, pink grid
	"pastel": {
		BoxColor:  color.RGBA{R: 193, G: 182, B: 255, A: 255},
		GridColor: color.RGBA{R: 255, G: 170, B: 200, A: 255},
		BoxWidth:  2,
		GridWidth: 1,
		Divisions: 4,
	},
	// Violet box, lilac grid, matching the dark display panel
	"futuristic": {
		BoxColor:  color.RGBA{R: 123, G: 92, B: 255, A: 255},
		GridColor: color.RGBA{R: 214, G: 179, B: 255, A: 255},
		BoxWidth:  2,
		GridWidth: 1,
		Divisions: 4,
	},
}

// DefaultStyle is a lavender box with a pink 4x4 grid.
func DefaultStyle() Style {
	return themes[DefaultTheme]
}

// LookupTheme returns the named style.
func LookupTheme(name string) (Style, bool) {
	s, ok := themes[name]
	return s, ok
}

// ThemeNames returns the theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Box draws box and its interior grid onto frame in place using DefaultStyle.
func Box(frame *image.RGBA, box emotion.FaceBox) {
	DefaultStyle().Draw(frame, box)
}

// Draw draws the rectangle and Divisions-1 evenly spaced interior lines in
// each direction. Everything is clipped to the frame. A box with zero width
// or height still draws as a line; negative extents draw nothing.
func (s Style) Draw(frame *image.RGBA, box emotion.FaceBox) {
	if frame == nil || box.Width < 0 || box.Height < 0 {
		return
	}
	min := frame.Bounds().Min
	x0, y0 := min.X+box.X, min.Y+box.Y
	x1, y1 := x0+box.Width, y0+box.Height

	for i := 1; i < s.Divisions; i++ {
		vx := x0 + box.Width*i/s.Divisions
		fill(frame, vx, y0, vx+s.GridWidth-1, y1, s.GridColor)

		hy := y0 + box.Height*i/s.Divisions
		fill(frame, x0, hy, x1, hy+s.GridWidth-1, s.GridColor)
	}

	for t := 0; t < s.BoxWidth; t++ {
		fill(frame, x0, y0+t, x1, y0+t, s.BoxColor) // top
		fill(frame, x0, y1-t, x1, y1-t, s.BoxColor) // bottom
		fill(frame, x0+t, y0, x0+t, y1, s.BoxColor) // left
		fill(frame, x1-t, y0, x1-t, y1, s.BoxColor) // right
	}
}

// fill paints the inclusive rectangle [x0,x1]x[y0,y1].
func fill(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
