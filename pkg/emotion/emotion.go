// Package emotion defines the face and expression types shared by the
// detection pipeline, plus the Classifier boundary that wraps an external
// facial-expression model.
package emotion

import (
	"context"
	"image"
	"sort"
)

// Label is a facial expression class reported by a classifier.
type Label string

// The canonical label set, in the order most expression models emit them.
const (
	Angry    Label = "angry"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
)

// Labels returns the canonical label set in model order.
func Labels() []Label {
	return []Label{Angry, Disgust, Fear, Happy, Sad, Surprise, Neutral}
}

// FaceBox is a face bounding box in frame pixels.
type FaceBox struct {
	X      int `json:"x"` // Top-left corner
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height, or 0 for degenerate boxes.
func (b FaceBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Clamp returns the box with its origin moved to be non-negative.
// Width and height are left untouched.
func (b FaceBox) Clamp() FaceBox {
	if b.X < 0 {
		b.X = 0
	}
	if b.Y < 0 {
		b.Y = 0
	}
	return b
}

// Rect converts the box to an image.Rectangle. image.Rect canonicalizes
// corners, so check Area before relying on it for degenerate boxes.
func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Distribution maps labels to probabilities in [0,1].
// Entries need not sum to 1.
type Distribution map[Label]float64

// Top returns the highest scoring label and its score.
// Ties go to the label that comes first in canonical order; labels outside
// the canonical set are ranked after it, alphabetically.
func (d Distribution) Top() (Label, float64) {
	var (
		best  Label
		score = -1.0
	)
	for _, l := range d.orderedLabels() {
		if p := d[l]; p > score {
			best, score = l, p
		}
	}
	if score < 0 {
		return "", 0
	}
	return best, score
}

func (d Distribution) orderedLabels() []Label {
	ordered := make([]Label, 0, len(d))
	known := make(map[Label]bool, 7)
	for _, l := range Labels() {
		known[l] = true
		if _, ok := d[l]; ok {
			ordered = append(ordered, l)
		}
	}
	var extra []Label
	for l := range d {
		if !known[l] {
			extra = append(extra, l)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(ordered, extra...)
}

// Face is one classifier hit: where the face is and what it expresses.
type Face struct {
	Box      FaceBox
	Emotions Distribution
}

// Classifier locates faces in an image and scores their expressions.
// Implementations must not modify img. An empty result with a nil error
// means no face was found.
type Classifier interface {
	Detect(ctx context.Context, img image.Image) ([]Face, error)

	// Close releases model resources
	Close() error
}

// SelectPrimary returns the largest box by area and its index.
// Ties keep the first box in input order. faces must be non-empty.
func SelectPrimary(faces []FaceBox) (FaceBox, int) {
	best := 0
	for i := 1; i < len(faces); i++ {
		if faces[i].Area() > faces[best].Area() {
			best = i
		}
	}
	return faces[best], best
}

// Boxes extracts the bounding boxes from a classifier result.
func Boxes(faces []Face) []FaceBox {
	boxes := make([]FaceBox, len(faces))
	for i, f := range faces {
		boxes[i] = f.Box
	}
	return boxes
}
