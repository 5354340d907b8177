// Package fer implements emotion.Classifier with OpenCV: YuNet locates
// faces and a small ONNX expression network scores each one.
package fer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-emoscan/pkg/debug"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
)

// ErrModelNotFound is returned when a model file is missing.
var ErrModelNotFound = errors.New("fer: model not found")

// Config holds classifier configuration
type Config struct {
	DetectorPath string          // YuNet ONNX model
	EmotionPath  string          // Expression ONNX model
	Labels       []emotion.Label // Output order of the expression model
	InputSize    int             // Expression model input (square)
	Grayscale    bool            // Feed the expression model a single gray channel
	Softmax      bool            // Model emits logits; normalize them
	ScoreThresh  float64         // Minimum YuNet face score
	NMSThresh    float64
}

// DefaultConfig returns defaults for a FER2013-style mini-Xception export:
// 48x48 gray input, seven logits in canonical label order.
func DefaultConfig() Config {
	return Config{
		DetectorPath: "models/face_detection_yunet.onnx",
		EmotionPath:  "models/emotion_fer2013.onnx",
		Labels:       emotion.Labels(),
		InputSize:    48,
		Grayscale:    true,
		Softmax:      true,
		ScoreThresh:  0.6,
		NMSThresh:    0.3,
	}
}

// Classifier runs face detection followed by expression scoring.
type Classifier struct {
	detector gocv.FaceDetectorYN
	net      gocv.Net
	config   Config
	mu       sync.Mutex // Protects inference
}

// New loads both models.
func New(cfg Config) (*Classifier, error) {
	for _, p := range []string{cfg.DetectorPath, cfg.EmotionPath} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, p)
		}
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = emotion.Labels()
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultConfig().InputSize
	}

	net := gocv.ReadNetFromONNX(cfg.EmotionPath)
	if net.Empty() {
		return nil, fmt.Errorf("fer: failed to load expression model from %s", cfg.EmotionPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	// Input size is updated per image
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.DetectorPath,
		"",
		image.Pt(320, 320),
		float32(cfg.ScoreThresh),
		float32(cfg.NMSThresh),
		5000,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &Classifier{
		detector: detector,
		net:      net,
		config:   cfg,
	}, nil
}

// Detect finds faces in img and scores the expression of each.
func (c *Classifier) Detect(ctx context.Context, img image.Image) ([]emotion.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("fer: convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("fer: empty image")
	}

	c.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))

	rows := gocv.NewMat()
	defer rows.Close()
	c.detector.Detect(mat, &rows)

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())
	var faces []emotion.Face
	for r := 0; r < rows.Rows(); r++ {
		// YuNet rows: 0-3 box, 4-13 landmarks, 14 score
		box := emotion.FaceBox{
			X:      int(math.Round(float64(rows.GetFloatAt(r, 0)))),
			Y:      int(math.Round(float64(rows.GetFloatAt(r, 1)))),
			Width:  int(math.Round(float64(rows.GetFloatAt(r, 2)))),
			Height: int(math.Round(float64(rows.GetFloatAt(r, 3)))),
		}

		region := box.Rect().Intersect(bounds)
		if box.Area() == 0 || region.Empty() {
			continue
		}

		dist, err := c.score(mat, region)
		if err != nil {
			return nil, err
		}
		faces = append(faces, emotion.Face{Box: box, Emotions: dist})
	}

	if len(faces) > 0 {
		debug.Trace("👁️  FER found %d face(s)\n", len(faces))
	}

	return faces, nil
}

// score runs the expression network on one face region.
func (c *Classifier) score(mat gocv.Mat, region image.Rectangle) (emotion.Distribution, error) {
	roi := mat.Region(region)
	defer roi.Close()

	input := gocv.NewMat()
	defer input.Close()
	if c.config.Grayscale {
		gocv.CvtColor(roi, &input, gocv.ColorBGRToGray)
	} else {
		roi.CopyTo(&input)
	}

	size := image.Pt(c.config.InputSize, c.config.InputSize)
	blob := gocv.BlobFromImage(input, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), !c.config.Grayscale, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	out := c.net.Forward("")
	defer out.Close()

	n := out.Total()
	if n < len(c.config.Labels) {
		return nil, fmt.Errorf("fer: model produced %d scores for %d labels", n, len(c.config.Labels))
	}

	raw := make([]float64, len(c.config.Labels))
	for i := range raw {
		raw[i] = float64(out.GetFloatAt(0, i))
	}
	if c.config.Softmax {
		raw = softmax(raw)
	}

	dist := make(emotion.Distribution, len(raw))
	for i, l := range c.config.Labels {
		dist[l] = raw[i]
	}
	return dist, nil
}

// Close releases both models.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detector.Close()
	return c.net.Close()
}

func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return logits
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Verify Classifier implements emotion.Classifier at compile time.
var _ emotion.Classifier = (*Classifier)(nil)
