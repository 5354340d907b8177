package fer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestNewInvalidPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DetectorPath = "/nonexistent/path/yunet.onnx"

	_, err := New(cfg)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DetectorPath == "" || cfg.EmotionPath == "" {
		t.Error("DefaultConfig: model paths should not be empty")
	}
	if len(cfg.Labels) != 7 {
		t.Errorf("DefaultConfig: expected 7 labels, got %d", len(cfg.Labels))
	}
	if cfg.InputSize != 48 {
		t.Errorf("DefaultConfig: InputSize got %d, want 48", cfg.InputSize)
	}
	if cfg.ScoreThresh <= 0 || cfg.ScoreThresh > 1 {
		t.Errorf("DefaultConfig: ScoreThresh should be 0-1, got %f", cfg.ScoreThresh)
	}
}

func TestSoftmax(t *testing.T) {
	out := softmax([]float64{1, 2, 3})

	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("softmax sum: got %f, want 1", sum)
	}
	if !(out[2] > out[1] && out[1] > out[0]) {
		t.Errorf("softmax must preserve order: %v", out)
	}

	// Large logits must not overflow
	big := softmax([]float64{1000, 1000})
	if math.Abs(big[0]-0.5) > 1e-9 {
		t.Errorf("softmax overflow: got %v", big)
	}
}

func TestDetect_SolidImage(t *testing.T) {
	cfg, ok := findModels()
	if !ok {
		t.Skip("FER models not found, skipping test")
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetRGBA(0, 0, color.RGBA{0, 0, 255, 255})

	faces, err := c.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(faces) > 0 {
		t.Errorf("Expected no faces in solid image, got %d", len(faces))
	}
}

func TestDetect_CancelledContext(t *testing.T) {
	cfg, ok := findModels()
	if !ok {
		t.Skip("FER models not found, skipping test")
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10))); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// findModels walks up from the test directory looking for models/.
func findModels() (Config, bool) {
	cfg := DefaultConfig()
	cwd, err := os.Getwd()
	if err != nil {
		return cfg, false
	}
	for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
		det := filepath.Join(dir, cfg.DetectorPath)
		emo := filepath.Join(dir, cfg.EmotionPath)
		if _, err := os.Stat(det); err != nil {
			continue
		}
		if _, err := os.Stat(emo); err != nil {
			continue
		}
		cfg.DetectorPath, cfg.EmotionPath = det, emo
		return cfg, true
	}
	return cfg, false
}
