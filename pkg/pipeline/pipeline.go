// Package pipeline turns raw camera frames into an annotated frame and a
// stable, human-readable emotion label.
//
// Each Process call reads one frame, scans it for faces, picks the largest,
// re-crops and normalizes it, classifies the crop again for a cleaner read,
// and feeds the result through a majority-vote stabilizer. Every failure is
// local to the frame: Process always returns a Result with display text.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/teslashibe/go-emoscan/internal/log"
	"github.com/teslashibe/go-emoscan/pkg/annotate"
	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/debug"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
	"github.com/teslashibe/go-emoscan/pkg/preprocess"
	"github.com/teslashibe/go-emoscan/pkg/stabilizer"
)

// Result is the outcome of one Process call. The caller owns Frame.
type Result struct {
	Frame *image.RGBA // nil when no frame was read
	Text  string      // Display text
	State State
	Err   error // Taxonomy error for non-success states

	Box    emotion.FaceBox // Selected face, clamped
	HasBox bool

	Label      string        // Stable label (or stabilizer.Detecting)
	Top        emotion.Label // This frame's refined top label
	Confidence float64       // This frame's refined confidence
}

// ConfidencePercent returns the current-frame confidence as a whole
// percentage, or 0 when the frame was not classified.
func (r Result) ConfidencePercent() int {
	if !r.State.Classified() {
		return 0
	}
	return int(math.Round(r.Confidence * 100))
}

// Pipeline is the per-frame detection orchestrator.
// It is not safe for concurrent use: callers must not overlap Process,
// Start or Stop calls.
type Pipeline struct {
	classifier emotion.Classifier
	config     Config
	stab       *stabilizer.Stabilizer
	style      annotate.Style
	device     camera.Device
	log        *slog.Logger
}

// New creates a pipeline around classifier.
func New(classifier emotion.Classifier, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Component("pipeline")
	}
	return &Pipeline{
		classifier: classifier,
		config:     cfg,
		stab:       stabilizer.New(cfg.HistorySize, cfg.ConfidenceFloor),
		style:      annotate.DefaultStyle(),
		log:        logger,
	}
}

// SetStyle changes the overlay style.
func (p *Pipeline) SetStyle(s annotate.Style) {
	p.style = s
}

// Start opens a camera session. An already open session is closed first.
// History is cleared when ResetOnStart is set.
func (p *Pipeline) Start(opener camera.Opener, cfg camera.Config) error {
	if p.device != nil {
		p.Stop()
	}

	dev, err := opener.Open(cfg)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	p.device = dev

	if p.config.ResetOnStart {
		p.stab.Reset()
	}

	p.log.Info("camera session started",
		"device", cfg.Device, "width", cfg.Width, "height", cfg.Height,
		"history_reset", p.config.ResetOnStart)
	return nil
}

// Stop closes the camera session. History is kept until the next Start.
func (p *Pipeline) Stop() error {
	if p.device == nil {
		return nil
	}
	err := p.device.Close()
	p.device = nil
	p.log.Info("camera session stopped")
	return err
}

// Active reports whether a camera session is open.
func (p *Pipeline) Active() bool {
	return p.device != nil
}

// History returns the accepted labels, oldest first.
func (p *Pipeline) History() []emotion.Label {
	return p.stab.History()
}

// StableLabel returns the current majority label.
func (p *Pipeline) StableLabel() string {
	return p.stab.StableLabel()
}

// Process runs one frame through the pipeline. A panic anywhere in the
// frame path is reported as a camera error.
func (p *Pipeline) Process(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("frame processing panic", "panic", r)
			res = Result{
				Text:  TextCameraError,
				State: StateCameraError,
				Err:   fmt.Errorf("%w: panic: %v", ErrCameraAcquisition, r),
				Label: p.stab.StableLabel(),
			}
		}
	}()

	if p.device == nil {
		return Result{Text: TextCameraNotStarted, State: StateNotStarted, Err: ErrCameraNotStarted, Label: p.stab.StableLabel()}
	}

	frame, err := p.device.Read()
	if err != nil || frame == nil {
		p.log.Warn("frame read failed", "error", err)
		return Result{
			Text:  TextCameraError,
			State: StateCameraError,
			Err:   fmt.Errorf("%w: %v", ErrCameraAcquisition, err),
			Label: p.stab.StableLabel(),
		}
	}

	res = Result{Frame: frame, Label: p.stab.StableLabel()}

	faces, err := p.detect(ctx, frame)
	if err != nil {
		p.log.Warn("face scan failed", "error", err)
		return p.finish(res, StateClassifierError, TextDetectionError, fmt.Errorf("%w: %v", ErrClassifier, err))
	}
	if len(faces) == 0 {
		return p.finish(res, StateNoFace, TextNoFace, nil)
	}

	box, idx := emotion.SelectPrimary(emotion.Boxes(faces))
	res.Box, res.HasBox = box.Clamp(), true
	debug.Trace("🎯 %d face(s), primary #%d at %+v\n", len(faces), idx, res.Box)

	crop, ok := preprocess.Crop(frame, res.Box)
	if !ok {
		return p.finish(res, StateCropInvalid, TextFaceError, ErrInvalidCrop)
	}
	face, err := preprocess.Face(crop, p.config.Preprocess)
	if err != nil {
		return p.finish(res, StateCropInvalid, TextFaceError, fmt.Errorf("%w: %v", ErrInvalidCrop, err))
	}

	refined, err := p.detect(ctx, face)
	if err != nil {
		p.log.Warn("refinement scan failed", "error", err)
	}
	if len(refined) == 0 {
		return p.finish(res, StateRefinementEmpty, TextAnalyzing, ErrRefinementEmpty)
	}

	// The refined box is relative to the crop, so only the scores matter.
	res.Top, res.Confidence = refined[0].Emotions.Top()
	state := StateRejected
	if p.stab.Accept(res.Top, res.Confidence) {
		state = StateAccepted
	}
	res.Label = p.stab.StableLabel()
	text := fmt.Sprintf("%s (%.1f%%)", capitalize(res.Label), res.Confidence*100)

	debug.Trace("🧠 top=%s conf=%.3f %s stable=%s history=%d\n",
		res.Top, res.Confidence, state, res.Label, p.stab.Len())

	return p.finish(res, state, text, nil)
}

// finish annotates the frame when a face was selected and seals the result.
func (p *Pipeline) finish(res Result, state State, text string, err error) Result {
	if res.HasBox && res.Frame != nil {
		p.style.Draw(res.Frame, res.Box)
	}
	res.State, res.Text, res.Err = state, text, err
	return res
}

// detect calls the classifier, converting panics into errors.
func (p *Pipeline) detect(ctx context.Context, img image.Image) (faces []emotion.Face, err error) {
	defer func() {
		if r := recover(); r != nil {
			faces, err = nil, fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return p.classifier.Detect(ctx, img)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return strings.ToUpper(string(r)) + strings.ToLower(s[n:])
}
