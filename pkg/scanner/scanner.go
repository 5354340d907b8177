// Package scanner drives a detection pipeline on a fixed tick, the way a
// display loop would, and keeps the state a status panel needs.
//
// Ticks never queue: if the previous frame is still being processed the
// tick is dropped. When scanning stops the last rendered frame is kept as
// a freeze-frame snapshot.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-emoscan/internal/log"
	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/debug"
	"github.com/teslashibe/go-emoscan/pkg/emotion"
	"github.com/teslashibe/go-emoscan/pkg/pipeline"
)

// ErrRunning is returned by Start while a scan is in progress.
var ErrRunning = errors.New("scanner: already running")

// Status is the scan lifecycle shown on the status panel.
type Status string

const (
	StatusIdle     Status = "idle"     // Never started
	StatusScanning Status = "scanning" // Camera open, ticking
	StatusComplete Status = "complete" // Stopped with a freeze-frame
	StatusStopped  Status = "stopped"  // Stopped before any frame rendered
)

// CameraState describes the camera indicator.
type CameraState string

const (
	CameraOffline CameraState = "offline"
	CameraActive  CameraState = "active"
	CameraFrozen  CameraState = "frozen"
)

// Config holds scanner settings.
type Config struct {
	Interval time.Duration // Tick period
	Camera   camera.Config // Passed to the opener on Start
	Model    string        // Shown on the status panel
	Logger   *slog.Logger
}

// DefaultConfig returns a 30ms tick on the default camera.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Millisecond,
		Camera:   camera.DefaultConfig(),
		Model:    "fer",
	}
}

// Validate checks if the config values are within valid ranges.
func (c *Config) Validate() []string {
	var errors []string
	if c.Interval <= 0 {
		errors = append(errors, "interval must be positive")
	}
	return append(errors, c.Camera.Validate()...)
}

// Update is published after every processed tick and on lifecycle changes.
// Frame is shared between subscribers and must not be modified.
type Update struct {
	Session    string           `json:"session,omitempty"`
	Seq        uint64           `json:"seq"`
	Status     Status           `json:"status"`
	Text       string           `json:"text"`
	State      string           `json:"state,omitempty"`
	Label      string           `json:"label,omitempty"`
	Top        string           `json:"top,omitempty"`
	Confidence int              `json:"confidence"`
	Box        *emotion.FaceBox `json:"box,omitempty"`
	Error      string           `json:"error,omitempty"`
	Time       time.Time        `json:"time"`
	Frame      *image.RGBA      `json:"-"`
}

// Info is a point-in-time view of the scanner for the status panel.
type Info struct {
	Status     Status      `json:"status"`
	Camera     CameraState `json:"camera"`
	Model      string      `json:"model"`
	Session    string      `json:"session,omitempty"`
	Text       string      `json:"text"`
	Label      string      `json:"label,omitempty"`
	Confidence int         `json:"confidence"`
	Frames     uint64      `json:"frames"`
	Skipped    uint64      `json:"skipped"`
	Started    time.Time   `json:"started,omitempty"`
	HasFrame   bool        `json:"has_frame"`
}

// Scanner owns a pipeline and ticks it while a scan is running.
type Scanner struct {
	pipe   *pipeline.Pipeline
	opener camera.Opener
	config Config
	log    *slog.Logger

	ctl  sync.Mutex // Serializes Start and Stop
	busy sync.Mutex // Held while the pipeline is in use

	mu       sync.RWMutex
	status   Status
	session  string
	started  time.Time
	frames   uint64
	skipped  uint64
	last     Update
	shot     Update // Last update carrying a frame
	subs     map[int]func(Update)
	nextSub  int
	cancel   context.CancelFunc
	unwatch  func() bool // Detaches the stop-on-ctx-done hook
	loopDone chan struct{}
}

// New creates a scanner. The pipeline must not be used elsewhere.
func New(pipe *pipeline.Pipeline, opener camera.Opener, cfg Config) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Component("scanner")
	}
	return &Scanner{
		pipe:   pipe,
		opener: opener,
		config: cfg,
		log:    logger,
		status: StatusIdle,
		subs:   make(map[int]func(Update)),
	}
}

// Start opens the camera and begins ticking until Stop or ctx is done.
// When ctx ends the scan stops exactly as if Stop had been called.
func (s *Scanner) Start(ctx context.Context) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.RLock()
	running := s.cancel != nil
	s.mu.RUnlock()
	if running {
		return ErrRunning
	}

	s.busy.Lock()
	err := s.pipe.Start(s.opener, s.config.Camera)
	s.busy.Unlock()
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.status = StatusScanning
	s.session = uuid.NewString()
	s.started = time.Now()
	s.frames, s.skipped = 0, 0
	s.last, s.shot = Update{}, Update{}
	s.cancel, s.loopDone = cancel, done
	session := s.session
	s.unwatch = context.AfterFunc(ctx, func() {
		if err := s.stop(session); err != nil {
			s.log.Warn("stop scan on context end", "session", session, "error", err)
		}
	})
	u := Update{Session: session, Status: s.status, Time: s.started}
	s.mu.Unlock()

	s.log.Info("scan started", "session", u.Session, "interval", s.config.Interval)
	s.publish(u)

	go s.run(loopCtx, done)
	return nil
}

// Stop ends the scan. An in-flight frame is allowed to finish before the
// camera is released. Stop on an idle scanner is a no-op.
func (s *Scanner) Stop() error {
	return s.stop("")
}

// stop ends the scan if it belongs to session, or any scan when session
// is empty.
func (s *Scanner) stop(session string) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.cancel == nil || (session != "" && session != s.session) {
		s.mu.Unlock()
		return nil
	}
	cancel, done, unwatch := s.cancel, s.loopDone, s.unwatch
	s.cancel, s.loopDone, s.unwatch = nil, nil, nil
	s.mu.Unlock()

	unwatch()
	cancel()
	<-done

	s.busy.Lock()
	err := s.pipe.Stop()
	s.busy.Unlock()

	s.mu.Lock()
	if s.shot.Frame != nil {
		s.status = StatusComplete
	} else {
		s.status = StatusStopped
	}
	u := s.last
	u.Session, u.Status, u.Frame, u.Time = s.session, s.status, nil, time.Now()
	frames, skipped := s.frames, s.skipped
	s.mu.Unlock()

	s.log.Info("scan stopped", "session", u.Session, "status", u.Status,
		"frames", frames, "skipped", skipped, "final", u.Text)
	s.publish(u)

	if err != nil {
		return fmt.Errorf("scanner: release camera: %w", err)
	}
	return nil
}

func (s *Scanner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes one frame unless another is in flight or no scan is
// running. It reports whether a frame was processed. Cancelling ctx does
// not interrupt a classifier call that has already begun.
func (s *Scanner) Tick(ctx context.Context) bool {
	if !s.busy.TryLock() {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		debug.Trace("⏭️  tick skipped, frame in flight\n")
		return false
	}
	defer s.busy.Unlock()

	if !s.pipe.Active() {
		return false
	}

	res := s.pipe.Process(context.WithoutCancel(ctx))
	s.publish(s.record(res))
	return true
}

// record folds a pipeline result into the scanner state.
func (s *Scanner) record(res pipeline.Result) Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	u := Update{
		Session:    s.session,
		Seq:        s.frames,
		Status:     s.status,
		Text:       res.Text,
		State:      res.State.String(),
		Label:      res.Label,
		Confidence: res.ConfidencePercent(),
		Time:       time.Now(),
		Frame:      res.Frame,
	}
	if res.State.Classified() {
		u.Top = string(res.Top)
	}
	if res.HasBox {
		box := res.Box
		u.Box = &box
	}
	if res.Err != nil {
		u.Error = res.Err.Error()
	}

	s.last = u
	if u.Frame != nil {
		s.shot = u
	}
	return u
}

// Subscribe registers fn to receive every Update. Callbacks run on the
// scanner goroutine and must not block. The returned func unsubscribes.
func (s *Scanner) Subscribe(fn func(Update)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Scanner) publish(u Update) {
	s.mu.RLock()
	fns := make([]func(Update), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Status returns the current status panel view.
func (s *Scanner) Status() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		Status:     s.status,
		Camera:     CameraOffline,
		Model:      s.config.Model,
		Session:    s.session,
		Text:       s.last.Text,
		Label:      s.last.Label,
		Confidence: s.last.Confidence,
		Frames:     s.frames,
		Skipped:    s.skipped,
		Started:    s.started,
		HasFrame:   s.shot.Frame != nil,
	}
	switch s.status {
	case StatusScanning:
		info.Camera = CameraActive
	case StatusComplete:
		info.Camera = CameraFrozen
	}
	return info
}

// Snapshot returns the most recent update that carried a frame. After Stop
// this is the freeze-frame. ok is false if no frame was ever rendered.
func (s *Scanner) Snapshot() (u Update, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shot, s.shot.Frame != nil
}

// Running reports whether a scan is in progress.
func (s *Scanner) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetCamera changes the camera settings used by the next Start.
func (s *Scanner) SetCamera(cfg camera.Config) {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.mu.Lock()
	s.config.Camera = cfg
	s.mu.Unlock()
}
