package emotion

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

// ErrScriptExhausted is returned by a scripted Mock with no steps left.
var ErrScriptExhausted = errors.New("emotion: mock script exhausted")

// Step is one scripted classifier reply.
type Step struct {
	Faces []Face
	Err   error
}

// Mock implements Classifier for testing.
// DetectFunc wins when set; otherwise scripted steps are replayed in order.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, img image.Image) ([]Face, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	script []Step
	calls  []MockCall
}

// MockCall records a Detect invocation.
type MockCall struct {
	Bounds image.Rectangle // Bounds of the image passed in
	Time   time.Time
}

// NewMock creates a mock that replays the given steps, one per Detect call.
func NewMock(steps ...Step) *Mock {
	return &Mock{script: steps}
}

// Detect calls DetectFunc or replays the next scripted step.
func (m *Mock) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Bounds: img.Bounds(), Time: time.Now()})
	fn := m.DetectFunc
	var (
		step Step
		ok   bool
	)
	if fn == nil && len(m.script) > 0 {
		step, m.script, ok = m.script[0], m.script[1:], true
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, img)
	}
	if !ok {
		return nil, ErrScriptExhausted
	}
	return step.Faces, step.Err
}

// Push appends steps to the script.
func (m *Mock) Push(steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, steps...)
}

// Close calls CloseFunc if set.
func (m *Mock) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns all recorded Detect calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of Detect calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls and any remaining script.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.script = nil
}

// Verify Mock implements Classifier at compile time.
var _ Classifier = (*Mock)(nil)
