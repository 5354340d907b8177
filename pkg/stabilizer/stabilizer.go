// Package stabilizer smooths a noisy per-frame emotion stream into a stable
// display label using a majority vote over a bounded history.
//
// Raw classifications flicker between neighbouring expressions as lighting
// and pose change. Only confident readings enter the history, and the
// reported label is the most frequent one in it, so a single odd frame
// cannot flip the display.
package stabilizer

import "github.com/teslashibe/go-emoscan/pkg/emotion"

// Detecting is reported while the history is empty. It is not an emotion.
const Detecting = "Detecting..."

// Defaults matching the pipeline's tuning.
const (
	DefaultCapacity = 15
	DefaultFloor    = 0.35
)

// Stabilizer holds the recent accepted labels in a fixed-capacity ring.
// It is not safe for concurrent use; the pipeline serializes access.
type Stabilizer struct {
	floor float64
	ring  []emotion.Label
	start int // Index of the oldest entry
	size  int
}

// New creates a stabilizer keeping at most capacity labels and accepting
// only confidences strictly above floor. capacity < 1 falls back to
// DefaultCapacity.
func New(capacity int, floor float64) *Stabilizer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Stabilizer{
		floor: floor,
		ring:  make([]emotion.Label, capacity),
	}
}

// Accept records label if confidence > floor and reports whether it did.
// When full, the oldest label is evicted. Rejected readings leave the
// history untouched.
func (s *Stabilizer) Accept(label emotion.Label, confidence float64) bool {
	if !(confidence > s.floor) {
		return false
	}
	if s.size < len(s.ring) {
		s.ring[(s.start+s.size)%len(s.ring)] = label
		s.size++
		return true
	}
	s.ring[s.start] = label
	s.start = (s.start + 1) % len(s.ring)
	return true
}

// StableLabel returns the majority label, or Detecting if the history is
// empty. Among labels sharing the top count, the one that reached that
// count first while scanning from oldest to newest wins.
func (s *Stabilizer) StableLabel() string {
	if s.size == 0 {
		return Detecting
	}
	counts := make(map[emotion.Label]int, 8)
	var (
		best  emotion.Label
		bestN int
	)
	for i := 0; i < s.size; i++ {
		l := s.ring[(s.start+i)%len(s.ring)]
		counts[l]++
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return string(best)
}

// History returns the accepted labels from oldest to newest.
func (s *Stabilizer) History() []emotion.Label {
	out := make([]emotion.Label, s.size)
	for i := range out {
		out[i] = s.ring[(s.start+i)%len(s.ring)]
	}
	return out
}

// Len returns the number of labels held.
func (s *Stabilizer) Len() int { return s.size }

// Cap returns the history capacity.
func (s *Stabilizer) Cap() int { return len(s.ring) }

// Floor returns the confidence floor.
func (s *Stabilizer) Floor() float64 { return s.floor }

// Reset empties the history.
func (s *Stabilizer) Reset() {
	s.start, s.size = 0, 0
	clear(s.ring)
}
