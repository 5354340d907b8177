package pipeline

import (
	"log/slog"

	"github.com/teslashibe/go-emoscan/pkg/preprocess"
	"github.com/teslashibe/go-emoscan/pkg/stabilizer"
)

// Config holds all tunable parameters for the detection pipeline
type Config struct {
	// Face normalization before the refinement pass
	Preprocess preprocess.Config

	// Stabilization
	ConfidenceFloor float64 // Readings at or below this never enter history
	HistorySize     int     // Majority vote window (accepted frames)

	// ResetOnStart clears history whenever a camera session starts, so a
	// new session never inherits the previous person's mood.
	ResetOnStart bool

	// Logger defaults to the process logger
	Logger *slog.Logger
}

// DefaultConfig returns the recommended configuration.
// The 0.35 floor suppresses the classifier's low-confidence lean towards
// neutral; 15 frames at a 30ms tick is roughly half a second of latency.
func DefaultConfig() Config {
	return Config{
		Preprocess:      preprocess.DefaultConfig(),
		ConfidenceFloor: stabilizer.DefaultFloor,
		HistorySize:     stabilizer.DefaultCapacity,
		ResetOnStart:    true,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Preprocess.Size < 1 {
		errors = append(errors, "preprocess size must be positive")
	}
	if c.Preprocess.Contrast <= 0 {
		errors = append(errors, "contrast must be positive")
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor >= 1 {
		errors = append(errors, "confidence floor must be in [0, 1)")
	}
	if c.HistorySize < 1 {
		errors = append(errors, "history size must be at least 1")
	}

	return errors
}
