// Package camera defines the webcam collaborator used by the detection
// pipeline and its runtime-adjustable settings.
package camera

// Config holds all camera configuration parameters.
// Resolution and framerate are requests; the driver may pick something else.
type Config struct {
	// Device is the capture index (0 = first webcam).
	Device int `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS

	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool `json:"mirror"`

	// Quality is the JPEG quality (1-100) used when frames are streamed
	// to the display.
	Quality int `json:"quality"`
}

// Accepted ranges
const (
	MinWidth     = 160
	MaxWidth     = 3840
	MinHeight    = 120
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the recommended webcam configuration.
// 720x480 keeps whole-frame detection fast enough for a 30ms refresh.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     720,
		Height:    480,
		Framerate: 30,
		Mirror:    true,
		Quality:   80,
	}
}

// LegacyConfig returns a 640x480 configuration for older webcams.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be >= 0")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
