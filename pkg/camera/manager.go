package camera

import (
	"fmt"
	"sync"
)

// Patch is a partial settings change. Nil fields keep their current value.
// A Preset, if set, replaces the whole config before the fields apply.
type Patch struct {
	Preset    string `json:"preset,omitempty"`
	Device    *int   `json:"device,omitempty"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
	Framerate *int   `json:"framerate,omitempty"`
	Quality   *int   `json:"quality,omitempty"`
	Mirror    *bool  `json:"mirror,omitempty"`
}

// Apply returns base with the patch applied. The result is not validated.
func (p Patch) Apply(base Config) (Config, error) {
	cfg := base
	if p.Preset != "" {
		preset, ok := LookupPreset(p.Preset)
		if !ok {
			return base, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, p.Preset)
		}
		cfg = preset
	}

	for _, f := range []struct {
		src *int
		dst *int
	}{
		{p.Device, &cfg.Device},
		{p.Width, &cfg.Width},
		{p.Height, &cfg.Height},
		{p.Framerate, &cfg.Framerate},
		{p.Quality, &cfg.Quality},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if p.Mirror != nil {
		cfg.Mirror = *p.Mirror
	}
	return cfg, nil
}

// Manager holds the live camera settings shared by the API and the scanner.
type Manager struct {
	set sync.Mutex // Serializes Set, including OnChange

	mu     sync.RWMutex
	config Config

	// OnChange, if set, is called with each new config after it is stored.
	// If it fails the previous config is restored.
	OnChange func(cfg Config) error
}

// NewManager creates a manager holding cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// Config returns the current settings.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Set validates and stores cfg. Invalid settings are rejected with
// ErrInvalidConfig and leave the current config untouched, as does an
// OnChange failure.
func (m *Manager) Set(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}

	m.set.Lock()
	defer m.set.Unlock()

	m.mu.Lock()
	prev := m.config
	m.config = cfg
	m.mu.Unlock()

	if m.OnChange == nil {
		return nil
	}
	if err := m.OnChange(cfg); err != nil {
		m.mu.Lock()
		m.config = prev
		m.mu.Unlock()
		return fmt.Errorf("camera: apply config: %w", err)
	}
	return nil
}

// Update applies p to the current settings and stores the result.
func (m *Manager) Update(p Patch) error {
	// Hold nothing across Set; a racing Update simply wins or loses whole.
	cfg, err := p.Apply(m.Config())
	if err != nil {
		return err
	}
	return m.Set(cfg)
}
