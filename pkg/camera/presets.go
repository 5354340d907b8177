package camera

// Preset is a named camera configuration offered on the settings panel.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Config      Config `json:"config"`
}

// presets in display order. Index 0 is the default.
var presets = []Preset{
	{"default", "720x480 @ 30fps, fast enough for a 30ms refresh", DefaultConfig()},
	{"legacy", "640x480 for older webcams", LegacyConfig()},
	{"720p", "1280x720, sharper box, slower whole-frame scan", withSize(1280, 720, 30)},
	{"1080p", "1920x1080 at 15fps; expect visible lag", withSize(1920, 1080, 15)},
}

func withSize(w, h, fps int) Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height, cfg.Framerate = w, h, fps
	return cfg
}

// Presets returns the available presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetNames returns the preset names in display order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// LookupPreset returns the named preset's config.
func LookupPreset(name string) (Config, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p.Config, true
		}
	}
	return Config{}, false
}
