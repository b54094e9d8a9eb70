package camera

import "sort"

// Resolution presets
const (
	Preset720p  = "720p"
	Preset1080p = "1080p"
	Preset4K    = "4k"
)

// Presets returns the resolution presets applied to the default device.
func Presets() map[string]Config {
	withSize := func(w, h int) Config {
		cfg := DefaultConfig()
		cfg.Width, cfg.Height = w, h
		return cfg
	}
	return map[string]Config{
		Preset720p:  withSize(1280, 720),
		Preset1080p: withSize(1920, 1080),
		Preset4K:    withSize(3840, 2160),
	}
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, 3)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the resolution of cfg with the named preset.
// It reports false for an unknown name.
func ApplyPreset(cfg *Config, name string) bool {
	p, ok := Presets()[name]
	if !ok {
		return false
	}
	cfg.Width, cfg.Height = p.Width, p.Height
	return true
}
