package camera

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("DefaultConfig invalid: %v", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errs   int
	}{
		{"valid", func(c *Config) {}, 0},
		{"no device", func(c *Config) { c.Device = "" }, 1},
		{"tiny width", func(c *Config) { c.Width = 100 }, 1},
		{"huge height", func(c *Config) { c.Height = 10000 }, 1},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, 1},
		{"everything wrong", func(c *Config) { *c = Config{} }, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if got := cfg.Validate(); len(got) != tt.errs {
				t.Errorf("Validate() = %v, want %d errors", got, tt.errs)
			}
		})
	}
}

func TestDeviceID(t *testing.T) {
	tests := []struct {
		device string
		want   any
	}{
		{"0", 0},
		{"2", 2},
		{"/dev/video4", "/dev/video4"},
		{"rtsp://cam.local/stream", "rtsp://cam.local/stream"},
	}

	for _, tt := range tests {
		cfg := Config{Device: tt.device}
		if got := cfg.deviceID(); got != tt.want {
			t.Errorf("deviceID(%q) = %v (%T), want %v", tt.device, got, got, tt.want)
		}
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		p := Presets()[name]
		if errs := p.Validate(); len(errs) != 0 {
			t.Errorf("preset %s invalid: %v", name, errs)
		}
	}

	cfg := DefaultConfig()
	cfg.Device = "/dev/video2"
	if !ApplyPreset(&cfg, Preset720p) {
		t.Fatal("ApplyPreset(720p) = false")
	}
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.Device != "/dev/video2" {
		t.Errorf("after preset: %+v", cfg)
	}
	if ApplyPreset(&cfg, "8k") {
		t.Error("unknown preset should not apply")
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(Config{}, nil); err == nil {
		t.Error("Open with invalid config should fail")
	}

	cfg := DefaultConfig()
	cfg.Device = filepath.Join(t.TempDir(), "missing.mp4")
	if _, err := Open(cfg, nil); err == nil {
		t.Error("Open of a missing file should fail")
	}
}
