// Package camera reads frames from the wide-angle capture device.
package camera

import (
	"fmt"
	"strconv"
)

// Config selects and configures the capture device.
type Config struct {
	// Device is a V4L2 index ("0"), a device path, a file or a stream URL.
	Device    string `json:"device" toml:"device"`
	Width     int    `json:"width" toml:"width"`         // Requested frame width in pixels
	Height    int    `json:"height" toml:"height"`       // Requested frame height in pixels
	Framerate int    `json:"framerate" toml:"framerate"` // Requested FPS
	Loop      bool   `json:"loop" toml:"loop"`           // Rewind file sources at end of stream
}

// Capture limits
const (
	MaxWidth     = 7680
	MaxHeight    = 4320
	MaxFramerate = 120
)

// DefaultConfig returns the first local camera at 4K, the resolution the
// virtual camera crops from.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     3840,
		Height:    2160,
		Framerate: 30,
	}
}

// Validate checks the config, returning a list of problems or nil.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must be set")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}

	return errors
}

// deviceID returns the device as an index when it is numeric.
func (c *Config) deviceID() any {
	if n, err := strconv.Atoi(c.Device); err == nil {
		return n
	}
	return c.Device
}
