package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/teslashibe/go-autoframe/pkg/surface"
)

func (c *Config) normalize() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Bridge.Service = strings.TrimSpace(c.Bridge.Service)

	if c.Bridge.SurfaceDir == "" {
		c.Bridge.SurfaceDir = surface.DefaultDir
	}
	if c.Sink.LockDir == "" {
		c.Sink.LockDir = os.TempDir()
	}

	if c.Bridge.URL == "" {
		c.Bridge.URL = (&url.URL{Scheme: "ws", Host: c.Bridge.Addr, Path: "/ws/" + c.Bridge.Service}).String()
	} else if _, err := url.Parse(c.Bridge.URL); err != nil {
		return fmt.Errorf("bridge.url: %w", err)
	}
	return nil
}
