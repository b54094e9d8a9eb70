package config

import (
	"strconv"
	"strings"
)

// Environment overrides, applied after the file.
const (
	EnvLogLevel      = "AUTOFRAME_LOG_LEVEL"
	EnvLogFormat     = "AUTOFRAME_LOG_FORMAT"
	EnvCameraDevice  = "AUTOFRAME_CAMERA_DEVICE"
	EnvBridgeAddr    = "AUTOFRAME_BRIDGE_ADDR"
	EnvBridgeURL     = "AUTOFRAME_BRIDGE_URL"
	EnvBridgeService = "AUTOFRAME_BRIDGE_SERVICE"
	EnvSurfaceDir    = "AUTOFRAME_SURFACE_DIR"
	EnvWebAddr       = "AUTOFRAME_WEB_ADDR"
	EnvRenderTimeout = "AUTOFRAME_RENDER_TIMEOUT_MS"
)

func (c *Config) applyEnv(getenv func(string) string) {
	setString(getenv, EnvLogLevel, &c.Log.Level)
	setString(getenv, EnvLogFormat, &c.Log.Format)
	setString(getenv, EnvCameraDevice, &c.Capture.Device)
	setString(getenv, EnvBridgeAddr, &c.Bridge.Addr)
	setString(getenv, EnvBridgeURL, &c.Bridge.URL)
	setString(getenv, EnvBridgeService, &c.Bridge.Service)
	setString(getenv, EnvSurfaceDir, &c.Bridge.SurfaceDir)
	setString(getenv, EnvWebAddr, &c.Web.Addr)
	setInt(getenv, EnvRenderTimeout, &c.Render.TimeoutMs)
}

// setString replaces *dst when the variable is set and non-blank.
func setString(getenv func(string) string, key string, dst *string) {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		*dst = v
	}
}

// setInt ignores values that do not parse so a typo keeps the file setting.
func setInt(getenv func(string) string, key string, dst *int) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
