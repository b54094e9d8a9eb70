package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration, returning a list of problems or nil.
// Problems are prefixed with the TOML key they refer to.
func (c *Config) Validate() []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, p := range c.Capture.Validate() {
		add("capture.%s", p)
	}

	d := c.Detector
	if d.YOLOModel == "" {
		add("detector.yolo_model must be set")
	}
	if d.Confidence <= 0 || d.Confidence > 1 {
		add("detector.confidence must be in (0, 1]")
	}
	if d.NMS < 0 || d.NMS > 1 {
		add("detector.nms must be between 0 and 1")
	}
	if d.InputSize < 32 || d.InputSize%32 != 0 {
		add("detector.input_size must be a positive multiple of 32")
	}
	if d.Poses {
		if d.YuNetModel == "" {
			add("detector.yunet_model must be set when poses are enabled")
		}
		if d.TorsoRatio <= 0 {
			add("detector.torso_ratio must be positive")
		}
	}

	t := c.Tracker
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		add("tracker.min_confidence must be between 0 and 1")
	}
	if t.MaxSubjects < 1 {
		add("tracker.max_subjects must be at least 1")
	}
	if t.MatchIoU < 0 || t.MatchIoU >= 1 {
		add("tracker.match_iou must be in [0, 1)")
	}
	if t.TrackTimeoutMs <= 0 {
		add("tracker.track_timeout_ms must be positive")
	}
	if t.PoseIoU < 0 || t.PoseIoU >= 1 {
		add("tracker.pose_iou must be in [0, 1)")
	}

	cp := c.Composer
	if cp.AspectRatio <= 0 {
		add("composer.aspect_ratio must be positive")
	}
	if cp.Deadzone < 0 || cp.Deadzone > 0.5 {
		add("composer.deadzone must be between 0 and 0.5")
	}
	if cp.MinCropHeight <= 0 || cp.MinCropHeight > 1 {
		add("composer.min_crop_height must be in (0, 1]")
	}
	if cp.HeightMultiplier <= 0 {
		add("composer.height_multiplier must be positive")
	}
	if cp.LostTimeoutMs <= 0 {
		add("composer.lost_timeout_ms must be positive")
	}

	if c.Interp.Smoothing <= 0 || c.Interp.Smoothing > 1 {
		add("interp.smoothing must be in (0, 1]")
	}
	if c.Interp.Epsilon <= 0 {
		add("interp.epsilon must be positive")
	}

	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		add("render.width and render.height must be positive")
	}
	if c.Render.TimeoutMs < 0 {
		add("render.timeout_ms must not be negative")
	}

	b := c.Bridge
	if b.Service == "" || strings.ContainsAny(b.Service, "/ ") {
		add("bridge.service must be a non-empty name without slashes or spaces")
	}
	if _, _, err := net.SplitHostPort(b.Addr); err != nil {
		add("bridge.addr must be host:port")
	}
	if b.RetryDelayMs <= 0 {
		add("bridge.retry_delay_ms must be positive")
	}
	if b.MaxRetries < 0 {
		add("bridge.max_retries must not be negative")
	}
	// The consumer may hold a full queue plus the frame it is emitting.
	if b.Slots < c.Sink.QueueSize+2 {
		add("bridge.slots must be at least sink.queue_size + 2")
	}

	s := c.Sink
	if s.Width <= 0 || s.Height <= 0 {
		add("sink.width and sink.height must be positive")
	}
	if s.FrameRate <= 0 || s.FrameRate > 240 {
		add("sink.frame_rate must be in (0, 240]")
	}
	if s.QueueSize < 1 {
		add("sink.queue_size must be at least 1")
	}
	if s.Output == "" {
		add("sink.output must be set (use \"-\" for stdout)")
	}

	if c.Web.Enabled {
		if _, _, err := net.SplitHostPort(c.Web.Addr); err != nil {
			add("web.addr must be host:port")
		}
		if c.Web.StatusFPS <= 0 {
			add("web.status_fps must be positive")
		}
		if c.Web.Preview && (c.Web.PreviewQuality < 1 || c.Web.PreviewQuality > 100) {
			add("web.preview_quality must be between 1 and 100")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		add("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json", "auto":
	default:
		add("log.format must be one of text, json, auto")
	}

	return problems
}
