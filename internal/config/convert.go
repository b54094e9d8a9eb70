package config

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/composer"
	"github.com/teslashibe/go-autoframe/pkg/interp"
	"github.com/teslashibe/go-autoframe/pkg/pipeline"
	"github.com/teslashibe/go-autoframe/pkg/render"
	"github.com/teslashibe/go-autoframe/pkg/surface"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
	"github.com/teslashibe/go-autoframe/pkg/tracking/detection"
	"github.com/teslashibe/go-autoframe/pkg/web"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// YOLOConfig returns the person detector settings
func (c *Config) YOLOConfig(logger *slog.Logger) detection.YOLOConfig {
	cfg := detection.DefaultYOLOConfig()
	cfg.ModelPath = c.Detector.YOLOModel
	cfg.ConfidenceThresh = float32(c.Detector.Confidence)
	cfg.NMSThresh = float32(c.Detector.NMS)
	cfg.InputWidth = c.Detector.InputSize
	cfg.InputHeight = c.Detector.InputSize
	cfg.Logger = logger
	return cfg
}

// PoseConfig returns the YuNet keypoint settings
func (c *Config) PoseConfig() detection.Config {
	cfg := detection.DefaultConfig()
	cfg.ModelPath = c.Detector.YuNetModel
	cfg.ConfidenceThresh = c.Detector.PoseConfidence
	cfg.TorsoRatio = c.Detector.TorsoRatio
	return cfg
}

// PipelineConfig returns the tracker, composer and interpolator settings
func (c *Config) PipelineConfig(logger *slog.Logger) pipeline.Config {
	return pipeline.Config{
		Tracking: tracking.Config{
			MinConfidence: c.Tracker.MinConfidence,
			MaxSubjects:   c.Tracker.MaxSubjects,
			MatchIoU:      c.Tracker.MatchIoU,
			TrackTimeout:  ms(c.Tracker.TrackTimeoutMs),
			PoseIoU:       c.Tracker.PoseIoU,
			Logger:        logger,
		},
		Composer: composer.Config{
			AspectRatio:      c.Composer.AspectRatio,
			Deadzone:         c.Composer.Deadzone,
			MinCropHeight:    c.Composer.MinCropHeight,
			HeightMultiplier: c.Composer.HeightMultiplier,
			MinSubjectHeight: c.Composer.MinSubjectHeight,
		},
		Interp: interp.Config{
			Smoothing: c.Interp.Smoothing,
			Epsilon:   c.Interp.Epsilon,
		},
		LostTimeout: ms(c.Composer.LostTimeoutMs),
		Logger:      logger,
	}
}

// RenderConfig returns the crop stage settings
func (c *Config) RenderConfig() render.Config {
	return render.Config{
		Width:   c.Render.Width,
		Height:  c.Render.Height,
		Timeout: ms(c.Render.TimeoutMs),
	}
}

// SurfaceOptions returns the shared-memory layout both processes agree on
func (c *Config) SurfaceOptions() surface.Options {
	return surface.Options{
		Dir:     c.Bridge.SurfaceDir,
		Service: c.Bridge.Service,
		Slots:   c.Bridge.Slots,
	}
}

// ProducerConfig returns the capture-side bridge settings
func (c *Config) ProducerConfig(logger *slog.Logger) bridge.ProducerConfig {
	cfg := bridge.DefaultProducerConfig(c.Bridge.URL)
	cfg.RetryDelay = ms(c.Bridge.RetryDelayMs)
	cfg.MaxRetries = c.Bridge.MaxRetries
	cfg.WarnLimit = c.Bridge.WarnLimit
	cfg.Logger = logger
	return cfg
}

// ServerConfig returns the sink listener settings
func (c *Config) ServerConfig(logger *slog.Logger) bridge.ServerConfig {
	return bridge.ServerConfig{
		Addr:    c.Bridge.Addr,
		Service: c.Bridge.Service,
		Logger:  logger,
	}
}

// ConsumerConfig returns the sink cadence and queue settings
func (c *Config) ConsumerConfig(logger *slog.Logger) bridge.ConsumerConfig {
	return bridge.ConsumerConfig{
		QueueSize: c.Sink.QueueSize,
		FrameRate: c.Sink.FrameRate,
		Width:     c.Sink.Width,
		Height:    c.Sink.Height,
		Logger:    logger,
	}
}

// WebConfig returns the dashboard settings
func (c *Config) WebConfig(logger *slog.Logger) web.Config {
	return web.Config{
		Addr:      c.Web.Addr,
		StatusFPS: c.Web.StatusFPS,
		Logger:    logger,
	}
}
