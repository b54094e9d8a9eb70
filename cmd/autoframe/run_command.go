package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-autoframe/internal/config"
	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/camera"
	"github.com/teslashibe/go-autoframe/pkg/hub"
	"github.com/teslashibe/go-autoframe/pkg/pipeline"
	"github.com/teslashibe/go-autoframe/pkg/render"
	"github.com/teslashibe/go-autoframe/pkg/surface"
	"github.com/teslashibe/go-autoframe/pkg/tracking/detection"
	"github.com/teslashibe/go-autoframe/pkg/web"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	var device, preset string
	var noWeb bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture, frame the subject and feed the sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.config
			if device != "" {
				cfg.Capture.Device = device
			}
			if preset != "" {
				if !camera.ApplyPreset(&cfg.Capture, preset) {
					return fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(camera.PresetNames(), ", "))
				}
			}
			if noWeb {
				cfg.Web.Enabled = false
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCapture(runCtx, &cfg, ctx.log())
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "Capture device, file or URL (overrides capture.device)")
	cmd.Flags().StringVar(&preset, "preset", "", "Capture preset: 720p, 1080p or 4k")
	cmd.Flags().BoolVar(&noWeb, "no-web", false, "Disable the dashboard")
	return cmd
}

func runCapture(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	src, err := camera.Open(cfg.Capture, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	detector, err := detection.NewYOLO(cfg.YOLOConfig(logger))
	if err != nil {
		return fmt.Errorf("load detector: %w", err)
	}
	defer detector.Close()

	deps := pipeline.Deps{Detector: detector}

	if cfg.Detector.Poses {
		poses, err := detection.NewYuNet(cfg.PoseConfig(), logger)
		if err != nil {
			logger.Warn("pose estimation disabled", "error", err)
		} else {
			defer poses.Close()
			deps.Poses = poses
		}
	}

	renderer := render.NewRenderer(cfg.RenderConfig(), logger)
	defer renderer.Close()
	deps.Renderer = renderer

	pool, err := surface.NewPool(cfg.SurfaceOptions(), cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return fmt.Errorf("create surfaces: %w", err)
	}
	defer pool.Close()
	deps.Surfaces = pool

	producer := bridge.NewProducer(cfg.ProducerConfig(logger))
	if err := producer.Connect(ctx); err != nil {
		// Retries are already scheduled; frames are dropped until the sink appears.
		logger.Warn("sink not reachable yet", "url", cfg.Bridge.URL, "error", err)
	}
	defer producer.Disconnect()
	deps.Announcer = producer

	var preview *hub.Hub
	if cfg.Web.Enabled && cfg.Web.Preview {
		preview = hub.New("preview", logger)
		deps.Preview = bridge.NewHubSink(preview, cfg.Web.PreviewQuality, cfg.Web.PreviewMaxWidth, cfg.Web.PreviewFPS)
	}

	pipe, err := pipeline.New(cfg.PipelineConfig(logger), deps)
	if err != nil {
		return err
	}
	defer pipe.Close()

	if cfg.Web.Enabled {
		webCfg := cfg.WebConfig(logger)
		webCfg.Preview = preview
		dash := web.NewServer(webCfg, pipe, producer)
		go func() {
			if err := dash.Start(ctx); err != nil {
				logger.Error("dashboard stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := dash.Shutdown(shutdownCtx); err != nil {
				logger.Warn("dashboard shutdown", "error", err)
			}
		}()
	}

	w, h := src.Size()
	logger.Info("capture running",
		"device", cfg.Capture.Device,
		"input", fmt.Sprintf("%dx%d", w, h),
		"output", fmt.Sprintf("%dx%d", cfg.Render.Width, cfg.Render.Height),
		"sink", cfg.Bridge.URL)

	err = pipe.Run(ctx, src)
	if errors.Is(err, camera.ErrEndOfStream) {
		logger.Info("capture source finished", "frames", src.Frames())
		return nil
	}
	return err
}
