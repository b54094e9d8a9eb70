// Package web serves the operator dashboard: live status and preview over
// websockets, plus the manual framing and composer tuning API.
package web

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/composer"
	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/hub"
	"github.com/teslashibe/go-autoframe/pkg/pipeline"
)

//go:embed static/index.html
var indexHTML []byte

// Controller is the pipeline surface the dashboard drives.
// *pipeline.Pipeline satisfies it.
type Controller interface {
	Snapshot() pipeline.Snapshot
	Subscribe() (<-chan pipeline.Snapshot, func())
	SetManualTarget(r geometry.Rect) (geometry.Rect, error)
	JumpToTarget() error
	ResetCrop() error
	ResumeAuto() error
	Tuning() composer.Tuning
	SetTuning(t composer.Tuning) composer.Tuning
}

// BridgeStatus reports producer health. *bridge.Producer satisfies it.
type BridgeStatus interface {
	Stats() bridge.ProducerStats
}

// Config configures the dashboard
type Config struct {
	Addr      string  // Listen address
	StatusFPS float64 // Max status broadcasts per second
	Logger    *slog.Logger

	// Preview is the hub rendered frames are broadcast on. It is created when
	// nil; pass one in to feed it from a bridge.HubSink built beforehand.
	Preview *hub.Hub
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Addr:      "127.0.0.1:8420",
		StatusFPS: 10,
		Logger:    slog.Default(),
	}
}

// Status is the payload of /api/status and /ws/status
type Status struct {
	Pipeline pipeline.Snapshot     `json:"pipeline"`
	Bridge   *bridge.ProducerStats `json:"bridge,omitempty"`
	Viewers  int                   `json:"viewers"`
}

// Server is the dashboard server
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App

	ctrl   Controller
	bridge BridgeStatus

	statusHub  *hub.Hub
	previewHub *hub.Hub
}

// NewServer creates a dashboard for ctrl. bs may be nil when the bridge is
// disabled.
func NewServer(cfg Config, ctrl Controller, bs BridgeStatus) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.StatusFPS <= 0 {
		cfg.StatusFPS = 10
	}
	if cfg.Preview == nil {
		cfg.Preview = hub.New("preview", cfg.Logger)
	}
	s := &Server{
		config:     cfg,
		logger:     cfg.Logger.With("component", "web"),
		ctrl:       ctrl,
		bridge:     bs,
		statusHub:  hub.New("status", cfg.Logger),
		previewHub: cfg.Preview,
	}

	app := fiber.New(fiber.Config{
		AppName:               "autoframe dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/composer", s.handleGetComposer)
	api.Put("/composer", s.handlePutComposer)
	api.Post("/crop", s.handleSetCrop)
	api.Post("/crop/reset", s.handleCropCommand(ctrl.ResetCrop))
	api.Post("/crop/jump", s.handleCropCommand(ctrl.JumpToTarget))
	api.Post("/crop/auto", s.handleCropCommand(ctrl.ResumeAuto))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// PreviewHub is where rendered preview frames are broadcast
func (s *Server) PreviewHub() *hub.Hub {
	return s.previewHub
}

// Start runs the hubs and the status pump, then serves until Shutdown.
// The background goroutines stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.previewHub.Run(ctx)
	go s.pumpStatus(ctx)

	s.logger.Info("dashboard listening", "url", "http://"+s.config.Addr)
	return s.app.Listen(s.config.Addr)
}

// pumpStatus forwards pipeline snapshots to status clients, at most
// StatusFPS times per second and only when something changed.
func (s *Server) pumpStatus(ctx context.Context) {
	ch, cancel := s.ctrl.Subscribe()
	defer cancel()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.config.StatusFPS))
	defer ticker.Stop()

	var latest *pipeline.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			latest = &snap
		case <-ticker.C:
			if latest == nil || s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.status(*latest)); err != nil {
				s.logger.Debug("status encode failed", "error", err)
			}
			latest = nil
		}
	}
}

func (s *Server) status(snap pipeline.Snapshot) Status {
	st := Status{Pipeline: snap, Viewers: s.previewHub.ClientCount()}
	if s.bridge != nil {
		bs := s.bridge.Stats()
		st.Bridge = &bs
	}
	return st
}

// Shutdown stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
