package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autoframe/pkg/composer"
	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/hub"
	"github.com/teslashibe/go-autoframe/pkg/pipeline"
)

// handleStatus returns the latest pipeline snapshot with bridge health
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status(s.ctrl.Snapshot()))
}

// handleGetComposer returns the composer tuning
func (s *Server) handleGetComposer(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Tuning())
}

// handlePutComposer applies a partial tuning update; zero fields are kept
func (s *Server) handlePutComposer(c *fiber.Ctx) error {
	var t composer.Tuning
	if err := c.BodyParser(&t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if t.Deadzone < 0 || t.AspectRatio < 0 || t.MinCropHeight < 0 || t.HeightMultiplier < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tuning values must not be negative"})
	}
	return c.JSON(s.ctrl.SetTuning(t))
}

// handleSetCrop switches to manual framing toward the posted rect
func (s *Server) handleSetCrop(c *fiber.Ctx) error {
	var r geometry.Rect
	if err := c.BodyParser(&r); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	target, err := s.ctrl.SetManualTarget(r)
	if err != nil {
		return commandError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"mode":   pipeline.ModeManual,
		"target": target,
	})
}

// handleCropCommand wraps a no-argument crop command
func (s *Server) handleCropCommand(cmd func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := cmd(); err != nil {
			return commandError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": true})
	}
}

func commandError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, pipeline.ErrBusy) {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handleStatusWS sends the current status, then streams updates
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if err := c.WriteJSON(s.status(s.ctrl.Snapshot())); err != nil {
		return
	}
	if client := hub.NewClient(s.statusHub, c); client != nil {
		client.Run()
	}
}

// handlePreviewWS streams JPEG preview frames
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	if client := hub.NewClient(s.previewHub, c); client != nil {
		client.Run()
	}
}
