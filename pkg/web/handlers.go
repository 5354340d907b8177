package web

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/hub"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
)

// handleStatus returns the status panel
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.scanner.Status())
}

// handleFeeds reports viewer counts and drop counters per websocket feed
func (s *Server) handleFeeds(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"camera": s.cameraHub.Stats(),
		"status": s.statusHub.Stats(),
	})
}

// handleScanStart opens the camera with the current settings and starts
// scanning
func (s *Server) handleScanStart(c *fiber.Ctx) error {
	s.scanner.SetCamera(s.cameras.Config())

	err := s.scanner.Start(s.ctx)
	switch {
	case errors.Is(err, scanner.ErrRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, camera.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.scanner.Status())
}

// handleScanStop stops scanning and freezes the last frame
func (s *Server) handleScanStop(c *fiber.Ctx) error {
	if err := s.scanner.Stop(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.scanner.Status())
}

// handleSnapshot returns the latest (or frozen) annotated frame as JPEG
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	shot, ok := s.scanner.Snapshot()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no frame captured"})
	}
	data, err := s.encodeJPEG(shot.Frame)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set("X-Emotion", shot.Text)
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

// handleGetCamera returns the camera config and available presets
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"config":  s.cameras.Config(),
		"presets": camera.Presets(),
		"active":  s.scanner.Running(),
	})
}

// handleSetCamera updates camera settings. A running scan is restarted
// with them; if the camera cannot reopen, the old settings are kept and the
// scan stays stopped
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	var patch camera.Patch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.cameras.Update(patch); err != nil {
		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, camera.ErrInvalidConfig):
			status = fiber.StatusBadRequest
		case errors.Is(err, camera.ErrUnavailable):
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	s.log.Info("camera config updated", "config", s.cameras.Config())
	return s.handleGetCamera(c)
}

// handleCameraWS streams annotated frames as binary JPEG messages
func (s *Server) handleCameraWS(c *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, c)
	if client == nil {
		return
	}
	client.Run()
}

// handleStatusWS streams per-frame results as JSON, starting with the
// current status panel
func (s *Server) handleStatusWS(c *websocket.Conn) {
	greeting, err := json.Marshal(s.scanner.Status())
	if err != nil {
		s.log.Warn("encode status", "error", err)
		return
	}
	client := hub.NewClient(s.statusHub, c, hub.NewJSONMessage(greeting))
	if client == nil {
		return
	}
	client.Run()
}
