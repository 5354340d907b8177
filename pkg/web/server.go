// Package web serves the live emotion display: a small HTTP API plus
// websocket feeds for camera frames and per-frame results.
package web

import (
	"bytes"
	"context"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-emoscan/internal/log"
	"github.com/teslashibe/go-emoscan/pkg/camera"
	"github.com/teslashibe/go-emoscan/pkg/hub"
	"github.com/teslashibe/go-emoscan/pkg/scanner"
)

// Server is the display server
type Server struct {
	app  *fiber.App
	port string
	log  *slog.Logger

	scanner *scanner.Scanner
	cameras *camera.Manager

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	cameraHub *hub.Hub

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// NewServer creates a display server around sc. Camera settings changed
// through the API restart a running scan so they apply at once; otherwise
// they are used by the next scan start. staticDir may be empty.
func NewServer(port string, sc *scanner.Scanner, cameras *camera.Manager, staticDir string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:      port,
		log:       log.Component("web"),
		scanner:   sc,
		cameras:   cameras,
		statusHub: hub.New("status"),
		cameraHub: hub.New("camera"),
		ctx:       ctx,
		cancel:    cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               "emoscan",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	if staticDir != "" {
		app.Static("/", staticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/feeds", s.handleFeeds)
	api.Post("/scan/start", s.handleScanStart)
	api.Post("/scan/stop", s.handleScanStop)
	api.Get("/snapshot", s.handleSnapshot)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app

	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	s.unsubscribe = sc.Subscribe(s.publish)
	cameras.OnChange = s.applyCamera

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the web server. It blocks until Shutdown.
func (s *Server) Start() error {
	s.log.Info("display server listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown stops the scan, the feeds and the HTTP server.
func (s *Server) Shutdown() error {
	s.unsubscribe()
	if err := s.scanner.Stop(); err != nil {
		s.log.Warn("stop scan on shutdown", "error", err)
	}
	s.cancel()
	return s.app.Shutdown()
}

// applyCamera hands new settings to the scanner and reopens the camera if
// a scan is running. The restarted scan gets a new session.
func (s *Server) applyCamera(cfg camera.Config) error {
	s.scanner.SetCamera(cfg)
	if !s.scanner.Running() {
		return nil
	}
	s.log.Info("restarting scan with new camera settings",
		"device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	if err := s.scanner.Stop(); err != nil {
		s.log.Warn("release camera for restart", "error", err)
	}
	return s.scanner.Start(s.ctx)
}

// publish forwards a scanner update to the feeds. Frames are only encoded
// when someone is watching.
func (s *Server) publish(u scanner.Update) {
	if err := s.statusHub.BroadcastJSON(u); err != nil {
		s.log.Warn("encode status", "error", err)
	}
	if u.Frame == nil || s.cameraHub.ClientCount() == 0 {
		return
	}
	data, err := s.encodeJPEG(u.Frame)
	if err != nil {
		s.log.Warn("encode frame", "error", err)
		return
	}
	s.cameraHub.BroadcastBinary(data)
}

func (s *Server) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := s.cameras.Config().Quality
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
