package api

import (
	"context"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/platform"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/CristiGvl/picoFanCtl/internal/status"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Options configures curve images and status polling
type Options struct {
	Theme        render.Theme
	Render       render.Options
	Padding      editor.Padding
	Density      float64
	ImageWidth   int
	ImageHeight  int
	PollInterval time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Render:       render.DefaultOptions(),
		Padding:      editor.DefaultPadding,
		Density:      1,
		ImageWidth:   800,
		ImageHeight:  500,
		PollInterval: status.DefaultInterval,
	}
}

// Server represents the API server
type Server struct {
	app    *fiber.App
	svc    *control.Service
	toggle *control.Toggle
	poller *status.Poller
	opts   Options
	cancel context.CancelFunc
}

// NewServer creates a new API server
func NewServer(svc *control.Service, opts Options) (*Server, error) {
	// Validate platform support
	if err := platform.ValidateSupport(); err != nil {
		return nil, err
	}
	if opts.Density <= 0 {
		opts.Density = 1
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        120 * time.Second,
		DisableKeepalive:   false,
		EnableIPValidation: false,
		ServerHeader:       "picoFanCtl",
		AppName:            "picoFanCtl v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "*",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length,Content-Type",
		MaxAge:           86400, // 24 hours
	}))

	server := &Server{
		app:    app,
		svc:    svc,
		toggle: control.NewToggle(svc),
		poller: status.NewPoller(svc.Channel(), opts.PollInterval, nil),
		opts:   opts,
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	// Live state
	api.Get("/status", s.getStatus)
	api.Post("/duty", s.evaluateDuty)

	// Preset library
	api.Get("/presets", s.listPresets)
	api.Post("/presets", s.createPreset)
	api.Get("/presets/:id", s.getPreset)
	api.Put("/presets/:id", s.updatePreset)
	api.Delete("/presets/:id", s.deletePreset)
	api.Post("/presets/:id/apply", s.applyPreset)
	api.Get("/presets/:id/curve.png", s.presetImage)

	// Fan control
	api.Post("/control/enable", s.enableControl)
	api.Post("/control/disable", s.disableControl)

	// Quick toggle
	api.Get("/toggle", s.toggleLabel)
	api.Post("/toggle", s.activateToggle)
	api.Post("/toggle/select/:id", s.selectToggle)

	// Health check
	api.Get("/health", s.healthCheck)
}

// Start begins status polling and starts the API server
func (s *Server) Start(address string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.poller.Start(ctx)
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.poller.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}

// Health check endpoint
func (s *Server) healthCheck(c *fiber.Ctx) error {
	info := platform.GetInfo()
	return c.JSON(fiber.Map{
		"status":    "ok",
		"platform":  info.OS,
		"arch":      info.Arch,
		"timestamp": time.Now().Unix(),
	})
}
