package api

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/CristiGvl/picoFanCtl/internal/render"
	"github.com/gofiber/fiber/v2"
)

// presetRequest is the body of preset create and update calls
type presetRequest struct {
	Name   string            `json:"name"`
	Points []curve.TempPoint `json:"points"`
}

// presetView is a preset as listed to clients
type presetView struct {
	preset.Preset
	MaxFan  int    `json:"max_fan"`
	Label   string `json:"label"`
	Builtin bool   `json:"builtin"`
}

func viewOf(p preset.Preset) presetView {
	return presetView{Preset: p, MaxFan: p.MaxFan(), Label: p.String(), Builtin: p.IsDefault()}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, curve.ErrInvalidCurve), errors.Is(err, curve.ErrOutOfRange):
		return fiber.StatusBadRequest
	case errors.Is(err, preset.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, preset.ErrReadOnly):
		return fiber.StatusForbidden
	case errors.Is(err, fan.ErrChannelUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

// Status endpoint
func (s *Server) getStatus(c *fiber.Ctx) error {
	if s.poller.Running() {
		if st, ok, err := s.poller.Last(); ok && err == nil {
			return c.JSON(st)
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	st, err := s.poller.Poll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

// Duty evaluation endpoint
func (s *Server) evaluateDuty(c *fiber.Ctx) error {
	var req struct {
		MilliCelsius int    `json:"millicelsius"`
		PresetID     string `json:"preset_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	var p preset.Preset
	var err error
	if req.PresetID == "" {
		p, err = s.svc.Current(ctx)
	} else {
		p, err = s.svc.Preset(ctx, req.PresetID)
	}
	if err != nil {
		return fail(c, err)
	}

	cv, err := p.Curve(s.svc.Options())
	if err != nil {
		return fail(c, err)
	}
	duty := cv.DutyForTemperature(req.MilliCelsius)
	return c.JSON(fiber.Map{
		"preset_id": p.ID,
		"duty":      duty,
		"percent":   curve.DutyToPercent(duty),
	})
}

// Preset endpoints
func (s *Server) listPresets(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	presets, err := s.svc.Presets(ctx)
	if err != nil {
		return fail(c, err)
	}
	current, err := s.svc.Current(ctx)
	if err != nil {
		return fail(c, err)
	}

	views := make([]presetView, len(presets))
	for i, p := range presets {
		views[i] = viewOf(p)
	}
	return c.JSON(fiber.Map{"presets": views, "current_id": current.ID})
}

func (s *Server) getPreset(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Preset(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(viewOf(p))
}

func (s *Server) createPreset(c *fiber.Ctx) error {
	var req presetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Create(ctx, req.Name, req.Points)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(viewOf(p))
}

func (s *Server) updatePreset(c *fiber.Ctx) error {
	var req presetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Update(ctx, preset.Preset{ID: c.Params("id"), Name: req.Name, Points: req.Points})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(viewOf(p))
}

func (s *Server) deletePreset(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	if err := s.svc.Delete(ctx, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (s *Server) applyPreset(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Apply(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(viewOf(p))
}

// Curve image endpoint
func (s *Server) presetImage(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Preset(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	cv, err := p.Curve(s.svc.Options())
	if err != nil {
		return fail(c, err)
	}

	width := c.QueryInt("w", s.opts.ImageWidth)
	height := c.QueryInt("h", s.opts.ImageHeight)
	if width <= 0 || height <= 0 || width > 4096 || height > 4096 {
		return c.Status(400).JSON(fiber.Map{"error": "image size must be 1-4096"})
	}
	theme := s.opts.Theme
	theme.Dark = c.QueryBool("dark", theme.Dark)

	m := editor.NewMapper(s.opts.Padding, s.opts.Density)
	m.Resize(float64(width), float64(height))
	scene := render.Render(cv, m, editor.NoPoint, theme.Resolve(s.opts.Density), s.opts.Render)

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, scene); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(buf.Bytes())
}

// Fan control endpoints
func (s *Server) enableControl(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.svc.Enable(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "enabled": true, "preset": viewOf(p)})
}

func (s *Server) disableControl(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	if err := s.svc.Disable(ctx); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "enabled": false})
}

// Quick toggle endpoints
func (s *Server) toggleLabel(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	label, err := s.toggle.Label(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"label": label})
}

func (s *Server) activateToggle(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	res, err := s.toggle.Activate(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

func (s *Server) selectToggle(c *fiber.Ctx) error {
	ctx, cancel := requestContext()
	defer cancel()

	p, err := s.toggle.Select(ctx, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(viewOf(p))
}
