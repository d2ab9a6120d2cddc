// Package remote serves the curve editor to remote canvases over websocket.
package remote

import (
	"errors"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/fan"
	"github.com/CristiGvl/picoFanCtl/internal/preset"
	"github.com/CristiGvl/picoFanCtl/internal/render"
)

// Message is an inbound editor websocket payload.
type Message struct {
	T       string  `json:"t"`
	ID      string  `json:"id,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	W       float64 `json:"w,omitempty"`
	H       float64 `json:"h,omitempty"`
	Density float64 `json:"density,omitempty"`
	Idx     int     `json:"idx,omitempty"`
	Value   int     `json:"value,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Name    string  `json:"name,omitempty"`
}

// Outbound is a message sent to the canvas.
type Outbound struct {
	T         string        `json:"t"`
	Scene     *render.Scene `json:"scene,omitempty"`
	Idx       *int          `json:"idx,omitempty"`
	Temp      *int          `json:"temp,omitempty"`
	Fan       *int          `json:"fan,omitempty"`
	Exclusive *bool         `json:"exclusive,omitempty"`
	Duty      *int          `json:"duty,omitempty"`
	Percent   *int          `json:"percent,omitempty"`
	Enabled   *bool         `json:"enabled,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	ID        string        `json:"id,omitempty"`
	Name      string        `json:"name,omitempty"`
}

func intp(v int) *int { return &v }
func boolp(v bool) *bool { return &v }

func frameMsg(scene render.Scene) Outbound {
	return Outbound{T: "frame", Scene: &scene}
}

func pointMsg(idx int, p curve.TempPoint) Outbound {
	return Outbound{T: "point", Idx: intp(idx), Temp: intp(p.Temperature), Fan: intp(p.Fan)}
}

func captureMsg(exclusive bool) Outbound {
	return Outbound{T: "capture", Exclusive: boolp(exclusive)}
}

func statusMsg(st fan.Status) Outbound {
	return Outbound{
		T:       "status",
		Temp:    intp(st.TemperatureCelsius),
		Duty:    intp(st.Duty),
		Percent: intp(st.Percent),
		Enabled: boolp(st.Enabled),
	}
}

func loadedMsg(p preset.Preset) Outbound {
	return Outbound{T: "loaded", ID: p.ID, Name: p.Name}
}

func errorMsg(err error) Outbound {
	return Outbound{T: "error", Kind: ErrorKind(err), Message: err.Error()}
}

// ErrorKind names the error class reported to clients
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, curve.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, curve.ErrInvalidCurve):
		return "invalid_curve"
	case errors.Is(err, fan.ErrChannelUnavailable):
		return "channel_unavailable"
	case errors.Is(err, preset.ErrNotFound):
		return "not_found"
	case errors.Is(err, preset.ErrReadOnly):
		return "read_only"
	case errors.Is(err, preset.ErrParseFailure):
		return "parse_failure"
	default:
		return "internal"
	}
}
