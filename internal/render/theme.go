package render

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an RGBA color serialized as #rrggbbaa
type Color struct {
	R, G, B, A uint8
}

// Hex parses #rrggbb or #aarrggbb, the second form carrying alpha first
func Hex(s string) Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return Color{}
	}
	c := Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	if len(s) == 9 {
		c.A = uint8(v >> 24)
	}
	return c
}

// NRGBA returns the non-premultiplied image color
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// MarshalJSON encodes the color as a CSS hex string
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON reads the #rrggbbaa form written by MarshalJSON
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 9 {
		return fmt.Errorf("invalid color %q", s)
	}
	*c = Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return nil
}

// Theme selects the palette for a draw pass
type Theme struct {
	Dark bool `yaml:"dark" json:"dark"`
}

type palette struct {
	background, grid, axis, text, point, curve, fill Color
}

var (
	lightPalette = palette{
		background: Hex("#F5F5F5"),
		grid:       Hex("#E0E0E0"),
		axis:       Hex("#666666"),
		text:       Hex("#666666"),
		point:      Hex("#FFFFFF"),
		curve:      Hex("#2196F3"),
		fill:       Hex("#402196F3"),
	}
	darkPalette = palette{
		background: Hex("#1E1E1E"),
		grid:       Hex("#333333"),
		axis:       Hex("#888888"),
		text:       Hex("#AAAAAA"),
		point:      Hex("#E0E0E0"),
		curve:      Hex("#4FC3F7"),
		fill:       Hex("#504FC3F7"),
	}
)

// Style is a theme resolved for one draw pass
type Style struct {
	Background Color `json:"background"`
	Grid       Color `json:"grid"`
	Axis       Color `json:"axis"`
	Text       Color `json:"text"`
	Point      Color `json:"point"`
	Curve      Color `json:"curve"`
	Fill       Color `json:"fill"`

	GridWidth      float64 `json:"grid_width"`
	AxisWidth      float64 `json:"axis_width"`
	CurveWidth     float64 `json:"curve_width"`
	RingWidth      float64 `json:"ring_width"`
	PointRadius    float64 `json:"point_radius"`
	SelectedRadius float64 `json:"selected_radius"`
	TextSize       float64 `json:"text_size"`
	LabelGap       float64 `json:"label_gap"`
}

// Resolve produces the style for the given screen density
func (t Theme) Resolve(density float64) Style {
	if density <= 0 {
		density = 1
	}
	p := lightPalette
	if t.Dark {
		p = darkPalette
	}

	return Style{
		Background:     p.background,
		Grid:           p.grid,
		Axis:           p.axis,
		Text:           p.text,
		Point:          p.point,
		Curve:          p.curve,
		Fill:           p.fill,
		GridWidth:      1.5 * density,
		AxisWidth:      2.5 * density,
		CurveWidth:     3.5 * density,
		RingWidth:      2.5 * density,
		PointRadius:    16 * density,
		SelectedRadius: 20 * density,
		TextSize:       10 * density,
		LabelGap:       6 * density,
	}
}
