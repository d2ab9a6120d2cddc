package editor

import (
	"math"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// GraphArea is the plotting rectangle in surface pixels
type GraphArea struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the area
func (a GraphArea) Width() float64 {
	return a.Right - a.Left
}

// Height returns the vertical extent of the area
func (a GraphArea) Height() float64 {
	return a.Bottom - a.Top
}

// Padding is the space around the graph area in density-independent units
type Padding struct {
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
}

// DefaultPadding leaves room for tick labels on the left and bottom
var DefaultPadding = Padding{Left: 45, Top: 30, Right: 15, Bottom: 35}

// Mapper converts between curve coordinates and surface pixels
type Mapper struct {
	padding Padding
	density float64
	width   float64
	height  float64
	area    GraphArea
}

// NewMapper creates a mapper for the given padding and screen density
func NewMapper(padding Padding, density float64) *Mapper {
	if density <= 0 {
		density = 1
	}
	return &Mapper{padding: padding, density: density}
}

// Resize recomputes the graph area for a new surface size. It reports
// whether the area changed.
func (m *Mapper) Resize(width, height float64) bool {
	if width == m.width && height == m.height {
		return false
	}
	m.width, m.height = width, height
	m.area = GraphArea{
		Left:   m.padding.Left * m.density,
		Top:    m.padding.Top * m.density,
		Right:  math.Max(m.padding.Left*m.density, width-m.padding.Right*m.density),
		Bottom: math.Max(m.padding.Top*m.density, height-m.padding.Bottom*m.density),
	}
	return true
}

// SetDensity changes the density multiplier and recomputes the area
func (m *Mapper) SetDensity(density float64) {
	if density <= 0 || density == m.density {
		return
	}
	m.density = density
	w, h := m.width, m.height
	m.width, m.height = -1, -1
	m.Resize(w, h)
}

// Density returns the current density multiplier
func (m *Mapper) Density() float64 {
	return m.density
}

// Size returns the surface size last passed to Resize
func (m *Mapper) Size() (float64, float64) {
	return m.width, m.height
}

// Area returns the current graph area
func (m *Mapper) Area() GraphArea {
	return m.area
}

// TempToX maps a temperature to a surface x coordinate
func (m *Mapper) TempToX(temp int) float64 {
	span := float64(curve.MaxTemperature - curve.MinTemperature)
	return m.area.Left + float64(temp-curve.MinTemperature)/span*m.area.Width()
}

// XToTemp maps a surface x coordinate to the nearest whole temperature
func (m *Mapper) XToTemp(x float64) int {
	w := m.area.Width()
	if w <= 0 {
		return curve.MinTemperature
	}
	span := float64(curve.MaxTemperature - curve.MinTemperature)
	return curve.MinTemperature + int(math.Round((x-m.area.Left)/w*span))
}

// DutyToY maps a fan percent to a surface y coordinate, growing upwards
func (m *Mapper) DutyToY(fan int) float64 {
	return m.area.Bottom - float64(fan)/float64(curve.MaxPercent)*m.area.Height()
}

// YToDuty maps a surface y coordinate to the nearest whole fan percent
func (m *Mapper) YToDuty(y float64) int {
	h := m.area.Height()
	if h <= 0 {
		return curve.MinPercent
	}
	return int(math.Round((m.area.Bottom - y) / h * float64(curve.MaxPercent)))
}

// Clamp constrains a surface point to the graph area
func (m *Mapper) Clamp(x, y float64) (float64, float64) {
	return clampFloat(x, m.area.Left, m.area.Right), clampFloat(y, m.area.Top, m.area.Bottom)
}

// PointXY maps a curve point to surface coordinates
func (m *Mapper) PointXY(p curve.TempPoint) (float64, float64) {
	return m.TempToX(p.Temperature), m.DutyToY(p.Fan)
}

// Dp converts density-independent units to pixels
func (m *Mapper) Dp(v float64) float64 {
	return v * m.density
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
