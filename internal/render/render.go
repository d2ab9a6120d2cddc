// Package render draws a fan curve as an ordered list of primitives.
package render

import (
	"fmt"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/CristiGvl/picoFanCtl/internal/editor"
)

// Layer groups primitives by draw pass, in painting order
type Layer int

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerAxes
	LayerLabels
	LayerFill
	LayerStroke
	LayerRings
	LayerDisks
	LayerSelected
)

// Kind is the shape of a primitive
type Kind string

const (
	KindRect     Kind = "rect"
	KindLine     Kind = "line"
	KindPolyline Kind = "polyline"
	KindPolygon  Kind = "polygon"
	KindCircle   Kind = "circle"
	KindText     Kind = "text"
)

// Align is the horizontal anchor of a text primitive
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Point is a surface coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Primitive is a single drawing instruction
type Primitive struct {
	Layer  Layer   `json:"layer"`
	Kind   Kind    `json:"kind"`
	Points []Point `json:"points,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Filled bool    `json:"filled,omitempty"`
	Color  Color   `json:"color"`
	Text   string  `json:"text,omitempty"`
	Align  Align   `json:"align,omitempty"`
	Size   float64 `json:"size,omitempty"`
}

// Scene is the full output of one draw pass
type Scene struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Primitives []Primitive `json:"primitives"`
}

// Options selects the rendering variant
type Options struct {
	// ExtendToDomainEdge draws the first and last duty flat to 0°C and 100°C.
	ExtendToDomainEdge bool `yaml:"extend_to_domain_edge" json:"extend_to_domain_edge"`
	TempStep           int  `yaml:"temp_step" json:"temp_step"`
	FanStep            int  `yaml:"fan_step" json:"fan_step"`
}

// DefaultOptions returns the default rendering variant
func DefaultOptions() Options {
	return Options{ExtendToDomainEdge: true, TempStep: 10, FanStep: 10}
}

// Render draws c through m. selected is the highlighted point index or
// editor.NoPoint.
func Render(c *curve.Curve, m *editor.Mapper, selected int, style Style, opts Options) Scene {
	if opts.TempStep <= 0 {
		opts.TempStep = 10
	}
	if opts.FanStep <= 0 {
		opts.FanStep = 10
	}

	w, h := m.Size()
	r := &renderer{mapper: m, style: style, opts: opts}

	r.background(w, h)
	r.grid()
	r.axes()
	r.labels()
	if c != nil && c.Len() > 0 {
		path := r.path(c)
		r.fill(path)
		r.stroke(path)
		r.markers(c, selected)
	}

	return Scene{Width: w, Height: h, Primitives: r.out}
}

type renderer struct {
	mapper *editor.Mapper
	style  Style
	opts   Options
	out    []Primitive
}

func (r *renderer) add(p Primitive) {
	r.out = append(r.out, p)
}

func (r *renderer) background(w, h float64) {
	r.add(Primitive{
		Layer:  LayerBackground,
		Kind:   KindRect,
		Points: []Point{{0, 0}, {w, h}},
		Filled: true,
		Color:  r.style.Background,
	})
}

func (r *renderer) grid() {
	area := r.mapper.Area()
	for t := curve.MinTemperature; t <= curve.MaxTemperature; t += r.opts.TempStep {
		x := r.mapper.TempToX(t)
		r.line(LayerGrid, x, area.Top, x, area.Bottom, r.style.GridWidth, r.style.Grid)
	}
	for f := curve.MinPercent; f <= curve.MaxPercent; f += r.opts.FanStep {
		y := r.mapper.DutyToY(f)
		r.line(LayerGrid, area.Left, y, area.Right, y, r.style.GridWidth, r.style.Grid)
	}
}

func (r *renderer) axes() {
	area := r.mapper.Area()
	r.line(LayerAxes, area.Left, area.Top, area.Left, area.Bottom, r.style.AxisWidth, r.style.Axis)
	r.line(LayerAxes, area.Left, area.Bottom, area.Right, area.Bottom, r.style.AxisWidth, r.style.Axis)
}

func (r *renderer) labels() {
	area := r.mapper.Area()
	_, h := r.mapper.Size()
	gap := r.style.LabelGap

	for f := curve.MinPercent; f <= curve.MaxPercent; f += r.opts.FanStep {
		y := r.mapper.DutyToY(f)
		r.text(fmt.Sprintf("%d%%", f), area.Left-gap, y+r.style.TextSize/3, AlignRight)
	}
	for t := curve.MinTemperature; t <= curve.MaxTemperature; t += r.opts.TempStep {
		x := r.mapper.TempToX(t)
		r.text(fmt.Sprintf("%d°", t), x, h-gap, AlignCenter)
	}
}

// path returns the curve polyline, extended to the domain edges when enabled
func (r *renderer) path(c *curve.Curve) []Point {
	pts := make([]Point, 0, c.Len()+2)
	first, last := c.Point(0), c.Point(c.Len()-1)

	if r.opts.ExtendToDomainEdge && first.Temperature > curve.MinTemperature {
		pts = append(pts, Point{r.mapper.TempToX(curve.MinTemperature), r.mapper.DutyToY(first.Fan)})
	}
	for i := 0; i < c.Len(); i++ {
		x, y := r.mapper.PointXY(c.Point(i))
		pts = append(pts, Point{x, y})
	}
	if r.opts.ExtendToDomainEdge && last.Temperature < curve.MaxTemperature {
		pts = append(pts, Point{r.mapper.TempToX(curve.MaxTemperature), r.mapper.DutyToY(last.Fan)})
	}
	return pts
}

func (r *renderer) fill(path []Point) {
	if len(path) < 2 {
		return
	}
	bottom := r.mapper.Area().Bottom
	poly := make([]Point, 0, len(path)+2)
	poly = append(poly, path...)
	poly = append(poly, Point{path[len(path)-1].X, bottom}, Point{path[0].X, bottom})

	r.add(Primitive{Layer: LayerFill, Kind: KindPolygon, Points: poly, Filled: true, Color: r.style.Fill})
}

func (r *renderer) stroke(path []Point) {
	if len(path) < 2 {
		return
	}
	r.add(Primitive{Layer: LayerStroke, Kind: KindPolyline, Points: path, Width: r.style.CurveWidth, Color: r.style.Curve})
}

// markers draws unselected rings, then unselected disks, then the selected point on top
func (r *renderer) markers(c *curve.Curve, selected int) {
	for i := 0; i < c.Len(); i++ {
		if i == selected {
			continue
		}
		x, y := r.mapper.PointXY(c.Point(i))
		r.circle(LayerRings, x, y, r.style.PointRadius, false, r.style.Point)
	}
	for i := 0; i < c.Len(); i++ {
		if i == selected {
			continue
		}
		x, y := r.mapper.PointXY(c.Point(i))
		r.circle(LayerDisks, x, y, r.style.PointRadius-r.style.RingWidth, true, r.style.Point)
	}
	if selected >= 0 && selected < c.Len() {
		x, y := r.mapper.PointXY(c.Point(selected))
		r.circle(LayerSelected, x, y, r.style.SelectedRadius, true, r.style.Curve)
		r.circle(LayerSelected, x, y, r.style.SelectedRadius, false, r.style.Point)
	}
}

func (r *renderer) line(layer Layer, x1, y1, x2, y2, width float64, c Color) {
	r.add(Primitive{Layer: layer, Kind: KindLine, Points: []Point{{x1, y1}, {x2, y2}}, Width: width, Color: c})
}

func (r *renderer) circle(layer Layer, x, y, radius float64, filled bool, c Color) {
	p := Primitive{Layer: layer, Kind: KindCircle, Points: []Point{{x, y}}, Radius: radius, Filled: filled, Color: c}
	if !filled {
		p.Width = r.style.RingWidth
	}
	r.add(p)
}

func (r *renderer) text(s string, x, y float64, align Align) {
	r.add(Primitive{
		Layer:  LayerLabels,
		Kind:   KindText,
		Points: []Point{{x, y}},
		Text:   s,
		Align:  align,
		Size:   r.style.TextSize,
		Color:  r.style.Text,
	})
}
