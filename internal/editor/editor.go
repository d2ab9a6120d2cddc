// Package editor turns pointer gestures into edits of a fan curve.
//
// An Editor is driven from a single event loop and is not safe for
// concurrent use.
package editor

import (
	"math"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// State is the gesture state of an editor
type State int

const (
	StateIdle State = iota
	StateArmed
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

const (
	DefaultTouchSlopDP = 8
	DefaultToleranceDP = 60
)

// Config holds editor tuning values
type Config struct {
	Density     float64 `yaml:"density"`
	TouchSlopDP float64 `yaml:"touch_slop_dp"`
	ToleranceDP float64 `yaml:"tolerance_dp"`
	// ClearSelectionOnRelease drops the selected point on pointer up.
	ClearSelectionOnRelease bool `yaml:"clear_selection_on_release"`
}

// DefaultConfig returns the editor defaults for a density of 1
func DefaultConfig() Config {
	return Config{
		Density:                 1,
		TouchSlopDP:             DefaultTouchSlopDP,
		ToleranceDP:             DefaultToleranceDP,
		ClearSelectionOnRelease: true,
	}
}

// NoPoint marks an empty selection
const NoPoint = -1

// Selection describes the selected point and gesture progress
type Selection struct {
	Index           int     `json:"index"`
	Dragging        bool    `json:"dragging"`
	MovedBeyondSlop bool    `json:"moved_beyond_slop"`
	AnchorX         float64 `json:"anchor_x"`
	AnchorY         float64 `json:"anchor_y"`
}

// HasPoint reports whether a point is selected
func (s Selection) HasPoint() bool {
	return s.Index != NoPoint
}

// GestureArbiter grants exclusive pointer ownership while a point is dragged
type GestureArbiter interface {
	RequestExclusive()
	Release()
}

// Editor applies pointer gestures to a curve
type Editor struct {
	curve     *curve.Curve
	mapper    *Mapper
	cfg       Config
	state     State
	sel       Selection
	arbiter   GestureArbiter
	exclusive bool
	observers observers
}

// New creates an editor over c. The editor mutates c in place.
func New(c *curve.Curve, m *Mapper, cfg Config) *Editor {
	if cfg.Density <= 0 {
		cfg.Density = 1
	}
	return &Editor{
		curve:  c,
		mapper: m,
		cfg:    cfg,
		sel:    Selection{Index: NoPoint},
	}
}

// SetArbiter installs the gesture arbiter asked for exclusive ownership
func (e *Editor) SetArbiter(a GestureArbiter) {
	e.arbiter = a
}

// SetCurve replaces the edited curve and resets any gesture in progress
func (e *Editor) SetCurve(c *curve.Curve) {
	e.PointerCancel()
	e.curve = c
	e.clearSelection()
}

// SetDensity updates the density used for hit testing and slop
func (e *Editor) SetDensity(density float64) {
	if density > 0 {
		e.cfg.Density = density
	}
}

// Curve returns the edited curve
func (e *Editor) Curve() *curve.Curve {
	return e.curve
}

// Mapper returns the coordinate mapper
func (e *Editor) Mapper() *Mapper {
	return e.mapper
}

// State returns the current gesture state
func (e *Editor) State() State {
	return e.state
}

// Selection returns the current selection
func (e *Editor) Selection() Selection {
	return e.sel
}

// HitTest returns the index of the closest point within the tolerance
// radius, or NoPoint. Ties go to the lowest index.
func (e *Editor) HitTest(x, y float64) int {
	tolerance := e.cfg.ToleranceDP * e.cfg.Density
	best := NoPoint
	bestDist := math.Inf(1)

	for i := 0; i < e.curve.Len(); i++ {
		px, py := e.mapper.PointXY(e.curve.Point(i))
		d := math.Hypot(x-px, y-py)
		if d <= tolerance && d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// PointerDown starts a gesture. It reports whether a point was hit.
func (e *Editor) PointerDown(x, y float64) bool {
	if e.state != StateIdle {
		e.PointerCancel()
	}

	idx := e.HitTest(x, y)
	if idx == NoPoint {
		if e.sel.HasPoint() {
			e.clearSelection()
			e.observers.emit(Event{Kind: PointDeselected, Index: NoPoint})
		}
		return false
	}

	e.state = StateArmed
	e.sel = Selection{Index: idx, AnchorX: x, AnchorY: y}
	e.observers.emit(Event{Kind: PointSelected, Index: idx, Point: e.curve.Point(idx)})
	return true
}

// PointerMove advances a gesture. It reports whether the curve changed.
func (e *Editor) PointerMove(x, y float64) bool {
	switch e.state {
	case StateArmed:
		slop := e.cfg.TouchSlopDP * e.cfg.Density
		if math.Hypot(x-e.sel.AnchorX, y-e.sel.AnchorY) < slop {
			return false
		}
		e.state = StateDragging
		e.sel.Dragging = true
		e.sel.MovedBeyondSlop = true
		e.requestExclusive()
		return e.applyMove(x, y)
	case StateDragging:
		return e.applyMove(x, y)
	default:
		return false
	}
}

// PointerUp ends a gesture
func (e *Editor) PointerUp(x, y float64) {
	e.release()
}

// PointerCancel aborts a gesture without applying the final position
func (e *Editor) PointerCancel() {
	e.release()
}

// SetTemperature applies a manually entered temperature to a point
func (e *Editor) SetTemperature(index, value int) error {
	before := e.curve.Points()
	if err := e.curve.SetTemperature(index, value); err != nil {
		return err
	}
	e.emitChanged(index, before)
	return nil
}

// SetDuty applies a manually entered fan percent to a point
func (e *Editor) SetDuty(index, value int) error {
	before := e.curve.Points()
	if err := e.curve.SetDuty(index, value); err != nil {
		return err
	}
	e.emitChanged(index, before)
	return nil
}

func (e *Editor) applyMove(x, y float64) bool {
	x, y = e.mapper.Clamp(x, y)
	temp := e.mapper.XToTemp(x)
	fan := e.mapper.YToDuty(y)

	before := e.curve.Points()
	if _, err := e.curve.InsertOrClamp(e.sel.Index, temp, fan); err != nil {
		return false
	}
	e.emitChanged(e.sel.Index, before)
	return true
}

// emitChanged notifies the edited point first, then every point the
// monotonic cascade raised.
func (e *Editor) emitChanged(index int, before []curve.TempPoint) {
	e.observers.emit(Event{Kind: PointChanged, Index: index, Point: e.curve.Point(index)})
	for i := 0; i < e.curve.Len(); i++ {
		if i == index || (i < len(before) && before[i] == e.curve.Point(i)) {
			continue
		}
		e.observers.emit(Event{Kind: PointChanged, Index: i, Point: e.curve.Point(i)})
	}
}

func (e *Editor) release() {
	if e.state == StateIdle {
		return
	}
	e.state = StateIdle
	e.sel.Dragging = false
	e.releaseExclusive()

	if !e.cfg.ClearSelectionOnRelease {
		return
	}
	e.clearSelection()
	e.observers.emit(Event{Kind: PointDeselected, Index: NoPoint})
}

func (e *Editor) clearSelection() {
	e.sel = Selection{Index: NoPoint}
}

func (e *Editor) requestExclusive() {
	if e.arbiter != nil && !e.exclusive {
		e.arbiter.RequestExclusive()
		e.exclusive = true
	}
}

func (e *Editor) releaseExclusive() {
	if e.arbiter != nil && e.exclusive {
		e.arbiter.Release()
	}
	e.exclusive = false
}
