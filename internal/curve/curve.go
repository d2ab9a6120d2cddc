// Package curve holds the temperature to fan duty model.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

const (
	MinTemperature = 0
	MaxTemperature = 100
	MinPercent     = 0
	MaxPercent     = 100

	// FullScaleDuty is the raw duty value of a fan running at 100%.
	FullScaleDuty = 50000
	// IdleDuty is returned for readings below the first point.
	IdleDuty = FullScaleDuty / 10
)

// ErrInvalidCurve is returned for empty curves or curves breaking ordering rules
var ErrInvalidCurve = errors.New("invalid curve")

// TempPoint represents a single control point of a fan curve
type TempPoint struct {
	Temperature int `json:"temp"`
	Fan         int `json:"fan"`
}

// Duty returns the raw hardware duty for the point
func (p TempPoint) Duty() int {
	return PercentToDuty(p.Fan)
}

// Options selects the editing variant of a curve
type Options struct {
	// EnforceMonotonicDuty keeps fan percent non-decreasing with temperature.
	EnforceMonotonicDuty bool `yaml:"enforce_monotonic_duty" json:"enforce_monotonic_duty"`
}

// Curve is an ordered set of control points
type Curve struct {
	points []TempPoint
	opts   Options
}

// New creates a curve from points, sorted by temperature
func New(points []TempPoint, opts Options) (*Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: curve needs at least one point", ErrInvalidCurve)
	}

	sorted := make([]TempPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Temperature < sorted[j].Temperature
	})

	return &Curve{points: sorted, opts: opts}, nil
}

// MustNew is New for package level literals
func MustNew(points []TempPoint, opts Options) *Curve {
	c, err := New(points, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Options returns the editing variant of the curve
func (c *Curve) Options() Options {
	return c.opts
}

// Len returns the number of points
func (c *Curve) Len() int {
	return len(c.points)
}

// Point returns the point at index i
func (c *Curve) Point(i int) TempPoint {
	return c.points[i]
}

// Points returns a copy of the points in ascending temperature order
func (c *Curve) Points() []TempPoint {
	out := make([]TempPoint, len(c.points))
	copy(out, c.points)
	return out
}

// Clone returns a detached copy of the curve
func (c *Curve) Clone() *Curve {
	return &Curve{points: c.Points(), opts: c.opts}
}

// SortedCopy returns a copy with points stably sorted by temperature
func (c *Curve) SortedCopy() *Curve {
	out := c.Clone()
	sort.SliceStable(out.points, func(i, j int) bool {
		return out.points[i].Temperature < out.points[j].Temperature
	})
	return out
}

// DutyForTemperature returns the raw duty for a reading in millidegrees Celsius.
// The duty of the last point at or below the reading wins; readings below the
// first point get IdleDuty.
func (c *Curve) DutyForTemperature(milliCelsius int) int {
	temp := milliCelsius / 1000

	duty := IdleDuty
	for _, p := range c.points {
		if temp < p.Temperature {
			break
		}
		duty = p.Duty()
	}
	return duty
}

// MaxFan returns the highest fan percent of the curve
func (c *Curve) MaxFan() int {
	maxFan := 0
	for _, p := range c.points {
		if p.Fan > maxFan {
			maxFan = p.Fan
		}
	}
	return maxFan
}

// TemperatureBounds returns the inclusive temperature range point i may take
func (c *Curve) TemperatureBounds(i int) (int, int) {
	lo, hi := MinTemperature, MaxTemperature
	if i > 0 {
		lo = c.points[i-1].Temperature + 1
	}
	if i < len(c.points)-1 {
		hi = c.points[i+1].Temperature - 1
	}
	return lo, hi
}

// MinFan returns the lowest fan percent point i may take
func (c *Curve) MinFan(i int) int {
	if c.opts.EnforceMonotonicDuty && i > 0 {
		return c.points[i-1].Fan
	}
	return MinPercent
}

// InsertOrClamp moves point index towards (temp, fan), clamping both values
// into the range allowed by its neighbours. With monotonic duty, later points
// below the new fan value are raised to it. The applied point is returned.
func (c *Curve) InsertOrClamp(index, temp, fan int) (TempPoint, error) {
	if index < 0 || index >= len(c.points) {
		return TempPoint{}, fmt.Errorf("point index %d out of range [0,%d)", index, len(c.points))
	}

	lo, hi := c.TemperatureBounds(index)
	if lo <= hi {
		temp = clampInt(temp, lo, hi)
	} else {
		temp = c.points[index].Temperature
	}

	fan = clampInt(fan, MinPercent, MaxPercent)
	if c.opts.EnforceMonotonicDuty {
		if minFan := c.MinFan(index); fan < minFan {
			fan = minFan
		}
	}

	c.points[index] = TempPoint{Temperature: temp, Fan: fan}
	c.cascade(index)
	return c.points[index], nil
}

// cascade raises points after index until one already sits at or above it
func (c *Curve) cascade(index int) {
	if !c.opts.EnforceMonotonicDuty {
		return
	}
	fan := c.points[index].Fan
	for j := index + 1; j < len(c.points); j++ {
		if c.points[j].Fan >= fan {
			break
		}
		c.points[j].Fan = fan
	}
}

// Validate checks every invariant of the curve
func (c *Curve) Validate() error {
	if len(c.points) == 0 {
		return fmt.Errorf("%w: curve needs at least one point", ErrInvalidCurve)
	}

	for i, p := range c.points {
		if p.Temperature < MinTemperature || p.Temperature > MaxTemperature {
			return fmt.Errorf("%w: point %d temperature %d outside %d-%d", ErrInvalidCurve, i, p.Temperature, MinTemperature, MaxTemperature)
		}
		if p.Fan < MinPercent || p.Fan > MaxPercent {
			return fmt.Errorf("%w: point %d fan %d outside %d-%d", ErrInvalidCurve, i, p.Fan, MinPercent, MaxPercent)
		}
		if i == 0 {
			continue
		}
		prev := c.points[i-1]
		if p.Temperature <= prev.Temperature {
			return fmt.Errorf("%w: temperatures must be strictly increasing at point %d", ErrInvalidCurve, i)
		}
		if c.opts.EnforceMonotonicDuty && p.Fan < prev.Fan {
			return fmt.Errorf("%w: fan percent must not decrease at point %d", ErrInvalidCurve, i)
		}
	}

	return nil
}

// DutyToPercent converts raw duty to fan percent, truncating
func DutyToPercent(duty int) int {
	return duty * 100 / FullScaleDuty
}

// PercentToDuty converts fan percent to raw duty, truncating
func PercentToDuty(percent int) int {
	return percent * FullScaleDuty / 100
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
