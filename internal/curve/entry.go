package curve

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for manual entries outside the allowed bounds
var ErrOutOfRange = errors.New("value out of range")

// Field names a point attribute for manual entry
type Field string

const (
	FieldTemperature Field = "temperature"
	FieldFan         Field = "fan"
)

// RangeError describes a rejected manual entry and the bound it broke
type RangeError struct {
	Field Field
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	switch e.Field {
	case FieldTemperature:
		if e.Min == MinTemperature && e.Max == MaxTemperature {
			return fmt.Sprintf("temperature must be %d-%d°C", e.Min, e.Max)
		}
		return fmt.Sprintf("temperature must be between %d and %d°C", e.Min, e.Max)
	default:
		if e.Min == MinPercent {
			return fmt.Sprintf("fan speed must be %d-%d%%", e.Min, e.Max)
		}
		return fmt.Sprintf("fan speed must be at least %d%%", e.Min)
	}
}

// Is reports RangeError as ErrOutOfRange
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// SetTemperature applies a manually entered temperature to point index
func (c *Curve) SetTemperature(index, value int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if value < MinTemperature || value > MaxTemperature {
		return &RangeError{Field: FieldTemperature, Value: value, Min: MinTemperature, Max: MaxTemperature}
	}

	lo, hi := c.TemperatureBounds(index)
	if value < lo || value > hi {
		return &RangeError{Field: FieldTemperature, Value: value, Min: lo, Max: hi}
	}

	c.points[index].Temperature = value
	return nil
}

// SetDuty applies a manually entered fan percent to point index.
// With monotonic duty the value may not go below the previous point and
// later points are raised to match.
func (c *Curve) SetDuty(index, value int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if value < MinPercent || value > MaxPercent {
		return &RangeError{Field: FieldFan, Value: value, Min: MinPercent, Max: MaxPercent}
	}

	if minFan := c.MinFan(index); value < minFan {
		return &RangeError{Field: FieldFan, Value: value, Min: minFan, Max: MaxPercent}
	}

	c.points[index].Fan = value
	c.cascade(index)
	return nil
}

func (c *Curve) checkIndex(index int) error {
	if index < 0 || index >= len(c.points) {
		return fmt.Errorf("point index %d out of range [0,%d)", index, len(c.points))
	}
	return nil
}
