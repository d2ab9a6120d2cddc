package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
	"github.com/google/uuid"
)

const (
	DefaultID   = "default"
	DefaultName = "Default"
	// DefaultCustomName names presets saved without a name
	DefaultCustomName = "Custom Preset"
)

var (
	// ErrParseFailure marks stored preset text that could not be decoded
	ErrParseFailure = errors.New("preset parse failure")
	// ErrNotFound is returned for unknown preset ids
	ErrNotFound = errors.New("preset not found")
	// ErrReadOnly is returned when changing the built-in preset
	ErrReadOnly = errors.New("preset is read-only")
)

// Preset represents a named fan curve
type Preset struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Points []curve.TempPoint `json:"points"`
}

// Default returns the built-in preset
func Default() Preset {
	return Preset{
		ID:   DefaultID,
		Name: DefaultName,
		Points: []curve.TempPoint{
			{Temperature: 20, Fan: 0},
			{Temperature: 50, Fan: 10},
			{Temperature: 70, Fan: 15},
			{Temperature: 80, Fan: 20},
		},
	}
}

// New creates a preset with a fresh id
func New(name string, points []curve.TempPoint) Preset {
	p := Preset{ID: uuid.NewString(), Name: name, Points: append([]curve.TempPoint(nil), points...)}
	p.sortPoints()
	return p
}

// IsDefault reports whether p is the built-in preset
func (p Preset) IsDefault() bool {
	return p.ID == DefaultID
}


// ModifiesDefault reports whether p claims the built-in id but carries
// other points than the built-in curve
func (p Preset) ModifiesDefault() bool {
	if !p.IsDefault() {
		return false
	}
	q := Preset{Points: append([]curve.TempPoint(nil), p.Points...)}
	q.sortPoints()
	return !slices.Equal(q.Points, Default().Points)
}

// Curve builds an editable curve from the preset points
func (p Preset) Curve(opts curve.Options) (*curve.Curve, error) {
	return curve.New(p.Points, opts)
}

// MaxFan returns the highest fan percent of the preset
func (p Preset) MaxFan() int {
	maxFan := 0
	for _, pt := range p.Points {
		if pt.Fan > maxFan {
			maxFan = pt.Fan
		}
	}
	return maxFan
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (max %d%%)", p.Name, p.MaxFan())
}

func (p *Preset) sortPoints() {
	sort.SliceStable(p.Points, func(i, j int) bool {
		return p.Points[i].Temperature < p.Points[j].Temperature
	})
}

// record mirrors the stored form; pointers tell missing fields from zero values
type record struct {
	ID     string             `json:"id,omitempty"`
	Name   *string            `json:"name"`
	Points *[]curve.TempPoint `json:"points"`
}

// Encode serializes a preset to its stored text form
func Encode(p Preset) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode preset %s: %w", p.ID, err)
	}
	return string(data), nil
}

// Decode parses stored preset text. Records without an id get a new one and
// synthesized reports that. Malformed text yields Default and an error
// matching ErrParseFailure.
func Decode(text string) (p Preset, synthesized bool, err error) {
	var rec record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return Default(), false, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if rec.Name == nil || rec.Points == nil {
		return Default(), false, fmt.Errorf("%w: missing name or points", ErrParseFailure)
	}

	p = Preset{ID: rec.ID, Name: *rec.Name, Points: *rec.Points}
	if p.ID == "" {
		p.ID = uuid.NewString()
		synthesized = true
	}
	p.sortPoints()
	return p, synthesized, nil
}
