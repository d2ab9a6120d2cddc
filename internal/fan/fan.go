package fan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// ErrChannelUnavailable is returned when the fan controller cannot be reached
var ErrChannelUnavailable = errors.New("fan control channel unavailable")

// Channel is the hardware side of fan control
type Channel interface {
	ApplyCurve(ctx context.Context, points []curve.TempPoint) error
	SetEnabled(ctx context.Context, enabled bool) error
	IsEnabled(ctx context.Context) (bool, error)
	CurrentDuty(ctx context.Context) (int, error)
	CurrentTemperatureMilliCelsius(ctx context.Context) (int, error)
	SetActivePreset(ctx context.Context, id, name string) error
	// ActivePresetID reports ok=false when no preset has been recorded.
	ActivePresetID(ctx context.Context) (id string, ok bool, err error)
}

// DutyReader reads the raw duty currently driven to the fan
type DutyReader interface {
	ReadDuty(ctx context.Context) (int, error)
}

// DutyWriter drives the fan at a raw duty
type DutyWriter interface {
	WriteDuty(ctx context.Context, duty int) error
}

// DutyDevice is a PWM output that can be read back
type DutyDevice interface {
	DutyReader
	DutyWriter
}

// NewDutyDevice returns the duty device for the current platform. path is
// the preferred raw duty file.
func NewDutyDevice(path string) DutyDevice {
	return newPlatformDuty(path)
}

// Status is a snapshot of the controller state
type Status struct {
	Enabled            bool   `json:"enabled"`
	Duty               int    `json:"duty"`
	Percent            int    `json:"speed_percent"`
	TemperatureMilliC  int    `json:"temperature_millicelsius"`
	TemperatureCelsius int    `json:"temperature_celsius"`
	ActivePresetID     string `json:"active_preset_id,omitempty"`
}

// ReadStatus queries every status value from ch
func ReadStatus(ctx context.Context, ch Channel) (Status, error) {
	var st Status
	var err error

	if st.Enabled, err = ch.IsEnabled(ctx); err != nil {
		return st, err
	}
	if st.Duty, err = ch.CurrentDuty(ctx); err != nil {
		return st, err
	}
	if st.TemperatureMilliC, err = ch.CurrentTemperatureMilliCelsius(ctx); err != nil {
		return st, err
	}
	st.Percent = curve.DutyToPercent(st.Duty)
	st.TemperatureCelsius = st.TemperatureMilliC / 1000

	id, ok, err := ch.ActivePresetID(ctx)
	if err != nil {
		return st, err
	}
	if ok {
		st.ActivePresetID = id
	}
	return st, nil
}

// FormatCurve serializes points as "temp:fan,temp:fan"
func FormatCurve(points []curve.TempPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%d:%d", p.Temperature, p.Fan)
	}
	return strings.Join(parts, ",")
}

// ParseCurve reads the FormatCurve representation
func ParseCurve(s string) ([]curve.TempPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var points []curve.TempPoint
	for _, pair := range strings.Split(s, ",") {
		t, f, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("invalid curve pair %q", pair)
		}
		temp, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("invalid curve temperature %q: %w", t, err)
		}
		fan, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid curve fan %q: %w", f, err)
		}
		points = append(points, curve.TempPoint{Temperature: temp, Fan: fan})
	}
	return points, nil
}
