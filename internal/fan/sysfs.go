package fan

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/CristiGvl/picoFanCtl/internal/curve"
)

// SysfsDuty reads and writes a single PWM attribute file. Max is the raw
// value of the file at full speed.
type SysfsDuty struct {
	Path string
	Max  int
}

// NewSysfsDuty creates a duty device over a file holding raw driver duty
func NewSysfsDuty(path string) *SysfsDuty {
	return &SysfsDuty{Path: path, Max: curve.FullScaleDuty}
}

// ReadDuty returns the current duty scaled to curve.FullScaleDuty
func (d *SysfsDuty) ReadDuty(ctx context.Context) (int, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid duty value in %s: %w", d.Path, err)
	}
	return d.fromRaw(value), nil
}

// WriteDuty drives the fan at duty, given in curve.FullScaleDuty units
func (d *SysfsDuty) WriteDuty(ctx context.Context, duty int) error {
	duty = clampDuty(duty)
	if err := os.WriteFile(d.Path, []byte(strconv.Itoa(d.toRaw(duty))), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	return nil
}

func (d *SysfsDuty) fromRaw(v int) int {
	if d.Max <= 0 || d.Max == curve.FullScaleDuty {
		return v
	}
	return v * curve.FullScaleDuty / d.Max
}

func (d *SysfsDuty) toRaw(duty int) int {
	if d.Max <= 0 || d.Max == curve.FullScaleDuty {
		return duty
	}
	return duty * d.Max / curve.FullScaleDuty
}

func clampDuty(duty int) int {
	if duty < 0 {
		return 0
	}
	if duty > curve.FullScaleDuty {
		return curve.FullScaleDuty
	}
	return duty
}
