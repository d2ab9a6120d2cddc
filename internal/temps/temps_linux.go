//go:build linux

package temps

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// LinuxReader reads hwmon sensors through gopsutil
type LinuxReader struct{}

// newPlatformReader creates a new Linux temperature reader
func newPlatformReader() Reader {
	return &LinuxReader{}
}

// ReadMilliCelsius returns the hottest CPU sensor, or the hottest sensor
// when none is labelled as a CPU
func (r *LinuxReader) ReadMilliCelsius(ctx context.Context) (int, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return 0, fmt.Errorf("failed to read sensors: %w", err)
	}

	cpu, hottest := -1.0, -1.0
	for _, temp := range temps {
		if temp.Temperature <= 0 {
			continue
		}
		if temp.Temperature > hottest {
			hottest = temp.Temperature
		}
		if containsAny(strings.ToLower(temp.SensorKey), []string{"cpu", "core", "package", "k10temp", "soc"}) && temp.Temperature > cpu {
			cpu = temp.Temperature
		}
	}

	switch {
	case cpu >= 0:
		return int(cpu * 1000), nil
	case hottest >= 0:
		return int(hottest * 1000), nil
	default:
		return 0, fmt.Errorf("no temperature sensors found")
	}
}
