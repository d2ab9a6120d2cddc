//go:build windows

package temps

import (
	"context"
	"fmt"

	"github.com/StackExchange/wmi"
)

// WindowsReader reads ACPI thermal zones through WMI
type WindowsReader struct{}

// newPlatformReader creates a new Windows temperature reader
func newPlatformReader() Reader {
	return &WindowsReader{}
}

// Win32_PerfRawData_Counters_ThermalZoneInformation represents thermal zone data
type Win32_PerfRawData_Counters_ThermalZoneInformation struct {
	Name        string
	Temperature uint64
}

// ReadMilliCelsius returns the hottest plausible thermal zone
func (r *WindowsReader) ReadMilliCelsius(ctx context.Context) (int, error) {
	var zones []Win32_PerfRawData_Counters_ThermalZoneInformation
	if err := wmi.Query("SELECT * FROM Win32_PerfRawData_Counters_ThermalZoneInformation", &zones); err != nil {
		return 0, fmt.Errorf("failed to query thermal zones: %w", err)
	}

	best := -1
	for _, zone := range zones {
		// Tenths of Kelvin
		milli := int(zone.Temperature)*100 - 273150

		// Skip unrealistic temperatures
		if milli < -50000 || milli > 150000 {
			continue
		}
		if milli > best {
			best = milli
		}
	}

	if best < 0 {
		return 0, fmt.Errorf("no thermal zones found")
	}
	return best, nil
}
