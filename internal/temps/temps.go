package temps

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultZonePath is the thermal zone read before falling back to platform sensors
const DefaultZonePath = "/sys/class/thermal/thermal_zone0/temp"

// Reader reads the temperature driving the fan curve
type Reader interface {
	ReadMilliCelsius(ctx context.Context) (int, error)
}

// ZoneReader reads a millidegree thermal zone file, falling back to the
// platform sensors when the file cannot be read
type ZoneReader struct {
	path     string
	fallback Reader
}

// NewReader creates a temperature reader for the current platform
func NewReader(zonePath string) Reader {
	return &ZoneReader{path: zonePath, fallback: newPlatformReader()}
}

// ReadMilliCelsius returns the current temperature in millidegrees Celsius
func (r *ZoneReader) ReadMilliCelsius(ctx context.Context) (int, error) {
	if r.path != "" {
		value, err := readZone(r.path)
		if err == nil {
			return value, nil
		}
		if r.fallback == nil {
			return 0, err
		}
	}
	if r.fallback == nil {
		return 0, fmt.Errorf("no temperature source configured")
	}
	return r.fallback.ReadMilliCelsius(ctx)
}

func readZone(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read thermal zone: %w", err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid thermal zone value: %w", err)
	}
	return value, nil
}

// containsAny reports whether str contains any of substrings
func containsAny(str string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(str, substr) {
			return true
		}
	}
	return false
}
