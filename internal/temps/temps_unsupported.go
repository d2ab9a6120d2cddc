//go:build !linux && !windows

package temps

import (
	"context"
	"fmt"
)

// UnsupportedReader is a fallback for unsupported platforms
type UnsupportedReader struct{}

// newPlatformReader creates a fallback temperature reader for unsupported platforms
func newPlatformReader() Reader {
	return &UnsupportedReader{}
}

// ReadMilliCelsius returns an error for unsupported platforms
func (r *UnsupportedReader) ReadMilliCelsius(ctx context.Context) (int, error) {
	return 0, fmt.Errorf("temperature monitoring not supported on this platform")
}
