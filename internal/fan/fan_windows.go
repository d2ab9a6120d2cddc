//go:build windows

package fan

import (
	"context"
	"fmt"
	"os"
)

// windowsDuty reports that duty control needs a driver-exposed file
type windowsDuty struct {
	path string
}

// newPlatformDuty uses the duty file when a driver exposes one
func newPlatformDuty(path string) DutyDevice {
	if _, err := os.Stat(path); err == nil {
		return NewSysfsDuty(path)
	}
	return windowsDuty{path: path}
}

// ReadDuty returns an error since Win32_Fan does not expose duty
func (d windowsDuty) ReadDuty(ctx context.Context) (int, error) {
	return 0, fmt.Errorf("%w: no duty file at %s", ErrChannelUnavailable, d.path)
}

// WriteDuty returns an error since Win32_Fan does not expose duty
func (d windowsDuty) WriteDuty(ctx context.Context, duty int) error {
	return fmt.Errorf("%w: no duty file at %s", ErrChannelUnavailable, d.path)
}
