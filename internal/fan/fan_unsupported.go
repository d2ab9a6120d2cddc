//go:build !linux && !windows

package fan

import (
	"context"
	"fmt"
)

// unsupportedDuty is a fallback for unsupported platforms
type unsupportedDuty struct{}

// newPlatformDuty creates a fallback duty device for unsupported platforms
func newPlatformDuty(path string) DutyDevice {
	return unsupportedDuty{}
}

// ReadDuty returns an error for unsupported platforms
func (unsupportedDuty) ReadDuty(ctx context.Context) (int, error) {
	return 0, fmt.Errorf("%w: fan control not supported on this platform", ErrChannelUnavailable)
}

// WriteDuty returns an error for unsupported platforms
func (unsupportedDuty) WriteDuty(ctx context.Context, duty int) error {
	return fmt.Errorf("%w: fan control not supported on this platform", ErrChannelUnavailable)
}
