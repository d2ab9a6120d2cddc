//go:build linux

package fan

import (
	"os"
	"path/filepath"
	"strings"
)

// hwmonPWMMax is the full-speed value of hwmon pwm attributes
const hwmonPWMMax = 255

// newPlatformDuty returns the duty file at path, or the first hwmon PWM
// control when path does not exist
func newPlatformDuty(path string) DutyDevice {
	if _, err := os.Stat(path); err == nil {
		return NewSysfsDuty(path)
	}
	if pwm := discoverPWM(); len(pwm) > 0 {
		return &SysfsDuty{Path: pwm[0], Max: hwmonPWMMax}
	}
	return NewSysfsDuty(path)
}

// discoverPWM finds base hwmon PWM control files (pwm1, pwm2, ...)
func discoverPWM() []string {
	var paths []string
	matches, err := filepath.Glob("/sys/class/hwmon/hwmon*/pwm*")
	if err != nil {
		return nil
	}
	for _, match := range matches {
		// Skip pwm1_enable, pwm1_mode and friends
		baseName := filepath.Base(match)
		if !strings.HasPrefix(baseName, "pwm") || strings.Contains(baseName, "_") {
			continue
		}
		if _, err := os.Stat(match); err == nil {
			paths = append(paths, match)
		}
	}
	return paths
}
