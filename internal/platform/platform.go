package platform

import (
	"fmt"
	"runtime"
)

// SupportedOS represents supported operating systems
type SupportedOS string

const (
	Linux   SupportedOS = "linux"
	Android SupportedOS = "android"
	Windows SupportedOS = "windows"
)

// Info describes the host for health reports
type Info struct {
	OS   SupportedOS `json:"os"`
	Arch string      `json:"arch"`
}

// GetOS returns the current operating system
func GetOS() SupportedOS {
	return SupportedOS(runtime.GOOS)
}

// GetInfo returns the operating system and architecture
func GetInfo() Info {
	return Info{OS: GetOS(), Arch: runtime.GOARCH}
}

// IsSupported returns true if the current OS is supported
func IsSupported() bool {
	switch GetOS() {
	case Linux, Android, Windows:
		return true
	default:
		return false
	}
}

// ValidateSupport returns an error if the current OS is not supported
func ValidateSupport() error {
	if !IsSupported() {
		return fmt.Errorf("unsupported operating system: %s. Supported: linux, android, windows", runtime.GOOS)
	}
	return nil
}
