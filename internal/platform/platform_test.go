package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, SupportedOS(runtime.GOOS), info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestValidateSupport(t *testing.T) {
	if IsSupported() {
		assert.NoError(t, ValidateSupport())
	} else {
		assert.Error(t, ValidateSupport())
	}
}
