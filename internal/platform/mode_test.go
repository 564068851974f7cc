package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentIsStable(t *testing.T) {
	assert.Equal(t, Current(), Current())
}

func TestCurrentMatchesBuildTags(t *testing.T) {
	mode := Current()
	assert.Equal(t, buildProfile, mode.Profile)
	assert.Equal(t, buildPlatform, mode.Platform)
}

func TestModePredicates(t *testing.T) {
	tests := []struct {
		mode    BuildMode
		debug   bool
		desktop bool
		str     string
	}{
		{BuildMode{ProfileDebug, PlatformDesktop}, true, true, "debug/desktop"},
		{BuildMode{ProfileDebug, PlatformMobile}, true, false, "debug/mobile"},
		{BuildMode{ProfileRelease, PlatformDesktop}, false, true, "release/desktop"},
		{BuildMode{ProfileRelease, PlatformMobile}, false, false, "release/mobile"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.debug, tt.mode.IsDebug())
			assert.Equal(t, tt.desktop, tt.mode.IsDesktop())
			assert.Equal(t, tt.str, tt.mode.String())
		})
	}
}

func TestModesCoversAllCombinations(t *testing.T) {
	modes := Modes()
	assert.Len(t, modes, 4)

	seen := make(map[BuildMode]bool)
	for _, m := range modes {
		seen[m] = true
	}
	assert.Len(t, seen, 4)
}
