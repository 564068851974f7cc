package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestForModeDebugIsVerbose(t *testing.T) {
	logger, err := ForMode(platform.BuildMode{Profile: platform.ProfileDebug, Platform: platform.PlatformDesktop}, "", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestForModeReleaseDefaultsToInfo(t *testing.T) {
	logger, err := ForMode(platform.BuildMode{Profile: platform.ProfileRelease, Platform: platform.PlatformDesktop}, "", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestForModeLevelOverride(t *testing.T) {
	logger, err := ForMode(platform.BuildMode{Profile: platform.ProfileDebug, Platform: platform.PlatformMobile}, "warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNamedKeepsCore(t *testing.T) {
	logger := NewNop().Named("bootstrap")
	assert.NotNil(t, logger.Logger)
}
