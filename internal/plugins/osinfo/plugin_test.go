package osinfo

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
)

func TestPlatformAndArch(t *testing.T) {
	p := New()
	ctx := context.Background()

	result, err := p.Execute(ctx, "os.platform", nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, runtime.GOOS, result.Data["value"])

	result, err = p.Execute(ctx, "os.arch", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, runtime.GOARCH, result.Data["value"])
}

func TestInfo(t *testing.T) {
	result, err := New().Execute(context.Background(), "os.info", nil, nil)
	require.NoError(t, err)
	require.True(t, result.Success)

	for _, key := range []string{"platform", "arch", "family", "version", "hostname", "eol"} {
		assert.Contains(t, result.Data, key)
	}
	assert.NotEmpty(t, result.Data["version"])
}

func TestLocale(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
		ok   bool
	}{
		{"lang with charset", map[string]string{"LANG": "en_US.UTF-8"}, "en-US", true},
		{"lc_all wins", map[string]string{"LC_ALL": "de_DE", "LANG": "en_US"}, "de-DE", true},
		{"posix skipped", map[string]string{"LC_ALL": "C", "LANG": "fr_FR@euro"}, "fr-FR", true},
		{"unset", map[string]string{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plugin{lookupEnv: func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			}}
			got, ok := p.locale()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := New().Execute(context.Background(), "os.reboot", nil, nil)
	assert.ErrorIs(t, err, capability.ErrUnknownCommand)
}

func TestDefinitionCommandsArePrefixed(t *testing.T) {
	def := New().Definition()
	assert.Equal(t, ID, def.ID)
	for _, c := range def.Commands {
		assert.Regexp(t, `^os\.`, c.ID)
	}
}
