package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "dev.agentos.studio", cfg.App.Identifier)
	assert.Equal(t, "127.0.0.1:1430", cfg.IPC.Addr())
	assert.Equal(t, 30*time.Second, cfg.Updater.Timeout)
	assert.Equal(t, []string{"$APPDATA/**", "$TEMP/**"}, cfg.FS.Scope)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.App.Identifier, cfg.App.Identifier)
	assert.Equal(t, def.IPC.Port, cfg.IPC.Port)
	assert.Equal(t, def.FS.Scope, cfg.FS.Scope)
	assert.Equal(t, def.RateLimit.Burst, cfg.RateLimit.Burst)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("STUDIO_IDENTIFIER", "com.example.app")
	t.Setenv("IPC_PORT", "9999")
	t.Setenv("UPDATER_ENDPOINTS", "https://a.example/{{target}},https://b.example/latest.json")
	t.Setenv("UPDATER_TIMEOUT", "5s")
	t.Setenv("SHELL_ALLOW", "git,ls")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "com.example.app", cfg.App.Identifier)
	assert.Equal(t, "9999", cfg.IPC.Port)
	assert.Equal(t, []string{"https://a.example/{{target}}", "https://b.example/latest.json"}, cfg.Updater.Endpoints)
	assert.Equal(t, 5*time.Second, cfg.Updater.Timeout)
	assert.Equal(t, []string{"git", "ls"}, cfg.Shell.Allow)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "fast")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestResolveDataDir(t *testing.T) {
	dir, err := AppConfig{DataDir: "/opt/studio"}.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/opt/studio", dir)
}

func TestSingleInstanceResolveDir(t *testing.T) {
	assert.Equal(t, "/run/lock", SingleInstanceConfig{Dir: "/run/lock"}.ResolveDir())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, os.TempDir(), SingleInstanceConfig{}.ResolveDir())
}

func TestDefaultManifestHasMainWindow(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	require.Len(t, m.Windows, 1)
	assert.Equal(t, "main", m.Windows[0].Label)
}

func TestLoadManifestFormats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"app.toml": `
product_name = "Demo"

[[windows]]
label = "main"
width = 1024

[[windows]]
label = "settings"
title = "Settings"
`,
		"app.yaml": `
product_name: Demo
windows:
  - label: main
    width: 1024
  - label: settings
    title: Settings
`,
		"app.json": `{"product_name":"Demo","windows":[{"label":"main","width":1024},{"label":"settings","title":"Settings"}]}`,
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			m, err := LoadManifest(path)
			require.NoError(t, err)

			assert.Equal(t, "Demo", m.ProductName)
			require.Len(t, m.Windows, 2)
			assert.Equal(t, "main", m.Windows[0].Label)
			assert.Equal(t, "Demo", m.Windows[0].Title)
			assert.Equal(t, 1024, m.Windows[0].Width)
			assert.Equal(t, 600, m.Windows[0].Height)
			assert.Equal(t, "Settings", m.Windows[1].Title)
		})
	}
}

func TestLoadManifestRejectsDuplicateLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("windows:\n  - label: main\n  - label: main\n"), 0o644))

	_, err := LoadManifest(path)
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestLoadManifestUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := LoadManifest(path)
	assert.ErrorIs(t, err, ErrInvalidManifest)
}
