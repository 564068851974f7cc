package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/fs"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/studio/internal/singleinstance"
)

var (
	debugDesktop   = platform.BuildMode{Profile: platform.ProfileDebug, Platform: platform.PlatformDesktop}
	releaseDesktop = platform.BuildMode{Profile: platform.ProfileRelease, Platform: platform.PlatformDesktop}
	debugMobile    = platform.BuildMode{Profile: platform.ProfileDebug, Platform: platform.PlatformMobile}
)

var baseIDs = []string{"shell", "dialog", "fs", "process", "os", "http"}

type stubPlugin struct {
	id string
}

func (s stubPlugin) Definition() types.Capability { return types.Capability{ID: s.id} }

func (s stubPlugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return types.Success(nil)
}

func testDeps(t *testing.T, dir string) Deps {
	t.Helper()
	cfg := config.Default()
	cfg.App.Identifier = "test.studio"
	cfg.App.DataDir = dir
	cfg.SingleInstance.Dir = dir
	return Deps{Config: cfg, DisableIPC: true}
}

func TestBaseCapabilitiesOrder(t *testing.T) {
	plugins, err := BaseCapabilities(testDeps(t, t.TempDir()))
	require.NoError(t, err)

	ids := make([]string, len(plugins))
	for i, p := range plugins {
		ids[i] = p.Definition().ID
	}
	assert.Equal(t, baseIDs, ids)
}

func TestPlatformGate(t *testing.T) {
	tests := []struct {
		mode platform.BuildMode
		want []string
	}{
		{debugMobile, baseIDs},
		{platform.BuildMode{Profile: platform.ProfileRelease, Platform: platform.PlatformMobile}, baseIDs},
		{debugDesktop, append(append([]string{}, baseIDs...), "single-instance", "updater")},
		{releaseDesktop, append(append([]string{}, baseIDs...), "single-instance", "updater")},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			deps := testDeps(t, t.TempDir())
			b, err := Compose(tt.mode, deps)
			require.NoError(t, err)
			require.NoError(t, ApplyPlatformGate(b, tt.mode, deps))
			assert.Equal(t, tt.want, b.IDs())
		})
	}
}

func TestDuplicateCapabilityRejected(t *testing.T) {
	all := append(append([]string{}, baseIDs...), "single-instance", "updater")

	for _, id := range all {
		t.Run(id, func(t *testing.T) {
			deps := testDeps(t, t.TempDir())
			b, err := Compose(debugDesktop, deps)
			require.NoError(t, err)
			require.NoError(t, ApplyPlatformGate(b, debugDesktop, deps))

			_, err = b.Plugin(stubPlugin{id: id}).Build(context.Background())
			assert.ErrorIs(t, err, ErrDuplicateCapability)
		})
	}
}

func TestDuplicateBuildStartsNothing(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)
	b, err := Compose(debugDesktop, deps)
	require.NoError(t, err)
	require.NoError(t, ApplyPlatformGate(b, debugDesktop, deps))
	b.Plugin(stubPlugin{id: "fs"})

	_, err = b.Build(context.Background())
	require.ErrorIs(t, err, ErrDuplicateCapability)

	// the instance lock was never taken
	coord, err := singleinstance.New(singleinstance.Options{Identifier: "test.studio", Dir: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, coord.Acquire(context.Background(), types.RelaunchEvent{}))
	require.NoError(t, coord.Close())
}

func TestSetupOnlyOnce(t *testing.T) {
	b := NewBuilder(host.Options{DisableIPC: true})
	noop := func(*host.App) error { return nil }

	_, err := b.Setup(noop).Setup(noop).Build(context.Background())
	assert.ErrorIs(t, err, ErrSetupAlreadySet)
}

func TestErrorsAccumulate(t *testing.T) {
	b := NewBuilder(host.Options{DisableIPC: true})
	noop := func(*host.App) error { return nil }

	_, err := b.Plugin(stubPlugin{id: "a"}).Plugin(stubPlugin{id: "a"}).Setup(noop).Setup(noop).Build(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateCapability)
	assert.ErrorIs(t, err, ErrSetupAlreadySet)
}

func TestBuilderConsumed(t *testing.T) {
	b := NewBuilder(host.Options{DisableIPC: true})

	app, err := b.Build(context.Background())
	require.NoError(t, err)
	defer app.Close()

	_, err = b.Build(context.Background())
	assert.ErrorIs(t, err, ErrBuilderConsumed)
}

func TestSetupRunsAfterWindowsBeforeLoop(t *testing.T) {
	var labels []string
	b := NewBuilder(host.Options{DisableIPC: true}).Setup(func(app *host.App) error {
		labels = app.Windows().Labels()
		return nil
	})

	app, err := b.Build(context.Background())
	require.NoError(t, err)
	defer app.Close()
	assert.Equal(t, []string{"main"}, labels)
}

func TestSetupFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewBuilder(host.Options{DisableIPC: true}).
		Setup(func(*host.App) error { return boom }).
		Build(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDevtoolsOnlyInDebug(t *testing.T) {
	for _, mode := range platform.Modes() {
		t.Run(mode.String(), func(t *testing.T) {
			app, err := Launch(context.Background(), mode, testDeps(t, t.TempDir()))
			require.NoError(t, err)
			defer app.Close()

			main, ok := app.Window("main")
			require.True(t, ok)
			assert.Equal(t, mode.IsDebug(), main.IsDevtoolsOpen())
		})
	}
}

func TestDevtoolsWithoutMainWindow(t *testing.T) {
	deps := testDeps(t, t.TempDir())
	deps.Manifest = &config.Manifest{Windows: []config.WindowConfig{{Label: "other"}}}

	app, err := Launch(context.Background(), debugMobile, deps)
	require.NoError(t, err)
	defer app.Close()

	other, ok := app.Window("other")
	require.True(t, ok)
	assert.False(t, other.IsDevtoolsOpen())
}

func TestSecondaryInstanceEndToEnd(t *testing.T) {
	dir := t.TempDir()

	depsA := testDeps(t, dir)
	depsA.Launch = func() types.RelaunchEvent { return types.RelaunchEvent{Args: []string{"studio"}, WorkingDirectory: dir} }
	a, err := Launch(context.Background(), debugDesktop, depsA)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	main, ok := a.Window("main")
	require.True(t, ok)
	assert.False(t, main.IsFocused())
	assert.Equal(t, 1, main.DevtoolsOpens())

	depsB := testDeps(t, dir)
	depsB.Launch = func() types.RelaunchEvent { return types.RelaunchEvent{Args: []string{"--foo"}, WorkingDirectory: "/tmp"} }
	b, err := Launch(context.Background(), debugDesktop, depsB)
	require.ErrorIs(t, err, singleinstance.ErrSecondaryInstance)
	assert.Nil(t, b)

	require.Eventually(t, main.IsFocused, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, main.DevtoolsOpens())
	assert.Equal(t, []string{"main"}, a.Windows().Labels())

	cancel()
	require.NoError(t, <-done)
}

func TestSecondaryLaunchInitializesNothing(t *testing.T) {
	dir := t.TempDir()

	a, err := Launch(context.Background(), releaseDesktop, testDeps(t, dir))
	require.NoError(t, err)
	defer a.Close()

	deps := testDeps(t, dir)
	deps.DataDir = filepath.Join(dir, "secondary-data")
	deps.Metrics = monitoring.NewMetrics()
	deps.Metrics.CapabilitiesRegistered.Set(-1)

	b, err := Launch(context.Background(), releaseDesktop, deps)
	require.ErrorIs(t, err, singleinstance.ErrSecondaryInstance)
	assert.Nil(t, b)

	assert.NoDirExists(t, deps.DataDir)
	assert.Equal(t, -1.0, testutil.ToFloat64(deps.Metrics.CapabilitiesRegistered))
}

func TestSecondaryBuildSkipsInitialize(t *testing.T) {
	dir := t.TempDir()

	a, err := Launch(context.Background(), releaseDesktop, testDeps(t, dir))
	require.NoError(t, err)
	defer a.Close()

	recorder := &initRecorder{stubPlugin: stubPlugin{id: "recorder"}}
	deps := testDeps(t, dir)
	b, err := Compose(releaseDesktop, deps)
	require.NoError(t, err)
	require.NoError(t, ApplyPlatformGate(b, releaseDesktop, deps))
	b.Plugin(recorder)

	_, err = b.Build(context.Background())
	require.ErrorIs(t, err, singleinstance.ErrSecondaryInstance)
	assert.False(t, recorder.initialized)
}

func TestFailedLaunchReleasesPrimaryRole(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)
	deps.Config.FS.Scope = []string{"$NOPE/**"}

	_, err := Launch(context.Background(), releaseDesktop, deps)
	require.ErrorIs(t, err, fs.ErrInvalidPattern)

	a, err := Launch(context.Background(), releaseDesktop, testDeps(t, dir))
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

type initRecorder struct {
	stubPlugin
	initialized bool
}

func (r *initRecorder) Initialize(*host.App) error {
	r.initialized = true
	return nil
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, err.Error(), "3")
}
