package singleinstance

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

func newCoordinator(t *testing.T, dir string) *Coordinator {
	t.Helper()
	c, err := New(Options{Identifier: "dev.agentos.test", Dir: dir, Timeout: time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRejectsBadIdentifier(t *testing.T) {
	for _, ident := range []string{"", "a/b", `a\b`} {
		_, err := New(Options{Identifier: ident}, nil)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, ident)
	}
}

func TestAcquirePrimary(t *testing.T) {
	dir := t.TempDir()
	c := newCoordinator(t, dir)
	assert.Equal(t, StateUnregistered, c.State())

	require.NoError(t, c.Acquire(context.Background(), types.RelaunchEvent{}))
	assert.Equal(t, StateListening, c.State())
	assert.FileExists(t, filepath.Join(dir, "dev.agentos.test.lock"))

	// Idempotent while listening
	require.NoError(t, c.Acquire(context.Background(), types.RelaunchEvent{}))
}

func TestSecondaryRelaysToPrimary(t *testing.T) {
	dir := t.TempDir()
	primary := newCoordinator(t, dir)
	require.NoError(t, primary.Acquire(context.Background(), types.RelaunchEvent{}))

	secondary := newCoordinator(t, dir)
	launch := types.RelaunchEvent{Args: []string{"--foo"}, WorkingDirectory: "/tmp"}
	err := secondary.Acquire(context.Background(), launch)
	require.ErrorIs(t, err, ErrSecondaryInstance)
	assert.Equal(t, StateUnregistered, secondary.State())

	select {
	case ev := <-primary.Events():
		assert.Equal(t, launch, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("primary did not receive relaunch")
	}

	select {
	case ev := <-primary.Events():
		t.Fatalf("unexpected second event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSecondaryWithoutListener(t *testing.T) {
	dir := t.TempDir()
	primary := newCoordinator(t, dir)
	require.NoError(t, primary.Acquire(context.Background(), types.RelaunchEvent{}))

	// Listener gone but lock still held: the relay fails, the role does not change
	require.NoError(t, primary.listener.Close())

	secondary := newCoordinator(t, dir)
	err := secondary.Acquire(context.Background(), types.RelaunchEvent{Args: []string{"x"}})
	assert.ErrorIs(t, err, ErrSecondaryInstance)
}

func TestCloseReleasesRole(t *testing.T) {
	dir := t.TempDir()
	first := newCoordinator(t, dir)
	require.NoError(t, first.Acquire(context.Background(), types.RelaunchEvent{}))
	require.NoError(t, first.Close())
	assert.Equal(t, StateUnregistered, first.State())

	_, open := <-first.Events()
	assert.False(t, open)

	second := newCoordinator(t, dir)
	require.NoError(t, second.Acquire(context.Background(), types.RelaunchEvent{}))
	assert.Equal(t, StateListening, second.State())
}

func TestStaleSocketIsReplaced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.agentos.test.sock"), nil, 0o600))

	c := newCoordinator(t, dir)
	require.NoError(t, c.Acquire(context.Background(), types.RelaunchEvent{}))
}

func TestNotifyWithoutPrimary(t *testing.T) {
	err := Notify(context.Background(), filepath.Join(t.TempDir(), "missing.sock"), types.RelaunchEvent{}, 100*time.Millisecond)
	assert.Error(t, err)
}

func TestNotifyWaitsForLateListener(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "late.sock")
	launch := types.RelaunchEvent{Args: []string{"--foo"}, WorkingDirectory: "/tmp"}

	done := make(chan error, 1)
	go func() { done <- Notify(context.Background(), socket, launch, 2*time.Second) }()

	time.Sleep(100 * time.Millisecond)
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	defer ln.Close()

	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "--foo")
	_, err = conn.Write([]byte(ack + "\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("notify did not return")
	}
}

func TestCurrentLaunch(t *testing.T) {
	ev := CurrentLaunch()
	assert.Equal(t, os.Args, ev.Args)
	wd, _ := os.Getwd()
	assert.Equal(t, wd, ev.WorkingDirectory)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unregistered", StateUnregistered.String())
	assert.Equal(t, "listening", StateListening.String())
	assert.Equal(t, "unknown", State(9).String())
}
