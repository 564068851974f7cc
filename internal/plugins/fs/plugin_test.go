package fs

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

func newPlugin(t *testing.T) (*Plugin, string) {
	t.Helper()
	dataDir := t.TempDir()
	scope, err := NewScope([]string{"$APPDATA/**"}, map[string]string{"APPDATA": dataDir}, dataDir)
	require.NoError(t, err)
	return New(scope), dataDir
}

func run(t *testing.T, p *Plugin, command string, params map[string]interface{}) *types.Result {
	t.Helper()
	result, err := p.Execute(context.Background(), command, params, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestWriteAndReadText(t *testing.T) {
	p, dir := newPlugin(t)

	result := run(t, p, "fs.write_text_file", map[string]interface{}{"path": "notes.txt", "contents": "hello"})
	require.True(t, result.Success)
	result = run(t, p, "fs.write_text_file", map[string]interface{}{"path": "notes.txt", "contents": " world", "append": true})
	require.True(t, result.Success)

	result = run(t, p, "fs.read_text_file", map[string]interface{}{"path": filepath.Join(dir, "notes.txt")})
	require.True(t, result.Success)
	assert.Equal(t, "hello world", result.Data["contents"])
}

func TestWriteAndReadBinary(t *testing.T) {
	p, _ := newPlugin(t)
	payload := base64.StdEncoding.EncodeToString([]byte{0, 1, 2, 255})

	result := run(t, p, "fs.write_file", map[string]interface{}{"path": "blob.bin", "contents": payload})
	require.True(t, result.Success)

	result = run(t, p, "fs.read_file", map[string]interface{}{"path": "blob.bin"})
	require.True(t, result.Success)
	assert.Equal(t, payload, result.Data["contents"])

	result = run(t, p, "fs.write_file", map[string]interface{}{"path": "bad.bin", "contents": "%%%"})
	assert.False(t, result.Success)
}

func TestScopeRejectsOutsidePaths(t *testing.T) {
	p, _ := newPlugin(t)
	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	for _, params := range []map[string]interface{}{
		{"path": outside},
		{"path": "../escape.txt"},
	} {
		result := run(t, p, "fs.read_text_file", params)
		assert.False(t, result.Success)
		assert.Contains(t, *result.Error, ErrOutOfScope.Error())
	}

	result := run(t, p, "fs.copy_file", map[string]interface{}{"from": "a", "to": outside})
	assert.False(t, result.Success)
}

func TestScopeFollowsSymlinks(t *testing.T) {
	p, dir := newPlugin(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o600))
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result := run(t, p, "fs.read_text_file", map[string]interface{}{"path": "link/secret.txt"})
	assert.False(t, result.Success)
	assert.Contains(t, *result.Error, ErrOutOfScope.Error())

	result = run(t, p, "fs.write_text_file", map[string]interface{}{"path": "link/new.txt", "contents": "x"})
	assert.False(t, result.Success)
	assert.NoFileExists(t, filepath.Join(outside, "new.txt"))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "inside")))
	result = run(t, p, "fs.write_text_file", map[string]interface{}{"path": "inside/ok.txt", "contents": "x"})
	assert.True(t, result.Success)
	assert.FileExists(t, filepath.Join(dir, "real", "ok.txt"))
}

func TestReadDir(t *testing.T) {
	p, dir := newPlugin(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "one.txt"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "two.txt"), []byte("22"), 0o644))

	result := run(t, p, "fs.read_dir", map[string]interface{}{"path": "a"})
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Data["count"])

	result = run(t, p, "fs.read_dir", map[string]interface{}{"path": "a", "recursive": true})
	require.True(t, result.Success)
	entries := result.Data["entries"].([]Entry)
	require.Len(t, entries, 3)
	assert.Equal(t, filepath.Join(dir, "a", "b"), entries[0].Path)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, filepath.Join(dir, "a", "b", "two.txt"), entries[1].Path)
	assert.Equal(t, int64(2), entries[1].Size)
	assert.Equal(t, filepath.Join(dir, "a", "one.txt"), entries[2].Path)
}

func TestStatDetectsMime(t *testing.T) {
	p, dir := newPlugin(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte("<!DOCTYPE html><html><body>hi</body></html>"), 0o644))

	result := run(t, p, "fs.stat", map[string]interface{}{"path": "page.html"})
	require.True(t, result.Success)
	assert.Equal(t, true, result.Data["is_file"])
	assert.Contains(t, result.Data["mime_type"], "text/html")
}

func TestDirectoryLifecycle(t *testing.T) {
	p, dir := newPlugin(t)

	assert.False(t, run(t, p, "fs.mkdir", map[string]interface{}{"path": "x/y"}).Success)
	require.True(t, run(t, p, "fs.mkdir", map[string]interface{}{"path": "x/y", "recursive": true}).Success)
	assert.DirExists(t, filepath.Join(dir, "x", "y"))

	require.True(t, run(t, p, "fs.write_text_file", map[string]interface{}{"path": "x/y/f.txt", "contents": "data"}).Success)
	require.True(t, run(t, p, "fs.copy_file", map[string]interface{}{"from": "x/y/f.txt", "to": "x/copy.txt"}).Success)
	require.True(t, run(t, p, "fs.rename", map[string]interface{}{"from": "x/copy.txt", "to": "x/moved.txt"}).Success)

	result := run(t, p, "fs.exists", map[string]interface{}{"path": "x/moved.txt"})
	assert.Equal(t, true, result.Data["exists"])
	result = run(t, p, "fs.exists", map[string]interface{}{"path": "x/copy.txt"})
	assert.Equal(t, false, result.Data["exists"])

	assert.False(t, run(t, p, "fs.remove", map[string]interface{}{"path": "x"}).Success)
	require.True(t, run(t, p, "fs.remove", map[string]interface{}{"path": "x", "recursive": true}).Success)
	assert.NoDirExists(t, filepath.Join(dir, "x"))
}

func TestNewScopeValidation(t *testing.T) {
	_, err := NewScope([]string{"$NOPE/**"}, map[string]string{}, "")
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = NewScope([]string{"/tmp/[unclosed"}, nil, "")
	assert.ErrorIs(t, err, ErrInvalidPattern)

	scope, err := NewScope([]string{"$HOME/Docs/**", " ", "/opt/app/*.txt"}, map[string]string{"HOME": "/home/u"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/u/Docs/**", "/opt/app/*.txt"}, scope.Patterns())
	assert.True(t, scope.Allowed("/home/u/Docs/a/b.md"))
	assert.True(t, scope.Allowed("/opt/app/readme.txt"))
	assert.False(t, scope.Allowed("/opt/app/sub/readme.txt"))

	_, err = scope.Resolve("relative.txt")
	assert.ErrorIs(t, err, ErrOutOfScope)
}

func TestUnknownCommand(t *testing.T) {
	p, _ := newPlugin(t)
	_, err := p.Execute(context.Background(), "fs.chmod", nil, nil)
	assert.ErrorIs(t, err, capability.ErrUnknownCommand)
}
