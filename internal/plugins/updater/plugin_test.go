package updater

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []types.Event
}

func (e *captureEmitter) Emit(name, window string, payload interface{}) types.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev := types.Event{Name: name, Window: window, Payload: payload}
	e.events = append(e.events, ev)
	return ev
}

type releaseServer struct {
	*httptest.Server
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
	release Release
	payload []byte
	paths   []string
	mu      sync.Mutex
}

func newReleaseServer(t *testing.T, version string, payload []byte, gz bool) *releaseServer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	rs := &releaseServer{pub: pub, priv: priv, payload: payload}
	name := "/download/studio"
	if gz {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(payload)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		rs.payload = buf.Bytes()
		name += ".gz"
	}

	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.Path)
		rs.mu.Unlock()

		switch r.URL.Path {
		case "/download/studio", "/download/studio.gz":
			_, _ = w.Write(rs.payload)
		case "/none":
			w.WriteHeader(http.StatusNoContent)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			body, _ := sonic.Marshal(rs.release)
			_, _ = w.Write(body)
		}
	}))
	t.Cleanup(rs.Close)

	rs.release = Release{
		Version: version,
		Notes:   "fixes",
		Platforms: map[string]Artifact{
			"linux-x86_64": {
				URL:       rs.URL + name,
				Signature: base64.StdEncoding.EncodeToString(ed25519.Sign(priv, rs.payload)),
			},
		},
	}
	return rs
}

func (rs *releaseServer) key() string {
	return base64.StdEncoding.EncodeToString(rs.pub)
}

func (rs *releaseServer) requested() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.paths...)
}

func newTestPlugin(t *testing.T, rs *releaseServer, endpoints ...string) *Plugin {
	return New(Options{
		Endpoints:      endpoints,
		PublicKey:      rs.key(),
		CurrentVersion: "1.0.0",
		Target:         "linux",
		Arch:           "x86_64",
		StageDir:       t.TempDir(),
	})
}

func TestCheckRendersEndpointAndComparesVersions(t *testing.T) {
	rs := newReleaseServer(t, "1.2.0", []byte("binary"), false)
	p := newTestPlugin(t, rs, rs.URL+"/{{target}}/{{arch}}/{{current_version}}")

	release, available, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, available)
	assert.Equal(t, "1.2.0", release.Version)
	assert.Equal(t, []string{"/linux/x86_64/1.0.0"}, rs.requested())
	assert.Equal(t, "available", p.Status()["state"])
}

func TestCheckUpToDate(t *testing.T) {
	rs := newReleaseServer(t, "0.9.0", nil, false)
	p := newTestPlugin(t, rs, rs.URL+"/latest.json")

	_, available, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, available)
	assert.Equal(t, "up-to-date", p.Status()["state"])

	p = newTestPlugin(t, rs, rs.URL+"/none")
	_, available, err = p.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, available)
}

func TestCheckFallsBackToNextEndpoint(t *testing.T) {
	rs := newReleaseServer(t, "2.0.0", nil, false)
	p := newTestPlugin(t, rs, rs.URL+"/broken", rs.URL+"/latest.json")

	_, available, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, available)
	assert.Equal(t, []string{"/broken", "/latest.json"}, rs.requested())
}

func TestCheckErrors(t *testing.T) {
	rs := newReleaseServer(t, "2.0.0", nil, false)

	_, _, err := newTestPlugin(t, rs).Check(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoints)

	p := newTestPlugin(t, rs, rs.URL+"/broken")
	_, _, err = p.Check(context.Background())
	assert.Error(t, err)
	status := p.Status()
	assert.Equal(t, "failed", status["state"])
	assert.Contains(t, status["error"], "500")
}

func TestDownloadAndInstall(t *testing.T) {
	for _, gz := range []bool{false, true} {
		rs := newReleaseServer(t, "1.1.0", []byte("new build"), gz)
		p := newTestPlugin(t, rs, rs.URL+"/latest.json")
		emitter := &captureEmitter{}
		p.SetEmitter(emitter)

		_, available, err := p.Check(context.Background())
		require.NoError(t, err)
		require.True(t, available)

		result, err := p.Execute(context.Background(), "updater.download_and_install", nil, nil)
		require.NoError(t, err)
		require.True(t, result.Success, result.Error)

		staged := result.Data["path"].(string)
		assert.Equal(t, "studio", filepath.Base(staged))
		content, err := os.ReadFile(staged)
		require.NoError(t, err)
		assert.Equal(t, "new build", string(content))

		require.Len(t, emitter.events, 1)
		assert.Equal(t, EventInstalled, emitter.events[0].Name)
		assert.Equal(t, "installed", p.Status()["state"])
	}
}

func TestDownloadRejectsBadSignature(t *testing.T) {
	rs := newReleaseServer(t, "1.1.0", []byte("new build"), false)
	art := rs.release.Platforms["linux-x86_64"]
	art.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(rs.priv, []byte("other")))
	rs.release.Platforms["linux-x86_64"] = art

	p := newTestPlugin(t, rs, rs.URL+"/latest.json")
	_, _, err := p.Check(context.Background())
	require.NoError(t, err)

	_, err = p.DownloadAndInstall(context.Background())
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Equal(t, "failed", p.Status()["state"])
}

func TestDownloadWithoutPendingUpdate(t *testing.T) {
	rs := newReleaseServer(t, "1.1.0", nil, false)
	_, err := newTestPlugin(t, rs).DownloadAndInstall(context.Background())
	assert.ErrorIs(t, err, ErrNoUpdate)
}

func TestDownloadRequiresPublicKey(t *testing.T) {
	rs := newReleaseServer(t, "1.1.0", []byte("x"), false)
	p := newTestPlugin(t, rs, rs.URL+"/latest.json")
	p.publicKey = ""

	_, _, err := p.Check(context.Background())
	require.NoError(t, err)
	_, err = p.DownloadAndInstall(context.Background())
	assert.ErrorIs(t, err, ErrNoPublicKey)
}

func TestNewer(t *testing.T) {
	tests := []struct {
		remote, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v1.2.0", "1.2.0", false},
		{"1.2.0-beta.1", "1.1.0", true},
		{"1.2.0-beta.1", "1.2.0", false},
		{"0.9.0", "1.0.0", false},
	}
	for _, tt := range tests {
		got, err := Newer(tt.remote, tt.current)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s > %s", tt.remote, tt.current)
	}

	_, err := Newer("latest", "1.0.0")
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestReleaseArtifact(t *testing.T) {
	r := Release{URL: "https://x/y", Signature: "s"}
	a, err := r.Artifact("windows", "x86_64")
	require.NoError(t, err)
	assert.Equal(t, "https://x/y", a.URL)

	r = Release{Platforms: map[string]Artifact{"darwin-aarch64": {URL: "u"}}}
	_, err = r.Artifact("linux", "x86_64")
	assert.ErrorIs(t, err, ErrNoPlatform)
}

func TestDefinitionIsDesktopOnly(t *testing.T) {
	p := New(Options{})
	assert.True(t, p.Definition().Desktop)

	_, err := p.Execute(context.Background(), "updater.rollback", nil, nil)
	assert.ErrorIs(t, err, capability.ErrUnknownCommand)
}
