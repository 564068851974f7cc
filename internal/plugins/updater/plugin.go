package updater

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "updater"

// EventInstalled is emitted once an update is staged
const EventInstalled = "updater://installed"

var (
	ErrNoEndpoints      = errors.New("no update endpoints configured")
	ErrNoPublicKey      = errors.New("no update public key configured")
	ErrInvalidPublicKey = errors.New("invalid update public key")
	ErrBadSignature     = errors.New("update signature verification failed")
	ErrNoUpdate         = errors.New("no update available")
)

// State of the updater
type State string

const (
	StateIdle        State = "idle"
	StateUpToDate    State = "up-to-date"
	StateAvailable   State = "available"
	StateDownloading State = "downloading"
	StateInstalled   State = "installed"
	StateFailed      State = "failed"
)

// Emitter publishes host events
type Emitter interface {
	Emit(name, window string, payload interface{}) types.Event
}

// Options configures the updater plugin
type Options struct {
	Endpoints      []string
	PublicKey      string // base64 ed25519 public key
	CurrentVersion string
	Target         string
	Arch           string
	// StageDir receives downloaded builds, one directory per version
	StageDir string
	Timeout  time.Duration
	Logger   *logging.Logger
}

// Plugin checks for, verifies and stages application updates
type Plugin struct {
	endpoints []string
	publicKey string
	current   string
	target    string
	arch      string
	stageDir  string
	client    *resty.Client
	logger    *logging.Logger

	mu        sync.Mutex
	emitter   Emitter
	state     State
	pending   *Release
	staged    string
	lastError string
	checkedAt time.Time
}

// New creates the updater plugin
func New(opts Options) *Plugin {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Target == "" {
		opts.Target = Target()
	}
	if opts.Arch == "" {
		opts.Arch = Arch()
	}
	if opts.StageDir == "" {
		opts.StageDir = filepath.Join(os.TempDir(), "studio-updates")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	client := resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "AgentOS-Studio-Updater/"+opts.CurrentVersion)

	return &Plugin{
		endpoints: opts.Endpoints,
		publicKey: opts.PublicKey,
		current:   opts.CurrentVersion,
		target:    opts.Target,
		arch:      opts.Arch,
		stageDir:  opts.StageDir,
		client:    client,
		logger:    opts.Logger,
		state:     StateIdle,
	}
}

// Initialize routes install events to the application's event bus
func (p *Plugin) Initialize(app *host.App) error {
	p.SetEmitter(app)
	return nil
}

// SetEmitter sets where install events go
func (p *Plugin) SetEmitter(e Emitter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitter = e
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	return types.Capability{
		ID:          ID,
		Name:        "Updater",
		Description: "Check for, verify and stage application updates",
		Category:    types.CategoryLifecycle,
		Desktop:     true,
		Commands: []types.Command{
			{
				ID:          ID + ".check",
				Name:        "Check",
				Description: "Query the update endpoints for a newer version",
				Returns:     "object",
			},
			{
				ID:          ID + ".download_and_install",
				Name:        "Download and Install",
				Description: "Download the pending update, verify its signature and stage it",
				Returns:     "object",
			},
			{
				ID:          ID + ".status",
				Name:        "Status",
				Description: "Current updater state",
				Returns:     "object",
			},
		},
	}
}

// Execute runs an updater command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".check":
		release, available, err := p.Check(ctx)
		if err != nil {
			return types.Failure(err.Error())
		}
		data := map[string]interface{}{
			"available":       available,
			"current_version": p.current,
		}
		if available {
			data["version"] = release.Version
			data["notes"] = release.Notes
			data["date"] = release.PubDate
		}
		return types.Success(data)
	case ID + ".download_and_install":
		staged, err := p.DownloadAndInstall(ctx)
		if err != nil {
			return types.Failure(err.Error())
		}
		return types.Success(map[string]interface{}{
			"version": p.pendingVersion(),
			"path":    staged,
		})
	case ID + ".status":
		return types.Success(p.Status())
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

// Check asks each endpoint in order; the first that answers wins. A 204
// response means no update.
func (p *Plugin) Check(ctx context.Context) (*Release, bool, error) {
	if len(p.endpoints) == 0 {
		return nil, false, ErrNoEndpoints
	}

	var lastErr error
	for _, endpoint := range p.endpoints {
		target := renderEndpoint(endpoint, p.target, p.arch, p.current)
		release, err := p.fetchRelease(ctx, target)
		if err != nil {
			p.logger.Debug("Update endpoint failed", zap.String("endpoint", target), zap.Error(err))
			lastErr = err
			continue
		}

		return p.evaluate(release)
	}

	p.fail(lastErr)
	return nil, false, fmt.Errorf("update check failed: %w", lastErr)
}

// evaluate records the answer of an endpoint; release is nil for 204
func (p *Plugin) evaluate(release *Release) (*Release, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checkedAt = time.Now()
	p.lastError = ""

	if release == nil {
		p.state, p.pending = StateUpToDate, nil
		return nil, false, nil
	}
	newer, err := Newer(release.Version, p.current)
	if err != nil {
		p.state, p.lastError = StateFailed, err.Error()
		return nil, false, err
	}
	if !newer {
		p.state, p.pending = StateUpToDate, nil
		return release, false, nil
	}

	p.state, p.pending = StateAvailable, release
	p.logger.Info("Update available",
		zap.String("current", p.current),
		zap.String("version", release.Version),
	)
	return release, true, nil
}

func (p *Plugin) fetchRelease(ctx context.Context, endpoint string) (*Release, error) {
	resp, err := p.client.R().SetContext(ctx).SetHeader("Accept", "application/json").Get(endpoint)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return parseRelease(resp.Body())
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
}

// DownloadAndInstall downloads the pending release, verifies its ed25519
// signature, decompresses .gz artifacts and stages the result under the
// stage dir. It returns the staged path.
func (p *Plugin) DownloadAndInstall(ctx context.Context) (string, error) {
	p.mu.Lock()
	release := p.pending
	if release == nil || p.state == StateDownloading {
		p.mu.Unlock()
		if release == nil {
			return "", ErrNoUpdate
		}
		return "", errors.New("download already in progress")
	}
	p.state = StateDownloading
	p.mu.Unlock()

	staged, err := p.install(ctx, release)
	if err != nil {
		p.fail(err)
		return "", err
	}

	p.mu.Lock()
	p.state, p.staged = StateInstalled, staged
	emitter := p.emitter
	p.mu.Unlock()

	p.logger.Info("Update staged", zap.String("version", release.Version), zap.String("path", staged))
	if emitter != nil {
		emitter.Emit(EventInstalled, "", map[string]interface{}{
			"version": release.Version,
			"path":    staged,
		})
	}
	return staged, nil
}

func (p *Plugin) install(ctx context.Context, release *Release) (string, error) {
	key, err := p.verifyingKey()
	if err != nil {
		return "", err
	}
	artifact, err := release.Artifact(p.target, p.arch)
	if err != nil {
		return "", err
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(artifact.Signature))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", fmt.Errorf("%w: malformed signature", ErrBadSignature)
	}

	resp, err := p.client.R().SetContext(ctx).Get(artifact.URL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode())
	}
	payload := resp.Body()

	if !ed25519.Verify(key, payload, sig) {
		return "", ErrBadSignature
	}

	name := artifactName(artifact.URL)
	if strings.HasSuffix(name, ".gz") {
		payload, err = gunzip(payload)
		if err != nil {
			return "", fmt.Errorf("failed to decompress update: %w", err)
		}
		name = strings.TrimSuffix(name, ".gz")
	}

	dir := filepath.Join(p.stageDir, release.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create stage dir: %w", err)
	}
	staged := filepath.Join(dir, name)
	tmp := staged + ".part"
	if err := os.WriteFile(tmp, payload, 0o755); err != nil {
		return "", fmt.Errorf("failed to stage update: %w", err)
	}
	if err := os.Rename(tmp, staged); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to stage update: %w", err)
	}
	return staged, nil
}

func (p *Plugin) verifyingKey() (ed25519.PublicKey, error) {
	if p.publicKey == "" {
		return nil, ErrNoPublicKey
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(p.publicKey))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return ed25519.PublicKey(raw), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func artifactName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return "update.bin"
}

func (p *Plugin) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateFailed
	if err != nil {
		p.lastError = err.Error()
	}
}

func (p *Plugin) pendingVersion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return ""
	}
	return p.pending.Version
}

// Status reports the updater state
func (p *Plugin) Status() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := map[string]interface{}{
		"state":           string(p.state),
		"current_version": p.current,
		"target":          p.target,
		"arch":            p.arch,
	}
	if p.pending != nil {
		status["version"] = p.pending.Version
	}
	if p.staged != "" {
		status["path"] = p.staged
	}
	if p.lastError != "" {
		status["error"] = p.lastError
	}
	if !p.checkedAt.IsZero() {
		status["checked_at"] = p.checkedAt
	}
	return status
}
