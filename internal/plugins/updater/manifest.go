package updater

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/bytedance/sonic"
	"golang.org/x/mod/semver"
)

var (
	ErrNoPlatform     = errors.New("no release for this platform")
	ErrInvalidVersion = errors.New("invalid version")
)

// Release is the document served by an update endpoint. A release either
// carries url and signature directly or one entry per "<target>-<arch>".
type Release struct {
	Version   string              `json:"version"`
	Notes     string              `json:"notes"`
	PubDate   string              `json:"pub_date"`
	URL       string              `json:"url"`
	Signature string              `json:"signature"`
	Platforms map[string]Artifact `json:"platforms"`
}

// Artifact is a downloadable, signed build
type Artifact struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
}

func parseRelease(data []byte) (*Release, error) {
	var r Release
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse release: %w", err)
	}
	if _, err := canonical(r.Version); err != nil {
		return nil, err
	}
	return &r, nil
}

// Artifact picks the build for target-arch
func (r *Release) Artifact(target, arch string) (Artifact, error) {
	if a, ok := r.Platforms[target+"-"+arch]; ok && a.URL != "" {
		return a, nil
	}
	if r.URL != "" {
		return Artifact{URL: r.URL, Signature: r.Signature}, nil
	}
	return Artifact{}, fmt.Errorf("%w: %s-%s", ErrNoPlatform, target, arch)
}

// canonical turns "1.2.3" into "v1.2.3" for x/mod/semver
func canonical(version string) (string, error) {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return v, nil
}

// Newer reports whether remote is a higher semantic version than current
func Newer(remote, current string) (bool, error) {
	r, err := canonical(remote)
	if err != nil {
		return false, err
	}
	c, err := canonical(current)
	if err != nil {
		return false, err
	}
	return semver.Compare(r, c) > 0, nil
}

// Target is the OS name used in endpoint templates
func Target() string {
	return runtime.GOOS
}

// Arch maps GOARCH to the names used by release endpoints
func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	case "arm":
		return "armv7"
	default:
		return runtime.GOARCH
	}
}

// renderEndpoint fills {{target}}, {{arch}} and {{current_version}}
func renderEndpoint(endpoint, target, arch, current string) string {
	return strings.NewReplacer(
		"{{target}}", target,
		"{{arch}}", arch,
		"{{current_version}}", current,
	).Replace(endpoint)
}
