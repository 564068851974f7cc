package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidManifest is returned when a manifest fails validation.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes the application windows created at startup.
type Manifest struct {
	ProductName string         `toml:"product_name" yaml:"product_name" json:"product_name"`
	Version     string         `toml:"version" yaml:"version" json:"version"`
	Windows     []WindowConfig `toml:"windows" yaml:"windows" json:"windows"`
}

// WindowConfig describes one window.
type WindowConfig struct {
	Label  string `toml:"label" yaml:"label" json:"label"`
	Title  string `toml:"title" yaml:"title" json:"title"`
	URL    string `toml:"url" yaml:"url" json:"url"`
	Width  int    `toml:"width" yaml:"width" json:"width"`
	Height int    `toml:"height" yaml:"height" json:"height"`
}

// DefaultManifest returns a manifest with the single "main" window.
func DefaultManifest() *Manifest {
	return &Manifest{
		ProductName: "AgentOS Studio",
		Windows: []WindowConfig{
			{
				Label:  "main",
				Title:  "AgentOS Studio",
				URL:    "index.html",
				Width:  1280,
				Height: 800,
			},
		},
	}
}

// LoadManifest reads a manifest by extension (.toml, .yaml, .yml, .json).
// An empty path yields DefaultManifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &m)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	case ".json":
		err = sonic.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidManifest, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that window labels are present and unique.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Windows))
	for i, w := range m.Windows {
		if w.Label == "" {
			return fmt.Errorf("%w: window %d has no label", ErrInvalidManifest, i)
		}
		if _, dup := seen[w.Label]; dup {
			return fmt.Errorf("%w: duplicate window label %q", ErrInvalidManifest, w.Label)
		}
		seen[w.Label] = struct{}{}
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.ProductName == "" {
		m.ProductName = DefaultManifest().ProductName
	}
	for i := range m.Windows {
		w := &m.Windows[i]
		if w.Title == "" {
			w.Title = m.ProductName
		}
		if w.Width <= 0 {
			w.Width = 800
		}
		if w.Height <= 0 {
			w.Height = 600
		}
	}
}
