package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	ErrOutOfScope     = errors.New("path is outside the allowed scope")
	ErrInvalidPattern = errors.New("invalid scope pattern")
)

// Scope decides which paths the fs capability may touch. Patterns are
// doublestar globs that may start with $HOME, $APPDATA or $TEMP.
type Scope struct {
	patterns []string
	base     string
}

// Variables returns the default values of the scope variables
func Variables(dataDir string) map[string]string {
	vars := map[string]string{
		"APPDATA": dataDir,
		"TEMP":    os.TempDir(),
	}
	if home, err := os.UserHomeDir(); err == nil {
		vars["HOME"] = home
	}
	return vars
}

// NewScope expands and validates the patterns. Relative paths are resolved
// against base.
func NewScope(patterns []string, vars map[string]string, base string) (*Scope, error) {
	s := &Scope{base: base}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		expanded, err := expand(raw, vars)
		if err != nil {
			return nil, err
		}
		if !doublestar.ValidatePattern(expanded) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, raw)
		}
		s.patterns = append(s.patterns, expanded)
	}
	return s, nil
}

func expand(pattern string, vars map[string]string) (string, error) {
	if !strings.HasPrefix(pattern, "$") {
		return realPattern(toSlash(filepath.Clean(pattern))), nil
	}
	name, rest, _ := strings.Cut(pattern[1:], "/")
	value, ok := vars[name]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: unknown variable $%s", ErrInvalidPattern, name)
	}
	// Escape the variable value so directory names with glob characters
	// match literally
	root := escapeMeta(toSlash(realPath(value)))
	if rest == "" {
		return root, nil
	}
	return strings.TrimSuffix(root, "/") + "/" + rest, nil
}

// Patterns returns the expanded patterns
func (s *Scope) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Resolve makes path absolute and checks it against the scope. Symlinks in
// the existing part of the path are followed before matching.
func (s *Scope) Resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is required")
	}
	if !filepath.IsAbs(path) {
		if s.base == "" {
			return "", fmt.Errorf("%w: relative path %s", ErrOutOfScope, path)
		}
		path = filepath.Join(s.base, path)
	}
	path = filepath.Clean(path)
	if !s.Allowed(realPath(path)) {
		return "", fmt.Errorf("%w: %s", ErrOutOfScope, path)
	}
	return path, nil
}

// Allowed reports whether the absolute, clean path matches a pattern
func (s *Scope) Allowed(path string) bool {
	target := toSlash(path)
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}

// realPath evaluates symlinks on the longest existing prefix of p and
// appends the remainder unchanged
func realPath(p string) string {
	p = filepath.Clean(p)
	rest := ""
	for cur := p; ; {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// realPattern resolves the static directory of a literal pattern
func realPattern(pattern string) string {
	base, glob := doublestar.SplitPattern(pattern)
	if strings.Contains(base, `\`) || !filepath.IsAbs(filepath.FromSlash(base)) {
		return pattern
	}
	root := escapeMeta(toSlash(realPath(filepath.FromSlash(base))))
	if glob == "" {
		return root
	}
	return strings.TrimSuffix(root, "/") + "/" + glob
}

func toSlash(p string) string {
	return filepath.ToSlash(p)
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
