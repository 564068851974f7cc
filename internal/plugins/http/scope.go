package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	ErrURLNotAllowed  = errors.New("url not allowed")
	ErrInvalidPattern = errors.New("invalid url pattern")
)

// Scope is the URL allow list of the http capability. Patterns are
// doublestar globs over "scheme://host/path", e.g. "https://api.example.com/**".
// An empty scope allows nothing.
type Scope struct {
	patterns []string
}

// NewScope validates patterns
func NewScope(patterns []string) (*Scope, error) {
	s := &Scope{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, p)
		}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// Patterns returns the configured patterns
func (s *Scope) Patterns() []string {
	return append([]string(nil), s.patterns...)
}

// Allowed reports whether u matches a pattern. Query and fragment are ignored.
func (s *Scope) Allowed(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	target := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.EscapedPath()
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, target); ok {
			return true
		}
	}
	return false
}

func origin(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
