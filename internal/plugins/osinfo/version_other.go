//go:build !unix && !windows

package osinfo

// Version is unknown on this platform
func Version() string {
	return "unknown"
}
