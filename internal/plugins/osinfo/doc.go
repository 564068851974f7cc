// Package osinfo implements the "os" capability: platform, architecture,
// kernel version, hostname, locale and line ending of the host.
package osinfo
