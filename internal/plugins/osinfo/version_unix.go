//go:build unix

package osinfo

import "golang.org/x/sys/unix"

// Version returns the kernel release
func Version() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "unknown"
	}
	return unix.ByteSliceToString(u.Release[:])
}
