//go:build windows

package osinfo

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Version returns major.minor.build
func Version() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
