// Package platform describes the build mode the binary was compiled for.
//
// BuildMode combines a profile (debug or release) with a platform (desktop
// or mobile). Both halves are fixed by build tags:
//
//	go build                      # debug, desktop
//	go build -tags release        # release, desktop
//	GOOS=android go build -tags release
//
// The mode never changes during the process lifetime. Callers resolve it
// once with Current and pass it explicitly to the components that branch
// on it.
package platform
