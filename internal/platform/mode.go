package platform

import "fmt"

// Profile is the build profile half of a BuildMode
type Profile string

// Platform is the target platform half of a BuildMode
type Platform string

const (
	ProfileDebug   Profile = "debug"
	ProfileRelease Profile = "release"

	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

// BuildMode is the compile-resolved mode of the binary
type BuildMode struct {
	Profile  Profile  `json:"profile"`
	Platform Platform `json:"platform"`
}

// Current returns the mode selected by build tags
func Current() BuildMode {
	return BuildMode{Profile: buildProfile, Platform: buildPlatform}
}

// IsDebug reports whether this is a debug build
func (m BuildMode) IsDebug() bool {
	return m.Profile == ProfileDebug
}

// IsDesktop reports whether this is a desktop build
func (m BuildMode) IsDesktop() bool {
	return m.Platform == PlatformDesktop
}

// String returns "profile/platform"
func (m BuildMode) String() string {
	return fmt.Sprintf("%s/%s", m.Profile, m.Platform)
}

// Modes lists every profile × platform combination
func Modes() []BuildMode {
	return []BuildMode{
		{Profile: ProfileDebug, Platform: PlatformDesktop},
		{Profile: ProfileDebug, Platform: PlatformMobile},
		{Profile: ProfileRelease, Platform: PlatformDesktop},
		{Profile: ProfileRelease, Platform: PlatformMobile},
	}
}
