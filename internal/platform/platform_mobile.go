//go:build android || ios

package platform

const buildPlatform = PlatformMobile
