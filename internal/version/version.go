// Package version reports the build version.
package version

import "runtime/debug"

// version is overridden at build time via -ldflags.
var version = "dev"

// String returns the build version, falling back to module build info.
func String() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
