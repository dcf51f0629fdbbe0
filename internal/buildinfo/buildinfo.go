// Package buildinfo carries build-time metadata injected via -ldflags.
package buildinfo

var (
	// Version is the Git version tag of the build, "dev" when built
	// without the release tooling.
	Version = "dev"

	// BuildDate is the UTC timestamp of the build.
	BuildDate = "unknown"
)
