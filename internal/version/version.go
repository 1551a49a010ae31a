// Package version exposes build-time version information.
package version

// Set at build time via -ldflags.
var (
	// Version is the semantic version.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildTime is the UTC time the binary was built.
	BuildTime = "unknown"
)
