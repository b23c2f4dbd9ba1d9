// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/auvlib/mapstream/internal/version.Version=...".
package version

var (
	// Version is the release version of the binary
	Version = "dev"
	// GitSHA is the git commit SHA the binary was built from
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
