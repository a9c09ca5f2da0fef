package version

import "fmt"

// Version contains the application version information.
// Set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/docviewer/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats version and build metadata for --version output.
func String() string {
	return fmt.Sprintf("docviewer %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
