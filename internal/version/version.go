// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/docpublish/internal/version.Version=v1.2.0"
package version

import "fmt"

// Version is the release of the binary.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return fmt.Sprintf("docpublish %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
