// Package build provides version and build information for releasekit.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import (
	"fmt"
	"runtime"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Summary returns a single-line description of the binary, suitable for
// `releasekit version --plain` and for the debug log preamble.
func Summary() string {
	return fmt.Sprintf("releasekit %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
