// Package version holds the build-time version stamp.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags, e.g.
// -X faro/internal/version.Version=v0.3.0
// -X faro/internal/version.Commit=$(git rev-parse --short HEAD)
// -X faro/internal/version.Date=$(date -u +%Y-%m-%d)
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent identifies faro to external HTTP APIs.
func UserAgent() string {
	return "faro/" + Version
}

// String returns the full human-readable version line.
func String() string {
	s := fmt.Sprintf("faro %s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if Commit != "" {
		s += " commit " + Commit
	}
	if Date != "" {
		s += " built " + Date
	}
	return s
}
