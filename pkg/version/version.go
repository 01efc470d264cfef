// Package version reports build information for gumshoe binaries.
//
// Release builds set the variables below at link time:
//
//	go build -ldflags "\
//	  -X github.com/macropower/gumshoe/pkg/version.Version=v1.2.3 \
//	  -X github.com/macropower/gumshoe/pkg/version.BuildDate=2025-01-01T00:00:00Z" \
//	  ./cmd/gumshoe
//
// Other builds fall back to the VCS stamp recorded by the Go toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// Version is the release version.
	Version string
	// BuildDate is the RFC 3339 time of the release build.
	BuildDate string

	// Revision is the short VCS revision, suffixed with "-dirty" when the
	// tree had local changes.
	Revision = readRevision(debug.ReadBuildInfo)
)

// GetVersion returns [Version] when set at link time, otherwise [Revision].
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// String describes the build on one line, for `gumshoe --version`.
func String() string {
	parts := []string{GetVersion()}
	if Version != "" && Revision != "unknown" {
		parts = append(parts, "revision "+Revision)
	}

	if BuildDate != "" {
		parts = append(parts, "built "+BuildDate)
	}

	parts = append(parts, fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH))

	return strings.Join(parts, ", ")
}

func readRevision(read func() (*debug.BuildInfo, bool)) string {
	info, ok := read()
	if !ok {
		return "unknown"
	}

	rev := "unknown"
	dirty := false

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value[:min(len(s.Value), 7)]
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if dirty {
		rev += "-dirty"
	}

	return rev
}
