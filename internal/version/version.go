// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/kartoffeldruck/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `kartoffeldruck version`. When
// no commit was injected it falls back to the VCS revision recorded by the
// Go toolchain.
func String() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return fmt.Sprintf("kartoffeldruck %s (commit %s, built %s)", Version, commit, BuildTime)
}
