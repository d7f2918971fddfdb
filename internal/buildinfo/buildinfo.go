// Package buildinfo holds version and build metadata. Release builds stamp
// the variables via -ldflags; other builds fall back to the VCS details the
// Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// These variables are set at build time via -ldflags, e.g.
//
//	-X github.com/nugget/ytscribe/internal/buildinfo.Version=v1.2.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

// startTime records when the process started.
var startTime = time.Now()

var vcsOnce sync.Once

// fillFromVCS replaces unstamped commit and build time with the values
// recorded by "go build" from the working tree.
func fillFromVCS() {
	vcsOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		applyVCS(info.Settings)
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	})
}

func applyVCS(settings []debug.BuildSetting) {
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "unknown" && s.Value != "" {
				GitCommit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if BuildTime == "unknown" && s.Value != "" {
				BuildTime = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && GitCommit != "unknown" {
		GitCommit += "-dirty"
	}
}

// BuildInfo returns the build metadata as a map.
func BuildInfo() map[string]string {
	fillFromVCS()
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"git_branch": GitBranch,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

// RuntimeInfo returns build metadata plus process uptime, for the HTTP
// version endpoint.
func RuntimeInfo() map[string]string {
	info := BuildInfo()
	info["uptime"] = Uptime().String()
	return info
}

// Uptime returns the duration since process start.
func Uptime() time.Duration {
	return time.Since(startTime).Truncate(time.Second)
}

// UserAgent is sent on caption downloads and provider calls.
func UserAgent() string {
	fillFromVCS()
	return "ytscribe/" + Version
}

// String returns a one-line summary for logs and the version command.
func String() string {
	fillFromVCS()
	return fmt.Sprintf("ytscribe %s (%s@%s) built %s", Version, GitCommit, GitBranch, BuildTime)
}
