// Package version reports what rp-exporter binary is running. Release builds
// set the variables below through -ldflags; other builds fall back to the
// VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/Sabbasth/rp-exporter/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string
	GitCommit string
	BuildDate string
	Modified  bool
	GoVersion string
	OS        string
	Arch      string
}

var (
	readBuildInfo = debug.ReadBuildInfo
	vcsOnce       sync.Once
	vcs           map[string]string
)

func vcsSettings() map[string]string {
	vcsOnce.Do(func() {
		vcs = map[string]string{}
		info, ok := readBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			vcs[s.Key] = s.Value
		}
	})
	return vcs
}

// Get returns the build description. Fields left at their ldflags defaults
// are filled from the embedded VCS settings when present.
func Get() Build {
	b := Build{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	s := vcsSettings()
	if b.GitCommit == "unknown" && s["vcs.revision"] != "" {
		b.GitCommit = s["vcs.revision"]
		if len(b.GitCommit) > 12 {
			b.GitCommit = b.GitCommit[:12]
		}
	}
	if b.BuildDate == "unknown" && s["vcs.time"] != "" {
		b.BuildDate = s["vcs.time"]
	}
	b.Modified = s["vcs.modified"] == "true"
	return b
}

// Info is the --version line.
func Info() string {
	b := Get()
	commit := b.GitCommit
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("rp-exporter %s (commit: %s, built: %s, go: %s, %s/%s)",
		b.Version, commit, b.BuildDate, b.GoVersion, b.OS, b.Arch)
}

// Short returns just the version, e.g. "0.3.1" or "dev".
func Short() string {
	return Version
}

// UserAgent is sent with every console API request.
func UserAgent() string {
	return "rp-exporter/" + Version
}

// Map is the build description as served by /healthz.
func Map() map[string]string {
	b := Get()
	return map[string]string{
		"version":    b.Version,
		"git_commit": b.GitCommit,
		"build_date": b.BuildDate,
		"modified":   fmt.Sprint(b.Modified),
		"go_version": b.GoVersion,
		"os":         b.OS,
		"arch":       b.Arch,
	}
}
