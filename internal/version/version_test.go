package version

import (
	"runtime"
	"runtime/debug"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// withBuildInfo swaps the build info reader for one test.
func withBuildInfo(t *testing.T, settings ...debug.BuildSetting) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: settings}, true
	}
	vcsOnce = sync.Once{}
	t.Cleanup(func() {
		readBuildInfo = orig
		vcsOnce = sync.Once{}
	})
}

func TestGet_Defaults(t *testing.T) {
	withBuildInfo(t)

	b := Get()
	assert.Equal(t, "dev", b.Version)
	assert.Equal(t, "unknown", b.GitCommit)
	assert.Equal(t, "unknown", b.BuildDate)
	assert.False(t, b.Modified)
	assert.Equal(t, runtime.Version(), b.GoVersion)
}

func TestGet_VCSFallback(t *testing.T) {
	withBuildInfo(t,
		debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		debug.BuildSetting{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		debug.BuildSetting{Key: "vcs.modified", Value: "true"},
	)

	b := Get()
	assert.Equal(t, "0123456789ab", b.GitCommit)
	assert.Equal(t, "2026-03-01T10:00:00Z", b.BuildDate)
	assert.True(t, b.Modified)
	assert.Contains(t, Info(), "commit: 0123456789ab-dirty")
}

func TestGet_LdflagsWin(t *testing.T) {
	withBuildInfo(t, debug.BuildSetting{Key: "vcs.revision", Value: "fromvcs"})
	orig := GitCommit
	GitCommit = "fromldflags"
	t.Cleanup(func() { GitCommit = orig })

	assert.Equal(t, "fromldflags", Get().GitCommit)
}

func TestInfo(t *testing.T) {
	withBuildInfo(t)

	info := Info()
	assert.Contains(t, info, "rp-exporter dev")
	assert.Contains(t, info, runtime.Version())
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "dev", Short())
	assert.Equal(t, "rp-exporter/dev", UserAgent())
}

func TestMap(t *testing.T) {
	withBuildInfo(t)

	m := Map()
	for _, key := range []string{"version", "git_commit", "build_date", "modified", "go_version", "os", "arch"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "dev", m["version"])
	assert.Equal(t, "false", m["modified"])
}
