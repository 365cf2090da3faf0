package version_test

import (
	"runtime"
	"testing"

	"github.com/quantmind-br/tslib-build/pkg/version"
	"github.com/stretchr/testify/assert"
)

func TestCurrent_PrefersLdflags(t *testing.T) {
	origV, origC, origB := version.Version, version.Commit, version.BuildTime
	defer func() { version.Version, version.Commit, version.BuildTime = origV, origC, origB }()

	version.Version = "1.2.3"
	version.Commit = "deadbeef"
	version.BuildTime = "2025-12-22T00:00:00Z"

	info := version.Current()
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "deadbeef", info.Commit)
	assert.Equal(t, "2025-12-22T00:00:00Z", info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info version.Info
		want string
	}{
		{
			name: "full",
			info: version.Info{
				Version:   "1.2.3",
				Commit:    "0123456789abcdef0123",
				BuildTime: "2025-12-22T00:00:00Z",
				GoVersion: "go1.24.1",
				Platform:  "linux/amd64",
			},
			want: "tslib-build 1.2.3\n  commit: 0123456789ab\n  built:  2025-12-22T00:00:00Z\n  go:     go1.24.1 linux/amd64",
		},
		{
			name: "no vcs stamp",
			info: version.Info{Version: "dev", GoVersion: "go1.24.1", Platform: "darwin/arm64"},
			want: "tslib-build dev\n  go:     go1.24.1 darwin/arm64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}
