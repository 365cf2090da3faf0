// Package version reports which tslib-build binary is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/quantmind-br/tslib-build/pkg/version.Version=..."
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary
type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	Platform  string
}

// Current returns the running binary's version. Values missing from ldflags
// come from the module build info, so go install builds still report their
// module version and VCS stamp.
func Current() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String renders the version the way the version command prints it
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tslib-build %s", i.Version)
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, "\n  commit: %s", commit)
	}
	if i.BuildTime != "" {
		fmt.Fprintf(&b, "\n  built:  %s", i.BuildTime)
	}
	fmt.Fprintf(&b, "\n  go:     %s %s", i.GoVersion, i.Platform)
	return b.String()
}
