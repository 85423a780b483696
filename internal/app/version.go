package app

import (
	"fmt"
	"runtime/debug"
)

// Version, Commit, and BuildTime are set via ldflags at build time.
// Example: go build -ldflags "-X github.com/heartmarshall/contentflow-backend/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns a formatted version string for startup logs and the
// /health endpoint. Without ldflags the VCS stamp of the Go build is used.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if commit == "unknown" {
		commit, built = vcsStamp(built)
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, built)
}

func vcsStamp(fallbackTime string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown", fallbackTime
	}
	commit, built := "unknown", fallbackTime
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.time":
			built = s.Value
		}
	}
	return commit, built
}
