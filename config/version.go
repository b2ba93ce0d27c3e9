package config

import (
	"fmt"
	"time"
)

// These are injected at build time via -ldflags
var (
	Version   string
	GitCommit string
	BuildTime string
)

func init() {
	// Local / dev fallback
	if Version == "" {
		Version = "dev"
	}
	if GitCommit == "" {
		GitCommit = "local"
	}
	if BuildTime == "" {
		BuildTime = time.Now().Format("2006-01-02 15:04:05")
	}
}

// VersionString is the one-line build description shown by the version
// command and the About dialog.
func VersionString() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", appName, Version, GitCommit, BuildTime)
}
