// Package contracts holds the versioned API surface of pricecube.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version of the service and CLIs. The exported table layout and the HTTP
// API are versioned separately under api/v1.
const Version = "0.3.0"

// GitCommit may be set with -ldflags "-X pricecube/pkg/contracts.GitCommit=...".
// When empty, the VCS revision recorded by the Go toolchain is used.
var GitCommit = ""

// Revision returns the short commit the binary was built from, or "unknown".
func Revision() string {
	if GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	rev, dirty := "unknown", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && rev != "unknown" {
		rev += "-dirty"
	}
	return rev
}

// GetFullVersionString renders the version line logged at startup.
func GetFullVersionString() string {
	return fmt.Sprintf("pricecube v%s (commit %s, %s %s/%s)",
		Version, Revision(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
