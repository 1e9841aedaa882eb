package version

import "runtime"

// Build metadata, overridden with -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version banner printed by `voxboard version`.
func String() string {
	return "voxboard " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}
