// Package version exposes build information stamped in through
// -ldflags. The defaults apply to a plain go build.
package version

//nolint:revive // Populated by the linker.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
