// Package version carries build metadata, set at link time with
// -ldflags "-X github.com/cfoust/tally/pkg/version.Version=...".
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
