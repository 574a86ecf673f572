package version

import "runtime"

// Populated at build time via -ldflags.
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo reports the Go runtime the binary was built with.
var GoInfo = runtime.Version()
