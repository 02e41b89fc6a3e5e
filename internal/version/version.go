// Package version carries build identification, overridden at link time via
// -ldflags "-X".
package version

import "fmt"

var (
	// Version is the current harness version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the three fields in the form the -version flags print.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
