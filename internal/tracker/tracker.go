// Package tracker runs one external tracker process over a sub-sequence and
// enforces its timing and output contract. The tracker protocol is
// file-based: the process finds images.txt and region.txt in its working
// directory and leaves output.txt behind, one region per processed frame.
package tracker

import (
	"os"
	"runtime"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
)

// Tracker describes an external tracker. The descriptor is immutable and
// supplied by the caller.
type Tracker struct {
	// Identifier names the tracker in results and logs.
	Identifier string

	// Command is the shell command that starts the tracker.
	Command string

	// LinkPaths are directories prepended to the dynamic-library search path
	// of the tracker process.
	LinkPaths []string
}

// Sequence is the view of an image sequence a single trial needs.
type Sequence interface {
	Name() string
	Length() int
	// Frame returns the image path of the 1-based frame i.
	Frame(i int) string
	// Region returns the ground-truth region of the 1-based frame i.
	Region(i int) region.Region
}

// libraryPathVar names the environment variable holding the dynamic-library
// search path on this platform.
func libraryPathVar() string {
	switch runtime.GOOS {
	case "darwin":
		return "DYLD_LIBRARY_PATH"
	case "windows":
		return "PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}

// libraryPath builds the search path for the tracker process: the
// descriptor's link paths first, the inherited value last. Without link
// paths the inherited value passes through unchanged.
func (t Tracker) libraryPath(inherited string) string {
	if len(t.LinkPaths) == 0 {
		return inherited
	}
	parts := append([]string{}, t.LinkPaths...)
	if inherited != "" {
		parts = append(parts, inherited)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}
