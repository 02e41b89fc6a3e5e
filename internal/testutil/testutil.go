// Package testutil provides shared fixtures for harness tests: loadable
// sequence directories and shell commands that stand in for a tracker
// process.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
)

// WriteSequenceDir populates dir with a loadable n-frame sequence: a
// groundtruth.txt of drifting 10x10 rectangles plus one frame image per
// line, either flat in dir or under color/.
func WriteSequenceDir(t *testing.T, fs fsutil.FileSystem, dir string, n int, colorSubdir bool) {
	t.Helper()

	var gt strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&gt, "%d,%d,10,10\n", i*5, i*5)
	}
	if err := fs.WriteFile(dir+"/groundtruth.txt", []byte(gt.String()), 0o644); err != nil {
		t.Fatalf("write ground truth: %v", err)
	}

	imgDir := dir
	if colorSubdir {
		imgDir = dir + "/color"
		if err := fs.MkdirAll(imgDir, 0o755); err != nil {
			t.Fatalf("create image directory: %v", err)
		}
	}
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("%s/%08d.jpg", imgDir, i)
		if err := fs.WriteFile(name, []byte("jpg"), 0o644); err != nil {
			t.Fatalf("write frame image: %v", err)
		}
	}
}

// EmitTrajectoryCommand returns a shell command that writes the given region
// lines to output.txt, imitating a tracker that produced exactly those rows.
func EmitTrajectoryCommand(lines ...string) string {
	return fmt.Sprintf(`printf '%s\n' > output.txt`, strings.Join(lines, `\n`))
}
