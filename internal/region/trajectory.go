package region

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
)

// Trajectory is one region per frame. Frames are addressed 1-based to match
// the sequence numbering used throughout the harness.
type Trajectory []Region

// NewTrajectory returns an n-frame trajectory with every slot set to the
// Unknown marker.
func NewTrajectory(n int) Trajectory {
	t := make(Trajectory, n)
	for i := range t {
		t[i] = Unknown()
	}
	return t
}

// At returns the region for the given 1-based frame.
func (t Trajectory) At(frame int) Region {
	return t[frame-1]
}

// Set stores the region for the given 1-based frame.
func (t Trajectory) Set(frame int, r Region) {
	t[frame-1] = r
}

// Encode renders the trajectory in its file format, one region per line.
func (t Trajectory) Encode() []byte {
	var b strings.Builder
	for _, r := range t {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// WriteTrajectory writes the trajectory file at path.
func WriteTrajectory(fsys fsutil.FileSystem, path string, t Trajectory) error {
	if err := fsys.WriteFile(path, t.Encode(), 0o644); err != nil {
		return fmt.Errorf("write trajectory %s: %w", path, err)
	}
	return nil
}

// ReadTrajectory parses the trajectory file at path. A missing file is not an
// error: it yields an empty trajectory, the signal for "the tracker produced
// nothing". A malformed line yields the rows parsed before it together with
// an error describing the line.
func ReadTrajectory(fsys fsutil.FileSystem, path string) (Trajectory, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read trajectory %s: %w", path, err)
	}

	var t Trajectory
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r, err := Parse(line)
		if err != nil {
			return t, fmt.Errorf("trajectory %s line %d: %w", path, i+1, err)
		}
		t = append(t, r)
	}
	return t, nil
}
