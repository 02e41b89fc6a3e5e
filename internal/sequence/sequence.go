// Package sequence models an annotated image sequence: ordered frames, one
// ground-truth region per frame, and named per-frame label masks such as
// "occlusion". Sequences are read-only once constructed; frame indices are
// 1-based everywhere.
package sequence

import (
	"sort"

	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
)

// Sequence is a fixed-length annotated sequence.
type Sequence struct {
	name        string
	frames      []string
	groundTruth []region.Region
	labels      map[string][]bool
}

// New builds a sequence from frame image paths and ground-truth regions.
// Length is defined by the ground truth; frames may be empty for synthetic
// sequences that never touch image files. The caller keeps both slices
// aligned.
func New(name string, frames []string, groundTruth []region.Region) *Sequence {
	return &Sequence{
		name:        name,
		frames:      frames,
		groundTruth: groundTruth,
		labels:      make(map[string][]bool),
	}
}

// SetLabel attaches a per-frame mask under the given label name. A true value
// at index i-1 means frame i carries the label.
func (s *Sequence) SetLabel(name string, mask []bool) {
	s.labels[name] = mask
}

// Name returns the sequence name.
func (s *Sequence) Name() string { return s.name }

// Length returns the number of frames N.
func (s *Sequence) Length() int { return len(s.groundTruth) }

// Frame returns the image path of the 1-based frame i, or "" when the
// sequence has no image files.
func (s *Sequence) Frame(i int) string {
	if i < 1 || i > len(s.frames) {
		return ""
	}
	return s.frames[i-1]
}

// Region returns the ground-truth region of the 1-based frame i.
func (s *Sequence) Region(i int) region.Region {
	return s.groundTruth[i-1]
}

// Regions returns the ground-truth regions for frames lo..hi inclusive.
func (s *Sequence) Regions(lo, hi int) []region.Region {
	return s.groundTruth[lo-1 : hi]
}

// Labels returns the sorted label names carried by the 1-based frame i.
func (s *Sequence) Labels(i int) []string {
	var out []string
	for name, mask := range s.labels {
		if i >= 1 && i <= len(mask) && mask[i-1] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
