// Package experiment drives supervised tracker evaluation: run the tracker,
// detect the first tracking failure against ground truth, reinitialize past
// it, and stitch the segments into one full-length trajectory.
package experiment

import (
	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
	"github.com/ScorpioDoctor/vot-toolkit/internal/tracker"
)

// Sequence is the view of an image sequence the supervisor needs: everything
// a single trial consumes plus ground-truth ranges for failure detection and
// labels for the resume policy.
type Sequence interface {
	tracker.Sequence

	// Regions returns the ground-truth regions for frames lo..hi inclusive.
	Regions(lo, hi int) []region.Region

	// Labels returns the label names attached to the 1-based frame i.
	Labels(i int) []string
}

// TrialRunner runs one tracker pass from a start frame to the end of the
// sequence. *tracker.Runner is the production implementation.
type TrialRunner interface {
	RunTrial(tr tracker.Tracker, seq tracker.Sequence, start int, cfg *config.ExecutionConfig) (*tracker.TrialResult, error)
}

// Trial describes one completed executor invocation.
type Trial struct {
	Tracker         string
	Sequence        string
	StartFrame      int
	FramesRequested int
	FramesProduced  int
	ExitStatus      int
	MeanTime        float64
	ScratchDir      string
}

// TrialSink receives a record after every completed trial. Errors are logged
// by the supervisor and never abort the evaluation.
type TrialSink interface {
	TrialFinished(t Trial) error
}

// Options control failure detection and resumption.
type Options struct {
	// FailOverlap is the overlap at or below which a frame counts as a
	// tracking failure. NaN disables failure detection entirely.
	FailOverlap float64

	// SkipInitialize is the minimum number of frames to advance past a
	// failure before resuming. Values below 1 are treated as 1.
	SkipInitialize int

	// SkipLabels lists sequence labels the resume scan skips past.
	SkipLabels []string
}

// OptionsFromConfig extracts the supervisor options from cfg.
func OptionsFromConfig(cfg *config.ExecutionConfig) Options {
	return Options{
		FailOverlap:    cfg.GetFailOverlap(),
		SkipInitialize: cfg.GetSkipInitialize(),
		SkipLabels:     cfg.GetSkipLabels(),
	}
}

// Result is the outcome of a supervised run over one sequence.
type Result struct {
	// Trajectory is the stitched full-length trajectory. Empty when the run
	// aborted.
	Trajectory region.Trajectory

	// MeanTime is the overall mean seconds per frame across all trials,
	// weighted by the frames each trial produced. NaN when nothing ran.
	MeanTime float64

	// Command and ScratchDir echo the first trial's command construction.
	// Only set in fake mode.
	Command    string
	ScratchDir string
}
