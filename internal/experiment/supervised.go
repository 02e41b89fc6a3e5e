package experiment

import (
	"fmt"
	"math"
	"slices"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/monitoring"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
	"github.com/ScorpioDoctor/vot-toolkit/internal/tracker"
)

// Supervisor drives the run, detect, reinitialize loop over one sequence.
// It is single-threaded: one trial runs at a time and each blocks until the
// tracker process exits.
type Supervisor struct {
	Trials TrialRunner

	// Sink, when set, observes every completed trial.
	Sink TrialSink
}

// NewSupervisor returns a Supervisor that runs real tracker processes.
func NewSupervisor() *Supervisor {
	return &Supervisor{Trials: tracker.NewRunner()}
}

// Run evaluates tr over the whole of seq. It repeatedly launches the tracker
// from the current start frame, scans the returned segment for the first
// frame whose overlap with ground truth is at or below opts.FailOverlap (or
// non-finite), stitches the clean prefix into the full-length trajectory
// with an Init marker at the start frame and a Fail marker at the failure,
// and resumes past the failure. The seed frame of a segment never counts as
// a failure.
//
// On an executor error the whole evaluation aborts: Run returns an empty
// trajectory, a NaN mean time and the error. In fake mode Run returns the
// first trial's command construction without interpreting it.
func (s *Supervisor) Run(tr tracker.Tracker, seq Sequence, cfg *config.ExecutionConfig, opts Options) (*Result, error) {
	if cfg == nil {
		cfg = config.DefaultExecutionConfig()
	}
	n := seq.Length()
	trajectory := region.NewTrajectory(n)
	skip := opts.SkipInitialize
	if skip < 1 {
		skip = 1
	}

	var totalTime float64
	var totalFrames int

	for start := 1; start < n; {
		res, err := s.Trials.RunTrial(tr, seq, start, cfg)
		if err != nil {
			return &Result{Trajectory: region.Trajectory{}, MeanTime: math.NaN()},
				fmt.Errorf("run from frame %d: %w", start, err)
		}
		if cfg.GetFake() {
			return &Result{Command: res.Command, ScratchDir: res.ScratchDir, MeanTime: math.NaN()}, nil
		}
		produced := len(res.Trajectory)
		if produced == 0 {
			return &Result{Trajectory: region.Trajectory{}, MeanTime: math.NaN()},
				fmt.Errorf("run from frame %d: %w", start, tracker.ErrNoResult)
		}

		s.notify(tr, seq, start, res)

		totalTime += res.MeanTime * float64(produced)
		totalFrames += produced

		first := 0
		if !math.IsNaN(opts.FailOverlap) {
			overlaps := region.Overlaps(res.Trajectory, seq.Regions(start, n))
			for i := 1; i < len(overlaps); i++ {
				o := overlaps[i]
				if math.IsNaN(o) || math.IsInf(o, 0) || o <= opts.FailOverlap {
					first = start + i
					break
				}
			}
		}

		trajectory.Set(start, region.Init())

		if first > 0 {
			for f := start + 1; f < first && f-start < produced; f++ {
				trajectory.Set(f, res.Trajectory[f-start])
			}
			trajectory.Set(first, region.Fail())
			monitoring.Logf("Supervisor: tracker %s failed at frame %d of %s",
				tr.Identifier, first, seq.Name())
			start = nextUnlabeled(seq, first+skip, opts.SkipLabels)
		} else {
			for f := start + 1; f <= n && f-start < produced; f++ {
				trajectory.Set(f, res.Trajectory[f-start])
			}
			start = n
		}
	}

	// A one-frame sequence never runs a trial; 0/0 yields the NaN mean.
	return &Result{Trajectory: trajectory, MeanTime: totalTime / float64(totalFrames)}, nil
}

// nextUnlabeled returns the first frame at or after start carrying none of
// the skip labels, or N if every remaining frame is labeled. Without skip
// labels, and at or past the end of the sequence, start passes through
// unchanged.
func nextUnlabeled(seq Sequence, start int, skipLabels []string) int {
	n := seq.Length()
	if len(skipLabels) == 0 || start >= n {
		return start
	}
	for f := start; f < n; f++ {
		if !frameHasAnyLabel(seq, f, skipLabels) {
			return f
		}
	}
	return n
}

func frameHasAnyLabel(seq Sequence, frame int, labels []string) bool {
	active := seq.Labels(frame)
	for _, l := range labels {
		if slices.Contains(active, l) {
			return true
		}
	}
	return false
}

func (s *Supervisor) notify(tr tracker.Tracker, seq Sequence, start int, res *tracker.TrialResult) {
	if s.Sink == nil {
		return
	}
	rec := Trial{
		Tracker:         tr.Identifier,
		Sequence:        seq.Name(),
		StartFrame:      start,
		FramesRequested: seq.Length() - start + 1,
		FramesProduced:  len(res.Trajectory),
		ExitStatus:      res.ExitStatus,
		MeanTime:        res.MeanTime,
		ScratchDir:      res.ScratchDir,
	}
	if err := s.Sink.TrialFinished(rec); err != nil {
		monitoring.Logf("Supervisor: record trial: %v", err)
	}
}
