package experiment

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
	"github.com/ScorpioDoctor/vot-toolkit/internal/tracker"
)

type fakeSequence struct {
	name   string
	gt     []region.Region
	labels map[int][]string
}

func (s fakeSequence) Name() string               { return s.name }
func (s fakeSequence) Length() int                { return len(s.gt) }
func (s fakeSequence) Frame(i int) string         { return fmt.Sprintf("%08d.jpg", i) }
func (s fakeSequence) Region(i int) region.Region { return s.gt[i-1] }
func (s fakeSequence) Labels(i int) []string      { return s.labels[i] }

func (s fakeSequence) Regions(lo, hi int) []region.Region {
	out := make([]region.Region, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, s.gt[i-1])
	}
	return out
}

// fakeTrialRunner returns canned results keyed by start frame and records
// the start frame of every call.
type fakeTrialRunner struct {
	results map[int]*tracker.TrialResult
	errs    map[int]error
	calls   []int
}

func (r *fakeTrialRunner) RunTrial(tr tracker.Tracker, seq tracker.Sequence, start int, cfg *config.ExecutionConfig) (*tracker.TrialResult, error) {
	r.calls = append(r.calls, start)
	if err := r.errs[start]; err != nil {
		return nil, err
	}
	res, ok := r.results[start]
	if !ok {
		return nil, fmt.Errorf("no canned result for start frame %d", start)
	}
	return res, nil
}

// The ground truth in these tests is the unit rect at the origin; predicted
// regions are placed to hit known overlap values against it.
func fullRect() region.Region { return region.NewRect(0, 0, 10, 10) }
func okRect() region.Region   { return region.NewRect(0, 1, 10, 10) }
func offRect() region.Region  { return region.NewRect(30, 30, 10, 10) }
func halfRect() region.Region { return region.NewRect(0, 0, 10, 5) }

func groundTruth(n int) []region.Region {
	gt := make([]region.Region, n)
	for i := range gt {
		gt[i] = fullRect()
	}
	return gt
}

func trial(mean float64, regions ...region.Region) *tracker.TrialResult {
	return &tracker.TrialResult{Trajectory: region.Trajectory(regions), MeanTime: mean}
}

func repeated(r region.Region, n int) []region.Region {
	out := make([]region.Region, n)
	for i := range out {
		out[i] = r
	}
	return out
}

// TestSupervisorRun_CleanPass covers a tracker that never fails: one trial,
// an Init marker at frame 1 and the trial's own regions everywhere else.
func TestSupervisorRun_CleanPass(t *testing.T) {
	t.Parallel()

	t.Run("disabled failure detection makes a single pass", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(5)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.2, repeated(offRect(), 5)...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: math.NaN()})
		require.NoError(t, err)
		require.Len(t, res.Trajectory, 5)

		assert.Equal(t, region.Init(), res.Trajectory[0])
		for f := 2; f <= 5; f++ {
			assert.Equal(t, offRect(), res.Trajectory[f-1], "frame %d", f)
		}
		assert.Equal(t, []int{1}, runner.calls)
		assert.InDelta(t, 0.2, res.MeanTime, 1e-12)
	})

	t.Run("clean run above an enabled threshold", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(4)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, repeated(okRect(), 4)...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		require.Len(t, res.Trajectory, 4)
		assert.Equal(t, region.Init(), res.Trajectory[0])
		for f := 2; f <= 4; f++ {
			assert.Equal(t, okRect(), res.Trajectory[f-1], "frame %d", f)
		}
		assert.Equal(t, []int{1}, runner.calls)
	})

	t.Run("seed frame overlap is never a failure", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(3)}
		// The seed has zero overlap with ground truth; the scan must skip it.
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, offRect(), okRect(), okRect()),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, runner.calls)
		for _, r := range res.Trajectory {
			assert.NotEqual(t, region.Fail(), r)
		}
	})
}

// TestSupervisorRun_FailureDetection covers failure scanning, sentinel
// placement and the weighted overall mean time.
func TestSupervisorRun_FailureDetection(t *testing.T) {
	t.Parallel()

	t.Run("reinitializes past the first failing frame", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(10)}
		// The first run covers frames 1..4 and fails at frame 4; the second
		// covers frames 5..10 cleanly.
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.5, fullRect(), okRect(), okRect(), offRect()),
			5: trial(0.25, repeated(okRect(), 6)...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		require.Len(t, res.Trajectory, 10)

		assert.Equal(t, region.Init(), res.Trajectory[0])
		assert.Equal(t, okRect(), res.Trajectory[1])
		assert.Equal(t, okRect(), res.Trajectory[2])
		assert.Equal(t, region.Fail(), res.Trajectory[3])
		assert.Equal(t, region.Init(), res.Trajectory[4])
		for f := 6; f <= 10; f++ {
			assert.Equal(t, okRect(), res.Trajectory[f-1], "frame %d", f)
		}
		assert.Equal(t, []int{1, 5}, runner.calls)

		// Overall mean weights each trial by the frames it produced:
		// (0.5*4 + 0.25*6) / 10.
		assert.InDelta(t, 0.35, res.MeanTime, 1e-12)
	})

	t.Run("overlap exactly at the threshold fails", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(3)}
		// halfRect covers exactly half of the ground-truth area.
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, fullRect(), halfRect(), okRect()),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.5, SkipInitialize: 1})
		require.NoError(t, err)
		assert.Equal(t, region.Fail(), res.Trajectory[1])
		assert.Equal(t, []int{1}, runner.calls)
	})

	t.Run("non-finite overlap counts as a failure", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(5)}
		// An empty prediction has undefined overlap.
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, fullRect(), okRect(), region.Unknown(), okRect(), okRect()),
			4: trial(0.1, okRect(), okRect()),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		assert.Equal(t, region.Fail(), res.Trajectory[2])
		assert.Equal(t, []int{1, 4}, runner.calls)
	})

	t.Run("failed frame's region never appears in the output", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(3)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, fullRect(), offRect(), okRect()),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		assert.Equal(t, region.Fail(), res.Trajectory[1])
		for _, r := range res.Trajectory {
			assert.NotEqual(t, offRect(), r)
		}
	})
}

// TestSupervisorRun_Resume covers the resume offset policy after a failure.
func TestSupervisorRun_Resume(t *testing.T) {
	t.Parallel()

	t.Run("skip initialize sets the resume distance", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(10)}
		segment := append([]region.Region{fullRect(), okRect(), okRect(), offRect()},
			repeated(okRect(), 6)...)
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, segment...),
			7: trial(0.1, repeated(okRect(), 4)...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 3})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 7}, runner.calls)

		// Frames between the failure and the resume stay unset.
		assert.Equal(t, region.Fail(), res.Trajectory[3])
		assert.Equal(t, region.Unknown(), res.Trajectory[4])
		assert.Equal(t, region.Unknown(), res.Trajectory[5])
		assert.Equal(t, region.Init(), res.Trajectory[6])
	})

	t.Run("skip initialize below one is coerced to one", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(4)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, fullRect(), offRect(), okRect(), okRect()),
			3: trial(0.1, okRect(), okRect()),
		}}
		s := &Supervisor{Trials: runner}

		_, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 0})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, runner.calls)
	})

	t.Run("skip labels push the resume past labeled frames", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{
			name:   "ball",
			gt:     groundTruth(8),
			labels: map[int][]string{4: {"occlusion"}, 5: {"occlusion", "size_change"}},
		}
		segment := append([]region.Region{fullRect(), okRect(), offRect()},
			repeated(okRect(), 5)...)
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, segment...),
			6: trial(0.1, repeated(okRect(), 3)...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil,
			Options{FailOverlap: 0.1, SkipInitialize: 1, SkipLabels: []string{"occlusion"}})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 6}, runner.calls)
		assert.Equal(t, region.Unknown(), res.Trajectory[3])
		assert.Equal(t, region.Unknown(), res.Trajectory[4])
		assert.Equal(t, region.Init(), res.Trajectory[5])
	})

	t.Run("all remaining frames labeled ends the run", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{
			name:   "ball",
			gt:     groundTruth(6),
			labels: map[int][]string{4: {"occlusion"}, 5: {"occlusion"}},
		}
		segment := append([]region.Region{fullRect(), okRect(), offRect()},
			repeated(okRect(), 3)...)
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, segment...),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil,
			Options{FailOverlap: 0.1, SkipInitialize: 1, SkipLabels: []string{"occlusion"}})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, runner.calls)
		assert.Equal(t, region.Fail(), res.Trajectory[2])
		for f := 4; f <= 6; f++ {
			assert.Equal(t, region.Unknown(), res.Trajectory[f-1], "frame %d", f)
		}
	})
}

// TestSupervisorRun_Aborts covers the unrecoverable paths: executor errors
// and empty segments end the whole evaluation.
func TestSupervisorRun_Aborts(t *testing.T) {
	t.Parallel()

	t.Run("executor error aborts with an empty trajectory", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(5)}
		runner := &fakeTrialRunner{errs: map[int]error{1: errors.New("sh not found")}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: math.NaN()})
		require.Error(t, err)
		assert.ErrorContains(t, err, "run from frame 1")
		assert.Empty(t, res.Trajectory)
		assert.True(t, math.IsNaN(res.MeanTime))
	})

	t.Run("empty segment aborts", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(5)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1),
		}}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: math.NaN()})
		require.ErrorIs(t, err, tracker.ErrNoResult)
		assert.Empty(t, res.Trajectory)
		assert.True(t, math.IsNaN(res.MeanTime))
	})

	t.Run("error after progress discards the partial trajectory", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(10)}
		runner := &fakeTrialRunner{
			results: map[int]*tracker.TrialResult{
				1: trial(0.5, fullRect(), okRect(), okRect(), offRect()),
			},
			errs: map[int]error{5: errors.New("tracker crashed on launch")},
		}
		s := &Supervisor{Trials: runner}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.Error(t, err)
		assert.ErrorContains(t, err, "run from frame 5")
		assert.Equal(t, []int{1, 5}, runner.calls)
		assert.Empty(t, res.Trajectory)
		assert.True(t, math.IsNaN(res.MeanTime))
	})
}

// TestSupervisorRun_FakeMode checks that dry runs propagate the executor's
// command construction without interpretation.
func TestSupervisorRun_FakeMode(t *testing.T) {
	t.Parallel()

	seq := fakeSequence{name: "ball", gt: groundTruth(5)}
	runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
		1: {Command: "./tracker --run", ScratchDir: "/scratch/vot-trial-1", MeanTime: math.NaN()},
	}}
	var sink recordingSink
	s := &Supervisor{Trials: runner, Sink: &sink}
	cfg := &config.ExecutionConfig{Fake: fakeOn()}

	res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, cfg, Options{FailOverlap: math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, "./tracker --run", res.Command)
	assert.Equal(t, "/scratch/vot-trial-1", res.ScratchDir)
	assert.True(t, math.IsNaN(res.MeanTime))
	assert.Empty(t, res.Trajectory)
	assert.Equal(t, []int{1}, runner.calls)
	assert.Empty(t, sink.trials, "fake runs are not recorded")
}

// TestSupervisorRun_SingleFrame checks that a one-frame sequence never runs
// a trial and comes back untouched.
func TestSupervisorRun_SingleFrame(t *testing.T) {
	t.Parallel()

	seq := fakeSequence{name: "ball", gt: groundTruth(1)}
	runner := &fakeTrialRunner{}
	s := &Supervisor{Trials: runner}

	res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: math.NaN()})
	require.NoError(t, err)
	require.Len(t, res.Trajectory, 1)
	assert.Equal(t, region.Unknown(), res.Trajectory[0])
	assert.True(t, math.IsNaN(res.MeanTime))
	assert.Empty(t, runner.calls)
}

type recordingSink struct {
	trials []Trial
	err    error
}

func (s *recordingSink) TrialFinished(t Trial) error {
	s.trials = append(s.trials, t)
	return s.err
}

func fakeOn() *bool {
	v := true
	return &v
}

// TestSupervisorRun_Sink checks trial records and that sink errors never
// abort the evaluation.
func TestSupervisorRun_Sink(t *testing.T) {
	t.Parallel()

	t.Run("records one trial per invocation", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(10)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: {Trajectory: region.Trajectory{fullRect(), okRect(), okRect(), offRect()}, MeanTime: 0.5, ExitStatus: 0},
			5: {Trajectory: region.Trajectory(repeated(okRect(), 6)), MeanTime: 0.25, ExitStatus: 7},
		}}
		var sink recordingSink
		s := &Supervisor{Trials: runner, Sink: &sink}

		_, err := s.Run(tracker.Tracker{Identifier: "ncc"}, seq, nil, Options{FailOverlap: 0.1, SkipInitialize: 1})
		require.NoError(t, err)
		require.Len(t, sink.trials, 2)

		assert.Equal(t, Trial{
			Tracker:         "ncc",
			Sequence:        "ball",
			StartFrame:      1,
			FramesRequested: 10,
			FramesProduced:  4,
			MeanTime:        0.5,
		}, sink.trials[0])
		assert.Equal(t, Trial{
			Tracker:         "ncc",
			Sequence:        "ball",
			StartFrame:      5,
			FramesRequested: 6,
			FramesProduced:  6,
			ExitStatus:      7,
			MeanTime:        0.25,
		}, sink.trials[1])
	})

	t.Run("sink errors are tolerated", func(t *testing.T) {
		t.Parallel()
		seq := fakeSequence{name: "ball", gt: groundTruth(4)}
		runner := &fakeTrialRunner{results: map[int]*tracker.TrialResult{
			1: trial(0.1, repeated(okRect(), 4)...),
		}}
		sink := recordingSink{err: errors.New("db locked")}
		s := &Supervisor{Trials: runner, Sink: &sink}

		res, err := s.Run(tracker.Tracker{Identifier: "t"}, seq, nil, Options{FailOverlap: math.NaN()})
		require.NoError(t, err)
		require.Len(t, res.Trajectory, 4)
		assert.Len(t, sink.trials, 1)
	})
}

// TestOptionsFromConfig checks the config to options mapping.
func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults disable failure detection", func(t *testing.T) {
		t.Parallel()
		opts := OptionsFromConfig(config.DefaultExecutionConfig())
		assert.True(t, math.IsNaN(opts.FailOverlap))
		assert.Equal(t, 1, opts.SkipInitialize)
		assert.Empty(t, opts.SkipLabels)
	})

	t.Run("explicit values pass through", func(t *testing.T) {
		t.Parallel()
		overlap := 0.3
		skip := 5
		cfg := &config.ExecutionConfig{
			FailOverlap:    &overlap,
			SkipInitialize: &skip,
			SkipLabels:     []string{"occlusion"},
		}
		opts := OptionsFromConfig(cfg)
		assert.Equal(t, 0.3, opts.FailOverlap)
		assert.Equal(t, 5, opts.SkipInitialize)
		assert.Equal(t, []string{"occlusion"}, opts.SkipLabels)
	})
}
