// Package report scores stored evaluation runs against ground truth and
// renders the results as HTML chart pages and static plots.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
)

// RunStats summarizes one stored repetition against ground truth.
type RunStats struct {
	// Overlaps holds the per-frame overlap where the tracker predicted a
	// region; NaN for sentinel and unset slots.
	Overlaps []float64

	// MeanOverlap is the mean of the defined overlaps. NaN when no frame
	// contributed.
	MeanOverlap float64

	// Failures counts Fail markers, Inits counts Init markers.
	Failures int
	Inits    int

	// ValidFrames counts frames contributing to MeanOverlap.
	ValidFrames int
}

// Analyze scores one trajectory against ground truth. Sentinel and unset
// slots are excluded from the mean overlap; Fail markers count as failures.
func Analyze(trajectory region.Trajectory, groundTruth []region.Region) RunStats {
	n := len(trajectory)
	if len(groundTruth) < n {
		n = len(groundTruth)
	}

	stats := RunStats{Overlaps: make([]float64, n)}
	var defined []float64
	for i := 0; i < n; i++ {
		r := trajectory[i]
		if r.IsSpecial() {
			stats.Overlaps[i] = math.NaN()
			switch r.Code {
			case region.CodeInit:
				stats.Inits++
			case region.CodeFail:
				stats.Failures++
			}
			continue
		}
		o := region.Overlap(r, groundTruth[i])
		stats.Overlaps[i] = o
		if !math.IsNaN(o) {
			defined = append(defined, o)
		}
	}

	stats.ValidFrames = len(defined)
	stats.MeanOverlap = math.NaN()
	if len(defined) > 0 {
		stats.MeanOverlap = stat.Mean(defined, nil)
	}
	return stats
}

// Summary aggregates the repetitions of one tracker/sequence pair.
type Summary struct {
	Repetitions int

	// Accuracy is the mean of per-repetition mean overlaps and
	// AccuracyStdDev its standard deviation. The deviation is NaN with
	// fewer than two contributing repetitions.
	Accuracy       float64
	AccuracyStdDev float64

	// Robustness is the mean failure count per repetition.
	Robustness float64

	// MeanTime is the mean per-frame seconds across repetitions with a
	// defined time.
	MeanTime float64
}

// Summarize folds per-repetition stats and mean times into a Summary.
func Summarize(runs []RunStats, times []float64) Summary {
	s := Summary{
		Repetitions:    len(runs),
		Accuracy:       math.NaN(),
		AccuracyStdDev: math.NaN(),
		Robustness:     math.NaN(),
		MeanTime:       math.NaN(),
	}
	if len(runs) == 0 {
		return s
	}

	accs := make([]float64, 0, len(runs))
	fails := make([]float64, 0, len(runs))
	for _, r := range runs {
		if !math.IsNaN(r.MeanOverlap) {
			accs = append(accs, r.MeanOverlap)
		}
		fails = append(fails, float64(r.Failures))
	}
	if len(accs) > 0 {
		s.Accuracy = stat.Mean(accs, nil)
	}
	if len(accs) > 1 {
		s.AccuracyStdDev = stat.StdDev(accs, nil)
	}
	s.Robustness = stat.Mean(fails, nil)

	defined := make([]float64, 0, len(times))
	for _, t := range times {
		if !math.IsNaN(t) {
			defined = append(defined, t)
		}
	}
	if len(defined) > 0 {
		s.MeanTime = stat.Mean(defined, nil)
	}
	return s
}
