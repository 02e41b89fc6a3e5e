package tracker

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/monitoring"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
	"github.com/ScorpioDoctor/vot-toolkit/internal/security"
	"github.com/ScorpioDoctor/vot-toolkit/internal/timeutil"
)

// TrialResult holds the outcome of a single tracker run.
type TrialResult struct {
	// Trajectory is the tracker's output, one region per requested frame.
	// Empty in fake mode.
	Trajectory region.Trajectory

	// MeanTime is the mean wall-clock seconds per frame transition. NaN in
	// fake mode.
	MeanTime float64

	// Command is the shell command that was (or would have been) run.
	Command string

	// ScratchDir is the working directory the tracker ran in. It is removed
	// before RunTrial returns unless cleanup is disabled or fake mode is
	// active.
	ScratchDir string

	// ExitStatus is the tracker's exit status. Non-zero statuses are
	// tolerated as long as the output trajectory is valid.
	ExitStatus int

	// Output is the tracker's combined stdout and stderr.
	Output []byte
}

// Runner executes single tracker trials. Use NewRunner for production;
// tests swap in memory and mock implementations.
type Runner struct {
	FS       fsutil.FileSystem
	Clock    timeutil.Clock
	Commands CommandBuilder
}

// NewRunner returns a Runner backed by the real filesystem, clock and shell.
func NewRunner() *Runner {
	return &Runner{
		FS:       fsutil.OSFileSystem{},
		Clock:    timeutil.RealClock{},
		Commands: NewRealCommandBuilder(),
	}
}

// RunTrial executes one pass of tr over frames start..N of seq in a fresh
// scratch directory and returns the trajectory the tracker left behind.
//
// The tracker process runs with the scratch directory as its working
// directory and with the platform's dynamic-library search path extended by
// tr.LinkPaths; both the working directory and the environment are restored
// before RunTrial returns. A failed launch or abnormal exit is a warning
// only: the run is judged by the output trajectory it leaves behind. In fake
// mode nothing is launched and the prepared scratch directory is kept for
// inspection.
func (r *Runner) RunTrial(tr Tracker, seq Sequence, start int, cfg *config.ExecutionConfig) (*TrialResult, error) {
	if strings.TrimSpace(tr.Command) == "" {
		return nil, fmt.Errorf("tracker %s: %w", tr.Identifier, ErrNoCommand)
	}
	if cfg == nil {
		cfg = config.DefaultExecutionConfig()
	}

	scratch, err := r.prepareTrialData(seq, start, cfg)
	if scratch != "" && !cfg.GetFake() {
		defer r.cleanup(scratch, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker %s: %w", tr.Identifier, err)
	}
	if cfg.GetFake() {
		return &TrialResult{Command: tr.Command, ScratchDir: scratch, MeanTime: math.NaN()}, nil
	}

	out, status, elapsed, err := r.runInScratch(tr, scratch)
	if err != nil {
		monitoring.Logf("Trial: tracker %s: %v", tr.Identifier, err)
	} else if status != 0 {
		monitoring.Logf("Trial: tracker %s exited with status %d", tr.Identifier, status)
	}

	meanTime := elapsed.Seconds() / float64(seq.Length()-start)

	trajectory, readErr := region.ReadTrajectory(r.FS, filepath.Join(scratch, outputFile))
	if readErr != nil {
		monitoring.Logf("Trial: tracker %s: %v", tr.Identifier, readErr)
	}
	if len(trajectory) == 0 {
		return nil, fmt.Errorf("tracker %s: %w", tr.Identifier, ErrNoResult)
	}
	if want := seq.Length() - start + 1; len(trajectory) != want {
		dumpOutput(tr.Identifier, out)
		return nil, fmt.Errorf("tracker %s: %w", tr.Identifier,
			&TrajectoryLengthError{Want: want, Got: len(trajectory)})
	}

	return &TrialResult{
		Trajectory: trajectory,
		MeanTime:   meanTime,
		Command:    tr.Command,
		ScratchDir: scratch,
		ExitStatus: status,
		Output:     out,
	}, nil
}

// runInScratch launches the tracker command inside dir and times it. The
// library search path variable and the working directory of the process are
// mutated for the duration of the run and restored afterwards.
func (r *Runner) runInScratch(tr Tracker, dir string) ([]byte, int, time.Duration, error) {
	envName := libraryPathVar()
	prev, had := os.LookupEnv(envName)
	if err := os.Setenv(envName, tr.libraryPath(prev)); err != nil {
		return nil, -1, 0, fmt.Errorf("set %s: %w", envName, err)
	}
	defer func() {
		var err error
		if had {
			err = os.Setenv(envName, prev)
		} else {
			err = os.Unsetenv(envName)
		}
		if err != nil {
			monitoring.Logf("Trial: restore %s: %v", envName, err)
		}
	}()

	prevDir, err := os.Getwd()
	if err != nil {
		return nil, -1, 0, fmt.Errorf("determine working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return nil, -1, 0, fmt.Errorf("enter scratch directory: %w", err)
	}
	defer func() {
		if err := os.Chdir(prevDir); err != nil {
			monitoring.Logf("Trial: restore working directory %s: %v", prevDir, err)
		}
	}()

	started := r.Clock.Now()
	out, status, runErr := r.Commands.ShellCommand(tr.Command).Run()
	elapsed := r.Clock.Since(started)
	return out, status, elapsed, runErr
}

// cleanup removes the scratch directory. Paths that resolve outside the
// configured scratch root are left alone.
func (r *Runner) cleanup(dir string, cfg *config.ExecutionConfig) {
	if !cfg.GetCleanup() {
		return
	}
	if err := security.ValidatePathWithinDirectory(dir, cfg.GetScratchDir()); err != nil {
		monitoring.Logf("Trial: not removing scratch directory %s: %v", dir, err)
		return
	}
	if err := r.FS.RemoveAll(dir); err != nil {
		monitoring.Logf("Trial: remove scratch directory %s: %v", dir, err)
	}
}

// dumpOutput logs the tracker's combined output with control bytes other
// than line breaks stripped, for diagnosing malformed trajectories.
func dumpOutput(identifier string, out []byte) {
	if len(out) == 0 {
		return
	}
	printable := make([]byte, 0, len(out))
	for _, b := range out {
		if b >= 32 || b == '\n' || b == '\r' {
			printable = append(printable, b)
		}
	}
	monitoring.Logf("Trial: ---- %s output begin ----", identifier)
	monitoring.Logf("%s", printable)
	monitoring.Logf("Trial: ---- %s output end ----", identifier)
}
