// Package results persists per-repetition evaluation output as plain text
// files laid out results_dir/tracker/sequence, one trajectory file and one
// time file per repetition.
package results

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
	"github.com/ScorpioDoctor/vot-toolkit/internal/security"
)

// Store reads and writes evaluation results. Directory and file names derive
// from tracker and sequence names after sanitization, so hostile names cannot
// escape the results root.
type Store struct {
	fs   fsutil.FileSystem
	root string
}

// NewStore returns a Store rooted at dir.
func NewStore(fs fsutil.FileSystem, dir string) *Store {
	return &Store{fs: fs, root: dir}
}

// Dir returns the directory holding all repetitions of a tracker/sequence
// pair.
func (s *Store) Dir(tracker, sequence string) string {
	return filepath.Join(s.root,
		security.SanitizeFilename(tracker), security.SanitizeFilename(sequence))
}

// WriteRun stores one repetition: the stitched trajectory plus its mean
// per-frame time in seconds.
func (s *Store) WriteRun(tracker, sequence string, repetition int, trajectory region.Trajectory, meanTime float64) error {
	dir := s.Dir(tracker, sequence)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}
	if err := region.WriteTrajectory(s.fs, s.trajectoryPath(tracker, sequence, repetition), trajectory); err != nil {
		return fmt.Errorf("write trajectory: %w", err)
	}
	data := fmt.Sprintf("%.6f\n", meanTime)
	if err := s.fs.WriteFile(s.timePath(tracker, sequence, repetition), []byte(data), 0o644); err != nil {
		return fmt.Errorf("write time: %w", err)
	}
	return nil
}

// ReadRun loads one stored repetition. A missing time file yields a NaN mean
// time; a missing trajectory is an error.
func (s *Store) ReadRun(tracker, sequence string, repetition int) (region.Trajectory, float64, error) {
	path := s.trajectoryPath(tracker, sequence, repetition)
	if !s.fs.Exists(path) {
		return nil, 0, fmt.Errorf("no stored repetition %d for %s/%s", repetition, tracker, sequence)
	}
	trajectory, err := region.ReadTrajectory(s.fs, path)
	if err != nil {
		return nil, 0, fmt.Errorf("read trajectory: %w", err)
	}

	meanTime := math.NaN()
	if data, err := s.fs.ReadFile(s.timePath(tracker, sequence, repetition)); err == nil {
		if fields := strings.Fields(string(data)); len(fields) > 0 {
			if v, parseErr := strconv.ParseFloat(fields[0], 64); parseErr == nil {
				meanTime = v
			}
		}
	}
	return trajectory, meanTime, nil
}

// Trackers lists the tracker names present in the store in sorted order. A
// missing results root yields an empty list.
func (s *Store) Trackers() ([]string, error) {
	names, err := s.fs.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan results root: %w", err)
	}
	return names, nil
}

// Repetitions lists the stored repetition indices of a tracker/sequence pair
// in ascending order. A pair with no stored runs yields an empty list.
func (s *Store) Repetitions(tracker, sequence string) ([]int, error) {
	entries, err := s.fs.ReadDir(s.Dir(tracker, sequence))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan results directory: %w", err)
	}

	prefix := security.SanitizeFilename(sequence) + "_"
	var reps []int
	for _, name := range entries {
		if !strings.HasPrefix(name, prefix) ||
			!strings.HasSuffix(name, ".txt") ||
			strings.HasSuffix(name, "_time.txt") {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".txt")
		rep, convErr := strconv.Atoi(num)
		if convErr != nil {
			continue
		}
		reps = append(reps, rep)
	}
	sort.Ints(reps)
	return reps, nil
}

func (s *Store) trajectoryPath(tracker, sequence string, repetition int) string {
	name := security.SanitizeFilename(sequence)
	return filepath.Join(s.Dir(tracker, sequence), fmt.Sprintf("%s_%03d.txt", name, repetition))
}

func (s *Store) timePath(tracker, sequence string, repetition int) string {
	name := security.SanitizeFilename(sequence)
	return filepath.Join(s.Dir(tracker, sequence), fmt.Sprintf("%s_%03d_time.txt", name, repetition))
}
