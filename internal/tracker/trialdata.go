package tracker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
)

// File names of the tracker protocol inside a scratch directory.
const (
	imagesFile     = "images.txt"
	seedRegionFile = "region.txt"
	outputFile     = "output.txt"
)

// prepareTrialData creates a fresh scratch directory for a run starting at
// start and writes the per-run inputs: images.txt with one frame path per
// line for frames start..N, and region.txt with the seed frame's
// ground-truth region. The directory path is returned even when writing an
// input fails, so the caller can clean it up.
func (r *Runner) prepareTrialData(seq Sequence, start int, cfg *config.ExecutionConfig) (string, error) {
	dir := filepath.Join(cfg.GetScratchDir(), "vot-trial-"+uuid.New().String())
	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}

	var images strings.Builder
	for i := start; i <= seq.Length(); i++ {
		images.WriteString(seq.Frame(i))
		images.WriteByte('\n')
	}
	if err := r.FS.WriteFile(filepath.Join(dir, imagesFile), []byte(images.String()), 0o644); err != nil {
		return dir, fmt.Errorf("write %s: %w", imagesFile, err)
	}

	seed := seq.Region(start).String() + "\n"
	if err := r.FS.WriteFile(filepath.Join(dir, seedRegionFile), []byte(seed), 0o644); err != nil {
		return dir, fmt.Errorf("write %s: %w", seedRegionFile, err)
	}

	return dir, nil
}
