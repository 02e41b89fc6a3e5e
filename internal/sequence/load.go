package sequence

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/region"
)

// groundTruthFile names the per-sequence annotation file, one region per line.
const groundTruthFile = "groundtruth.txt"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// Load reads a VOT-style sequence directory: groundtruth.txt defines the
// length, frame images live either in the directory itself or under color/,
// and every <name>.label file holds a 0/1 value per frame marking the frames
// that carry that label.
func Load(fsys fsutil.FileSystem, dir string) (*Sequence, error) {
	groundTruth, err := loadGroundTruth(fsys, filepath.Join(dir, groundTruthFile))
	if err != nil {
		return nil, fmt.Errorf("sequence %s: %w", dir, err)
	}
	n := len(groundTruth)

	frames, err := loadFrames(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("sequence %s: %w", dir, err)
	}
	if len(frames) > 0 && len(frames) != n {
		return nil, fmt.Errorf("sequence %s: %d frame images but %d ground-truth regions", dir, len(frames), n)
	}

	s := New(filepath.Base(dir), frames, groundTruth)

	if err := loadLabels(fsys, dir, n, s); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", dir, err)
	}
	return s, nil
}

func loadGroundTruth(fsys fsutil.FileSystem, path string) ([]region.Region, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", groundTruthFile, err)
	}

	var regions []region.Region
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r, err := region.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", groundTruthFile, i+1, err)
		}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s is empty", groundTruthFile)
	}
	return regions, nil
}

// loadFrames lists frame images, preferring a color/ subdirectory when one
// exists. An imageless sequence is allowed; callers that need real frames
// check for it.
func loadFrames(fsys fsutil.FileSystem, dir string) ([]string, error) {
	imgDir := dir
	if fsys.Exists(filepath.Join(dir, "color")) {
		imgDir = filepath.Join(dir, "color")
	}

	names, err := fsys.ReadDir(imgDir)
	if err != nil {
		return nil, fmt.Errorf("list frames in %s: %w", imgDir, err)
	}

	var frames []string
	for _, name := range names {
		if imageExtensions[strings.ToLower(filepath.Ext(name))] {
			frames = append(frames, filepath.Join(imgDir, name))
		}
	}
	return frames, nil
}

func loadLabels(fsys fsutil.FileSystem, dir string, n int, s *Sequence) error {
	names, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	for _, name := range names {
		if filepath.Ext(name) != ".label" {
			continue
		}
		data, err := fsys.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read label %s: %w", name, err)
		}

		var mask []bool
		for i, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			v, err := strconv.Atoi(line)
			if err != nil {
				return fmt.Errorf("label %s line %d: %w", name, i+1, err)
			}
			mask = append(mask, v != 0)
		}
		if len(mask) != n {
			return fmt.Errorf("label %s has %d entries, want %d", name, len(mask), n)
		}
		s.SetLabel(strings.TrimSuffix(name, ".label"), mask)
	}
	return nil
}
