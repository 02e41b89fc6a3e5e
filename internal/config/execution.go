// Package config holds the execution context for tracker evaluation runs.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// ExecutionConfig is the configuration bag passed through the harness. All
// fields are optional pointers so a partial JSON file only overrides what it
// names; the Get* accessors supply defaults for the rest.
type ExecutionConfig struct {
	// Fake short-circuits execution: no process is started and the executor
	// returns the constructed command plus scratch directory for inspection.
	Fake *bool `json:"fake,omitempty"`

	// Cleanup controls whether scratch directories are deleted after a run.
	Cleanup *bool `json:"cleanup,omitempty"`

	// ScratchDir is the parent directory for per-run scratch directories.
	ScratchDir *string `json:"scratch_dir,omitempty"`

	// ResultsDir is the root of the on-disk results store.
	ResultsDir *string `json:"results_dir,omitempty"`

	// RunLog is the path of the SQLite trial log; empty disables logging.
	RunLog *string `json:"run_log,omitempty"`

	// Repetitions is how many times the harness repeats the experiment.
	Repetitions *int `json:"repetitions,omitempty"`

	// FailOverlap is the overlap threshold at or below which a frame counts
	// as a tracking failure. Omitted means failure detection is disabled.
	FailOverlap *float64 `json:"fail_overlap,omitempty"`

	// SkipInitialize is the minimum number of frames to advance past a
	// detected failure before reinitializing.
	SkipInitialize *int `json:"skip_initialize,omitempty"`

	// SkipLabels lists frame labels the reinitialization must skip past.
	SkipLabels []string `json:"skip_labels,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultExecutionConfig returns a config with every field unset, so the
// accessors answer with defaults.
func DefaultExecutionConfig() *ExecutionConfig {
	return &ExecutionConfig{}
}

// LoadExecutionConfig loads an ExecutionConfig from a JSON file. The file
// must carry a .json extension and stay under the max file size. Fields
// omitted from the JSON keep their defaults, so partial configs are safe.
func LoadExecutionConfig(path string) (*ExecutionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultExecutionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ExecutionConfig) Validate() error {
	if c.FailOverlap != nil {
		if *c.FailOverlap < 0 || *c.FailOverlap > 1 {
			return fmt.Errorf("fail_overlap must be between 0 and 1, got %f", *c.FailOverlap)
		}
	}

	if c.SkipInitialize != nil && *c.SkipInitialize < 0 {
		return fmt.Errorf("skip_initialize must be non-negative, got %d", *c.SkipInitialize)
	}

	if c.Repetitions != nil && *c.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", *c.Repetitions)
	}

	return nil
}

// GetFake returns the fake value or the default.
func (c *ExecutionConfig) GetFake() bool {
	if c.Fake == nil {
		return false // default: run real processes
	}
	return *c.Fake
}

// GetCleanup returns the cleanup value or the default.
func (c *ExecutionConfig) GetCleanup() bool {
	if c.Cleanup == nil {
		return true // default: delete scratch directories
	}
	return *c.Cleanup
}

// GetScratchDir returns the scratch_dir value or the default.
func (c *ExecutionConfig) GetScratchDir() string {
	if c.ScratchDir == nil || *c.ScratchDir == "" {
		return os.TempDir()
	}
	return *c.ScratchDir
}

// GetResultsDir returns the results_dir value or the default.
func (c *ExecutionConfig) GetResultsDir() string {
	if c.ResultsDir == nil || *c.ResultsDir == "" {
		return "results"
	}
	return *c.ResultsDir
}

// GetRunLog returns the run_log value or the default (disabled).
func (c *ExecutionConfig) GetRunLog() string {
	if c.RunLog == nil {
		return ""
	}
	return *c.RunLog
}

// GetRepetitions returns the repetitions value or the default.
func (c *ExecutionConfig) GetRepetitions() int {
	if c.Repetitions == nil || *c.Repetitions < 1 {
		return 1
	}
	return *c.Repetitions
}

// GetFailOverlap returns the fail_overlap value, or NaN when failure
// detection is disabled.
func (c *ExecutionConfig) GetFailOverlap() float64 {
	if c.FailOverlap == nil {
		return math.NaN() // default: no threshold is low enough to trigger
	}
	return *c.FailOverlap
}

// GetSkipInitialize returns the skip_initialize value or the default,
// coerced to at least 1.
func (c *ExecutionConfig) GetSkipInitialize() int {
	if c.SkipInitialize == nil || *c.SkipInitialize < 1 {
		return 1
	}
	return *c.SkipInitialize
}

// GetSkipLabels returns the skip_labels value; nil means no label skipping.
func (c *ExecutionConfig) GetSkipLabels() []string {
	return c.SkipLabels
}
