// Command vot-harness evaluates an external visual tracker over an annotated
// image sequence. Each repetition runs the tracker process, reinitializes it
// after tracking failures and stores the stitched trajectory plus timing in
// the on-disk result store. Trials are optionally recorded to a SQLite run
// log for later inspection.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/experiment"
	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/monitoring"
	"github.com/ScorpioDoctor/vot-toolkit/internal/results"
	"github.com/ScorpioDoctor/vot-toolkit/internal/runlog"
	"github.com/ScorpioDoctor/vot-toolkit/internal/sequence"
	"github.com/ScorpioDoctor/vot-toolkit/internal/tracker"
	"github.com/ScorpioDoctor/vot-toolkit/internal/version"
)

var (
	configPath  = flag.String("config", "", "JSON execution config; explicitly set flags override its fields")
	sequenceDir = flag.String("sequence", "", "Sequence directory (groundtruth.txt plus frame images)")
	trackerID   = flag.String("tracker", "", "Tracker identifier used for result paths")
	command     = flag.String("command", "", "Shell command that runs the tracker")
	links       = flag.String("links", "", "Library directories prepended to the loader search path (OS path list)")
	resultsDir  = flag.String("results", "", "Root directory of the result store")
	runLogPath  = flag.String("runlog", "", "SQLite trial log path (disabled when empty)")
	repeat      = flag.Int("repeat", 1, "Number of repetitions")
	failOverlap = flag.Float64("fail-overlap", 0, "Overlap threshold at or below which the tracker is reinitialized (detection off unless set)")
	skipInit    = flag.Int("skip-init", 1, "Frames to advance past a failure before reinitializing")
	skipLabels  = flag.String("skip-labels", "", "Comma-separated frame labels unsuitable for reinitialization")
	fake        = flag.Bool("fake", false, "Do not launch the tracker; report the command and scratch directory")
	keepScratch = flag.Bool("keep-scratch", false, "Keep scratch directories after each trial")
	quiet       = flag.Bool("quiet", false, "Suppress progress logging")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("vot-harness %s\n", version.String())
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	cfg := loadConfig()
	if *sequenceDir == "" {
		log.Fatal("-sequence is required")
	}
	if *trackerID == "" {
		log.Fatal("-tracker is required")
	}
	if strings.TrimSpace(*command) == "" {
		log.Fatal("-command is required")
	}

	fs := fsutil.OSFileSystem{}
	seq, err := sequence.Load(fs, *sequenceDir)
	if err != nil {
		log.Fatalf("load sequence: %v", err)
	}

	tr := tracker.Tracker{
		Identifier: *trackerID,
		Command:    *command,
		LinkPaths:  filepath.SplitList(*links),
	}

	sup := experiment.NewSupervisor()
	opts := experiment.OptionsFromConfig(cfg)

	if cfg.GetFake() {
		res, err := sup.Run(tr, seq, cfg, opts)
		if err != nil {
			log.Fatalf("dry run: %v", err)
		}
		fmt.Printf("command: %s\nscratch: %s\n", res.Command, res.ScratchDir)
		return
	}

	store := results.NewStore(fs, cfg.GetResultsDir())
	var trialLog *runlog.Store
	if path := cfg.GetRunLog(); path != "" {
		trialLog, err = runlog.Open(path)
		if err != nil {
			log.Fatalf("open run log: %v", err)
		}
		defer trialLog.Close()
	}

	existing, err := store.Repetitions(tr.Identifier, seq.Name())
	if err != nil {
		log.Fatalf("scan result store: %v", err)
	}

	reps := cfg.GetRepetitions()
	for rep := 1; rep <= reps; rep++ {
		if slices.Contains(existing, rep) {
			monitoring.Logf("Harness: repetition %d/%d already stored, skipping", rep, reps)
			continue
		}
		if trialLog != nil {
			sup.Sink = runlog.TrialWriter{Store: trialLog, Repetition: rep}
		}

		res, err := sup.Run(tr, seq, cfg, opts)
		if err != nil {
			log.Fatalf("repetition %d: %v", rep, err)
		}
		if err := store.WriteRun(tr.Identifier, seq.Name(), rep, res.Trajectory, res.MeanTime); err != nil {
			log.Fatalf("store repetition %d: %v", rep, err)
		}
		monitoring.Logf("Harness: repetition %d/%d done, mean frame time %.4fs", rep, reps, res.MeanTime)
	}

	monitoring.Logf("Harness: results for %s/%s under %s", tr.Identifier, seq.Name(), cfg.GetResultsDir())
}

// loadConfig builds the execution config from the optional JSON file, then
// overlays every flag the user set explicitly.
func loadConfig() *config.ExecutionConfig {
	cfg := config.DefaultExecutionConfig()
	if *configPath != "" {
		loaded, err := config.LoadExecutionConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "results":
			cfg.ResultsDir = resultsDir
		case "runlog":
			cfg.RunLog = runLogPath
		case "repeat":
			cfg.Repetitions = repeat
		case "fail-overlap":
			cfg.FailOverlap = failOverlap
		case "skip-init":
			cfg.SkipInitialize = skipInit
		case "skip-labels":
			cfg.SkipLabels = splitList(*skipLabels)
		case "fake":
			cfg.Fake = fake
		case "keep-scratch":
			cleanup := !*keepScratch
			cfg.Cleanup = &cleanup
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
