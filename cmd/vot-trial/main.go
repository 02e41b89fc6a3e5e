// Command vot-trial runs an external tracker once over a sequence from a
// chosen start frame and prints the produced trajectory. It is the
// single-trial counterpart of vot-harness, useful for debugging a tracker
// integration without the reinitialization loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ScorpioDoctor/vot-toolkit/internal/config"
	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/monitoring"
	"github.com/ScorpioDoctor/vot-toolkit/internal/sequence"
	"github.com/ScorpioDoctor/vot-toolkit/internal/tracker"
)

func main() {
	configPath := flag.String("config", "", "JSON execution config")
	sequenceDir := flag.String("sequence", "", "Sequence directory (groundtruth.txt plus frame images)")
	trackerID := flag.String("tracker", "tracker", "Tracker identifier used in log messages")
	command := flag.String("command", "", "Shell command that runs the tracker")
	links := flag.String("links", "", "Library directories prepended to the loader search path (OS path list)")
	start := flag.Int("start", 1, "1-based frame the trial starts from")
	output := flag.String("output", "", "Write the trajectory to this file instead of stdout")
	fake := flag.Bool("fake", false, "Do not launch the tracker; report the command and scratch directory")
	keepScratch := flag.Bool("keep-scratch", false, "Keep the scratch directory after the trial")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	flag.Parse()

	if *quiet {
		monitoring.SetLogger(nil)
	}
	if *sequenceDir == "" {
		log.Fatal("-sequence is required")
	}

	cfg := config.DefaultExecutionConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadExecutionConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *fake {
		cfg.Fake = fake
	}
	if *keepScratch {
		cleanup := false
		cfg.Cleanup = &cleanup
	}

	fs := fsutil.OSFileSystem{}
	seq, err := sequence.Load(fs, *sequenceDir)
	if err != nil {
		log.Fatalf("load sequence: %v", err)
	}
	if *start < 1 || *start > seq.Length() {
		log.Fatalf("start frame %d outside 1..%d", *start, seq.Length())
	}

	tr := tracker.Tracker{
		Identifier: *trackerID,
		Command:    *command,
		LinkPaths:  filepath.SplitList(*links),
	}

	res, err := tracker.NewRunner().RunTrial(tr, seq, *start, cfg)
	if err != nil {
		log.Fatalf("trial: %v", err)
	}

	if cfg.GetFake() {
		fmt.Printf("command: %s\nscratch: %s\n", res.Command, res.ScratchDir)
		return
	}

	monitoring.Logf("Trial: %d regions, mean frame time %.4fs, exit status %d",
		len(res.Trajectory), res.MeanTime, res.ExitStatus)

	encoded := res.Trajectory.Encode()
	if *output == "" {
		os.Stdout.Write(encoded)
		return
	}
	if err := fs.WriteFile(*output, encoded, 0o644); err != nil {
		log.Fatalf("write trajectory: %v", err)
	}
}
