// Command vot-report scores stored evaluation runs against a sequence's
// ground truth and renders comparison reports: one HTML page per tracker and
// an accuracy/robustness scatter covering all of them.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
	"github.com/ScorpioDoctor/vot-toolkit/internal/monitoring"
	"github.com/ScorpioDoctor/vot-toolkit/internal/report"
	"github.com/ScorpioDoctor/vot-toolkit/internal/results"
	"github.com/ScorpioDoctor/vot-toolkit/internal/security"
	"github.com/ScorpioDoctor/vot-toolkit/internal/sequence"
)

func main() {
	resultsDir := flag.String("results", "results", "Root directory of the result store")
	sequenceDir := flag.String("sequence", "", "Sequence directory the results were produced on")
	trackers := flag.String("trackers", "", "Comma-separated tracker identifiers (default: every tracker in the store)")
	outputDir := flag.String("output", "report", "Directory the report files are written to")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	flag.Parse()

	if *quiet {
		monitoring.SetLogger(nil)
	}
	if *sequenceDir == "" {
		log.Fatal("-sequence is required")
	}

	fs := fsutil.OSFileSystem{}
	seq, err := sequence.Load(fs, *sequenceDir)
	if err != nil {
		log.Fatalf("load sequence: %v", err)
	}
	store := results.NewStore(fs, *resultsDir)

	names := splitList(*trackers)
	if len(names) == 0 {
		names, err = store.Trackers()
		if err != nil {
			log.Fatalf("scan result store: %v", err)
		}
	}
	if len(names) == 0 {
		log.Fatalf("no stored results under %s", *resultsDir)
	}

	if err := fs.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("create report directory: %v", err)
	}

	groundTruth := seq.Regions(1, seq.Length())
	var points []report.ARPoint
	for _, name := range names {
		reps, err := store.Repetitions(name, seq.Name())
		if err != nil {
			log.Fatalf("scan repetitions for %s: %v", name, err)
		}
		if len(reps) == 0 {
			monitoring.Logf("Report: no runs of %s on %s, skipping", name, seq.Name())
			continue
		}

		runs := make([]report.RunStats, 0, len(reps))
		times := make([]float64, 0, len(reps))
		for _, rep := range reps {
			trajectory, meanTime, err := store.ReadRun(name, seq.Name(), rep)
			if err != nil {
				log.Fatalf("read %s repetition %d: %v", name, rep, err)
			}
			runs = append(runs, report.Analyze(trajectory, groundTruth))
			times = append(times, meanTime)
		}

		summary := report.Summarize(runs, times)
		page := filepath.Join(*outputDir, fmt.Sprintf("%s_%s.html",
			security.SanitizeFilename(name), security.SanitizeFilename(seq.Name())))
		if err := report.WriteHTML(fs, page, name, seq.Name(), summary, runs); err != nil {
			log.Fatalf("write report page: %v", err)
		}

		points = append(points, report.ARPoint{
			Label:      name,
			Accuracy:   summary.Accuracy,
			Robustness: summary.Robustness,
		})
		fmt.Printf("%s: accuracy=%.3f robustness=%.2f time=%.4fs repetitions=%d\n",
			name, summary.Accuracy, summary.Robustness, summary.MeanTime, summary.Repetitions)
	}

	if len(points) == 0 {
		log.Fatalf("no runs of any tracker on %s", seq.Name())
	}
	arPath := filepath.Join(*outputDir, "ar_plot.png")
	if err := report.WriteARPlot(arPath, points); err != nil {
		monitoring.Logf("Report: skipping AR plot: %v", err)
		return
	}
	monitoring.Logf("Report: wrote %s", arPath)
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
