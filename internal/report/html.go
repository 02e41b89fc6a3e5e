package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ScorpioDoctor/vot-toolkit/internal/fsutil"
)

// WriteHTML renders the report page for one tracker/sequence pair: a bar
// chart of per-repetition mean overlap and a line chart of the per-frame
// overlap of the first repetition.
func WriteHTML(fsys fsutil.FileSystem, path, tracker, sequence string, summary Summary, runs []RunStats) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(repetitionBar(tracker, sequence, summary, runs))
	if len(runs) > 0 {
		page.AddCharts(frameLine(runs[0]))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report for %s/%s: %w", tracker, sequence, err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func repetitionBar(tracker, sequence string, summary Summary, runs []RunStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s on %s", tracker, sequence),
			Width:     "900px",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s on %s", tracker, sequence),
			Subtitle: fmt.Sprintf("accuracy %.3f  robustness %.2f  mean time %.4fs  (%d repetitions)",
				summary.Accuracy, summary.Robustness, summary.MeanTime, summary.Repetitions),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Repetition"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mean overlap", Min: 0, Max: 1}),
	)

	labels := make([]string, 0, len(runs))
	values := make([]opts.BarData, 0, len(runs))
	for i, r := range runs {
		labels = append(labels, strconv.Itoa(i+1))
		values = append(values, opts.BarData{Value: chartValue(r.MeanOverlap)})
	}
	bar.SetXAxis(labels).AddSeries("mean overlap", values)
	return bar
}

func frameLine(run RunStats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-frame overlap",
			Subtitle: "first repetition; gaps are initialization and failure frames",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Overlap", Min: 0, Max: 1}),
	)

	frames := make([]string, 0, len(run.Overlaps))
	values := make([]opts.LineData, 0, len(run.Overlaps))
	for i, o := range run.Overlaps {
		frames = append(frames, strconv.Itoa(i+1))
		values = append(values, opts.LineData{Value: chartValue(o)})
	}
	line.SetXAxis(frames).AddSeries("overlap", values)
	return line
}

// chartValue maps NaN to nil so the series survives JSON encoding; echarts
// renders nil as a gap.
func chartValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
