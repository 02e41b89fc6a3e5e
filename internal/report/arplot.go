package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ARPoint is one tracker's position in accuracy/robustness space.
type ARPoint struct {
	Label      string
	Accuracy   float64
	Robustness float64
}

// arPalette cycles over tracker glyph colors.
var arPalette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
}

// WriteARPlot renders an accuracy (y) versus robustness (x) scatter of the
// given trackers to a PNG file. Points with an undefined coordinate are
// skipped.
func WriteARPlot(path string, points []ARPoint) error {
	p := plot.New()
	p.Title.Text = "Accuracy vs Robustness"
	p.X.Label.Text = "Robustness (mean failures per run)"
	p.Y.Label.Text = "Accuracy (mean overlap)"
	p.Y.Min, p.Y.Max = 0, 1
	p.X.Min = 0
	p.Legend.Top = true

	plotted := 0
	for i, pt := range points {
		if math.IsNaN(pt.Accuracy) || math.IsNaN(pt.Robustness) {
			continue
		}
		s, err := plotter.NewScatter(plotter.XYs{{X: pt.Robustness, Y: pt.Accuracy}})
		if err != nil {
			return fmt.Errorf("build scatter for %s: %w", pt.Label, err)
		}
		s.GlyphStyle.Radius = vg.Points(4)
		s.GlyphStyle.Color = arPalette[i%len(arPalette)]
		p.Add(s)
		p.Legend.Add(pt.Label, s)
		plotted++
	}
	if plotted == 0 {
		return fmt.Errorf("no defined accuracy/robustness points to plot")
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save ar plot: %w", err)
	}
	return nil
}
