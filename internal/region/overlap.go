package region

import "math"

// maxRasterCells bounds the sampling grid for polygon overlap so a huge
// coordinate range cannot stall the evaluation loop.
const maxRasterCells = 4 << 20

// Overlap returns the intersection-over-union of two regions in [0,1].
// It returns NaN when either region is a marker or degenerate, which callers
// treat as "overlap undefined".
func Overlap(a, b Region) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return math.NaN()
	}
	if a.Kind == KindRectangle && b.Kind == KindRectangle {
		return rectOverlap(a, b)
	}
	return rasterOverlap(a, b)
}

// Overlaps evaluates Overlap pairwise. The result length is the shorter of
// the two inputs.
func Overlaps(predicted, groundTruth []Region) []float64 {
	n := len(predicted)
	if len(groundTruth) < n {
		n = len(groundTruth)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Overlap(predicted[i], groundTruth[i])
	}
	return out
}

func rectOverlap(a, b Region) float64 {
	iw := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	ih := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
	if iw < 0 {
		iw = 0
	}
	if ih < 0 {
		ih = 0
	}
	inter := iw * ih
	union := a.W*a.H + b.W*b.H - inter
	if union <= 0 {
		return math.NaN()
	}
	return inter / union
}

// rasterOverlap samples both shapes over their joint bounding box at unit
// resolution (coarser if the box exceeds maxRasterCells) and counts
// intersection and union cells.
func rasterOverlap(a, b Region) float64 {
	ax0, ay0, ax1, ay1 := a.Bounds()
	bx0, by0, bx1, by1 := b.Bounds()

	x0 := math.Floor(math.Min(ax0, bx0))
	y0 := math.Floor(math.Min(ay0, by0))
	x1 := math.Ceil(math.Max(ax1, bx1))
	y1 := math.Ceil(math.Max(ay1, by1))

	w := x1 - x0
	h := y1 - y0
	if w <= 0 || h <= 0 {
		return math.NaN()
	}

	step := 1.0
	if w*h > maxRasterCells {
		step = math.Sqrt(w * h / maxRasterCells)
	}

	var inter, union float64
	for y := y0 + step/2; y < y1; y += step {
		for x := x0 + step/2; x < x1; x += step {
			inA := a.contains(x, y)
			inB := b.contains(x, y)
			if inA && inB {
				inter++
			}
			if inA || inB {
				union++
			}
		}
	}
	if union == 0 {
		return math.NaN()
	}
	return inter / union
}

// contains tests whether the point lies inside the shape. Polygons use the
// even-odd rule.
func (r Region) contains(x, y float64) bool {
	switch r.Kind {
	case KindRectangle:
		return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
	case KindPolygon:
		inside := false
		n := len(r.Points)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			pi, pj := r.Points[i], r.Points[j]
			if (pi.Y > y) != (pj.Y > y) &&
				x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
				inside = !inside
			}
		}
		return inside
	default:
		return false
	}
}
