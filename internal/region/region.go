// Package region models the shapes exchanged with external trackers:
// axis-aligned rectangles, free-form polygons, and the special single-number
// marker codes that trajectory files use for frames without a shape.
package region

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the three region variants.
type Kind int

const (
	// KindSpecial is a marker code rather than a shape.
	KindSpecial Kind = iota
	// KindRectangle is an axis-aligned x,y,w,h rectangle.
	KindRectangle
	// KindPolygon is a closed polygon with at least three vertices.
	KindPolygon
)

// Special marker codes used in trajectory files.
const (
	// CodeUnknown marks a frame no run has touched yet.
	CodeUnknown = 0
	// CodeInit marks the seed frame of a run.
	CodeInit = 1
	// CodeFail marks the frame where a tracking failure was detected.
	CodeFail = 2
)

// Point is a single polygon vertex.
type Point struct {
	X float64
	Y float64
}

// Region is a tagged variant: exactly one of the three kinds is meaningful.
// The zero value is Special(CodeUnknown).
type Region struct {
	Kind Kind

	// Code holds the marker value when Kind is KindSpecial.
	Code int

	// X, Y, W, H describe the rectangle when Kind is KindRectangle.
	X, Y, W, H float64

	// Points holds the vertices when Kind is KindPolygon.
	Points []Point
}

// Special returns a marker region with the given code.
func Special(code int) Region {
	return Region{Kind: KindSpecial, Code: code}
}

// Unknown returns the neutral placeholder marker.
func Unknown() Region { return Special(CodeUnknown) }

// Init returns the run-seed marker.
func Init() Region { return Special(CodeInit) }

// Fail returns the tracking-failure marker.
func Fail() Region { return Special(CodeFail) }

// NewRect returns a rectangle region.
func NewRect(x, y, w, h float64) Region {
	return Region{Kind: KindRectangle, X: x, Y: y, W: w, H: h}
}

// NewPolygon returns a polygon region over the given vertices.
func NewPolygon(points []Point) Region {
	return Region{Kind: KindPolygon, Points: points}
}

// IsSpecial reports whether the region is a marker rather than a shape.
func (r Region) IsSpecial() bool { return r.Kind == KindSpecial }

// IsEmpty reports whether the region carries no usable area: markers,
// non-positive rectangles, and polygons with fewer than three vertices.
func (r Region) IsEmpty() bool {
	switch r.Kind {
	case KindRectangle:
		return r.W <= 0 || r.H <= 0
	case KindPolygon:
		return len(r.Points) < 3
	default:
		return true
	}
}

// Bounds returns the bounding box (x0, y0, x1, y1). Markers have NaN bounds.
func (r Region) Bounds() (x0, y0, x1, y1 float64) {
	switch r.Kind {
	case KindRectangle:
		return r.X, r.Y, r.X + r.W, r.Y + r.H
	case KindPolygon:
		if len(r.Points) == 0 {
			break
		}
		x0, y0 = r.Points[0].X, r.Points[0].Y
		x1, y1 = x0, y0
		for _, p := range r.Points[1:] {
			x0 = math.Min(x0, p.X)
			y0 = math.Min(y0, p.Y)
			x1 = math.Max(x1, p.X)
			y1 = math.Max(y1, p.Y)
		}
		return x0, y0, x1, y1
	}
	nan := math.NaN()
	return nan, nan, nan, nan
}

// Parse decodes one region-file line: a single value is a marker code, four
// comma-separated values are a rectangle, an even count of six or more is a
// polygon vertex list.
func Parse(line string) (Region, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Region{}, fmt.Errorf("parse region value %q: %w", f, err)
		}
		vals = append(vals, v)
	}

	switch {
	case len(vals) == 1:
		return Special(int(vals[0])), nil
	case len(vals) == 4:
		return NewRect(vals[0], vals[1], vals[2], vals[3]), nil
	case len(vals) >= 6 && len(vals)%2 == 0:
		points := make([]Point, 0, len(vals)/2)
		for i := 0; i < len(vals); i += 2 {
			points = append(points, Point{X: vals[i], Y: vals[i+1]})
		}
		return NewPolygon(points), nil
	default:
		return Region{}, fmt.Errorf("region line has %d values, want 1, 4 or an even count >= 6", len(vals))
	}
}

// String encodes the region in the trajectory-file format. Parse(r.String())
// round-trips.
func (r Region) String() string {
	switch r.Kind {
	case KindRectangle:
		return strings.Join([]string{
			formatFloat(r.X), formatFloat(r.Y), formatFloat(r.W), formatFloat(r.H),
		}, ",")
	case KindPolygon:
		parts := make([]string, 0, len(r.Points)*2)
		for _, p := range r.Points {
			parts = append(parts, formatFloat(p.X), formatFloat(p.Y))
		}
		return strings.Join(parts, ",")
	default:
		return strconv.Itoa(r.Code)
	}
}

// formatFloat renders without an exponent so region files stay readable by
// naive line parsers.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
