package render

import (
	"math"
	"sort"
	"strconv"

	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// DefaultFitPadding is the margin added around the drawing before fitting.
const DefaultFitPadding = 36.0

// BBox is an axis-aligned rectangle.
type BBox struct {
	X, Y, W, H float64
}

// Union returns the smallest box containing b and o.
func (b BBox) Union(o BBox) BBox {
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.X+b.W, o.X+o.W)
	y1 := math.Max(b.Y+b.H, o.Y+o.H)
	return BBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Valid reports whether the box has finite, positive dimensions.
func (b BBox) Valid() bool {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	return finite(b.X) && finite(b.Y) && finite(b.W) && finite(b.H) && b.W > 0 && b.H > 0
}

// Transform is a uniform scale followed by a translation:
// p' = p*Scale + (TX, TY).
type Transform struct {
	TX, TY, Scale float64
}

// Identity leaves coordinates unchanged.
var Identity = Transform{Scale: 1}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TX, y*t.Scale + t.TY
}

// ApplyBox maps a box through the transform.
func (t Transform) ApplyBox(b BBox) BBox {
	x, y := t.Apply(b.X, b.Y)
	return BBox{X: x, Y: y, W: b.W * t.Scale, H: b.H * t.Scale}
}

// SVG renders the transform as an SVG transform attribute value.
func (t Transform) SVG() string {
	return "translate(" + num(t.TX) + "," + num(t.TY) + ") scale(" + num(t.Scale) + ")"
}

// Fit computes the transform that centres box in a width×height viewport and
// scales it uniformly so the box plus padding on every side just fits. The
// scale is not capped, so small drawings are magnified. ok is false when box
// is degenerate, in which case the caller keeps its current transform.
func Fit(box BBox, width, height, padding float64) (t Transform, ok bool) {
	if !box.Valid() {
		return Transform{}, false
	}
	fullW := box.W + padding*2
	fullH := box.H + padding*2
	scale := math.Min(width/fullW, height/fullH)

	cx := box.X + box.W/2
	cy := box.Y + box.H/2
	return Transform{
		TX:    width/2 - scale*cx,
		TY:    height/2 - scale*cy,
		Scale: scale,
	}, true
}

// num formats a coordinate compactly for SVG output.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func sortedKeys[V any](m map[tree.Key]V) []tree.Key {
	keys := make([]tree.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Seq < b.Seq
	})
	return keys
}
