package tree

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// Node box geometry, in pixels.
const (
	PadX    = 14.0
	PadY    = 10.0
	TypeSq  = 12.0
	TypeGap = 10.0
	ColGap  = 18.0
	ColPad  = 8.0

	OutcomeHeight = 80.0
	MetaHeight    = 56.0
	PlainHeight   = 44.0

	// GlyphInset is the distance from the right edge to the toggle glyph.
	GlyphInset = 16.0
)

// Font sizes of the text roles inside a node.
const (
	LabelSize = 14.0
	MetaSize  = 12.0
	CellSize  = 12.0
	GlyphSize = 18.0
)

// Table headers of the outcome mini-table.
const (
	ProbHeader   = "p"
	PayoffHeader = "payoff"
)

// Measurer reports the rendered width of text at a font size.
type Measurer interface {
	Measure(text string, size float64) float64
}

// FaceMeasurer measures text with a fixed font face, scaling its advances
// linearly to the requested size.
type FaceMeasurer struct {
	Face     font.Face
	FaceSize float64 // nominal size of Face in pixels
}

// DefaultMeasurer uses the 7x13 bitmap face shipped with x/image.
func DefaultMeasurer() FaceMeasurer {
	return FaceMeasurer{Face: basicfont.Face7x13, FaceSize: 13}
}

// Measure implements Measurer.
func (m FaceMeasurer) Measure(text string, size float64) float64 {
	if text == "" || m.Face == nil || m.FaceSize <= 0 {
		return 0
	}
	adv := font.MeasureString(m.Face, text)
	return float64(adv) / 64 * size / m.FaceSize
}

// Box is the geometry of a node's visual, relative to its centre.
type Box struct {
	Width     float64 // rendered width (uniform per depth after Size)
	Natural   float64 // content-driven width before depth alignment
	Height    float64
	HasMeta   bool
	IsOutcome bool
	LeftInset float64
	PColW     float64
	VColW     float64
	TableW    float64
}

// Measure computes the natural box of a single node.
func Measure(data *model.TreeNode, m Measurer) Box {
	if data == nil {
		data = &model.TreeNode{}
	}
	isOutcome := data.Type == model.TypeOutcome
	meta := data.Meta()

	wLabel := m.Measure(data.Name, LabelSize)
	wMeta := m.Measure(meta, MetaSize)

	b := Box{IsOutcome: isOutcome, LeftInset: PadX + TypeSq + TypeGap}
	if isOutcome {
		b.PColW = max(m.Measure(ProbHeader, CellSize), m.Measure(data.ProbText(), CellSize)) + ColPad
		b.VColW = max(m.Measure(PayoffHeader, CellSize), m.Measure(model.MoneyShort(data.Payoff), CellSize)) + ColPad
		b.TableW = b.PColW + ColGap + b.VColW
	}

	content := max(wLabel, wMeta, b.TableW)
	b.Natural = b.LeftInset + content + PadX
	b.Width = b.Natural

	b.HasMeta = strings.TrimSpace(meta) != ""
	switch {
	case isOutcome:
		b.Height = OutcomeHeight
	case b.HasMeta:
		b.Height = MetaHeight
	default:
		b.Height = PlainHeight
	}
	return b
}

// Size measures every node in nodes and then widens each to the maximum
// natural width found at its depth. It returns the width per depth.
func Size(nodes []*Node, m Measurer) map[int]float64 {
	layer := make(map[int]float64)
	for _, n := range nodes {
		n.Box = Measure(n.Data, m)
		if n.Box.Natural > layer[n.Depth] {
			layer[n.Depth] = n.Box.Natural
		}
	}
	for _, n := range nodes {
		n.Box.Width = layer[n.Depth]
	}
	return layer
}

// Bounds returns the node's rectangle in layout space as x0, y0, x1, y1
// where x runs along the depth axis and y along the breadth axis, matching
// how the drawing is oriented.
func (n *Node) Bounds() (x0, y0, x1, y1 float64) {
	hw, hh := n.Box.Width/2, n.Box.Height/2
	return n.Y - hw, n.X - hh, n.Y + hw, n.X + hh
}
