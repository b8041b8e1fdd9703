package render

import (
	"fmt"
	"html"
	"io"
	"math"

	"github.com/ajstarks/svgo"

	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// SVGOptions controls SVG serialisation.
type SVGOptions struct {
	Width  int
	Height int
	Theme  Theme
	// Title is written as the document <title> when non-empty.
	Title string
}

// placement is the position of every part of a node relative to its centre,
// shared by the SVG and PNG writers.
type placement struct {
	pillX, pillY       float64
	typeX, typeY       float64
	textX              float64
	labelY             float64
	metaY              float64
	dividerY           float64
	dividerX1          float64
	headY, valY        float64
	probX, payoffX     float64
	glyphX, glyphY     float64
	showMeta, showCell bool
}

func place(el *NodeElement) placement {
	w, h := el.Box.Width, el.Box.Height
	p := placement{
		pillX:  -w / 2,
		pillY:  -h / 2,
		typeX:  -w/2 + tree.PadX,
		typeY:  -h/2 + tree.PadY,
		textX:  -w/2 + el.Box.LeftInset,
		metaY:  16,
		glyphX: w/2 - tree.GlyphInset,
		glyphY: 4,
	}
	p.showMeta = el.Type == model.TypeStrategy
	p.showCell = el.Box.IsOutcome
	switch {
	case el.Box.IsOutcome:
		p.labelY = -h/2 + tree.PadY + 6
	case el.Box.HasMeta:
		p.labelY = -6
	}
	if el.Box.IsOutcome {
		p.dividerY = p.labelY + 12
		p.dividerX1 = p.textX + el.Box.TableW
		p.headY = p.dividerY + 14
		p.valY = p.headY + 18
		p.probX = p.textX
		p.payoffX = p.textX + el.Box.PColW + tree.ColGap
	}
	return p
}

// WriteSVG writes a standalone SVG document of the scene.
func WriteSVG(w io.Writer, s *Scene, opts SVGOptions) error {
	defer metrics.Timer(metrics.SVGEncode)()
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", opts.Width, opts.Height)
	}
	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height, fmt.Sprintf(`viewBox="0 0 %d %d"`, opts.Width, opts.Height))
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", css(opts.Theme.Backdrop)))
	writeScene(canvas, s, opts.Theme)
	canvas.End()
	return nil
}

// WriteFragment writes only the scene group, for injection into an existing
// <svg> element.
func WriteFragment(w io.Writer, s *Scene, theme Theme) error {
	writeScene(svg.New(w), s, theme)
	return nil
}

func writeScene(canvas *svg.SVG, s *Scene, th Theme) {
	canvas.Group(attr("transform", s.Transform.SVG()))

	canvas.Group(`class="links"`, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", css(th.Link)))
	for _, e := range s.Edges() {
		canvas.Path(e.Path(), `class="link"`, attr("data-key", e.Key.String()))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, el := range s.Nodes() {
		writeNode(canvas, el, th)
	}
	canvas.Gend()

	canvas.Gend()
}

func writeNode(canvas *svg.SVG, el *NodeElement, th Theme) {
	p := place(el)
	attrs := []string{
		`class="node focus-ring"`,
		`tabindex="0"`,
		attr("data-key", el.Key.String()),
		attr("data-type", string(el.Type)),
		attr("transform", "translate("+num(el.TX)+","+num(el.TY)+")"),
	}
	if el.Glyph != "" {
		attrs = append(attrs, `role="button"`, attr("aria-expanded", fmt.Sprint(el.Expanded)))
	}
	canvas.Group(attrs...)

	w, h := ri(el.Box.Width), ri(el.Box.Height)
	canvas.Roundrect(ri(p.pillX), ri(p.pillY), w, h, 10, 10, `class="pill"`,
		fmt.Sprintf("fill:%s;stroke:%s", css(th.Pill), css(th.PillStroke)))
	canvas.Roundrect(ri(p.typeX), ri(p.typeY), int(tree.TypeSq), int(tree.TypeSq), 3, 3, `class="typebox"`,
		fmt.Sprintf("fill:%s", css(th.TypeColor(el.Type))))

	textStyle := func(size float64, c string) string {
		return fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif;dominant-baseline:middle", c, size)
	}
	canvas.Text(ri(p.textX), ri(p.labelY), el.Label, `class="label"`, textStyle(tree.LabelSize, css(th.Text)))
	if p.showMeta {
		canvas.Text(ri(p.textX), ri(p.metaY), el.Meta, `class="meta"`, textStyle(tree.MetaSize, css(th.Subtle)))
	}
	if p.showCell {
		canvas.Line(ri(p.textX), ri(p.dividerY), ri(p.dividerX1), ri(p.dividerY), `class="divider tableTop"`,
			fmt.Sprintf("stroke:%s", css(th.PillStroke)))
		cell := textStyle(tree.CellSize, css(th.Subtle))
		canvas.Text(ri(p.probX), ri(p.headY), tree.ProbHeader, `class="cellHead pHead"`, cell)
		canvas.Text(ri(p.payoffX), ri(p.headY), tree.PayoffHeader, `class="cellHead vHead"`, cell)
		value := textStyle(tree.CellSize, css(th.Text))
		canvas.Text(ri(p.probX), ri(p.valY), el.Prob, `class="cell pVal"`, value)
		canvas.Text(ri(p.payoffX), ri(p.valY), el.Payoff, `class="cell vVal"`, value)
	}
	if el.Glyph != "" {
		canvas.Text(ri(p.glyphX), ri(p.glyphY), el.Glyph, `class="toggleglyph"`, `text-anchor="middle"`,
			fmt.Sprintf("fill:%s;font-size:%gpx", css(th.Glyph), tree.GlyphSize))
	}
	canvas.Gend()
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func ri(v float64) int {
	return int(math.Round(v))
}
