package render

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// WritePNG rasterises the scene into a width×height PNG.
func WritePNG(w io.Writer, s *Scene, width, height int, th Theme) error {
	defer metrics.Timer(metrics.PNGEncode)()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(th.Backdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.Push()
	dc.Translate(s.Transform.TX, s.Transform.TY)
	dc.Scale(s.Transform.Scale, s.Transform.Scale)

	dc.SetColor(th.Link)
	dc.SetLineWidth(1.5)
	for _, e := range s.Edges() {
		mid := (e.X0 + e.X1) / 2
		dc.NewSubPath()
		dc.MoveTo(e.X0, e.Y0)
		dc.CubicTo(mid, e.Y0, mid, e.Y1, e.X1, e.Y1)
		dc.Stroke()
	}

	for _, el := range s.Nodes() {
		drawNode(dc, el, th)
	}
	dc.Pop()

	return dc.EncodePNG(w)
}

func drawNode(dc *gg.Context, el *NodeElement, th Theme) {
	p := place(el)
	dc.Push()
	dc.Translate(el.TX, el.TY)

	dc.SetColor(th.Pill)
	dc.DrawRoundedRectangle(p.pillX, p.pillY, el.Box.Width, el.Box.Height, 10)
	dc.Fill()
	dc.SetColor(th.PillStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(p.pillX, p.pillY, el.Box.Width, el.Box.Height, 10)
	dc.Stroke()

	dc.SetColor(th.TypeColor(el.Type))
	dc.DrawRoundedRectangle(p.typeX, p.typeY, tree.TypeSq, tree.TypeSq, 3)
	dc.Fill()

	dc.SetColor(th.Text)
	dc.DrawStringAnchored(el.Label, p.textX, p.labelY, 0, 0.5)
	if p.showMeta && el.Meta != "" {
		dc.SetColor(th.Subtle)
		dc.DrawStringAnchored(el.Meta, p.textX, p.metaY, 0, 0.5)
	}
	if p.showCell {
		dc.SetColor(th.PillStroke)
		dc.DrawLine(p.textX, p.dividerY, p.dividerX1, p.dividerY)
		dc.Stroke()
		dc.SetColor(th.Subtle)
		dc.DrawStringAnchored(tree.ProbHeader, p.probX, p.headY, 0, 0.5)
		dc.DrawStringAnchored(tree.PayoffHeader, p.payoffX, p.headY, 0, 0.5)
		dc.SetColor(th.Text)
		dc.DrawStringAnchored(el.Prob, p.probX, p.valY, 0, 0.5)
		dc.DrawStringAnchored(el.Payoff, p.payoffX, p.valY, 0, 0.5)
	}
	if el.Glyph != "" {
		dc.SetColor(th.Glyph)
		// The bitmap face has no minus sign; a hyphen reads the same.
		glyph := el.Glyph
		if glyph == "−" {
			glyph = "-"
		}
		dc.DrawStringAnchored(glyph, p.glyphX, p.glyphY, 0.5, 0.5)
	}
	dc.Pop()
}
