package render

import (
	"bytes"
	"encoding/xml"
	"image/png"
	"math"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

type halfEm struct{}

func (halfEm) Measure(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size / 2
}

func sampleTree() *tree.Tree {
	return tree.New(&model.TreeNode{
		Name: "Launch?",
		Type: model.TypeDecision,
		Children: []*model.TreeNode{
			{Name: "Go big", Type: model.TypeStrategy, Subtitle: "cost 2M", Children: []*model.TreeNode{
				{Name: "Win", Type: model.TypeOutcome, Prob: "0.4", Payoff: 5_000_000},
				{Name: "Lose & cry", Type: model.TypeOutcome, Prob: "0.6", Payoff: -2_000_000},
			}},
			{Name: "Wait", Type: model.TypeOutcome, Prob: "1", Payoff: 0},
		},
	})
}

var layoutOpts = tree.LayoutOptions{Width: 1000, Height: 720, Margin: tree.DefaultMargin}

func TestRenderReconciles(t *testing.T) {
	tr := sampleTree()
	s := NewScene()

	nodes, edges := s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	if len(nodes.Entered) != 5 || len(nodes.Updated) != 0 || len(nodes.Exited) != 0 {
		t.Fatalf("first pass nodes = %+v", nodes)
	}
	if len(edges.Entered) != 4 {
		t.Fatalf("first pass edges = %+v", edges)
	}
	rootEl, _ := s.Node(tr.Root().Key)
	serial := rootEl.Serial

	goBig := tree.Key{Name: "Go big", Depth: 1}
	tr.Toggle(goBig)
	nodes, edges = s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	if len(nodes.Exited) != 2 || len(nodes.Entered) != 0 || len(nodes.Updated) != 3 {
		t.Errorf("collapse pass nodes = %+v", nodes)
	}
	if len(edges.Exited) != 2 || len(edges.Updated) != 2 {
		t.Errorf("collapse pass edges = %+v", edges)
	}
	if el, _ := s.Node(tr.Root().Key); el != rootEl || el.Serial != serial {
		t.Error("matched element was recreated instead of updated in place")
	}
	if el, _ := s.Node(goBig); el.Glyph != "+" || el.Expanded {
		t.Errorf("collapsed element glyph=%q expanded=%v", el.Glyph, el.Expanded)
	}

	tr.Toggle(goBig)
	nodes, _ = s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	if len(nodes.Entered) != 2 || len(nodes.Exited) != 0 {
		t.Errorf("expand pass nodes = %+v", nodes)
	}
	if n, e := s.Len(); n != 5 || e != 4 {
		t.Errorf("scene size = %d/%d", n, e)
	}
}

func TestRenderUniformLayerWidth(t *testing.T) {
	tr := sampleTree()
	s := NewScene()
	s.Render(tr, tr.Layout(layoutOpts), halfEm{})

	widths := map[int]float64{}
	for _, el := range s.Nodes() {
		if w, ok := widths[el.Key.Depth]; ok && w != el.Box.Width {
			t.Errorf("depth %d has widths %v and %v", el.Key.Depth, w, el.Box.Width)
		}
		widths[el.Key.Depth] = el.Box.Width
	}
}

func TestEdgePath(t *testing.T) {
	e := &EdgeElement{X0: 40, Y0: 100, X1: 320, Y1: 300}
	want := "M40,100 C180,100 180,300 320,300"
	if got := e.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestFitCentresAndContains(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		box := BBox{
			X: rapid.Float64Range(-1000, 1000).Draw(t, "x"),
			Y: rapid.Float64Range(-1000, 1000).Draw(t, "y"),
			W: rapid.Float64Range(1, 5000).Draw(t, "w"),
			H: rapid.Float64Range(1, 5000).Draw(t, "h"),
		}
		W := rapid.Float64Range(100, 3000).Draw(t, "W")
		H := rapid.Float64Range(100, 3000).Draw(t, "H")

		tf, ok := Fit(box, W, H, DefaultFitPadding)
		if !ok {
			t.Fatal("valid box rejected")
		}
		out := tf.ApplyBox(box)
		const eps = 1e-6
		if out.X < -eps || out.Y < -eps || out.X+out.W > W+eps || out.Y+out.H > H+eps {
			t.Fatalf("fitted box %+v escapes %vx%v", out, W, H)
		}
		if math.Abs(out.X+out.W/2-W/2) > eps || math.Abs(out.Y+out.H/2-H/2) > eps {
			t.Fatalf("fitted box %+v not centred in %vx%v", out, W, H)
		}
		// One axis is tight: padding plus content exactly spans it.
		padded := BBox{X: box.X - DefaultFitPadding, Y: box.Y - DefaultFitPadding, W: box.W + 2*DefaultFitPadding, H: box.H + 2*DefaultFitPadding}
		p := tf.ApplyBox(padded)
		if math.Abs(p.W-W) > eps && math.Abs(p.H-H) > eps {
			t.Fatalf("neither axis tight: %+v in %vx%v", p, W, H)
		}
	})
}

func TestFitMagnifiesSmallDrawings(t *testing.T) {
	tf, ok := Fit(BBox{X: 0, Y: 0, W: 28, H: 28}, 1000, 1000, DefaultFitPadding)
	if !ok {
		t.Fatal("valid box rejected")
	}
	if tf.Scale != 10 {
		t.Errorf("scale = %v, want 10", tf.Scale)
	}
}

func TestFitRejectsDegenerateBox(t *testing.T) {
	for _, b := range []BBox{
		{},
		{W: 10},
		{W: math.Inf(1), H: 10},
		{W: math.NaN(), H: 10},
	} {
		if _, ok := Fit(b, 800, 600, DefaultFitPadding); ok {
			t.Errorf("Fit(%+v) accepted", b)
		}
	}
}

func TestSceneBBoxCoversNodes(t *testing.T) {
	tr := sampleTree()
	s := NewScene()
	s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	b := s.BBox()
	for _, el := range s.Nodes() {
		if el.TX-el.Box.Width/2 < b.X || el.TX+el.Box.Width/2 > b.X+b.W+1e-9 {
			t.Errorf("%v escapes bbox horizontally", el.Key)
		}
		if el.TY-el.Box.Height/2 < b.Y || el.TY+el.Box.Height/2 > b.Y+b.H+1e-9 {
			t.Errorf("%v escapes bbox vertically", el.Key)
		}
	}
}

func TestWriteSVG(t *testing.T) {
	tr := sampleTree()
	s := NewScene()
	s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	s.Transform, _ = Fit(s.BBox(), 1000, 720, DefaultFitPadding)

	var buf bytes.Buffer
	if err := WriteSVG(&buf, s, SVGOptions{Width: 1000, Height: 720, Theme: DefaultTheme, Title: "Launch"}); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()

	var doc any
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid XML: %v\n%s", err, out)
	}
	if got := strings.Count(out, `class="node focus-ring"`); got != 5 {
		t.Errorf("node groups = %d, want 5", got)
	}
	if got := strings.Count(out, `class="link"`); got != 4 {
		t.Errorf("links = %d, want 4", got)
	}
	if got := strings.Count(out, `role="button"`); got != 2 {
		t.Errorf("toggleable nodes = %d, want 2", got)
	}
	if !strings.Contains(out, "Lose &amp; cry") {
		t.Error("label text not escaped")
	}
	for _, want := range []string{">5M<", ">-2M<", `aria-expanded="true"`, `class="cellHead vHead"`, s.Transform.SVG()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestWriteFragmentHasNoDocument(t *testing.T) {
	tr := sampleTree()
	s := NewScene()
	s.Render(tr, tr.Layout(layoutOpts), halfEm{})

	var buf bytes.Buffer
	if err := WriteFragment(&buf, s, DefaultTheme); err != nil {
		t.Fatalf("WriteFragment: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<svg") || strings.Contains(out, "<?xml") {
		t.Error("fragment contains a document wrapper")
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "<g") {
		t.Errorf("fragment should start with a group, got %.40q", out)
	}
}

func TestWritePNG(t *testing.T) {
	tr := sampleTree()
	s := NewScene()
	s.Render(tr, tr.Layout(layoutOpts), halfEm{})
	s.Transform, _ = Fit(s.BBox(), 400, 300, DefaultFitPadding)

	var buf bytes.Buffer
	if err := WritePNG(&buf, s, 400, 300, DefaultTheme); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("image size = %v", b)
	}
	if err := WritePNG(&buf, s, 0, 300, DefaultTheme); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#3b82f6")
	if err != nil || c != DefaultTheme.Decision {
		t.Errorf("ParseHex = %v, %v", c, err)
	}
	c, err = ParseHex("fff")
	if err != nil || c.R != 0xff || c.B != 0xff {
		t.Errorf("short ParseHex = %v, %v", c, err)
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Error("expected error")
	}
}

func TestSortedKeysDeterministic(t *testing.T) {
	m := map[tree.Key]int{
		{Name: "b", Depth: 1}:         0,
		{Name: "a", Depth: 1, Seq: 1}: 0,
		{Name: "a", Depth: 1}:         0,
		{Name: "z", Depth: 0}:         0,
	}
	got := sortedKeys(m)
	want := []tree.Key{{Name: "z"}, {Name: "a", Depth: 1}, {Name: "a", Depth: 1, Seq: 1}, {Name: "b", Depth: 1}}
	if !slices.Equal(got, want) {
		t.Errorf("sortedKeys = %v", got)
	}
}
