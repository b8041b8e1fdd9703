package viz

import (
	"math"
	"slices"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/decisiontree/pkg/frame"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

type halfEm struct{}

func (halfEm) Measure(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size / 2
}

type fixedContainer struct{ w float64 }

func (c *fixedContainer) Width() float64 { return c.w }

type recordingSurface struct {
	presents int
	last     render.Transform
	w, h     float64
}

func (s *recordingSurface) Present(sc *render.Scene, w, h float64) {
	s.presents++
	s.last = sc.Transform
	s.w, s.h = w, h
}

func spec() model.TreeSpec {
	return model.TreeSpec{
		CanvasID: "canvas",
		SvgID:    "svg",
		Data: &model.TreeNode{
			Name: "Launch?",
			Type: model.TypeDecision,
			Children: []*model.TreeNode{
				{Name: "Go big", Type: model.TypeStrategy, Subtitle: "cost 2M", Children: []*model.TreeNode{
					{Name: "Win", Type: model.TypeOutcome, Prob: "0.4", Payoff: 5_000_000},
					{Name: "Lose", Type: model.TypeOutcome, Prob: "0.6", Payoff: -2_000_000},
				}},
				{Name: "Wait", Type: model.TypeOutcome, Prob: "1"},
			},
		},
	}
}

func newTestViz(t *testing.T, frames *frame.Queue) (*Visualizer, *fixedContainer, *recordingSurface) {
	t.Helper()
	c := &fixedContainer{w: 1000}
	s := &recordingSurface{}
	v := New(spec(), Mount{Container: c, Surface: s}, Options{Measurer: halfEm{}, Frames: frames})
	if v == nil {
		t.Fatal("New returned nil for a complete mount")
	}
	return v, c, s
}

func TestNewMissingMountIsNoop(t *testing.T) {
	if v := New(spec(), Mount{Surface: &recordingSurface{}}, Options{}); v != nil {
		t.Error("missing container should skip initialisation")
	}
	s := &recordingSurface{}
	if v := New(spec(), Mount{Container: &fixedContainer{w: 10}}, Options{}); v != nil {
		t.Error("missing surface should skip initialisation")
	}
	if s.presents != 0 {
		t.Error("skipped visualizer presented")
	}
}

func TestNewRendersAndFits(t *testing.T) {
	v, _, s := newTestViz(t, nil)
	if v.Renders() != 1 || v.Fits() != 1 || s.presents != 1 {
		t.Errorf("initial cycle renders=%d fits=%d presents=%d", v.Renders(), v.Fits(), s.presents)
	}
	if s.w != 1000 || s.h != DefaultViewHeight {
		t.Errorf("presented at %vx%v", s.w, s.h)
	}
	if n, e := v.Scene().Len(); n != 5 || e != 4 {
		t.Errorf("scene = %d nodes %d edges", n, e)
	}
}

func TestFitViewContainsDrawing(t *testing.T) {
	v, _, s := newTestViz(t, nil)
	w, h := v.Size()
	box := s.last.ApplyBox(v.Scene().BBox())
	const eps = 1e-6
	if box.X < -eps || box.Y < -eps || box.X+box.W > w+eps || box.Y+box.H > h+eps {
		t.Errorf("fitted drawing %+v escapes %vx%v", box, w, h)
	}
	if math.Abs(box.X+box.W/2-w/2) > eps || math.Abs(box.Y+box.H/2-h/2) > eps {
		t.Errorf("fitted drawing %+v not centred", box)
	}
}

func TestDispatchTogglesAndRedraws(t *testing.T) {
	v, _, s := newTestViz(t, nil)
	goBig := tree.Key{Name: "Go big", Depth: 1}

	if !v.Dispatch(Event{Kind: PointerActivate, Target: goBig}) {
		t.Fatal("pointer activation ignored")
	}
	if n, _ := v.Scene().Len(); n != 3 {
		t.Errorf("after collapse scene has %d nodes, want 3", n)
	}
	if v.Renders() != 2 || s.presents != 2 {
		t.Errorf("toggle should run one render+fit, got renders=%d presents=%d", v.Renders(), s.presents)
	}

	if !v.Dispatch(Event{Kind: KeyDown, Target: goBig, Key: "Enter"}) {
		t.Fatal("Enter ignored")
	}
	if n, _ := v.Scene().Len(); n != 5 {
		t.Errorf("after expand scene has %d nodes, want 5", n)
	}
	if !v.Dispatch(Event{Kind: KeyDown, Target: goBig, Key: " "}) {
		t.Fatal("Space ignored")
	}
	if v.Dispatch(Event{Kind: KeyDown, Target: goBig, Key: "a"}) {
		t.Error("other keys should not activate")
	}
}

func TestLeafActivationIgnored(t *testing.T) {
	v, _, s := newTestViz(t, nil)
	if v.Dispatch(Event{Kind: PointerActivate, Target: tree.Key{Name: "Wait", Depth: 1}}) {
		t.Error("leaf activation changed the tree")
	}
	if v.Dispatch(Event{Kind: PointerActivate, Target: tree.Key{Name: "nope", Depth: 7}}) {
		t.Error("unknown key changed the tree")
	}
	if v.Renders() != 1 || s.presents != 1 {
		t.Error("ignored activation triggered a redraw")
	}
}

func TestDispatchIsPerInstance(t *testing.T) {
	a, _, _ := newTestViz(t, nil)
	b, _, _ := newTestViz(t, nil)
	a.Dispatch(Event{Kind: PointerActivate, Target: a.Tree().Root().Key})
	if !b.Tree().Root().Expanded {
		t.Error("activation leaked into another visualizer")
	}
	if a.Tree().Root().Expanded {
		t.Error("activation did not reach its own visualizer")
	}
}

func TestResizeBatchRedrawsOnce(t *testing.T) {
	frames := frame.NewQueue()
	v, c, s := newTestViz(t, frames)

	for i := 0; i < 25; i++ {
		c.w = float64(600 + i*10)
		v.NotifyResize()
	}
	if v.Renders() != 1 {
		t.Fatalf("resize redrew before the frame: renders=%d", v.Renders())
	}
	frames.Flush()
	if v.Renders() != 2 || v.Fits() != 2 || s.presents != 2 {
		t.Errorf("batch produced renders=%d fits=%d presents=%d, want 2/2/2", v.Renders(), v.Fits(), s.presents)
	}
	if s.w != 840 {
		t.Errorf("redraw used width %v, want the last one", s.w)
	}

	frames.Flush()
	if v.Renders() != 2 {
		t.Error("empty frame redrew")
	}

	v.NotifyResize()
	frames.Flush()
	if v.Renders() != 3 {
		t.Errorf("second batch renders=%d, want 3", v.Renders())
	}
}

func TestResizeWithoutFramesIsImmediate(t *testing.T) {
	v, _, _ := newTestViz(t, nil)
	v.NotifyResize()
	if v.Renders() != 2 {
		t.Errorf("renders = %d, want 2", v.Renders())
	}
}

func TestToggleRoundTripRestoresScene(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := New(spec(), Mount{Container: &fixedContainer{w: 1000}, Surface: &recordingSurface{}}, Options{Measurer: halfEm{}})
		var keys []tree.Key
		for i := 0; i < v.Tree().Len(); i++ {
			keys = append(keys, v.Tree().Node(i).Key)
		}
		k := rapid.SampledFrom(keys).Draw(rt, "key")

		before := sceneKeys(v.Scene())
		v.Activate(k)
		v.Activate(k)
		if after := sceneKeys(v.Scene()); !slices.Equal(before, after) {
			rt.Fatalf("scene changed after double toggle: %v -> %v", before, after)
		}
	})
}

func sceneKeys(s *render.Scene) []string {
	var out []string
	for _, n := range s.Nodes() {
		out = append(out, "n:"+n.Key.String())
	}
	for _, e := range s.Edges() {
		out = append(out, "e:"+e.Key.String())
	}
	return out
}
