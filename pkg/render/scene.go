// Package render is the retained-mode drawing surface for decision trees.
//
// A Scene holds one element per visible node and edge, keyed by tree.Key.
// Each Render pass reconciles the new layout against the previous one:
// unmatched old elements are removed, new ones created and matched ones
// updated in place. The scene can then be serialised as SVG or PNG.
package render

import (
	"fmt"

	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// NodeElement is the rendered form of one visible node. Coordinates are in
// drawing space: TX along the depth axis, TY along the breadth axis.
type NodeElement struct {
	Key      tree.Key
	Serial   int // creation order; unchanged by in-place updates
	Type     model.NodeType
	TX, TY   float64
	Box      tree.Box
	Label    string
	Meta     string
	Prob     string
	Payoff   string
	Glyph    string
	Expanded bool
}

// EdgeElement is the connector into a visible child, keyed by the child.
type EdgeElement struct {
	Key    tree.Key
	Serial int
	Source tree.Key
	// Endpoints in drawing space.
	X0, Y0, X1, Y1 float64
}

// Path returns the SVG path data of the horizontal S-curve, with both
// control points on the vertical line halfway between the endpoints.
func (e *EdgeElement) Path() string {
	mid := (e.X0 + e.X1) / 2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		num(e.X0), num(e.Y0), num(mid), num(e.Y0), num(mid), num(e.Y1), num(e.X1), num(e.Y1))
}

// Diff reports what a Render pass did to one element set.
type Diff struct {
	Entered []tree.Key
	Updated []tree.Key
	Exited  []tree.Key
}

// Scene is a keyed set of rendered elements plus the fit transform applied
// to the whole drawing.
type Scene struct {
	nodes     map[tree.Key]*NodeElement
	edges     map[tree.Key]*EdgeElement
	nodeOrder []tree.Key
	edgeOrder []tree.Key
	serial    int

	Transform Transform
}

// NewScene returns an empty scene with the identity transform.
func NewScene() *Scene {
	return &Scene{
		nodes:     make(map[tree.Key]*NodeElement),
		edges:     make(map[tree.Key]*EdgeElement),
		Transform: Identity,
	}
}

// Render sizes the visible nodes of res and reconciles the scene against
// them. It returns the node and edge diffs of the pass.
func (s *Scene) Render(t *tree.Tree, res tree.LayoutResult, m tree.Measurer) (nodes, edges Diff) {
	defer metrics.Timer(metrics.SceneRender)()
	tree.Size(res.Nodes, m)

	keep := make(map[tree.Key]bool, len(res.Nodes))
	s.nodeOrder = s.nodeOrder[:0]
	for _, n := range res.Nodes {
		keep[n.Key] = true
		s.nodeOrder = append(s.nodeOrder, n.Key)
		el, ok := s.nodes[n.Key]
		if ok {
			nodes.Updated = append(nodes.Updated, n.Key)
		} else {
			s.serial++
			el = &NodeElement{Key: n.Key, Serial: s.serial}
			s.nodes[n.Key] = el
			nodes.Entered = append(nodes.Entered, n.Key)
		}
		paintNode(el, n)
	}
	for _, k := range sortedKeys(s.nodes) {
		if !keep[k] {
			delete(s.nodes, k)
			nodes.Exited = append(nodes.Exited, k)
		}
	}

	keepEdges := make(map[tree.Key]bool, len(res.Edges))
	s.edgeOrder = s.edgeOrder[:0]
	for _, e := range res.Edges {
		src, dst := t.Node(e.Source), t.Node(e.Target)
		keepEdges[dst.Key] = true
		s.edgeOrder = append(s.edgeOrder, dst.Key)
		el, ok := s.edges[dst.Key]
		if ok {
			edges.Updated = append(edges.Updated, dst.Key)
		} else {
			s.serial++
			el = &EdgeElement{Key: dst.Key, Serial: s.serial}
			s.edges[dst.Key] = el
			edges.Entered = append(edges.Entered, dst.Key)
		}
		el.Source = src.Key
		el.X0, el.Y0 = src.Y, src.X
		el.X1, el.Y1 = dst.Y, dst.X
	}
	for _, k := range sortedKeys(s.edges) {
		if !keepEdges[k] {
			delete(s.edges, k)
			edges.Exited = append(edges.Exited, k)
		}
	}
	return nodes, edges
}

func paintNode(el *NodeElement, n *tree.Node) {
	data := n.Data
	if data == nil {
		data = &model.TreeNode{}
	}
	el.Type = data.Type
	el.TX, el.TY = n.Y, n.X
	el.Box = n.Box
	el.Label = data.Name
	el.Meta = data.Meta()
	el.Prob, el.Payoff = "", ""
	if data.Type == model.TypeOutcome {
		el.Prob = data.ProbText()
		el.Payoff = model.MoneyShort(data.Payoff)
	}
	el.Glyph = n.Glyph()
	el.Expanded = n.Expanded && n.HasChildren()
}

// Nodes returns the node elements in layout pre-order.
func (s *Scene) Nodes() []*NodeElement {
	out := make([]*NodeElement, 0, len(s.nodeOrder))
	for _, k := range s.nodeOrder {
		out = append(out, s.nodes[k])
	}
	return out
}

// Edges returns the edge elements in layout pre-order of their child.
func (s *Scene) Edges() []*EdgeElement {
	out := make([]*EdgeElement, 0, len(s.edgeOrder))
	for _, k := range s.edgeOrder {
		out = append(out, s.edges[k])
	}
	return out
}

// Node returns the element for k, if it is currently drawn.
func (s *Scene) Node(k tree.Key) (*NodeElement, bool) {
	el, ok := s.nodes[k]
	return el, ok
}

// Len returns the number of drawn nodes and edges.
func (s *Scene) Len() (nodes, edges int) {
	return len(s.nodes), len(s.edges)
}

// BBox returns the bounding box of every drawn element in drawing space,
// before the fit transform. Edge curves stay inside the box spanned by
// their endpoints, so endpoints are enough.
func (s *Scene) BBox() BBox {
	var b BBox
	first := true
	add := func(x0, y0, x1, y1 float64) {
		if first {
			b = BBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
			first = false
			return
		}
		b = b.Union(BBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0})
	}
	for _, k := range s.nodeOrder {
		el := s.nodes[k]
		hw, hh := el.Box.Width/2, el.Box.Height/2
		add(el.TX-hw, el.TY-hh, el.TX+hw, el.TY+hh)
	}
	for _, k := range s.edgeOrder {
		e := s.edges[k]
		add(min(e.X0, e.X1), min(e.Y0, e.Y1), max(e.X0, e.X1), max(e.Y0, e.Y1))
	}
	return b
}
