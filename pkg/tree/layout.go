package tree

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vanderheijden86/decisiontree/pkg/metrics"
)

// Margin is the inset between the drawing surface edge and the layout.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// LayoutOptions controls a layout pass.
type LayoutOptions struct {
	Width  float64 // drawing surface width
	Height float64 // drawing surface height
	Margin Margin
}

// DefaultMargin is the inset used when none is configured.
var DefaultMargin = Margin{Top: 24, Right: 40, Bottom: 24, Left: 40}

const (
	// NodeBreadth and NodeDepth are the tidy-tree node size. Breadth is
	// normalised away afterwards, so only ratios between separations matter.
	NodeBreadth = 110.0
	NodeDepth   = 280.0

	// ThirdLayerSeparation is the base separation between adjacent depth-2
	// nodes, before the fan-out multiplier.
	ThirdLayerSeparation = 1.4
	// ThirdLayerFanout is the depth-2 node count above which spacing widens.
	ThirdLayerFanout = 9.0
	// ThirdLayerGap shifts depth >= 2 along the depth axis.
	ThirdLayerGap = 120.0
	// DepthLookahead reserves room for the widest node past the deepest level.
	DepthLookahead = 320.0
)

// SeparationMultiplier returns max(count/9, 1), the factor applied to the
// depth-2 separation when count depth-2 nodes are visible.
func SeparationMultiplier(depth2Count int) float64 {
	return math.Max(float64(depth2Count)/ThirdLayerFanout, 1)
}

// LayoutResult is the output of a layout pass.
type LayoutResult struct {
	Nodes []*Node // visible nodes in pre-order
	Edges []Edge  // arena indices of parent and child
}

// Layout assigns X (breadth) and Y (depth) to every visible node. Collapsed
// subtrees are excluded entirely; their stored coordinates are left as they
// were.
func (t *Tree) Layout(opts LayoutOptions) LayoutResult {
	defer metrics.Timer(metrics.Layout)()
	visible, edges := t.Visible()
	if len(visible) == 0 {
		return LayoutResult{}
	}

	depth2 := 0
	for _, i := range visible {
		if t.nodes[i].Depth == 2 {
			depth2++
		}
	}
	third := ThirdLayerSeparation * SeparationMultiplier(depth2)
	separation := func(a, b *Node) float64 {
		if a.Depth == 2 && b.Depth == 2 {
			return third
		}
		return 1
	}

	t.tidy(separation)

	nodes := make([]*Node, len(visible))
	breadth := make([]float64, len(visible))
	depthY := make([]float64, len(visible))
	for k, i := range visible {
		n := t.nodes[i]
		n.X *= NodeBreadth
		n.Y = float64(n.Depth) * NodeDepth
		nodes[k] = n
		breadth[k] = n.X
		depthY[k] = n.Y
	}

	xMin, xMax := floats.Min(breadth), floats.Max(breadth)
	xSpan := xMax - xMin
	if xSpan == 0 {
		xSpan = 1
	}
	yMax := floats.Max(depthY)
	if yMax == 0 {
		yMax = 1
	}

	innerH := opts.Height - opts.Margin.Top - opts.Margin.Bottom
	innerW := opts.Width - opts.Margin.Left - opts.Margin.Right
	yScale := math.Min(1, innerW/(yMax+DepthLookahead))

	for _, n := range nodes {
		n.X = opts.Margin.Top + ((n.X-xMin)/xSpan)*innerH
		n.Y = opts.Margin.Left + n.Y*yScale
		if n.Depth >= 2 {
			n.Y += ThirdLayerGap
		}
	}

	return LayoutResult{Nodes: nodes, Edges: edges}
}

// walker is the per-node scratch state of the Buchheim/Walker algorithm.
type walker struct {
	node     *Node
	parent   *walker
	children []*walker
	index    int // position among siblings

	ancestor *walker // default ancestor, stored on the parent
	a        *walker // ancestor pointer
	prelim   float64
	mod      float64
	change   float64
	shift    float64
	thread   *walker
}

// tidy runs the Buchheim/Walker tidy-tree algorithm over the visible nodes
// and stores the breadth position (in separation units) in Node.X.
func (t *Tree) tidy(separation func(a, b *Node) float64) {
	root := &walker{node: t.nodes[0]}
	root.a = root
	stack := []*walker{root}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := t.visibleChildren(w.node)
		if len(kids) == 0 {
			continue
		}
		w.children = make([]*walker, len(kids))
		for i, ci := range kids {
			c := &walker{node: t.nodes[ci], parent: w, index: i}
			c.a = c
			w.children[i] = c
			stack = append(stack, c)
		}
	}
	// Sentinel parent so the root can be treated like any other node.
	sentinel := &walker{children: []*walker{root}}
	sentinel.a = sentinel
	root.parent = sentinel

	sep := func(a, b *walker) float64 { return separation(a.node, b.node) }

	eachAfter(root, func(v *walker) { firstWalk(v, sep) })
	sentinel.mod = -root.prelim
	eachBefore(root, func(v *walker) {
		v.node.X = v.prelim + v.parent.mod
		v.mod += v.parent.mod
	})
}

func eachAfter(w *walker, fn func(*walker)) {
	for _, c := range w.children {
		eachAfter(c, fn)
	}
	fn(w)
}

func eachBefore(w *walker, fn func(*walker)) {
	fn(w)
	for _, c := range w.children {
		eachBefore(c, fn)
	}
}

func firstWalk(v *walker, sep func(a, b *walker) float64) {
	siblings := v.parent.children
	var w *walker
	if v.index > 0 {
		w = siblings[v.index-1]
	}
	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].prelim + v.children[len(v.children)-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + sep(v, w)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + sep(v, w)
	}
	anc := v.parent.ancestor
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.ancestor = apportion(v, w, anc, sep)
}

func apportion(v, w, ancestor *walker, sep func(a, b *walker) float64) *walker {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim := w
	vom := v.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.a = v
		shift := vim.prelim + sim - vip.prelim - sip + sep(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}
	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

func nextLeft(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *walker, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *walker) {
	shift, change := 0.0, 0.0
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *walker) *walker {
	if vim.a.parent == v.parent {
		return vim.a
	}
	return ancestor
}
