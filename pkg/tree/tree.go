// Package tree owns the runtime hierarchy of a decision tree: the node arena,
// expand/collapse state, the tidy-tree layout and per-node sizing.
//
// Nodes are stored in a flat arena and addressed by index; a stable Key
// derived from (name, depth) identifies a node across layout passes so the
// renderer can reconcile elements without holding pointers into the data.
package tree

import (
	"fmt"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// Key identifies a node across render passes. Name and Depth come from the
// node itself; Seq disambiguates nodes that share a name at the same depth
// (0 for the first occurrence in pre-order, 1 for the next, and so on).
type Key struct {
	Name  string
	Depth int
	Seq   int
}

// String renders the key the way element ids are written, e.g. "Win-3" or
// "Win-3~1" for a repeated name.
func (k Key) String() string {
	if k.Seq == 0 {
		return fmt.Sprintf("%s-%d", k.Name, k.Depth)
	}
	return fmt.Sprintf("%s-%d~%d", k.Name, k.Depth, k.Seq)
}

// Node is the runtime state of one dataset entry.
type Node struct {
	Key      Key
	Data     *model.TreeNode
	Depth    int
	Parent   int   // arena index of the parent, -1 for the root
	Children []int // arena indices in authored order
	Expanded bool

	// Layout results, valid after Tree.Layout.
	X, Y float64 // X is the breadth axis, Y the depth axis
	Box  Box
}

// HasChildren reports whether the node can be toggled.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Glyph is the toggle indicator: "−" when expanded, "+" when collapsed and
// empty for leaves.
func (n *Node) Glyph() string {
	switch {
	case !n.HasChildren():
		return ""
	case n.Expanded:
		return "−"
	default:
		return "+"
	}
}

// Edge connects a visible parent to one of its visible children.
type Edge struct {
	Source int
	Target int
}

// Tree is an arena of nodes built from one authored document.
type Tree struct {
	nodes []*Node
	index map[Key]int
}

// New builds the arena for root. Every node starts expanded. A nil root
// yields an empty tree.
func New(root *model.TreeNode) *Tree {
	t := &Tree{index: make(map[Key]int)}
	if root == nil {
		return t
	}
	seen := make(map[Key]int)
	var build func(data *model.TreeNode, depth, parent int) int
	build = func(data *model.TreeNode, depth, parent int) int {
		base := Key{Name: data.Name, Depth: depth}
		key := Key{Name: data.Name, Depth: depth, Seq: seen[base]}
		seen[base]++

		idx := len(t.nodes)
		t.nodes = append(t.nodes, &Node{
			Key:      key,
			Data:     data,
			Depth:    depth,
			Parent:   parent,
			Expanded: true,
		})
		t.index[key] = idx
		for _, c := range data.Children {
			if c == nil {
				continue
			}
			child := build(c, depth+1, idx)
			t.nodes[idx].Children = append(t.nodes[idx].Children, child)
		}
		return idx
	}
	build(root, 0, -1)
	return t
}

// Len returns the total number of nodes, visible or not.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0]
}

// Node returns the node at arena index i.
func (t *Tree) Node(i int) *Node {
	return t.nodes[i]
}

// Lookup finds a node by key.
func (t *Tree) Lookup(k Key) (*Node, bool) {
	i, ok := t.index[k]
	if !ok {
		return nil, false
	}
	return t.nodes[i], true
}

// Toggle flips the expand state of the node identified by k. Leaves and
// unknown keys are ignored; the return value reports whether anything
// changed.
func (t *Tree) Toggle(k Key) bool {
	n, ok := t.Lookup(k)
	if !ok || !n.HasChildren() {
		return false
	}
	n.Expanded = !n.Expanded
	return true
}

// SetExpanded forces the expand state of the node identified by k.
func (t *Tree) SetExpanded(k Key, expanded bool) bool {
	n, ok := t.Lookup(k)
	if !ok || !n.HasChildren() || n.Expanded == expanded {
		return false
	}
	n.Expanded = expanded
	return true
}

// ExpandAll marks every node expanded.
func (t *Tree) ExpandAll() {
	for _, n := range t.nodes {
		n.Expanded = true
	}
}

// Visible returns the arena indices of the nodes whose ancestors are all
// expanded, in pre-order, together with the edges between them.
func (t *Tree) Visible() ([]int, []Edge) {
	if len(t.nodes) == 0 {
		return nil, nil
	}
	var nodes []int
	var edges []Edge
	var walk func(i int)
	walk = func(i int) {
		nodes = append(nodes, i)
		n := t.nodes[i]
		if !n.Expanded {
			return
		}
		for _, c := range n.Children {
			edges = append(edges, Edge{Source: i, Target: c})
			walk(c)
		}
	}
	walk(0)
	return nodes, edges
}

// visibleChildren returns the children of n that take part in layout.
func (t *Tree) visibleChildren(n *Node) []int {
	if !n.Expanded {
		return nil
	}
	return n.Children
}
