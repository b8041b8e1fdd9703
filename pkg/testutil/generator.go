// Package testutil provides decision-tree fixtures for tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed int64 // Random seed; 0 selects 42
	// MaxDepth bounds the depth of generated trees (root is depth 0).
	MaxDepth int
	// MaxFanout bounds the number of children per node.
	MaxFanout int
	// DuplicateNames reuses a small pool of names so that sibling subtrees
	// share (name, depth) pairs.
	DuplicateNames bool
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, MaxDepth: 3, MaxFanout: 3}
}

// Generator creates decision-tree fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
	seq int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if cfg.MaxFanout <= 0 {
		cfg.MaxFanout = 3
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) name(prefix string) string {
	if g.cfg.DuplicateNames {
		return fmt.Sprintf("%s %d", prefix, g.rng.Intn(2))
	}
	g.seq++
	return fmt.Sprintf("%s %d", prefix, g.seq)
}

// Tree returns a random tree alternating decision and strategy levels with
// outcome leaves. Strategies carry a subtitle; outcomes carry a probability
// and a payoff.
func (g *Generator) Tree() *model.TreeNode {
	return g.node(0, model.TypeDecision)
}

func (g *Generator) node(depth int, typ model.NodeType) *model.TreeNode {
	n := &model.TreeNode{Type: typ}
	if typ == model.TypeOutcome || depth >= g.cfg.MaxDepth {
		n.Type = model.TypeOutcome
		n.Name = g.name("Outcome")
		n.Prob = model.Probability(fmt.Sprintf("%.2f", g.rng.Float64()))
		n.Payoff = float64(g.rng.Intn(4_000_000) - 1_000_000)
		return n
	}

	childType := model.TypeStrategy
	switch typ {
	case model.TypeDecision:
		n.Name = g.name("Decision")
	case model.TypeStrategy:
		n.Name = g.name("Strategy")
		n.Subtitle = fmt.Sprintf("cost %dk", g.rng.Intn(900)+100)
		childType = model.TypeDecision
	}
	fanout := 1 + g.rng.Intn(g.cfg.MaxFanout)
	for i := 0; i < fanout; i++ {
		ct := childType
		if g.rng.Intn(3) == 0 {
			ct = model.TypeOutcome
		}
		n.Children = append(n.Children, g.node(depth+1, ct))
	}
	return n
}

// Chain returns a single path of size nodes ending in an outcome.
func (g *Generator) Chain(size int) *model.TreeNode {
	root := &model.TreeNode{Name: "n0", Type: model.TypeDecision}
	cur := root
	for i := 1; i < size; i++ {
		next := &model.TreeNode{Name: fmt.Sprintf("n%d", i), Type: model.TypeStrategy}
		if i == size-1 {
			next.Type = model.TypeOutcome
			next.Prob = "1"
		}
		cur.Children = []*model.TreeNode{next}
		cur = next
	}
	return root
}

// Wide returns a root whose single strategy child fans out into width
// outcomes at depth 2.
func (g *Generator) Wide(width int) *model.TreeNode {
	s := &model.TreeNode{Name: "spread", Type: model.TypeStrategy, Subtitle: "all in"}
	for i := 0; i < width; i++ {
		s.Children = append(s.Children, &model.TreeNode{
			Name:   fmt.Sprintf("leaf %d", i),
			Type:   model.TypeOutcome,
			Prob:   model.Probability(fmt.Sprintf("%.2f", 1/float64(width))),
			Payoff: float64(i * 250_000),
		})
	}
	return &model.TreeNode{Name: "root", Type: model.TypeDecision, Children: []*model.TreeNode{s}}
}

// Forest returns n tree specs with mount ids "canvas-i" and "svg-i".
func (g *Generator) Forest(n int) []model.TreeSpec {
	specs := make([]model.TreeSpec, n)
	for i := range specs {
		specs[i] = model.TreeSpec{
			CanvasID: fmt.Sprintf("canvas-%d", i),
			SvgID:    fmt.Sprintf("svg-%d", i),
			Data:     g.Tree(),
		}
	}
	return specs
}
