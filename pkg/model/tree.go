// Package model holds the decision-tree documents as they are authored and
// fetched. The structures here are read-only once loaded; runtime state such
// as expand/collapse and layout positions lives in pkg/tree.
package model

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// NodeType is the category of a decision-tree node.
type NodeType string

const (
	TypeDecision NodeType = "decision"
	TypeStrategy NodeType = "strategy"
	TypeOutcome  NodeType = "outcome"
)

// IsValid reports whether t is one of the known node categories.
func (t NodeType) IsValid() bool {
	switch t {
	case TypeDecision, TypeStrategy, TypeOutcome:
		return true
	}
	return false
}

// Probability is the probability of an outcome exactly as authored. Authors
// write it either as a number (0.25) or as text ("25%"), and it is displayed
// verbatim, so it is kept as a string.
type Probability string

// UnmarshalJSON accepts a JSON string, number or null.
func (p *Probability) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Probability(s)
		return nil
	}
	*p = Probability(data)
	return nil
}

// UnmarshalYAML accepts any scalar.
func (p *Probability) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*p = ""
		return nil
	}
	*p = Probability(value.Value)
	return nil
}

// TreeNode is one entry of an authored decision tree.
type TreeNode struct {
	Name     string      `json:"name" yaml:"name"`
	Type     NodeType    `json:"type" yaml:"type"`
	Subtitle string      `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Prob     Probability `json:"prob,omitempty" yaml:"prob,omitempty"`
	Payoff   float64     `json:"payoff,omitempty" yaml:"payoff,omitempty"`
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// treeNodeAlias lets UnmarshalJSON reuse the default decoding.
type treeNodeAlias TreeNode

// UnmarshalJSON also accepts the long-form "probability" key for Prob.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		treeNodeAlias
		Probability *Probability `json:"probability"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = TreeNode(raw.treeNodeAlias)
	if n.Prob == "" && raw.Probability != nil {
		n.Prob = *raw.Probability
	}
	return nil
}

// HasChildren reports whether the node has at least one child.
func (n *TreeNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Meta returns the secondary text line. Only strategy nodes carry one.
func (n *TreeNode) Meta() string {
	if n == nil || n.Type != TypeStrategy {
		return ""
	}
	return n.Subtitle
}

// ProbText returns the display text of the probability column.
func (n *TreeNode) ProbText() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(string(n.Prob))
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *TreeNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// TreeSpec describes one visualization on a page: where to mount it and what
// to draw.
type TreeSpec struct {
	CanvasID string    `json:"canvasId" yaml:"canvasId"`
	SvgID    string    `json:"svgId" yaml:"svgId"`
	Data     *TreeNode `json:"data" yaml:"data"`
}

// Label is a human-readable name for the spec, used in pickers and logs.
func (s TreeSpec) Label() string {
	name := ""
	if s.Data != nil {
		name = s.Data.Name
	}
	switch {
	case name != "" && s.SvgID != "":
		return name + " (#" + s.SvgID + ")"
	case name != "":
		return name
	case s.SvgID != "":
		return "#" + s.SvgID
	}
	return "tree"
}

// MoneyShort abbreviates a payoff: thousands as "k" (rounded to a whole
// number), millions as "M" with one decimal and a trailing ".0" dropped. The
// sign is kept for negative values.
func MoneyShort(n float64) string {
	sign := ""
	if n < 0 {
		sign = "-"
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000:
		s := strconv.FormatFloat(math.Round(abs/100_000)/10, 'f', 1, 64)
		return sign + strings.TrimSuffix(s, ".0") + "M"
	case abs >= 1_000:
		return sign + strconv.FormatFloat(math.Round(abs/1_000), 'f', -1, 64) + "k"
	}
	return sign + strconv.FormatFloat(abs, 'f', -1, 64)
}
