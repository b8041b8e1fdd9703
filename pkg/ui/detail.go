package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// DetailWidth is the width of the detail pane, border included.
const DetailWidth = 42

// nodeMarkdown describes a node for the detail pane.
func nodeMarkdown(n *tree.Node) string {
	if n == nil || n.Data == nil {
		return ""
	}
	d := n.Data
	var sb strings.Builder
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&sb, "## %s\n\n", name)
	if d.Type != "" {
		fmt.Fprintf(&sb, "*%s* · depth %d\n\n", d.Type, n.Depth)
	} else {
		fmt.Fprintf(&sb, "depth %d\n\n", n.Depth)
	}
	if meta := strings.TrimSpace(d.Meta()); meta != "" {
		fmt.Fprintf(&sb, "%s\n\n", meta)
	}
	if d.Type == model.TypeOutcome {
		sb.WriteString("| p | payoff |\n|---|---|\n")
		fmt.Fprintf(&sb, "| %s | %s |\n\n", cell(d.ProbText()), model.MoneyShort(d.Payoff))
	}
	if len(d.Children) > 0 {
		state := "expanded"
		if !n.Expanded {
			state = "collapsed"
		}
		fmt.Fprintf(&sb, "%d children, %d nodes below, %s\n\n", len(d.Children), d.Count()-1, state)
		for _, c := range d.Children {
			fmt.Fprintf(&sb, "- %s\n", c.Name)
		}
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return " "
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// newRenderer returns the markdown renderer of the detail pane. An empty
// style detects the terminal background.
func newRenderer(style string, wrap int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	return r
}
