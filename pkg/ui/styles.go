package ui

import (
	"fmt"
	"image/color"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
)

// TermProfile is the detected colour support of stdout.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorFocusBg = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
)

// Styles are the pre-built styles of the session.
type Styles struct {
	Header   lipgloss.Style
	Row      lipgloss.Style
	Focused  lipgloss.Style
	Glyph    lipgloss.Style
	Meta     lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Detail   lipgloss.Style
	Empty    lipgloss.Style
	TypeMark map[model.NodeType]lipgloss.Style
}

// NewStyles builds the styles. Node type markers take their colours from
// the drawing theme so the terminal and the exported pictures agree.
func NewStyles(th render.Theme) Styles {
	s := Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Row:     lipgloss.NewStyle().Foreground(ColorText),
		Focused: lipgloss.NewStyle().Foreground(ColorText).Background(ColorFocusBg).Bold(true),
		Glyph:   lipgloss.NewStyle().Foreground(ColorMuted),
		Meta:    lipgloss.NewStyle().Foreground(ColorSubtext),
		Status:  lipgloss.NewStyle().Foreground(ColorMuted),
		Error:   lipgloss.NewStyle().Foreground(ColorDanger),
		Detail: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		Empty:    lipgloss.NewStyle().Foreground(ColorMuted).Italic(true),
		TypeMark: make(map[model.NodeType]lipgloss.Style),
	}
	for _, t := range []model.NodeType{model.TypeDecision, model.TypeStrategy, model.TypeOutcome, ""} {
		s.TypeMark[t] = lipgloss.NewStyle().Foreground(themeFg(th.TypeColor(t)))
	}
	return s
}

// themeFg returns c on 256-colour terminals and better, and plain white
// below that.
func themeFg(c color.RGBA) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
