package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/vanderheijden86/decisiontree/pkg/model"
)

// Theme holds the colours of a drawing.
type Theme struct {
	Decision   color.RGBA
	Strategy   color.RGBA
	Outcome    color.RGBA
	Pill       color.RGBA
	PillStroke color.RGBA
	Link       color.RGBA
	Text       color.RGBA
	Subtle     color.RGBA
	Glyph      color.RGBA
	Backdrop   color.RGBA
}

// DefaultTheme is a light palette.
var DefaultTheme = Theme{
	Decision:   color.RGBA{0x3b, 0x82, 0xf6, 0xff},
	Strategy:   color.RGBA{0xf5, 0x9e, 0x0b, 0xff},
	Outcome:    color.RGBA{0x10, 0xb9, 0x81, 0xff},
	Pill:       color.RGBA{0xff, 0xff, 0xff, 0xff},
	PillStroke: color.RGBA{0xd1, 0xd5, 0xdb, 0xff},
	Link:       color.RGBA{0xcb, 0xd5, 0xe1, 0xff},
	Text:       color.RGBA{0x11, 0x18, 0x27, 0xff},
	Subtle:     color.RGBA{0x6b, 0x72, 0x80, 0xff},
	Glyph:      color.RGBA{0x9c, 0xa3, 0xaf, 0xff},
	Backdrop:   color.RGBA{0xf9, 0xfa, 0xfb, 0xff},
}

// TypeColor returns the indicator colour of a node type. Unknown types get
// the glyph grey.
func (th Theme) TypeColor(t model.NodeType) color.RGBA {
	switch t {
	case model.TypeDecision:
		return th.Decision
	case model.TypeStrategy:
		return th.Strategy
	case model.TypeOutcome:
		return th.Outcome
	}
	return th.Glyph
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
		}
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	default:
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{r, g, b, 0xff}, nil
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
