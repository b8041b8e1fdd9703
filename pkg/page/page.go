// Package page locates visualization mount points inside a static HTML page
// and writes rendered trees back into it.
//
// A tree is mounted by two element ids: a container, whose width drives the
// layout, and an <svg> drawing surface, whose children are replaced with the
// rendered scene.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/viz"
)

// DataSourceAttr is the <body> attribute naming the tree dataset.
const DataSourceAttr = "data-decision-tree-src"

// ErrMountNotFound is returned by MountStrict when an id is missing.
var ErrMountNotFound = errors.New("mount point not found")

// Document is a parsed HTML page.
type Document struct {
	root  *html.Node
	ids   map[string]*html.Node
	body  *html.Node
	theme render.Theme
	// DefaultWidth is the container width used when the markup gives none.
	DefaultWidth float64
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	d := &Document{
		root:         root,
		ids:          make(map[string]*html.Node),
		theme:        render.DefaultTheme,
		DefaultWidth: 960,
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				if _, dup := d.ids[id]; !dup {
					d.ids[id] = n
				}
			}
			if n.DataAtom == atom.Body && d.body == nil {
				d.body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// SetTheme sets the colours used for injected drawings.
func (d *Document) SetTheme(th render.Theme) {
	d.theme = th
}

// DataSource returns the dataset location declared on <body>, if any.
func (d *Document) DataSource() string {
	if d.body == nil {
		return ""
	}
	return strings.TrimSpace(getAttr(d.body, DataSourceAttr))
}

// ElementByID returns the first element with the given id.
func (d *Document) ElementByID(id string) (*html.Node, bool) {
	n, ok := d.ids[id]
	return n, ok
}

// Mount resolves the mount points of spec. Missing elements are left nil so
// viz.New skips the tree.
func (d *Document) Mount(spec model.TreeSpec) viz.Mount {
	var m viz.Mount
	if n, ok := d.ElementByID(spec.CanvasID); ok {
		m.Container = &Container{node: n, fallback: d.DefaultWidth}
	}
	if n, ok := d.ElementByID(spec.SvgID); ok && n.DataAtom == atom.Svg {
		m.Surface = &Surface{node: n, theme: d.theme}
	}
	return m
}

// MountStrict is Mount that reports which id is missing.
func (d *Document) MountStrict(spec model.TreeSpec) (viz.Mount, error) {
	m := d.Mount(spec)
	if m.Container == nil {
		return m, fmt.Errorf("container #%s: %w", spec.CanvasID, ErrMountNotFound)
	}
	if m.Surface == nil {
		return m, fmt.Errorf("svg #%s: %w", spec.SvgID, ErrMountNotFound)
	}
	return m, nil
}

// Render writes the page, including any injected drawings.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Container is a mounted container element.
type Container struct {
	node     *html.Node
	fallback float64
}

var styleWidth = regexp.MustCompile(`(?:^|;)\s*width\s*:\s*([0-9.]+)px`)

// Width reads data-width, then an inline style width in px, then falls back
// to the document default.
func (c *Container) Width() float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(getAttr(c.node, "data-width")), 64); err == nil && v > 0 {
		return v
	}
	if m := styleWidth.FindStringSubmatch(getAttr(c.node, "style")); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v
		}
	}
	return c.fallback
}

// SetWidth records a new width on the element, as a resize would.
func (c *Container) SetWidth(w float64) {
	setAttr(c.node, "data-width", strconv.FormatFloat(w, 'f', -1, 64))
}

// Surface is a mounted <svg> element.
type Surface struct {
	node  *html.Node
	theme render.Theme
}

// Present replaces the element's children with the scene and sets its
// viewBox to the surface size.
func (s *Surface) Present(sc *render.Scene, width, height float64) {
	var buf bytes.Buffer
	_ = render.WriteFragment(&buf, sc, s.theme)

	for c := s.node.FirstChild; c != nil; {
		next := c.NextSibling
		s.node.RemoveChild(c)
		c = next
	}
	setAttr(s.node, "viewBox", fmt.Sprintf("0 0 %s %s",
		strconv.FormatFloat(width, 'f', -1, 64), strconv.FormatFloat(height, 'f', -1, 64)))
	s.node.AppendChild(&html.Node{Type: html.RawNode, Data: buf.String()})
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
