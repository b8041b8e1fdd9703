// Package ui is the interactive terminal session: one visualizer per tree,
// the visible nodes listed as an outline, activation by Enter/Space or a
// click, and terminal resizes fed to the visualizer as container resizes.
package ui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/decisiontree/pkg/debug"
	"github.com/vanderheijden86/decisiontree/pkg/frame"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
	"github.com/vanderheijden86/decisiontree/pkg/viz"
	"github.com/vanderheijden86/decisiontree/pkg/watcher"
)

const (
	headerLines = 2
	footerLines = 1
	// minDetailCols is the narrowest window that still shows the detail pane.
	minDetailCols = DetailWidth + 40
)

// FileChangedMsg is sent when the dataset file changes on disk.
type FileChangedMsg struct{}

// ReloadedMsg carries the result of reloading the dataset.
type ReloadedMsg struct {
	Specs []model.TreeSpec
	Err   error
}

type frameMsg struct{}

// Options configures a session.
type Options struct {
	Viz   viz.Options
	Theme render.Theme
	// Start is the index of the tree shown first.
	Start int
	// Watcher, when set, triggers Reload on every settled change.
	Watcher *watcher.Watcher
	Reload  func() ([]model.TreeSpec, error)
	// DetailStyle is a glamour standard style name; empty detects it.
	DetailStyle string
	// Copy writes to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
}

// Model is the bubbletea model of a session.
type Model struct {
	specs    []model.TreeSpec
	trees    map[int]*viz.Visualizer
	surfaces map[int]*termSurface
	current  int
	focus    tree.Key
	offset   int

	container *termContainer
	frames    *frame.Queue
	ticking   bool

	opts       Options
	keys       keyMap
	help       help.Model
	styles     Styles
	md         *glamour.TermRenderer
	showDetail bool

	width, height int
	status        string
	statusErr     bool
}

// New creates a session over specs.
func New(specs []model.TreeSpec, opts Options) Model {
	if opts.Theme == (render.Theme{}) {
		opts.Theme = render.DefaultTheme
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	m := Model{
		container:  &termContainer{},
		frames:     frame.NewQueue(),
		opts:       opts,
		keys:       defaultKeys(),
		help:       help.New(),
		styles:     NewStyles(opts.Theme),
		md:         newRenderer(opts.DetailStyle, DetailWidth-4),
		showDetail: true,
	}
	m.opts.Viz.Frames = m.frames
	m.load(specs, opts.Start)
	return m
}

// WatchFileCmd waits for the next dataset change.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frame.Interval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) load(specs []model.TreeSpec, start int) {
	m.specs = specs
	m.trees = make(map[int]*viz.Visualizer)
	m.surfaces = make(map[int]*termSurface)
	m.offset = 0
	m.current = 0
	if start > 0 && start < len(specs) {
		m.current = start
	}
	m.focusRoot()
}

// visualizer returns the visualizer of tree i, building it on first use.
func (m *Model) visualizer(i int) *viz.Visualizer {
	if i < 0 || i >= len(m.specs) {
		return nil
	}
	if v, ok := m.trees[i]; ok {
		return v
	}
	s := &termSurface{}
	v := viz.New(m.specs[i], viz.Mount{Container: m.container, Surface: s}, m.opts.Viz)
	m.trees[i], m.surfaces[i] = v, s
	return v
}

func (m *Model) focusRoot() {
	m.focus = tree.Key{}
	if v := m.visualizer(m.current); v != nil {
		if root := v.Tree().Root(); root != nil {
			m.focus = root.Key
		}
	}
}

// Current returns the index of the tree on screen.
func (m Model) Current() int { return m.current }

// Focus returns the key of the focused node.
func (m Model) Focus() tree.Key { return m.focus }

// Visualizer returns the visualizer of the tree on screen.
func (m Model) Visualizer() *viz.Visualizer { return m.trees[m.current] }

// Status returns the status line message.
func (m Model) Status() string { return m.status }

// rows returns the visible nodes of the current tree in outline order.
func (m Model) rows() []*tree.Node {
	v := m.trees[m.current]
	if v == nil {
		return nil
	}
	idx, _ := v.Tree().Visible()
	out := make([]*tree.Node, len(idx))
	for i, j := range idx {
		out[i] = v.Tree().Node(j)
	}
	return out
}

func (m Model) focusIndex(rows []*tree.Node) int {
	for i, n := range rows {
		if n.Key == m.focus {
			return i
		}
	}
	return 0
}

func (m Model) detailShown() bool {
	return m.showDetail && m.width >= minDetailCols
}

// drawCols is the number of columns the outline occupies, which is what
// the visualizer sees as its container width.
func (m Model) drawCols() int {
	if m.detailShown() {
		return m.width - DetailWidth
	}
	return m.width
}

func (m Model) listHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(1, m.height-headerLines-footerLines)
}

func (m *Model) scheduleFrame() tea.Cmd {
	if m.ticking || !m.frames.Pending() {
		return nil
	}
	m.ticking = true
	return frameTick()
}

func (m *Model) resized() tea.Cmd {
	m.container.cols = m.drawCols()
	if v := m.trees[m.current]; v != nil {
		v.NotifyResize()
	}
	return m.scheduleFrame()
}

func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, m.resized()

	case frameMsg:
		m.ticking = false
		if n := m.frames.Flush(); n > 0 {
			debug.Log("ui: frame %d ran %d redraws", m.frames.Frames(), n)
		}
		return m, m.scheduleFrame()

	case FileChangedMsg:
		var cmds []tea.Cmd
		if m.opts.Reload != nil {
			reload := m.opts.Reload
			cmds = append(cmds, func() tea.Msg {
				specs, err := reload()
				return ReloadedMsg{Specs: specs, Err: err}
			})
		}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case ReloadedMsg:
		if msg.Err != nil {
			m.status, m.statusErr = fmt.Sprintf("Reload failed: %v", msg.Err), true
			return m, nil
		}
		m.load(msg.Specs, m.current)
		m.status, m.statusErr = fmt.Sprintf("Reloaded %d trees", len(msg.Specs)), false
		return m, m.resized()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	i := m.focusIndex(rows)
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if i > 0 {
			m.focus = rows[i-1].Key
		}

	case key.Matches(msg, m.keys.Down):
		if i < len(rows)-1 {
			m.focus = rows[i+1].Key
		}

	case key.Matches(msg, m.keys.Activate):
		if v := m.trees[m.current]; v != nil && len(rows) > 0 {
			m.activate(v, viz.Event{Kind: viz.KeyDown, Target: m.focus, Key: domKey(msg.String())})
		}

	case key.Matches(msg, m.keys.NextTree):
		cmd = m.switchTree(1)

	case key.Matches(msg, m.keys.PrevTree):
		cmd = m.switchTree(-1)

	case key.Matches(msg, m.keys.Copy):
		m.copySVG()

	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		cmd = m.resized()
	}

	m.clampOffset()
	return m, cmd
}

// handleMouse activates the clicked row. Wheel input is dropped: the view
// is only ever scaled by fitting.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return m, nil
	}
	if m.detailShown() && msg.X >= m.drawCols() {
		return m, nil
	}
	rows := m.rows()
	r := msg.Y - headerLines + m.offset
	if msg.Y < headerLines || r < 0 || r >= len(rows) {
		return m, nil
	}
	m.focus = rows[r].Key
	if v := m.trees[m.current]; v != nil {
		m.activate(v, viz.Event{Kind: viz.PointerActivate, Target: m.focus})
	}
	m.clampOffset()
	return m, nil
}

func (m *Model) activate(v *viz.Visualizer, e viz.Event) {
	if v.Dispatch(e) {
		m.status, m.statusErr = "", false
		return
	}
	if n, ok := v.Tree().Lookup(e.Target); ok && !n.HasChildren() {
		m.status, m.statusErr = fmt.Sprintf("%s has no children", n.Data.Name), false
	}
}

func (m *Model) switchTree(delta int) tea.Cmd {
	n := len(m.specs)
	if n <= 1 {
		return nil
	}
	m.current = ((m.current+delta)%n + n) % n
	m.offset = 0
	m.focusRoot()
	m.status = ""
	return m.resized()
}

func (m *Model) copySVG() {
	s := m.surfaces[m.current]
	if s == nil || s.scene == nil {
		m.status, m.statusErr = "Nothing to copy", true
		return
	}
	label := m.specs[m.current].Label()
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, s.scene, render.SVGOptions{
		Width: int(s.width), Height: int(s.height), Theme: m.opts.Theme, Title: label,
	}); err != nil {
		m.status, m.statusErr = fmt.Sprintf("Render error: %v", err), true
		return
	}
	if err := m.opts.Copy(buf.String()); err != nil {
		m.status, m.statusErr = fmt.Sprintf("Clipboard error: %v", err), true
		return
	}
	m.status, m.statusErr = fmt.Sprintf("Copied %s as SVG (%d bytes)", label, buf.Len()), false
}

func (m *Model) clampOffset() {
	i := m.focusIndex(m.rows())
	h := m.listHeight()
	if i < m.offset {
		m.offset = i
	}
	if i >= m.offset+h {
		m.offset = i - h + 1
	}
}

func (m Model) View() string {
	if len(m.specs) == 0 {
		return m.styles.Empty.Render("No decision trees loaded.") + "\n" + m.help.View(m.keys)
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("dtv · %s  (%d/%d)", m.specs[m.current].Label(), m.current+1, len(m.specs))))
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	list := m.renderList()
	if m.detailShown() {
		list = lipgloss.JoinHorizontal(lipgloss.Top, list, m.renderDetail())
	}
	sb.WriteString(list)
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) statusLine() string {
	if m.status != "" {
		if m.statusErr {
			return m.styles.Error.Render(m.status)
		}
		return m.styles.Status.Render(m.status)
	}
	v := m.trees[m.current]
	s := m.surfaces[m.current]
	if v == nil || s == nil || s.scene == nil {
		return ""
	}
	shown, _ := s.scene.Len()
	return m.styles.Status.Render(fmt.Sprintf("scale %.2f · %d/%d nodes shown · %dpx wide",
		s.scene.Transform.Scale, shown, v.Tree().Len(), int(s.width)))
}

func (m Model) renderList() string {
	rows := m.rows()
	width := m.drawCols()
	if width <= 0 {
		width = DefaultColumns
	}
	h := m.listHeight()
	end := min(len(rows), m.offset+h)
	focus := m.focusIndex(rows)

	lines := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], width, i == focus))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(n *tree.Node, width int, focused bool) string {
	indent := strings.Repeat("  ", n.Depth)
	glyph := n.Glyph()
	if glyph == "" {
		glyph = " "
	}
	d := n.Data
	text := d.Name
	switch d.Type {
	case model.TypeStrategy:
		if meta := strings.TrimSpace(d.Meta()); meta != "" {
			text += "  " + m.styles.Meta.Render(meta)
		}
	case model.TypeOutcome:
		text += "  " + m.styles.Meta.Render(fmt.Sprintf("p %s  %s", d.ProbText(), model.MoneyShort(d.Payoff)))
	}
	avail := width - runewidth.StringWidth(indent) - 4
	if avail < 1 {
		avail = 1
	}
	if lipgloss.Width(text) > avail {
		// Styled segments would be cut mid-sequence, so truncate plain text.
		text = runewidth.Truncate(plainRow(d), avail, "…")
	}

	mark, ok := m.styles.TypeMark[d.Type]
	if !ok {
		mark = m.styles.TypeMark[""]
	}
	line := indent + m.styles.Glyph.Render(glyph) + " " + mark.Render("■") + " " + text
	if focused {
		return m.styles.Focused.Render(line)
	}
	return m.styles.Row.Render(line)
}

func plainRow(d *model.TreeNode) string {
	switch d.Type {
	case model.TypeStrategy:
		if meta := strings.TrimSpace(d.Meta()); meta != "" {
			return d.Name + "  " + meta
		}
	case model.TypeOutcome:
		return fmt.Sprintf("%s  p %s  %s", d.Name, d.ProbText(), model.MoneyShort(d.Payoff))
	}
	return d.Name
}

func (m Model) renderDetail() string {
	v := m.trees[m.current]
	if v == nil {
		return ""
	}
	n, ok := v.Tree().Lookup(m.focus)
	if !ok {
		return ""
	}
	text := nodeMarkdown(n)
	if m.md != nil {
		if out, err := m.md.Render(text); err == nil {
			text = out
		}
	}
	return m.styles.Detail.
		Width(DetailWidth - 2).
		Height(m.listHeight() - 2).
		MaxHeight(m.listHeight()).
		Render(strings.TrimSpace(text))
}
