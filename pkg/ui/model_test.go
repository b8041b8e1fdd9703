package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

func launchSpec(svgID string) model.TreeSpec {
	return model.TreeSpec{
		CanvasID: "c-" + svgID,
		SvgID:    svgID,
		Data: &model.TreeNode{
			Name: "Launch?",
			Type: model.TypeDecision,
			Children: []*model.TreeNode{
				{Name: "Go big", Type: model.TypeStrategy, Subtitle: "cost 2M", Children: []*model.TreeNode{
					{Name: "Win", Type: model.TypeOutcome, Prob: "0.4", Payoff: 5_000_000},
					{Name: "Lose", Type: model.TypeOutcome, Prob: "0.6", Payoff: -2_000_000},
				}},
				{Name: "Wait", Type: model.TypeOutcome, Prob: "1"},
			},
		},
	}
}

func newTestModel(t *testing.T, specs ...model.TreeSpec) Model {
	t.Helper()
	if len(specs) == 0 {
		specs = []model.TreeSpec{launchSpec("a")}
	}
	return New(specs, Options{DetailStyle: "notty", Copy: func(string) error { return nil }})
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model = m
	for _, msg := range msgs {
		next, cmd = next.Update(msg)
	}
	return next.(Model), cmd
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyDown  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	keyUp    = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyCopy  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}}
)

func TestNew_FocusesRoot(t *testing.T) {
	m := newTestModel(t)
	if m.Current() != 0 {
		t.Errorf("Current() = %d", m.Current())
	}
	if want := (tree.Key{Name: "Launch?"}); m.Focus() != want {
		t.Errorf("Focus() = %v, want %v", m.Focus(), want)
	}
	if v := m.Visualizer(); v == nil || v.Renders() != 1 || v.Fits() != 1 {
		t.Fatal("expected one render and fit on open")
	}
	if len(m.rows()) != 5 {
		t.Errorf("rows = %d, want 5", len(m.rows()))
	}
}

func TestNew_StartIndex(t *testing.T) {
	m := New([]model.TreeSpec{launchSpec("a"), launchSpec("b")}, Options{Start: 1, DetailStyle: "notty"})
	if m.Current() != 1 {
		t.Errorf("Current() = %d, want 1", m.Current())
	}
	m = New([]model.TreeSpec{launchSpec("a")}, Options{Start: 5, DetailStyle: "notty"})
	if m.Current() != 0 {
		t.Errorf("out of range start should fall back to 0, got %d", m.Current())
	}
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keyDown, keyDown)
	if m.Focus().Name != "Win" {
		t.Errorf("focus = %v, want Win", m.Focus())
	}
	m, _ = send(m, keyUp)
	if m.Focus().Name != "Go big" {
		t.Errorf("focus = %v, want Go big", m.Focus())
	}
	m, _ = send(m, keyUp, keyUp, keyUp)
	if m.Focus().Name != "Launch?" {
		t.Errorf("focus should stop at the root, got %v", m.Focus())
	}
}

func TestActivate_EnterAndSpaceToggle(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keyEnter)
	if n := len(m.rows()); n != 1 {
		t.Fatalf("after collapsing the root rows = %d, want 1", n)
	}
	if r := m.Visualizer().Renders(); r != 2 {
		t.Errorf("renders = %d, want 2", r)
	}
	m, _ = send(m, keySpace)
	if n := len(m.rows()); n != 5 {
		t.Errorf("after expanding rows = %d, want 5", n)
	}
	if m.Focus().Name != "Launch?" {
		t.Errorf("focus moved to %v", m.Focus())
	}
}

func TestActivate_LeafIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, keyDown, keyDown, keyEnter)
	if r := m.Visualizer().Renders(); r != 1 {
		t.Errorf("leaf activation re-rendered: %d", r)
	}
	if !strings.Contains(m.Status(), "Win has no children") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestMouse_ClickActivatesRow(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, tea.MouseMsg{X: 4, Y: headerLines + 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if m.Focus().Name != "Go big" {
		t.Errorf("focus = %v", m.Focus())
	}
	if n := len(m.rows()); n != 3 {
		t.Errorf("rows = %d, want 3 after collapsing Go big", n)
	}
}

func TestMouse_WheelIgnored(t *testing.T) {
	m := newTestModel(t)
	before := m.Visualizer().Scene().Transform
	for _, b := range []tea.MouseButton{tea.MouseButtonWheelUp, tea.MouseButtonWheelDown} {
		var cmd tea.Cmd
		m, cmd = send(m, tea.MouseMsg{Button: b, Action: tea.MouseActionPress, Ctrl: true})
		if cmd != nil {
			t.Error("wheel should not produce commands")
		}
	}
	if m.Visualizer().Scene().Transform != before || m.Visualizer().Renders() != 1 {
		t.Error("wheel changed the view")
	}
}

func TestResize_CoalescedIntoOneFrame(t *testing.T) {
	m := newTestModel(t)
	v := m.Visualizer()

	m, cmd := send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if cmd == nil {
		t.Fatal("expected a frame tick after resize")
	}
	m, cmd = send(m, tea.WindowSizeMsg{Width: 120, Height: 30}, tea.WindowSizeMsg{Width: 140, Height: 30})
	if cmd != nil {
		t.Error("a frame is already scheduled")
	}
	if v.Renders() != 1 {
		t.Fatalf("redrawn before the frame: %d", v.Renders())
	}

	m, _ = send(m, frameMsg{})
	if v.Renders() != 2 || v.Fits() != 2 {
		t.Errorf("renders=%d fits=%d, want 2/2", v.Renders(), v.Fits())
	}
	if w, _ := v.Size(); w != float64((140-DetailWidth)*CellPixels) {
		t.Errorf("container width = %v", w)
	}
	if m.ticking {
		t.Error("tick still marked pending")
	}
}

func TestTabSwitchesTreesIndependently(t *testing.T) {
	m := newTestModel(t, launchSpec("a"), launchSpec("b"))
	m, _ = send(m, keyEnter)
	first := m.Visualizer()

	m, _ = send(m, keyTab)
	if m.Current() != 1 {
		t.Fatalf("Current() = %d", m.Current())
	}
	if m.Visualizer() == first {
		t.Fatal("trees share a visualizer")
	}
	if n := len(m.rows()); n != 5 {
		t.Errorf("second tree affected by first: rows = %d", n)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Current() != 0 || len(m.rows()) != 1 {
		t.Errorf("first tree state lost: current=%d rows=%d", m.Current(), len(m.rows()))
	}
}

func TestCopySVG(t *testing.T) {
	var copied string
	m := New([]model.TreeSpec{launchSpec("a")}, Options{
		DetailStyle: "notty",
		Copy:        func(s string) error { copied = s; return nil },
	})
	m, _ = send(m, keyCopy)
	if !strings.Contains(copied, "<svg") || !strings.Contains(copied, "Launch?") {
		t.Errorf("clipboard content = %.80q", copied)
	}
	if !strings.HasPrefix(m.Status(), "Copied") {
		t.Errorf("status = %q", m.Status())
	}

	m = New([]model.TreeSpec{launchSpec("a")}, Options{
		DetailStyle: "notty",
		Copy:        func(string) error { return errors.New("no clipboard") },
	})
	m, _ = send(m, keyCopy)
	if !m.statusErr || !strings.Contains(m.Status(), "no clipboard") {
		t.Errorf("status = %q", m.Status())
	}
}

func TestReload(t *testing.T) {
	m := newTestModel(t, launchSpec("a"), launchSpec("b"))
	m, _ = send(m, keyTab)

	smaller := model.TreeSpec{SvgID: "c", Data: &model.TreeNode{Name: "Only", Type: model.TypeDecision}}
	m, cmd := send(m, ReloadedMsg{Specs: []model.TreeSpec{launchSpec("a"), smaller}})
	if cmd == nil {
		t.Error("expected a redraw after reload")
	}
	if m.Current() != 1 || m.Focus().Name != "Only" {
		t.Errorf("current=%d focus=%v", m.Current(), m.Focus())
	}

	m, _ = send(m, ReloadedMsg{Err: errors.New("bad json")})
	if !strings.Contains(m.Status(), "bad json") {
		t.Errorf("status = %q", m.Status())
	}
	if m.Focus().Name != "Only" {
		t.Error("failed reload should keep the old trees")
	}
}

func TestFileChanged_RunsReload(t *testing.T) {
	called := false
	m := New([]model.TreeSpec{launchSpec("a")}, Options{
		DetailStyle: "notty",
		Reload: func() ([]model.TreeSpec, error) {
			called = true
			return nil, nil
		},
	})
	_, cmd := send(m, FileChangedMsg{})
	if cmd == nil {
		t.Fatal("expected reload command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok && len(batch) > 0 {
		msg = batch[0]()
	}
	if _, ok := msg.(ReloadedMsg); !ok || !called {
		t.Errorf("got %T, called=%v", msg, called)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, tea.WindowSizeMsg{Width: 60, Height: 20}, frameMsg{})
	out := m.View()
	for _, want := range []string{"Launch? (#a)", "Go big", "cost 2M", "p 0.4", "5M", "-2M", "nodes shown"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 30}, frameMsg{})
	if !m.detailShown() {
		t.Fatal("detail pane should be shown on a wide window")
	}
	if out := m.View(); !strings.Contains(out, "depth 0") {
		t.Error("detail pane missing")
	}
}

func TestView_NoTrees(t *testing.T) {
	m := New(nil, Options{DetailStyle: "notty"})
	if !strings.Contains(m.View(), "No decision trees loaded") {
		t.Error("expected empty state")
	}
	m, _ = send(m, keyEnter, keyDown, keyTab, keyCopy)
	if m.Visualizer() != nil {
		t.Error("unexpected visualizer")
	}
}

func TestRenderRow_Truncates(t *testing.T) {
	m := newTestModel(t)
	rows := m.rows()
	line := m.renderRow(rows[2], 16, false)
	if !strings.Contains(line, "…") {
		t.Errorf("expected truncation marker in %q", line)
	}
}

func TestDomKey(t *testing.T) {
	tests := map[string]string{"enter": "Enter", " ": " ", "space": " ", "x": "x"}
	for in, want := range tests {
		if got := domKey(in); got != want {
			t.Errorf("domKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTermContainer_DefaultWidth(t *testing.T) {
	c := &termContainer{}
	if c.Width() != DefaultColumns*CellPixels {
		t.Errorf("Width() = %v", c.Width())
	}
	c.cols = 50
	if c.Width() != 400 {
		t.Errorf("Width() = %v", c.Width())
	}
}
