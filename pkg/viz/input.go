package viz

import "github.com/vanderheijden86/decisiontree/pkg/tree"

// EventKind distinguishes pointer from keyboard input.
type EventKind int

const (
	PointerActivate EventKind = iota
	KeyDown
)

// Event is user input aimed at one node of one visualizer.
type Event struct {
	Kind   EventKind
	Target tree.Key
	// Key is the key name for KeyDown events: "Enter" or " " activate.
	Key string
}

// IsActivation reports whether the event should toggle its target.
func (e Event) IsActivation() bool {
	switch e.Kind {
	case PointerActivate:
		return true
	case KeyDown:
		return e.Key == "Enter" || e.Key == " "
	}
	return false
}

// Dispatch routes an input event to this visualizer. Events only ever reach
// the instance they are dispatched on. It reports whether the tree changed.
func (v *Visualizer) Dispatch(e Event) bool {
	if !e.IsActivation() {
		return false
	}
	return v.Activate(e.Target)
}
