// Package viz is the decision-tree visualizer: it ties a tree arena, a
// retained scene and a mount point together and drives the
// layout → render → fit cycle on load, on activation and on resize.
package viz

import (
	"github.com/vanderheijden86/decisiontree/pkg/debug"
	"github.com/vanderheijden86/decisiontree/pkg/frame"
	"github.com/vanderheijden86/decisiontree/pkg/metrics"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/tree"
)

// DefaultViewHeight is the fixed height of the drawing surface.
const DefaultViewHeight = 720.0

// Container is the element that holds the drawing surface. Only its width
// varies; the height of the drawing is fixed by Options.Height.
type Container interface {
	Width() float64
}

// Surface receives the scene after every fit.
type Surface interface {
	Present(s *render.Scene, width, height float64)
}

// Mount is the pair of elements a visualizer draws into.
type Mount struct {
	Container Container
	Surface   Surface
}

// Options configures a Visualizer. Zero values take defaults.
type Options struct {
	Height     float64
	Margin     *tree.Margin
	FitPadding float64
	Measurer   tree.Measurer
	// Frames coalesces resize notifications. When nil, resizes are handled
	// immediately.
	Frames *frame.Queue
}

func (o Options) withDefaults() Options {
	if o.Height <= 0 {
		o.Height = DefaultViewHeight
	}
	if o.Margin == nil {
		m := tree.DefaultMargin
		o.Margin = &m
	}
	if o.FitPadding <= 0 {
		o.FitPadding = render.DefaultFitPadding
	}
	if o.Measurer == nil {
		o.Measurer = tree.DefaultMeasurer()
	}
	return o
}

// Visualizer owns one tree, its scene and its mount.
type Visualizer struct {
	spec  model.TreeSpec
	tree  *tree.Tree
	scene *render.Scene
	mount Mount
	opts  Options

	renders int
	fits    int
}

// New builds a visualizer for spec and runs the first layout, render and
// fit. If either mount element is missing it returns nil.
func New(spec model.TreeSpec, mount Mount, opts Options) *Visualizer {
	if mount.Container == nil || mount.Surface == nil {
		return nil
	}
	v := &Visualizer{
		spec:  spec,
		tree:  tree.New(spec.Data),
		scene: render.NewScene(),
		mount: mount,
		opts:  opts.withDefaults(),
	}
	debug.Log("viz: %s: %d nodes", spec.Label(), v.tree.Len())
	v.rerenderAndFit()
	return v
}

// Spec returns the document the visualizer was built from.
func (v *Visualizer) Spec() model.TreeSpec { return v.spec }

// Tree returns the underlying arena.
func (v *Visualizer) Tree() *tree.Tree { return v.tree }

// Scene returns the retained scene.
func (v *Visualizer) Scene() *render.Scene { return v.scene }

// Renders returns how many layout+render passes have run.
func (v *Visualizer) Renders() int { return v.renders }

// Fits returns how many times the view has been fitted.
func (v *Visualizer) Fits() int { return v.fits }

// Size returns the current drawing surface dimensions.
func (v *Visualizer) Size() (width, height float64) {
	return v.mount.Container.Width(), v.opts.Height
}

// Render lays out the visible nodes and reconciles the scene against them.
func (v *Visualizer) Render() (nodes, edges render.Diff) {
	w, h := v.Size()
	res := v.tree.Layout(tree.LayoutOptions{Width: w, Height: h, Margin: *v.opts.Margin})
	nodes, edges = v.scene.Render(v.tree, res, v.opts.Measurer)
	v.renders++
	debug.Log("viz: %s: render #%d +%d ~%d -%d nodes", v.spec.Label(), v.renders,
		len(nodes.Entered), len(nodes.Updated), len(nodes.Exited))
	return nodes, edges
}

// FitView scales and centres the drawing in the surface and presents it.
// A degenerate bounding box leaves the previous transform in place.
func (v *Visualizer) FitView() {
	defer metrics.Timer(metrics.Fit)()
	w, h := v.Size()
	if t, ok := render.Fit(v.scene.BBox(), w, h, v.opts.FitPadding); ok {
		v.scene.Transform = t
	}
	v.fits++
	v.mount.Surface.Present(v.scene, w, h)
}

func (v *Visualizer) rerenderAndFit() {
	v.Render()
	v.FitView()
}

// Activate toggles the node identified by k and redraws the whole tree.
// Leaves and unknown keys are ignored.
func (v *Visualizer) Activate(k tree.Key) bool {
	if !v.tree.Toggle(k) {
		return false
	}
	v.rerenderAndFit()
	return true
}

// NotifyResize tells the visualizer its container changed size. With a
// frame queue the redraw waits for the next frame and bursts of
// notifications collapse into one redraw.
func (v *Visualizer) NotifyResize() {
	if v.opts.Frames == nil {
		v.rerenderAndFit()
		return
	}
	v.opts.Frames.Request(v, v.rerenderAndFit)
}
