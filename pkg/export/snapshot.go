// Package export renders decision trees to files: standalone SVG/PNG
// snapshots, one per tree, and static pages with every tree injected at its
// mount point.
package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/decisiontree/pkg/debug"
	"github.com/vanderheijden86/decisiontree/pkg/model"
	"github.com/vanderheijden86/decisiontree/pkg/render"
	"github.com/vanderheijden86/decisiontree/pkg/viz"
)

// SnapshotOptions controls snapshot export of one tree.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Spec   model.TreeSpec
	Width  float64 // container width
	Theme  render.Theme
	Viz    viz.Options
	// Collapsed lists node names to collapse before rendering.
	Collapsed []string
}

// fixedContainer is a container of constant width.
type fixedContainer float64

func (c fixedContainer) Width() float64 { return float64(c) }

// sceneSurface keeps the last presented scene.
type sceneSurface struct {
	scene         *render.Scene
	width, height float64
}

func (s *sceneSurface) Present(sc *render.Scene, w, h float64) {
	s.scene, s.width, s.height = sc, w, h
}

// SaveTreeSnapshot renders one tree, fitted to its surface, as SVG or PNG.
func SaveTreeSnapshot(opts SnapshotOptions) error {
	if opts.Spec.Data == nil {
		return fmt.Errorf("tree %s has no data", opts.Spec.Label())
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := resolveFormat(opts.Format, &opts.Path)
	if err != nil {
		return err
	}
	if opts.Width <= 0 {
		return fmt.Errorf("invalid width %v", opts.Width)
	}

	surface := &sceneSurface{}
	v := viz.New(opts.Spec, viz.Mount{Container: fixedContainer(opts.Width), Surface: surface}, opts.Viz)
	for _, name := range opts.Collapsed {
		collapseByName(v, name)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)

	width, height := int(surface.width), int(surface.height)
	switch format {
	case "svg":
		err = render.WriteSVG(w, surface.scene, render.SVGOptions{
			Width: width, Height: height, Theme: opts.Theme, Title: opts.Spec.Label(),
		})
	case "png":
		err = render.WritePNG(w, surface.scene, width, height, opts.Theme)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// collapseByName collapses every node called name, at any depth.
func collapseByName(v *viz.Visualizer, name string) {
	t := v.Tree()
	for i := 0; i < t.Len(); i++ {
		n := t.Node(i)
		if n.Key.Name == name && n.Expanded && n.HasChildren() {
			v.Dispatch(viz.Event{Kind: viz.PointerActivate, Target: n.Key})
		}
	}
}

func resolveFormat(format string, path *string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(*path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if filepath.Ext(*path) == "" {
				*path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, nil
}

// ForestOptions controls export of every tree in a dataset.
type ForestOptions struct {
	Dir         string
	Format      string
	Width       float64
	Theme       render.Theme
	Viz         viz.Options
	Concurrency int
	// Collapsed lists node names collapsed in every tree.
	Collapsed []string
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns the snapshot file name of spec: its svg id, or its
// position when it has none.
func FileName(spec model.TreeSpec, index int, format string) string {
	base := unsafeName.ReplaceAllString(spec.SvgID, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = fmt.Sprintf("tree-%d", index+1)
	}
	return base + "." + format
}

// ExportForest writes one snapshot per tree. Trees are independent, so they
// render concurrently; the first failure cancels the rest.
func ExportForest(ctx context.Context, specs []model.TreeSpec, opts ForestOptions) ([]string, error) {
	defer debug.LogEnterExit("ExportForest")()
	if opts.Format == "" {
		opts.Format = "svg"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	paths := make([]string, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, spec := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(opts.Dir, FileName(spec, i, opts.Format))
			vo := opts.Viz
			vo.Frames = nil
			if err := SaveTreeSnapshot(SnapshotOptions{
				Path:      path,
				Format:    opts.Format,
				Spec:      spec,
				Width:     opts.Width,
				Theme:     opts.Theme,
				Viz:       vo,
				Collapsed: opts.Collapsed,
			}); err != nil {
				return fmt.Errorf("%s: %w", spec.Label(), err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
