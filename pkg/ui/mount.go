package ui

import "github.com/vanderheijden86/decisiontree/pkg/render"

// CellPixels is the drawing width given to one terminal column.
const CellPixels = 8

// DefaultColumns is assumed until the first window size arrives.
const DefaultColumns = 120

// termContainer is the terminal window acting as the visualizer container.
// It is shared by every tree of the session.
type termContainer struct {
	cols int
}

func (c *termContainer) Width() float64 {
	cols := c.cols
	if cols <= 0 {
		cols = DefaultColumns
	}
	return float64(cols * CellPixels)
}

// termSurface keeps the last presented scene for the header and the
// clipboard export.
type termSurface struct {
	scene         *render.Scene
	width, height float64
	presents      int
}

func (s *termSurface) Present(sc *render.Scene, w, h float64) {
	s.scene, s.width, s.height = sc, w, h
	s.presents++
}
