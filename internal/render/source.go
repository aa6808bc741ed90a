// Package render draws a diagram onto a terminal cell grid or a raster image
// and exports raster captures as PNG, JPEG or PDF files.
package render

import (
	"sync"

	"wattsup/internal/diagram"
)

// Source is the read side of a diagram. Both *diagram.Canvas and
// *editor.Editor satisfy it.
type Source interface {
	GridSize() int
	Elements() []diagram.Element
	Wires() []diagram.Wire
	Resolve(w diagram.Wire) (start, end diagram.Element, ok bool)
}

// Grid holds the visibility of the background grid shared by the live view
// and the exporter. While any capture holds it hidden, Visible reports false;
// the user's own setting comes back once the last capture releases it.
type Grid struct {
	mu      sync.Mutex
	visible bool
	hides   int
}

func NewGrid(visible bool) *Grid {
	return &Grid{visible: visible}
}

func (g *Grid) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible && g.hides == 0
}

func (g *Grid) SetVisible(v bool) {
	g.mu.Lock()
	g.visible = v
	g.mu.Unlock()
}

// Toggle flips the user's setting and returns the new value.
func (g *Grid) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = !g.visible
	return g.visible
}

// Hide switches the grid off and returns a function that releases the hold.
// Holds nest, so overlapping captures restore the grid only when the last one
// finishes. Callers defer the release so that it also runs when the capture
// fails. Calling it more than once has no further effect.
func (g *Grid) Hide() (restore func()) {
	g.mu.Lock()
	g.hides++
	g.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.hides--
			g.mu.Unlock()
		})
	}
}

// bounds returns the bounding box of every element position, ok false when
// there is nothing to draw.
func bounds(elements []diagram.Element) (min, max diagram.Point, ok bool) {
	for i, el := range elements {
		if i == 0 {
			min, max = el.Pos, el.Pos
			continue
		}
		if el.Pos.X < min.X {
			min.X = el.Pos.X
		}
		if el.Pos.Y < min.Y {
			min.Y = el.Pos.Y
		}
		if el.Pos.X > max.X {
			max.X = el.Pos.X
		}
		if el.Pos.Y > max.Y {
			max.Y = el.Pos.Y
		}
	}
	return min, max, len(elements) > 0
}

// displayText is what is drawn under an element. Empty labels that are not
// being edited show their caption as a placeholder.
func displayText(el diagram.Element) (text string, placeholder bool) {
	if el.Label == "" && !el.Editing {
		return el.Type.Caption(), true
	}
	return el.Label, false
}
