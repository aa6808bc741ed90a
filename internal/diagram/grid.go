package diagram

import "math"

// DefaultGridSize is the grid unit in pixels.
const DefaultGridSize = 20

// Snap rounds v to the nearest multiple of grid. Halves round towards
// positive infinity so that snapping matches pointer rounding in both axes.
func Snap(v, grid int) int {
	if grid <= 0 {
		return v
	}
	return int(math.Floor(float64(v)/float64(grid)+0.5)) * grid
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p Point, grid int) Point {
	return Point{X: Snap(p.X, grid), Y: Snap(p.Y, grid)}
}

// Aligned reports whether p lies on the grid.
func Aligned(p Point, grid int) bool {
	if grid <= 0 {
		return true
	}
	return p.X%grid == 0 && p.Y%grid == 0
}
