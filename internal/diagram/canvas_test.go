package diagram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns the same instant on every call so ID uniqueness relies
// on the bump past the last issued ID.
func fixedClock() func() time.Time {
	t := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t }
}

func TestSnap(t *testing.T) {
	tests := []struct {
		v, grid, want int
	}{
		{23, 20, 20},
		{37, 20, 40},
		{30, 20, 40},
		{29, 20, 20},
		{0, 20, 0},
		{-9, 20, 0},
		{-11, 20, -20},
		{-10, 20, 0},
		{7, 0, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Snap(tt.v, tt.grid), "Snap(%d, %d)", tt.v, tt.grid)
	}
}

func TestPlacedLabelsStartEmpty(t *testing.T) {
	c := NewCanvas(20)
	for _, et := range ElementTypes() {
		el, ok := c.Place(et, Point{})
		require.True(t, ok)
		if et == Label {
			assert.Empty(t, el.Label, "label text starts empty; the caption is only a placeholder")
			continue
		}
		assert.Equal(t, et.Caption(), el.Label, et.String())
	}
}

func TestPlaceSnapsToGrid(t *testing.T) {
	c := NewCanvas(20)
	el, ok := c.Place(Outlet, Point{23, 37})
	require.True(t, ok)
	assert.Equal(t, Point{20, 40}, el.Pos)
	assert.Equal(t, "Outlet", el.Label)
	assert.False(t, el.Editing)

	for x := -45; x < 90; x += 7 {
		for y := -31; y < 90; y += 11 {
			el, ok := c.Place(Light, Point{x, y})
			require.True(t, ok)
			assert.True(t, Aligned(el.Pos, 20), "position %v not aligned", el.Pos)
		}
	}
}

func TestPlaceRejectsUnknownType(t *testing.T) {
	c := NewCanvas(20)
	_, ok := c.Place(ElementType(99), Point{})
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestIDsAreUniqueAndMonotonic(t *testing.T) {
	c := NewCanvas(20, WithClock(fixedClock()))
	var last int64
	for i := 0; i < 50; i++ {
		el, _ := c.Place(Switch, Point{i * 20, 0})
		assert.Greater(t, el.ID, last)
		last = el.ID
	}
}

func TestPlaceLabelEntersEditModeExclusively(t *testing.T) {
	c := NewCanvas(20)
	first, _ := c.Place(Label, Point{0, 0})
	assert.True(t, first.Editing)

	second, _ := c.Place(Label, Point{40, 0})
	assert.True(t, second.Editing)

	got, _ := c.Element(first.ID)
	assert.False(t, got.Editing)

	editing, ok := c.Editing()
	require.True(t, ok)
	assert.Equal(t, second.ID, editing.ID)
}

func TestStartEditingOnlyLabels(t *testing.T) {
	c := NewCanvas(20)
	sw, _ := c.Place(Switch, Point{})
	assert.False(t, c.StartEditing(sw.ID))
	assert.False(t, c.StartEditing(12345))

	a, _ := c.Place(Label, Point{})
	b, _ := c.Place(Label, Point{20, 20})
	require.True(t, c.StartEditing(a.ID))

	editingCount := 0
	for _, el := range c.Elements() {
		if el.Editing {
			editingCount++
			assert.Equal(t, a.ID, el.ID)
		}
	}
	assert.Equal(t, 1, editingCount)
	assert.True(t, c.StopEditing(a.ID))
	assert.False(t, c.StopEditing(b.ID))
	_, ok := c.Editing()
	assert.False(t, ok)
}

func TestSetLabelTextRequiresEditing(t *testing.T) {
	c := NewCanvas(20)
	lbl, _ := c.Place(Label, Point{})
	assert.True(t, c.SetLabelText(lbl.ID, "Kitchen"))
	c.StopEditing(lbl.ID)
	assert.False(t, c.SetLabelText(lbl.ID, "Garage"))

	got, _ := c.Element(lbl.ID)
	assert.Equal(t, "Kitchen", got.Label)
}

func TestConnect(t *testing.T) {
	c := NewCanvas(20)
	a, _ := c.Place(Switch, Point{0, 0})
	b, _ := c.Place(Light, Point{100, 100})

	_, ok := c.Connect(a.ID, a.ID)
	assert.False(t, ok)
	assert.Zero(t, c.WireCount())

	_, ok = c.Connect(a.ID, 42)
	assert.False(t, ok)

	w, ok := c.Connect(a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, a.ID, w.Start)
	assert.Equal(t, b.ID, w.End)
	assert.Equal(t, 1, c.WireCount())
}

func TestResolveTracksCurrentPositions(t *testing.T) {
	c := NewCanvas(20)
	a, _ := c.Place(Switch, Point{0, 0})
	b, _ := c.Place(Light, Point{100, 100})
	w, _ := c.Connect(a.ID, b.ID)

	c.SetPosition(b.ID, Point{203, 197})
	_, end, ok := c.Resolve(w)
	require.True(t, ok)
	assert.Equal(t, Point{200, 200}, end.Pos)

	_, _, ok = c.Resolve(Wire{ID: 1, Start: a.ID, End: 999})
	assert.False(t, ok)
}

func TestClearAll(t *testing.T) {
	c := NewCanvas(20)
	a, _ := c.Place(Switch, Point{0, 0})
	b, _ := c.Place(Label, Point{100, 100})
	c.Connect(a.ID, b.ID)

	c.ClearAll()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.WireCount())
	assert.Empty(t, c.Takeoff())
	_, ok := c.Editing()
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	c := NewCanvas(20)
	var kinds []ChangeKind
	unsubscribe := c.Subscribe(func(ch Change) { kinds = append(kinds, ch.Kind) })

	a, _ := c.Place(Switch, Point{})
	b, _ := c.Place(Light, Point{40, 0})
	c.Connect(a.ID, b.ID)
	c.SetPosition(a.ID, Point{60, 60})
	c.ClearAll()

	assert.Equal(t, []ChangeKind{ChangePlace, ChangePlace, ChangeWire, ChangeMove, ChangeClear}, kinds)

	unsubscribe()
	c.Place(Switch, Point{})
	assert.Len(t, kinds, 5)
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewCanvas(20)
	a, _ := c.Place(Switch, Point{})
	clone := c.Clone()
	c.SetPosition(a.ID, Point{100, 100})

	got, ok := clone.Element(a.ID)
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, got.Pos)
}

func TestBounds(t *testing.T) {
	c := NewCanvas(20)
	_, _, ok := c.Bounds()
	assert.False(t, ok)

	c.Place(Switch, Point{40, 100})
	c.Place(Light, Point{-20, 60})
	c.Place(Outlet, Point{200, 0})
	min, max, ok := c.Bounds()
	require.True(t, ok)
	assert.Equal(t, Point{-20, 0}, min)
	assert.Equal(t, Point{200, 100}, max)
}

func TestParseElementType(t *testing.T) {
	for _, typ := range ElementTypes() {
		got, err := ParseElementType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := ParseElementType(" GFCI-Outlet ")
	require.NoError(t, err)
	assert.Equal(t, GFCIOutlet, got)

	_, err = ParseElementType("toaster")
	assert.Error(t, err)
}
