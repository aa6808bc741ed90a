package diagram

import (
	"sort"
	"time"
)

// ChangeKind identifies the store mutation reported to subscribers.
type ChangeKind int

const (
	ChangePlace ChangeKind = iota
	ChangeMove
	ChangeLabel
	ChangeEditing
	ChangeWire
	ChangeClear
	ChangeRestore
)

// Change is delivered to every subscriber after a mutation completes.
type Change struct {
	Kind      ChangeKind
	ElementID int64
	WireID    int64
}

// Canvas is the element store and wire store of one editing session.
//
// It is not safe for concurrent use: every mutation is expected to come from
// the single event loop that owns the session. Use Clone to hand a copy to
// another goroutine.
type Canvas struct {
	gridSize int
	elements []Element
	index    map[int64]int
	wires    []Wire
	lastID   int64
	now      func() time.Time

	observers map[int]func(Change)
	nextObs   int
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithClock replaces the clock used to derive element and wire IDs.
func WithClock(now func() time.Time) Option {
	return func(c *Canvas) { c.now = now }
}

// NewCanvas returns an empty canvas snapping to gridSize pixels. A
// non-positive grid size falls back to DefaultGridSize.
func NewCanvas(gridSize int, opts ...Option) *Canvas {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	c := &Canvas{
		gridSize:  gridSize,
		elements:  make([]Element, 0),
		index:     make(map[int64]int),
		wires:     make([]Wire, 0),
		now:       time.Now,
		observers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Canvas) GridSize() int { return c.gridSize }

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription.
func (c *Canvas) Subscribe(fn func(Change)) func() {
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

func (c *Canvas) notify(ch Change) {
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := c.observers[id]; ok {
			fn(ch)
		}
	}
}

// nextID derives IDs from the creation time in milliseconds, bumping past the
// last issued ID so that two creations in the same millisecond stay unique.
func (c *Canvas) nextID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

// Place creates an element of type t at the grid point nearest to pos. A new
// label element enters edit mode at once and every other element leaves it.
func (c *Canvas) Place(t ElementType, pos Point) (Element, bool) {
	if !t.Valid() {
		return Element{}, false
	}
	el := Element{
		ID:   c.nextID(),
		Type: t,
		Pos:  SnapPoint(pos, c.gridSize),
	}
	if t == Label {
		c.clearEditing()
		el.Editing = true
	} else {
		el.Label = t.Caption()
	}
	c.index[el.ID] = len(c.elements)
	c.elements = append(c.elements, el)
	c.notify(Change{Kind: ChangePlace, ElementID: el.ID})
	return el, true
}

// Element returns the element with the given ID.
func (c *Canvas) Element(id int64) (Element, bool) {
	i, ok := c.index[id]
	if !ok {
		return Element{}, false
	}
	return c.elements[i], true
}

// Elements returns a copy of all elements in placement order.
func (c *Canvas) Elements() []Element {
	out := make([]Element, len(c.elements))
	copy(out, c.elements)
	return out
}

// Wires returns a copy of all wires in creation order.
func (c *Canvas) Wires() []Wire {
	out := make([]Wire, len(c.wires))
	copy(out, c.wires)
	return out
}

func (c *Canvas) Len() int { return len(c.elements) }

func (c *Canvas) WireCount() int { return len(c.wires) }

// SetPosition moves an element to the grid point nearest to pos.
func (c *Canvas) SetPosition(id int64, pos Point) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	snapped := SnapPoint(pos, c.gridSize)
	if c.elements[i].Pos == snapped {
		return true
	}
	c.elements[i].Pos = snapped
	c.notify(Change{Kind: ChangeMove, ElementID: id})
	return true
}

// StartEditing puts a label element into edit mode, forcing any other
// element out of it. Non-label elements are ignored.
func (c *Canvas) StartEditing(id int64) bool {
	i, ok := c.index[id]
	if !ok || c.elements[i].Type != Label {
		return false
	}
	if c.elements[i].Editing {
		return true
	}
	c.clearEditing()
	c.elements[i].Editing = true
	c.notify(Change{Kind: ChangeEditing, ElementID: id})
	return true
}

// StopEditing takes an element out of edit mode.
func (c *Canvas) StopEditing(id int64) bool {
	i, ok := c.index[id]
	if !ok || !c.elements[i].Editing {
		return false
	}
	c.elements[i].Editing = false
	c.notify(Change{Kind: ChangeEditing, ElementID: id})
	return true
}

// Editing returns the element currently in edit mode, if any.
func (c *Canvas) Editing() (Element, bool) {
	for _, el := range c.elements {
		if el.Editing {
			return el, true
		}
	}
	return Element{}, false
}

func (c *Canvas) clearEditing() {
	for i := range c.elements {
		if c.elements[i].Editing {
			c.elements[i].Editing = false
			c.notify(Change{Kind: ChangeEditing, ElementID: c.elements[i].ID})
		}
	}
}

// SetLabelText replaces the text of the element being edited. It is refused
// for any element that is not in edit mode.
func (c *Canvas) SetLabelText(id int64, text string) bool {
	i, ok := c.index[id]
	if !ok || !c.elements[i].Editing {
		return false
	}
	c.elements[i].Label = text
	c.notify(Change{Kind: ChangeLabel, ElementID: id})
	return true
}

// Connect creates a wire between two distinct existing elements.
func (c *Canvas) Connect(a, b int64) (Wire, bool) {
	if a == b {
		return Wire{}, false
	}
	if _, ok := c.index[a]; !ok {
		return Wire{}, false
	}
	if _, ok := c.index[b]; !ok {
		return Wire{}, false
	}
	w := Wire{ID: c.nextID(), Start: a, End: b}
	c.wires = append(c.wires, w)
	c.notify(Change{Kind: ChangeWire, WireID: w.ID})
	return w, true
}

// Resolve looks up both endpoints of w at their current positions. ok is
// false for a dangling wire, which callers must skip.
func (c *Canvas) Resolve(w Wire) (start, end Element, ok bool) {
	start, ok = c.Element(w.Start)
	if !ok {
		return Element{}, Element{}, false
	}
	end, ok = c.Element(w.End)
	if !ok {
		return Element{}, Element{}, false
	}
	return start, end, true
}

// ClearAll empties the element store and the wire store.
func (c *Canvas) ClearAll() {
	c.elements = c.elements[:0]
	c.wires = c.wires[:0]
	c.index = make(map[int64]int)
	c.notify(Change{Kind: ChangeClear})
}

// Takeoff derives the material list from the current stores.
func (c *Canvas) Takeoff() []TakeoffEntry {
	return Takeoff(c.elements, c.wires)
}

// Clone returns an independent copy without subscribers.
func (c *Canvas) Clone() *Canvas {
	out := NewCanvas(c.gridSize, WithClock(c.now))
	out.elements = c.Elements()
	out.wires = c.Wires()
	out.lastID = c.lastID
	for i, el := range out.elements {
		out.index[el.ID] = i
	}
	return out
}

// Bounds returns the smallest rectangle holding every element position.
// ok is false for an empty canvas.
func (c *Canvas) Bounds() (min, max Point, ok bool) {
	for i, el := range c.elements {
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
	return min, max, len(c.elements) > 0
}
