// Package editor implements the interaction controller of the diagram canvas.
//
// An Editor owns one diagram.Canvas and is the only writer to it. Pointer
// and keyboard events are translated into store mutations according to the
// active tool:
//
//   - a placement tool places one element per background click and stays
//     selected for rapid repeated placement
//   - the select tool drags elements, snapping to the grid on every move
//   - the wire tool arms one element and connects it to the next distinct one
//   - double-clicking a label edits it; Enter, Escape or blur stops editing
//
// Invalid operations (dragging with the wrong tool, wiring an element to
// itself, editing a non-label element) are ignored without error.
package editor

import (
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"wattsup/internal/diagram"
)

// ErrLocked is returned by New when the pro capability is not enabled.
var ErrLocked = errors.New("canvas editor requires a pro subscription")

// Config carries the capabilities and settings an editor is built with.
type Config struct {
	ProEnabled bool
	GridSize   int
	Clock      func() time.Time
	Logger     *log.Logger
}

type dragState struct {
	id     int64
	offset diagram.Point
}

// Editor is a single-threaded diagram editing session.
type Editor struct {
	canvas *diagram.Canvas
	tool   Tool
	logger *log.Logger

	armed    int64
	hasArmed bool
	drag     *dragState

	takeoff     []diagram.TakeoffEntry
	unsubscribe func()
}

// New builds an editor session. It refuses to start without the pro
// capability.
func New(cfg Config) (*Editor, error) {
	if !cfg.ProEnabled {
		return nil, ErrLocked
	}
	var opts []diagram.Option
	if cfg.Clock != nil {
		opts = append(opts, diagram.WithClock(cfg.Clock))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Editor{
		canvas: diagram.NewCanvas(cfg.GridSize, opts...),
		tool:   ToolSelect,
		logger: logger,
	}
	e.unsubscribe = e.canvas.Subscribe(func(diagram.Change) {
		e.takeoff = e.canvas.Takeoff()
	})
	e.takeoff = e.canvas.Takeoff()
	return e, nil
}

// Close detaches the editor from its canvas.
func (e *Editor) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Read access for renderers and persistence.

func (e *Editor) GridSize() int { return e.canvas.GridSize() }
func (e *Editor) Elements() []diagram.Element { return e.canvas.Elements() }
func (e *Editor) Wires() []diagram.Wire { return e.canvas.Wires() }
func (e *Editor) Element(id int64) (diagram.Element, bool) { return e.canvas.Element(id) }
func (e *Editor) Snapshot() *diagram.Snapshot { return e.canvas.Snapshot() }
func (e *Editor) Clone() *diagram.Canvas { return e.canvas.Clone() }

func (e *Editor) Resolve(w diagram.Wire) (diagram.Element, diagram.Element, bool) {
	return e.canvas.Resolve(w)
}

// Takeoff returns the material list derived after the last mutation.
func (e *Editor) Takeoff() []diagram.TakeoffEntry {
	out := make([]diagram.TakeoffEntry, len(e.takeoff))
	copy(out, e.takeoff)
	return out
}

// Subscribe forwards canvas change notifications to fn.
func (e *Editor) Subscribe(fn func(diagram.Change)) func() {
	return e.canvas.Subscribe(fn)
}

// Load replaces the whole canvas with s and resets all transient state.
func (e *Editor) Load(s *diagram.Snapshot) error {
	if err := e.canvas.Restore(s); err != nil {
		return err
	}
	e.disarm()
	e.drag = nil
	return nil
}

func (e *Editor) Tool() Tool { return e.tool }

// SelectTool activates t. Leaving the wire tool cancels a pending wire, and
// any drag or label edit in progress ends because focus moves to the palette.
func (e *Editor) SelectTool(t Tool) {
	if !t.Valid() {
		return
	}
	if e.tool == ToolWire && t != ToolWire {
		e.disarm()
	}
	e.EndDrag()
	e.Blur()
	e.tool = t
}

// State reports the current interaction state.
func (e *Editor) State() State {
	if _, ok := e.canvas.Editing(); ok {
		return StateEditingLabel
	}
	if e.drag != nil {
		return StateDragging
	}
	if e.hasArmed {
		return StateWiringArmed
	}
	if _, ok := e.tool.Placeable(); ok {
		return StatePlacing
	}
	return StateIdle
}

// Armed returns the element waiting for a second wire endpoint.
func (e *Editor) Armed() (int64, bool) { return e.armed, e.hasArmed }

// Dragging returns the element being dragged.
func (e *Editor) Dragging() (int64, bool) {
	if e.drag == nil {
		return 0, false
	}
	return e.drag.id, true
}

// Editing returns the label currently in edit mode.
func (e *Editor) Editing() (diagram.Element, bool) { return e.canvas.Editing() }

// Place creates an element of type t at the grid point nearest to pos.
func (e *Editor) Place(t diagram.ElementType, pos diagram.Point) (diagram.Element, bool) {
	el, ok := e.canvas.Place(t, pos)
	if ok {
		e.logger.Debug("placed element", "id", el.ID, "type", t, "x", el.Pos.X, "y", el.Pos.Y)
	}
	return el, ok
}

// BeginDrag starts dragging element id, remembering where it was grabbed so
// the grab point stays under the pointer.
func (e *Editor) BeginDrag(id int64, pointer diagram.Point) bool {
	if e.tool != ToolSelect {
		e.logger.Debug("ignored drag", "tool", e.tool)
		return false
	}
	el, ok := e.canvas.Element(id)
	if !ok {
		return false
	}
	e.drag = &dragState{id: id, offset: pointer.Sub(el.Pos)}
	return true
}

// UpdateDrag moves the dragged element to the snapped pointer position.
func (e *Editor) UpdateDrag(pointer diagram.Point) bool {
	if e.drag == nil {
		return false
	}
	return e.canvas.SetPosition(e.drag.id, pointer.Sub(e.drag.offset))
}

// EndDrag finishes a drag. The element keeps the last updated position.
func (e *Editor) EndDrag() {
	e.drag = nil
}

// Connect wires two distinct elements together.
func (e *Editor) Connect(a, b int64) (diagram.Wire, bool) {
	w, ok := e.canvas.Connect(a, b)
	if !ok {
		e.logger.Debug("ignored wire", "start", a, "end", b)
		return w, false
	}
	e.logger.Debug("connected", "wire", w.ID, "start", a, "end", b)
	return w, true
}

func (e *Editor) StartEditing(id int64) bool { return e.canvas.StartEditing(id) }

func (e *Editor) StopEditing(id int64) bool { return e.canvas.StopEditing(id) }

func (e *Editor) SetLabelText(id int64, text string) bool { return e.canvas.SetLabelText(id, text) }

// Blur stops editing whichever label has focus.
func (e *Editor) Blur() {
	if el, ok := e.canvas.Editing(); ok {
		e.canvas.StopEditing(el.ID)
	}
}

// ClearAll empties the canvas and resets every transient state.
func (e *Editor) ClearAll() {
	e.disarm()
	e.drag = nil
	e.canvas.ClearAll()
	e.logger.Debug("cleared canvas")
}

func (e *Editor) disarm() {
	e.armed = 0
	e.hasArmed = false
}

// HandlePointer applies one pointer event.
func (e *Editor) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		if el, ok := e.canvas.Editing(); ok && (!ev.OnElement || ev.Element != el.ID) {
			e.canvas.StopEditing(el.ID)
		}
		if !ev.OnElement {
			return
		}
		switch e.tool {
		case ToolSelect:
			e.BeginDrag(ev.Element, ev.Pos)
		case ToolWire:
			e.wireTo(ev.Element)
		}
	case PointerMove:
		e.UpdateDrag(ev.Pos)
	case PointerUp, PointerLeave:
		e.EndDrag()
	case PointerClick:
		// Clicks delivered to an element node are element interactions and
		// never place anything underneath.
		if ev.OnElement {
			return
		}
		if t, ok := e.tool.Placeable(); ok {
			e.Place(t, ev.Pos)
			return
		}
		if e.tool == ToolWire {
			e.disarm()
		}
	case PointerDoubleClick:
		if ev.OnElement {
			e.StartEditing(ev.Element)
		}
	}
}

func (e *Editor) wireTo(id int64) {
	if _, ok := e.canvas.Element(id); !ok {
		return
	}
	if !e.hasArmed {
		e.armed = id
		e.hasArmed = true
		return
	}
	if e.armed == id {
		return
	}
	e.Connect(e.armed, id)
	e.disarm()
}

// HandleKey routes a key to the label being edited. It reports false when
// no label has focus so the caller can treat the key as a shortcut.
func (e *Editor) HandleKey(ev KeyEvent) bool {
	el, ok := e.canvas.Editing()
	if !ok {
		return false
	}
	switch ev.Key {
	case KeyEnter, KeyEscape:
		e.canvas.StopEditing(el.ID)
	case KeyBackspace:
		if el.Label != "" {
			_, size := utf8.DecodeLastRuneInString(el.Label)
			e.canvas.SetLabelText(el.ID, el.Label[:len(el.Label)-size])
		}
	case KeyRune:
		if ev.Rune >= ' ' {
			e.canvas.SetLabelText(el.ID, el.Label+string(ev.Rune))
		}
	}
	return true
}
