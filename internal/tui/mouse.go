package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"wattsup/internal/diagram"
	"wattsup/internal/editor"
	"wattsup/internal/render"
)

// handleMouse turns terminal mouse reports into canvas pointer events. The
// event target is whatever element owns the cell on the rendered surface,
// or the background.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.X < paletteWidth {
		m.clickPalette(msg.Y)
		return
	}

	surf := m.surface()
	col, row := msg.X-paletteWidth, msg.Y
	inside := col >= 0 && col < surf.Cols() && row >= 0 && row < surf.Rows()
	pos := surf.PixelAt(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		m.showPointer = false
		m.grabbing = false
		tgt := hit(surf, col, row)
		m.pressed = true
		m.pressTarget = tgt
		m.inCanvas = true
		m.dispatch(editor.PointerDown, pos, tgt)

	case tea.MouseActionMotion:
		if !inside {
			if m.inCanvas {
				m.inCanvas = false
				m.pressed = false
				m.dispatch(editor.PointerLeave, pos, target{})
			}
			return
		}
		m.inCanvas = true
		if m.pressed {
			m.dispatch(editor.PointerMove, pos, hit(surf, col, row))
		}

	case tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		if !inside {
			return
		}
		tgt := hit(surf, col, row)
		m.dispatch(editor.PointerUp, pos, tgt)
		// A click lands on the press target only when press and release hit
		// the same element; otherwise it bubbles to the canvas.
		if tgt != m.pressTarget {
			tgt = target{}
		}
		m.click(pos, tgt)
	}
}

// click dispatches a click and, when it follows a click on the same target
// within the double-click window, a double-click.
func (m *Model) click(pos diagram.Point, tgt target) {
	m.dispatch(editor.PointerClick, pos, tgt)
	now := m.now()
	if !m.lastClickAt.IsZero() && tgt == m.lastClick && now.Sub(m.lastClickAt) <= doubleClickWindow {
		m.dispatch(editor.PointerDoubleClick, pos, tgt)
		m.lastClickAt = now.Add(-2 * doubleClickWindow)
		return
	}
	m.lastClick = tgt
	m.lastClickAt = now
}

func (m *Model) dispatch(kind editor.PointerKind, pos diagram.Point, tgt target) {
	if tgt.on {
		m.editor.HandlePointer(editor.ElementEvent(kind, pos, tgt.id))
		return
	}
	m.editor.HandlePointer(editor.BackgroundEvent(kind, pos))
}

func (m *Model) clickPalette(row int) {
	tools := editor.Palette()
	i := row - 1
	if i < 0 || i >= len(tools) {
		return
	}
	m.editor.SelectTool(tools[i])
}

func hit(surf *render.Surface, col, row int) target {
	id, ok := surf.HitTest(col, row)
	return target{id: id, on: ok}
}

// Keyboard pointer.

func (m *Model) movePointer(key string, speed int) {
	step := m.editor.GridSize() * speed
	switch key {
	case "h", "left", "H", "shift+left":
		m.pointer.X -= step
	case "l", "right", "L", "shift+right":
		m.pointer.X += step
	case "k", "up", "K", "shift+up":
		m.pointer.Y -= step
	case "j", "down", "J", "shift+down":
		m.pointer.Y += step
	}
	m.showPointer = true
	m.clampPointer()
	if m.grabbing {
		m.editor.HandlePointer(editor.BackgroundEvent(editor.PointerMove, m.pointer))
	}
}

func pointerSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}

func (m *Model) clampPointer() {
	if m.editor == nil {
		return
	}
	cols, rows := m.canvasSize()
	opts := m.termOptions()
	grid := m.editor.GridSize()
	// last grid line still inside the canvas
	maxX := (cols - 1) * opts.CellWidth / grid * grid
	maxY := (rows - 1) * opts.CellHeight / grid * grid
	m.pointer.X = min(max(m.pointer.X, 0), maxX)
	m.pointer.Y = min(max(m.pointer.Y, 0), maxY)
}

func (m *Model) pointerTarget() target {
	surf := m.surface()
	col, row := surf.CellOf(m.pointer)
	return hit(surf, col, row)
}

// pointerClick performs a full press, release and click at the pointer.
func (m *Model) pointerClick() {
	if m.grabbing {
		m.pointerDrop()
		return
	}
	m.showPointer = true
	tgt := m.pointerTarget()
	m.dispatch(editor.PointerDown, m.pointer, tgt)
	m.dispatch(editor.PointerUp, m.pointer, tgt)
	m.dispatch(editor.PointerClick, m.pointer, tgt)
}

func (m *Model) pointerDoubleClick() {
	m.pointerClick()
	m.dispatch(editor.PointerDoubleClick, m.pointer, m.pointerTarget())
}

// pointerGrab starts dragging the element under the pointer, or drops the
// one being carried.
func (m *Model) pointerGrab() {
	if m.grabbing {
		m.pointerDrop()
		return
	}
	m.showPointer = true
	tgt := m.pointerTarget()
	if !tgt.on || m.editor.Tool() != editor.ToolSelect {
		return
	}
	m.dispatch(editor.PointerDown, m.pointer, tgt)
	_, m.grabbing = m.editor.Dragging()
}

func (m *Model) pointerDrop() {
	m.editor.HandlePointer(editor.BackgroundEvent(editor.PointerUp, m.pointer))
	m.grabbing = false
}
