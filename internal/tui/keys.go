package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"wattsup/internal/diagram"
	"wattsup/internal/editor"
	"wattsup/internal/render"
)

// numberTools maps the digit row to device placement tools in palette
// order: 1 is the outlet, 0 the junction box.
var numberTools = map[string]diagram.ElementType{
	"1": diagram.Outlet,
	"2": diagram.USBOutlet,
	"3": diagram.GFCIOutlet,
	"4": diagram.Switch,
	"5": diagram.ThreeWaySwitch,
	"6": diagram.FourWaySwitch,
	"7": diagram.Light,
	"8": diagram.CeilingFan,
	"9": diagram.SmartSwitch,
	"0": diagram.JunctionBox,
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.Locked() {
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.overlay {
	case overlayHelp:
		switch key {
		case "j", "down":
			if m.helpScroll < m.maxHelpScroll() {
				m.helpScroll++
			}
		case "k", "up":
			if m.helpScroll > 0 {
				m.helpScroll--
			}
		default:
			m.overlay = overlayNone
			m.helpScroll = 0
		}
		return m, nil

	case overlayConfirmClear, overlayConfirmQuit:
		action := m.overlay
		m.overlay = overlayNone
		if key != "y" && key != "Y" && key != "enter" {
			return m, nil
		}
		if action == overlayConfirmQuit {
			return m, tea.Quit
		}
		m.editor.ClearAll()
		m.grabbing = false
		return m, m.setToast("Canvas cleared", false)

	case overlayExport:
		m.overlay = overlayNone
		switch key {
		case "p":
			return m, m.exportCmd(render.PDF)
		case "j":
			return m, m.exportCmd(render.JPEG)
		case "n":
			return m, m.exportCmd(render.PNG)
		case "a":
			return m, m.exportCmd()
		}
		return m, nil
	}

	if key == "ctrl+c" {
		m.overlay = overlayConfirmQuit
		return m, nil
	}

	if _, ok := m.editor.Editing(); ok {
		if msg.Type == tea.KeyRunes {
			// pasted text arrives as one message
			for _, r := range msg.Runes {
				m.editor.HandleKey(editor.KeyEvent{Key: editor.KeyRune, Rune: r})
			}
			return m, nil
		}
		m.editor.HandleKey(editorKey(msg))
		return m, nil
	}

	switch key {
	case "s":
		m.editor.SelectTool(editor.ToolSelect)
	case "w":
		m.editor.SelectTool(editor.ToolWire)
	case "t":
		m.editor.SelectTool(editor.PlaceTool(diagram.Label))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "0":
		m.editor.SelectTool(editor.PlaceTool(numberTools[key]))
	case "esc":
		if m.grabbing {
			m.pointerDrop()
		}
		m.editor.SelectTool(editor.ToolSelect)
		m.showPointer = false

	case "h", "j", "k", "l", "H", "J", "K", "L",
		"left", "right", "up", "down",
		"shift+left", "shift+right", "shift+up", "shift+down":
		m.movePointer(key, pointerSpeed(key))
	case " ", "enter":
		m.pointerClick()
	case "e":
		m.pointerDoubleClick()
	case "m":
		m.pointerGrab()

	case "g":
		m.grid.Toggle()
	case "ctrl+s":
		return m, m.saveCmd()
	case "ctrl+o":
		return m, m.loadCmd()
	case "x":
		m.overlay = overlayExport
	case "y":
		return m, m.copyCmd()
	case "C":
		m.overlay = overlayConfirmClear
	case "q":
		m.overlay = overlayConfirmQuit
	case "?":
		m.overlay = overlayHelp
		m.helpScroll = 0
	}
	return m, nil
}

// editorKey converts a terminal key to a label editing key.
func editorKey(msg tea.KeyMsg) editor.KeyEvent {
	switch msg.Type {
	case tea.KeyEnter:
		return editor.KeyEvent{Key: editor.KeyEnter}
	case tea.KeyEsc:
		return editor.KeyEvent{Key: editor.KeyEscape}
	case tea.KeyBackspace:
		return editor.KeyEvent{Key: editor.KeyBackspace}
	case tea.KeySpace:
		return editor.KeyEvent{Key: editor.KeyRune, Rune: ' '}
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			return editor.KeyEvent{Key: editor.KeyRune, Rune: msg.Runes[0]}
		}
	}
	return editor.KeyEvent{Key: editor.KeyOther}
}
