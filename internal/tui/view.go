package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wattsup/internal/diagram"
	"wattsup/internal/editor"
)

var helpLines = []string{
	"WattsUp Canvas Help",
	"===================",
	"",
	"Tools:",
	"------",
	"  s                Select and drag elements",
	"  1-9, 0           Outlet, USB, GFCI, switch, 3-way, 4-way, light, fan, smart switch, j-box",
	"  w                Wire: click one element, then another",
	"  t                Text label (starts in edit mode)",
	"  Esc              Back to select",
	"",
	"Mouse:",
	"------",
	"  Click palette    Choose a tool",
	"  Click canvas     Place the active device (tool stays selected)",
	"  Drag element     Move it, snapped to the grid",
	"  Double-click     Edit a label",
	"",
	"Keyboard pointer:",
	"-----------------",
	"  h/←/j/↓/k/↑/l/→  Move the pointer one grid step",
	"  Shift+h/j/k/l    Move two grid steps",
	"  Space/Enter      Click at the pointer",
	"  e                Double-click at the pointer",
	"  m                Pick up / drop the element under the pointer",
	"",
	"Editing a label:",
	"----------------",
	"  Type             Append text",
	"  Backspace        Delete the last character",
	"  Enter/Esc        Stop editing",
	"",
	"Canvas:",
	"-------",
	"  g                Toggle the grid",
	"  Ctrl+S           Save",
	"  Ctrl+O           Load the last save",
	"  x                Export (PDF, JPEG, PNG)",
	"  y                Copy the takeoff list",
	"  C                Clear everything",
	"  ?                Toggle this help screen",
	"  q/Ctrl+C         Quit",
}

func (m Model) maxHelpScroll() int {
	visible := max(m.height-1, 1)
	return max(len(helpLines)-visible, 0)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.Locked() {
		return m.lockedView()
	}
	if m.overlay == overlayHelp {
		return m.helpView()
	}

	_, rows := m.canvasSize()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.paletteView(rows),
		m.canvasView(),
		m.takeoffView(rows),
	)
	return body + "\n" + m.statusLine()
}

func (m Model) lockedView() string {
	box := styleLocked.Render(strings.Join([]string{
		styleTitle.Render("WattsUp Pro"),
		"",
		"The wiring diagram canvas is part of the Pro plan.",
		styleDim.Render("Set pro = true in config.toml to unlock it."),
		"",
		styleDim.Render("q to quit"),
	}, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) helpView() string {
	visible := max(m.height-1, 1)
	end := min(m.helpScroll+visible, len(helpLines))
	lines := helpLines[m.helpScroll:end]
	return strings.Join(lines, "\n") + "\n" + styleDim.Render("j/k scroll, any other key closes")
}

func toolShortcut(t editor.Tool) string {
	switch t {
	case editor.ToolSelect:
		return "s"
	case editor.ToolWire:
		return "w"
	}
	et, _ := t.Placeable()
	if et == diagram.Label {
		return "t"
	}
	for k, v := range numberTools {
		if v == et {
			return k
		}
	}
	return " "
}

func (m Model) paletteView(rows int) string {
	cell := lipgloss.NewStyle().Width(paletteWidth).MaxWidth(paletteWidth)
	lines := make([]string, 0, rows)
	lines = append(lines, cell.Render(styleTitle.Render("Tools")))
	active := m.editor.Tool()
	for _, t := range editor.Palette() {
		text := fmt.Sprintf("%s %s", toolShortcut(t), t.Title())
		if t == active {
			text = styleActiveTool.Render("> " + text)
		} else {
			text = "  " + styleValue.Render(text)
		}
		lines = append(lines, cell.Render(text))
	}
	for len(lines) < rows {
		lines = append(lines, cell.Render(""))
	}
	return strings.Join(lines[:rows], "\n")
}

func (m Model) canvasView() string {
	surf := m.surface()
	lines := make([]string, surf.Rows())
	for row := range lines {
		var b strings.Builder
		for _, span := range surf.Spans(row) {
			b.WriteString(cellStyles[span.Kind].Render(span.Text))
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (m Model) takeoffView(rows int) string {
	cell := lipgloss.NewStyle().Width(takeoffWidth).MaxWidth(takeoffWidth).PaddingLeft(1)
	lines := make([]string, 0, rows)
	lines = append(lines, cell.Render(styleTitle.Render("Takeoff")))
	entries := m.editor.Takeoff()
	if len(entries) == 0 {
		lines = append(lines, cell.Render(styleDim.Render("nothing placed")))
	}
	for _, e := range entries {
		name := fmt.Sprintf("%-*.*s", takeoffWidth-6, takeoffWidth-6, e.Item)
		lines = append(lines, cell.Render(styleValue.Render(name)+" "+styleNumber.Render(fmt.Sprint(e.Quantity))))
	}
	for len(lines) < rows {
		lines = append(lines, cell.Render(""))
	}
	return strings.Join(lines[:rows], "\n")
}

func (m Model) statusLine() string {
	switch m.overlay {
	case overlayConfirmClear:
		return styleConfirm.Render("Clear the whole canvas? (y/n)")
	case overlayConfirmQuit:
		return styleConfirm.Render("Quit WattsUp? (y/n)")
	case overlayExport:
		return styleConfirm.Render("Export: p=PDF  j=JPEG  n=PNG  a=all  (any other key cancels)")
	}

	parts := []string{
		styleMode.Render("Mode: " + m.editor.State().String()),
		"Tool: " + m.editor.Tool().Title(),
	}
	if id, ok := m.editor.Armed(); ok {
		parts = append(parts, fmt.Sprintf("Wire from #%d", id))
	}
	if el, ok := m.editor.Editing(); ok {
		parts = append(parts, fmt.Sprintf("Label #%d: Enter/Esc to finish", el.ID))
	}
	if m.showPointer {
		parts = append(parts, fmt.Sprintf("Pointer: (%d,%d)", m.pointer.X, m.pointer.Y))
	}
	if m.toast != "" {
		if m.toastErr {
			parts = append(parts, styleToastErr.Render(m.toast))
		} else {
			parts = append(parts, styleToastOK.Render(m.toast))
		}
	}
	parts = append(parts, styleDim.Render("? help"))
	return strings.Join(parts, " | ")
}
