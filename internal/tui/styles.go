package tui

import (
	"github.com/charmbracelet/lipgloss"

	"wattsup/internal/render"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim        = lipgloss.NewStyle().Foreground(colorDim)
	styleValue      = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber     = lipgloss.NewStyle().Foreground(colorCyan)
	styleActiveTool = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleToastOK    = lipgloss.NewStyle().Foreground(colorGreen)
	styleToastErr   = lipgloss.NewStyle().Foreground(colorRed)
	styleConfirm    = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleMode       = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	styleLocked = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorYellow).
			Padding(1, 3)
)

// cellStyles maps surface cell kinds to terminal styles.
var cellStyles = map[render.CellKind]lipgloss.Style{
	render.CellEmpty:       lipgloss.NewStyle(),
	render.CellGrid:        lipgloss.NewStyle().Foreground(colorDim),
	render.CellWire:        lipgloss.NewStyle().Foreground(colorGray),
	render.CellSymbol:      lipgloss.NewStyle().Bold(true).Foreground(colorWhite),
	render.CellCaption:     lipgloss.NewStyle().Foreground(colorGray),
	render.CellPlaceholder: lipgloss.NewStyle().Italic(true).Foreground(colorDim),
	render.CellArmed:       lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
	render.CellDragging:    lipgloss.NewStyle().Bold(true).Foreground(colorCyan),
	render.CellEditing:     lipgloss.NewStyle().Underline(true).Foreground(colorWhite),
	render.CellCursor:      lipgloss.NewStyle().Foreground(colorCyan),
	render.CellPointer:     lipgloss.NewStyle().Reverse(true),
}
