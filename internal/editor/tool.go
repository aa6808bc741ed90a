package editor

import (
	"fmt"
	"strings"

	"wattsup/internal/diagram"
)

// Tool is the active palette tool. Besides select and wire, every element
// type has its own placement tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolWire
	toolPlaceBase
)

// PlaceTool returns the tool that places elements of type t.
func PlaceTool(t diagram.ElementType) Tool {
	return toolPlaceBase + Tool(t)
}

// Placeable returns the element type placed by t, if any.
func (t Tool) Placeable() (diagram.ElementType, bool) {
	if t < toolPlaceBase {
		return 0, false
	}
	et := diagram.ElementType(t - toolPlaceBase)
	return et, et.Valid()
}

func (t Tool) Valid() bool {
	if t == ToolSelect || t == ToolWire {
		return true
	}
	_, ok := t.Placeable()
	return ok
}

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolWire:
		return "wire"
	}
	if et, ok := t.Placeable(); ok {
		return et.String()
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// Title is the palette caption.
func (t Tool) Title() string {
	switch t {
	case ToolSelect:
		return "Select"
	case ToolWire:
		return "Wire"
	}
	if et, ok := t.Placeable(); ok {
		return et.ItemName()
	}
	return ""
}

// ParseTool accepts "select", "wire" or an element type slug.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "select":
		return ToolSelect, nil
	case "wire":
		return ToolWire, nil
	}
	et, err := diagram.ParseElementType(s)
	if err != nil {
		return 0, fmt.Errorf("unknown tool %q", s)
	}
	return PlaceTool(et), nil
}

// Palette lists the tools in toolbar order.
func Palette() []Tool {
	tools := []Tool{ToolSelect}
	for _, et := range diagram.ElementTypes() {
		if et == diagram.Label {
			continue
		}
		tools = append(tools, PlaceTool(et))
	}
	return append(tools, ToolWire, PlaceTool(diagram.Label))
}
