// Package diagram holds the wiring-diagram model: placed elements, the wires
// between them, grid snapping and the material takeoff derived from both.
package diagram

import (
	"fmt"
	"strings"
)

// ElementType is the closed set of symbols an electrician can place.
type ElementType int

const (
	Outlet ElementType = iota
	USBOutlet
	GFCIOutlet
	Switch
	ThreeWaySwitch
	FourWaySwitch
	Light
	CeilingFan
	SmartSwitch
	JunctionBox
	Label

	numElementTypes = int(Label) + 1
)

// ElementTypes returns every type in enumeration order.
func ElementTypes() []ElementType {
	types := make([]ElementType, numElementTypes)
	for i := range types {
		types[i] = ElementType(i)
	}
	return types
}

func (t ElementType) Valid() bool {
	return t >= Outlet && t <= Label
}

// String returns the slug used in snapshots and on the command line.
func (t ElementType) String() string {
	switch t {
	case Outlet:
		return "outlet"
	case USBOutlet:
		return "usb-outlet"
	case GFCIOutlet:
		return "gfci-outlet"
	case Switch:
		return "switch"
	case ThreeWaySwitch:
		return "3-way-switch"
	case FourWaySwitch:
		return "4-way-switch"
	case Light:
		return "light"
	case CeilingFan:
		return "ceiling-fan"
	case SmartSwitch:
		return "smart-switch"
	case JunctionBox:
		return "junction-box"
	case Label:
		return "label"
	default:
		return fmt.Sprintf("element-type(%d)", int(t))
	}
}

// Caption is the fixed text drawn under a placed symbol. Label elements carry
// user text and show this caption as a placeholder while it is empty.
func (t ElementType) Caption() string {
	switch t {
	case Outlet:
		return "Outlet"
	case USBOutlet:
		return "USB Outlet"
	case GFCIOutlet:
		return "GFCI"
	case Switch:
		return "Switch"
	case ThreeWaySwitch:
		return "3-Way"
	case FourWaySwitch:
		return "4-Way"
	case Light:
		return "Light"
	case CeilingFan:
		return "Fan"
	case SmartSwitch:
		return "Smart Sw"
	case JunctionBox:
		return "J-Box"
	case Label:
		return "Label"
	default:
		return ""
	}
}

// ItemName is the row name used in the takeoff list.
func (t ElementType) ItemName() string {
	switch t {
	case Outlet:
		return "Outlet"
	case USBOutlet:
		return "USB Outlet"
	case GFCIOutlet:
		return "GFCI Outlet"
	case Switch:
		return "Switch"
	case ThreeWaySwitch:
		return "3-Way Switch"
	case FourWaySwitch:
		return "4-Way Switch"
	case Light:
		return "Light"
	case CeilingFan:
		return "Ceiling Fan"
	case SmartSwitch:
		return "Smart Switch"
	case JunctionBox:
		return "Junction Box"
	case Label:
		return "Label"
	default:
		return ""
	}
}

// ParseElementType accepts a slug, case-insensitively.
func ParseElementType(s string) (ElementType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ElementTypes() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

// Point is a position in canvas pixel space.
type Point struct {
	X, Y int
}

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Element is a placed diagram symbol.
type Element struct {
	ID      int64
	Type    ElementType
	Pos     Point
	Label   string
	Editing bool
}

// Wire is an undirected connection between two distinct elements. Wires are
// never mutated once created.
type Wire struct {
	ID    int64
	Start int64
	End   int64
}

// TakeoffEntry is one row of the material takeoff list.
type TakeoffEntry struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}
