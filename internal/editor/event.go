package editor

import "wattsup/internal/diagram"

// State is the interaction state derived from the tool and transient
// drag/wire/edit state.
type State int

const (
	StateIdle State = iota
	StatePlacing
	StateDragging
	StateWiringArmed
	StateEditingLabel
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePlacing:
		return "PLACE"
	case StateDragging:
		return "DRAG"
	case StateWiringArmed:
		return "WIRE"
	case StateEditingLabel:
		return "EDIT"
	default:
		return "UNKNOWN"
	}
}

type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerClick
	PointerDoubleClick
)

// PointerEvent is a pointer action in canvas pixel space. The target is the
// node the event was delivered to: an element, or the canvas background.
type PointerEvent struct {
	Kind      PointerKind
	Pos       diagram.Point
	Element   int64
	OnElement bool
}

// BackgroundEvent builds an event whose target is the canvas background.
func BackgroundEvent(kind PointerKind, pos diagram.Point) PointerEvent {
	return PointerEvent{Kind: kind, Pos: pos}
}

// ElementEvent builds an event whose target is the element with the given ID.
func ElementEvent(kind PointerKind, pos diagram.Point, id int64) PointerEvent {
	return PointerEvent{Kind: kind, Pos: pos, Element: id, OnElement: true}
}

type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyOther
)

type KeyEvent struct {
	Key  Key
	Rune rune
}
