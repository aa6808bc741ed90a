package diagram

import (
	"fmt"
	"time"
)

// Snapshot is the persisted form of a canvas. It is always a full copy of
// both stores; there is no partial or merge update.
type Snapshot struct {
	ID        string          `json:"id" bson:"_id"`
	Elements  []ElementRecord `json:"elements" bson:"elements"`
	Wires     []WireRecord    `json:"wires" bson:"wires"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UserID    string          `json:"userId" bson:"userId"`
}

// ElementRecord is the serialized form of an Element.
type ElementRecord struct {
	ID      int64  `json:"id" bson:"id"`
	Type    string `json:"type" bson:"type"`
	X       int    `json:"x" bson:"x"`
	Y       int    `json:"y" bson:"y"`
	Label   string `json:"label" bson:"label"`
	Editing bool   `json:"editing,omitempty" bson:"editing,omitempty"`
}

// WireRecord is the serialized form of a Wire.
type WireRecord struct {
	ID             int64 `json:"id" bson:"id"`
	StartElementID int64 `json:"startElementId" bson:"startElementId"`
	EndElementID   int64 `json:"endElementId" bson:"endElementId"`
}

// Snapshot captures both stores. ID, CreatedAt and UserID are left for the
// persistence layer to fill in.
func (c *Canvas) Snapshot() *Snapshot {
	s := &Snapshot{
		Elements: make([]ElementRecord, 0, len(c.elements)),
		Wires:    make([]WireRecord, 0, len(c.wires)),
	}
	for _, el := range c.elements {
		s.Elements = append(s.Elements, ElementRecord{
			ID:      el.ID,
			Type:    el.Type.String(),
			X:       el.Pos.X,
			Y:       el.Pos.Y,
			Label:   el.Label,
			Editing: el.Editing,
		})
	}
	for _, w := range c.wires {
		s.Wires = append(s.Wires, WireRecord{ID: w.ID, StartElementID: w.Start, EndElementID: w.End})
	}
	return s
}

// Restore rebuilds both stores from s, discarding the current contents.
// Positions are re-snapped and only the last editing element keeps edit mode.
// Wires that reference missing elements are kept; renderers skip them.
func (c *Canvas) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("restore: nil snapshot")
	}

	elements := make([]Element, 0, len(s.Elements))
	index := make(map[int64]int, len(s.Elements))
	var lastID int64
	editing := -1
	for _, rec := range s.Elements {
		t, err := ParseElementType(rec.Type)
		if err != nil {
			return fmt.Errorf("restore element %d: %w", rec.ID, err)
		}
		if _, dup := index[rec.ID]; dup {
			return fmt.Errorf("restore element %d: duplicate id", rec.ID)
		}
		el := Element{
			ID:    rec.ID,
			Type:  t,
			Pos:   SnapPoint(Point{rec.X, rec.Y}, c.gridSize),
			Label: rec.Label,
		}
		if rec.Editing && t == Label {
			editing = len(elements)
		}
		index[el.ID] = len(elements)
		elements = append(elements, el)
		if el.ID > lastID {
			lastID = el.ID
		}
	}
	if editing >= 0 {
		elements[editing].Editing = true
	}

	wires := make([]Wire, 0, len(s.Wires))
	for _, rec := range s.Wires {
		if rec.StartElementID == rec.EndElementID {
			return fmt.Errorf("restore wire %d: endpoints are the same element", rec.ID)
		}
		wires = append(wires, Wire{ID: rec.ID, Start: rec.StartElementID, End: rec.EndElementID})
		if rec.ID > lastID {
			lastID = rec.ID
		}
	}

	c.elements = elements
	c.index = index
	c.wires = wires
	if lastID > c.lastID {
		c.lastID = lastID
	}
	c.notify(Change{Kind: ChangeRestore})
	return nil
}

// FromSnapshot builds a new canvas from s.
func FromSnapshot(s *Snapshot, gridSize int, opts ...Option) (*Canvas, error) {
	c := NewCanvas(gridSize, opts...)
	if err := c.Restore(s); err != nil {
		return nil, err
	}
	return c, nil
}
