// Package positions loads node coordinate snapshots for force passes.
package positions

import (
	"context"
	"errors"
	"fmt"

	"github.com/onnwee/repulse/internal/force"
)

// ErrEmptyID is returned when a node has no identifier.
var ErrEmptyID = errors.New("positions: node with empty id")

// Node is one positioned node as it appears in JSON documents.
type Node struct {
	ID  string    `json:"id"`
	Pos force.Vec `json:"pos"`
}

// Document is the JSON layout shared by input files and API requests.
// A two element pos is read as a planar point with z = 0.
type Document struct {
	Nodes        []Node            `json:"nodes"`
	Box          *force.DrawingBox `json:"box,omitempty"`
	GridQuotient int               `json:"grid_quotient,omitempty"`
}

// Snapshot is an immutable set of node positions.
type Snapshot struct {
	IDs          []string
	Positions    map[string]force.Vec
	Box          *force.DrawingBox
	GridQuotient int
}

// Position implements force.PositionLookup.
func (s *Snapshot) Position(id string) force.Vec {
	return s.Positions[id]
}

// Len returns the number of distinct nodes.
func (s *Snapshot) Len() int { return len(s.IDs) }

// Vectors returns positions in IDs order.
func (s *Snapshot) Vectors() []force.Vec {
	out := make([]force.Vec, len(s.IDs))
	for i, id := range s.IDs {
		out[i] = s.Positions[id]
	}
	return out
}

// DrawingBox returns the document box, or one fitted around the nodes as
// seen by an engine running in dims dimensions.
func (s *Snapshot) DrawingBox(padding float64, dims int) force.DrawingBox {
	if s.Box != nil && s.Box.Length > 0 {
		return *s.Box
	}
	pos := s.Vectors()
	for i, p := range pos {
		pos[i] = p.Flatten(dims)
	}
	return force.BoxAround(pos, padding)
}

// Source yields position snapshots.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// FromNodes builds a snapshot. Later duplicates overwrite earlier positions
// but keep the first id order.
func FromNodes(nodes []Node) (*Snapshot, error) {
	s := &Snapshot{
		IDs:       make([]string, 0, len(nodes)),
		Positions: make(map[string]force.Vec, len(nodes)),
	}
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: %w", i, ErrEmptyID)
		}
		if !n.Pos.IsFinite() {
			return nil, fmt.Errorf("node %q: non-finite position", n.ID)
		}
		if _, seen := s.Positions[n.ID]; !seen {
			s.IDs = append(s.IDs, n.ID)
		}
		s.Positions[n.ID] = n.Pos
	}
	return s, nil
}

// FromDocument builds a snapshot carrying the document's box and grid quotient.
func FromDocument(doc Document) (*Snapshot, error) {
	s, err := FromNodes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	s.Box = doc.Box
	s.GridQuotient = doc.GridQuotient
	return s, nil
}
