package core

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// NoteID is the unique identifier of a note.
type NoteID = uuid.UUID

// NewNoteID returns a fresh random identifier.
func NewNoteID() NoteID {
	return uuid.New()
}

// ParseNoteID converts a textual identifier into a NoteID.
// Malformed input yields an error matching ErrInvalidNoteID.
func ParseNoteID(s string) (NoteID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidNoteID, s)
	}
	return id, nil
}

// Point2D is a position on the spatial canvas.
type Point2D struct {
	X float64
	Y float64
}

// Size is the width/height of a note on the canvas.
type Size struct {
	Width  float64
	Height float64
}

// now is swapped in tests to drive timestamps deterministically.
var now = func() time.Time {
	return time.Now().UTC()
}

// Note is the central entity of the domain.
// It represents a piece of knowledge identified by an ID and connected to
// other notes through outgoing links.
type Note struct {
	ID      NoteID
	Title   string
	Content string

	// Position is nil when the note has not been placed on the canvas yet.
	Position *Point2D
	Size     *Size

	CreatedAt  time.Time
	ModifiedAt time.Time

	// Links holds outgoing edges in first-insertion order. Use AddLink and
	// RemoveLink to keep it free of duplicates and self references.
	Links []NoteID

	// Prototype is stored and round-tripped only; nothing resolves it yet.
	Prototype *NoteID

	Attributes map[string]Value
}

// NewNote creates a note with a fresh ID and both timestamps set to now.
func NewNote(title string) Note {
	ts := now()
	return Note{
		ID:         NewNoteID(),
		Title:      title,
		CreatedAt:  ts,
		ModifiedAt: ts,
	}
}

// WithPosition places the note on the canvas.
func (n Note) WithPosition(x, y float64) Note {
	n.Position = &Point2D{X: x, Y: y}
	return n
}

// Touch advances ModifiedAt to the current time. It never moves it backwards.
func (n *Note) Touch() {
	ts := now()
	if ts.Before(n.ModifiedAt) {
		return
	}
	n.ModifiedAt = ts
}

// AddLink appends target to the outgoing links.
// Self links and already present targets are ignored.
func (n *Note) AddLink(target NoteID) {
	if target == n.ID || n.LinksTo(target) {
		return
	}
	n.Links = append(n.Links, target)
	n.Touch()
}

// RemoveLink drops target from the outgoing links and reports whether it was present.
func (n *Note) RemoveLink(target NoteID) bool {
	i := slices.Index(n.Links, target)
	if i < 0 {
		return false
	}
	n.Links = slices.Delete(n.Links, i, i+1)
	n.Touch()
	return true
}

// LinksTo reports whether the note has an outgoing link to target.
func (n *Note) LinksTo(target NoteID) bool {
	return slices.Contains(n.Links, target)
}

// SetAttribute inserts or overwrites an attribute.
func (n *Note) SetAttribute(key string, value Value) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]Value)
	}
	n.Attributes[key] = value
	n.Touch()
}

// Attribute looks up an attribute by key.
func (n *Note) Attribute(key string) (Value, bool) {
	v, ok := n.Attributes[key]
	return v, ok
}

// DeleteAttribute removes an attribute and reports whether it existed.
func (n *Note) DeleteAttribute(key string) bool {
	if _, ok := n.Attributes[key]; !ok {
		return false
	}
	delete(n.Attributes, key)
	n.Touch()
	return true
}

// SetTitle renames the note.
func (n *Note) SetTitle(title string) {
	n.Title = title
	n.Touch()
}

// SetContent replaces the note body.
func (n *Note) SetContent(content string) {
	n.Content = content
	n.Touch()
}

// SetPosition places the note, or clears its placement when p is nil.
func (n *Note) SetPosition(p *Point2D) {
	n.Position = clonePtr(p)
	n.Touch()
}

// SetSize resizes the note, or clears its size when s is nil.
func (n *Note) SetSize(s *Size) {
	n.Size = clonePtr(s)
	n.Touch()
}

// SetPrototype sets the inheritance source, or clears it when id is nil.
func (n *Note) SetPrototype(id *NoteID) {
	n.Prototype = clonePtr(id)
	n.Touch()
}

// Clone returns a deep copy that shares no memory with n.
func (n Note) Clone() Note {
	c := n
	c.Position = clonePtr(n.Position)
	c.Size = clonePtr(n.Size)
	c.Prototype = clonePtr(n.Prototype)
	c.Links = slices.Clone(n.Links)
	if n.Attributes != nil {
		c.Attributes = make(map[string]Value, len(n.Attributes))
		for k, v := range n.Attributes {
			c.Attributes[k] = v.Clone()
		}
	}
	return c
}

// Equal reports whether two notes hold the same data.
// Timestamps are compared as instants and attribute values deeply.
func (n Note) Equal(o Note) bool {
	if n.ID != o.ID || n.Title != o.Title || n.Content != o.Content {
		return false
	}
	if !ptrEqual(n.Position, o.Position) || !ptrEqual(n.Size, o.Size) || !ptrEqual(n.Prototype, o.Prototype) {
		return false
	}
	if !n.CreatedAt.Equal(o.CreatedAt) || !n.ModifiedAt.Equal(o.ModifiedAt) {
		return false
	}
	if !slices.Equal(n.Links, o.Links) {
		return false
	}
	return maps.EqualFunc(n.Attributes, o.Attributes, Value.Equal)
}

// sanitizeLinks drops self references and duplicates, keeping first occurrences.
func (n *Note) sanitizeLinks() {
	if len(n.Links) == 0 {
		n.Links = nil
		return
	}
	seen := make(map[NoteID]struct{}, len(n.Links))
	out := n.Links[:0]
	for _, id := range n.Links {
		if id == n.ID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	n.Links = out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
