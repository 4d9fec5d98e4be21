// Package schema defines the persisted form of a notebook and converts it
// to and from the in-memory graph.
//
// The same records are used by every storage backend: files hold a whole
// Document, while key/value and SQL backends store a Header plus one
// NoteRecord per note.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/nexia/pkg/core"
)

// TimeFormat is the layout of every persisted timestamp.
const TimeFormat = time.RFC3339Nano

// Document is one serialized notebook.
type Document struct {
	Notes map[string]NoteRecord `json:"notes" yaml:"notes"`
	// Backlinks is written for readers of the file; it is recomputed on load.
	Backlinks  map[string][]string `json:"backlinks,omitempty" yaml:"backlinks,omitempty"`
	Name       string              `json:"name" yaml:"name"`
	CreatedAt  string              `json:"created_at" yaml:"created_at"`
	ModifiedAt string              `json:"modified_at" yaml:"modified_at"`
	Acyclic    bool                `json:"acyclic,omitempty" yaml:"acyclic,omitempty"`
}

// Header is the notebook metadata without its notes.
type Header struct {
	Name       string `json:"name"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	Acyclic    bool   `json:"acyclic,omitempty"`
}

// Position is the persisted canvas placement.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NoteRecord is one persisted note. Size is stored as [width, height].
type NoteRecord struct {
	ID         string         `json:"id" yaml:"id"`
	Title      string         `json:"title" yaml:"title"`
	Content    string         `json:"content" yaml:"content"`
	Position   *Position      `json:"position,omitempty" yaml:"position,omitempty"`
	Size       []float64      `json:"size,omitempty" yaml:"size,omitempty,flow"`
	CreatedAt  string         `json:"created_at" yaml:"created_at"`
	ModifiedAt string         `json:"modified_at" yaml:"modified_at"`
	Links      []string       `json:"links,omitempty" yaml:"links,omitempty"`
	Prototype  string         `json:"prototype,omitempty" yaml:"prototype,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// FromNotebook converts a notebook into its persisted form.
func FromNotebook(nb *core.Notebook) Document {
	h := HeaderOf(nb)
	doc := Document{
		Notes:      make(map[string]NoteRecord, nb.Len()),
		Name:       h.Name,
		CreatedAt:  h.CreatedAt,
		ModifiedAt: h.ModifiedAt,
		Acyclic:    h.Acyclic,
	}

	for n := range nb.AllNotes() {
		doc.Notes[n.ID.String()] = FromNote(n)
		for _, target := range n.Links {
			key := target.String()
			if doc.Backlinks == nil {
				doc.Backlinks = make(map[string][]string)
			}
			doc.Backlinks[key] = append(doc.Backlinks[key], n.ID.String())
		}
	}
	for _, sources := range doc.Backlinks {
		slices.Sort(sources)
	}
	return doc
}

// ToNotebook rebuilds a notebook from its persisted form. Stored backlinks
// are ignored; the index is recomputed from the notes' links.
func ToNotebook(doc Document) (*core.Notebook, error) {
	nb, err := HeaderToNotebook(Header{
		Name:       doc.Name,
		CreatedAt:  doc.CreatedAt,
		ModifiedAt: doc.ModifiedAt,
		Acyclic:    doc.Acyclic,
	})
	if err != nil {
		return nil, err
	}

	// Deterministic insertion order.
	keys := make([]string, 0, len(doc.Notes))
	for k := range doc.Notes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	notes := make([]core.Note, 0, len(keys))
	for _, key := range keys {
		rec := doc.Notes[key]
		if rec.ID == "" {
			rec.ID = key
		}
		if rec.ID != key {
			return nil, fmt.Errorf("note %q stored under key %q", rec.ID, key)
		}
		n, err := rec.ToNote()
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return Assemble(nb, notes), nil
}

// HeaderOf extracts the notebook metadata.
func HeaderOf(nb *core.Notebook) Header {
	return Header{
		Name:       nb.Name,
		CreatedAt:  formatTime(nb.CreatedAt),
		ModifiedAt: formatTime(nb.ModifiedAt),
		Acyclic:    nb.Acyclic(),
	}
}

// HeaderToNotebook creates an empty notebook carrying the header metadata.
func HeaderToNotebook(h Header) (*core.Notebook, error) {
	created, err := parseTime("created_at", h.CreatedAt)
	if err != nil {
		return nil, err
	}
	modified, err := parseTime("modified_at", h.ModifiedAt)
	if err != nil {
		return nil, err
	}
	nb := core.NewNotebook(h.Name, core.WithAcyclicLinks(h.Acyclic))
	nb.Name = h.Name
	nb.CreatedAt = created
	nb.ModifiedAt = modified
	return nb, nil
}

// Assemble inserts notes into nb and restores its timestamps afterwards.
func Assemble(nb *core.Notebook, notes []core.Note) *core.Notebook {
	created, modified := nb.CreatedAt, nb.ModifiedAt
	for _, n := range notes {
		nb.AddNote(n)
	}
	nb.CreatedAt = created
	nb.ModifiedAt = modified
	return nb
}

// FromNote converts a note into its persisted form.
func FromNote(n core.Note) NoteRecord {
	rec := NoteRecord{
		ID:         n.ID.String(),
		Title:      n.Title,
		Content:    n.Content,
		CreatedAt:  formatTime(n.CreatedAt),
		ModifiedAt: formatTime(n.ModifiedAt),
	}
	if n.Position != nil {
		rec.Position = &Position{X: n.Position.X, Y: n.Position.Y}
	}
	if n.Size != nil {
		rec.Size = []float64{n.Size.Width, n.Size.Height}
	}
	if n.Prototype != nil {
		rec.Prototype = n.Prototype.String()
	}
	for _, l := range n.Links {
		rec.Links = append(rec.Links, l.String())
	}
	if len(n.Attributes) > 0 {
		rec.Attributes = make(map[string]any, len(n.Attributes))
		for k, v := range n.Attributes {
			rec.Attributes[k] = v.Any()
		}
	}
	return rec
}

// ToNote converts a persisted record back into a note.
func (r NoteRecord) ToNote() (core.Note, error) {
	id, err := core.ParseNoteID(r.ID)
	if err != nil {
		return core.Note{}, err
	}
	n := core.Note{
		ID:      id,
		Title:   r.Title,
		Content: r.Content,
	}
	if n.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return core.Note{}, fmt.Errorf("note %s: %w", r.ID, err)
	}
	if n.ModifiedAt, err = parseTime("modified_at", r.ModifiedAt); err != nil {
		return core.Note{}, fmt.Errorf("note %s: %w", r.ID, err)
	}

	if r.Position != nil {
		n.Position = &core.Point2D{X: r.Position.X, Y: r.Position.Y}
	}
	switch len(r.Size) {
	case 0:
	case 2:
		n.Size = &core.Size{Width: r.Size[0], Height: r.Size[1]}
	default:
		return core.Note{}, fmt.Errorf("note %s: size must have 2 elements, got %d", r.ID, len(r.Size))
	}
	if r.Prototype != "" {
		p, err := core.ParseNoteID(r.Prototype)
		if err != nil {
			return core.Note{}, fmt.Errorf("note %s prototype: %w", r.ID, err)
		}
		n.Prototype = &p
	}
	for _, l := range r.Links {
		target, err := core.ParseNoteID(l)
		if err != nil {
			return core.Note{}, fmt.Errorf("note %s link: %w", r.ID, err)
		}
		n.Links = append(n.Links, target)
	}
	if len(r.Attributes) > 0 {
		n.Attributes = make(map[string]core.Value, len(r.Attributes))
		for k, raw := range r.Attributes {
			v, err := core.FromAny(raw)
			if err != nil {
				return core.Note{}, fmt.Errorf("note %s attribute %q: %w", r.ID, k, err)
			}
			n.Attributes[k] = v
		}
	}
	return n, nil
}

var errMissingTime = errors.New("missing timestamp")

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%s: %w", field, errMissingTime)
	}
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t.UTC(), nil
}
