package core

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultNotebookName is used when a notebook is created without a name.
const DefaultNotebookName = "Untitled Notebook"

// Notebook owns every note of a session and a reverse-link index that always
// mirrors the notes' outgoing links.
//
// A Notebook is not safe for concurrent use. Hosts sharing one across
// goroutines must guard it themselves (see Service).
type Notebook struct {
	notes map[NoteID]*Note
	// backlinks[T] is the set of notes whose Links contain T.
	// Empty sets are never retained.
	backlinks map[NoteID]map[NoteID]struct{}
	acyclic   bool

	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NotebookOption configures a Notebook at construction time.
type NotebookOption func(*Notebook)

// WithAcyclicLinks makes LinkNotes and UpdateNote reject edges that would
// close a cycle, returning ErrCircularLink. By default cycles are allowed.
func WithAcyclicLinks(enabled bool) NotebookOption {
	return func(nb *Notebook) {
		nb.acyclic = enabled
	}
}

// NewNotebook creates an empty notebook.
func NewNotebook(name string, opts ...NotebookOption) *Notebook {
	if name == "" {
		name = DefaultNotebookName
	}
	ts := now()
	nb := &Notebook{
		notes:      make(map[NoteID]*Note),
		backlinks:  make(map[NoteID]map[NoteID]struct{}),
		Name:       name,
		CreatedAt:  ts,
		ModifiedAt: ts,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Acyclic reports whether the notebook rejects cyclic links.
func (nb *Notebook) Acyclic() bool {
	return nb.acyclic
}

func (nb *Notebook) Len() int {
	return len(nb.notes)
}

func (nb *Notebook) IsEmpty() bool {
	return len(nb.notes) == 0
}

// Rename changes the notebook name.
func (nb *Notebook) Rename(name string) {
	nb.Name = name
	nb.touch()
}

// CreateNote builds a new note with the given title, inserts it and returns its ID.
func (nb *Notebook) CreateNote(title string) NoteID {
	return nb.AddNote(NewNote(title))
}

// AddNote inserts a caller-built note as-is and returns its ID.
// Links the note already holds are indexed immediately, including links to
// notes that are not (yet) part of the notebook. Self references and
// duplicate links are dropped. Adding a note whose ID is already present
// replaces the stored note; links pointing at that ID from other notes are
// kept.
func (nb *Notebook) AddNote(note Note) NoteID {
	n := note.Clone()
	n.sanitizeLinks()

	if old, ok := nb.notes[n.ID]; ok {
		nb.unindex(old)
	}
	nb.notes[n.ID] = &n
	nb.index(&n)
	nb.touch()
	return n.ID
}

// GetNote returns a detached copy of the note. Changes to the copy do not
// affect the notebook; use UpdateNote for that.
func (nb *Notebook) GetNote(id NoteID) (Note, bool) {
	n, ok := nb.notes[id]
	if !ok {
		return Note{}, false
	}
	return n.Clone(), true
}

// Contains reports whether a note with the given ID exists.
func (nb *Notebook) Contains(id NoteID) bool {
	_, ok := nb.notes[id]
	return ok
}

// UpdateNote gives fn mutable access to a note and advances the notebook's
// ModifiedAt.
//
// Whatever fn does to the note's links is reflected in the backlink index
// once it returns. The ID and CreatedAt cannot be changed and ModifiedAt
// never moves backwards. If the notebook is acyclic and the edit adds a link
// that would close a cycle, the edit is discarded and ErrCircularLink is
// returned.
func (nb *Notebook) UpdateNote(id NoteID, fn func(n *Note)) error {
	n, ok := nb.notes[id]
	if !ok {
		return noteNotFound(id)
	}

	edited := n.Clone()
	fn(&edited)

	edited.ID = n.ID
	edited.CreatedAt = n.CreatedAt
	edited.sanitizeLinks()
	if !slices.Equal(edited.Links, n.Links) {
		edited.Touch()
	}
	if edited.ModifiedAt.Before(n.ModifiedAt) {
		edited.ModifiedAt = n.ModifiedAt
	}

	if nb.acyclic {
		for _, target := range edited.Links {
			if !n.LinksTo(target) && nb.reachable(target, id) {
				return fmt.Errorf("%w: %s -> %s", ErrCircularLink, id, target)
			}
		}
	}

	nb.unindex(n)
	*n = edited
	nb.index(n)
	nb.touch()
	return nil
}

// RemoveNote deletes a note and purges every reference to it: its entries
// in other notes' backlink sets, the links other notes hold to it, and its
// own backlink set.
func (nb *Notebook) RemoveNote(id NoteID) (Note, bool) {
	n, ok := nb.notes[id]
	if !ok {
		return Note{}, false
	}
	delete(nb.notes, id)

	// Outgoing side.
	nb.unindex(n)

	// Incoming side.
	for source := range nb.backlinks[id] {
		if src, ok := nb.notes[source]; ok {
			src.RemoveLink(id)
		}
	}
	delete(nb.backlinks, id)

	nb.touch()
	return *n, true
}

// LinkNotes creates a link from -> to. Both notes must exist.
// Linking twice, or linking a note to itself, is a no-op.
func (nb *Notebook) LinkNotes(from, to NoteID) error {
	src, ok := nb.notes[from]
	if !ok {
		return noteNotFound(from)
	}
	if _, ok := nb.notes[to]; !ok {
		return noteNotFound(to)
	}
	if from == to {
		return nil
	}

	if nb.acyclic && !src.LinksTo(to) && nb.reachable(to, from) {
		return fmt.Errorf("%w: %s -> %s", ErrCircularLink, from, to)
	}

	src.AddLink(to)
	nb.addBacklink(to, from)
	nb.touch()
	return nil
}

// UnlinkNotes removes the link from -> to. Only from must exist, so that
// dangling links can always be removed.
func (nb *Notebook) UnlinkNotes(from, to NoteID) error {
	src, ok := nb.notes[from]
	if !ok {
		return noteNotFound(from)
	}
	src.RemoveLink(to)
	nb.removeBacklink(to, from)
	nb.touch()
	return nil
}

// Backlinks returns the IDs of the notes currently linking to id, sorted for
// stable output.
func (nb *Notebook) Backlinks(id NoteID) []NoteID {
	set := nb.backlinks[id]
	if len(set) == 0 {
		return nil
	}
	ids := slices.Collect(maps.Keys(set))
	slices.SortFunc(ids, compareIDs)
	return ids
}

// AllNotes iterates over detached copies of every note, in no particular order.
func (nb *Notebook) AllNotes() iter.Seq[Note] {
	return func(yield func(Note) bool) {
		for _, n := range nb.notes {
			if !yield(n.Clone()) {
				return
			}
		}
	}
}

// AllNoteIDs iterates over every note ID, in no particular order.
func (nb *Notebook) AllNoteIDs() iter.Seq[NoteID] {
	return maps.Keys(nb.notes)
}

// SearchByTitle returns the notes whose title contains query, ignoring case.
func (nb *Notebook) SearchByTitle(query string) []Note {
	q := strings.ToLower(query)
	return nb.filter(func(n *Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q)
	})
}

// SearchByContent returns the notes whose content contains query, ignoring case.
func (nb *Notebook) SearchByContent(query string) []Note {
	q := strings.ToLower(query)
	return nb.filter(func(n *Note) bool {
		return strings.Contains(strings.ToLower(n.Content), q)
	})
}

// Search returns the notes whose title or content contains query, ignoring case.
// An empty query matches every note.
func (nb *Notebook) Search(query string) []Note {
	q := strings.ToLower(query)
	return nb.filter(func(n *Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	})
}

// Clone returns a deep copy of the notebook.
func (nb *Notebook) Clone() *Notebook {
	c := &Notebook{
		notes:      make(map[NoteID]*Note, len(nb.notes)),
		backlinks:  make(map[NoteID]map[NoteID]struct{}, len(nb.backlinks)),
		acyclic:    nb.acyclic,
		Name:       nb.Name,
		CreatedAt:  nb.CreatedAt,
		ModifiedAt: nb.ModifiedAt,
	}
	for id, n := range nb.notes {
		cp := n.Clone()
		c.notes[id] = &cp
	}
	for id, set := range nb.backlinks {
		c.backlinks[id] = maps.Clone(set)
	}
	return c
}

// CheckIntegrity verifies that the backlink index exactly mirrors the
// notes' links and that no note links to itself or twice to the same target.
func (nb *Notebook) CheckIntegrity() error {
	expected := make(map[NoteID]map[NoteID]struct{})
	for id, n := range nb.notes {
		seen := make(map[NoteID]struct{}, len(n.Links))
		for _, target := range n.Links {
			if target == id {
				return fmt.Errorf("note %s links to itself", id)
			}
			if _, dup := seen[target]; dup {
				return fmt.Errorf("note %s links twice to %s", id, target)
			}
			seen[target] = struct{}{}
			if expected[target] == nil {
				expected[target] = make(map[NoteID]struct{})
			}
			expected[target][id] = struct{}{}
		}
	}
	for target, set := range nb.backlinks {
		if len(set) == 0 {
			return fmt.Errorf("empty backlink set retained for %s", target)
		}
		for source := range set {
			if _, ok := expected[target][source]; !ok {
				return fmt.Errorf("stale backlink %s -> %s", source, target)
			}
		}
	}
	for target, set := range expected {
		for source := range set {
			if _, ok := nb.backlinks[target][source]; !ok {
				return fmt.Errorf("missing backlink %s -> %s", source, target)
			}
		}
	}
	return nil
}

func (nb *Notebook) touch() {
	ts := now()
	if ts.Before(nb.ModifiedAt) {
		return
	}
	nb.ModifiedAt = ts
}

func (nb *Notebook) index(n *Note) {
	for _, target := range n.Links {
		nb.addBacklink(target, n.ID)
	}
}

func (nb *Notebook) unindex(n *Note) {
	for _, target := range n.Links {
		nb.removeBacklink(target, n.ID)
	}
}

func (nb *Notebook) addBacklink(target, source NoteID) {
	set, ok := nb.backlinks[target]
	if !ok {
		set = make(map[NoteID]struct{})
		nb.backlinks[target] = set
	}
	set[source] = struct{}{}
}

func (nb *Notebook) removeBacklink(target, source NoteID) {
	set, ok := nb.backlinks[target]
	if !ok {
		return
	}
	delete(set, source)
	if len(set) == 0 {
		delete(nb.backlinks, target)
	}
}

// reachable reports whether goal can be reached from start by following links.
func (nb *Notebook) reachable(start, goal NoteID) bool {
	visited := map[NoteID]struct{}{start: {}}
	queue := []NoteID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == goal {
			return true
		}
		n, ok := nb.notes[id]
		if !ok {
			continue
		}
		for _, next := range n.Links {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

func (nb *Notebook) filter(match func(*Note) bool) []Note {
	var out []Note
	for _, n := range nb.notes {
		if match(n) {
			out = append(out, n.Clone())
		}
	}
	SortNotes(out)
	return out
}

// SortNotes orders notes by creation time, then by ID.
func SortNotes(notes []Note) {
	slices.SortFunc(notes, func(a, b Note) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
}

func compareIDs(a, b NoteID) int {
	return cmp.Compare(a.String(), b.String())
}
