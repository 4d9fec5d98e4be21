package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/nexia/pkg/mentions"
)

// SearchScope selects which note fields Search looks at.
type SearchScope int

const (
	ScopeAll SearchScope = iota
	ScopeTitle
	ScopeContent
)

func (s SearchScope) String() string {
	switch s {
	case ScopeTitle:
		return "title"
	case ScopeContent:
		return "content"
	default:
		return "all"
	}
}

// ParseSearchScope converts "all", "title" or "content" into a SearchScope.
func ParseSearchScope(s string) (SearchScope, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return ScopeAll, nil
	case "title":
		return ScopeTitle, nil
	case "content":
		return ScopeContent, nil
	}
	return ScopeAll, fmt.Errorf("unknown search scope %q", s)
}

// NotebookInfo summarizes the notebook held by a Service.
type NotebookInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path,omitempty"`
	Notes      int       `json:"notes"`
	Acyclic    bool      `json:"acyclic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Service is the host-facing API over a single Notebook.
// It accepts textual note IDs, guards the notebook with a RWMutex and
// remembers where the notebook was last saved or loaded.
type Service struct {
	mu sync.RWMutex

	nb      *Notebook
	storage Storage
	path    string

	readOnly     bool
	notebookOpts []NotebookOption
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServiceReadOnly rejects every mutating call with ErrReadOnly.
func WithServiceReadOnly(readOnly bool) ServiceOption {
	return func(s *Service) {
		s.readOnly = readOnly
	}
}

// WithServicePath sets the remembered destination used by Save("") and Reload.
func WithServicePath(path string) ServiceOption {
	return func(s *Service) {
		s.path = path
	}
}

// WithNotebook makes the service start from an existing notebook.
func WithNotebook(nb *Notebook) ServiceOption {
	return func(s *Service) {
		if nb != nil {
			s.nb = nb
		}
	}
}

// WithNotebookOptions applies opts to every notebook the service creates.
func WithNotebookOptions(opts ...NotebookOption) ServiceOption {
	return func(s *Service) {
		s.notebookOpts = append(s.notebookOpts, opts...)
	}
}

// NewService creates a Service persisting through storage.
// A nil storage gives an in-memory service whose Save and Load fail with ErrUnsupported.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nb == nil {
		s.nb = NewNotebook("", s.notebookOpts...)
	}
	return s
}

// ReadOnly reports whether the service rejects mutations.
func (s *Service) ReadOnly() bool {
	return s.readOnly
}

// Path returns the remembered destination, or "" if there is none.
func (s *Service) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Snapshot returns a detached deep copy of the current notebook.
func (s *Service) Snapshot() *Notebook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nb.Clone()
}

// Info summarizes the current notebook.
func (s *Service) Info(ctx context.Context) NotebookInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NotebookInfo{
		Name:       s.nb.Name,
		Path:       s.path,
		Notes:      s.nb.Len(),
		Acyclic:    s.nb.Acyclic(),
		CreatedAt:  s.nb.CreatedAt,
		ModifiedAt: s.nb.ModifiedAt,
	}
}

// NewNotebook replaces the current notebook with an empty one and forgets
// the remembered path.
func (s *Service) NewNotebook(ctx context.Context, name string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nb = NewNotebook(name, s.notebookOpts...)
	s.path = ""
	s.logger.Info("notebook created", "name", s.nb.Name)
	return nil
}

// RenameNotebook changes the notebook name.
func (s *Service) RenameNotebook(ctx context.Context, name string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nb.Rename(name)
	return nil
}

// CreateNote adds a new note with the given title.
func (s *Service) CreateNote(ctx context.Context, title string) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nb.CreateNote(title)
	n, _ := s.nb.GetNote(id)
	s.logger.Debug("note created", "id", id, "title", title)
	return n, nil
}

// GetNote returns a copy of the note.
func (s *Service) GetNote(ctx context.Context, id string) (Note, error) {
	nid, err := ParseNoteID(id)
	if err != nil {
		return Note{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nb.GetNote(nid)
	if !ok {
		return Note{}, noteNotFound(nid)
	}
	return n, nil
}

// ListNotes returns every note ordered by creation time, then ID.
func (s *Service) ListNotes(ctx context.Context) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]Note, 0, s.nb.Len())
	for n := range s.nb.AllNotes() {
		notes = append(notes, n)
	}
	SortNotes(notes)
	return notes
}

func (s *Service) UpdateTitle(ctx context.Context, id, title string) (Note, error) {
	return s.update(ctx, "update_title", id, func(n *Note) {
		n.SetTitle(title)
	})
}

func (s *Service) UpdateContent(ctx context.Context, id, content string) (Note, error) {
	return s.update(ctx, "update_content", id, func(n *Note) {
		n.SetContent(content)
	})
}

// SetPosition places the note on the canvas; nil clears the placement.
func (s *Service) SetPosition(ctx context.Context, id string, p *Point2D) (Note, error) {
	return s.update(ctx, "set_position", id, func(n *Note) {
		n.SetPosition(p)
	})
}

// SetSize sets the note size; nil clears it.
func (s *Service) SetSize(ctx context.Context, id string, size *Size) (Note, error) {
	return s.update(ctx, "set_size", id, func(n *Note) {
		n.SetSize(size)
	})
}

// SetPrototype sets the note prototype; an empty prototype clears it.
func (s *Service) SetPrototype(ctx context.Context, id, prototype string) (Note, error) {
	var proto *NoteID
	if prototype != "" {
		pid, err := ParseNoteID(prototype)
		if err != nil {
			return Note{}, err
		}
		proto = &pid
	}
	return s.update(ctx, "set_prototype", id, func(n *Note) {
		n.SetPrototype(proto)
	})
}

func (s *Service) SetAttribute(ctx context.Context, id, key string, value Value) (Note, error) {
	return s.update(ctx, "set_attribute", id, func(n *Note) {
		n.SetAttribute(key, value)
	})
}

func (s *Service) DeleteAttribute(ctx context.Context, id, key string) (Note, error) {
	return s.update(ctx, "delete_attribute", id, func(n *Note) {
		n.DeleteAttribute(key)
	})
}

// Attribute looks up a single attribute of a note.
func (s *Service) Attribute(ctx context.Context, id, key string) (Value, bool, error) {
	n, err := s.GetNote(ctx, id)
	if err != nil {
		return Null(), false, err
	}
	v, ok := n.Attribute(key)
	return v, ok, nil
}

// EditNote applies fn to the note under the write lock. Link changes made by
// fn are reflected in the backlink index.
func (s *Service) EditNote(ctx context.Context, id string, fn func(n *Note)) (Note, error) {
	return s.update(ctx, "edit", id, fn)
}

// DeleteNote removes a note and every link pointing at it.
func (s *Service) DeleteNote(ctx context.Context, id string) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}
	nid, err := ParseNoteID(id)
	if err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nb.RemoveNote(nid)
	if !ok {
		return Note{}, noteNotFound(nid)
	}
	s.logger.Debug("note deleted", "id", nid)
	return n, nil
}

// LinkNotes links from -> to.
func (s *Service) LinkNotes(ctx context.Context, from, to string) error {
	return s.link(ctx, from, to, true)
}

// UnlinkNotes removes the link from -> to.
func (s *Service) UnlinkNotes(ctx context.Context, from, to string) error {
	return s.link(ctx, from, to, false)
}

// Backlinks returns the notes linking to id, ordered by creation time.
func (s *Service) Backlinks(ctx context.Context, id string) ([]Note, error) {
	nid, err := ParseNoteID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.nb.Contains(nid) {
		return nil, noteNotFound(nid)
	}
	var out []Note
	for _, source := range s.nb.Backlinks(nid) {
		if n, ok := s.nb.GetNote(source); ok {
			out = append(out, n)
		}
	}
	SortNotes(out)
	return out, nil
}

// Search finds notes containing query, ignoring case.
func (s *Service) Search(ctx context.Context, query string, scope SearchScope) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch scope {
	case ScopeTitle:
		return s.nb.SearchByTitle(query)
	case ScopeContent:
		return s.nb.SearchByContent(query)
	default:
		return s.nb.Search(query)
	}
}

// SuggestLinks returns notes whose titles appear in the content of id but
// which id does not link to yet.
func (s *Service) SuggestLinks(ctx context.Context, id string) ([]Note, error) {
	nid, err := ParseNoteID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.nb.GetNote(nid)
	if !ok {
		return nil, noteNotFound(nid)
	}

	titles := make(map[NoteID]string, s.nb.Len())
	for n := range s.nb.AllNotes() {
		if n.ID == nid || source.LinksTo(n.ID) {
			continue
		}
		titles[n.ID] = n.Title
	}
	scanner, err := mentions.NewScanner(titles)
	if err != nil {
		return nil, fmt.Errorf("failed to build mention scanner: %w", err)
	}

	var out []Note
	for _, target := range scanner.Mentioned(source.Content) {
		if n, ok := s.nb.GetNote(target); ok {
			out = append(out, n)
		}
	}
	SortNotes(out)
	return out, nil
}

// Save persists the notebook. An empty path uses the remembered destination;
// a non-empty one becomes the remembered destination once the save succeeds.
func (s *Service) Save(ctx context.Context, path string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.storage == nil {
		return ErrUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dest := path
	if dest == "" {
		dest = s.path
	}
	if dest == "" {
		return ErrNoPath
	}

	start := time.Now()
	if err := s.storage.Save(ctx, s.nb, dest); err != nil {
		return err
	}
	s.path = dest
	s.logger.Info("notebook saved", "path", dest, "notes", s.nb.Len(), "duration", time.Since(start))
	return nil
}

// Load replaces the current notebook with the one stored at path and
// remembers path. An empty path uses the remembered destination.
func (s *Service) Load(ctx context.Context, path string) error {
	if s.storage == nil {
		return ErrUnsupported
	}
	dest := path
	if dest == "" {
		dest = s.Path()
	}
	if dest == "" {
		return ErrNoPath
	}

	start := time.Now()
	nb, err := s.storage.Load(ctx, dest)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nb = nb
	s.path = dest
	s.logger.Info("notebook loaded", "path", dest, "notes", nb.Len(), "duration", time.Since(start))
	return nil
}

// Reload reads the notebook again from the remembered destination.
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx, "")
}

// Watch reports changes made to the remembered destination outside the process.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.storage.(Watchable)
	if !ok {
		return nil, ErrUnsupported
	}
	dest := s.Path()
	if dest == "" {
		return nil, ErrNoPath
	}
	return w.Watch(ctx, dest)
}

func (s *Service) update(ctx context.Context, op, id string, fn func(*Note)) (Note, error) {
	if s.readOnly {
		return Note{}, ErrReadOnly
	}
	nid, err := ParseNoteID(id)
	if err != nil {
		return Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.nb.UpdateNote(nid, fn); err != nil {
		return Note{}, err
	}
	n, _ := s.nb.GetNote(nid)
	s.logger.Debug("note updated", "op", op, "id", nid)
	return n, nil
}

func (s *Service) link(ctx context.Context, from, to string, add bool) error {
	if s.readOnly {
		return ErrReadOnly
	}
	src, err := ParseNoteID(from)
	if err != nil {
		return err
	}
	dst, err := ParseNoteID(to)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if add {
		err = s.nb.LinkNotes(src, dst)
	} else {
		err = s.nb.UnlinkNotes(src, dst)
	}
	if err != nil {
		return err
	}
	s.logger.Debug("link changed", "from", src, "to", dst, "linked", add)
	return nil
}
