package typed

import (
	"context"

	"github.com/aretw0/nexia/pkg/core"
)

// Service wraps a core.Service so notes can be read and written as T.
type Service[T any] struct {
	svc   *core.Service
	codec Attributes[T]
}

// NewService creates a new typed service wrapper.
func NewService[T any](svc *core.Service) *Service[T] {
	return &Service[T]{svc: svc}
}

// Create adds a note whose attributes hold data.
func (s *Service[T]) Create(ctx context.Context, title, content string, data T) (*NoteModel[T], error) {
	attrs, err := s.codec.Encode(data)
	if err != nil {
		return nil, err
	}
	n, err := s.svc.CreateNote(ctx, title)
	if err != nil {
		return nil, err
	}
	n, err = s.svc.EditNote(ctx, n.ID.String(), func(n *core.Note) {
		n.SetContent(content)
		for k, v := range attrs {
			n.SetAttribute(k, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return fromNote(n, Saver[T](s))
}

// Save writes title, content and typed attributes back. Attributes that T
// does not know about are preserved.
func (s *Service[T]) Save(ctx context.Context, m *NoteModel[T]) error {
	attrs, err := s.codec.Encode(m.Data)
	if err != nil {
		return err
	}
	if m.Saver == nil {
		m.Saver = s
	}
	_, err = s.svc.EditNote(ctx, m.ID, func(n *core.Note) {
		n.SetTitle(m.Title)
		n.SetContent(m.Content)
		for k, v := range attrs {
			n.SetAttribute(k, v)
		}
	})
	return err
}

// Get retrieves a note and decodes its attributes.
func (s *Service[T]) Get(ctx context.Context, id string) (*NoteModel[T], error) {
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromNote(n, Saver[T](s))
}

// List decodes every note, ordered like core.Service.ListNotes.
func (s *Service[T]) List(ctx context.Context) ([]*NoteModel[T], error) {
	notes := s.svc.ListNotes(ctx)
	result := make([]*NoteModel[T], 0, len(notes))
	for _, n := range notes {
		model, err := fromNote(n, Saver[T](s))
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a note.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	_, err := s.svc.DeleteNote(ctx, id)
	return err
}
