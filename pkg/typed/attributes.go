// Package typed maps a note's attribute bag onto Go structs.
package typed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/nexia/pkg/core"
)

// Attributes converts between a note's attributes and a struct T using the
// struct's json tags.
type Attributes[T any] struct{}

// Decode builds a T from attrs. Keys without a matching field are ignored.
func (Attributes[T]) Decode(attrs map[string]core.Value) (T, error) {
	var out T
	plain := make(map[string]any, len(attrs))
	for k, v := range attrs {
		plain[k] = v.Any()
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return out, fmt.Errorf("attributes marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return out, nil
}

// Encode turns v into attribute values. T must encode as a JSON object.
func (Attributes[T]) Encode(v T) (map[string]core.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}
	if plain == nil {
		return nil, errors.New("typed data must encode as an object")
	}
	out := make(map[string]core.Value, len(plain))
	for k, x := range plain {
		val, err := core.FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// NoteModel is a typed view of a note.
type NoteModel[T any] struct {
	ID      string
	Title   string
	Content string
	Data    T        // decoded attributes
	Saver   Saver[T] // Active Record reference
}

// Saver persists a model.
type Saver[T any] interface {
	Save(ctx context.Context, note *NoteModel[T]) error
}

// Save persists the note using the attached saver.
func (m *NoteModel[T]) Save(ctx context.Context) error {
	if m.Saver == nil {
		return fmt.Errorf("note is detached (missing Saver)")
	}
	return m.Saver.Save(ctx, m)
}

func fromNote[T any](n core.Note, saver Saver[T]) (*NoteModel[T], error) {
	data, err := Attributes[T]{}.Decode(n.Attributes)
	if err != nil {
		return nil, fmt.Errorf("note %s: %w", n.ID, err)
	}
	return &NoteModel[T]{
		ID:      n.ID.String(),
		Title:   n.Title,
		Content: n.Content,
		Data:    data,
		Saver:   saver,
	}, nil
}
