package core

import "context"

// Storage defines the contract for persisting notebooks.
// Adhering to this interface keeps Notebook and Note independent of the
// underlying medium (JSON/YAML files, badger, SQLite).
type Storage interface {
	// Save serializes the full notebook to dest, replacing any previous content.
	// A failed save leaves the previous content intact.
	Save(ctx context.Context, nb *Notebook, dest string) error

	// Load reconstructs the notebook most recently saved to dest.
	// It fails with ErrNotFound if dest does not exist and ErrFormat if the
	// content is not a serialized notebook.
	Load(ctx context.Context, dest string) (*Notebook, error)
}

// Watchable is implemented by storages that can report external changes to a destination.
type Watchable interface {
	Watch(ctx context.Context, dest string) (<-chan Event, error)
}
