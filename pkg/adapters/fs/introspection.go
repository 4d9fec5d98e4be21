package fs

import (
	"slices"
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Serializers    []string   `json:"serializers"`
	DefaultExt     string     `json:"default_ext"`
	Saves          int        `json:"saves"`
	Loads          int        `json:"loads"`
	LastSave       *time.Time `json:"last_save,omitempty"`
	ActiveWatchers int        `json:"active_watchers"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	serializers := make([]string, 0, len(s.serializers))
	for ext := range s.serializers {
		serializers = append(serializers, ext)
	}
	slices.Sort(serializers)

	return StorageState{
		Serializers:    serializers,
		DefaultExt:     s.config.DefaultExt,
		Saves:          s.saves,
		Loads:          s.loads,
		LastSave:       s.lastSave,
		ActiveWatchers: s.watchers,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "fs-storage"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
