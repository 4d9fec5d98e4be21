package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Notebook    string `json:"notebook"`
	Notes       int    `json:"notes"`
	Backlinks   int    `json:"backlinks"`
	Path        string `json:"path,omitempty"`
	ReadOnly    bool   `json:"read_only"`
	Acyclic     bool   `json:"acyclic"`
	StorageType string `json:"storage_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storageType := "none"
	if s.storage != nil {
		storageType = "storage"
		if comp, ok := s.storage.(introspection.Component); ok {
			storageType = comp.ComponentType()
		}
	}

	return ServiceState{
		Notebook:    s.nb.Name,
		Notes:       s.nb.Len(),
		Backlinks:   len(s.nb.backlinks),
		Path:        s.path,
		ReadOnly:    s.readOnly,
		Acyclic:     s.nb.Acyclic(),
		StorageType: storageType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "notebook-service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
