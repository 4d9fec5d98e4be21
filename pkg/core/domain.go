package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change observed on a notebook destination.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a persisted notebook made outside the process.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}

type contextKey string

// ChangeReasonKey is the context key for passing the change reason (commit message) to Save.
const ChangeReasonKey contextKey = "change_reason"
