package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeClock replaces now with a clock that advances one second per call.
func fakeClock(t *testing.T) *time.Time {
	t.Helper()
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	t.Cleanup(func() { now = prev })
	return &current
}

func TestNewNote(t *testing.T) {
	fakeClock(t)

	n := NewNote("Alpha")
	if n.ID == uuid.Nil {
		t.Fatal("expected a fresh id")
	}
	if n.Title != "Alpha" {
		t.Errorf("expected title Alpha, got %q", n.Title)
	}
	if !n.CreatedAt.Equal(n.ModifiedAt) {
		t.Errorf("expected equal timestamps, got %v and %v", n.CreatedAt, n.ModifiedAt)
	}
	if n.Position != nil || n.Size != nil || n.Prototype != nil || n.Links != nil || n.Attributes != nil {
		t.Error("expected optional fields to be empty")
	}
	if other := NewNote("Alpha"); other.ID == n.ID {
		t.Error("expected distinct ids")
	}
}

func TestNote_Links(t *testing.T) {
	fakeClock(t)

	t.Run("Self Link Is Ignored", func(t *testing.T) {
		n := NewNote("self")
		before := n.ModifiedAt
		n.AddLink(n.ID)
		if len(n.Links) != 0 {
			t.Fatalf("expected no links, got %v", n.Links)
		}
		if !n.ModifiedAt.Equal(before) {
			t.Error("no-op should not touch")
		}
	})

	t.Run("Duplicates Are Ignored And Order Kept", func(t *testing.T) {
		n := NewNote("src")
		a, b := NewNoteID(), NewNoteID()
		n.AddLink(a)
		n.AddLink(b)
		n.AddLink(a)
		if len(n.Links) != 2 || n.Links[0] != a || n.Links[1] != b {
			t.Fatalf("unexpected links %v", n.Links)
		}
	})

	t.Run("Remove Reports Presence", func(t *testing.T) {
		n := NewNote("src")
		a := NewNoteID()
		n.AddLink(a)
		before := n.ModifiedAt
		if !n.RemoveLink(a) {
			t.Fatal("expected removal")
		}
		if !n.ModifiedAt.After(before) {
			t.Error("removal should touch")
		}
		if n.RemoveLink(a) {
			t.Error("second removal should report false")
		}
		if n.LinksTo(a) {
			t.Error("link still present")
		}
	})
}

func TestNote_Setters(t *testing.T) {
	n := NewNote("draft")

	n.SetTitle("final")
	n.SetContent("done")
	size := &Size{Width: 3, Height: 2}
	n.SetSize(size)
	size.Width = 99

	if n.Title != "final" || n.Content != "done" {
		t.Errorf("unexpected note %q / %q", n.Title, n.Content)
	}
	if n.Size == nil || n.Size.Width != 3 {
		t.Errorf("size should be copied, got %+v", n.Size)
	}

	n.SetSize(nil)
	if n.Size != nil {
		t.Error("SetSize(nil) should clear the size")
	}
}

func TestNote_Touch(t *testing.T) {
	clock := fakeClock(t)

	n := NewNote("x")
	created := n.CreatedAt

	n.SetContent("body")
	if !n.ModifiedAt.After(created) {
		t.Fatal("SetContent should advance ModifiedAt")
	}
	if !n.CreatedAt.Equal(created) {
		t.Fatal("CreatedAt must not change")
	}

	// A clock going backwards must not rewind ModifiedAt.
	latest := n.ModifiedAt
	*clock = clock.Add(-time.Hour)
	n.Touch()
	if !n.ModifiedAt.Equal(latest) {
		t.Errorf("ModifiedAt moved backwards: %v -> %v", latest, n.ModifiedAt)
	}
}

func TestNote_Attributes(t *testing.T) {
	fakeClock(t)

	n := NewNote("x")
	if _, ok := n.Attribute("missing"); ok {
		t.Fatal("expected missing attribute")
	}

	n.SetAttribute("tags", List(String("a"), Number(1)))
	v, ok := n.Attribute("tags")
	if !ok || !v.Equal(List(String("a"), Int(1))) {
		t.Fatalf("unexpected attribute %v", v)
	}

	n.SetAttribute("tags", Bool(true))
	if v, _ := n.Attribute("tags"); !v.Equal(Bool(true)) {
		t.Errorf("expected overwrite, got %v", v)
	}

	if !n.DeleteAttribute("tags") || n.DeleteAttribute("tags") {
		t.Error("unexpected DeleteAttribute result")
	}
}

func TestNote_CloneIsDetached(t *testing.T) {
	fakeClock(t)

	n := NewNote("x").WithPosition(1, 2)
	n.AddLink(NewNoteID())
	n.SetAttribute("meta", Map(map[string]Value{"k": List(Int(1))}))

	c := n.Clone()
	if !c.Equal(n) {
		t.Fatal("clone should equal original")
	}

	c.Position.X = 99
	c.Links[0] = NewNoteID()
	c.Attributes["meta"] = Null()

	if n.Position.X != 1 {
		t.Error("position shared")
	}
	if c.Links[0] == n.Links[0] {
		t.Error("links shared")
	}
	if n.Attributes["meta"].IsNull() {
		t.Error("attributes shared")
	}
}

func TestParseNoteID(t *testing.T) {
	id := NewNoteID()
	got, err := ParseNoteID(id.String())
	if err != nil || got != id {
		t.Fatalf("ParseNoteID(%q) = %v, %v", id, got, err)
	}

	if _, err := ParseNoteID("not-a-uuid"); !errors.Is(err, ErrInvalidNoteID) {
		t.Errorf("expected ErrInvalidNoteID, got %v", err)
	}
}
