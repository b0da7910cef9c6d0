package activity

import (
	"reflect"
	"testing"
)

func TestDiffLinks(t *testing.T) {
	previous := NewLinkSet("/activities/a/", "/activities/b/")

	t.Run("finds added links", func(t *testing.T) {
		current := NewLinkSet("/activities/a/", "/activities/b/", "/activities/c/")
		result := DiffLinks(previous, current)

		if !reflect.DeepEqual(result.Added, []string{"/activities/c/"}) {
			t.Errorf("Added = %v, want [/activities/c/]", result.Added)
		}
		if len(result.Removed) != 0 {
			t.Errorf("expected no removed links, got %v", result.Removed)
		}
		if !result.Changed() {
			t.Error("expected diff to be changed")
		}
	})

	t.Run("finds removed links", func(t *testing.T) {
		current := NewLinkSet("/activities/a/")
		result := DiffLinks(previous, current)

		if !reflect.DeepEqual(result.Removed, []string{"/activities/b/"}) {
			t.Errorf("Removed = %v, want [/activities/b/]", result.Removed)
		}
	})

	t.Run("unchanged sets", func(t *testing.T) {
		result := DiffLinks(previous, NewLinkSet("/activities/b/", "/activities/a/"))
		if result.Changed() {
			t.Errorf("expected no changes, got %+v", result)
		}
	})

	t.Run("handles nil previous set", func(t *testing.T) {
		result := DiffLinks(nil, previous)
		if len(result.Added) != 2 {
			t.Errorf("expected all 2 links to be new, got %d", len(result.Added))
		}
	})
}

func TestDetectChanges(t *testing.T) {
	base := &Activity{
		Title:     "Intro to Go",
		StartTime: 1658950200,
		EndTime:   1658955600,
		Location:  Online,
		Link:      "https://that.us/activities/a/",
	}

	t.Run("new activity", func(t *testing.T) {
		changes := DetectChanges(nil, base)
		if len(changes) != 1 || changes[0].ChangeType != "new" {
			t.Fatalf("expected one new change, got %+v", changes)
		}
		if changes[0].NewValue != "Intro to Go" {
			t.Errorf("NewValue = %q, want title", changes[0].NewValue)
		}
	})

	t.Run("no changes", func(t *testing.T) {
		same := *base
		if changes := DetectChanges(base, &same); len(changes) != 0 {
			t.Errorf("expected no changes, got %d", len(changes))
		}
	})

	t.Run("moved room and time", func(t *testing.T) {
		moved := *base
		moved.Location = "Salon C"
		moved.StartTime += 3600
		moved.EndTime += 3600

		changes := DetectChanges(base, &moved)
		types := make(map[string]*Change)
		for _, c := range changes {
			types[c.ChangeType] = c
		}

		if len(changes) != 3 {
			t.Fatalf("expected 3 changes, got %d", len(changes))
		}
		if c := types["location"]; c == nil || c.OldValue != Online || c.NewValue != "Salon C" {
			t.Errorf("unexpected location change: %+v", c)
		}
		if c := types["start_time"]; c == nil || c.OldValue != "2022-07-27T19:30:00Z" || c.NewValue != "2022-07-27T20:30:00Z" {
			t.Errorf("unexpected start_time change: %+v", c)
		}
		if types["end_time"] == nil {
			t.Error("expected end_time change")
		}
	})
}
