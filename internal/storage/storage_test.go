package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pfrederiksen/that-schedule/internal/activity"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".cache")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return s, dir
}

func TestNew_CreatesDirectory(t *testing.T) {
	_, dir := newTestStorage(t)

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected cache directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected cache path to be a directory")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		path string
		want string
	}{
		{"~/that-cache", filepath.Join(home, "that-cache")},
		{".cache", ".cache"},
		{"/var/cache/that", "/var/cache/that"},
		{"~user/cache", "~user/cache"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ExpandPath(tt.path)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestPageAndRecordDoNotCollide(t *testing.T) {
	s, dir := newTestStorage(t)

	if err := s.WriteActivity("abc", &activity.Activity{Title: "ABC"}); err != nil {
		t.Fatalf("WriteActivity() error = %v", err)
	}
	if err := s.WritePage("abc.json", "<html></html>"); err == nil {
		t.Fatal("WritePage(\"abc.json\") should be rejected")
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc.json"))
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	if string(data) == "<html></html>" {
		t.Error("record file was overwritten by a page")
	}
}

func TestLinks(t *testing.T) {
	s, dir := newTestStorage(t)

	t.Run("absent listing", func(t *testing.T) {
		links, ok, err := s.LoadLinks()
		if err != nil {
			t.Fatalf("LoadLinks() error = %v", err)
		}
		if ok {
			t.Error("expected cache to be absent")
		}
		if links.Len() != 0 {
			t.Errorf("expected no links, got %d", links.Len())
		}
		if _, err := s.ListingModTime(); err == nil {
			t.Error("expected ListingModTime() to fail without a listing")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		saved := activity.NewLinkSet("/activities/b/", "/activities/a/")
		if err := s.SaveLinks(saved); err != nil {
			t.Fatalf("SaveLinks() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, ListingFile))
		if err != nil {
			t.Fatalf("reading listing: %v", err)
		}
		if string(data) != "/activities/a/\n/activities/b/\n" {
			t.Errorf("unexpected listing content: %q", string(data))
		}

		loaded, ok, err := s.LoadLinks()
		if err != nil {
			t.Fatalf("LoadLinks() error = %v", err)
		}
		if !ok {
			t.Error("expected cache to be present")
		}
		if !loaded.Equal(saved) {
			t.Errorf("LoadLinks() = %v, want %v", loaded.Sorted(), saved.Sorted())
		}

		mod, err := s.ListingModTime()
		if err != nil {
			t.Fatalf("ListingModTime() error = %v", err)
		}
		if time.Since(mod) > time.Minute {
			t.Errorf("unexpected listing mtime: %v", mod)
		}
	})

	t.Run("blank lines are ignored", func(t *testing.T) {
		content := "/activities/a/\n\n  /activities/c/  \n"
		if err := os.WriteFile(filepath.Join(dir, ListingFile), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		loaded, _, err := s.LoadLinks()
		if err != nil {
			t.Fatalf("LoadLinks() error = %v", err)
		}
		want := []string{"/activities/a/", "/activities/c/"}
		if got := loaded.Sorted(); !reflect.DeepEqual(got, want) {
			t.Errorf("LoadLinks() = %v, want %v", got, want)
		}
	})
}

func TestPages(t *testing.T) {
	s, dir := newTestStorage(t)

	if _, ok, err := s.ReadPage("abc"); err != nil || ok {
		t.Fatalf("ReadPage() on empty cache = (ok %v, err %v), want (false, nil)", ok, err)
	}

	html := "<html><body><h2 class=\"text-2xl\">Title</h2></body></html>"
	if err := s.WritePage("abc", html); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "abc")); err != nil {
		t.Errorf("expected page to be stored under its id: %v", err)
	}

	got, ok, err := s.ReadPage("abc")
	if err != nil || !ok {
		t.Fatalf("ReadPage() = (ok %v, err %v), want (true, nil)", ok, err)
	}
	if got != html {
		t.Errorf("ReadPage() = %q, want %q", got, html)
	}
}

func TestActivities(t *testing.T) {
	s, dir := newTestStorage(t)

	got, err := s.ReadActivity("abc")
	if err != nil || got != nil {
		t.Fatalf("ReadActivity() on empty cache = (%v, %v), want (nil, nil)", got, err)
	}

	a := &activity.Activity{
		Title:       "Intro to Go",
		StartTime:   1658950200,
		EndTime:     1658955600,
		Location:    activity.Online,
		Description: "Learn Go.",
		Link:        "https://that.us/activities/abc/",
	}
	if err := s.WriteActivity("abc", a); err != nil {
		t.Fatalf("WriteActivity() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "abc.json")); err != nil {
		t.Errorf("expected record to be stored as abc.json: %v", err)
	}

	got, err = s.ReadActivity("abc")
	if err != nil {
		t.Fatalf("ReadActivity() error = %v", err)
	}
	if !reflect.DeepEqual(got, a) {
		t.Errorf("ReadActivity() = %+v, want %+v", got, a)
	}

	t.Run("corrupt record", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.ReadActivity("bad"); err == nil {
			t.Error("expected error for corrupt record")
		}
	})
}

func TestInvalidIDs(t *testing.T) {
	s, _ := newTestStorage(t)

	for _, id := range []string{"", ".", "..", "../escape", `a\b`, ListingFile, "abc.json"} {
		t.Run(id, func(t *testing.T) {
			if err := s.WritePage(id, "x"); err == nil {
				t.Errorf("WritePage(%q) expected error", id)
			}
			if _, _, err := s.ReadPage(id); err == nil {
				t.Errorf("ReadPage(%q) expected error", id)
			}
			if err := s.WriteActivity(id, &activity.Activity{}); err == nil {
				t.Errorf("WriteActivity(%q) expected error", id)
			}
		})
	}
}
