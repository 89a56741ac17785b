package resume

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.state")
	s := New(path, "data/vanity.txt", 4)
	s.MarkCompleted("foo", true)
	s.MarkCompleted("bar", false)
	s.MarkCompleted("foo", true) // ignored
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected state, got nil")
	}
	if !loaded.Matches("data/vanity.txt") {
		t.Error("state should match its candidates file")
	}
	if loaded.Matches("other.txt") {
		t.Error("state should not match a different file")
	}

	remaining := loaded.FilterRemaining([]string{"foo", "bar", "baz", "qux"})
	if len(remaining) != 2 || remaining[0] != "baz" || remaining[1] != "qux" {
		t.Errorf("FilterRemaining = %v, want [baz qux]", remaining)
	}
	avail := loaded.PreviouslyAvailable()
	if len(avail) != 1 || avail[0] != "foo" {
		t.Errorf("PreviouslyAvailable = %v, want [foo]", avail)
	}
}

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.state"))
	if err != nil || s != nil {
		t.Fatalf("Load(missing) = (%v, %v), want (nil, nil)", s, err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.state")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.state")
	s := New(path, "x", 1)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover files: %v", entries)
	}
}
