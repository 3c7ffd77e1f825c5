package dropzone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatchReportsSettledFile(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, 40*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events():
		if got != path {
			t.Fatalf("event path = %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for drop event")
	}
}

func TestWatchIgnoresHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir, 40*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, ".partial"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	visible := filepath.Join(dir, "visible.jpg")
	if err := os.WriteFile(visible, []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events():
		if got != visible {
			t.Fatalf("unexpected event %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for drop event")
	}
}

func TestWatchCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w, err := Watch(dir, 0)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if w.Dir() != dir {
		t.Fatalf("Dir() = %q", w.Dir())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Fatal("events channel should be closed")
	}
}

func TestWatchRejectsEmptyDir(t *testing.T) {
	if _, err := Watch("  ", 0); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/tmp/a.png", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/tmp/a.png", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/tmp/a.png", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/tmp/.a.png", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/tmp/a.png~", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.event); got != tt.want {
			t.Fatalf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}
