package upload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAccepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mediaType string
		want      bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", false},
		{"image/webp", false},
		{"application/pdf", false},
		{"", false},
		{"IMAGE/PNG", false},
	}
	for _, tt := range tests {
		if got := Accepted(tt.mediaType); got != tt.want {
			t.Fatalf("Accepted(%q) = %v, want %v", tt.mediaType, got, tt.want)
		}
	}
}

func TestValidateWrapsSentinel(t *testing.T) {
	t.Parallel()

	err := Validate(File{Name: "scan.gif", MediaType: "image/gif"})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if err := Validate(File{Name: "scan.png", MediaType: MediaTypePNG}); err != nil {
		t.Fatalf("png should validate, got %v", err)
	}
}

func TestDeclaredType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"scan.jpg", MediaTypeJPEG},
		{"scan.JPEG", MediaTypeJPEG},
		{"scan.png", MediaTypePNG},
		{"notes.txt", "text/plain"},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := DeclaredType(tt.name); got != tt.want {
			t.Fatalf("DeclaredType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOpenReadsFileAndDeclaresType(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "brain scan.png")
	if err := os.WriteFile(path, []byte("not really a png"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Open("'" + path + "'")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Name != "brain scan.png" {
		t.Fatalf("name = %q", got.Name)
	}
	if got.MediaType != MediaTypePNG {
		t.Fatalf("media type = %q", got.MediaType)
	}
	if got.Size() != len("not really a png") {
		t.Fatalf("size = %d", got.Size())
	}
}

func TestOpenRejectsDirectoriesAndMissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	if _, err := Open(filepath.Join(dir, "missing.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCleanPathHandlesTerminalDrops(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  /tmp/a.png\n", "/tmp/a.png"},
		{`"/tmp/with space.png"`, "/tmp/with space.png"},
		{`/tmp/with\ space.png`, "/tmp/with space.png"},
		{"file:///tmp/a.png", "/tmp/a.png"},
	}
	for _, tt := range tests {
		if got := cleanPath(tt.in); got != tt.want {
			t.Fatalf("cleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
