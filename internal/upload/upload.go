package upload

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
)

// ErrUnsupportedType is returned for files whose declared media type is not admitted.
var ErrUnsupportedType = errors.New("unsupported media type")

// File is a candidate image held in memory together with its declared media type.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the payload length in bytes.
func (f File) Size() int {
	return len(f.Data)
}

// Accepted reports whether mediaType is one of the admitted image types.
func Accepted(mediaType string) bool {
	return mediaType == MediaTypeJPEG || mediaType == MediaTypePNG
}

// Validate rejects files whose declared media type is not admitted.
func Validate(f File) error {
	if !Accepted(f.MediaType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, f.MediaType)
	}
	return nil
}

// Open reads path into a File. The media type is declared from the file extension,
// not sniffed from content.
func Open(path string) (File, error) {
	path = cleanPath(path)
	if path == "" {
		return File{}, errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name:      filepath.Base(path),
		MediaType: DeclaredType(path),
		Data:      data,
	}, nil
}

// DeclaredType maps a file name to its media type without parameters.
func DeclaredType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	declared := mime.TypeByExtension(ext)
	if declared == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return declared
	}
	return mediaType
}

// cleanPath normalizes a path that may have been pasted into a terminal, where
// dropped files arrive quoted or with escaped spaces.
func cleanPath(raw string) string {
	path := strings.TrimSpace(raw)
	if len(path) >= 2 {
		first, last := path[0], path[len(path)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			path = path[1 : len(path)-1]
		}
	}
	path = strings.TrimPrefix(path, "file://")
	path = strings.ReplaceAll(path, `\ `, " ")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}
