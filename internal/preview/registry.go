package preview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/csheth/tumorscope/internal/upload"
)

var (
	// ErrReleased is returned when a handle is released a second time.
	ErrReleased = errors.New("preview handle already released")
	// ErrUnknownHandle is returned for handles this registry never issued.
	ErrUnknownHandle = errors.New("unknown preview handle")
)

const defaultThumbnailColumns = 32

// Handle is a revocable, display-only reference to a selected file.
type Handle struct {
	ID        string
	Name      string
	Thumbnail string
}

// Valid reports whether h refers to an issued preview.
func (h Handle) Valid() bool {
	return h.ID != ""
}

// Registry issues preview handles and tracks which are still live.
type Registry struct {
	mu       sync.Mutex
	columns  int
	next     int
	live     map[string]struct{}
	released map[string]struct{}
}

// NewRegistry returns a registry whose thumbnails are columns cells wide.
func NewRegistry(columns int) *Registry {
	if columns <= 0 {
		columns = defaultThumbnailColumns
	}
	return &Registry{
		columns:  columns,
		live:     map[string]struct{}{},
		released: map[string]struct{}{},
	}
}

// Acquire renders a thumbnail for f and issues a new handle. Undecodable payloads still
// yield a handle with a placeholder thumbnail.
func (r *Registry) Acquire(f upload.File) Handle {
	thumb, err := RenderImage(f.Data, r.columns)
	if err != nil {
		thumb = placeholder(f.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := fmt.Sprintf("preview://%d", r.next)
	r.live[id] = struct{}{}
	return Handle{ID: id, Name: f.Name, Thumbnail: thumb}
}

// Release revokes h. Each handle may be released exactly once.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[h.ID]; ok {
		delete(r.live, h.ID)
		r.released[h.ID] = struct{}{}
		return nil
	}
	if _, ok := r.released[h.ID]; ok {
		return fmt.Errorf("%w: %s", ErrReleased, h.ID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownHandle, h.ID)
}

// Live returns the number of issued handles not yet released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Columns reports the configured thumbnail width.
func (r *Registry) Columns() int {
	return r.columns
}

func placeholder(name string) string {
	return thumbnailFrameStyle.Render(fmt.Sprintf("[ %s ]\npreview unavailable", name))
}
