// Package notify delivers transient user notifications to the TUI tray or a writer.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Severity selects the visual treatment of a notification.
type Severity int

const (
	Informational Severity = iota
	Destructive
)

func (s Severity) String() string {
	if s == Destructive {
		return "destructive"
	}
	return "informational"
}

// Notifier displays transient, severity-tagged messages. Implementations must not
// block the caller.
type Notifier interface {
	Notify(title, description string, severity Severity)
}

// Func adapts a plain function into a Notifier.
type Func func(title, description string, severity Severity)

func (f Func) Notify(title, description string, severity Severity) {
	if f != nil {
		f(title, description, severity)
	}
}

// Compose joins a title and optional description into the displayed message.
func Compose(title, description string) string {
	if description == "" {
		return title
	}
	return fmt.Sprintf("%s — %s", title, description)
}

// Writer prints one rendered line per notification, used when no terminal UI is mounted.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a Writer targeting out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(title, description string, severity Severity) {
	if w == nil || w.out == nil {
		return
	}
	line := RenderLine(Toast{Message: Compose(title, description), Severity: severity})
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.out, strings.TrimRight(line, "\n")+"\n")
}
