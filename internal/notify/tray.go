package notify

import "time"

const (
	informationalDuration = 2 * time.Second
	destructiveDuration   = 4 * time.Second
)

// Toast is a posted notification as held by the tray.
type Toast struct {
	ID       int
	Message  string
	Severity Severity
	PostedAt time.Time
	Duration time.Duration
}

// Expired reports whether the toast has outlived its display duration at now.
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.PostedAt.Add(t.Duration))
}

// Tray is the notification surface of the terminal UI. It owns display duration and
// dismissal; callers only post. It is not safe for concurrent use and is meant to be
// driven from the program's update loop.
type Tray struct {
	toasts []Toast
	fresh  []Toast
	nextID int
	limit  int
	now    func() time.Time
}

// NewTray returns an empty tray that keeps at most limit toasts on screen.
func NewTray(limit int) *Tray {
	if limit <= 0 {
		limit = 3
	}
	return &Tray{limit: limit, now: time.Now}
}

func (t *Tray) Notify(title, description string, severity Severity) {
	t.nextID++
	toast := Toast{
		ID:       t.nextID,
		Message:  Compose(title, description),
		Severity: severity,
		PostedAt: t.now(),
		Duration: durationFor(severity),
	}
	t.toasts = append(t.toasts, toast)
	if len(t.toasts) > t.limit {
		t.toasts = t.toasts[len(t.toasts)-t.limit:]
	}
	t.fresh = append(t.fresh, toast)
}

// TakeFresh returns toasts posted since the previous call so the caller can schedule
// their expiry.
func (t *Tray) TakeFresh() []Toast {
	fresh := t.fresh
	t.fresh = nil
	return fresh
}

// Dismiss removes the toast with the given id if it is still displayed.
func (t *Tray) Dismiss(id int) {
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return
		}
	}
}

// Active returns the displayed toasts, oldest first.
func (t *Tray) Active() []Toast {
	return append([]Toast(nil), t.toasts...)
}

func durationFor(severity Severity) time.Duration {
	if severity == Destructive {
		return destructiveDuration
	}
	return informationalDuration
}
