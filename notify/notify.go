// Package notify delivers one-way, user-visible error messages.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notifier shows a message to the user. It must not block on the user and
// its result is never consumed.
type Notifier interface {
	Error(ctx context.Context, message string)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, message string)

func (f Func) Error(ctx context.Context, message string) {
	if f != nil {
		f(ctx, message)
	}
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Error(ctx context.Context, message string) {
	for _, n := range m {
		if n != nil {
			n.Error(ctx, message)
		}
	}
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Error(ctx context.Context, message string) {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}
	log.WarnContext(ctx, "user notification", slog.String("message", message))
}

// Notification is one delivered message.
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed keeps the most recent notifications until a client drains them.
type Feed struct {
	mu    sync.Mutex
	limit int
	items []Notification
	now   func() time.Time
}

// NewFeed returns a Feed holding at most limit undrained notifications;
// the oldest are dropped first.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit, now: time.Now}
}

func (f *Feed) Error(_ context.Context, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     "error",
		Message:   message,
		CreatedAt: f.now().UTC(),
	}
	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.limit; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
	f.mu.Unlock()
}

// Drain returns pending notifications oldest first and clears the feed.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Recorder stores every message it receives. Useful in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Error(_ context.Context, message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
