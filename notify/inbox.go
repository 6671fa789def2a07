package notify

import (
	"sync"
	"time"
)

const DefaultInboxSize = 20

// Inbox buffers toasts for a reader that collects them periodically, such as
// the next page render of a dashboard session.
type Inbox struct {
	mu      sync.Mutex
	toasts  []Toast
	max     int
	nowTime func() time.Time
}

type InboxOption func(*Inbox)

func WithInboxClock(nowFunc func() time.Time) InboxOption {
	return func(i *Inbox) {
		i.nowTime = nowFunc
	}
}

// WithMaxToasts bounds the buffer; the oldest toasts are dropped first.
func WithMaxToasts(n int) InboxOption {
	return func(i *Inbox) {
		if n > 0 {
			i.max = n
		}
	}
}

func NewInbox(options ...InboxOption) *Inbox {
	i := &Inbox{max: DefaultInboxSize, nowTime: time.Now}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Attach subscribes the inbox to bus and returns the unsubscribe function.
func (i *Inbox) Attach(bus *Bus) func() {
	return bus.Subscribe(i.Push)
}

func (i *Inbox) Push(t Toast) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.toasts = append(i.toasts, t)
	if over := len(i.toasts) - i.max; over > 0 {
		i.toasts = append([]Toast(nil), i.toasts[over:]...)
	}
}

// Drain returns the toasts that have not yet expired, oldest first, and empties the inbox.
func (i *Inbox) Drain() []Toast {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.nowTime()
	out := make([]Toast, 0, len(i.toasts))
	for _, t := range i.toasts {
		if !t.Expired(now) {
			out = append(out, t)
		}
	}
	i.toasts = nil
	return out
}

// Dismiss removes one toast by id.
func (i *Inbox) Dismiss(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n, t := range i.toasts {
		if t.ID == id {
			i.toasts = append(i.toasts[:n], i.toasts[n+1:]...)
			return true
		}
	}
	return false
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.toasts)
}
