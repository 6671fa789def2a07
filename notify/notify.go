// Package notify carries short-lived user notifications ("toasts") from the
// code that produces them to whoever displays them.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

const (
	DefaultDuration = 5 * time.Second
	ErrorDuration   = 8 * time.Second
)

type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// Expired reports whether the toast should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool {
	return t.Duration > 0 && !now.Before(t.CreatedAt.Add(t.Duration))
}

// Bus fans toasts out to subscribers. The zero value is not usable; call NewBus.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]func(Toast)
	nextID  int
	nowTime func() time.Time
}

type BusOption func(*Bus)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) BusOption {
	return func(b *Bus) {
		b.nowTime = nowFunc
	}
}

func NewBus(options ...BusOption) *Bus {
	b := &Bus{
		subs:    map[int]func(Toast){},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Subscribe registers fn and returns a function that unregisters it.
func (b *Bus) Subscribe(fn func(Toast)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers a toast to every subscriber synchronously and returns it.
// A zero duration picks the level's default.
func (b *Bus) Publish(level Level, message string, duration time.Duration) Toast {
	if duration == 0 {
		duration = DefaultDuration
		if level == LevelError {
			duration = ErrorDuration
		}
	}
	t := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: b.nowTime(),
		Duration:  duration,
	}

	b.mu.RLock()
	subs := make([]func(Toast), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(t)
	}
	return t
}

func (b *Bus) Success(message string) Toast { return b.Publish(LevelSuccess, message, 0) }
func (b *Bus) Error(message string) Toast   { return b.Publish(LevelError, message, 0) }
func (b *Bus) Info(message string) Toast    { return b.Publish(LevelInfo, message, 0) }
func (b *Bus) Warning(message string) Toast { return b.Publish(LevelWarning, message, 0) }
