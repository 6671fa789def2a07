package loginsession

import (
	"sync"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/notify"
	"github.com/jrsteele09/clienthunt-admin/session"
)

// Session is one browser's view of the console. Each browser gets its own
// API client, credential stores and notification inbox, the same separation a
// browser tab has.
type Session struct {
	ID        string
	FormToken string // expected in the _csrf field of every form post

	Auth   *auth.Store
	Client *apiclient.Client
	Tokens session.TokenStore
	Tab    *session.TabStore
	Bus    *notify.Bus
	Inbox  *notify.Inbox

	CreatedAt time.Time

	mu            sync.Mutex
	lastValidated time.Time
}

// Validated records that the backend confirmed the session at t.
func (s *Session) Validated(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastValidated = t
}

// NeedsValidation reports whether more than every has passed since the last confirmation.
func (s *Session) NeedsValidation(now time.Time, every time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastValidated.IsZero() || now.Sub(s.lastValidated) >= every
}

type Repo interface {
	Upsert(session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error
	Count() int
}
