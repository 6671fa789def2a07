package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const csrfTokenKey = "csrf_token"

// TabStore is the short-lived, per-tab cache. It only holds values that can be
// re-fetched from the backend, currently the CSRF token.
type TabStore struct {
	c *gocache.Cache
}

// NewTabStore creates a tab store whose entries live for ttl. A zero ttl keeps
// entries until Clear.
func NewTabStore(ttl time.Duration) *TabStore {
	if ttl <= 0 {
		return &TabStore{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &TabStore{c: gocache.New(ttl, ttl)}
}

func (t *TabStore) CSRFToken() (string, bool) {
	v, ok := t.c.Get(csrfTokenKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// SetCSRFToken caches token. Empty tokens are ignored.
func (t *TabStore) SetCSRFToken(token string) {
	if token == "" {
		return
	}
	t.c.SetDefault(csrfTokenKey, token)
}

func (t *TabStore) ClearCSRFToken() {
	t.c.Delete(csrfTokenKey)
}

// Clear drops everything the tab holds.
func (t *TabStore) Clear() {
	t.c.Flush()
}
