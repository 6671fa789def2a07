package loginsession

import (
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

var _ Repo = (*CacheRepo)(nil)

// CacheRepo keeps sessions in memory and forgets them after ttl of inactivity.
// Every Get extends the session's lifetime.
type CacheRepo struct {
	ttl   time.Duration
	cache *gocache.Cache
}

// NewCacheRepo creates the repo. onEvict, when set, runs for every session
// removed by expiry or Delete.
func NewCacheRepo(ttl time.Duration, onEvict func(*Session)) *CacheRepo {
	c := gocache.New(ttl, cleanupInterval(ttl))
	c.OnEvicted(func(id string, v any) {
		sess, ok := v.(*Session)
		if !ok {
			return
		}
		log.Debug().Str("session", shortID(id)).Msg("login session evicted")
		if onEvict != nil {
			onEvict(sess)
		}
	})
	return &CacheRepo{ttl: ttl, cache: c}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

func (r *CacheRepo) Upsert(session *Session) error {
	if session == nil || session.ID == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[CacheRepo Upsert] sessionID is required")
	}
	r.cache.Set(session.ID, session, gocache.DefaultExpiration)
	return nil
}

func (r *CacheRepo) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[CacheRepo Get] sessionID is required")
	}
	v, ok := r.cache.Get(sessionID)
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	sess := v.(*Session)
	// sliding expiry
	r.cache.Set(sessionID, sess, gocache.DefaultExpiration)
	return sess, nil
}

func (r *CacheRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[CacheRepo Delete] sessionID is required")
	}
	r.cache.Delete(sessionID)
	return nil
}

func (r *CacheRepo) Count() int {
	return r.cache.ItemCount()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
