package loginsession_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/server/loginsession"
	"github.com/stretchr/testify/require"
)

func TestCacheRepo(t *testing.T) {
	t.Run("upsert get delete", func(t *testing.T) {
		var evicted atomic.Int32
		repo := loginsession.NewCacheRepo(time.Hour, func(*loginsession.Session) { evicted.Add(1) })

		require.Error(t, repo.Upsert(&loginsession.Session{}))
		require.NoError(t, repo.Upsert(&loginsession.Session{ID: "abc"}))
		require.Equal(t, 1, repo.Count())

		sess, err := repo.Get("abc")
		require.NoError(t, err)
		require.Equal(t, "abc", sess.ID)

		require.NoError(t, repo.Delete("abc"))
		_, err = repo.Get("abc")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
		require.Equal(t, int32(1), evicted.Load())
		require.Zero(t, repo.Count())
	})

	t.Run("expires", func(t *testing.T) {
		repo := loginsession.NewCacheRepo(20*time.Millisecond, nil)
		require.NoError(t, repo.Upsert(&loginsession.Session{ID: "abc"}))

		require.Eventually(t, func() bool {
			_, err := repo.Get("abc")
			return errors.Is(err, errors.ErrSessionNotFound)
		}, time.Second, 50*time.Millisecond)
	})
}

func TestNeedsValidation(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sess := &loginsession.Session{}
	require.True(t, sess.NeedsValidation(now, time.Minute))

	sess.Validated(now)
	require.False(t, sess.NeedsValidation(now.Add(30*time.Second), time.Minute))
	require.True(t, sess.NeedsValidation(now.Add(time.Minute), time.Minute))
}
