package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type testFixture struct {
	backend *fakebackend.Backend
	tokens  *session.MemoryTokenStore
	tab     *session.TabStore
	store   *auth.Store
}

func setupTestFixture(t *testing.T, options ...auth.StoreOption) *testFixture {
	t.Helper()

	fb := fakebackend.New()
	t.Cleanup(fb.Close)

	tokens := session.NewMemoryTokenStore()
	tab := session.NewTabStore(0)
	c, err := apiclient.New(fb.URL, tokens, tab)
	require.NoError(t, err)

	store, err := auth.NewStore(c, tokens, tab, options...)
	require.NoError(t, err)
	return &testFixture{backend: fb, tokens: tokens, tab: tab, store: store}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("admin is authenticated and both stores are filled", func(t *testing.T) {
		f := setupTestFixture(t)

		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))

		st := f.store.State()
		require.True(t, st.IsAuthenticated)
		require.False(t, st.IsLoading)
		require.Empty(t, st.Error)
		require.Equal(t, fakebackend.AdminEmail, st.User.Email)

		tok, err := f.tokens.Load()
		require.NoError(t, err)
		require.NotEmpty(t, tok.AccessToken)
		require.NotEmpty(t, tok.RefreshToken)

		csrf, ok := f.tab.CSRFToken()
		require.True(t, ok)
		require.NotEmpty(t, csrf)
	})

	t.Run("non-admin is refused and nothing is persisted", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.store.Login(ctx, fakebackend.MemberEmail, fakebackend.MemberPass)
		require.ErrorIs(t, err, errors.ErrNotAdmin)

		st := f.store.State()
		require.False(t, st.IsAuthenticated)
		require.Nil(t, st.User)
		require.Equal(t, auth.AccessDeniedMsg, st.Error)

		_, err = f.tokens.Load()
		require.ErrorIs(t, err, errors.ErrNoCredentials)
		_, ok := f.tab.CSRFToken()
		require.False(t, ok)
	})

	t.Run("wrong password shows the backend detail", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.store.Login(ctx, fakebackend.AdminEmail, "nope")
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
		require.Equal(t, "Incorrect email or password", f.store.State().Error)
		require.False(t, f.store.State().IsAuthenticated)
	})

	t.Run("invalid form never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.store.Login(ctx, "not-an-email", "x")
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
		require.Zero(t, f.backend.Count("POST /api/v1/auth/login"))
		require.NotEmpty(t, f.store.State().Error)

		f.store.ClearError()
		require.Empty(t, f.store.State().Error)
	})

	t.Run("previous session is cleared by a refused login", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))

		err := f.store.Login(ctx, fakebackend.MemberEmail, fakebackend.MemberPass)
		require.ErrorIs(t, err, errors.ErrNotAdmin)
		require.False(t, f.store.State().IsAuthenticated)
		_, err = f.tokens.Load()
		require.Error(t, err)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears stores and tells the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))

		f.store.Logout(ctx)

		require.Equal(t, 1, f.backend.Count("POST /api/v1/auth/logout"))
		require.False(t, f.store.State().IsAuthenticated)
		_, err := f.tokens.Load()
		require.Error(t, err)
		_, ok := f.tab.CSRFToken()
		require.False(t, ok)
	})

	t.Run("backend failure is ignored", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))
		f.backend.FailWith("POST /api/v1/auth/logout", http.StatusInternalServerError)

		f.store.Logout(ctx)

		require.False(t, f.store.State().IsAuthenticated)
		_, err := f.tokens.Load()
		require.Error(t, err)
	})

	t.Run("without credentials skips the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.Logout(ctx)
		require.Zero(t, f.backend.Count("POST /api/v1/auth/logout"))
	})
}

func TestFetchUser(t *testing.T) {
	ctx := context.Background()

	t.Run("restores a session from stored credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.tokens.Save(session.NewCredentials(f.backend.IssueToken(fakebackend.AdminEmail), "")))

		require.NoError(t, f.store.FetchUser(ctx))
		st := f.store.State()
		require.True(t, st.IsAuthenticated)
		require.Equal(t, fakebackend.AdminEmail, st.User.Email)
	})

	t.Run("no credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.store.FetchUser(ctx)
		require.ErrorIs(t, err, errors.ErrNotAuthenticated)
		require.Zero(t, f.backend.Count("GET /api/v1/users/me"))
	})

	t.Run("backend failure tears the session down", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))
		f.backend.FailWith("GET /api/v1/users/me", http.StatusInternalServerError)

		require.Error(t, f.store.FetchUser(ctx))
		require.False(t, f.store.State().IsAuthenticated)
		_, err := f.tokens.Load()
		require.ErrorIs(t, err, errors.ErrNoCredentials)
		_, ok := f.tab.CSRFToken()
		require.False(t, ok)
	})

	t.Run("network failure tears the session down", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))
		f.backend.Close()

		err := f.store.FetchUser(ctx)
		require.ErrorIs(t, err, errors.ErrTransport)
		require.False(t, f.store.State().IsAuthenticated)
	})

	t.Run("demoted admin is logged out", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Login(ctx, fakebackend.AdminEmail, fakebackend.AdminPassword))
		f.backend.SetAdmin(fakebackend.AdminEmail, false)

		err := f.store.FetchUser(ctx)
		require.ErrorIs(t, err, errors.ErrNotAdmin)
		st := f.store.State()
		require.False(t, st.IsAuthenticated)
		require.Equal(t, auth.AccessDeniedMsg, st.Error)
	})

	t.Run("expired token is not sent", func(t *testing.T) {
		later := func() time.Time { return time.Now().Add(48 * time.Hour) }
		f := setupTestFixture(t, auth.WithNowTime(later))
		require.NoError(t, f.tokens.Save(&oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(time.Hour)}))

		err := f.store.FetchUser(ctx)
		require.ErrorIs(t, err, errors.ErrSessionExpired)
		require.Equal(t, auth.SessionExpiredMsg, f.store.State().Error)
		require.Zero(t, f.backend.Count("GET /api/v1/users/me"))
	})
}

func TestSubscribe(t *testing.T) {
	f := setupTestFixture(t)

	var mu sync.Mutex
	var seen []auth.State
	unsubscribe := f.store.Subscribe(func(st auth.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
	})

	require.NoError(t, f.store.Login(context.Background(), fakebackend.AdminEmail, fakebackend.AdminPassword))

	mu.Lock()
	require.GreaterOrEqual(t, len(seen), 2)
	require.True(t, seen[0].IsLoading)
	require.True(t, seen[len(seen)-1].IsAuthenticated)
	count := len(seen)
	mu.Unlock()

	unsubscribe()
	f.store.ClearError()

	mu.Lock()
	require.Equal(t, count, len(seen))
	mu.Unlock()
}

func TestStateIsACopy(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Login(context.Background(), fakebackend.AdminEmail, fakebackend.AdminPassword))

	st := f.store.State()
	st.User.Email = "changed@example.com"
	require.Equal(t, fakebackend.AdminEmail, f.store.State().User.Email)
}

func TestValidateCredentials(t *testing.T) {
	require.NoError(t, auth.ValidateCredentials(" admin@clienthunt.io ", "pw"))
	require.ErrorIs(t, auth.ValidateCredentials("", "pw"), errors.ErrInvalidRequest)
	require.ErrorIs(t, auth.ValidateCredentials("admin@clienthunt.io", ""), errors.ErrInvalidRequest)
}
