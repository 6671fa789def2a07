package users_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*users.Service, *fakebackend.Backend) {
	t.Helper()
	fb := fakebackend.New()
	t.Cleanup(fb.Close)
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)
	return users.NewService(c), fb
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("first page of 57", func(t *testing.T) {
		svc, fb := setupService(t)

		page, err := svc.List(ctx, users.ListParams{Page: 1, Limit: 20})
		require.NoError(t, err)
		require.Len(t, page.Users, 20)
		require.Equal(t, 57, page.Total)
		require.Equal(t, 3, page.Window.TotalPages)
		require.True(t, page.Window.HasNext())
		require.False(t, page.Window.HasPrev())

		req, ok := fb.Last("GET /api/v1/admin/users")
		require.True(t, ok)
		q, _ := url.ParseQuery(req.Query)
		require.Equal(t, "0", q.Get("skip"))
		require.Equal(t, "20", q.Get("limit"))
		require.Empty(t, q.Get("search"))
	})

	t.Run("last page disables next", func(t *testing.T) {
		svc, fb := setupService(t)

		page, err := svc.List(ctx, users.ListParams{Page: 3, Limit: 20})
		require.NoError(t, err)
		require.Len(t, page.Users, 17)
		require.False(t, page.Window.HasNext())
		require.True(t, page.Window.HasPrev())

		req, _ := fb.Last("GET /api/v1/admin/users")
		q, _ := url.ParseQuery(req.Query)
		require.Equal(t, "40", q.Get("skip"))
	})

	t.Run("search and status filters", func(t *testing.T) {
		svc, fb := setupService(t)
		_, err := svc.Ban(ctx, "5", "spam")
		require.NoError(t, err)

		page, err := svc.List(ctx, users.ListParams{Search: "  user0 ", Status: users.StatusActive})
		require.NoError(t, err)
		require.Equal(t, 1, page.Window.Page)
		for _, u := range page.Users {
			require.Contains(t, u.Email, "user0")
			require.Equal(t, users.StatusActive, u.Status())
		}

		req, _ := fb.Last("GET /api/v1/admin/users")
		q, _ := url.ParseQuery(req.Query)
		require.Equal(t, "user0", q.Get("search"))
		require.Equal(t, "active", q.Get("status"))

		banned, err := svc.List(ctx, users.ListParams{Status: users.StatusBanned})
		require.NoError(t, err)
		require.Equal(t, 1, banned.Total)
		require.Equal(t, "spam", banned.Users[0].BanReason)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		svc, _ := setupService(t)

		page, err := svc.List(ctx, users.ListParams{Search: "nobody-matches"})
		require.NoError(t, err)
		require.NotNil(t, page.Users)
		require.Empty(t, page.Users)
		require.Equal(t, 0, page.Window.TotalPages)
		require.False(t, page.Window.HasNext())
	})
}

func TestActions(t *testing.T) {
	ctx := context.Background()

	t.Run("each action hits its endpoint", func(t *testing.T) {
		svc, fb := setupService(t)

		u, err := svc.Deactivate(ctx, "3")
		require.NoError(t, err)
		require.False(t, u.IsActive)
		require.Equal(t, users.StatusInactive, u.Status())

		u, err = svc.Activate(ctx, "3")
		require.NoError(t, err)
		require.True(t, u.IsActive)

		u, err = svc.VerifyEmail(ctx, "3")
		require.NoError(t, err)
		require.True(t, u.IsVerified)

		u, err = svc.Ban(ctx, "3", "chargeback")
		require.NoError(t, err)
		require.True(t, u.IsBanned)
		req, _ := fb.Last("POST /api/v1/admin/users/3/ban")
		require.JSONEq(t, `{"reason":"chargeback"}`, string(req.Body))

		u, err = svc.Unban(ctx, "3")
		require.NoError(t, err)
		require.False(t, u.IsBanned)

		require.Equal(t, apiclient.ID("3"), u.ID)
	})

	t.Run("unknown action", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.Apply(ctx, "3", users.Action("promote"), "")
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("missing user surfaces backend detail", func(t *testing.T) {
		svc, _ := setupService(t)
		_, err := svc.Activate(ctx, "9999")
		require.Error(t, err)
		require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
		require.Equal(t, "User not found", apiclient.Message(err))
	})

	t.Run("delete", func(t *testing.T) {
		svc, fb := setupService(t)
		require.NoError(t, svc.Delete(ctx, "4"))
		_, ok := fb.User(4)
		require.False(t, ok)
		require.Error(t, svc.Delete(ctx, "4"))
	})

	t.Run("ids with a slash stay one path segment", func(t *testing.T) {
		svc, fb := setupService(t)
		err := svc.Delete(ctx, "7/ban")
		require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))

		req, ok := fb.Last("DELETE /api/v1/admin/users/7/ban")
		require.True(t, ok)
		require.Equal(t, "/api/v1/admin/users/7%2Fban", req.RawPath)

		u, ok := fb.User(7)
		require.True(t, ok)
		require.Equal(t, false, u["is_banned"])
		require.Zero(t, fb.Count("POST /api/v1/admin/users/7/ban"))
	})

	t.Run("send email", func(t *testing.T) {
		svc, fb := setupService(t)
		err := svc.SendEmail(ctx, "6", users.Email{Subject: "Hello", Body: "Welcome aboard"})
		require.NoError(t, err)
		sent := fb.EmailsSent()
		require.Len(t, sent, 1)
		require.Equal(t, "Hello", sent[0]["subject"])

		err = svc.SendEmail(ctx, "6", users.Email{Subject: " "})
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}

func TestMe(t *testing.T) {
	svc, _ := setupService(t)
	me, err := svc.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, fakebackend.AdminEmail, me.Email)
	require.True(t, me.IsAdmin)
	require.Equal(t, "Ada Admin", me.DisplayName())
	require.False(t, me.CreatedAt.IsZero())
}

func TestUserHelpers(t *testing.T) {
	u := &users.User{Email: "x@example.com", IsActive: true}
	require.Equal(t, "x@example.com", u.DisplayName())
	require.True(t, u.Allows(users.ActionDeactivate))
	require.False(t, u.Allows(users.ActionActivate))
	require.True(t, u.Allows(users.ActionBan))
	require.False(t, u.Allows(users.ActionUnban))

	a, ok := users.ParseAction("Verify-Email")
	require.True(t, ok)
	require.Equal(t, users.ActionVerifyEmail, a)
	_, ok = users.ParseAction("nope")
	require.False(t, ok)
}
