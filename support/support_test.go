package support_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/support"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)
	svc := support.NewService(c)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		page, err := svc.Threads(ctx, support.ListParams{})
		require.NoError(t, err)
		require.Equal(t, 2, page.Total)
		require.Equal(t, 1, page.Threads[0].MessageCount)

		open, err := svc.Threads(ctx, support.ListParams{Status: support.StatusOpen})
		require.NoError(t, err)
		require.Len(t, open.Threads, 1)
	})

	t.Run("thread with messages", func(t *testing.T) {
		th, err := svc.Thread(ctx, "10")
		require.NoError(t, err)
		require.Equal(t, "Cannot export leads", th.Subject)
		require.Len(t, th.Messages, 1)
		require.Contains(t, string(th.Messages[0].HTML()), "<strong>fails</strong>")
	})

	t.Run("reply", func(t *testing.T) {
		m, err := svc.Reply(ctx, "10", "Fixed, please retry.")
		require.NoError(t, err)
		require.True(t, m.IsAdmin)

		th, err := svc.Thread(ctx, "10")
		require.NoError(t, err)
		require.Len(t, th.Messages, 2)

		_, err = svc.Reply(ctx, "10", "   ")
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("status", func(t *testing.T) {
		th, err := svc.SetStatus(ctx, "10", support.StatusResolved)
		require.NoError(t, err)
		require.Equal(t, support.StatusResolved, th.Status)

		_, err = svc.SetStatus(ctx, "10", "archived")
		require.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("missing thread", func(t *testing.T) {
		_, err := svc.Thread(ctx, "404")
		require.Error(t, err)
	})
}

func TestRenderMarkdown(t *testing.T) {
	out := string(support.RenderMarkdown("hello <script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |"))
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "<table>")
}
