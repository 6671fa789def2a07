package subscriptions_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/subscriptions"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)
	svc := subscriptions.NewService(c)

	t.Run("second page", func(t *testing.T) {
		page, err := svc.List(context.Background(), subscriptions.ListParams{Page: 2, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 23, page.Total)
		require.Len(t, page.Subscriptions, 10)
		require.Equal(t, 3, page.Window.TotalPages)
		require.True(t, page.Window.HasNext())

		req, _ := fb.Last("GET /api/v1/admin/subscriptions")
		q, _ := url.ParseQuery(req.Query)
		require.Equal(t, "10", q.Get("skip"))
	})

	t.Run("status filter", func(t *testing.T) {
		page, err := svc.List(context.Background(), subscriptions.ListParams{Status: "canceled"})
		require.NoError(t, err)
		for _, s := range page.Subscriptions {
			require.Equal(t, "canceled", s.Status)
		}
		require.NotEmpty(t, page.Subscriptions)
		require.False(t, page.Subscriptions[0].CurrentPeriodEnd.IsZero())
	})
}

func TestPrice(t *testing.T) {
	require.Equal(t, "29.00 USD", subscriptions.Subscription{Amount: 29, Currency: "usd"}.Price())
	require.Equal(t, "9.50 USD", subscriptions.Subscription{Amount: 9.5}.Price())
}
