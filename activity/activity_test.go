package activity_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/activity"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)
	svc := activity.NewService(c)
	ctx := context.Background()

	t.Run("audit logs", func(t *testing.T) {
		page, err := svc.AuditLogs(ctx, activity.ListParams{Page: 3})
		require.NoError(t, err)
		require.Equal(t, 42, page.Total)
		require.Len(t, page.Logs, 2)
		require.False(t, page.Window.HasNext())
		require.Equal(t, "reason=spam", page.Logs[0].Summary())
	})

	t.Run("page visits", func(t *testing.T) {
		page, err := svc.PageVisits(ctx, activity.ListParams{})
		require.NoError(t, err)
		require.Equal(t, 7, page.Total)
		require.Equal(t, 1, page.Window.TotalPages)
		require.Equal(t, "anonymous", page.Visits[0].Visitor())
	})
}

func TestSummary(t *testing.T) {
	l := activity.AuditLog{Details: json.RawMessage(`{"b":2,"a":"x"}`)}
	require.Equal(t, "a=x b=2", l.Summary())

	l = activity.AuditLog{Details: json.RawMessage(`"plain"`)}
	require.Equal(t, `"plain"`, l.Summary())

	require.Empty(t, activity.AuditLog{}.Summary())
}

func TestVisitor(t *testing.T) {
	require.Equal(t, "a@b.c", activity.PageVisit{UserEmail: utils.Ptr("a@b.c")}.Visitor())
	require.Equal(t, "anonymous", activity.PageVisit{UserEmail: utils.Ptr("")}.Visitor())
}
