package system_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/jrsteele09/clienthunt-admin/system"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)

	st, err := system.NewService(c).Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, system.Healthy, st.Status)
	require.Equal(t, 24*time.Hour, st.Uptime())
	require.Len(t, st.Components, 3)
	require.False(t, st.Healthy())

	bad := st.Unhealthy()
	require.Len(t, bad, 1)
	require.Equal(t, "stripe", bad[0].Name)
}

func TestStatusRequiresAdmin(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.MemberEmail)
	require.NoError(t, err)

	_, err = system.NewService(c).Status(context.Background())
	require.Error(t, err)
}
