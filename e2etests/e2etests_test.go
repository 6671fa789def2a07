package e2etests_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/e2etests"
	"github.com/jrsteele09/clienthunt-admin/internal/fakebackend"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	fb := fakebackend.New()
	defer fb.Close()
	c, _, err := fb.NewClient(fakebackend.AdminEmail)
	require.NoError(t, err)
	svc := e2etests.NewService(c)
	ctx := context.Background()

	results, err := svc.Results(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	require.Equal(t, 3400*time.Millisecond, results.Results[1].Duration())
	require.False(t, results.InFlight())

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Passed)
	require.InDelta(t, 50.0, stats.PassRate, 0.001)
	require.False(t, stats.InFlight())

	run, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, "running", run.Status)
	require.Equal(t, "run-3", run.RunID.String())

	_, _, inFlight, err := svc.Snapshot(ctx, 10)
	require.NoError(t, err)
	require.True(t, inFlight)

	fb.SetRunning(false)
	cleared, err := svc.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, cleared.Deleted)

	results, stats, inFlight, err = svc.Snapshot(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, results.Results)
	require.Zero(t, stats.TotalRuns)
	require.False(t, inFlight)
}

func TestInFlight(t *testing.T) {
	var nilStats *e2etests.Stats
	require.False(t, nilStats.InFlight())
	require.True(t, (&e2etests.Stats{Running: 1}).InFlight())

	r := &e2etests.Results{Results: []e2etests.Result{{Status: e2etests.StatusPassed}, {Status: e2etests.StatusPending}}}
	require.True(t, r.InFlight())
}
