package poller_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/poller"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

func TestNew(t *testing.T) {
	_, err := poller.New(0, func(context.Context) (bool, error) { return false, nil })
	require.Error(t, err)
	_, err = poller.New(time.Second, nil)
	require.Error(t, err)
}

func TestStopsWhenIdle(t *testing.T) {
	var calls atomic.Int32
	p, err := poller.New(tick, func(context.Context) (bool, error) {
		n := calls.Add(1)
		return n < 3, nil
	}, poller.StopWhenIdle())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Equal(t, int32(3), calls.Load())
	require.False(t, p.InFlight())
}

func TestErrorsKeepPolling(t *testing.T) {
	var calls atomic.Int32
	var errs atomic.Int32
	p, err := poller.New(tick, func(context.Context) (bool, error) {
		if calls.Add(1) <= 2 {
			return false, fmt.Errorf("backend down")
		}
		return false, nil
	}, poller.StopWhenIdle(), poller.WithErrorHandler(func(error) { errs.Add(1) }))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Equal(t, int32(2), errs.Load())
	require.Equal(t, int32(3), calls.Load())
}

func TestIdleUntilKicked(t *testing.T) {
	var calls atomic.Int32
	p, err := poller.New(tick, func(context.Context) (bool, error) {
		calls.Add(1)
		return false, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, tick)
	time.Sleep(6 * tick)
	require.Equal(t, int32(1), calls.Load(), "idle poller must not fetch on ticks")

	p.Kick()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, tick)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
