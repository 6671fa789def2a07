package notify_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/clienthunt-admin/notify"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	bus := notify.NewBus(notify.WithNowTime(func() time.Time { return now }))

	var got []notify.Toast
	unsubscribe := bus.Subscribe(func(t notify.Toast) { got = append(got, t) })

	s := bus.Success("saved")
	e := bus.Error("failed")
	bus.Info("fyi")
	bus.Warning("careful")

	require.Len(t, got, 4)
	require.NotEmpty(t, s.ID)
	require.NotEqual(t, s.ID, e.ID)
	require.Equal(t, notify.LevelSuccess, got[0].Level)
	require.Equal(t, notify.DefaultDuration, s.Duration)
	require.Equal(t, notify.ErrorDuration, e.Duration)
	require.Equal(t, now, s.CreatedAt)

	unsubscribe()
	unsubscribe()
	bus.Info("unheard")
	require.Len(t, got, 4)
}

func TestInbox(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	bus := notify.NewBus(notify.WithNowTime(clock))

	t.Run("drain returns and empties", func(t *testing.T) {
		inbox := notify.NewInbox(notify.WithInboxClock(clock))
		detach := inbox.Attach(bus)
		defer detach()

		bus.Success("one")
		bus.Error("two")
		require.Equal(t, 2, inbox.Len())

		toasts := inbox.Drain()
		require.Len(t, toasts, 2)
		require.Equal(t, "one", toasts[0].Message)
		require.Empty(t, inbox.Drain())
	})

	t.Run("expired toasts are dropped", func(t *testing.T) {
		later := now
		inbox := notify.NewInbox(notify.WithInboxClock(func() time.Time { return later }))
		detach := inbox.Attach(bus)
		defer detach()

		bus.Success("short")
		bus.Error("long")

		later = now.Add(6 * time.Second)
		toasts := inbox.Drain()
		require.Len(t, toasts, 1)
		require.Equal(t, "long", toasts[0].Message)
	})

	t.Run("bounded", func(t *testing.T) {
		inbox := notify.NewInbox(notify.WithInboxClock(clock), notify.WithMaxToasts(2))
		detach := inbox.Attach(bus)
		defer detach()

		bus.Info("a")
		bus.Info("b")
		bus.Info("c")
		toasts := inbox.Drain()
		require.Len(t, toasts, 2)
		require.Equal(t, "b", toasts[0].Message)
	})

	t.Run("dismiss", func(t *testing.T) {
		inbox := notify.NewInbox(notify.WithInboxClock(clock))
		detach := inbox.Attach(bus)
		defer detach()

		toast := bus.Info("x")
		require.True(t, inbox.Dismiss(toast.ID))
		require.False(t, inbox.Dismiss(toast.ID))
		require.Zero(t, inbox.Len())
	})
}
