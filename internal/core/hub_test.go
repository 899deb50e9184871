package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHubRunsTasksInOrder(t *testing.T) {
	hub, _ := startHub(t)
	ctx := context.Background()

	var order []int
	for i := 0; i < 10; i++ {
		require.NoError(t, hub.Do(ctx, func() error {
			order = append(order, i)
			return nil
		}))
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestHubDeferRunsAfterTask(t *testing.T) {
	hub, _ := startHub(t)

	var order []string
	err := hub.Do(context.Background(), func() error {
		hub.Defer(func() { order = append(order, "deferred") })
		order = append(order, "task")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"task", "deferred"}, order)
}

func TestHubReturnsTaskError(t *testing.T) {
	hub, _ := startHub(t)
	boom := errors.New("boom")
	require.ErrorIs(t, hub.Do(context.Background(), func() error { return boom }), boom)
}

func TestHubRecoversPanics(t *testing.T) {
	hub, _ := startHub(t)
	err := hub.Do(context.Background(), func() error { panic("bad") })
	require.Error(t, err)
	require.NoError(t, hub.Do(context.Background(), func() error { return nil }))
}

func TestHubStopped(t *testing.T) {
	hub, cancel := startHub(t)
	cancel()

	require.Eventually(t, func() bool {
		return errors.Is(hub.Do(context.Background(), func() error { return nil }), ErrHubStopped)
	}, time.Second, 10*time.Millisecond)
}

func TestHubAsRoomScheduler(t *testing.T) {
	hub, _ := startHub(t)
	room := NewRoom(RoomInfo{RoomID: "r"}, WithScheduler(hub))
	conn := &fakeConn{}

	err := hub.Do(context.Background(), func() error {
		if _, err := room.AddDisplay(conn); err != nil {
			return err
		}
		return room.Dispose()
	})
	require.NoError(t, err)
	require.Equal(t, 1, conn.closes)
}
