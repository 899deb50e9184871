package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelDispatchReachesEverySubscriber(t *testing.T) {
	var ch Channel[string]
	var a, b []string

	_, err := ch.Subscribe(func(v string) { a = append(a, v) })
	require.NoError(t, err)
	_, err = ch.Subscribe(func(v string) { b = append(b, v) })
	require.NoError(t, err)

	ch.Dispatch("one")
	ch.Dispatch("two")

	require.Equal(t, []string{"one", "two"}, a)
	require.Equal(t, []string{"one", "two"}, b)
}

func TestChannelDisposeStopsDelivery(t *testing.T) {
	var ch Channel[int]
	calls := 0
	sub, err := ch.Subscribe(func(int) { calls++ })
	require.NoError(t, err)

	ch.Dispatch(1)
	sub.Dispose()
	sub.Dispose()
	ch.Dispatch(2)

	require.Equal(t, 1, calls)
	require.Zero(t, ch.Len())
}

func TestChannelRejectsNilCallback(t *testing.T) {
	var ch Channel[int]
	_, err := ch.Subscribe(nil)
	require.ErrorIs(t, err, ErrNilCallback)
}

func TestChannelDispatchWithoutSubscribers(t *testing.T) {
	var ch Channel[int]
	require.NotPanics(t, func() { ch.Dispatch(1) })
}

func TestDisposersTearDownTogether(t *testing.T) {
	var titles Channel[string]
	var states Channel[RoomState]
	var group Disposers

	listen(&group, &titles, func(string) {})
	listen(&group, &states, func(RoomState) {})
	require.Equal(t, 1, titles.Len())
	require.Equal(t, 1, states.Len())

	group.Dispose()
	require.Zero(t, titles.Len())
	require.Zero(t, states.Len())
	require.Empty(t, group)
}

func TestChannelSameCallbackTwiceYieldsSeparateHandles(t *testing.T) {
	var ch Channel[int]
	calls := 0
	fn := func(int) { calls++ }

	first, err := ch.Subscribe(fn)
	require.NoError(t, err)
	second, err := ch.Subscribe(fn)
	require.NoError(t, err)
	require.Equal(t, 2, ch.Len())

	first.Dispose()
	ch.Dispatch(1)
	require.Equal(t, 1, calls)

	second.Dispose()
	ch.Dispatch(2)
	require.Equal(t, 1, calls)
	require.Zero(t, ch.Len())
}
