package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type listRefreshed struct {
	Entity string
	Count  int
}

func TestPublish_DeliversToMatchingHandler(t *testing.T) {
	bus := NewEventPublisher(nil)

	var got []listRefreshed
	bus.Subscribe(func(ev listRefreshed) {
		got = append(got, ev)
	})

	bus.Publish(listRefreshed{Entity: "vendors", Count: 3})
	bus.Publish("unrelated string event")

	require.Len(t, got, 1)
	require.Equal(t, "vendors", got[0].Entity)
	require.Equal(t, 3, got[0].Count)
}

func TestPublish_RecoversFromHandlerPanic(t *testing.T) {
	bus := NewEventPublisher(nil)

	calls := 0
	bus.Subscribe(func(ev listRefreshed) { panic("boom") })
	bus.Subscribe(func(ev listRefreshed) { calls++ })

	require.NotPanics(t, func() {
		bus.Publish(listRefreshed{Entity: "bills"})
	})
	require.Equal(t, 1, calls)
}

func TestUnsubscribe_RemovesHandler(t *testing.T) {
	bus := NewEventPublisher(nil)

	h := func(ev listRefreshed) {}
	bus.Subscribe(h)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(h)
	require.Equal(t, 0, bus.SubscribersCount())
}
