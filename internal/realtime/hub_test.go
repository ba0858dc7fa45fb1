package realtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.DiscardHandler))
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := newTestHub()

	events, cancel := hub.Subscribe()
	defer cancel()

	hub.Broadcast(Event{Table: "items"})

	select {
	case event := <-events:
		require.Equal(t, "items", event.Table)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	hub := newTestHub()

	_, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	require.Equal(t, 0, hub.SubscriberCount())

	// Broadcasting with no subscribers is a no-op.
	hub.Broadcast(Event{Table: "lists"})
}

func TestSlowSubscriberDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	// Never read; the buffer fills and further events are dropped
	// instead of blocking the broadcaster.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(Event{Table: "items"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
