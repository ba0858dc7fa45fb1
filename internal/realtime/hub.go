// Package realtime delivers change notifications: Postgres triggers
// emit the changed table's name on one NOTIFY channel, a listener
// connection picks it up, and the hub fans it out to subscribers. The
// payload is only "table X changed"; clients respond with a full
// refresh, never a partial patch.
package realtime

import (
	"log/slog"
	"sync"
)

// Event says something in a table changed. Nothing more.
type Event struct {
	Table string `json:"table"`
}

// Hub fans events out to in-process subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	log  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[chan Event]struct{}),
		log:  log,
	}
}

// Subscribe registers a subscriber and returns its channel plus a
// cancel function. The channel is buffered; events a slow subscriber
// cannot take are dropped for that subscriber, a redundant refresh is
// cheaper than a blocked broadcast.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers the event to every subscriber that can take it.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.log.Debug("dropping realtime event for slow subscriber", "table", event.Table)
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
