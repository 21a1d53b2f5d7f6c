package server

import (
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 100

// Event is the JSON form of one poll result, as streamed over SSE.
type Event struct {
	Cycle     int       `json:"cycle"`
	StoreID   string    `json:"store_id"`
	Title     string    `json:"title"`
	Outcome   string    `json:"outcome"`
	Previous  *string   `json:"previous"`
	Current   *string   `json:"current"`
	CheckedAt time.Time `json:"checked_at"`
	Error     *string   `json:"error,omitempty"`
}

// Hub fans poll events out to SSE subscribers and remembers the latest event
// per store.
//
// Sends are non-blocking; if a subscriber's buffer is full the event is
// dropped for that subscriber.
type Hub struct {
	mu     sync.RWMutex
	latest map[string]Event
	order  []string

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewHub creates an empty [Hub].
func NewHub() *Hub {
	return &Hub{
		latest:      make(map[string]Event),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish records ev as the latest event for its store and notifies all
// subscribers.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	if _, seen := h.latest[ev.StoreID]; !seen {
		h.order = append(h.order, ev.StoreID)
	}
	h.latest[ev.StoreID] = ev
	h.mu.Unlock()

	h.subMu.RLock()
	defer h.subMu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}

// Latest returns the most recent event of every store, in first-seen order.
func (h *Hub) Latest() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Event, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.latest[id])
	}
	return out
}

// Subscribe returns a channel receiving every subsequent event.
//
// Caller must call [Hub.Unsubscribe] when done.
func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	h.subMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}
