package scheduler

import (
	"sync"
	"time"

	"castsync/internal/ledger"
)

// Event is one progress or status update published by the scheduler.
type Event struct {
	Feed    string
	VideoID string
	Title   string
	Status  ledger.Status
	Percent float64
	Message string
	Time    time.Time
}

const subscriberBuffer = 64

// Hub fans download events out to observers. Publishing never blocks: a
// subscriber that falls behind loses events instead of stalling a
// transfer.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe registers an observer. The returned cancel function must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber with room in its buffer.
func (h *Hub) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
