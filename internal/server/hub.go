package server

import (
	"sync"

	"github.com/Marketen/epoch-clock/internal/application/domain"
	"github.com/Marketen/epoch-clock/internal/logger"
)

const subscriberBuffer = 16

// SubscriberGauge tracks the number of open subscriptions.
type SubscriberGauge interface {
	SubscriberAdded()
	SubscriberRemoved()
}

// Subscription receives the events of one schedule until it is unsubscribed or dropped.
type Subscription struct {
	key    domain.ScheduleKey
	events chan domain.EpochEvent
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan domain.EpochEvent {
	return s.events
}

// Hub fans epoch events out to stream subscribers. It implements ports.EpochPublisher.
// Publish never blocks: a subscriber whose buffer is full is dropped and its channel closed.
type Hub struct {
	gauge SubscriberGauge

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub(gauge SubscriberGauge) *Hub {
	return &Hub{gauge: gauge, subs: make(map[*Subscription]struct{})}
}

// Subscribe registers interest in events for key. It returns nil once the hub is closed.
func (h *Hub) Subscribe(key domain.ScheduleKey) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	sub := &Subscription{key: key, events: make(chan domain.EpochEvent, subscriberBuffer)}
	h.subs[sub] = struct{}{}
	if h.gauge != nil {
		h.gauge.SubscriberAdded()
	}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *Subscription) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.events)
	if h.gauge != nil {
		h.gauge.SubscriberRemoved()
	}
}

func (h *Hub) Publish(event domain.EpochEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.key != event.Key {
			continue
		}
		select {
		case sub.events <- event:
		default:
			logger.Warn("Dropping slow %s stream subscriber", event.Key)
			h.remove(sub)
		}
	}
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.remove(sub)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
