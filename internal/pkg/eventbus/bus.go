// Package eventbus is the in-process broadcast channel for fire-and-forget events.
// Publishers never block: a subscriber whose buffer is full misses the event.
package eventbus

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

const DefaultBuffer = 64

// Event is one broadcast message.
type Event struct {
	Topic   string    `json:"topic"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

type subscription struct {
	ch     chan Event
	topics []string
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
	logger *slog.Logger
	now    func() time.Time
}

func New(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[uint64]*subscription),
		buffer: buffer,
		logger: logger.With("component", "eventbus"),
		now:    time.Now,
	}
}

// Publish delivers the event to every matching subscriber without waiting.
func (b *Bus) Publish(topic string, payload any) {
	ev := Event{Topic: topic, Payload: payload, At: b.now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, s := range b.subs {
		if len(s.topics) > 0 && !slices.Contains(s.topics, topic) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			b.logger.Debug("subscriber is behind, event dropped", "subscriber", id, "topic", topic)
		}
	}
}

// Subscribe returns a channel of events for the given topics, or all topics when
// none are given. The returned cancel func closes the channel; it is safe to call
// more than once.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	s := &subscription{ch: make(chan Event, b.buffer), topics: topics}
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.ch)
		})
	}
}

// Subscribers is the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
