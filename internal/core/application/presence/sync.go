// Package presence keeps the partner's online flag consistent across components and
// processes.
//
// The persisted value under ports.KeyPresence is the source of truth. Toggle is the
// only writer. Readers use the cached IsOnline, which Resync refreshes from the
// store; Resync is driven by store change notifications, by Toggle itself, and by a
// periodic poll as a safety net. Every path ends in one deduplicated notification.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"partner/internal/core/ports"
	"partner/internal/observability"
)

// Sync is the presence flag's cache and single writer.
type Sync struct {
	store  ports.StateStore
	events ports.EventPublisher
	logger *slog.Logger

	mu     sync.Mutex
	online bool
	synced bool
	subs   map[int]chan bool
	nextID int
}

func NewSync(store ports.StateStore, events ports.EventPublisher, logger *slog.Logger) *Sync {
	return &Sync{
		store:  store,
		events: events,
		logger: logger.With("component", "presence"),
		subs:   make(map[int]chan bool),
	}
}

// IsOnline returns the cached flag. It is false until the first Resync.
func (s *Sync) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Toggle flips the persisted flag and returns the new value.
func (s *Sync) Toggle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	current, err := s.read(ctx)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	next := !current
	if err = s.store.Set(ctx, ports.KeyPresence, []byte(strconv.FormatBool(next))); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("persist presence: %w", err)
	}
	s.mu.Unlock()

	s.logger.Info("presence toggled", "online", next)
	return s.Resync(ctx)
}

// Resync reloads the persisted flag and notifies subscribers if it changed.
func (s *Sync) Resync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	persisted, err := s.read(ctx)
	if err != nil {
		return s.online, err
	}
	if s.synced && persisted == s.online {
		return s.online, nil
	}

	s.online, s.synced = persisted, true
	s.notify(persisted)
	return persisted, nil
}

// Subscribe receives every change of the flag. A slow subscriber only ever sees the
// latest value.
func (s *Sync) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan bool, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Run resyncs on every store notification for the presence key until ctx is done.
func (s *Sync) Run(ctx context.Context) error {
	if _, err := s.Resync(ctx); err != nil {
		s.logger.Warn("initial presence sync failed", "error", err)
	}

	changes, err := s.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch presence: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Key != ports.KeyPresence {
				continue
			}
			if _, err := s.Resync(ctx); err != nil {
				s.logger.Warn("presence resync failed", "error", err)
			}
		}
	}
}

func (s *Sync) read(ctx context.Context) (bool, error) {
	raw, ok, err := s.store.Get(ctx, ports.KeyPresence)
	if err != nil {
		return false, fmt.Errorf("read presence: %w", err)
	}
	if !ok {
		return false, nil
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		s.logger.Warn("malformed presence value, treating as offline", "value", string(raw))
		return false, nil
	}
	return v, nil
}

// notify must be called with s.mu held.
func (s *Sync) notify(online bool) {
	if online {
		observability.Online.Set(1)
	} else {
		observability.Online.Set(0)
	}
	for _, ch := range s.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
	s.events.Publish(ports.TopicPresenceChanged, online)
}
