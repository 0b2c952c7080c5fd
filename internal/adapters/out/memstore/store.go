// Package memstore is a process-local StateStore. It backs single-process runs and
// tests; multi-process deployments use redisstore.
package memstore

import (
	"context"
	"slices"
	"sync"

	"partner/internal/core/ports"
)

const watchBuffer = 64

type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[int]chan ports.StateChange
	nextID   int
}

func New() *Store {
	return &Store{
		data:     make(map[string][]byte),
		watchers: make(map[int]chan ports.StateChange),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = slices.Clone(value)
	s.broadcast(ports.StateChange{Key: key, Value: slices.Clone(value)})
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	s.broadcast(ports.StateChange{Key: key, Deleted: true})
	return nil
}

// Watch streams changes until ctx is done. Changes are dropped for a watcher that
// falls more than watchBuffer behind.
func (s *Store) Watch(ctx context.Context) (<-chan ports.StateChange, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan ports.StateChange, watchBuffer)
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// broadcast must be called with s.mu held.
func (s *Store) broadcast(change ports.StateChange) {
	for _, ch := range s.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}
