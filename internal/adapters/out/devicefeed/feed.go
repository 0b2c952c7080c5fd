// Package devicefeed is a Geolocation whose fixes are pushed in from outside, by the
// phone posting its readings to the HTTP API.
package devicefeed

import (
	"context"
	"sync"
	"time"

	"partner/internal/core/ports"
)

const watchBuffer = 16

// Feed implements ports.Geolocation.
type Feed struct {
	now func() time.Time

	mu       sync.Mutex
	last     ports.Position
	hasLast  bool
	waiters  map[int]chan ports.PositionUpdate
	watchers map[int]chan ports.PositionUpdate
	nextID   int
}

func New() *Feed {
	return &Feed{
		now:      time.Now,
		waiters:  make(map[int]chan ports.PositionUpdate),
		watchers: make(map[int]chan ports.PositionUpdate),
	}
}

// Push delivers a device reading. The reading is not validated here.
func (f *Feed) Push(pos ports.Position) {
	if pos.Timestamp.IsZero() {
		pos.Timestamp = f.now()
	}
	f.mu.Lock()
	f.last, f.hasLast = pos, true
	f.mu.Unlock()
	f.deliver(ports.PositionUpdate{Position: pos})
}

// PushError delivers a device error such as a denied permission.
func (f *Feed) PushError(err *ports.PositionError) {
	f.deliver(ports.PositionUpdate{Err: err})
}

// CurrentPosition returns the last pushed reading if it is younger than
// opts.MaximumAge, otherwise it waits for the next push. Waiting longer than
// opts.Timeout fails with a Timeout PositionError.
func (f *Feed) CurrentPosition(ctx context.Context, opts ports.PositionOptions) (ports.Position, error) {
	f.mu.Lock()
	if f.hasLast && opts.MaximumAge > 0 && f.now().Sub(f.last.Timestamp) <= opts.MaximumAge {
		pos := f.last
		f.mu.Unlock()
		return pos, nil
	}
	id := f.nextID
	f.nextID++
	ch := make(chan ports.PositionUpdate, 1)
	f.waiters[id] = ch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.waiters, id)
		f.mu.Unlock()
	}()

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		t := time.NewTimer(opts.Timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case u := <-ch:
		if u.Err != nil {
			return ports.Position{}, u.Err
		}
		return u.Position, nil
	case <-timeout:
		return ports.Position{}, &ports.PositionError{Code: ports.Timeout, Message: "no fix within " + opts.Timeout.String()}
	case <-ctx.Done():
		return ports.Position{}, ctx.Err()
	}
}

// WatchPosition streams every push until ctx is done. A watcher that falls behind
// misses readings.
func (f *Feed) WatchPosition(ctx context.Context, _ ports.PositionOptions) (<-chan ports.PositionUpdate, error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	ch := make(chan ports.PositionUpdate, watchBuffer)
	f.watchers[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.watchers, id)
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}

func (f *Feed) deliver(u ports.PositionUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.waiters {
		select {
		case ch <- u:
		default:
		}
		delete(f.waiters, id)
	}
	for _, ch := range f.watchers {
		select {
		case ch <- u:
		default:
		}
	}
}
