// Package tracking turns raw device fixes into validated location samples, keeps the
// route history and the map marker, and feeds samples to the rest of the client.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/ports"
	"partner/internal/observability"
	"partner/internal/pkg/errs"
)

const (
	DefaultFixTimeout   = 10 * time.Second
	DefaultHistoryLimit = 1000
	subscriberBuffer    = 16
)

// PresenceReader is the read side of the presence flag.
type PresenceReader interface {
	IsOnline() bool
}

type Config struct {
	FixTimeout   time.Duration
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{FixTimeout: DefaultFixTimeout, HistoryLimit: DefaultHistoryLimit}
}

// Deps are the collaborators of a Tracker. Publisher may be nil.
type Deps struct {
	Geolocation ports.Geolocation
	Store       ports.StateStore
	Presence    PresenceReader
	Marker      ports.MarkerSurface
	Publisher   ports.LocationPublisher
	Events      ports.EventPublisher
}

// Tracker is the single writer of the partner's location.
type Tracker struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current kernel.LocationSample
	hasFix  bool
	live    bool
	history []kernel.GeoPoint
	subs    map[int]chan kernel.LocationSample
	nextSub int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker(cfg Config, deps Deps, logger *slog.Logger) *Tracker {
	if cfg.FixTimeout <= 0 {
		cfg.FixTimeout = DefaultFixTimeout
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Tracker{
		deps:    deps,
		cfg:     cfg,
		logger:  logger.With("component", "tracker"),
		now:     time.Now,
		current: kernel.LocationSample{Point: kernel.DefaultGeoPoint},
		subs:    make(map[int]chan kernel.LocationSample),
	}
}

func (t *Tracker) options() ports.PositionOptions {
	return ports.PositionOptions{EnableHighAccuracy: true, Timeout: t.cfg.FixTimeout, MaximumAge: 0}
}

// Start (re)starts tracking: it clears the route history, seeds the position from
// the persisted last-known location, takes a one-shot fix and then opens the
// continuous watch. Geolocation failures leave the tracker running in degraded mode.
func (t *Tracker) Start(ctx context.Context) error {
	t.Stop()

	t.mu.Lock()
	t.history = t.history[:0]
	t.hasFix = false
	t.live = false
	t.mu.Unlock()
	observability.TrackingLive.Set(0)

	t.restoreLastKnown(ctx)

	fixCtx, cancelFix := context.WithTimeout(ctx, t.cfg.FixTimeout)
	pos, err := t.deps.Geolocation.CurrentPosition(fixCtx, t.options())
	cancelFix()
	if err != nil {
		t.HandleError(err)
	} else {
		t.Ingest(ctx, pos)
	}

	runCtx, cancel := context.WithCancel(ctx)
	updates, err := t.deps.Geolocation.WatchPosition(runCtx, t.options())
	if err != nil {
		cancel()
		t.HandleError(err)
		return ctx.Err()
	}

	done := make(chan struct{})
	t.runMu.Lock()
	t.cancel, t.done = cancel, done
	t.runMu.Unlock()

	go t.consume(runCtx, updates, done)
	return nil
}

// Stop closes the watch and waits for the consumer to exit.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tracker) consume(ctx context.Context, updates <-chan ports.PositionUpdate, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				t.logger.Warn("location watch closed")
				t.setLive(false)
				return
			}
			if u.Err != nil {
				t.HandleError(u.Err)
				continue
			}
			t.Ingest(ctx, u.Position)
		}
	}
}

// Ingest validates a device fix and, if it is valid, makes it the current sample.
// An invalid fix is discarded and the current sample is returned unchanged with
// ok=false.
func (t *Tracker) Ingest(ctx context.Context, pos ports.Position) (sample kernel.LocationSample, ok bool) {
	point, err := pointOf(pos.Coords)
	if err != nil {
		observability.InvalidSamplesTotal.Inc()
		t.logger.Warn("discarding invalid location sample", "error", err)
		return t.Current(), false
	}

	ts := pos.Timestamp
	if ts.IsZero() {
		ts = t.now()
	}

	online := t.deps.Presence.IsOnline()

	t.mu.Lock()
	prev, hadFix := t.current, t.hasFix
	sample = kernel.LocationSample{
		Point:     point,
		Heading:   heading(pos.Coords.Heading, prev, hadFix, point),
		Accuracy:  pos.Coords.Accuracy,
		Timestamp: ts,
	}
	t.current, t.hasFix = sample, true
	wasLive := t.live
	t.live = true
	if online {
		t.history = append(t.history, point)
		if over := len(t.history) - t.cfg.HistoryLimit; over > 0 {
			t.history = append(t.history[:0], t.history[over:]...)
		}
	}
	t.mu.Unlock()

	if !wasLive {
		observability.TrackingLive.Set(1)
	}

	t.persist(ctx, sample)
	t.refreshMarker()
	if online && t.deps.Publisher != nil {
		if err := t.deps.Publisher.Publish(ctx, sample); err != nil {
			t.logger.Warn("location publish failed", "error", err)
		}
	}
	t.deps.Events.Publish(ports.TopicLocation, sample)
	t.fanOut(sample)
	return sample, true
}

// fanOut sends under the read lock; unsubscribing closes a channel only under the
// write lock.
func (t *Tracker) fanOut(sample kernel.LocationSample) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, ch := range t.subs {
		select {
		case ch <- sample:
		default:
		}
	}
}

func pointOf(c ports.Coords) (kernel.GeoPoint, error) {
	if c.Latitude == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("latitude")
	}
	if c.Longitude == nil {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("longitude")
	}
	return kernel.NewGeoPoint(*c.Latitude, *c.Longitude)
}

// HandleError records a geolocation failure. Permission failures switch the tracker
// to degraded mode: the last-known position stays current but is no longer live.
func (t *Tracker) HandleError(err error) {
	code := "unknown"
	var perr *ports.PositionError
	if errors.As(err, &perr) {
		code = strconv.Itoa(int(perr.Code))
	} else if errors.Is(err, context.DeadlineExceeded) {
		code = strconv.Itoa(int(ports.Timeout))
	}
	observability.LocationErrorsTotal.WithLabelValues(code).Inc()

	if perr != nil && perr.Code == ports.PermissionDenied {
		t.logger.Warn("location permission denied, tracking degraded", "error", err)
		t.setLive(false)
		return
	}
	t.logger.Warn("location fix failed", "code", code, "error", err)
}

// Current is the latest valid sample, or the persisted or default location when no
// fix has arrived yet.
func (t *Tracker) Current() kernel.LocationSample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// History is a copy of the route travelled while online since the last Start.
func (t *Tracker) History() []kernel.GeoPoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]kernel.GeoPoint, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Tracker) IsLive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Subscribe streams every accepted sample. A subscriber that falls behind misses
// samples rather than blocking the tracker.
func (t *Tracker) Subscribe() (<-chan kernel.LocationSample, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	ch := make(chan kernel.LocationSample, subscriberBuffer)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			close(ch)
			t.mu.Unlock()
		})
	}
}

// EnsureMarker re-attaches the marker if its host surface dropped it and redraws
// it. It reports whether a re-attach happened.
func (t *Tracker) EnsureMarker() (bool, error) {
	reattached := false
	if !t.deps.Marker.IsAttached() {
		if err := t.deps.Marker.Attach(); err != nil {
			return false, err
		}
		observability.MarkerReattachTotal.Inc()
		t.logger.Info("marker was detached, re-attached")
		reattached = true
	}
	t.refreshMarker()
	return reattached, nil
}

// FollowPresence redraws the marker whenever the presence flag changes, hiding it
// while offline.
func (t *Tracker) FollowPresence(ctx context.Context, changes <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			t.refreshMarker()
		}
	}
}

func (t *Tracker) refreshMarker() {
	if !t.deps.Marker.IsAttached() {
		return
	}
	t.mu.RLock()
	m := ports.Marker{
		Position: t.current.Point,
		Heading:  t.current.Heading,
		Visible:  t.deps.Presence.IsOnline(),
		Live:     t.live,
	}
	t.mu.RUnlock()
	if err := t.deps.Marker.Update(m); err != nil {
		t.logger.Warn("marker update failed", "error", err)
	}
}

func (t *Tracker) setLive(live bool) {
	t.mu.Lock()
	t.live = live
	t.mu.Unlock()
	if live {
		observability.TrackingLive.Set(1)
	} else {
		observability.TrackingLive.Set(0)
	}
	t.refreshMarker()
}

func (t *Tracker) restoreLastKnown(ctx context.Context) {
	raw, ok, err := t.deps.Store.Get(ctx, ports.KeyLastLocation)
	if err != nil {
		t.logger.Warn("reading last known location failed", "error", err)
		return
	}
	if !ok {
		return
	}
	var s kernel.LocationSample
	if err = json.Unmarshal(raw, &s); err != nil {
		t.logger.Warn("discarding malformed last known location", "error", err)
		return
	}
	t.mu.Lock()
	t.current = s
	t.mu.Unlock()
}

func (t *Tracker) persist(ctx context.Context, s kernel.LocationSample) {
	raw, err := json.Marshal(s)
	if err != nil {
		t.logger.Warn("encoding location failed", "error", err)
		return
	}
	if err = t.deps.Store.Set(ctx, ports.KeyLastLocation, raw); err != nil {
		t.logger.Warn("persisting location failed", "error", err)
	}
}

// heading prefers the device reading; otherwise it is the bearing from the previous
// fix, or the previous heading when the partner has not moved.
func heading(device *float64, prev kernel.LocationSample, hadFix bool, curr kernel.GeoPoint) float64 {
	if device != nil && !math.IsNaN(*device) && !math.IsInf(*device, 0) {
		return kernel.NormalizeHeading(*device)
	}
	if !hadFix {
		return prev.Heading
	}
	if same, err := prev.Point.IsEqual(curr); err != nil || same {
		return prev.Heading
	}
	b, err := prev.Point.BearingTo(curr)
	if err != nil {
		return prev.Heading
	}
	return b
}
