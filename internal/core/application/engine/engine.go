// Package engine runs the order lifecycle of the partner client. One goroutine owns
// the lifecycle aggregate and applies every event in arrival order: user input,
// countdown ticks, dwell and settle timers, route responses and location samples.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/ports"
)

var (
	ErrEngineStopped        = errors.New("engine is not running")
	ErrEngineAlreadyRunning = errors.New("engine is already running")
	ErrPartnerOffline       = errors.New("partner is offline")
	ErrGestureNotExpected   = errors.New("gesture does not belong to the current stage")
	ErrCommitPending        = errors.New("a committed swipe is settling")
	ErrUnknownPhase         = errors.New("unknown gesture phase")
)

// PresenceReader is the read side of the presence flag.
type PresenceReader interface {
	IsOnline() bool
}

// AlertController loops the new-offer alert. Stop returns once playback halted.
type AlertController interface {
	Start(ctx context.Context)
	Stop()
}

// LocationReader yields the latest known position.
type LocationReader interface {
	Current() kernel.LocationSample
}

// DeliveryRecorder stores settled deliveries.
type DeliveryRecorder interface {
	Handle(ctx context.Context, cmd commands.RecordDeliveryCommand) error
}

// Deps are the collaborators of an Engine. Recorder may be nil.
type Deps struct {
	Presence PresenceReader
	Alert    AlertController
	Routes   ports.RouteProvider
	Store    ports.StateStore
	Events   ports.EventPublisher
	Location LocationReader
	Recorder DeliveryRecorder
}

type event interface{}

type message struct {
	ev    event
	reply chan error
}

// Engine is the runtime of the lifecycle state machine. Every exported method is
// safe for concurrent use; methods that change state block until the loop has
// applied them and return the loop's verdict.
type Engine struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	inbox   chan message
	stopped chan struct{}
	started atomic.Bool
	stage   atomic.Int32

	tasks     sync.WaitGroup
	recorders sync.WaitGroup

	// Owned by the loop goroutine.
	l      *lifecycle.Lifecycle
	swipes map[gesture.Action]*gesture.Swipe
	timers timers
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Engine {
	e := &Engine{
		cfg:     cfg.withDefaults(),
		deps:    deps,
		logger:  logger.With("component", "engine"),
		now:     time.Now,
		inbox:   make(chan message, inboxSize),
		stopped: make(chan struct{}),
		l:       lifecycle.New(),
		swipes:  make(map[gesture.Action]*gesture.Swipe),
	}
	e.stage.Store(int32(lifecycle.Idle))
	return e
}

// Run restores the persisted active order, re-arms its timers and applies events
// until ctx is done. On exit every timer is stopped, the alert is silenced and
// in-flight delivery records are awaited.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrEngineAlreadyRunning
	}

	e.restore(ctx)

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case m := <-e.inbox:
			err := e.handle(ctx, m.ev)
			if m.reply != nil {
				m.reply <- err
			}
		}
	}
}

// FollowLocation feeds tracked samples into the loop until ctx is done or samples
// is closed.
func (e *Engine) FollowLocation(ctx context.Context, samples <-chan kernel.LocationSample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			e.post(locationSampled{sample: s})
		}
	}
}

// Stage is a lock-free read of the current stage.
func (e *Engine) Stage() lifecycle.Stage {
	return lifecycle.Stage(e.stage.Load())
}

func (e *Engine) IsIdle() bool {
	return e.Stage() == lifecycle.Idle
}

// submit hands an event to the loop and waits for it to be applied.
func (e *Engine) submit(ctx context.Context, ev event) error {
	reply := make(chan error, 1)
	select {
	case e.inbox <- message{ev: ev, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrEngineStopped
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrEngineStopped
	}
}

// post hands an event to the loop without waiting. It is used by timers and
// background fetches, whose events may be stale by the time they are applied.
func (e *Engine) post(ev event) {
	select {
	case e.inbox <- message{ev: ev}:
	case <-e.stopped:
	}
}

func (e *Engine) handle(ctx context.Context, ev event) error {
	switch ev := ev.(type) {
	case presentOffer:
		return e.onPresentOffer(ctx, ev)
	case selectReason:
		return e.l.SelectRejectionReason(ev.reason)
	case rejectOffer:
		return e.onReject(ctx, ev)
	case gestureInput:
		return e.onGesture(ctx, ev)
	case dismissPanel:
		return e.onDismiss(ctx)
	case submitRating:
		return e.onRating(ctx, ev)
	case viewRequest:
		*ev.out = e.view()
		return nil
	case countdownTick:
		return e.onTick(ctx, ev)
	case settleFired:
		return e.onSettle(ctx, ev)
	case dwellElapsed:
		return e.onDwell(ctx, ev)
	case routeResolved:
		return e.onRoute(ctx, ev)
	case locationSampled:
		return e.onLocation(ctx, ev)
	default:
		e.logger.Error("unknown event", "type", fmt.Sprintf("%T", ev))
		return nil
	}
}

func (e *Engine) shutdown() {
	e.timers.stopAll()
	e.deps.Alert.Stop()
	close(e.stopped)
	e.tasks.Wait()
	e.recorders.Wait()
	e.logger.Info("engine stopped", "stage", e.l.Stage().String())
}
