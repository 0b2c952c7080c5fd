package engine

import (
	"context"
	"time"

	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/ports"
	"partner/internal/observability"
)

// ExpectedAction returns the swipe that advances stage, if any.
func ExpectedAction(stage lifecycle.Stage) (gesture.Action, bool) {
	switch stage { //nolint:exhaustive // only these stages show a swipe button
	case lifecycle.Offered:
		return gesture.AcceptOrder, true
	case lifecycle.PickupReached:
		return gesture.ReachedPickup, true
	case lifecycle.OrderIDConfirmed:
		return gesture.ConfirmOrderID, true
	case lifecycle.DropReached:
		return gesture.ReachedDrop, true
	case lifecycle.Delivered:
		return gesture.OrderDelivered, true
	default:
		return gesture.UnknownAction, false
	}
}

// Gesture feeds one pointer event to the swipe button of action. width is the
// rendered button width in pixels; zero keeps the last known width.
func (e *Engine) Gesture(ctx context.Context, action gesture.Action, phase Phase, x, y, width float64) (gesture.Progress, error) {
	var p gesture.Progress
	err := e.submit(ctx, gestureInput{action: action, phase: phase, x: x, y: y, width: width, out: &p})
	return p, err
}

// Dismiss handles a backdrop tap or swipe-down on the open panel.
func (e *Engine) Dismiss(ctx context.Context) error {
	return e.submit(ctx, dismissPanel{})
}

// SubmitRating rates a delivered order and opens the payment summary.
func (e *Engine) SubmitRating(ctx context.Context, stars int, review string) error {
	return e.submit(ctx, submitRating{stars: stars, review: review})
}

func (e *Engine) onGesture(ctx context.Context, ev gestureInput) error {
	if err := ev.action.Validate(); err != nil {
		return err
	}
	if want, ok := ExpectedAction(e.l.Stage()); !ok || want != ev.action {
		observability.RejectedInputsTotal.WithLabelValues("gesture").Inc()
		return ErrGestureNotExpected
	}
	s, err := e.swipe(ev.action, ev.width)
	if err != nil {
		return err
	}

	var (
		p         gesture.Progress
		committed bool
	)
	switch ev.phase {
	case PhaseStart:
		p = s.Start(ev.x, ev.y)
	case PhaseMove:
		p = s.Move(ev.x, ev.y)
	case PhaseRelease:
		p, committed = s.Release(ev.x, ev.y)
	case PhaseCancel:
		p = s.Cancel()
	default:
		return ErrUnknownPhase
	}

	*ev.out = p
	e.deps.Events.Publish(ports.TopicProgressUpdated, p)
	if committed {
		e.commit(ctx, ev.action)
	}
	return nil
}

func (e *Engine) swipe(action gesture.Action, width float64) (*gesture.Swipe, error) {
	s, ok := e.swipes[action]
	if !ok {
		created, err := gesture.NewSwipe(action, width)
		if err != nil {
			return nil, err
		}
		e.swipes[action] = created
		return created, nil
	}
	if width > 0 {
		if err := s.Resize(width); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (e *Engine) resetSwipe(action gesture.Action) {
	s, ok := e.swipes[action]
	if !ok {
		return
	}
	e.deps.Events.Publish(ports.TopicProgressUpdated, s.Reset())
}

// commit runs at the moment a swipe latches. Accepting silences the offer right
// away; the transition itself waits for the settle delay.
func (e *Engine) commit(ctx context.Context, action gesture.Action) {
	e.logger.Debug("swipe committed", "action", action.String())
	if action == gesture.AcceptOrder {
		e.deps.Alert.Stop()
		e.timers.cancelCountdown()
	}

	e.timers.cancelSettle()
	if e.cfg.SettleDelay <= 0 {
		e.settle(ctx, action)
		return
	}
	gen := e.timers.settleGen
	e.timers.settle = time.AfterFunc(e.cfg.SettleDelay, func() {
		e.post(settleFired{gen: gen, action: action})
	})
}

func (e *Engine) onSettle(ctx context.Context, ev settleFired) error {
	if ev.gen != e.timers.settleGen {
		return nil
	}
	e.timers.settle = nil
	e.settle(ctx, ev.action)
	return nil
}

// settle fires the transition bound to a committed swipe.
func (e *Engine) settle(ctx context.Context, action gesture.Action) {
	defer e.resetSwipe(action)

	var err error
	switch action {
	case gesture.AcceptOrder:
		if err = e.l.Accept(e.now()); err == nil {
			e.afterTransition(ctx)
			if err = e.l.StartPickupLeg(); err == nil {
				e.afterTransition(ctx)
				e.beginLeg(ctx, legPickup)
			}
		}
	case gesture.ReachedPickup:
		if err = e.l.ConfirmPickupReached(); err == nil {
			e.afterTransition(ctx)
		}
	case gesture.ConfirmOrderID:
		if err = e.l.ConfirmOrderID(); err == nil {
			e.afterTransition(ctx)
			e.beginLeg(ctx, legDrop)
		}
	case gesture.ReachedDrop:
		if err = e.l.ConfirmDropReached(e.now()); err == nil {
			e.afterTransition(ctx)
		}
	case gesture.OrderDelivered:
		if err = e.l.ConfirmDelivered(); err == nil {
			e.afterTransition(ctx)
		}
	case gesture.UnknownAction:
		err = action.Validate()
	}
	if err != nil {
		e.logger.Error("committed swipe could not advance", "action", action.String(), "stage", e.l.Stage().String(), "error", err)
	}
}

func (e *Engine) onDismiss(ctx context.Context) error {
	c, err := e.l.Dismiss(e.now())
	if err != nil {
		observability.RejectedInputsTotal.WithLabelValues("dismiss").Inc()
		return err
	}
	e.timers.cancelSettle()
	e.resetSwipe(gesture.OrderDelivered)
	e.afterTransition(ctx)
	if c != nil {
		e.afterClose(ctx, *c)
	}
	return nil
}

func (e *Engine) onRating(ctx context.Context, ev submitRating) error {
	r, err := lifecycle.NewRating(ev.stars, ev.review)
	if err != nil {
		return err
	}
	if err = e.l.SubmitRating(r); err != nil {
		return err
	}
	e.afterTransition(ctx)
	return nil
}
