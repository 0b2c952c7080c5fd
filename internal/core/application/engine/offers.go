package engine

import (
	"context"
	"time"

	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/domain/model/offer"
	"partner/internal/core/ports"
	"partner/internal/observability"
)

// PresentOffer shows a new offer, starts the alert loop and the countdown. It is
// refused while the partner is offline or another order is active.
func (e *Engine) PresentOffer(ctx context.Context, o offer.Offer) error {
	return e.submit(ctx, presentOffer{offer: o})
}

// SelectRejectionReason records the reason picked in the reject dialog.
func (e *Engine) SelectRejectionReason(ctx context.Context, reason lifecycle.RejectionReason) error {
	return e.submit(ctx, selectReason{reason: reason})
}

// Reject declines the current offer. A nil reason uses the one selected earlier.
func (e *Engine) Reject(ctx context.Context, reason *lifecycle.RejectionReason) error {
	return e.submit(ctx, rejectOffer{reason: reason})
}

func (e *Engine) onPresentOffer(ctx context.Context, ev presentOffer) error {
	if !e.deps.Presence.IsOnline() {
		return ErrPartnerOffline
	}
	if err := e.l.Offer(ev.offer, e.cfg.Countdown, e.now()); err != nil {
		return err
	}

	observability.OffersTotal.Inc()
	e.logger.Info("offer presented", "offer", ev.offer.ID().String(), "order", ev.offer.OrderID())

	e.deps.Alert.Start(ctx)
	e.resetSwipe(gesture.AcceptOrder)
	e.startCountdown()
	e.afterTransition(ctx)
	e.deps.Events.Publish(ports.TopicCountdown, Countdown{Remaining: e.l.CountdownRemaining()})
	return nil
}

func (e *Engine) onReject(ctx context.Context, ev rejectOffer) error {
	if s, ok := e.swipes[gesture.AcceptOrder]; ok && s.IsLatched() {
		return ErrCommitPending
	}
	if ev.reason != nil {
		if err := e.l.SelectRejectionReason(*ev.reason); err != nil {
			return err
		}
	}

	c, err := e.l.Reject(e.now())
	if err != nil {
		return err
	}
	e.logger.Info("offer rejected", "order", c.Offer.OrderID(), "reason", c.Reason.String())
	e.closeOffer(ctx, c)
	return nil
}

func (e *Engine) onTick(ctx context.Context, ev countdownTick) error {
	if ev.gen != e.timers.countdownGen {
		return nil
	}
	expired, err := e.l.Tick()
	if err != nil {
		e.logger.Warn("stray countdown tick", "stage", e.l.Stage().String(), "error", err)
		e.timers.cancelCountdown()
		return nil
	}
	e.deps.Events.Publish(ports.TopicCountdown, Countdown{Remaining: e.l.CountdownRemaining()})
	if !expired {
		e.persist(ctx)
		e.armCountdown(ev.gen)
		return nil
	}

	c, err := e.l.TimeOut(e.now())
	if err != nil {
		e.logger.Error("countdown expired but offer did not time out", "error", err)
		return nil
	}
	e.logger.Info("offer timed out", "order", c.Offer.OrderID())
	e.closeOffer(ctx, c)
	return nil
}

// closeOffer finishes an offer that was rejected or timed out.
func (e *Engine) closeOffer(ctx context.Context, c lifecycle.Closure) {
	e.deps.Alert.Stop()
	e.timers.cancelCountdown()
	e.afterTransition(ctx)
	e.afterClose(ctx, c)
}

// afterClose runs once the lifecycle is back to Idle.
func (e *Engine) afterClose(ctx context.Context, c lifecycle.Closure) {
	observability.OfferOutcomesTotal.WithLabelValues(string(c.Outcome)).Inc()
	e.timers.stopAll()
	clear(e.swipes)

	if c.Outcome != lifecycle.OutcomeSettled || e.deps.Recorder == nil {
		return
	}
	cmd, err := commands.NewRecordDeliveryCommand(c)
	if err != nil {
		e.logger.Error("settled delivery cannot be recorded", "order", c.Offer.OrderID(), "error", err)
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.RecordTimeout)
	e.recorders.Add(1)
	go func() {
		defer e.recorders.Done()
		defer cancel()
		started := time.Now()
		if err := e.deps.Recorder.Handle(rctx, cmd); err != nil {
			e.logger.Error("failed to record delivery", "order", cmd.OrderID(), "error", err)
			return
		}
		e.logger.Info("delivery recorded", "order", cmd.OrderID(), "took", time.Since(started))
	}()
}
