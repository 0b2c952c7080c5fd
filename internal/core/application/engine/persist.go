package engine

import (
	"context"
	"encoding/json"

	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/ports"
	"partner/internal/observability"
)

// afterTransition persists and broadcasts the lifecycle after a stage change.
func (e *Engine) afterTransition(ctx context.Context) {
	stage := e.l.Stage()
	e.stage.Store(int32(stage))
	observability.StageTransitionsTotal.WithLabelValues(stage.String()).Inc()
	e.persist(ctx)
	e.deps.Events.Publish(ports.TopicStageChanged, StageChanged{Stage: stage, Snapshot: e.l.Snapshot()})
}

// persist writes the active-order snapshot, or removes it once the lifecycle is
// Idle. Store failures are logged; the in-memory lifecycle stays authoritative.
func (e *Engine) persist(ctx context.Context) {
	if e.l.Stage() == lifecycle.Idle {
		if err := e.deps.Store.Delete(ctx, ports.KeyActiveOrder); err != nil {
			e.logger.Error("failed to clear active order", "error", err)
		}
		return
	}

	b, err := json.Marshal(e.l.Snapshot())
	if err != nil {
		e.logger.Error("failed to encode active order", "error", err)
		return
	}
	if err = e.deps.Store.Set(ctx, ports.KeyActiveOrder, b); err != nil {
		e.logger.Error("failed to persist active order", "error", err)
	}
}

// restore loads the persisted active order and re-arms whatever the stage was
// waiting on. A snapshot that cannot be restored is discarded.
func (e *Engine) restore(ctx context.Context) {
	l, err := e.load(ctx)
	if err != nil {
		e.logger.Warn("discarding persisted active order", "error", err)
		if err = e.deps.Store.Delete(ctx, ports.KeyActiveOrder); err != nil {
			e.logger.Error("failed to clear active order", "error", err)
		}
		l = lifecycle.New()
	}
	e.l = l
	stage := l.Stage()
	e.stage.Store(int32(stage))
	if stage == lifecycle.Idle {
		return
	}

	e.logger.Info("restored active order", "stage", stage.String())
	switch stage { //nolint:exhaustive // panels simply wait for input
	case lifecycle.Offered:
		e.deps.Alert.Start(ctx)
		e.startCountdown()
	case lifecycle.Accepted:
		if err = l.StartPickupLeg(); err == nil {
			e.afterTransition(ctx)
			e.beginLeg(ctx, legPickup)
		}
	case lifecycle.EnRouteToPickup, lifecycle.EnRouteToDrop:
		lg, _ := legOf(stage)
		if !e.hasRoute(lg) {
			e.beginLeg(ctx, lg)
		} else if e.cfg.ArrivalPolicy == ArrivalDwell {
			e.armDwell(lg)
		}
	}
	e.deps.Events.Publish(ports.TopicStageChanged, StageChanged{Stage: e.l.Stage(), Snapshot: e.l.Snapshot()})
}

func (e *Engine) load(ctx context.Context) (*lifecycle.Lifecycle, error) {
	b, ok, err := e.deps.Store.Get(ctx, ports.KeyActiveOrder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return lifecycle.New(), nil
	}
	var s lifecycle.Snapshot
	if err = json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return lifecycle.Restore(s)
}
