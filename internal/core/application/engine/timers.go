package engine

import (
	"context"
	"time"
)

// timers holds every pending timer and in-flight route fetch. Each slot has a
// generation counter; bumping it orphans whatever the previous timer posts.
// Only the loop goroutine touches it.
type timers struct {
	countdown    *time.Timer
	countdownGen uint64

	dwell    *time.Timer
	dwellGen uint64

	settle    *time.Timer
	settleGen uint64

	routeGen    uint64
	routeCancel context.CancelFunc
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (t *timers) cancelCountdown() {
	t.countdownGen++
	stopTimer(&t.countdown)
}

func (t *timers) cancelDwell() {
	t.dwellGen++
	stopTimer(&t.dwell)
}

func (t *timers) cancelSettle() {
	t.settleGen++
	stopTimer(&t.settle)
}

func (t *timers) cancelRoute() {
	t.routeGen++
	if t.routeCancel != nil {
		t.routeCancel()
		t.routeCancel = nil
	}
}

func (t *timers) stopAll() {
	t.cancelCountdown()
	t.cancelDwell()
	t.cancelSettle()
	t.cancelRoute()
}

// armCountdown schedules the next tick of the current countdown generation.
func (e *Engine) armCountdown(gen uint64) {
	e.timers.countdown = time.AfterFunc(e.cfg.Tick, func() {
		e.post(countdownTick{gen: gen})
	})
}

func (e *Engine) startCountdown() {
	e.timers.cancelCountdown()
	e.armCountdown(e.timers.countdownGen)
}

func (e *Engine) armDwell(l leg) {
	e.timers.cancelDwell()
	gen := e.timers.dwellGen
	e.timers.dwell = time.AfterFunc(e.cfg.Dwell, func() {
		e.post(dwellElapsed{gen: gen, leg: l})
	})
}
