package engine

import (
	"context"
	"time"

	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/ports"
	"partner/internal/observability"

	"github.com/mmcloughlin/geohash"
)

// cellPrecision gives geohash cells of roughly 150 m.
const cellPrecision = 7

type leg int

const (
	legPickup leg = iota
	legDrop
)

func (l leg) String() string {
	if l == legDrop {
		return "drop"
	}
	return "pickup"
}

func (l leg) stage() lifecycle.Stage {
	if l == legDrop {
		return lifecycle.EnRouteToDrop
	}
	return lifecycle.EnRouteToPickup
}

func legOf(s lifecycle.Stage) (leg, bool) {
	switch s { //nolint:exhaustive // only en-route stages navigate
	case lifecycle.EnRouteToPickup:
		return legPickup, true
	case lifecycle.EnRouteToDrop:
		return legDrop, true
	default:
		return legPickup, false
	}
}

// ProximityLevel buckets the distance to the current target.
type ProximityLevel string

const (
	ProximityFar      ProximityLevel = "far"
	ProximityNear     ProximityLevel = "near"
	ProximityArriving ProximityLevel = "arriving"
	ProximityArrived  ProximityLevel = "arrived"
)

// ProximityOf maps a distance in meters to its banner level.
func ProximityOf(distance float64) ProximityLevel {
	switch {
	case distance <= 50:
		return ProximityArrived
	case distance <= 100:
		return ProximityArriving
	case distance <= 500:
		return ProximityNear
	default:
		return ProximityFar
	}
}

// beginLeg starts navigating the leg the lifecycle just entered: the route is
// fetched in the background and, under the dwell policy, the arrival timer starts.
func (e *Engine) beginLeg(ctx context.Context, l leg) {
	to, ok := e.l.Target()
	if !ok {
		return
	}
	from := e.deps.Location.Current().Point

	e.timers.cancelRoute()
	gen := e.timers.routeGen
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RouteTimeout)
	e.timers.routeCancel = cancel

	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		defer cancel()
		started := time.Now()
		r, err := e.deps.Routes.Route(rctx, from, to)
		observability.RouteLatency.Observe(time.Since(started).Seconds())
		e.post(routeResolved{gen: gen, leg: l, from: from, to: to, route: r, err: err})
	}()

	if e.cfg.ArrivalPolicy == ArrivalDwell {
		e.armDwell(l)
	}
}

func (e *Engine) onRoute(ctx context.Context, ev routeResolved) error {
	if ev.gen != e.timers.routeGen || e.l.Stage() != ev.leg.stage() {
		return nil
	}
	e.timers.routeCancel = nil

	route := ev.route
	failed := ev.err != nil
	if !failed {
		failed = e.l.AttachRoute(route) != nil
	}
	if failed {
		e.logger.Warn("route unavailable, using straight line", "leg", ev.leg.String(), "error", ev.err)
		observability.RouteFallbacksTotal.WithLabelValues(ev.leg.String()).Inc()
		route = kernel.StraightLine(ev.from, ev.to)
		if err := e.l.AttachRoute(route); err != nil {
			e.logger.Error("fallback route rejected", "leg", ev.leg.String(), "error", err)
			return nil
		}
	}

	e.persist(ctx)
	e.deps.Events.Publish(ports.TopicRouteUpdated, route)

	if failed && e.cfg.ArrivalPolicy == ArrivalDwell {
		e.arrive(ctx, ev.leg)
	}
	return nil
}

func (e *Engine) onDwell(ctx context.Context, ev dwellElapsed) error {
	if ev.gen != e.timers.dwellGen || e.l.Stage() != ev.leg.stage() {
		return nil
	}
	e.timers.dwell = nil
	e.arrive(ctx, ev.leg)
	return nil
}

// arrive ends the leg. A leg that never got a route keeps the straight line.
func (e *Engine) arrive(ctx context.Context, l leg) {
	e.timers.cancelDwell()
	e.timers.cancelRoute()

	if !e.hasRoute(l) {
		if to, ok := e.l.Target(); ok {
			_ = e.l.AttachRoute(kernel.StraightLine(e.deps.Location.Current().Point, to))
		}
	}

	var err error
	if l == legDrop {
		err = e.l.ArriveAtDrop()
	} else {
		err = e.l.ArriveAtPickup()
	}
	if err != nil {
		e.logger.Error("arrival rejected", "leg", l.String(), "stage", e.l.Stage().String(), "error", err)
		return
	}
	e.logger.Info("arrived", "leg", l.String())
	e.afterTransition(ctx)
}

func (e *Engine) hasRoute(l leg) bool {
	if l == legDrop {
		_, ok := e.l.DropRoute()
		return ok
	}
	_, ok := e.l.PickupRoute()
	return ok
}

func (e *Engine) onLocation(ctx context.Context, ev locationSampled) error {
	target, ok := e.l.Target()
	if !ok {
		return nil
	}
	d, err := ev.sample.Point.DistanceTo(target)
	if err != nil {
		return nil
	}

	e.deps.Events.Publish(ports.TopicProximity, Proximity{
		Stage:    e.l.Stage(),
		Distance: d,
		Level:    ProximityOf(d),
		Cell:     geohash.EncodeWithPrecision(ev.sample.Point.Lat(), ev.sample.Point.Lng(), cellPrecision),
	})

	if e.cfg.ArrivalPolicy == ArrivalGeofence && d <= e.cfg.ArrivalRadius {
		if l, ok := legOf(e.l.Stage()); ok {
			e.arrive(ctx, l)
		}
	}
	return nil
}
