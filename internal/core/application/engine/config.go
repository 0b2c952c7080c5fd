package engine

import (
	"fmt"
	"strings"
	"time"

	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/pkg/errs"
)

// ArrivalPolicy decides when an en-route leg counts as arrived.
type ArrivalPolicy string

const (
	// ArrivalDwell advances a fixed time after the leg starts.
	ArrivalDwell ArrivalPolicy = "dwell"
	// ArrivalGeofence advances when a location sample lands within ArrivalRadius of
	// the target.
	ArrivalGeofence ArrivalPolicy = "geofence"
)

func ParseArrivalPolicy(s string) (ArrivalPolicy, error) {
	switch p := ArrivalPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ArrivalDwell, ArrivalGeofence:
		return p, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("arrival policy", fmt.Errorf("unknown policy %q", s))
	}
}

const (
	DefaultTick          = time.Second
	DefaultDwell         = 5 * time.Second
	DefaultRouteTimeout  = 8 * time.Second
	DefaultRecordTimeout = 10 * time.Second
	DefaultArrivalRadius = 50.0
	inboxSize            = 64
)

type Config struct {
	// Countdown is the offer decision window in ticks.
	Countdown int
	Tick      time.Duration

	Dwell         time.Duration
	ArrivalPolicy ArrivalPolicy
	ArrivalRadius float64

	// SettleDelay separates a committed swipe from its transition. A non-positive
	// delay applies the transition in the same step as the commit.
	SettleDelay   time.Duration
	RouteTimeout  time.Duration
	RecordTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Countdown:     lifecycle.DefaultCountdown,
		Tick:          DefaultTick,
		Dwell:         DefaultDwell,
		ArrivalPolicy: ArrivalDwell,
		ArrivalRadius: DefaultArrivalRadius,
		SettleDelay:   gesture.SettleDelay,
		RouteTimeout:  DefaultRouteTimeout,
		RecordTimeout: DefaultRecordTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Countdown <= 0 {
		c.Countdown = d.Countdown
	}
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	if c.Dwell <= 0 {
		c.Dwell = d.Dwell
	}
	if c.ArrivalPolicy == "" {
		c.ArrivalPolicy = d.ArrivalPolicy
	}
	if c.ArrivalRadius <= 0 {
		c.ArrivalRadius = d.ArrivalRadius
	}
	if c.RouteTimeout <= 0 {
		c.RouteTimeout = d.RouteTimeout
	}
	if c.RecordTimeout <= 0 {
		c.RecordTimeout = d.RecordTimeout
	}
	return c
}
