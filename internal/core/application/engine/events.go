package engine

import (
	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/kernel"
	"partner/internal/core/domain/model/lifecycle"
	"partner/internal/core/domain/model/offer"
)

// Phase is the part of a drag a gesture event reports.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseMove    Phase = "move"
	PhaseRelease Phase = "release"
	PhaseCancel  Phase = "cancel"
)

// Input events, submitted by callers.
type (
	presentOffer struct {
		offer offer.Offer
	}

	selectReason struct {
		reason lifecycle.RejectionReason
	}

	rejectOffer struct {
		reason *lifecycle.RejectionReason
	}

	gestureInput struct {
		action gesture.Action
		phase  Phase
		x, y   float64
		width  float64
		out    *gesture.Progress
	}

	dismissPanel struct{}

	submitRating struct {
		stars  int
		review string
	}

	viewRequest struct {
		out *View
	}
)

// Internal events, posted by timers and background work. gen identifies the timer
// or fetch that produced the event; anything older than the current one is ignored.
type (
	countdownTick struct {
		gen uint64
	}

	settleFired struct {
		gen    uint64
		action gesture.Action
	}

	dwellElapsed struct {
		gen uint64
		leg leg
	}

	routeResolved struct {
		gen      uint64
		leg      leg
		from, to kernel.GeoPoint
		route    kernel.Route
		err      error
	}

	locationSampled struct {
		sample kernel.LocationSample
	}
)

// Broadcast payloads.
type (
	// StageChanged is published after every transition and route change.
	StageChanged struct {
		Stage    lifecycle.Stage    `json:"stage"`
		Snapshot lifecycle.Snapshot `json:"snapshot"`
	}

	// Countdown is published on every tick of an offer countdown.
	Countdown struct {
		Remaining int `json:"remaining"`
	}

	// Proximity is published for every sample taken while en route.
	Proximity struct {
		Stage    lifecycle.Stage `json:"stage"`
		Distance float64         `json:"distance"`
		Level    ProximityLevel  `json:"level"`
		Cell     string          `json:"cell"`
	}
)
