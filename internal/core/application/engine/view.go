package engine

import (
	"context"

	"partner/internal/core/domain/model/gesture"
	"partner/internal/core/domain/model/lifecycle"
)

// View is what a UI surface needs to render the current panel.
type View struct {
	Lifecycle lifecycle.Snapshot `json:"lifecycle"`
	// Gesture is the state of the swipe button the stage shows, if any.
	Gesture *gesture.Progress `json:"gesture,omitempty"`
	// Reasons lists the rejection choices while an offer is open.
	Reasons []lifecycle.RejectionReason `json:"rejectionReasons,omitempty"`
}

// View reads the lifecycle through the loop, so it never observes a half-applied
// event.
func (e *Engine) View(ctx context.Context) (View, error) {
	var v View
	err := e.submit(ctx, viewRequest{out: &v})
	return v, err
}

func (e *Engine) view() View {
	v := View{Lifecycle: e.l.Snapshot()}
	if action, ok := ExpectedAction(e.l.Stage()); ok {
		p := gesture.Progress{Action: action}
		if s, ok := e.swipes[action]; ok {
			p = s.Progress()
		}
		v.Gesture = &p
	}
	if e.l.Stage() == lifecycle.Offered {
		v.Reasons = lifecycle.RejectionReasons()
	}
	return v
}
