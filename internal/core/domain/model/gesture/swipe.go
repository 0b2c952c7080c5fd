package gesture

import (
	"fmt"
	"math"
	"time"

	"partner/internal/pkg/errs"
)

const (
	// DeadZone is the horizontal travel in pixels below which a drag is not a swipe.
	DeadZone = 5.0
	// KnobWidth and Padding shrink the button width to the knob's travel distance.
	KnobWidth = 56.0
	Padding   = 16.0
	// CommitRatio is the share of the travel distance a release must pass to commit.
	CommitRatio = 0.7
	// SettleDelay lets the completion animation finish before the transition fires.
	SettleDelay = 200 * time.Millisecond
)

// Progress is the observable state of a swipe control.
type Progress struct {
	Action                Action  `json:"action"`
	Value                 float64 `json:"progress"`
	IsAnimatingToComplete bool    `json:"isAnimatingToComplete"`
}

// Swipe is the drag state machine behind every swipe-to-confirm button.
//
// A release past CommitRatio of the travel distance commits and latches the
// control: until Reset, every further Start/Move/Release/Cancel is ignored, so one
// control commits at most once. Any other release springs back to zero.
//
// Swipe is not safe for concurrent use; the engine drives it from its loop.
type Swipe struct {
	action Action
	width  float64

	startX, startY float64
	tracking       bool
	progress       float64
	latched        bool
}

func NewSwipe(action Action, width float64) (*Swipe, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	s := &Swipe{action: action}
	if err := s.Resize(width); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Swipe) Action() Action {
	return s.action
}

// MaxDistance is how far the knob can travel: width − knob − 2×padding.
func (s *Swipe) MaxDistance() float64 {
	return s.width - KnobWidth - 2*Padding
}

// Resize changes the button width, e.g. after a layout change. The travel distance
// must stay positive.
func (s *Swipe) Resize(width float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) || width-KnobWidth-2*Padding <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"width",
			fmt.Errorf("%v leaves no travel for a %vpx knob", width, KnobWidth),
		)
	}
	s.width = width
	return nil
}

func (s *Swipe) Progress() Progress {
	return Progress{Action: s.action, Value: s.progress, IsAnimatingToComplete: s.latched}
}

func (s *Swipe) IsLatched() bool {
	return s.latched
}

// Start records the touch origin and resets progress.
func (s *Swipe) Start(x, y float64) Progress {
	if s.latched {
		return s.Progress()
	}
	s.startX, s.startY = x, y
	s.tracking = true
	s.progress = 0
	return s.Progress()
}

// Move updates progress from the horizontal travel since Start.
func (s *Swipe) Move(x, y float64) Progress {
	if s.latched || !s.tracking {
		return s.Progress()
	}
	dx, ok := s.recognize(x, y)
	if !ok {
		s.progress = 0
		return s.Progress()
	}
	s.progress = clamp(dx/s.MaxDistance(), 0, 1)
	return s.Progress()
}

// Release ends the drag. It reports true exactly once per commit; the caller fires
// the bound transition after SettleDelay.
func (s *Swipe) Release(x, y float64) (Progress, bool) {
	if s.latched || !s.tracking {
		return s.Progress(), false
	}
	s.tracking = false

	dx, ok := s.recognize(x, y)
	if ok && dx > CommitRatio*s.MaxDistance() {
		s.progress = 1
		s.latched = true
		return s.Progress(), true
	}
	s.progress = 0
	return s.Progress(), false
}

// Cancel abandons the drag without committing.
func (s *Swipe) Cancel() Progress {
	if s.latched {
		return s.Progress()
	}
	s.tracking = false
	s.progress = 0
	return s.Progress()
}

// Reset unlatches a committed control so it can be used again.
func (s *Swipe) Reset() Progress {
	s.tracking = false
	s.latched = false
	s.progress = 0
	return s.Progress()
}

func (s *Swipe) recognize(x, y float64) (float64, bool) {
	dx, dy := x-s.startX, y-s.startY
	if math.Abs(dx) > DeadZone && math.Abs(dx) > math.Abs(dy) && dx > 0 {
		return dx, true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
