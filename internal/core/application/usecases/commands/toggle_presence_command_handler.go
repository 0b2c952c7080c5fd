package commands

import (
	"context"
)

// TogglePresenceCommandHandler flips the partner between online and offline. It has
// no command object: the toggle carries no input.
type TogglePresenceCommandHandler struct {
	toggler PresenceToggler
}

func NewTogglePresenceCommandHandler(toggler PresenceToggler) TogglePresenceCommandHandler {
	return TogglePresenceCommandHandler{toggler: toggler}
}

// Handle returns the presence after the toggle.
func (h TogglePresenceCommandHandler) Handle(ctx context.Context) (bool, error) {
	return h.toggler.Toggle(ctx)
}
