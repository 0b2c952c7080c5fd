package simulated

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultClipLength = 2 * time.Second

// AlertPlayer pretends to play the alert clip: it logs and waits the clip length.
type AlertPlayer struct {
	clip   time.Duration
	logger *slog.Logger
	plays  atomic.Int64
}

func NewAlertPlayer(clip time.Duration, logger *slog.Logger) *AlertPlayer {
	if clip <= 0 {
		clip = DefaultClipLength
	}
	return &AlertPlayer{clip: clip, logger: logger.With("component", "alert_player")}
}

func (p *AlertPlayer) Play(ctx context.Context) error {
	n := p.plays.Add(1)
	p.logger.Debug("playing alert", "play", n)

	t := time.NewTimer(p.clip)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Plays is the number of times Play was called.
func (p *AlertPlayer) Plays() int64 {
	return p.plays.Load()
}
