// Package alert loops the new-offer sound while an offer is waiting for a decision.
package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"partner/internal/core/ports"
)

// DefaultGap is the pause between two plays of the clip.
const DefaultGap = 500 * time.Millisecond

// Manager plays the alert clip in a loop between Start and Stop.
type Manager struct {
	player ports.AlertPlayer
	gap    time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(player ports.AlertPlayer, gap time.Duration, logger *slog.Logger) *Manager {
	if gap < 0 {
		gap = 0
	}
	return &Manager{
		player: player,
		gap:    gap,
		logger: logger.With("component", "alert"),
	}
}

// Start begins the loop. Calling it while the loop runs does nothing.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done

	go m.loop(loopCtx, done)
	m.logger.Debug("alert started")
}

// Stop halts playback and returns once the player has returned.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Debug("alert stopped")
}

// IsPlaying reports whether the loop is running.
func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Manager) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if err := m.player.Play(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn("alert playback failed", "error", err)
		}
		if ctx.Err() != nil {
			return
		}

		timer.Reset(m.gap)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
