package cmd

import (
	"testing"
	"time"

	"partner/internal/core/ports"
	"partner/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositionRoot_FirstFixOfOnlinePartnerIsTracked(t *testing.T) {
	cfg := defaultConfig()
	cfg.DemoOffers = false
	root, err := NewCompositionRoot(t.Context(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(root.Close)

	require.NoError(t, root.store.Set(t.Context(), ports.KeyPresence, []byte("true")))

	stop := make(chan struct{})
	pushed := make(chan struct{})
	go func() {
		defer close(pushed)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				root.feed.Push(ports.Position{Coords: ports.NewCoords(22.7533, 75.8937, 5)})
			}
		}
	}()

	err = root.startTracking(t.Context())
	close(stop)
	<-pushed
	require.NoError(t, err)
	t.Cleanup(root.tracker.Stop)

	assert.True(t, root.presence.IsOnline())
	assert.NotEmpty(t, root.tracker.History())
}
