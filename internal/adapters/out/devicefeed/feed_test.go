package devicefeed_test

import (
	"context"
	"testing"
	"time"

	"partner/internal/adapters/out/devicefeed"
	"partner/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fix(lat, lng float64) ports.Position {
	return ports.Position{Coords: ports.NewCoords(lat, lng, 5)}
}

func TestFeed_CurrentPosition_WaitsForNextPush(t *testing.T) {
	f := devicefeed.New()

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Push(fix(22.72, 75.86))
	}()

	pos, err := f.CurrentPosition(t.Context(), ports.PositionOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 22.72, *pos.Coords.Latitude)
	assert.False(t, pos.Timestamp.IsZero())
}

func TestFeed_CurrentPosition_Timeout(t *testing.T) {
	f := devicefeed.New()

	_, err := f.CurrentPosition(t.Context(), ports.PositionOptions{Timeout: 20 * time.Millisecond})
	var perr *ports.PositionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ports.Timeout, perr.Code)
}

func TestFeed_CurrentPosition_CachedFix(t *testing.T) {
	f := devicefeed.New()
	f.Push(fix(22.72, 75.86))

	pos, err := f.CurrentPosition(t.Context(), ports.PositionOptions{MaximumAge: time.Minute, Timeout: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 75.86, *pos.Coords.Longitude)

	_, err = f.CurrentPosition(t.Context(), ports.PositionOptions{Timeout: 10 * time.Millisecond})
	require.Error(t, err, "maximumAge 0 never returns a cached fix")
}

func TestFeed_CurrentPosition_Error(t *testing.T) {
	f := devicefeed.New()

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.PushError(&ports.PositionError{Code: ports.PermissionDenied, Message: "denied"})
	}()

	_, err := f.CurrentPosition(t.Context(), ports.PositionOptions{Timeout: time.Second})
	var perr *ports.PositionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ports.PermissionDenied, perr.Code)
}

func TestFeed_WatchPosition(t *testing.T) {
	f := devicefeed.New()
	ctx, cancel := context.WithCancel(t.Context())

	updates, err := f.WatchPosition(ctx, ports.PositionOptions{})
	require.NoError(t, err)

	f.Push(fix(1, 2))
	f.PushError(&ports.PositionError{Code: ports.PositionUnavailable})

	u := <-updates
	require.NoError(t, u.Err)
	assert.Equal(t, 1.0, *u.Position.Coords.Latitude)

	u = <-updates
	require.Error(t, u.Err)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-updates
		return !ok
	}, time.Second, 10*time.Millisecond)
}
