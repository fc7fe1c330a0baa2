package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_StatusTransitions(t *testing.T) {
	t.Run("should start offline", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		req.Equal(StatusOffline, p.Status())
	})

	t.Run("should be online with one connection", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.ConnectionOpened()
		req.Equal(StatusOnline, p.Status())
	})

	t.Run("should be away when idle with a live connection", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.ConnectionOpened()
		p.Idle()
		req.Equal(StatusAway, p.Status())
	})

	t.Run("should return to online on activity", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.ConnectionOpened()
		p.Idle()
		p.Active()
		req.Equal(StatusOnline, p.Status())
	})

	t.Run("should ignore idle while offline", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.Idle()
		req.Equal(StatusOffline, p.Status())

		// Coming back online must not resurrect the stale idle flag.
		p.ConnectionOpened()
		req.Equal(StatusOnline, p.Status())
	})
}

func TestPresence_MultiDevice(t *testing.T) {
	t.Run("should stay online while any device remains", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.ConnectionOpened()
		p.ConnectionOpened()

		lastGone := p.ConnectionClosed()
		req.False(lastGone)
		req.Equal(StatusOnline, p.Status())
	})

	t.Run("should report last connection gone exactly once", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		p.ConnectionOpened()
		p.ConnectionOpened()

		req.False(p.ConnectionClosed())
		req.True(p.ConnectionClosed())
		req.Equal(StatusOffline, p.Status())
	})

	t.Run("should tolerate close without open", func(t *testing.T) {
		req := require.New(t)
		var p Presence
		req.True(p.ConnectionClosed())
		req.Equal(0, p.Connections())
	})
}
