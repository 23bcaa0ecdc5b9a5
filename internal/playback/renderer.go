package playback

import (
	"time"

	"supmap-playback/internal/gis"
)

// Renderer displays the moving marker. Both calls are fire-and-forget and
// must not block the frame driver.
type Renderer interface {
	ShowMarker(position gis.Point)
	RecenterViewport(position gis.Point)
}

// StateObserver is optionally implemented by a Renderer that wants to hear
// about transport and load transitions.
type StateObserver interface {
	StateChanged(snapshot Snapshot)
}

// Clock schedules animation frames.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

type nopRenderer struct{}

func (nopRenderer) ShowMarker(gis.Point)       {}
func (nopRenderer) RecenterViewport(gis.Point) {}
