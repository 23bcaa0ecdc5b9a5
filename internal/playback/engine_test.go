package playback

import (
	"errors"
	"math"
	"testing"

	"supmap-playback/internal/gis"
)

func scenarioPath() []gis.Point {
	return []gis.Point{{Lat: 0, Lng: 0}, {Lat: 10, Lng: 0}, {Lat: 10, Lng: 10}}
}

func loadedEngine(t *testing.T, path []gis.Point) *Engine {
	t.Helper()
	e := NewEngine()
	if err := e.Load(path); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return e
}

func TestEngineLoad(t *testing.T) {
	e := loadedEngine(t, scenarioPath())

	if e.State() != StateIdle {
		t.Fatalf("state = %v, want idle", e.State())
	}
	if e.SegmentIndex() != 0 || e.SegmentProgress() != 0 {
		t.Fatalf("segment = %d/%v, want 0/0", e.SegmentIndex(), e.SegmentProgress())
	}
	if got := e.Position(); got != (gis.Point{}) {
		t.Fatalf("position = %v, want [0, 0]", got)
	}
}

func TestEngineLoadRejectsInvalidPath(t *testing.T) {
	tests := []struct {
		name string
		path []gis.Point
	}{
		{name: "empty", path: nil},
		{name: "single waypoint", path: []gis.Point{{Lat: 1, Lng: 1}}},
		{name: "NaN latitude", path: []gis.Point{{Lat: 1, Lng: 1}, {Lat: math.NaN(), Lng: 0}}},
		{name: "infinite longitude", path: []gis.Point{{Lat: 1, Lng: math.Inf(1)}, {Lat: 2, Lng: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := loadedEngine(t, scenarioPath())
			if err := e.Play(); err != nil {
				t.Fatalf("unexpected play error: %v", err)
			}
			for i := 0; i < 10; i++ {
				e.Tick()
			}
			before := e.Snapshot()

			err := e.Load(tt.path)
			if !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("err = %v, want ErrInvalidPath", err)
			}
			if after := e.Snapshot(); after != before {
				t.Fatalf("failed load changed state: %+v -> %+v", before, after)
			}
		})
	}
}

func TestEnginePlayWithoutPath(t *testing.T) {
	e := NewEngine()
	if err := e.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
	if err := e.Toggle(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("toggle err = %v, want ErrNotLoaded", err)
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %v, want idle", e.State())
	}
}

func TestEngineCrossesFirstSegmentAfter67Ticks(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	for i := 1; i <= 66; i++ {
		e.Tick()
		if e.SegmentIndex() != 0 {
			t.Fatalf("tick %d: segment = %d, want 0", i, e.SegmentIndex())
		}
	}

	update := e.Tick()
	if e.SegmentIndex() != 1 {
		t.Fatalf("segment = %d, want 1", e.SegmentIndex())
	}
	if update.Position != (gis.Point{Lat: 10, Lng: 0}) {
		t.Fatalf("position = %v, want [10, 0]", update.Position)
	}
	if update.Finished {
		t.Fatal("update reported finished in the middle of the path")
	}
}

func TestEngineReachesFinished(t *testing.T) {
	paths := [][]gis.Point{
		{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}},
		scenarioPath(),
		{{Lat: 40.41, Lng: -3.70}, {Lat: 40.42, Lng: -3.69}, {Lat: 40.42, Lng: -3.69}, {Lat: 40.43, Lng: -3.71}},
	}

	for _, path := range paths {
		e := loadedEngine(t, path)
		if err := e.Play(); err != nil {
			t.Fatalf("unexpected play error: %v", err)
		}

		var update PositionUpdate
		for i := 0; i < 1000 && !update.Finished; i++ {
			update = e.Tick()
		}

		if !update.Finished || e.State() != StateFinished {
			t.Fatalf("path %v never finished", path)
		}
		last := path[len(path)-1]
		if update.Position != last || e.Position() != last {
			t.Fatalf("final position = %v, want %v", update.Position, last)
		}
		if e.Progress() != 1 {
			t.Fatalf("progress = %v, want 1", e.Progress())
		}

		// Ticking a finished engine is a no-op.
		if again := e.Tick(); again != update {
			t.Fatalf("tick after finish = %+v, want %+v", again, update)
		}
	}
}

func TestEngineInterpolatesOnSegment(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	for i := 0; i < 120; i++ {
		e.Tick()

		progress := e.SegmentProgress()
		if progress < 0 || progress >= 1 {
			t.Fatalf("tick %d: segment progress %v outside [0, 1)", i, progress)
		}

		a := scenarioPath()[e.SegmentIndex()]
		b := scenarioPath()[e.SegmentIndex()+1]
		p := e.Position()

		// Collinearity of a, b, p.
		cross := (b.Lat-a.Lat)*(p.Lng-a.Lng) - (b.Lng-a.Lng)*(p.Lat-a.Lat)
		if math.Abs(cross) > 1e-9 {
			t.Fatalf("tick %d: position %v is off segment %v-%v", i, p, a, b)
		}
		if want := gis.Lerp(a, b, progress); p != want {
			t.Fatalf("tick %d: position = %v, want %v", i, p, want)
		}
	}
}

func TestEnginePositionsAreMonotonic(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	last := e.Progress()
	for !e.Tick().Finished {
		if p := e.Progress(); p < last {
			t.Fatalf("progress went backwards: %v -> %v", last, p)
		} else {
			last = p
		}
	}
}

func TestEnginePauseAndPlayAreIdempotent(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	for i := 0; i < 5; i++ {
		e.Tick()
	}

	playing := e.Snapshot()
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	if got := e.Snapshot(); got != playing {
		t.Fatalf("play while playing changed state: %+v -> %+v", playing, got)
	}

	e.Pause()
	paused := e.Snapshot()
	if paused.State != StatePaused {
		t.Fatalf("state = %v, want paused", paused.State)
	}
	e.Pause()
	if got := e.Snapshot(); got != paused {
		t.Fatalf("pause while paused changed state: %+v -> %+v", paused, got)
	}
}

func TestEngineTickIsNoopUnlessPlaying(t *testing.T) {
	e := loadedEngine(t, scenarioPath())

	idle := e.Position()
	if update := e.Tick(); update.Position != idle || e.SegmentProgress() != 0 {
		t.Fatalf("idle tick moved to %v", update.Position)
	}

	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	e.Pause()

	paused := e.Snapshot()
	for i := 0; i < 10; i++ {
		if update := e.Tick(); update.Position != paused.Position {
			t.Fatalf("paused tick moved to %v", update.Position)
		}
	}
	if got := e.Snapshot(); got != paused {
		t.Fatalf("paused ticks changed state: %+v -> %+v", paused, got)
	}
}

func TestEnginePlayFromFinishedRewinds(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	for !e.Tick().Finished {
	}

	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	if e.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", e.State())
	}
	if e.SegmentIndex() != 0 || e.SegmentProgress() != 0 {
		t.Fatalf("segment = %d/%v, want 0/0", e.SegmentIndex(), e.SegmentProgress())
	}
	if got := e.Position(); got != scenarioPath()[0] {
		t.Fatalf("position = %v, want start", got)
	}
}

func TestEngineLoadDiscardsProgress(t *testing.T) {
	e := loadedEngine(t, scenarioPath())
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	for i := 0; i < 80; i++ {
		e.Tick()
	}

	next := []gis.Point{{Lat: 5, Lng: 5}, {Lat: 6, Lng: 6}}
	if err := e.Load(next); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if e.State() != StateIdle || e.SegmentIndex() != 0 || e.Position() != next[0] {
		t.Fatalf("load did not reset: %+v", e.Snapshot())
	}

	// The engine keeps its own copy of the path.
	next[0] = gis.Point{Lat: 99, Lng: 99}
	if e.Position() != (gis.Point{Lat: 5, Lng: 5}) {
		t.Fatalf("engine path aliased caller slice: %v", e.Position())
	}
}

func TestEngineToggle(t *testing.T) {
	e := loadedEngine(t, scenarioPath())

	steps := []State{StatePlaying, StatePaused, StatePlaying}
	for i, want := range steps {
		if err := e.Toggle(); err != nil {
			t.Fatalf("toggle %d: unexpected error: %v", i, err)
		}
		if e.State() != want {
			t.Fatalf("toggle %d: state = %v, want %v", i, e.State(), want)
		}
	}
	if e.Snapshot().Control != "stop" {
		t.Fatalf("control = %q, want stop", e.Snapshot().Control)
	}
}

func TestWithStep(t *testing.T) {
	e := NewEngine(WithStep(0.5))
	if err := e.Load(scenarioPath()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	if got := e.Tick().Position; got != (gis.Point{Lat: 5, Lng: 0}) {
		t.Fatalf("position = %v, want [5, 0]", got)
	}

	if NewEngine(WithStep(0)).step != DefaultStep {
		t.Fatal("zero step should be ignored")
	}
	if NewEngine(WithStep(2)).step != DefaultStep {
		t.Fatal("step above one should be ignored")
	}
}
