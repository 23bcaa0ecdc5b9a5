package playback

import (
	"errors"
	"fmt"

	"supmap-playback/internal/gis"
)

// DefaultStep is the segment progress added per tick, roughly 67 ticks per segment.
const DefaultStep = 0.015

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrNotLoaded   = errors.New("no path loaded")
)

type PositionUpdate struct {
	Position gis.Point `json:"position"`
	Finished bool      `json:"finished"`
}

type Snapshot struct {
	State           State     `json:"state"`
	Control         string    `json:"control"`
	SegmentIndex    int       `json:"segmentIndex"`
	SegmentProgress float64   `json:"segmentProgress"`
	Position        gis.Point `json:"position"`
	Finished        bool      `json:"finished"`
	// Progress is the traveled share of the whole path length, in [0, 1].
	Progress  float64 `json:"progress"`
	Waypoints int     `json:"waypoints"`
}

// Engine turns a path into a stepwise interpolated position. It performs no
// scheduling and is not safe for concurrent use: exactly one caller (the
// frame driver) may mutate it.
type Engine struct {
	step float64

	path    []gis.Point
	lengths []float64
	total   float64

	state   State
	segment int
	// steps taken inside the current segment; the segment progress is
	// always steps*step so that the position never drifts.
	steps int
}

type Option func(*Engine)

// WithStep overrides DefaultStep. Values outside (0, 1] are ignored.
func WithStep(step float64) Option {
	return func(e *Engine) {
		if step > 0 && step <= 1 {
			e.step = step
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{step: DefaultStep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the path and rewinds to Idle. On error the engine keeps its
// previous path and state.
func (e *Engine) Load(path []gis.Point) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	e.path = append([]gis.Point(nil), path...)
	e.lengths = gis.SegmentLengths(e.path)
	e.total = gis.Length(e.path)
	e.state = StateIdle
	e.rewind()
	return nil
}

// ValidatePath reports ErrInvalidPath for paths with fewer than two waypoints
// or with a non-finite coordinate.
func ValidatePath(path []gis.Point) error {
	if len(path) < 2 {
		return fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidPath, len(path))
	}
	for i, p := range path {
		if !p.IsFinite() {
			return fmt.Errorf("%w: waypoint %d is not finite", ErrInvalidPath, i)
		}
	}
	return nil
}

func (e *Engine) Loaded() bool {
	return len(e.path) > 0
}

func (e *Engine) Path() []gis.Point {
	return append([]gis.Point(nil), e.path...)
}

func (e *Engine) State() State {
	return e.state
}

// Play starts or resumes playback. From Finished it rewinds first.
func (e *Engine) Play() error {
	if !e.Loaded() {
		return ErrNotLoaded
	}
	switch e.state {
	case StatePlaying:
		return nil
	case StateFinished:
		e.rewind()
	}
	e.state = StatePlaying
	return nil
}

func (e *Engine) Pause() {
	if e.state == StatePlaying {
		e.state = StatePaused
	}
}

// Toggle is the transport control: pause while playing, play otherwise.
func (e *Engine) Toggle() error {
	if e.state == StatePlaying {
		e.Pause()
		return nil
	}
	return e.Play()
}

// Tick advances one step while Playing. In any other state it returns the
// current position unchanged.
func (e *Engine) Tick() PositionUpdate {
	if e.state != StatePlaying {
		return e.update()
	}

	e.steps++
	if float64(e.steps)*e.step >= 1 {
		e.steps = 0
		e.segment++
	}

	if e.segment > len(e.path)-2 {
		e.segment = len(e.path) - 2
		e.steps = 0
		e.state = StateFinished
	}
	return e.update()
}

func (e *Engine) SegmentIndex() int {
	return e.segment
}

func (e *Engine) SegmentProgress() float64 {
	if e.state == StateFinished {
		return 1
	}
	return float64(e.steps) * e.step
}

// Position is derived from the segment index and progress on every call.
func (e *Engine) Position() gis.Point {
	if !e.Loaded() {
		return gis.Point{}
	}
	if e.state == StateFinished {
		return e.path[len(e.path)-1]
	}
	return gis.Lerp(e.path[e.segment], e.path[e.segment+1], e.SegmentProgress())
}

// Progress is the traveled fraction of the path's haversine length.
func (e *Engine) Progress() float64 {
	if !e.Loaded() {
		return 0
	}
	if e.state == StateFinished {
		return 1
	}
	if e.total == 0 {
		return (float64(e.segment) + e.SegmentProgress()) / float64(len(e.lengths))
	}
	traveled := e.lengths[e.segment] * e.SegmentProgress()
	for _, l := range e.lengths[:e.segment] {
		traveled += l
	}
	return traveled / e.total
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:           e.state,
		Control:         e.state.ControlLabel(),
		SegmentIndex:    e.segment,
		SegmentProgress: e.SegmentProgress(),
		Position:        e.Position(),
		Finished:        e.state == StateFinished,
		Progress:        e.Progress(),
		Waypoints:       len(e.path),
	}
}

func (e *Engine) rewind() {
	e.segment = 0
	e.steps = 0
}

func (e *Engine) update() PositionUpdate {
	return PositionUpdate{
		Position: e.Position(),
		Finished: e.state == StateFinished,
	}
}
