package playback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"supmap-playback/internal/gis"
)

// DefaultFrameInterval is about one frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

var ErrStopped = errors.New("player stopped")

// Route is a named path as loaded into a player.
type Route struct {
	CharacterName string      `json:"characterName"`
	Path          []gis.Point `json:"path"`
}

type commandKind int

const (
	cmdLoad commandKind = iota
	cmdPlay
	cmdPause
	cmdToggle
	cmdSnapshot
)

type command struct {
	kind  commandKind
	route Route
	reply chan result
}

type result struct {
	snapshot Snapshot
	route    Route
	err      error
}

// Player drives an Engine: it owns the single goroutine that mutates
// engine state, schedules frames while playing and forwards every new
// position to the renderer.
type Player struct {
	engine   *Engine
	renderer Renderer
	clock    Clock
	interval time.Duration
	logger   *slog.Logger

	commands chan command
	done     chan struct{}

	// owned by the Run goroutine
	route  Route
	ticker Ticker
}

type PlayerOption func(*Player)

func WithClock(clock Clock) PlayerOption {
	return func(p *Player) { p.clock = clock }
}

func WithFrameInterval(d time.Duration) PlayerOption {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) { p.logger = logger }
}

func NewPlayer(engine *Engine, renderer Renderer, opts ...PlayerOption) *Player {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	p := &Player{
		engine:   engine,
		renderer: renderer,
		clock:    systemClock{},
		interval: DefaultFrameInterval,
		logger:   slog.New(slog.DiscardHandler),
		commands: make(chan command),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes commands and frames until ctx is done. It must be called
// exactly once.
func (p *Player) Run(ctx context.Context) {
	defer close(p.done)
	defer p.stopFrames()

	p.logger.Info("playback player is running", "frameInterval", p.interval)
	for {
		var frames <-chan time.Time
		if p.ticker != nil {
			frames = p.ticker.C()
		}

		select {
		case cmd := <-p.commands:
			cmd.reply <- p.handle(cmd)
		case <-frames:
			p.frame()
		case <-ctx.Done():
			p.logger.Info("shutting down playback player")
			return
		}
	}
}

func (p *Player) Load(ctx context.Context, route Route) (Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdLoad, route: route})
	return res.snapshot, err
}

func (p *Player) Play(ctx context.Context) (Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdPlay})
	return res.snapshot, err
}

func (p *Player) Pause(ctx context.Context) (Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdPause})
	return res.snapshot, err
}

func (p *Player) Toggle(ctx context.Context) (Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdToggle})
	return res.snapshot, err
}

func (p *Player) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdSnapshot})
	return res.snapshot, err
}

// Route returns the loaded route together with the current snapshot.
func (p *Player) Route(ctx context.Context) (Route, Snapshot, error) {
	res, err := p.do(ctx, command{kind: cmdSnapshot})
	return res.route, res.snapshot, err
}

func (p *Player) do(ctx context.Context, cmd command) (result, error) {
	cmd.reply = make(chan result, 1)
	select {
	case p.commands <- cmd:
	case <-p.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (p *Player) handle(cmd command) result {
	var err error
	switch cmd.kind {
	case cmdLoad:
		err = p.load(cmd.route)
	case cmdPlay:
		err = p.play()
	case cmdPause:
		p.pause()
	case cmdToggle:
		if p.engine.State() == StatePlaying {
			p.pause()
		} else {
			err = p.play()
		}
	}
	return result{snapshot: p.engine.Snapshot(), route: p.currentRoute(), err: err}
}

func (p *Player) load(route Route) error {
	if err := p.engine.Load(route.Path); err != nil {
		return err
	}
	p.stopFrames()
	p.route = Route{CharacterName: route.CharacterName, Path: p.engine.Path()}

	p.logger.Info("route loaded", "character", route.CharacterName, "waypoints", len(route.Path))
	p.render(p.engine.Position())
	p.notify()
	return nil
}

func (p *Player) play() error {
	before := p.engine.State()
	if err := p.engine.Play(); err != nil {
		return err
	}
	if before == StatePlaying {
		return nil
	}

	p.startFrames()
	p.logger.Debug("playback started", "from", before)
	if before == StateFinished {
		p.render(p.engine.Position())
	}
	p.notify()
	return nil
}

func (p *Player) pause() {
	if p.engine.State() != StatePlaying {
		return
	}
	p.engine.Pause()
	p.stopFrames()
	p.logger.Debug("playback paused", "segment", p.engine.SegmentIndex())
	p.notify()
}

func (p *Player) frame() {
	before := p.engine.Position()
	update := p.engine.Tick()
	if update.Position != before {
		p.render(update.Position)
	}
	if update.Finished {
		p.stopFrames()
		p.logger.Debug("playback finished")
		p.notify()
	}
}

func (p *Player) startFrames() {
	if p.ticker == nil {
		p.ticker = p.clock.NewTicker(p.interval)
	}
}

// stopFrames cancels scheduling. With the ticker gone the loop stops
// selecting on its channel, so no pending frame is delivered afterwards.
func (p *Player) stopFrames() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

func (p *Player) render(position gis.Point) {
	p.renderer.ShowMarker(position)
	p.renderer.RecenterViewport(position)
}

func (p *Player) notify() {
	if observer, ok := p.renderer.(StateObserver); ok {
		observer.StateChanged(p.engine.Snapshot())
	}
}

func (p *Player) currentRoute() Route {
	return Route{
		CharacterName: p.route.CharacterName,
		Path:          append([]gis.Point(nil), p.route.Path...),
	}
}
