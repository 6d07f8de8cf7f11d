package gfx

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

type LoopState int

const (
	Stopped LoopState = iota
	Running
	Paused
)

func (s LoopState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// DefaultMaxDelta caps the frame delta so a long pause does not turn into
// a single huge animation step.
const DefaultMaxDelta = time.Second / 15

type LoopConfig struct {
	MaxDelta time.Duration
}

// TickSource delivers host frame ticks to at most one handler.
type TickSource interface {
	Subscribe(h TickHandler)
	Unsubscribe()
}

// RenderLoop drives one frame per host tick: it builds the FrameState,
// updates the scene and submits a draw per object. Transitions requested
// while a tick runs take effect once that tick's submission is done.
type RenderLoop struct {
	ctx    *Context
	rm     *ResourceManager
	scene  *Scene
	source TickSource
	conf   LoopConfig

	state   LoopState
	pending []LoopState
	ticking bool

	hasLast bool
	lastTs  time.Duration
	elapsed time.Duration
	frame   uint64

	stats  Stats
	warned map[ObjectID]uint64
}

// NewRenderLoop creates a Stopped loop. source may be nil when ticks are
// fed to OnTick directly.
func NewRenderLoop(ctx *Context, rm *ResourceManager, scene *Scene, source TickSource, conf LoopConfig) *RenderLoop {
	if conf.MaxDelta <= 0 {
		conf.MaxDelta = DefaultMaxDelta
	}
	return &RenderLoop{
		ctx:    ctx,
		rm:     rm,
		scene:  scene,
		source: source,
		conf:   conf,
		warned: make(map[ObjectID]uint64),
	}
}

func (l *RenderLoop) Start() error {
	return l.transition(Running, Stopped)
}

// Stop is valid from every state and detaches the loop from its tick source.
func (l *RenderLoop) Stop() error {
	if l.effective() == Stopped {
		return nil
	}
	return l.transition(Stopped, Running, Paused)
}

func (l *RenderLoop) Pause() error {
	return l.transition(Paused, Running)
}

func (l *RenderLoop) Resume() error {
	return l.transition(Running, Paused)
}

// State returns the applied state; a transition requested mid-tick shows up
// once the tick returns.
func (l *RenderLoop) State() LoopState { return l.state }

func (l *RenderLoop) Stats() Stats { return l.stats }

func (l *RenderLoop) effective() LoopState {
	if n := len(l.pending); n > 0 {
		return l.pending[n-1]
	}
	return l.state
}

func (l *RenderLoop) transition(to LoopState, from ...LoopState) error {
	cur := l.effective()
	if !slices.Contains(from, cur) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, to)
	}
	if l.ticking {
		l.pending = append(l.pending, to)
		return nil
	}
	l.apply(to)
	return nil
}

func (l *RenderLoop) apply(to LoopState) {
	from := l.state
	l.state = to
	switch {
	case from == Stopped && to == Running:
		l.hasLast = false
		if l.source != nil {
			l.source.Subscribe(l)
		}
	case to == Stopped:
		if l.source != nil {
			l.source.Unsubscribe()
		}
	}
	Logger().Info("render loop", slog.String("from", from.String()), slog.String("to", to.String()))
}

func (l *RenderLoop) applyPending() {
	pending := l.pending
	l.pending = nil
	for _, to := range pending {
		l.apply(to)
	}
}

// OnTick renders one frame for the host timestamp ts. Stopped ignores the
// tick; Paused only keeps the clock current.
func (l *RenderLoop) OnTick(ts time.Duration) {
	if l.ticking {
		return
	}
	l.ticking = true
	defer func() {
		l.ticking = false
		l.applyPending()
	}()

	switch l.state {
	case Stopped:
		return
	case Paused:
		l.lastTs, l.hasLast = ts, true
		return
	}

	var delta time.Duration
	if l.hasLast {
		delta = min(max(ts-l.lastTs, 0), l.conf.MaxDelta)
	}
	l.lastTs, l.hasLast = ts, true
	l.elapsed += delta
	l.frame++

	fs := FrameState{
		Frame:    l.frame,
		Elapsed:  l.elapsed,
		Delta:    delta,
		Viewport: l.ctx.Viewport(),
	}
	l.scene.Update(fs)
	l.render()
	l.rm.Collect()
	l.stats.Frames++
}

func (l *RenderLoop) render() {
	if !l.ctx.checkLost() {
		l.scene.Each(func(o *DrawableObject) {
			l.skip(o, ErrContextNotReady)
		})
		return
	}
	l.ctx.Clear()
	l.scene.Each(func(o *DrawableObject) {
		if err := l.draw(o); err != nil {
			l.skip(o, err)
		}
	})
}

// Draw submits a single object outside the frame walk.
func (l *RenderLoop) Draw(id ObjectID) error {
	o, ok := l.scene.Object(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	if !l.ctx.checkLost() {
		return ErrContextNotReady
	}
	return l.draw(o)
}

func (l *RenderLoop) draw(o *DrawableObject) error {
	g, err := l.rm.Bind(o.Program, o.Geometry, o.Texture)
	if err != nil {
		return err
	}
	if err := l.rm.SetUniforms(o.Program, l.scene.uniformsFor(o)); err != nil {
		return err
	}
	if err := l.ctx.Submit(g); err != nil {
		return err
	}
	l.stats.Draws++
	return nil
}

// skip counts a draw that could not be submitted and logs it once per
// object per context generation.
func (l *RenderLoop) skip(o *DrawableObject, err error) {
	l.stats.Skipped++
	gen := l.ctx.Generation()
	if seen, ok := l.warned[o.ID]; ok && seen == gen {
		return
	}
	l.warned[o.ID] = gen
	Logger().Warn("draw skipped",
		slog.Uint64("object", uint64(o.ID)),
		slog.String("name", o.Name),
		slog.Uint64("generation", gen),
		slog.Any("err", err),
	)
}
