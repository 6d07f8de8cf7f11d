package gfx

import (
	"log/slog"
	"time"
)

// TickHandler receives ticks from a HostBridge. RenderLoop implements it.
type TickHandler interface {
	OnTick(ts time.Duration)
	State() LoopState
	Pause() error
	Resume() error
}

type resizeRequest struct {
	width, height int
}

// HostBridge adapts host notifications (frame ticks, resizes, visibility
// and context loss) to the loop and the context. At most one tick is in
// flight, and a resize reported during a tick is applied before the next
// tick builds its FrameState.
type HostBridge struct {
	ctx     *Context
	handler TickHandler

	inFlight bool
	resize   *resizeRequest
	paused   bool
}

func NewHostBridge(ctx *Context) *HostBridge {
	return &HostBridge{ctx: ctx}
}

func (b *HostBridge) Subscribe(h TickHandler) {
	b.handler = h
	b.paused = false
}

func (b *HostBridge) Unsubscribe() {
	b.handler = nil
	b.paused = false
}

// OnTick forwards a host frame timestamp in milliseconds.
func (b *HostBridge) OnTick(timestampMs float64) error {
	if b.inFlight {
		return ErrTickInFlight
	}
	b.inFlight = true
	defer func() { b.inFlight = false }()

	if r := b.resize; r != nil {
		b.resize = nil
		b.ctx.Resize(r.width, r.height)
	}
	h := b.handler
	if h == nil {
		return nil
	}
	h.OnTick(time.Duration(timestampMs * float64(time.Millisecond)))
	return nil
}

func (b *HostBridge) OnResize(width, height int) {
	if b.inFlight {
		b.resize = &resizeRequest{width: width, height: height}
		return
	}
	b.ctx.Resize(width, height)
}

// OnVisibilityChange pauses a running handler while the surface is hidden
// and resumes it on show, but only when the bridge was the one to pause it.
func (b *HostBridge) OnVisibilityChange(visible bool) {
	h := b.handler
	if h == nil {
		return
	}
	if !visible {
		if h.State() == Running && h.Pause() == nil {
			b.paused = true
		}
		return
	}
	if !b.paused {
		return
	}
	b.paused = false
	if err := h.Resume(); err != nil {
		Logger().Debug("resume on show", slog.Any("err", err))
	}
}

// OnContextLost reports true only the first time a Ready context is lost.
func (b *HostBridge) OnContextLost() bool {
	return b.ctx.MarkLost()
}
