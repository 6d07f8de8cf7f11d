package gfx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/pkg/gfx"
)

type loopFixture struct {
	*runtime
	scene  *gfx.Scene
	loop   *gfx.RenderLoop
	deltas []time.Duration
}

func newLoopFixture(t *testing.T, objects int) *loopFixture {
	t.Helper()
	f := &loopFixture{runtime: newRuntime(t, gfx.ReleaseDeferred)}
	f.scene = gfx.NewScene(f.rm)
	f.loop = gfx.NewRenderLoop(f.ctx, f.rm, f.scene, nil, gfx.LoopConfig{})
	f.populate(t, objects)
	return f
}

func (f *loopFixture) populate(t *testing.T, objects int) {
	t.Helper()
	prog := f.program(t)
	geo := f.geometry(t)
	record := func(tr gfx.Transform, fs gfx.FrameState) gfx.Transform {
		f.deltas = append(f.deltas, fs.Delta)
		return tr
	}
	for i := range objects {
		opts := []gfx.ObjectOption{gfx.WithName("object")}
		if i == 0 {
			opts = append(opts, gfx.WithAnimator(record))
		}
		_, err := f.scene.AddObject(geo, prog, gfx.Identity(), opts...)
		require.NoError(t, err)
	}
	f.rm.Release(prog)
	f.rm.Release(geo)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestRenderLoop_Transitions(t *testing.T) {
	loop := newLoopFixture(t, 0).loop
	assert.Equal(t, gfx.Stopped, loop.State())

	require.NoError(t, loop.Start())
	require.NoError(t, loop.Pause())
	require.NoError(t, loop.Resume())
	require.NoError(t, loop.Stop())
	assert.Equal(t, gfx.Stopped, loop.State())

	require.NoError(t, loop.Start())
	require.NoError(t, loop.Pause())
	require.NoError(t, loop.Stop())
	require.NoError(t, loop.Stop())

	assert.ErrorIs(t, loop.Pause(), gfx.ErrInvalidTransition)
	assert.ErrorIs(t, loop.Resume(), gfx.ErrInvalidTransition)
	require.NoError(t, loop.Start())
	assert.ErrorIs(t, loop.Start(), gfx.ErrInvalidTransition)
	assert.ErrorIs(t, loop.Resume(), gfx.ErrInvalidTransition)
}

func TestRenderLoop_StoppedTickIsNoop(t *testing.T) {
	f := newLoopFixture(t, 2)

	f.loop.OnTick(ms(16))
	f.loop.OnTick(ms(32))

	assert.Equal(t, gfx.Stats{}, f.loop.Stats())
	assert.Empty(t, f.device().Draws)
	assert.Zero(t, f.device().Clears)
	assert.Empty(t, f.deltas)
}

func TestRenderLoop_RunningTicksDraw(t *testing.T) {
	f := newLoopFixture(t, 3)
	require.NoError(t, f.loop.Start())

	f.loop.OnTick(ms(1000))
	f.loop.OnTick(ms(1016))

	assert.Equal(t, gfx.Stats{Frames: 2, Draws: 6}, f.loop.Stats())
	assert.Equal(t, 2, f.device().Clears)
	require.Len(t, f.device().Draws, 6)
	assert.Equal(t, 3, f.device().Draws[0].Count)
	assert.Equal(t, []time.Duration{0, ms(16)}, f.deltas, "first tick has no delta")

	mv, ok := f.device().UniformValue(f.device().Draws[0].Program, gfx.UniformModelView)
	require.True(t, ok)
	assert.IsType(t, [16]float32{}, mv)
	assert.Empty(t, f.device().Misuse)
	assert.Empty(t, f.rm.Violations())
}

func TestRenderLoop_DeltaClampedAfterLongPause(t *testing.T) {
	f := newLoopFixture(t, 1)
	require.NoError(t, f.loop.Start())

	f.loop.OnTick(ms(0))
	f.loop.OnTick(ms(16))
	require.NoError(t, f.loop.Pause())
	require.NoError(t, f.loop.Resume())
	f.loop.OnTick(ms(10_016))

	require.Len(t, f.deltas, 3)
	assert.LessOrEqual(t, f.deltas[2], time.Second/15)
	assert.Equal(t, gfx.DefaultMaxDelta, f.deltas[2])
}

func TestRenderLoop_PausedTicksKeepClock(t *testing.T) {
	f := newLoopFixture(t, 1)
	require.NoError(t, f.loop.Start())

	f.loop.OnTick(ms(0))
	require.NoError(t, f.loop.Pause())
	for ts := 16; ts <= 5000; ts += 16 {
		f.loop.OnTick(ms(ts))
	}
	assert.Equal(t, uint64(1), f.loop.Stats().Frames, "paused ticks draw nothing")

	require.NoError(t, f.loop.Resume())
	f.loop.OnTick(ms(5008))

	assert.Equal(t, []time.Duration{0, ms(16)}, f.deltas)
}

func TestRenderLoop_TransitionDuringTickAppliesAfterSubmission(t *testing.T) {
	f := newLoopFixture(t, 0)
	prog := f.program(t)
	geo := f.geometry(t)
	var during gfx.LoopState
	pause := func(tr gfx.Transform, fs gfx.FrameState) gfx.Transform {
		require.NoError(t, f.loop.Pause())
		during = f.loop.State()
		return tr
	}
	_, err := f.scene.AddObject(geo, prog, gfx.Identity(), gfx.WithAnimator(pause))
	require.NoError(t, err)
	_, err = f.scene.AddObject(geo, prog, gfx.Identity())
	require.NoError(t, err)

	require.NoError(t, f.loop.Start())
	f.loop.OnTick(ms(0))

	assert.Equal(t, gfx.Running, during)
	assert.Equal(t, gfx.Paused, f.loop.State())
	assert.Len(t, f.device().Draws, 2, "the frame is completed before pausing")
}

func TestRenderLoop_ContextLossSkipsDraws(t *testing.T) {
	f := newLoopFixture(t, 2)
	require.NoError(t, f.loop.Start())
	f.loop.OnTick(ms(0))

	f.device().Lost = true
	f.loop.OnTick(ms(16))
	f.loop.OnTick(ms(32))

	stats := f.loop.Stats()
	assert.Equal(t, uint64(3), stats.Frames, "the loop keeps ticking")
	assert.Equal(t, uint64(2), stats.Draws)
	assert.Equal(t, uint64(4), stats.Skipped)
	assert.Equal(t, gfx.Invalid, f.ctx.State())
	assert.Equal(t, gfx.Running, f.loop.State())

	// restore: new generation, stale entries purged, scene rebuilt
	require.NoError(t, f.ctx.Initialize(f.surface, roomConfig()))
	f.scene.Clear()
	f.rm.Purge()
	f.populate(t, 2)
	f.loop.OnTick(ms(48))

	assert.Equal(t, uint64(4), f.loop.Stats().Draws)
	assert.Len(t, f.device().Draws, 2)
	assert.Empty(t, f.device().Misuse)
	assert.Empty(t, f.rm.Violations())
}

func TestRenderLoop_StaleObjectsAreSkipped(t *testing.T) {
	f := newLoopFixture(t, 2)
	require.NoError(t, f.loop.Start())

	f.ctx.MarkLost()
	require.NoError(t, f.ctx.Initialize(f.surface, roomConfig()))
	f.rm.Purge()
	f.loop.OnTick(ms(0))

	assert.Equal(t, uint64(2), f.loop.Stats().Skipped)
	assert.Empty(t, f.device().Draws)
	assert.Empty(t, f.rm.Violations())
}

func TestRenderLoop_DeferredReleaseCollectsAfterFrame(t *testing.T) {
	f := newLoopFixture(t, 1)
	require.NoError(t, f.loop.Start())
	var id gfx.ObjectID
	f.scene.Each(func(o *gfx.DrawableObject) { id = o.ID })
	o, _ := f.scene.Object(id)
	geo := o.Geometry

	require.NoError(t, f.scene.RemoveObject(id))
	assert.False(t, f.rm.Released(geo))

	f.loop.OnTick(ms(0))
	assert.True(t, f.rm.Released(geo))
	assert.Empty(t, f.device().Misuse)
}

func TestRenderLoop_SubscribesToTickSource(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	bridge := gfx.NewHostBridge(r.ctx)
	scene := gfx.NewScene(r.rm)
	loop := gfx.NewRenderLoop(r.ctx, r.rm, scene, bridge, gfx.LoopConfig{MaxDelta: ms(50)})

	require.NoError(t, bridge.OnTick(16))
	require.NoError(t, loop.Start())
	require.NoError(t, bridge.OnTick(32))
	assert.Equal(t, uint64(1), loop.Stats().Frames)

	require.NoError(t, loop.Stop())
	require.NoError(t, bridge.OnTick(48))
	assert.Equal(t, uint64(1), loop.Stats().Frames)
}
