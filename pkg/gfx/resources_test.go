package gfx_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/internal/gltest"
	"github.com/kjkrol/glroom/pkg/gfx"
)

func TestResourceManager_CompileProgram(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)

	h, err := r.rm.CompileProgram(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	assert.Equal(t, gfx.KindProgram, h.Kind)
	assert.True(t, r.rm.Valid(h))

	p, err := r.rm.Program(h)
	require.NoError(t, err)
	loc, ok := p.AttribLocation("aNormal")
	assert.True(t, ok)
	assert.Equal(t, 1, loc)
	_, ok = p.UniformLocation("uMVMatrix")
	assert.True(t, ok)
	_, ok = p.UniformLocation("uSampler")
	assert.True(t, ok)

	assert.Zero(t, r.device().LiveShaders(), "shaders are deleted after link")
}

func TestResourceManager_CompileErrors(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)

	_, err := r.rm.CompileProgram(vertexSrc, "void main() { oFragColor = vec4(1.0);")
	var cerr *gfx.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, gfx.StageFragment, cerr.Stage)
	assert.NotEmpty(t, cerr.Message)

	_, err = r.rm.CompileProgram("int x;", fragmentSrc)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, gfx.StageVertex, cerr.Stage)

	r.device().FailLink = true
	_, err = r.rm.CompileProgram(vertexSrc, fragmentSrc)
	var lerr *gfx.LinkError
	require.ErrorAs(t, err, &lerr)

	assert.Zero(t, r.device().LiveShaders())
	assert.Zero(t, r.device().Live(), "failed programs leave nothing behind")
	assert.Empty(t, r.device().Misuse)
}

func TestResourceManager_CompileRequiresReadyContext(t *testing.T) {
	rm := gfx.NewResourceManager(gfx.NewContext(), gfx.ResourceConfig{})
	_, err := rm.CompileProgram(vertexSrc, fragmentSrc)
	assert.ErrorIs(t, err, gfx.ErrContextNotReady)
}

func TestResourceManager_UploadGeometry(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)

	h, err := r.rm.UploadGeometry(gfx.PositionNormalUV, triangle, []uint32{0, 1, 2})
	require.NoError(t, err)

	g, err := r.rm.Geometry(h)
	require.NoError(t, err)
	assert.Equal(t, 3, g.VertexCount)
	assert.Equal(t, 3, g.IndexCount)
	assert.Equal(t, 8, g.Layout.Stride())

	_, err = r.rm.UploadGeometry(gfx.PositionNormalUV, nil, nil)
	assert.ErrorIs(t, err, gfx.ErrEmptyGeometry)

	_, err = r.rm.UploadGeometry(gfx.PositionNormalUV, triangle[:7], nil)
	assert.Error(t, err)
}

func TestResourceManager_AllocationErrors(t *testing.T) {
	surface := gltest.NewSurface(640, 480)
	surface.Configure = func(d *gltest.Device) { d.Caps.MaxBufferSize = 64 }
	ctx := gfx.NewContext()
	require.NoError(t, ctx.Initialize(surface, roomConfig()))
	rm := gfx.NewResourceManager(ctx, gfx.ResourceConfig{})
	dev := surface.Last()
	before := dev.Live()

	_, err := rm.UploadGeometry(gfx.PositionNormalUV, triangle, nil)
	var aerr *gfx.AllocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 96, aerr.Size)
	assert.Equal(t, 64, aerr.Limit)
	assert.Equal(t, before, dev.Live(), "nothing is created past the limit")
}

func TestResourceManager_DeviceRejectsUpload(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	before := r.device().Live()

	r.device().FailUpload = gltest.ErrOutOfMemory
	_, err := r.rm.UploadGeometry(gfx.PositionNormalUV, triangle, nil)
	var aerr *gfx.AllocationError
	require.ErrorAs(t, err, &aerr)
	assert.True(t, errors.Is(err, gltest.ErrOutOfMemory))

	assert.Equal(t, before, r.device().Live(), "partial uploads are cleaned up")
}

func TestResourceManager_CapabilitiesAreReadAtInitialize(t *testing.T) {
	surface := gltest.NewSurface(32, 32)
	surface.Configure = func(d *gltest.Device) { d.Caps.MaxTextureSize = 2 }
	ctx := gfx.NewContext()
	require.NoError(t, ctx.Initialize(surface, roomConfig()))
	rm := gfx.NewResourceManager(ctx, gfx.ResourceConfig{})

	_, err := rm.UploadTexture(image.NewRGBA(image.Rect(0, 0, 4, 1)))
	var aerr *gfx.AllocationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, gfx.KindTexture, aerr.Kind)

	img := image.NewNRGBA(image.Rect(3, 3, 5, 5))
	img.Set(3, 3, color.NRGBA{R: 255, A: 255})
	h, err := rm.UploadTexture(img)
	require.NoError(t, err)
	assert.Equal(t, gfx.KindTexture, h.Kind)
}

func TestResourceManager_ReleaseIsIdempotent(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	h := r.geometry(t)
	live := r.device().Live()

	r.rm.Release(h)
	afterOnce := r.device().Live()
	r.rm.Release(h)

	assert.Equal(t, afterOnce, r.device().Live())
	assert.Less(t, afterOnce, live)
	assert.True(t, r.rm.Released(h))
	assert.False(t, r.rm.Valid(h))
	assert.Empty(t, r.device().Misuse)

	r.rm.Release(gfx.Handle{})
	r.rm.Release(gfx.Handle{Kind: gfx.KindGeometry, ID: 999})
}

func TestResourceManager_RefCounting(t *testing.T) {
	for _, policy := range []gfx.ReleasePolicy{gfx.ReleaseEager, gfx.ReleaseDeferred} {
		r := newRuntime(t, policy)
		h := r.geometry(t)

		require.NoError(t, r.rm.Retain(h))
		require.NoError(t, r.rm.Retain(h))
		r.rm.Release(h)
		assert.False(t, r.rm.Released(h), "referenced resources survive release")
		assert.ErrorIs(t, r.rm.Retain(h), gfx.ErrReleasedHandle)

		n, err := r.rm.Unretain(h)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = r.rm.Unretain(h)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, r.rm.RefCount(h))

		if policy == gfx.ReleaseDeferred {
			assert.False(t, r.rm.Released(h))
			r.rm.Collect()
		}
		assert.True(t, r.rm.Released(h))
		assert.Empty(t, r.device().Misuse)
	}
}

func TestResourceManager_BindRefusesReleased(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	prog := r.program(t)
	geom := r.geometry(t)

	_, err := r.rm.Bind(prog, geom, gfx.Handle{})
	require.NoError(t, err)
	assert.Empty(t, r.rm.Violations())

	r.rm.Release(geom)
	_, err = r.rm.Bind(prog, geom, gfx.Handle{})
	assert.ErrorIs(t, err, gfx.ErrReleasedHandle)
	require.Len(t, r.rm.Violations(), 1)
	assert.Equal(t, geom, r.rm.Violations()[0].Handle)

	_, err = r.rm.Bind(geom, prog, gfx.Handle{})
	assert.ErrorIs(t, err, gfx.ErrWrongKind)
	assert.Empty(t, r.device().Misuse)
}

func TestResourceManager_PurgeAfterLoss(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	prog := r.program(t)
	require.NoError(t, r.rm.Retain(prog))
	lost := r.device()

	r.ctx.MarkLost()
	_, err := r.rm.Bind(prog, gfx.Handle{}, gfx.Handle{})
	assert.ErrorIs(t, err, gfx.ErrStaleHandle)

	require.NoError(t, r.ctx.Initialize(r.surface, roomConfig()))
	r.rm.Purge()
	assert.False(t, r.rm.Valid(prog))
	assert.ErrorIs(t, r.rm.Retain(prog), gfx.ErrStaleHandle)
	_, err = r.rm.Unretain(prog)
	assert.NoError(t, err)

	fresh := r.program(t)
	assert.True(t, r.rm.Valid(fresh))
	assert.NotEqual(t, prog, fresh)
	assert.Empty(t, lost.Misuse, "nothing touches the lost device")
	assert.Empty(t, r.rm.Violations())
}

func TestResourceManager_PurgeKeepsCurrentReleases(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseDeferred)
	geo := r.geometry(t)
	live := r.device().Live()

	r.rm.Release(geo)
	r.rm.Purge()
	assert.False(t, r.rm.Released(geo), "purge leaves current-generation entries alone")

	r.rm.Collect()
	assert.True(t, r.rm.Released(geo))
	assert.False(t, r.rm.Valid(geo))
	assert.Less(t, r.device().Live(), live)
	assert.Empty(t, r.device().Misuse)
}

func TestResourceManager_SetUniforms(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseEager)
	prog := r.program(t)
	geom := r.geometry(t)
	_, err := r.rm.Bind(prog, geom, gfx.Handle{})
	require.NoError(t, err)

	require.NoError(t, r.rm.SetUniforms(prog, gfx.Uniforms{
		"uSampler":    int32(0),
		"uNotPresent": float32(1),
	}))
	p, err := r.rm.Program(prog)
	require.NoError(t, err)
	_, ok := p.UniformLocation("uNotPresent")
	assert.False(t, ok)

	assert.Error(t, r.rm.SetUniforms(prog, gfx.Uniforms{"uSampler": "zero"}))
	assert.Empty(t, r.device().Misuse)
}

func TestResourceManager_ReleaseAll(t *testing.T) {
	r := newRuntime(t, gfx.ReleaseDeferred)
	r.program(t)
	r.geometry(t)
	require.NotZero(t, r.device().Live())

	r.rm.ReleaseAll()
	assert.Zero(t, r.device().Live())
}
