package gfx

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindProgram
	KindGeometry
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "program"
	case KindGeometry:
		return "geometry"
	case KindTexture:
		return "texture"
	default:
		return "none"
	}
}

// Handle is an opaque reference to a resource owned by a ResourceManager.
// IDs are never reused, so a stale handle can never alias a newer resource.
type Handle struct {
	Kind Kind
	ID   uint32
}

func (h Handle) IsZero() bool { return h.ID == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// ReleasePolicy decides when a released, unreferenced resource is destroyed.
type ReleasePolicy int

const (
	// ReleaseEager destroys as soon as the last reference goes away.
	ReleaseEager ReleasePolicy = iota
	// ReleaseDeferred destroys on the next Collect, after the frame's draws.
	ReleaseDeferred
)

type ResourceConfig struct {
	Policy ReleasePolicy
}

// ShaderProgram is a linked vertex+fragment pair. Immutable once linked.
type ShaderProgram struct {
	Handle     Handle
	object     Object
	attributes map[string]int
	uniforms   map[string]Location
}

func (p *ShaderProgram) AttribLocation(name string) (int, bool) {
	loc, ok := p.attributes[name]
	return loc, ok
}

func (p *ShaderProgram) UniformLocation(name string) (Location, bool) {
	loc, ok := p.uniforms[name]
	return loc, ok
}

// VertexAttribute binds a run of floats in an interleaved vertex to a shader
// attribute location.
type VertexAttribute struct {
	Name     string
	Location int
	Size     int
}

type VertexLayout struct {
	Attributes []VertexAttribute
}

// Stride is the vertex size in floats.
func (l VertexLayout) Stride() int {
	stride := 0
	for _, a := range l.Attributes {
		stride += a.Size
	}
	return stride
}

// PositionNormalUV matches `layout(location = N)` declarations of
// aPosition, aNormal and aTexture.
var PositionNormalUV = VertexLayout{Attributes: []VertexAttribute{
	{Name: "aPosition", Location: 0, Size: 3},
	{Name: "aNormal", Location: 1, Size: 3},
	{Name: "aTexture", Location: 2, Size: 2},
}}

type GeometryBuffer struct {
	Handle      Handle
	Layout      VertexLayout
	VertexCount int
	IndexCount  int
	vao         Object
	vbo         Object
	ebo         Object
}

type Texture struct {
	Handle Handle
	Width  int
	Height int
	object Object
}

// Uniforms maps uniform names to float32, int32, int, mgl32.Vec3,
// mgl32.Vec4 or mgl32.Mat4 values.
type Uniforms map[string]any

// Violation records an attempt to use a resource after it was destroyed.
type Violation struct {
	Handle Handle
	Op     string
}

type resource struct {
	handle     Handle
	generation uint64
	refs       int
	released   bool
	destroyed  bool
	stale      bool

	program  *ShaderProgram
	geometry *GeometryBuffer
	texture  *Texture
}

// ResourceManager compiles programs, uploads geometry and textures and
// tracks their lifetime. Resources are reference counted by the Scene and
// destroyed only once released and unreferenced.
type ResourceManager struct {
	ctx        *Context
	conf       ResourceConfig
	nextID     uint32
	resources  map[Handle]*resource
	pending    []Handle
	violations []Violation
}

func NewResourceManager(ctx *Context, conf ResourceConfig) *ResourceManager {
	return &ResourceManager{
		ctx:       ctx,
		conf:      conf,
		resources: make(map[Handle]*resource),
	}
}

func (rm *ResourceManager) device() (Device, error) {
	if rm.ctx == nil || rm.ctx.State() != Ready {
		return nil, ErrContextNotReady
	}
	return rm.ctx.Device(), nil
}

func (rm *ResourceManager) register(kind Kind) *resource {
	rm.nextID++
	r := &resource{
		handle:     Handle{Kind: kind, ID: rm.nextID},
		generation: rm.ctx.Generation(),
	}
	rm.resources[r.handle] = r
	return r
}

// CompileProgram compiles and links a vertex+fragment pair. The device's
// shading-language header is prepended to sources without #version.
func (rm *ResourceManager) CompileProgram(vertexSource, fragmentSource string) (Handle, error) {
	dev, err := rm.device()
	if err != nil {
		return Handle{}, err
	}
	header := rm.ctx.Capabilities().ShaderHeader

	vs, err := compileShader(dev, StageVertex, withHeader(header, vertexSource))
	if err != nil {
		return Handle{}, err
	}
	fs, err := compileShader(dev, StageFragment, withHeader(header, fragmentSource))
	if err != nil {
		dev.DeleteShader(vs)
		return Handle{}, err
	}

	program := dev.CreateProgram(vs, fs)
	ok, infoLog := dev.LinkProgram(program)
	dev.DeleteShader(vs)
	dev.DeleteShader(fs)
	if !ok {
		dev.DeleteProgram(program)
		return Handle{}, &LinkError{Message: strings.TrimSpace(infoLog)}
	}

	p := &ShaderProgram{
		object:     program,
		attributes: make(map[string]int),
		uniforms:   make(map[string]Location),
	}
	for _, name := range dev.ActiveAttributes(program) {
		p.attributes[name] = dev.AttribLocation(program, name)
	}
	for _, name := range dev.ActiveUniforms(program) {
		p.uniforms[name] = dev.UniformLocation(program, name)
	}

	r := rm.register(KindProgram)
	p.Handle = r.handle
	r.program = p
	Logger().Debug("program linked",
		slog.String("handle", r.handle.String()),
		slog.Int("attributes", len(p.attributes)),
		slog.Int("uniforms", len(p.uniforms)),
	)
	return r.handle, nil
}

func withHeader(header, source string) string {
	if header == "" || strings.Contains(source, "#version") {
		return source
	}
	return header + source
}

func compileShader(dev Device, stage ShaderStage, source string) (Object, error) {
	shader := dev.CreateShader(stage, source)
	if shader == 0 {
		return 0, &CompileError{Stage: stage, Message: "shader object could not be created"}
	}
	ok, infoLog := dev.CompileShader(shader)
	if !ok {
		dev.DeleteShader(shader)
		return 0, &CompileError{Stage: stage, Message: strings.TrimSpace(infoLog)}
	}
	return shader, nil
}

// UploadGeometry uploads interleaved vertices laid out as layout, plus an
// optional index list.
func (rm *ResourceManager) UploadGeometry(layout VertexLayout, vertices []float32, indices []uint32) (Handle, error) {
	dev, err := rm.device()
	if err != nil {
		return Handle{}, err
	}
	stride := layout.Stride()
	if len(vertices) == 0 || stride == 0 {
		return Handle{}, ErrEmptyGeometry
	}
	if len(vertices)%stride != 0 {
		return Handle{}, fmt.Errorf("gfx: %d floats is not a multiple of vertex stride %d", len(vertices), stride)
	}
	limit := rm.ctx.Capabilities().MaxBufferSize
	for _, size := range []int{len(vertices) * 4, len(indices) * 4} {
		if limit > 0 && size > limit {
			return Handle{}, &AllocationError{Kind: KindGeometry, Size: size, Limit: limit}
		}
	}

	g := &GeometryBuffer{
		Layout:      layout,
		VertexCount: len(vertices) / stride,
		IndexCount:  len(indices),
	}
	cleanup := func() {
		dev.BindVertexArray(0)
		if g.ebo != 0 {
			dev.DeleteBuffer(g.ebo)
		}
		if g.vbo != 0 {
			dev.DeleteBuffer(g.vbo)
		}
		if g.vao != 0 {
			dev.DeleteVertexArray(g.vao)
		}
	}

	g.vao = dev.CreateVertexArray()
	g.vbo = dev.CreateBuffer()
	if g.vao == 0 || g.vbo == 0 {
		cleanup()
		return Handle{}, &AllocationError{Kind: KindGeometry, Size: len(vertices) * 4}
	}
	dev.BindVertexArray(g.vao)
	dev.BindBuffer(ArrayBuffer, g.vbo)
	if err := dev.BufferData(ArrayBuffer, Float32Bytes(vertices)); err != nil {
		cleanup()
		return Handle{}, &AllocationError{Kind: KindGeometry, Size: len(vertices) * 4, Err: err}
	}
	offset := 0
	for _, a := range layout.Attributes {
		dev.VertexAttribPointer(a.Location, a.Size, stride*4, offset*4)
		offset += a.Size
	}
	if len(indices) > 0 {
		g.ebo = dev.CreateBuffer()
		if g.ebo == 0 {
			cleanup()
			return Handle{}, &AllocationError{Kind: KindGeometry, Size: len(indices) * 4}
		}
		dev.BindBuffer(ElementArrayBuffer, g.ebo)
		if err := dev.BufferData(ElementArrayBuffer, Uint32Bytes(indices)); err != nil {
			cleanup()
			return Handle{}, &AllocationError{Kind: KindGeometry, Size: len(indices) * 4, Err: err}
		}
	}
	dev.BindVertexArray(0)

	r := rm.register(KindGeometry)
	g.Handle = r.handle
	r.geometry = g
	Logger().Debug("geometry uploaded",
		slog.String("handle", r.handle.String()),
		slog.Int("vertices", g.VertexCount),
		slog.Int("indices", g.IndexCount),
	)
	return r.handle, nil
}

// UploadTexture uploads img as an RGBA8 texture with mipmaps.
func (rm *ResourceManager) UploadTexture(img image.Image) (Handle, error) {
	dev, err := rm.device()
	if err != nil {
		return Handle{}, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Handle{}, fmt.Errorf("gfx: empty texture %dx%d", w, h)
	}
	if limit := rm.ctx.Capabilities().MaxTextureSize; limit > 0 && (w > limit || h > limit) {
		return Handle{}, &AllocationError{Kind: KindTexture, Size: max(w, h), Limit: limit}
	}

	tex := dev.CreateTexture()
	if tex == 0 {
		return Handle{}, &AllocationError{Kind: KindTexture, Size: w * h * 4}
	}
	if err := dev.TexImage2D(tex, w, h, rgbaPixels(img)); err != nil {
		dev.DeleteTexture(tex)
		return Handle{}, &AllocationError{Kind: KindTexture, Size: w * h * 4, Err: err}
	}

	r := rm.register(KindTexture)
	r.texture = &Texture{Handle: r.handle, Width: w, Height: h, object: tex}
	Logger().Debug("texture uploaded", slog.String("handle", r.handle.String()), slog.Int("w", w), slog.Int("h", h))
	return r.handle, nil
}

func rgbaPixels(img image.Image) []byte {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba.Pix
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

func (rm *ResourceManager) lookup(h Handle, kind Kind) (*resource, error) {
	r, ok := rm.resources[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("%w: %s, want %s", ErrWrongKind, h, kind)
	}
	if r.stale || r.generation != rm.ctx.Generation() || rm.ctx.State() != Ready {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	if r.destroyed {
		return nil, fmt.Errorf("%w: %s", ErrReleasedHandle, h)
	}
	return r, nil
}

// Valid reports whether h refers to a live resource of the current context
// generation.
func (rm *ResourceManager) Valid(h Handle) bool {
	_, err := rm.lookup(h, h.Kind)
	return err == nil
}

func (rm *ResourceManager) Program(h Handle) (*ShaderProgram, error) {
	r, err := rm.lookup(h, KindProgram)
	if err != nil {
		return nil, err
	}
	return r.program, nil
}

func (rm *ResourceManager) Geometry(h Handle) (*GeometryBuffer, error) {
	r, err := rm.lookup(h, KindGeometry)
	if err != nil {
		return nil, err
	}
	return r.geometry, nil
}

// Retain adds a reference to a live resource that has not been released.
func (rm *ResourceManager) Retain(h Handle) error {
	r, err := rm.lookup(h, h.Kind)
	if err != nil {
		return err
	}
	if r.released {
		return fmt.Errorf("%w: %s already released", ErrReleasedHandle, h)
	}
	r.refs++
	return nil
}

// Unretain drops a reference and returns how many remain. A resource with
// no references left is eligible for release; if it was already released it
// is destroyed according to the policy.
func (rm *ResourceManager) Unretain(h Handle) (int, error) {
	r, ok := rm.resources[h]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if r.refs > 0 {
		r.refs--
	}
	if r.refs == 0 && r.released {
		rm.scheduleDestroy(r)
	}
	return r.refs, nil
}

func (rm *ResourceManager) RefCount(h Handle) int {
	if r, ok := rm.resources[h]; ok {
		return r.refs
	}
	return 0
}

// Eligible reports whether nothing references h any more.
func (rm *ResourceManager) Eligible(h Handle) bool {
	r, ok := rm.resources[h]
	return ok && !r.destroyed && r.refs == 0
}

// Released reports whether h has been destroyed.
func (rm *ResourceManager) Released(h Handle) bool {
	r, ok := rm.resources[h]
	return ok && r.destroyed
}

// Release marks h for destruction. Calling it again, or on an unknown or
// zero handle, does nothing.
func (rm *ResourceManager) Release(h Handle) {
	r, ok := rm.resources[h]
	if !ok || r.released || r.destroyed {
		return
	}
	r.released = true
	if r.refs == 0 {
		rm.scheduleDestroy(r)
	}
}

func (rm *ResourceManager) scheduleDestroy(r *resource) {
	if rm.conf.Policy == ReleaseDeferred {
		rm.pending = append(rm.pending, r.handle)
		return
	}
	rm.destroy(r)
}

// Collect destroys every released resource whose last reference is gone.
func (rm *ResourceManager) Collect() {
	if len(rm.pending) == 0 {
		return
	}
	pending := rm.pending
	rm.pending = nil
	for _, h := range pending {
		r, ok := rm.resources[h]
		if !ok || r.refs > 0 {
			continue
		}
		rm.destroy(r)
	}
}

func (rm *ResourceManager) destroy(r *resource) {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.stale || r.generation != rm.ctx.Generation() || rm.ctx.State() != Ready {
		// the context that owned the GPU objects is gone
		return
	}
	dev := rm.ctx.Device()
	switch {
	case r.program != nil:
		dev.DeleteProgram(r.program.object)
	case r.geometry != nil:
		g := r.geometry
		if g.ebo != 0 {
			dev.DeleteBuffer(g.ebo)
		}
		dev.DeleteBuffer(g.vbo)
		dev.DeleteVertexArray(g.vao)
	case r.texture != nil:
		dev.DeleteTexture(r.texture.object)
	}
	Logger().Debug("resource destroyed", slog.String("handle", r.handle.String()))
}

// Purge marks every resource of an older context generation stale. No
// device calls are made; the GPU objects died with their context.
func (rm *ResourceManager) Purge() {
	gen := rm.ctx.Generation()
	purged := 0
	for _, r := range rm.resources {
		if r.generation == gen && rm.ctx.State() == Ready || r.stale {
			continue
		}
		r.stale = true
		r.destroyed = true
		r.refs = 0
		purged++
	}
	rm.pending = slices.DeleteFunc(rm.pending, func(h Handle) bool {
		r, ok := rm.resources[h]
		return !ok || r.stale
	})
	if purged > 0 {
		Logger().Info("stale resources purged", slog.Int("count", purged))
	}
}

// ReleaseAll releases every resource and destroys the unreferenced ones
// immediately.
func (rm *ResourceManager) ReleaseAll() {
	for _, r := range rm.resources {
		if r.destroyed {
			continue
		}
		r.released = true
		if r.refs == 0 {
			rm.destroy(r)
		}
	}
	rm.pending = nil
}

// Bind makes program, geometry and the optional texture current. Touching a
// destroyed resource is recorded as a violation and refused.
func (rm *ResourceManager) Bind(program, geometry, texture Handle) (*GeometryBuffer, error) {
	p, err := rm.bindLookup(program, KindProgram)
	if err != nil {
		return nil, err
	}
	g, err := rm.bindLookup(geometry, KindGeometry)
	if err != nil {
		return nil, err
	}
	var t *resource
	if !texture.IsZero() {
		if t, err = rm.bindLookup(texture, KindTexture); err != nil {
			return nil, err
		}
	}
	dev := rm.ctx.Device()
	dev.UseProgram(p.program.object)
	dev.BindVertexArray(g.geometry.vao)
	if t != nil {
		dev.BindTexture(0, t.texture.object)
	}
	return g.geometry, nil
}

func (rm *ResourceManager) bindLookup(h Handle, kind Kind) (*resource, error) {
	r, err := rm.lookup(h, kind)
	if err != nil {
		if errors.Is(err, ErrReleasedHandle) {
			rm.violations = append(rm.violations, Violation{Handle: h, Op: "bind"})
		}
		return nil, err
	}
	return r, nil
}

// Violations lists every refused use of a destroyed resource.
func (rm *ResourceManager) Violations() []Violation {
	return rm.violations
}

// SetUniforms uploads u into program, which must be bound. Names the
// program does not use are skipped.
func (rm *ResourceManager) SetUniforms(program Handle, u Uniforms) error {
	p, err := rm.bindLookup(program, KindProgram)
	if err != nil {
		return err
	}
	dev := rm.ctx.Device()
	var bad []string
	for name, value := range u {
		loc, ok := p.program.uniforms[name]
		if !ok || loc < 0 {
			continue
		}
		switch v := value.(type) {
		case float32:
			dev.Uniform1f(loc, v)
		case float64:
			dev.Uniform1f(loc, float32(v))
		case int32:
			dev.Uniform1i(loc, v)
		case int:
			dev.Uniform1i(loc, int32(v))
		case mgl32.Vec3:
			dev.Uniform3f(loc, v[0], v[1], v[2])
		case mgl32.Vec4:
			dev.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case mgl32.Mat4:
			dev.UniformMatrix4fv(loc, [16]float32(v))
		default:
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("gfx: unsupported uniform types for %s", strings.Join(bad, ", "))
	}
	return nil
}
