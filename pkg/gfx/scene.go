package gfx

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform names the scene fills in for every draw.
const (
	UniformProjection = "uPMatrix"
	UniformModelView  = "uMVMatrix"
	UniformSampler    = "uSampler"
)

type ObjectID uint64

// Animator returns the next transform of an object. It must depend only on
// the prior transform and the frame state.
type Animator func(t Transform, fs FrameState) Transform

// Spin rotates about axis at radiansPerSecond, scaled by the frame delta.
func Spin(axis mgl32.Vec3, radiansPerSecond float32) Animator {
	return func(t Transform, fs FrameState) Transform {
		step := radiansPerSecond * float32(fs.Delta.Seconds())
		t.Rotation = t.Rotation.Add(axis.Mul(step))
		return t
	}
}

// DrawableObject pairs shared geometry and program handles with the
// per-object state needed to draw them.
type DrawableObject struct {
	ID        ObjectID
	Name      string
	Geometry  Handle
	Program   Handle
	Texture   Handle
	Transform Transform
	Uniforms  Uniforms
	Animator  Animator
}

type ObjectOption func(*DrawableObject)

func WithTexture(h Handle) ObjectOption {
	return func(o *DrawableObject) { o.Texture = h }
}

func WithUniforms(u Uniforms) ObjectOption {
	return func(o *DrawableObject) { o.Uniforms = u }
}

func WithAnimator(a Animator) ObjectOption {
	return func(o *DrawableObject) { o.Animator = a }
}

func WithName(name string) ObjectOption {
	return func(o *DrawableObject) { o.Name = name }
}

// Scene holds the drawable objects of the demo in insertion order. Every
// handle an object references is retained for as long as the object lives.
type Scene struct {
	rm      *ResourceManager
	nextID  ObjectID
	objects map[ObjectID]*DrawableObject
	order   []ObjectID
	camera  Camera
	globals Uniforms
}

func NewScene(rm *ResourceManager) *Scene {
	return &Scene{
		rm:      rm,
		objects: make(map[ObjectID]*DrawableObject),
		camera:  DefaultCamera(),
		globals: Uniforms{},
	}
}

func (s *Scene) AddObject(geometry, program Handle, t Transform, opts ...ObjectOption) (ObjectID, error) {
	o := &DrawableObject{Geometry: geometry, Program: program, Transform: t}
	for _, opt := range opts {
		opt(o)
	}

	refs := []Handle{o.Geometry, o.Program}
	if !o.Texture.IsZero() {
		refs = append(refs, o.Texture)
	}
	want := []Kind{KindGeometry, KindProgram, KindTexture}

	for i, h := range refs {
		if err := s.retain(h, want[i]); err != nil {
			for _, done := range refs[:i] {
				_, _ = s.rm.Unretain(done)
			}
			return 0, err
		}
	}

	s.nextID++
	o.ID = s.nextID
	s.objects[o.ID] = o
	s.order = append(s.order, o.ID)
	return o.ID, nil
}

func (s *Scene) retain(h Handle, kind Kind) error {
	if h.Kind != kind {
		return fmt.Errorf("%w: %s, want %s", ErrWrongKind, h, kind)
	}
	return s.rm.Retain(h)
}

// RemoveObject drops the object and its references. Resources left without
// references become eligible for release.
func (s *Scene) RemoveObject(id ObjectID) error {
	o, ok := s.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	s.unretain(o)
	delete(s.objects, id)
	s.order = slices.DeleteFunc(s.order, func(other ObjectID) bool { return other == id })
	return nil
}

func (s *Scene) unretain(o *DrawableObject) {
	for _, h := range []Handle{o.Geometry, o.Program, o.Texture} {
		if h.IsZero() {
			continue
		}
		_, _ = s.rm.Unretain(h)
	}
}

// Update advances every animated object by one frame and keeps the camera
// aspect in step with the viewport.
func (s *Scene) Update(fs FrameState) {
	s.camera.Aspect = fs.Aspect()
	for _, id := range s.order {
		o := s.objects[id]
		if o.Animator != nil {
			o.Transform = o.Animator(o.Transform, fs)
		}
	}
}

func (s *Scene) Object(id ObjectID) (*DrawableObject, bool) {
	o, ok := s.objects[id]
	return o, ok
}

func (s *Scene) Len() int { return len(s.order) }

func (s *Scene) Each(fn func(*DrawableObject)) {
	for _, id := range s.order {
		fn(s.objects[id])
	}
}

// Clear removes every object. Object ids are not reused afterwards.
func (s *Scene) Clear() {
	for _, id := range s.order {
		s.unretain(s.objects[id])
	}
	clear(s.objects)
	s.order = s.order[:0]
}

func (s *Scene) SetCamera(c Camera) { s.camera = c }
func (s *Scene) Camera() Camera     { return s.camera }

// SetGlobals replaces the uniforms shared by every object, e.g. the light
// position.
func (s *Scene) SetGlobals(u Uniforms) {
	s.globals = maps.Clone(u)
	if s.globals == nil {
		s.globals = Uniforms{}
	}
}

// uniformsFor merges globals, camera matrices and the object's own values,
// later sources winning.
func (s *Scene) uniformsFor(o *DrawableObject) Uniforms {
	u := make(Uniforms, len(s.globals)+len(o.Uniforms)+3)
	maps.Copy(u, s.globals)
	u[UniformProjection] = s.camera.Projection()
	u[UniformModelView] = s.camera.View().Mul4(o.Transform.Matrix())
	u[UniformSampler] = int32(0)
	maps.Copy(u, o.Uniforms)
	return u
}
