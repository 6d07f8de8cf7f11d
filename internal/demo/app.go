// Package demo wires the room scene onto the rendering runtime. Hosts (the
// browser bridge and the desktop window) drive an App through the same
// calls: Initialize, OnTick, OnResize, visibility, context loss and
// Teardown.
package demo

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kjkrol/glroom/internal/config"
	"github.com/kjkrol/glroom/pkg/geometry"
	"github.com/kjkrol/glroom/pkg/gfx"
)

type Options struct {
	// Config defaults to the embedded room scene.
	Config *config.Config
	// Assets defaults to the embedded shaders, models and textures.
	Assets fs.FS
	// Logger is installed as the runtime logger when set.
	Logger *slog.Logger
}

type App struct {
	conf   *config.Config
	assets *assetCache
	log    *slog.Logger

	surface gfx.Surface
	ctx     *gfx.Context
	rm      *gfx.ResourceManager
	scene   *gfx.Scene
	bridge  *gfx.HostBridge
	loop    *gfx.RenderLoop

	animate bool
}

func New(opts Options) (*App, error) {
	if opts.Logger != nil {
		gfx.SetLogger(opts.Logger)
	}
	conf := opts.Config
	if conf == nil {
		var err error
		if conf, err = config.Default(); err != nil {
			return nil, err
		}
	}
	assets := opts.Assets
	if assets == nil {
		assets = Assets()
	}

	ctx := gfx.NewContext()
	rm := gfx.NewResourceManager(ctx, conf.Loop.Resources())
	scene := gfx.NewScene(rm)
	bridge := gfx.NewHostBridge(ctx)
	return &App{
		conf:   conf,
		assets: newAssetCache(assets),
		log:    gfx.Logger().With(slog.String("component", "demo")),
		ctx:    ctx,
		rm:     rm,
		scene:  scene,
		bridge: bridge,
		loop:   gfx.NewRenderLoop(ctx, rm, scene, bridge, conf.Loop.Gfx()),

		animate: conf.Loop.Animate,
	}, nil
}

// Initialize negotiates the context on surface, builds the scene and starts
// the loop. Only a *gfx.ContextCreationError (or gfx.ErrContextReady) is
// returned; resource failures are logged and the remaining objects are
// still built.
func (a *App) Initialize(surface gfx.Surface) error {
	if err := a.ctx.Initialize(surface, a.conf.Context.Gfx()); err != nil {
		return err
	}
	a.surface = surface
	a.build()
	if a.loop.State() == gfx.Stopped {
		return a.loop.Start()
	}
	return nil
}

// Restore re-creates the context on the surface of the last Initialize after
// the platform restored it, then uploads everything again.
func (a *App) Restore() error {
	if a.surface == nil {
		return gfx.ErrContextNotReady
	}
	if err := a.ctx.Initialize(a.surface, a.conf.Context.Gfx()); err != nil {
		return err
	}
	a.scene.Clear()
	a.rm.Purge()
	a.build()
	a.log.Info("scene restored", slog.Uint64("generation", a.ctx.Generation()), slog.Int("objects", a.scene.Len()))
	return nil
}

func (a *App) OnTick(timestampMs float64) error { return a.bridge.OnTick(timestampMs) }
func (a *App) OnResize(width, height int)       { a.bridge.OnResize(width, height) }
func (a *App) OnVisibilityChange(visible bool)  { a.bridge.OnVisibilityChange(visible) }

func (a *App) OnContextLost() {
	if a.bridge.OnContextLost() {
		a.log.Warn("waiting for context restore", slog.Int("objects", a.scene.Len()))
	}
}

// Teardown stops the loop and frees every resource and the context.
func (a *App) Teardown() {
	_ = a.loop.Stop()
	a.scene.Clear()
	a.rm.ReleaseAll()
	a.ctx.Destroy()
	a.surface = nil
}

// SetAnimate pauses or resumes the spinning objects. Frames keep drawing
// either way; a paused object holds its last transform.
func (a *App) SetAnimate(on bool) { a.animate = on }
func (a *App) Animating() bool    { return a.animate }

func (a *App) Context() *gfx.Context           { return a.ctx }
func (a *App) Resources() *gfx.ResourceManager { return a.rm }
func (a *App) Scene() *gfx.Scene               { return a.scene }
func (a *App) Loop() *gfx.RenderLoop           { return a.loop }
func (a *App) Config() *config.Config          { return a.conf }

// build compiles the shader and uploads every configured object. The
// scene's references keep shared resources alive; the build's own handles
// are released right away so removing an object frees what only it used.
func (a *App) build() {
	a.scene.SetCamera(a.conf.Camera.Gfx())
	a.scene.SetGlobals(gfx.Uniforms{
		"uLightPosition": mgl32.Vec3(a.conf.Light.Position),
	})

	program, err := a.compile()
	if err != nil {
		a.log.Error("shader program unusable, nothing will draw", slog.Any("err", err))
		return
	}
	defer a.rm.Release(program)

	blank, err := a.rm.UploadTexture(white())
	if err != nil {
		a.log.Error("default texture", slog.Any("err", err))
		return
	}
	defer a.rm.Release(blank)

	for _, o := range a.conf.Objects {
		if err := a.add(o, program, blank); err != nil {
			a.log.Error("object skipped", slog.String("name", o.Name), slog.Any("err", err))
		}
	}
	a.log.Info("scene built", slog.Int("objects", a.scene.Len()), slog.Int("configured", len(a.conf.Objects)))
}

func (a *App) compile() (gfx.Handle, error) {
	vs, err := a.assets.text(vertexShaderPath)
	if err != nil {
		return gfx.Handle{}, err
	}
	frag, err := a.assets.text(fragmentShaderPath)
	if err != nil {
		return gfx.Handle{}, err
	}
	return a.rm.CompileProgram(vs, frag)
}

func (a *App) add(o config.Object, program, blank gfx.Handle) error {
	vertices, err := a.mesh(o)
	if err != nil {
		return err
	}
	geo, err := a.rm.UploadGeometry(gfx.PositionNormalUV, geometry.Floats(vertices), nil)
	if err != nil {
		return err
	}
	defer a.rm.Release(geo)

	texture := blank
	if o.Texture != "" {
		img, err := a.assets.picture(o.Texture)
		if err != nil {
			return err
		}
		if texture, err = a.rm.UploadTexture(img); err != nil {
			return err
		}
		defer a.rm.Release(texture)
	}

	opts := []gfx.ObjectOption{
		gfx.WithName(o.Name),
		gfx.WithTexture(texture),
		gfx.WithUniforms(a.conf.Materials[o.Material].Uniforms()),
	}
	if o.Spin != 0 {
		opts = append(opts, gfx.WithAnimator(a.gated(gfx.Spin(mgl32.Vec3{0, 1, 0}, o.Spin))))
	}
	_, err = a.scene.AddObject(geo, program, o.Transform(), opts...)
	return err
}

func (a *App) gated(anim gfx.Animator) gfx.Animator {
	return func(t gfx.Transform, fs gfx.FrameState) gfx.Transform {
		if !a.animate {
			return t
		}
		return anim(t, fs)
	}
}

func (a *App) mesh(o config.Object) ([]geometry.Vertex, error) {
	var vs []geometry.Vertex
	switch o.Shape {
	case config.ShapeRoom:
		vs = geometry.Room(o.Size)
	case config.ShapeDesk:
		vs = geometry.Desk(geometry.Table{Top: o.Top, Leg: o.Leg})
	case config.ShapeChair:
		vs = geometry.Chair(geometry.Table{Top: o.Top, Leg: o.Leg})
	case config.ShapePrism:
		vs = geometry.RectangularPrism(mgl32.Vec3{}, o.Size)
	case config.ShapeStar:
		vs = geometry.Extrude(geometry.Star(o.Points, o.Inner, o.Outer), o.Extrude)
	case config.ShapeRevolve:
		path := make([]mgl32.Vec3, len(o.Path))
		for i, p := range o.Path {
			path[i] = p
		}
		vs = geometry.Revolve(path, o.Resolution)
	case config.ShapeOBJ:
		m, err := a.assets.model(o.Model)
		if err != nil {
			return nil, err
		}
		vs = m.Vertices()
	default:
		return nil, fmt.Errorf("demo: unknown shape %q", o.Shape)
	}
	if len(vs) == 0 {
		return nil, errors.New("demo: shape produced no triangles")
	}
	return vs, nil
}
