package gfx

import (
	"log/slog"

	geom "github.com/kjkrol/gokg/pkg/geometry"
)

type ContextState int

const (
	Uninitialized ContextState = iota
	Ready
	Invalid
)

func (s ContextState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

type Color struct {
	R, G, B, A float32
}

var Black = Color{0, 0, 0, 1}

// ContextConfig lists the options Initialize recognizes.
type ContextConfig struct {
	// ColorDepth is total bits per pixel, 24 (RGB) or 32 (RGBA). Zero leaves
	// the platform default, which is RGBA.
	ColorDepth            int
	PreserveDrawingBuffer bool
	Antialias             bool

	ClearColor Color
	DepthTest  bool
	CullFace   bool
}

func (c ContextConfig) attributes() Attributes {
	return Attributes{
		ColorDepth:            c.ColorDepth,
		PreserveDrawingBuffer: c.PreserveDrawingBuffer,
		Antialias:             c.Antialias,
		Depth:                 c.DepthTest,
	}
}

// Context owns the connection to a 2.0-capable rendering surface. It moves
// Uninitialized -> Ready on Initialize, Ready -> Invalid on context loss, and
// back to Ready only through another Initialize.
type Context struct {
	state      ContextState
	device     Device
	caps       Capabilities
	conf       ContextConfig
	viewport   geom.Vec[int]
	generation uint64
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Initialize(surface Surface, conf ContextConfig) error {
	if c.state == Ready {
		return ErrContextReady
	}
	if surface == nil {
		return &ContextCreationError{Reason: "no surface"}
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}

	device, err := surface.Open(conf.attributes())
	if err != nil {
		Logger().Error("context creation failed", slog.Any("err", err))
		return &ContextCreationError{Reason: "surface refused context", Err: err}
	}
	if device == nil {
		return &ContextCreationError{Reason: "surface returned no device"}
	}
	caps := device.Capabilities()
	if caps.MajorVersion < 2 {
		device.Release()
		Logger().Error("context below 2.0", slog.Int("major", caps.MajorVersion), slog.String("version", caps.Version))
		return &ContextCreationError{Reason: "2.0 rendering context not supported (" + caps.Version + ")"}
	}

	c.device = device
	c.caps = caps
	c.conf = conf
	c.generation++
	c.state = Ready

	if conf.DepthTest {
		device.Enable(DepthTest)
	}
	if conf.CullFace {
		device.Enable(CullFace)
	}
	width, height := surface.Size()
	c.Resize(width, height)

	Logger().Info("context ready",
		slog.String("version", caps.Version),
		slog.Int("maxTextureSize", caps.MaxTextureSize),
		slog.Uint64("generation", c.generation),
		slog.Any("viewport", c.viewport),
	)
	return nil
}

// Resize records the new viewport, clamped to the platform maximum, and
// applies it when the context is Ready.
func (c *Context) Resize(width, height int) {
	c.viewport = c.clamp(width, height)
	if c.state != Ready {
		return
	}
	c.device.Viewport(0, 0, c.viewport.X, c.viewport.Y)
}

func (c *Context) clamp(width, height int) geom.Vec[int] {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if maxW := c.caps.MaxViewport[0]; maxW > 0 && width > maxW {
		width = maxW
	}
	if maxH := c.caps.MaxViewport[1]; maxH > 0 && height > maxH {
		height = maxH
	}
	return geom.Vec[int]{X: width, Y: height}
}

func (c *Context) SetClearColor(color Color) {
	c.conf.ClearColor = color
}

// Clear clears color and depth. The result is visible after the host
// presents the frame.
func (c *Context) Clear() {
	if c.state != Ready {
		return
	}
	cc := c.conf.ClearColor
	c.device.ClearColor(cc.R, cc.G, cc.B, cc.A)
	c.device.Clear(true, c.conf.DepthTest)
}

// Submit issues the draw call for a bound geometry buffer.
func (c *Context) Submit(g *GeometryBuffer) error {
	if c.state != Ready {
		return ErrContextNotReady
	}
	if g.IndexCount > 0 {
		c.device.DrawElements(g.IndexCount, 0)
		return nil
	}
	c.device.DrawArrays(0, g.VertexCount)
	return nil
}

// MarkLost moves a Ready context to Invalid. It reports true only for the
// transition itself, so the loss is surfaced once.
func (c *Context) MarkLost() bool {
	if c.state != Ready {
		return false
	}
	c.state = Invalid
	Logger().Warn("context lost", slog.Uint64("generation", c.generation))
	return true
}

// checkLost polls the device and marks the context lost if the platform
// dropped it. It reports whether the context is still Ready.
func (c *Context) checkLost() bool {
	if c.state != Ready {
		return false
	}
	if c.device.IsContextLost() {
		c.MarkLost()
		return false
	}
	return true
}

// Destroy releases the device and returns the context to Uninitialized.
func (c *Context) Destroy() {
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.state != Uninitialized {
		Logger().Info("context destroyed", slog.Uint64("generation", c.generation))
	}
	c.state = Uninitialized
}

func (c *Context) State() ContextState        { return c.state }
func (c *Context) Viewport() geom.Vec[int]    { return c.viewport }
func (c *Context) Capabilities() Capabilities { return c.caps }
func (c *Context) Generation() uint64         { return c.generation }

// Device returns the device of the current generation, nil before the first
// Initialize or after Destroy.
func (c *Context) Device() Device { return c.device }
