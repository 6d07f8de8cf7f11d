package gfx

import "unsafe"

// Object names a GPU object owned by a Device. Zero is never a valid object.
type Object uint32

// Location is a uniform location inside a linked program; -1 means absent.
type Location int32

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

type Capability int

const (
	DepthTest Capability = iota
	CullFace
	Blend
)

// Attributes are the context creation options a Surface is asked to honor.
type Attributes struct {
	// ColorDepth is the drawing buffer's total bits per pixel: 24 asks for
	// RGB without alpha, 32 or 0 for RGBA.
	ColorDepth            int
	PreserveDrawingBuffer bool
	Antialias             bool
	Depth                 bool
}

// Alpha reports whether the drawing buffer carries an alpha channel.
func (a Attributes) Alpha() bool { return a.ColorDepth != 24 }

// Capabilities describe what an opened Device supports.
type Capabilities struct {
	MajorVersion int
	Version      string
	// ShaderHeader is prepended to shader sources that carry no #version
	// directive, e.g. "#version 300 es\nprecision highp float;\n".
	ShaderHeader   string
	MaxTextureSize int
	MaxViewport    [2]int
	// MaxBufferSize is the largest buffer in bytes; 0 means unbounded.
	MaxBufferSize int
	Extensions    []string
}

// Surface is the platform target a Context is negotiated against: a canvas
// in the browser, a window on the desktop.
type Surface interface {
	Open(attrs Attributes) (Device, error)
	Size() (width, height int)
}

// Device is the subset of the OpenGL ES 3.0 / WebGL 2.0 API the runtime
// drives. Implementations are not safe for concurrent use.
type Device interface {
	Capabilities() Capabilities
	IsContextLost() bool

	CreateShader(stage ShaderStage, source string) Object
	CompileShader(shader Object) (ok bool, infoLog string)
	DeleteShader(shader Object)

	CreateProgram(shaders ...Object) Object
	LinkProgram(program Object) (ok bool, infoLog string)
	ActiveAttributes(program Object) []string
	ActiveUniforms(program Object) []string
	AttribLocation(program Object, name string) int
	UniformLocation(program Object, name string) Location
	UseProgram(program Object)
	DeleteProgram(program Object)

	Uniform1i(loc Location, v int32)
	Uniform1f(loc Location, v float32)
	Uniform3f(loc Location, x, y, z float32)
	Uniform4f(loc Location, x, y, z, w float32)
	UniformMatrix4fv(loc Location, m [16]float32)

	CreateVertexArray() Object
	BindVertexArray(vao Object)
	DeleteVertexArray(vao Object)
	CreateBuffer() Object
	BindBuffer(target BufferTarget, buf Object)
	BufferData(target BufferTarget, data []byte) error
	DeleteBuffer(buf Object)
	// VertexAttribPointer enables the float attribute at index and points it
	// into the bound array buffer. Stride and offset are in bytes.
	VertexAttribPointer(index, size, stride, offset int)

	CreateTexture() Object
	TexImage2D(tex Object, width, height int, rgba []byte) error
	BindTexture(unit int, tex Object)
	DeleteTexture(tex Object)

	Enable(cap Capability)
	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear(color, depth bool)
	DrawArrays(first, count int)
	DrawElements(count, offset int)

	Release()
}

// Float32Bytes reinterprets data without copying.
func Float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// Uint32Bytes reinterprets data without copying.
func Uint32Bytes(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
