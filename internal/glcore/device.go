//go:build !js && cgo

// Package glcore implements gfx.Device on a desktop OpenGL 3.3 core context
// and gfx.Surface on a GLFW window.
package glcore

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/kjkrol/glroom/pkg/gfx"
)

const shaderHeader = "#version 330 core\n"

// Device issues calls on the GL context current on the calling thread.
type Device struct {
	caps     gfx.Capabilities
	released bool
}

func newDevice() *Device {
	var major, maxTexture int32
	var dims [2]int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTexture)
	gl.GetIntegerv(gl.MAX_VIEWPORT_DIMS, &dims[0])

	caps := gfx.Capabilities{
		MajorVersion:   int(major),
		Version:        gl.GoStr(gl.GetString(gl.VERSION)),
		ShaderHeader:   shaderHeader,
		MaxTextureSize: int(maxTexture),
		MaxViewport:    [2]int{int(dims[0]), int(dims[1])},
	}
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := range uint32(n) {
		caps.Extensions = append(caps.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i)))
	}
	return &Device{caps: caps}
}

// clearErrors drains up to eight flags raised by earlier calls.
func clearErrors() {
	for i := 0; i < 8 && gl.GetError() != gl.NO_ERROR; i++ {
	}
}

func lastError() error {
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("gl: out of memory")
	default:
		return fmt.Errorf("gl: error 0x%x", code)
	}
}

func (d *Device) Capabilities() gfx.Capabilities { return d.caps }

// IsContextLost reports false: a desktop context lives as long as its window.
func (d *Device) IsContextLost() bool { return false }

func (d *Device) CreateShader(stage gfx.ShaderStage, source string) gfx.Object {
	typ := uint32(gl.VERTEX_SHADER)
	if stage == gfx.StageFragment {
		typ = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(typ)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	return gfx.Object(shader)
}

func (d *Device) CompileShader(shader gfx.Object) (bool, string) {
	gl.CompileShader(uint32(shader))
	var status int32
	gl.GetShaderiv(uint32(shader), gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetShaderiv(uint32(shader), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(uint32(shader), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (d *Device) DeleteShader(shader gfx.Object) { gl.DeleteShader(uint32(shader)) }

func (d *Device) CreateProgram(shaders ...gfx.Object) gfx.Object {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, uint32(s))
	}
	return gfx.Object(program)
}

func (d *Device) LinkProgram(program gfx.Object) (bool, string) {
	gl.LinkProgram(uint32(program))
	var status int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(program), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

type activeFunc func(program, index uint32, bufSize int32, length *int32, size *int32, xtype *uint32, name *uint8)

func activeNames(program gfx.Object, count, maxLength uint32, get activeFunc) []string {
	var n, maxLen int32
	gl.GetProgramiv(uint32(program), count, &n)
	gl.GetProgramiv(uint32(program), maxLength, &maxLen)
	names := make([]string, 0, n)
	buf := make([]uint8, maxLen+1)
	for i := range uint32(n) {
		var length, size int32
		var xtype uint32
		get(uint32(program), i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		names = append(names, string(buf[:length]))
	}
	return names
}

func (d *Device) ActiveAttributes(program gfx.Object) []string {
	return activeNames(program, gl.ACTIVE_ATTRIBUTES, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, gl.GetActiveAttrib)
}

func (d *Device) ActiveUniforms(program gfx.Object) []string {
	return activeNames(program, gl.ACTIVE_UNIFORMS, gl.ACTIVE_UNIFORM_MAX_LENGTH, gl.GetActiveUniform)
}

func (d *Device) AttribLocation(program gfx.Object, name string) int {
	return int(gl.GetAttribLocation(uint32(program), gl.Str(name+"\x00")))
}

func (d *Device) UniformLocation(program gfx.Object, name string) gfx.Location {
	return gfx.Location(gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00")))
}

func (d *Device) UseProgram(program gfx.Object)    { gl.UseProgram(uint32(program)) }
func (d *Device) DeleteProgram(program gfx.Object) { gl.DeleteProgram(uint32(program)) }

func (d *Device) Uniform1i(loc gfx.Location, v int32)   { gl.Uniform1i(int32(loc), v) }
func (d *Device) Uniform1f(loc gfx.Location, v float32) { gl.Uniform1f(int32(loc), v) }

func (d *Device) Uniform3f(loc gfx.Location, x, y, z float32) {
	gl.Uniform3f(int32(loc), x, y, z)
}

func (d *Device) Uniform4f(loc gfx.Location, x, y, z, w float32) {
	gl.Uniform4f(int32(loc), x, y, z, w)
}

func (d *Device) UniformMatrix4fv(loc gfx.Location, m [16]float32) {
	gl.UniformMatrix4fv(int32(loc), 1, false, &m[0])
}

func (d *Device) CreateVertexArray() gfx.Object {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return gfx.Object(vao)
}

func (d *Device) BindVertexArray(vao gfx.Object) { gl.BindVertexArray(uint32(vao)) }

func (d *Device) DeleteVertexArray(vao gfx.Object) {
	v := uint32(vao)
	gl.DeleteVertexArrays(1, &v)
}

func (d *Device) CreateBuffer() gfx.Object {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return gfx.Object(buf)
}

func target(t gfx.BufferTarget) uint32 {
	if t == gfx.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (d *Device) BindBuffer(t gfx.BufferTarget, buf gfx.Object) {
	gl.BindBuffer(target(t), uint32(buf))
}

func (d *Device) BufferData(t gfx.BufferTarget, data []byte) error {
	clearErrors()
	if len(data) == 0 {
		gl.BufferData(target(t), 0, nil, gl.STATIC_DRAW)
		return lastError()
	}
	gl.BufferData(target(t), len(data), gl.Ptr(data), gl.STATIC_DRAW)
	return lastError()
}

func (d *Device) DeleteBuffer(buf gfx.Object) {
	b := uint32(buf)
	gl.DeleteBuffers(1, &b)
}

func (d *Device) VertexAttribPointer(index, size, stride, offset int) {
	gl.EnableVertexAttribArray(uint32(index))
	gl.VertexAttribPointer(uint32(index), int32(size), gl.FLOAT, false, int32(stride), gl.PtrOffset(offset))
}

func (d *Device) CreateTexture() gfx.Object {
	var tex uint32
	gl.GenTextures(1, &tex)
	return gfx.Object(tex)
}

func (d *Device) TexImage2D(tex gfx.Object, width, height int, rgba []byte) error {
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	clearErrors()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	err := lastError()
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	return err
}

func (d *Device) BindTexture(unit int, tex gfx.Object) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

func (d *Device) DeleteTexture(tex gfx.Object) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}

func (d *Device) Enable(c gfx.Capability) {
	switch c {
	case gfx.DepthTest:
		gl.Enable(gl.DEPTH_TEST)
	case gfx.CullFace:
		gl.Enable(gl.CULL_FACE)
	case gfx.Blend:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }

func (d *Device) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(mask)
}

func (d *Device) DrawArrays(first, count int) {
	gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
}

func (d *Device) DrawElements(count, offset int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(offset))
}

// Release only marks the device; GL objects go with the window's context.
func (d *Device) Release() { d.released = true }
