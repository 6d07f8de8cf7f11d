//go:build js && wasm

// Package webgl implements gfx.Device on a browser WebGL 2.0 context and
// gfx.Surface on a canvas element.
package webgl

import (
	"fmt"
	"syscall/js"

	"github.com/kjkrol/glroom/pkg/gfx"
)

const shaderHeader = "#version 300 es\nprecision highp float;\nprecision highp int;\n"

type glConsts struct {
	arrayBuffer        int
	elementArrayBuffer int
	staticDraw         int
	floatType          int
	unsignedInt        int
	triangles          int
	texture2D          int
	texture0           int
	rgba8              int
	rgba               int
	unsignedByte       int
	textureMinFilter   int
	textureMagFilter   int
	textureWrapS       int
	textureWrapT       int
	nearest            int
	repeat             int
	colorBufferBit     int
	depthBufferBit     int
	depthTest          int
	cullFace           int
	blend              int
	srcAlpha           int
	oneMinusSrcAlpha   int
	compileStatus      int
	linkStatus         int
	activeAttributes   int
	activeUniforms     int
	vertexShader       int
	fragmentShader     int
	version            int
	maxTextureSize     int
	maxViewportDims    int
	outOfMemory        int
	noError            int
}

// Device drives a WebGL2RenderingContext. WebGL objects are kept in a table
// and handed out as gfx.Object names.
type Device struct {
	gl     js.Value
	consts glConsts
	caps   gfx.Capabilities

	next     gfx.Object
	objects  map[gfx.Object]js.Value
	uniforms []js.Value
}

func newDevice(gl js.Value) *Device {
	d := &Device{
		gl:      gl,
		objects: make(map[gfx.Object]js.Value),
	}
	d.initConsts()
	d.caps = d.queryCapabilities()
	return d
}

func (d *Device) initConsts() {
	get := func(name string) int { return d.gl.Get(name).Int() }
	d.consts = glConsts{
		arrayBuffer:        get("ARRAY_BUFFER"),
		elementArrayBuffer: get("ELEMENT_ARRAY_BUFFER"),
		staticDraw:         get("STATIC_DRAW"),
		floatType:          get("FLOAT"),
		unsignedInt:        get("UNSIGNED_INT"),
		triangles:          get("TRIANGLES"),
		texture2D:          get("TEXTURE_2D"),
		texture0:           get("TEXTURE0"),
		rgba8:              get("RGBA8"),
		rgba:               get("RGBA"),
		unsignedByte:       get("UNSIGNED_BYTE"),
		textureMinFilter:   get("TEXTURE_MIN_FILTER"),
		textureMagFilter:   get("TEXTURE_MAG_FILTER"),
		textureWrapS:       get("TEXTURE_WRAP_S"),
		textureWrapT:       get("TEXTURE_WRAP_T"),
		nearest:            get("NEAREST"),
		repeat:             get("REPEAT"),
		colorBufferBit:     get("COLOR_BUFFER_BIT"),
		depthBufferBit:     get("DEPTH_BUFFER_BIT"),
		depthTest:          get("DEPTH_TEST"),
		cullFace:           get("CULL_FACE"),
		blend:              get("BLEND"),
		srcAlpha:           get("SRC_ALPHA"),
		oneMinusSrcAlpha:   get("ONE_MINUS_SRC_ALPHA"),
		compileStatus:      get("COMPILE_STATUS"),
		linkStatus:         get("LINK_STATUS"),
		activeAttributes:   get("ACTIVE_ATTRIBUTES"),
		activeUniforms:     get("ACTIVE_UNIFORMS"),
		vertexShader:       get("VERTEX_SHADER"),
		fragmentShader:     get("FRAGMENT_SHADER"),
		version:            get("VERSION"),
		maxTextureSize:     get("MAX_TEXTURE_SIZE"),
		maxViewportDims:    get("MAX_VIEWPORT_DIMS"),
		outOfMemory:        get("OUT_OF_MEMORY"),
		noError:            get("NO_ERROR"),
	}
}

func (d *Device) queryCapabilities() gfx.Capabilities {
	dims := d.gl.Call("getParameter", d.consts.maxViewportDims)
	caps := gfx.Capabilities{
		MajorVersion:   2,
		Version:        d.gl.Call("getParameter", d.consts.version).String(),
		ShaderHeader:   shaderHeader,
		MaxTextureSize: d.gl.Call("getParameter", d.consts.maxTextureSize).Int(),
		MaxViewport:    [2]int{dims.Index(0).Int(), dims.Index(1).Int()},
	}
	if exts := d.gl.Call("getSupportedExtensions"); exts.Truthy() {
		for i := 0; i < exts.Length(); i++ {
			caps.Extensions = append(caps.Extensions, exts.Index(i).String())
		}
	}
	return caps
}

func (d *Device) put(v js.Value) gfx.Object {
	if v.IsNull() || v.IsUndefined() {
		return 0
	}
	d.next++
	d.objects[d.next] = v
	return d.next
}

// get returns null for the zero object so binds can unbind.
func (d *Device) get(o gfx.Object) js.Value {
	if v, ok := d.objects[o]; ok {
		return v
	}
	return js.Null()
}

func (d *Device) drop(o gfx.Object, fn string) {
	if v, ok := d.objects[o]; ok {
		d.gl.Call(fn, v)
		delete(d.objects, o)
	}
}

// clearErrors drains up to eight flags raised by earlier calls.
func (d *Device) clearErrors() {
	for i := 0; i < 8 && d.gl.Call("getError").Int() != d.consts.noError; i++ {
	}
}

func (d *Device) lastError() error {
	switch code := d.gl.Call("getError").Int(); code {
	case d.consts.noError:
		return nil
	case d.consts.outOfMemory:
		return fmt.Errorf("webgl: out of memory")
	default:
		return fmt.Errorf("webgl: error 0x%x", code)
	}
}

func (d *Device) Capabilities() gfx.Capabilities { return d.caps }

func (d *Device) IsContextLost() bool {
	return d.gl.Call("isContextLost").Bool()
}

func (d *Device) CreateShader(stage gfx.ShaderStage, source string) gfx.Object {
	typ := d.consts.vertexShader
	if stage == gfx.StageFragment {
		typ = d.consts.fragmentShader
	}
	shader := d.gl.Call("createShader", typ)
	if shader.IsNull() {
		return 0
	}
	d.gl.Call("shaderSource", shader, source)
	return d.put(shader)
}

func (d *Device) CompileShader(shader gfx.Object) (bool, string) {
	s := d.get(shader)
	d.gl.Call("compileShader", s)
	if d.gl.Call("getShaderParameter", s, d.consts.compileStatus).Bool() {
		return true, ""
	}
	return false, d.gl.Call("getShaderInfoLog", s).String()
}

func (d *Device) DeleteShader(shader gfx.Object) { d.drop(shader, "deleteShader") }

func (d *Device) CreateProgram(shaders ...gfx.Object) gfx.Object {
	program := d.gl.Call("createProgram")
	if program.IsNull() {
		return 0
	}
	for _, s := range shaders {
		d.gl.Call("attachShader", program, d.get(s))
	}
	return d.put(program)
}

func (d *Device) LinkProgram(program gfx.Object) (bool, string) {
	p := d.get(program)
	d.gl.Call("linkProgram", p)
	if d.gl.Call("getProgramParameter", p, d.consts.linkStatus).Bool() {
		return true, ""
	}
	return false, d.gl.Call("getProgramInfoLog", p).String()
}

func (d *Device) activeNames(program gfx.Object, count int, fn string) []string {
	p := d.get(program)
	n := d.gl.Call("getProgramParameter", p, count).Int()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		info := d.gl.Call(fn, p, i)
		if info.Truthy() {
			names = append(names, info.Get("name").String())
		}
	}
	return names
}

func (d *Device) ActiveAttributes(program gfx.Object) []string {
	return d.activeNames(program, d.consts.activeAttributes, "getActiveAttrib")
}

func (d *Device) ActiveUniforms(program gfx.Object) []string {
	return d.activeNames(program, d.consts.activeUniforms, "getActiveUniform")
}

func (d *Device) AttribLocation(program gfx.Object, name string) int {
	return d.gl.Call("getAttribLocation", d.get(program), name).Int()
}

// UniformLocation stores the WebGLUniformLocation and returns its index.
func (d *Device) UniformLocation(program gfx.Object, name string) gfx.Location {
	loc := d.gl.Call("getUniformLocation", d.get(program), name)
	if loc.IsNull() {
		return -1
	}
	d.uniforms = append(d.uniforms, loc)
	return gfx.Location(len(d.uniforms) - 1)
}

func (d *Device) uniform(loc gfx.Location) (js.Value, bool) {
	if loc < 0 || int(loc) >= len(d.uniforms) {
		return js.Value{}, false
	}
	return d.uniforms[loc], true
}

func (d *Device) UseProgram(program gfx.Object) {
	d.gl.Call("useProgram", d.get(program))
}

func (d *Device) DeleteProgram(program gfx.Object) { d.drop(program, "deleteProgram") }

func (d *Device) Uniform1i(loc gfx.Location, v int32) {
	if u, ok := d.uniform(loc); ok {
		d.gl.Call("uniform1i", u, v)
	}
}

func (d *Device) Uniform1f(loc gfx.Location, v float32) {
	if u, ok := d.uniform(loc); ok {
		d.gl.Call("uniform1f", u, v)
	}
}

func (d *Device) Uniform3f(loc gfx.Location, x, y, z float32) {
	if u, ok := d.uniform(loc); ok {
		d.gl.Call("uniform3f", u, x, y, z)
	}
}

func (d *Device) Uniform4f(loc gfx.Location, x, y, z, w float32) {
	if u, ok := d.uniform(loc); ok {
		d.gl.Call("uniform4f", u, x, y, z, w)
	}
}

func (d *Device) UniformMatrix4fv(loc gfx.Location, m [16]float32) {
	if u, ok := d.uniform(loc); ok {
		d.gl.Call("uniformMatrix4fv", u, false, float32Array(m[:]))
	}
}

func (d *Device) CreateVertexArray() gfx.Object {
	return d.put(d.gl.Call("createVertexArray"))
}

func (d *Device) BindVertexArray(vao gfx.Object) {
	d.gl.Call("bindVertexArray", d.get(vao))
}

func (d *Device) DeleteVertexArray(vao gfx.Object) { d.drop(vao, "deleteVertexArray") }

func (d *Device) CreateBuffer() gfx.Object {
	return d.put(d.gl.Call("createBuffer"))
}

func (d *Device) target(t gfx.BufferTarget) int {
	if t == gfx.ElementArrayBuffer {
		return d.consts.elementArrayBuffer
	}
	return d.consts.arrayBuffer
}

func (d *Device) BindBuffer(target gfx.BufferTarget, buf gfx.Object) {
	d.gl.Call("bindBuffer", d.target(target), d.get(buf))
}

func (d *Device) BufferData(target gfx.BufferTarget, data []byte) error {
	d.clearErrors()
	d.gl.Call("bufferData", d.target(target), uint8Array(data), d.consts.staticDraw)
	return d.lastError()
}

func (d *Device) DeleteBuffer(buf gfx.Object) { d.drop(buf, "deleteBuffer") }

func (d *Device) VertexAttribPointer(index, size, stride, offset int) {
	d.gl.Call("enableVertexAttribArray", index)
	d.gl.Call("vertexAttribPointer", index, size, d.consts.floatType, false, stride, offset)
}

func (d *Device) CreateTexture() gfx.Object {
	return d.put(d.gl.Call("createTexture"))
}

func (d *Device) TexImage2D(tex gfx.Object, width, height int, rgba []byte) error {
	c := d.consts
	d.gl.Call("bindTexture", c.texture2D, d.get(tex))
	d.clearErrors()
	d.gl.Call("texImage2D", c.texture2D, 0, c.rgba8, width, height, 0, c.rgba, c.unsignedByte, uint8Array(rgba))
	err := d.lastError()
	d.gl.Call("texParameteri", c.texture2D, c.textureMinFilter, c.nearest)
	d.gl.Call("texParameteri", c.texture2D, c.textureMagFilter, c.nearest)
	d.gl.Call("texParameteri", c.texture2D, c.textureWrapS, c.repeat)
	d.gl.Call("texParameteri", c.texture2D, c.textureWrapT, c.repeat)
	return err
}

func (d *Device) BindTexture(unit int, tex gfx.Object) {
	d.gl.Call("activeTexture", d.consts.texture0+unit)
	d.gl.Call("bindTexture", d.consts.texture2D, d.get(tex))
}

func (d *Device) DeleteTexture(tex gfx.Object) { d.drop(tex, "deleteTexture") }

func (d *Device) Enable(cap gfx.Capability) {
	switch cap {
	case gfx.DepthTest:
		d.gl.Call("enable", d.consts.depthTest)
	case gfx.CullFace:
		d.gl.Call("enable", d.consts.cullFace)
	case gfx.Blend:
		d.gl.Call("enable", d.consts.blend)
		d.gl.Call("blendFunc", d.consts.srcAlpha, d.consts.oneMinusSrcAlpha)
	}
}

func (d *Device) Viewport(x, y, width, height int) {
	d.gl.Call("viewport", x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.gl.Call("clearColor", r, g, b, a)
}

func (d *Device) Clear(color, depth bool) {
	mask := 0
	if color {
		mask |= d.consts.colorBufferBit
	}
	if depth {
		mask |= d.consts.depthBufferBit
	}
	d.gl.Call("clear", mask)
}

func (d *Device) DrawArrays(first, count int) {
	d.gl.Call("drawArrays", d.consts.triangles, first, count)
}

func (d *Device) DrawElements(count, offset int) {
	d.gl.Call("drawElements", d.consts.triangles, count, d.consts.unsignedInt, offset)
}

// Release forgets every object of this context. The canvas may already
// hand out the same context again after a restore, so nothing is deleted.
func (d *Device) Release() {
	clear(d.objects)
	d.uniforms = nil
}
