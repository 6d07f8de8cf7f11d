// Package gltest provides a recording gfx.Device for tests. It keeps just
// enough GL state to check what the runtime binds and draws, and flags any
// call that touches a deleted object.
package gltest

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/kjkrol/glroom/pkg/gfx"
)

var ErrOutOfMemory = errors.New("gltest: out of memory")

func DefaultCapabilities() gfx.Capabilities {
	return gfx.Capabilities{
		MajorVersion:   2,
		Version:        "WebGL 2.0 (gltest)",
		ShaderHeader:   "#version 300 es\nprecision highp float;\n",
		MaxTextureSize: 4096,
		MaxViewport:    [2]int{4096, 4096},
		Extensions:     []string{"EXT_color_buffer_float"},
	}
}

// Draw is one recorded draw call with the state bound at submission.
type Draw struct {
	Program     gfx.Object
	VertexArray gfx.Object
	Texture     gfx.Object
	Count       int
	Indexed     bool
	Uniforms    map[gfx.Location]any
}

type objectKind string

const (
	shaderObject  objectKind = "shader"
	programObject objectKind = "program"
	vaoObject     objectKind = "vertex array"
	bufferObject  objectKind = "buffer"
	textureObject objectKind = "texture"
)

type object struct {
	kind     objectKind
	deleted  bool
	stage    gfx.ShaderStage
	source   string
	compiled bool
	shaders  []gfx.Object
	linked   bool
	attribs  map[string]int
	uniforms []string
	size     int
}

var (
	inDecl      = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?in\s+\w+\s+(\w+)\s*;`)
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*;`)
)

// Device records every call. The first group of fields configures it and
// the exported fields after it are observed state.
type Device struct {
	Caps       gfx.Capabilities
	Lost       bool
	FailLink   bool
	FailUpload error

	nextObject gfx.Object
	objects    map[gfx.Object]*object

	program  gfx.Object
	vao      gfx.Object
	texture  gfx.Object
	uniforms map[gfx.Location]any

	Draws    []Draw
	Misuse   []string
	Enabled  map[gfx.Capability]bool
	View     [4]int
	ClearRGB [4]float32
	Clears   int
	Released bool
}

func NewDevice() *Device {
	return &Device{
		Caps:     DefaultCapabilities(),
		objects:  make(map[gfx.Object]*object),
		uniforms: make(map[gfx.Location]any),
		Enabled:  make(map[gfx.Capability]bool),
	}
}

func (d *Device) create(kind objectKind) (gfx.Object, *object) {
	d.nextObject++
	o := &object{kind: kind}
	d.objects[d.nextObject] = o
	return d.nextObject, o
}

// use returns the live object id of kind, flagging anything else. Zero is
// accepted as "unbind" when allowZero is set.
func (d *Device) use(op string, id gfx.Object, kind objectKind, allowZero bool) *object {
	if d.Released {
		d.Misuse = append(d.Misuse, op+" after release")
		return nil
	}
	if id == 0 {
		if !allowZero {
			d.Misuse = append(d.Misuse, fmt.Sprintf("%s: zero %s", op, kind))
		}
		return nil
	}
	o, ok := d.objects[id]
	switch {
	case !ok:
		d.Misuse = append(d.Misuse, fmt.Sprintf("%s: unknown %s %d", op, kind, id))
		return nil
	case o.kind != kind:
		d.Misuse = append(d.Misuse, fmt.Sprintf("%s: %d is a %s, not a %s", op, id, o.kind, kind))
		return nil
	case o.deleted:
		d.Misuse = append(d.Misuse, fmt.Sprintf("%s: deleted %s %d", op, kind, id))
		return nil
	}
	return o
}

func (d *Device) Capabilities() gfx.Capabilities { return d.Caps }
func (d *Device) IsContextLost() bool            { return d.Lost }

func (d *Device) CreateShader(stage gfx.ShaderStage, source string) gfx.Object {
	id, o := d.create(shaderObject)
	o.stage = stage
	o.source = source
	return id
}

// CompileShader accepts a source with a main function and balanced braces.
func (d *Device) CompileShader(shader gfx.Object) (bool, string) {
	o := d.use("CompileShader", shader, shaderObject, false)
	if o == nil {
		return false, "invalid shader"
	}
	if !strings.Contains(o.source, "void main") {
		return false, "ERROR: 0:1: 'main' : missing entry point"
	}
	if strings.Count(o.source, "{") != strings.Count(o.source, "}") {
		return false, "ERROR: 0:1: '' : syntax error"
	}
	o.compiled = true
	return true, ""
}

func (d *Device) DeleteShader(shader gfx.Object) {
	if o := d.use("DeleteShader", shader, shaderObject, false); o != nil {
		o.deleted = true
	}
}

func (d *Device) CreateProgram(shaders ...gfx.Object) gfx.Object {
	id, o := d.create(programObject)
	for _, s := range shaders {
		if d.use("AttachShader", s, shaderObject, false) != nil {
			o.shaders = append(o.shaders, s)
		}
	}
	return id
}

func (d *Device) LinkProgram(program gfx.Object) (bool, string) {
	p := d.use("LinkProgram", program, programObject, false)
	if p == nil {
		return false, "invalid program"
	}
	if d.FailLink {
		return false, "ERROR: Linking failed"
	}
	p.attribs = make(map[string]int)
	uniforms := map[string]bool{}
	for _, s := range p.shaders {
		so := d.objects[s]
		if !so.compiled {
			return false, "ERROR: shader not compiled"
		}
		if so.stage == gfx.StageVertex {
			for i, m := range inDecl.FindAllStringSubmatch(so.source, -1) {
				loc := i
				if m[1] != "" {
					loc, _ = strconv.Atoi(m[1])
				}
				p.attribs[m[2]] = loc
			}
		}
		for _, m := range uniformDecl.FindAllStringSubmatch(so.source, -1) {
			uniforms[m[1]] = true
		}
	}
	for name := range uniforms {
		p.uniforms = append(p.uniforms, name)
	}
	slices.Sort(p.uniforms)
	p.linked = true
	return true, ""
}

func (d *Device) ActiveAttributes(program gfx.Object) []string {
	p := d.use("ActiveAttributes", program, programObject, false)
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.attribs))
	for name := range p.attribs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (d *Device) ActiveUniforms(program gfx.Object) []string {
	if p := d.use("ActiveUniforms", program, programObject, false); p != nil {
		return slices.Clone(p.uniforms)
	}
	return nil
}

func (d *Device) AttribLocation(program gfx.Object, name string) int {
	if p := d.use("AttribLocation", program, programObject, false); p != nil {
		if loc, ok := p.attribs[name]; ok {
			return loc
		}
	}
	return -1
}

// UniformLocation encodes the program in the high bits so locations of
// different programs never collide.
func (d *Device) UniformLocation(program gfx.Object, name string) gfx.Location {
	p := d.use("UniformLocation", program, programObject, false)
	if p == nil {
		return -1
	}
	i := slices.Index(p.uniforms, name)
	if i < 0 {
		return -1
	}
	return gfx.Location(int32(program)<<16 | int32(i))
}

func (d *Device) UseProgram(program gfx.Object) {
	if d.use("UseProgram", program, programObject, true) != nil || program == 0 {
		d.program = program
	}
}

func (d *Device) DeleteProgram(program gfx.Object) {
	if p := d.use("DeleteProgram", program, programObject, false); p != nil {
		p.deleted = true
	}
	if d.program == program {
		d.program = 0
	}
}

func (d *Device) setUniform(op string, loc gfx.Location, v any) {
	if loc < 0 {
		return
	}
	if d.program == 0 || gfx.Object(loc>>16) != d.program {
		d.Misuse = append(d.Misuse, fmt.Sprintf("%s: location %d not in current program", op, loc))
		return
	}
	d.use(op, d.program, programObject, false)
	d.uniforms[loc] = v
}

func (d *Device) Uniform1i(loc gfx.Location, v int32)   { d.setUniform("Uniform1i", loc, v) }
func (d *Device) Uniform1f(loc gfx.Location, v float32) { d.setUniform("Uniform1f", loc, v) }
func (d *Device) Uniform3f(loc gfx.Location, x, y, z float32) {
	d.setUniform("Uniform3f", loc, [3]float32{x, y, z})
}
func (d *Device) Uniform4f(loc gfx.Location, x, y, z, w float32) {
	d.setUniform("Uniform4f", loc, [4]float32{x, y, z, w})
}
func (d *Device) UniformMatrix4fv(loc gfx.Location, m [16]float32) {
	d.setUniform("UniformMatrix4fv", loc, m)
}

func (d *Device) CreateVertexArray() gfx.Object {
	id, _ := d.create(vaoObject)
	return id
}

func (d *Device) BindVertexArray(vao gfx.Object) {
	if d.use("BindVertexArray", vao, vaoObject, true) != nil || vao == 0 {
		d.vao = vao
	}
}

func (d *Device) DeleteVertexArray(vao gfx.Object) {
	if o := d.use("DeleteVertexArray", vao, vaoObject, false); o != nil {
		o.deleted = true
	}
	if d.vao == vao {
		d.vao = 0
	}
}

func (d *Device) CreateBuffer() gfx.Object {
	id, _ := d.create(bufferObject)
	return id
}

func (d *Device) BindBuffer(_ gfx.BufferTarget, buf gfx.Object) {
	d.use("BindBuffer", buf, bufferObject, true)
}

func (d *Device) BufferData(_ gfx.BufferTarget, data []byte) error {
	if d.FailUpload != nil {
		return d.FailUpload
	}
	return nil
}

func (d *Device) DeleteBuffer(buf gfx.Object) {
	if o := d.use("DeleteBuffer", buf, bufferObject, false); o != nil {
		o.deleted = true
	}
}

func (d *Device) VertexAttribPointer(index, size, stride, offset int) {
	if d.vao == 0 {
		d.Misuse = append(d.Misuse, "VertexAttribPointer: no vertex array bound")
	}
}

func (d *Device) CreateTexture() gfx.Object {
	id, _ := d.create(textureObject)
	return id
}

func (d *Device) TexImage2D(tex gfx.Object, width, height int, rgba []byte) error {
	o := d.use("TexImage2D", tex, textureObject, false)
	if o == nil {
		return fmt.Errorf("gltest: invalid texture %d", tex)
	}
	if len(rgba) != width*height*4 {
		return fmt.Errorf("gltest: %d bytes for %dx%d texture", len(rgba), width, height)
	}
	if d.FailUpload != nil {
		return d.FailUpload
	}
	o.size = len(rgba)
	return nil
}

func (d *Device) BindTexture(_ int, tex gfx.Object) {
	if d.use("BindTexture", tex, textureObject, true) != nil || tex == 0 {
		d.texture = tex
	}
}

func (d *Device) DeleteTexture(tex gfx.Object) {
	if o := d.use("DeleteTexture", tex, textureObject, false); o != nil {
		o.deleted = true
	}
	if d.texture == tex {
		d.texture = 0
	}
}

func (d *Device) Enable(c gfx.Capability) { d.Enabled[c] = true }

func (d *Device) Viewport(x, y, width, height int) {
	d.View = [4]int{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) { d.ClearRGB = [4]float32{r, g, b, a} }
func (d *Device) Clear(color, depth bool)       { d.Clears++ }

func (d *Device) DrawArrays(first, count int) { d.draw("DrawArrays", count, false) }

func (d *Device) DrawElements(count, offset int) { d.draw("DrawElements", count, true) }

func (d *Device) draw(op string, count int, indexed bool) {
	if d.use(op, d.program, programObject, false) == nil {
		return
	}
	if d.use(op, d.vao, vaoObject, false) == nil {
		return
	}
	if d.texture != 0 && d.use(op, d.texture, textureObject, false) == nil {
		return
	}
	uniforms := make(map[gfx.Location]any)
	for loc, v := range d.uniforms {
		if gfx.Object(loc>>16) == d.program {
			uniforms[loc] = v
		}
	}
	d.Draws = append(d.Draws, Draw{
		Program:     d.program,
		VertexArray: d.vao,
		Texture:     d.texture,
		Count:       count,
		Indexed:     indexed,
		Uniforms:    uniforms,
	})
}

func (d *Device) Release() { d.Released = true }

// Live counts objects of every kind that were created and not deleted.
func (d *Device) Live() int {
	n := 0
	for _, o := range d.objects {
		if !o.deleted {
			n++
		}
	}
	return n
}

// LiveShaders counts shader objects that were never deleted.
func (d *Device) LiveShaders() int {
	n := 0
	for _, o := range d.objects {
		if o.kind == shaderObject && !o.deleted {
			n++
		}
	}
	return n
}

// UniformValue returns the last value written to name in program.
func (d *Device) UniformValue(program gfx.Object, name string) (any, bool) {
	p, ok := d.objects[program]
	if !ok {
		return nil, false
	}
	i := slices.Index(p.uniforms, name)
	if i < 0 {
		return nil, false
	}
	v, ok := d.uniforms[gfx.Location(int32(program)<<16|int32(i))]
	return v, ok
}
