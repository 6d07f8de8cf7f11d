//go:build js && wasm

package webgl

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/kjkrol/glroom/pkg/gfx"
)

var ErrNoWebGL2 = errors.New("webgl: canvas refused a webgl2 context")

type listener struct {
	target js.Value
	typ    string
	fn     js.Func
}

// Canvas is a gfx.Surface backed by an HTML canvas element.
type Canvas struct {
	el        js.Value
	listeners []listener
	closed    bool
}

// NewCanvas wraps a canvas element or resolves a CSS selector to one.
func NewCanvas(handle js.Value) (*Canvas, error) {
	el := handle
	if handle.Type() == js.TypeString {
		el = js.Global().Get("document").Call("querySelector", handle.String())
	}
	if el.IsNull() || el.IsUndefined() || el.Get("getContext").IsUndefined() {
		return nil, fmt.Errorf("webgl: %s is not a canvas", describe(handle))
	}
	return &Canvas{el: el}, nil
}

func describe(v js.Value) string {
	if v.Type() == js.TypeString {
		return fmt.Sprintf("%q", v.String())
	}
	return v.Type().String()
}

func (c *Canvas) Element() js.Value { return c.el }

// Open asks the canvas for a WebGL 2.0 context. The browser returns the same
// context object on every call, including after a restore.
func (c *Canvas) Open(attrs gfx.Attributes) (gfx.Device, error) {
	gl := c.el.Call("getContext", "webgl2", map[string]any{
		"alpha":                 attrs.Alpha(),
		"depth":                 attrs.Depth,
		"antialias":             attrs.Antialias,
		"preserveDrawingBuffer": attrs.PreserveDrawingBuffer,
	})
	if gl.IsNull() || gl.IsUndefined() {
		return nil, ErrNoWebGL2
	}
	return newDevice(gl), nil
}

func (c *Canvas) Size() (int, int) {
	return c.el.Get("width").Int(), c.el.Get("height").Int()
}

// Fit sizes the drawing buffer to the displayed size times the device pixel
// ratio and returns the new size.
func (c *Canvas) Fit() (int, int) {
	ratio := js.Global().Get("devicePixelRatio").Float()
	if ratio <= 0 {
		ratio = 1
	}
	w := int(c.el.Get("clientWidth").Float()*ratio + 0.5)
	h := int(c.el.Get("clientHeight").Float()*ratio + 0.5)
	if w > 0 && h > 0 {
		c.el.Set("width", w)
		c.el.Set("height", h)
	}
	return c.Size()
}

func (c *Canvas) listen(target js.Value, typ string, prevent bool, f func(js.Value)) {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		var e js.Value
		if len(args) > 0 {
			e = args[0]
			if prevent {
				e.Call("preventDefault")
			}
		}
		f(e)
		return nil
	})
	target.Call("addEventListener", typ, fn)
	c.listeners = append(c.listeners, listener{target: target, typ: typ, fn: fn})
}

// OnContextLost registers f for webglcontextlost. The default action is
// prevented so the browser will later fire webglcontextrestored.
func (c *Canvas) OnContextLost(f func()) {
	c.listen(c.el, "webglcontextlost", true, func(js.Value) { f() })
}

func (c *Canvas) OnContextRestored(f func()) {
	c.listen(c.el, "webglcontextrestored", false, func(js.Value) { f() })
}

// OnVisibilityChange reports document visibility changes.
func (c *Canvas) OnVisibilityChange(f func(visible bool)) {
	doc := js.Global().Get("document")
	c.listen(doc, "visibilitychange", false, func(js.Value) {
		f(doc.Get("visibilityState").String() == "visible")
	})
}

// Close removes every listener registered through the canvas.
func (c *Canvas) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, l := range c.listeners {
		l.target.Call("removeEventListener", l.typ, l.fn)
		l.fn.Release()
	}
	c.listeners = nil
}
