//go:build !js && cgo

package glcore

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/kjkrol/glroom/pkg/gfx"
)

// Window is a gfx.Surface backed by a GLFW window. The window is created on
// the first Open; later opens reuse it and hand out a fresh Device. glfw.Init
// must have been called on the main thread before.
type Window struct {
	title         string
	width, height int
	win           *glfw.Window
}

func NewWindow(title string, width, height int) *Window {
	return &Window{title: title, width: width, height: height}
}

func (w *Window) Open(attrs gfx.Attributes) (gfx.Device, error) {
	if w.win == nil {
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 3)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.Resizable, glfw.True)
		if attrs.Depth {
			glfw.WindowHint(glfw.DepthBits, 24)
		}
		if attrs.Antialias {
			glfw.WindowHint(glfw.Samples, 4)
		}
		if !attrs.Alpha() {
			glfw.WindowHint(glfw.AlphaBits, 0)
		}
		win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("glcore: create window: %w", err)
		}
		w.win = win
	}
	w.win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glcore: %w", err)
	}
	return newDevice(), nil
}

// Size returns the framebuffer size, which differs from the window size on
// high density displays.
func (w *Window) Size() (int, int) {
	if w.win == nil {
		return w.width, w.height
	}
	return w.win.GetFramebufferSize()
}

// GLFW returns the underlying window, nil before the first Open.
func (w *Window) GLFW() *glfw.Window { return w.win }

func (w *Window) Close() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
}
