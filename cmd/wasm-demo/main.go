//go:build js && wasm

// Command wasm-demo exposes the room demo to the page as the global glroom
// object. The page owns requestAnimationFrame and resizing and calls in.
// A page-level animate global (boolean or number) is read before every
// frame and pauses or resumes the spinning objects.
package main

import (
	"errors"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/kjkrol/glroom/internal/demo"
	"github.com/kjkrol/glroom/internal/webgl"
	"github.com/kjkrol/glroom/pkg/gfx"
)

type host struct {
	log    *slog.Logger
	app    *demo.App
	canvas *webgl.Canvas
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	app, err := demo.New(demo.Options{Logger: log})
	if err != nil {
		log.Error("demo setup", slog.Any("err", err))
		return
	}
	h := &host{log: log, app: app}

	js.Global().Set("glroom", js.ValueOf(map[string]any{
		"initialize": js.FuncOf(h.initialize),
		"onTick":     js.FuncOf(h.onTick),
		"onResize":   js.FuncOf(h.onResize),
		"teardown":   js.FuncOf(h.teardown),
	}))
	log.Info("glroom ready")
	select {}
}

// initialize takes a canvas element or a CSS selector and returns null or
// an error message.
func (h *host) initialize(_ js.Value, args []js.Value) any {
	if len(args) == 0 {
		return "initialize: missing canvas"
	}
	canvas, err := webgl.NewCanvas(args[0])
	if err != nil {
		return err.Error()
	}
	canvas.Fit()
	if err := h.app.Initialize(canvas); err != nil {
		canvas.Close()
		return err.Error()
	}
	if h.canvas != nil {
		h.canvas.Close()
	}
	h.canvas = canvas

	canvas.OnContextLost(h.app.OnContextLost)
	canvas.OnContextRestored(func() {
		if err := h.app.Restore(); err != nil {
			h.log.Error("context restore", slog.Any("err", err))
		}
	})
	canvas.OnVisibilityChange(h.app.OnVisibilityChange)
	return nil
}

func (h *host) onTick(_ js.Value, args []js.Value) any {
	if len(args) == 0 {
		return nil
	}
	h.syncAnimate()
	if err := h.app.OnTick(args[0].Float()); err != nil && !errors.Is(err, gfx.ErrTickInFlight) {
		h.log.Error("tick", slog.Any("err", err))
	}
	return nil
}

func (h *host) syncAnimate() {
	flag := js.Global().Get("animate")
	switch flag.Type() {
	case js.TypeBoolean:
		h.app.SetAnimate(flag.Bool())
	case js.TypeNumber:
		h.app.SetAnimate(flag.Int() != 0)
	}
}

func (h *host) onResize(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	h.app.OnResize(args[0].Int(), args[1].Int())
	return nil
}

func (h *host) teardown(js.Value, []js.Value) any {
	h.app.Teardown()
	if h.canvas != nil {
		h.canvas.Close()
		h.canvas = nil
	}
	return nil
}
