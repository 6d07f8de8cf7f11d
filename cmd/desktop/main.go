//go:build !js && cgo

// Command desktop runs the room demo in a GLFW window.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli/v2"

	"github.com/kjkrol/glroom/internal/config"
	"github.com/kjkrol/glroom/internal/demo"
	"github.com/kjkrol/glroom/internal/glcore"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "scene TOML file, the embedded room when empty",
	}
	widthFlag = &cli.IntFlag{
		Name:  "width",
		Value: 800,
	}
	heightFlag = &cli.IntFlag{
		Name:  "height",
		Value: 800,
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "log resource lifecycle at debug level",
	}
)

func main() {
	app := &cli.App{
		Name:   "glroom",
		Usage:  "render the room scene",
		Flags:  []cli.Flag{configFlag, widthFlag, heightFlag, verboseFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var conf *config.Config
	if path := c.String(configFlag.Name); path != "" {
		var err error
		if conf, err = config.Load(path); err != nil {
			return err
		}
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw: %w", err)
	}
	defer glfw.Terminate()

	app, err := demo.New(demo.Options{Config: conf, Logger: log})
	if err != nil {
		return err
	}
	window := glcore.NewWindow("glroom", c.Int(widthFlag.Name), c.Int(heightFlag.Name))
	defer window.Close()
	if err := app.Initialize(window); err != nil {
		return err
	}
	defer app.Teardown()

	win := window.GLFW()
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		app.OnResize(width, height)
	})
	win.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		app.OnVisibilityChange(!iconified)
	})
	glfw.SwapInterval(1)

	for !win.ShouldClose() {
		if err := app.OnTick(glfw.GetTime() * 1000); err != nil {
			return err
		}
		win.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}
