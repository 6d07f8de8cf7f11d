package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/internal/config"
	"github.com/kjkrol/glroom/pkg/gfx"
)

func TestDefault(t *testing.T) {
	c, err := config.Default()
	require.NoError(t, err)

	assert.Equal(t, 66*time.Millisecond, c.Loop.MaxDelta.Duration)
	assert.True(t, c.Loop.Animate)
	assert.Equal(t, gfx.ReleaseDeferred, c.Loop.Resources().Policy)
	assert.Equal(t, mgl32.Vec3{12, 12, 12}, c.Camera.Gfx().Eye)
	assert.Equal(t, [3]float32{5, 12, 5}, c.Light.Position)
	assert.Len(t, c.Objects, 7)
	assert.Len(t, c.Materials, 5)

	ctx := c.Context.Gfx()
	assert.Equal(t, gfx.Black, ctx.ClearColor)
	assert.True(t, ctx.DepthTest)
	assert.True(t, ctx.CullFace)
	assert.Equal(t, 32, ctx.ColorDepth)

	star := c.Objects[4]
	assert.Equal(t, config.ShapeStar, star.Shape)
	assert.Equal(t, float32(-6), star.Spin)
	assert.Equal(t, [3]float32{1, 1, 1}, star.Scale, "scale defaults to one")
	assert.Len(t, c.Objects[5].Path, 8)

	u := c.Materials["bronze"].Uniforms()
	assert.Equal(t, mgl32.Vec4{0.2125, 0.1275, 0.054, 1}, u["uAmbientProduct"])
	assert.Equal(t, float32(25.6), u["uShininess"])
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"unknown shape": `
[camera]
near = 0.1
far = 10.0
[materials.m]
[[objects]]
shape = "teapot"
material = "m"
`,
		"unknown material": `
[camera]
near = 0.1
far = 10.0
[[objects]]
shape = "room"
material = "chrome"
`,
		"star without points": `
[camera]
near = 0.1
far = 10.0
[materials.m]
[[objects]]
shape = "star"
material = "m"
outer = 1.0
`,
		"bad policy": `
[loop]
release_policy = "lazy"
[camera]
near = 0.1
far = 10.0
`,
		"per-channel color depth": `
[context]
color_depth = 8
[camera]
near = 0.1
far = 10.0
`,
		"bad duration": `
[loop]
max_delta = "soon"
`,
		"unknown key": `
[camera]
near = 0.1
far = 10.0
fov = 60.0
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse(src)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[loop]
max_delta = "100ms"

[camera]
eye = [1.0, 2.0, 3.0]
near = 1.0
far = 50.0

[materials.plain]
ambient = [1.0, 1.0, 1.0, 1.0]

[[objects]]
name = "box"
shape = "prism"
material = "plain"
size = [1.0, 2.0, 3.0]
scale = [2.0, 2.0, 2.0]
`), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, c.Loop.Gfx().MaxDelta)
	assert.Equal(t, gfx.ReleaseEager, c.Loop.Resources().Policy)
	require.Len(t, c.Objects, 1)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, c.Objects[0].Transform().Scale)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
