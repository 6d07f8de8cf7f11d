// Package config describes the room scene: context options, loop timing,
// camera, light, materials and the objects to build.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kjkrol/glroom/pkg/gfx"
)

//go:embed room.toml
var defaultRoom string

// Shapes the demo knows how to build.
const (
	ShapeRoom    = "room"
	ShapeDesk    = "desk"
	ShapeChair   = "chair"
	ShapePrism   = "prism"
	ShapeStar    = "star"
	ShapeRevolve = "revolve"
	ShapeOBJ     = "obj"
)

var shapes = []string{ShapeRoom, ShapeDesk, ShapeChair, ShapePrism, ShapeStar, ShapeRevolve, ShapeOBJ}

// Duration decodes TOML strings such as "66ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Context   ContextConfig       `toml:"context"`
	Loop      LoopConfig          `toml:"loop"`
	Camera    CameraConfig        `toml:"camera"`
	Light     LightConfig         `toml:"light"`
	Materials map[string]Material `toml:"materials"`
	Objects   []Object            `toml:"objects"`
}

type ContextConfig struct {
	ColorDepth            int        `toml:"color_depth"`
	PreserveDrawingBuffer bool       `toml:"preserve_drawing_buffer"`
	Antialias             bool       `toml:"antialias"`
	ClearColor            [4]float32 `toml:"clear_color"`
	DepthTest             bool       `toml:"depth_test"`
	CullFace              bool       `toml:"cull_face"`
}

type LoopConfig struct {
	MaxDelta Duration `toml:"max_delta"`
	Animate  bool     `toml:"animate"`
	// ReleasePolicy is "eager" or "deferred".
	ReleasePolicy string `toml:"release_policy"`
}

type CameraConfig struct {
	Eye        [3]float32 `toml:"eye"`
	Target     [3]float32 `toml:"target"`
	Up         [3]float32 `toml:"up"`
	HalfHeight float32    `toml:"half_height"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
}

type LightConfig struct {
	Position [3]float32 `toml:"position"`
}

// Material holds the light products fed to the Blinn-Phong shader.
type Material struct {
	Ambient   [4]float32 `toml:"ambient"`
	Diffuse   [4]float32 `toml:"diffuse"`
	Specular  [4]float32 `toml:"specular"`
	Shininess float32    `toml:"shininess"`
}

// Object is one drawable. Which size fields matter depends on Shape.
type Object struct {
	Name     string     `toml:"name"`
	Shape    string     `toml:"shape"`
	Material string     `toml:"material"`
	Position [3]float32 `toml:"position"`
	Rotation [3]float32 `toml:"rotation"`
	Scale    [3]float32 `toml:"scale"`
	// Spin is a rotation rate about Y in radians per second.
	Spin float32 `toml:"spin"`

	Size [3]float32 `toml:"size"`
	Top  [3]float32 `toml:"top"`
	Leg  [3]float32 `toml:"leg"`

	Points  int        `toml:"points"`
	Inner   float32    `toml:"inner"`
	Outer   float32    `toml:"outer"`
	Extrude [3]float32 `toml:"extrude"`

	Path       [][3]float32 `toml:"path"`
	Resolution int          `toml:"resolution"`

	Model   string `toml:"model"`
	Texture string `toml:"texture"`
}

// Default returns the embedded room scene.
func Default() (*Config, error) {
	return Parse(defaultRoom)
}

// Load reads a TOML scene file. Keys the Config does not know are an error.
func Load(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return finish(&c, md)
}

func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return finish(&c, md)
}

func finish(c *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	for i := range c.Objects {
		if c.Objects[i].Scale == [3]float32{} {
			c.Objects[i].Scale = [3]float32{1, 1, 1}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	switch c.Context.ColorDepth {
	case 0, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("context.color_depth %d is not 24 or 32 bits per pixel", c.Context.ColorDepth))
	}
	if c.Loop.MaxDelta.Duration < 0 {
		errs = append(errs, fmt.Errorf("loop.max_delta %s is negative", c.Loop.MaxDelta))
	}
	switch c.Loop.ReleasePolicy {
	case "", "eager", "deferred":
	default:
		errs = append(errs, fmt.Errorf("loop.release_policy %q is not eager or deferred", c.Loop.ReleasePolicy))
	}
	if c.Camera.Near >= c.Camera.Far {
		errs = append(errs, fmt.Errorf("camera near %v is not below far %v", c.Camera.Near, c.Camera.Far))
	}
	for i, o := range c.Objects {
		if err := o.validate(c.Materials); err != nil {
			errs = append(errs, fmt.Errorf("objects[%d] %q: %w", i, o.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (o Object) validate(materials map[string]Material) error {
	if !slices.Contains(shapes, o.Shape) {
		return fmt.Errorf("unknown shape %q", o.Shape)
	}
	if _, ok := materials[o.Material]; !ok {
		return fmt.Errorf("unknown material %q", o.Material)
	}
	switch o.Shape {
	case ShapeStar:
		if o.Points < 2 || o.Outer <= 0 {
			return errors.New("star needs points >= 2 and an outer radius")
		}
	case ShapeRevolve:
		if len(o.Path) < 2 || o.Resolution < 3 {
			return errors.New("revolve needs a path of 2+ points and resolution >= 3")
		}
	case ShapeOBJ:
		if o.Model == "" {
			return errors.New("obj needs a model path")
		}
	}
	return nil
}

// Gfx returns the context options in runtime form.
func (c ContextConfig) Gfx() gfx.ContextConfig {
	return gfx.ContextConfig{
		ColorDepth:            c.ColorDepth,
		PreserveDrawingBuffer: c.PreserveDrawingBuffer,
		Antialias:             c.Antialias,
		ClearColor:            gfx.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]},
		DepthTest:             c.DepthTest,
		CullFace:              c.CullFace,
	}
}

func (l LoopConfig) Gfx() gfx.LoopConfig {
	return gfx.LoopConfig{MaxDelta: l.MaxDelta.Duration}
}

func (l LoopConfig) Resources() gfx.ResourceConfig {
	if l.ReleasePolicy == "deferred" {
		return gfx.ResourceConfig{Policy: gfx.ReleaseDeferred}
	}
	return gfx.ResourceConfig{Policy: gfx.ReleaseEager}
}

func (c CameraConfig) Gfx() gfx.Camera {
	return gfx.Camera{
		Eye:        c.Eye,
		Target:     c.Target,
		Up:         c.Up,
		HalfHeight: c.HalfHeight,
		Near:       c.Near,
		Far:        c.Far,
		Aspect:     1,
	}
}

// Uniforms returns the material as shader uniform values.
func (m Material) Uniforms() gfx.Uniforms {
	return gfx.Uniforms{
		"uAmbientProduct":  mgl32.Vec4(m.Ambient),
		"uDiffuseProduct":  mgl32.Vec4(m.Diffuse),
		"uSpecularProduct": mgl32.Vec4(m.Specular),
		"uShininess":       m.Shininess,
	}
}

// Transform places the object.
func (o Object) Transform() gfx.Transform {
	return gfx.Transform{
		Position: o.Position,
		Rotation: o.Rotation,
		Scale:    o.Scale,
	}
}
