package demo

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io/fs"

	_ "golang.org/x/image/bmp"

	"github.com/kjkrol/glroom/pkg/geometry"
)

//go:embed assets
var embedded embed.FS

const (
	vertexShaderPath   = "shaders/room.vert"
	fragmentShaderPath = "shaders/room.frag"
)

// Assets returns the files shipped with the demo: shaders, models and
// textures, addressed relative to the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// assetCache keeps decoded CPU-side data so a context restore only has to
// upload again.
type assetCache struct {
	fsys   fs.FS
	models map[string]*geometry.Model
	images map[string]image.Image
}

func newAssetCache(fsys fs.FS) *assetCache {
	return &assetCache{
		fsys:   fsys,
		models: make(map[string]*geometry.Model),
		images: make(map[string]image.Image),
	}
}

func (c *assetCache) text(name string) (string, error) {
	b, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		return "", fmt.Errorf("demo: %w", err)
	}
	return string(b), nil
}

func (c *assetCache) model(name string) (*geometry.Model, error) {
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	defer f.Close()
	m, err := geometry.ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("demo: %s: %w", name, err)
	}
	c.models[name] = m
	return m, nil
}

// picture decodes a BMP or PNG texture.
func (c *assetCache) picture(name string) (image.Image, error) {
	if img, ok := c.images[name]; ok {
		return img, nil
	}
	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("demo: %s: %w", name, err)
	}
	c.images[name] = img
	return img, nil
}

// white is sampled by untextured objects so one shader serves both kinds.
func white() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return img
}
