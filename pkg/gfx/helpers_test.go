package gfx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/internal/gltest"
	"github.com/kjkrol/glroom/pkg/gfx"
)

const vertexSrc = `
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexture;

uniform mat4 uMVMatrix;
uniform mat4 uPMatrix;
uniform vec3 uLightPosition;

out vec2 vTexCoord;

void main() {
    vTexCoord = aTexture;
    gl_Position = uPMatrix * uMVMatrix * vec4(aPosition, 1.0);
}
`

const fragmentSrc = `
in vec2 vTexCoord;

uniform sampler2D uSampler;
uniform vec4 uAmbientProduct;

out vec4 oFragColor;

void main() {
    oFragColor = uAmbientProduct * texture(uSampler, vTexCoord);
}
`

// triangle is one vertex triple in the position/normal/uv layout.
var triangle = []float32{
	0, 0, 0, 0, 0, 1, 0, 0,
	1, 0, 0, 0, 0, 1, 1, 0,
	0, 1, 0, 0, 0, 1, 0, 1,
}

type runtime struct {
	surface *gltest.Surface
	ctx     *gfx.Context
	rm      *gfx.ResourceManager
}

func newRuntime(t *testing.T, policy gfx.ReleasePolicy) *runtime {
	t.Helper()
	surface := gltest.NewSurface(640, 480)
	ctx := gfx.NewContext()
	require.NoError(t, ctx.Initialize(surface, roomConfig()))
	return &runtime{
		surface: surface,
		ctx:     ctx,
		rm:      gfx.NewResourceManager(ctx, gfx.ResourceConfig{Policy: policy}),
	}
}

func (r *runtime) device() *gltest.Device { return r.surface.Last() }

func (r *runtime) program(t *testing.T) gfx.Handle {
	t.Helper()
	h, err := r.rm.CompileProgram(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	return h
}

func (r *runtime) geometry(t *testing.T) gfx.Handle {
	t.Helper()
	h, err := r.rm.UploadGeometry(gfx.PositionNormalUV, triangle, nil)
	require.NoError(t, err)
	return h
}
