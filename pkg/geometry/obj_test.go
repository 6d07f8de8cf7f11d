package geometry_test

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/pkg/geometry"
)

const square = `# unit square
mtllib square.mtl
v 0 0 0
v 2 0 0
v 2 2 0
v 0 2 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1

g front
usemtl paper
f 1/1/1 2/2/1 3/3/1 4/4/1
g back
f -1 -2 -3
`

func TestParseOBJ(t *testing.T) {
	m, err := geometry.ParseOBJ(strings.NewReader(square))
	require.NoError(t, err)

	assert.Len(t, m.Positions, 4)
	assert.Len(t, m.UVs, 4)
	assert.Len(t, m.Normals, 1)
	require.Len(t, m.Groups, 2)
	assert.Equal(t, "front", m.Groups[0].Name)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, m.Center)

	back := m.Groups[1].Faces[0]
	assert.Equal(t, geometry.FaceIndex{Vertex: 3, UV: -1, Normal: -1}, back[0])
	assert.Equal(t, 1, back[2].Vertex)
}

func TestModel_Vertices(t *testing.T) {
	m, err := geometry.ParseOBJ(strings.NewReader(square))
	require.NoError(t, err)

	vs := m.Vertices()
	// the quad fans into two triangles, the back face is one
	require.Len(t, vs, 9)
	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, vs[0].Position)
	assert.Equal(t, mgl32.Vec2{1, 1}, vs[2].UV)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, vs[0].Normal)

	// 4 -> 3 -> 2 winds clockwise seen from +z
	assert.InDelta(t, -1, vs[6].Normal[2], 1e-6)
}

func TestParseOBJ_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"index out of range": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"bad float":          "v 0 zero 0\n",
		"short face":         "v 0 0 0\nv 1 0 0\nf 1 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := geometry.ParseOBJ(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}
