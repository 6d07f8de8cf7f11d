package geometry_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/glroom/pkg/geometry"
)

func bounds(vs []geometry.Vertex) (lo, hi mgl32.Vec3) {
	lo, hi = vs[0].Position, vs[0].Position
	for _, v := range vs[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	return lo, hi
}

// assertOutward checks that every triangle's normal points away from center.
func assertOutward(t *testing.T, vs []geometry.Vertex, center mgl32.Vec3) {
	t.Helper()
	for i := 0; i < len(vs); i += 3 {
		mid := vs[i].Position.Add(vs[i+1].Position).Add(vs[i+2].Position).Mul(1.0 / 3)
		n := vs[i].Normal
		if n.Len() == 0 {
			continue
		}
		assert.GreaterOrEqual(t, n.Dot(mid.Sub(center)), float32(0), "triangle %d faces inward", i/3)
	}
}

func TestNewell(t *testing.T) {
	n := geometry.Newell(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 1, n[2], 1e-6)

	assert.Equal(t, mgl32.Vec3{}, geometry.Newell(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}))
}

func TestQuad(t *testing.T) {
	vs := geometry.Quad(
		mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 1, 0},
	)
	require.Len(t, vs, 6)
	for _, v := range vs {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal)
	}
	assert.Len(t, geometry.Floats(vs), 6*geometry.Stride)
}

func TestRectangularPrism(t *testing.T) {
	center := mgl32.Vec3{1, 2, 3}
	vs := geometry.RectangularPrism(center, mgl32.Vec3{2, 4, 6})

	require.Len(t, vs, 36)
	lo, hi := bounds(vs)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{2, 4, 6}, hi)
	assertOutward(t, vs, center)
}

func TestRoom(t *testing.T) {
	vs := geometry.Room(mgl32.Vec3{10, 10, 10})

	require.Len(t, vs, 18)
	// every face looks into the room
	assertOutward(t, vs, mgl32.Vec3{-1, -1, -1})
}

func TestDeskAndChair(t *testing.T) {
	table := geometry.Table{Top: mgl32.Vec3{4, 0.2, 4}, Leg: mgl32.Vec3{0.2, 3, 0.2}}

	desk := geometry.Desk(table)
	require.Len(t, desk, 5*36)
	lo, hi := bounds(desk)
	assert.InDelta(t, 0, lo[1], 1e-6)
	assert.InDelta(t, 3.2, hi[1], 1e-5)
	assert.InDelta(t, -2, lo[0], 1e-6)
	assert.InDelta(t, 2, hi[2], 1e-6)

	chair := geometry.Chair(geometry.Table{Top: mgl32.Vec3{1, 0.2, 1}, Leg: mgl32.Vec3{0.2, 3, 0.2}})
	require.Len(t, chair, 5*36)
	lo, hi = bounds(chair)
	assert.InDelta(t, 0, lo[1], 1e-6, "legs stand on the floor")
	assert.InDelta(t, 2.45, hi[1], 1e-5)
}

func TestStarExtrusion(t *testing.T) {
	outline := geometry.Star(5, 0.3, 1.0)
	require.Len(t, outline, 10)
	assert.InDelta(t, 0.3, outline[0].Len(), 1e-6)
	assert.InDelta(t, 1.0, outline[1].Len(), 1e-6)

	vs := geometry.Extrude(outline, mgl32.Vec3{0, 0.5, 0})
	// two fan caps of 10 triangles plus 10 side quads
	require.Len(t, vs, 10*3*2+10*6)

	bottom, top := vs[0].Normal, vs[len(vs)-1].Normal
	assert.InDelta(t, -1, bottom[1], 1e-6)
	assert.InDelta(t, 1, top[1], 1e-6)

	for i := 30; i < 90; i += 6 {
		mid := vs[i].Position.Add(vs[i+2].Position).Mul(0.5)
		radial := mgl32.Vec3{mid[0], 0, mid[2]}
		assert.Greater(t, vs[i].Normal.Dot(radial), float32(0), "side %d faces inward", (i-30)/6)
	}

	assert.Nil(t, geometry.Extrude(outline[:2], mgl32.Vec3{0, 1, 0}))
}

func TestRevolve(t *testing.T) {
	path := []mgl32.Vec3{
		{0.5, 0, 0}, {0.55, 0.15, 0}, {0.5, 0.2, 0}, {0.4, 0.3, 0},
		{0.15, 0.5, 0}, {0.15, 0.9, 0}, {0.175, 0.95, 0}, {0.15, 0.9, 0},
	}
	vs := geometry.Revolve(path, 200)

	// per step: two cap triangles and one quad per path segment
	require.Len(t, vs, 200*(2*3+7*6))
	lo, hi := bounds(vs)
	assert.InDelta(t, -0.55, lo[0], 1e-3)
	assert.InDelta(t, 0.55, hi[2], 1e-3)
	assert.InDelta(t, 0.95, hi[1], 1e-6)

	assert.InDelta(t, -1, vs[0].Normal[1], 1e-5, "base cap faces down")
	assert.Nil(t, geometry.Revolve(path, 2))
}

func TestTranslate(t *testing.T) {
	vs := geometry.Tri(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	moved := geometry.Translate(vs, mgl32.Vec3{0, 0, 5})

	assert.Equal(t, float32(5), moved[1].Position[2])
	assert.Equal(t, float32(0), vs[1].Position[2], "input is not modified")
}
