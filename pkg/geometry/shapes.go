package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RectangularPrism is an axis-aligned box of the given size centered on
// center, every face wound outward.
func RectangularPrism(center, size mgl32.Vec3) []Vertex {
	hx, hy, hz := size[0]/2, size[1]/2, size[2]/2
	p := func(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }

	out := make([]Vertex, 0, 36)
	out = append(out, Quad(p(-hx, hy, hz), p(-hx, -hy, hz), p(hx, -hy, hz), p(hx, hy, hz))...)     // front
	out = append(out, Quad(p(hx, hy, -hz), p(hx, -hy, -hz), p(-hx, -hy, -hz), p(-hx, hy, -hz))...) // back
	out = append(out, Quad(p(hx, hy, hz), p(hx, -hy, hz), p(hx, -hy, -hz), p(hx, hy, -hz))...)     // right
	out = append(out, Quad(p(-hx, hy, -hz), p(-hx, -hy, -hz), p(-hx, -hy, hz), p(-hx, hy, hz))...) // left
	out = append(out, Quad(p(-hx, hy, -hz), p(-hx, hy, hz), p(hx, hy, hz), p(hx, hy, -hz))...)     // top
	out = append(out, Quad(p(-hx, -hy, hz), p(-hx, -hy, -hz), p(hx, -hy, -hz), p(hx, -hy, hz))...) // bottom
	return Translate(out, center)
}

// Star is a flat outline in the XZ plane alternating between the inner and
// outer radius, points tips in total.
func Star(points int, inner, outer float32) []mgl32.Vec3 {
	if points < 2 {
		return nil
	}
	theta := math.Pi / float64(points)
	out := make([]mgl32.Vec3, 0, points*2)
	for i := range points {
		a := float64(2*i) * theta
		out = append(out,
			mgl32.Vec3{inner * float32(math.Cos(a)), 0, inner * float32(math.Sin(a))},
			mgl32.Vec3{outer * float32(math.Cos(a+theta)), 0, outer * float32(math.Sin(a+theta))},
		)
	}
	return out
}

// Extrude sweeps a planar outline along by, closing both ends.
func Extrude(outline []mgl32.Vec3, by mgl32.Vec3) []Vertex {
	if len(outline) < 3 {
		return nil
	}
	// bottom cap faces away from the sweep
	bottom := outline
	if Newell(outline...).Dot(by) > 0 {
		bottom = reversed(outline)
	}
	top := make([]mgl32.Vec3, len(bottom))
	for i, p := range bottom {
		top[i] = p.Add(by)
	}

	out := Polygon(bottom)
	n := len(bottom)
	for i := range n {
		j := (i + 1) % n
		out = append(out, Quad(top[j], bottom[j], bottom[i], top[i])...)
	}
	return append(out, Polygon(reversed(top))...)
}

// Revolve turns a profile path in the XY plane around the Y axis in
// resolution steps. The first point is capped facing down, the last facing
// up.
func Revolve(path []mgl32.Vec3, resolution int) []Vertex {
	if len(path) < 2 || resolution < 3 {
		return nil
	}
	up := mgl32.Vec3{0, 1, 0}
	last := len(path) - 1
	out := make([]Vertex, 0, resolution*(6*last+6))

	step := 2 * math.Pi / float64(resolution)
	rotate := func(i int) []mgl32.Vec3 {
		m := mgl32.Rotate3DY(float32(float64(i) * step))
		ring := make([]mgl32.Vec3, len(path))
		for k, p := range path {
			ring[k] = m.Mul3x1(p)
		}
		return ring
	}

	cur := rotate(0)
	for i := 1; i <= resolution; i++ {
		next := rotate(i)
		out = append(out, facing(up.Mul(-1), cur[0], next[0], mgl32.Vec3{0, cur[0][1], 0})...)
		for k := range last {
			a, b, c, d := cur[k], cur[k+1], next[k], next[k+1]
			mid := a.Add(b).Add(c).Add(d).Mul(0.25)
			outward := mgl32.Vec3{mid[0], 0, mid[2]}
			q := Quad(a, c, d, b)
			if q[0].Normal.Dot(outward) < 0 {
				q = Quad(b, d, c, a)
			}
			out = append(out, q...)
		}
		out = append(out, facing(up, cur[last], next[last], mgl32.Vec3{0, cur[last][1], 0})...)
		cur = next
	}
	return out
}

// facing builds triangle a, b, c wound so its normal points along want.
func facing(want, a, b, c mgl32.Vec3) []Vertex {
	if Newell(a, b, c).Dot(want) < 0 {
		return Tri(a, c, b)
	}
	return Tri(a, b, c)
}
