// Package geometry builds triangle lists in the interleaved
// position/normal/uv layout the room shader reads: 8 floats per vertex.
// Shapes are built around the origin and placed by their transform.
package geometry

import "github.com/go-gl/mathgl/mgl32"

// Stride is the number of floats per vertex.
const Stride = 8

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Floats flattens vertices into the interleaved buffer layout.
func Floats(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*Stride)
	for _, v := range vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.UV[0], v.UV[1],
		)
	}
	return out
}

// Translate returns a copy of vertices moved by offset.
func Translate(vertices []Vertex, offset mgl32.Vec3) []Vertex {
	out := make([]Vertex, len(vertices))
	for i, v := range vertices {
		v.Position = v.Position.Add(offset)
		out[i] = v
	}
	return out
}

// Newell returns the unit normal of a planar polygon given in
// counter-clockwise order. Degenerate polygons yield the zero vector.
func Newell(points ...mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// Tri is a flat-shaded triangle a, b, c.
func Tri(a, b, c mgl32.Vec3) []Vertex {
	n := Newell(a, b, c)
	return []Vertex{
		{Position: a, Normal: n, UV: mgl32.Vec2{0, 1}},
		{Position: b, Normal: n, UV: mgl32.Vec2{0, 0}},
		{Position: c, Normal: n, UV: mgl32.Vec2{1, 0}},
	}
}

// Quad splits a flat quad into two triangles.
//
//	a--d
//	|  |
//	b--c
func Quad(a, b, c, d mgl32.Vec3) []Vertex {
	n := Newell(a, b, c, d)
	va := Vertex{Position: a, Normal: n, UV: mgl32.Vec2{0, 1}}
	vb := Vertex{Position: b, Normal: n, UV: mgl32.Vec2{0, 0}}
	vc := Vertex{Position: c, Normal: n, UV: mgl32.Vec2{1, 0}}
	vd := Vertex{Position: d, Normal: n, UV: mgl32.Vec2{1, 1}}
	return []Vertex{va, vb, vc, vc, vd, va}
}

// Polygon triangulates a star-shaped outline as a fan around its centroid.
func Polygon(outline []mgl32.Vec3) []Vertex {
	if len(outline) < 3 {
		return nil
	}
	c := centroid(outline)
	n := Newell(outline...)
	out := make([]Vertex, 0, len(outline)*3)
	for i, p := range outline {
		q := outline[(i+1)%len(outline)]
		out = append(out,
			Vertex{Position: c, Normal: n, UV: mgl32.Vec2{0.5, 0.5}},
			Vertex{Position: p, Normal: n},
			Vertex{Position: q, Normal: n, UV: mgl32.Vec2{1, 0}},
		)
	}
	return out
}

func centroid(points []mgl32.Vec3) mgl32.Vec3 {
	var c mgl32.Vec3
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float32(len(points)))
}

func reversed(points []mgl32.Vec3) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
