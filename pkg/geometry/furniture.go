package geometry

import "github.com/go-gl/mathgl/mgl32"

// Room is the floor and the two back walls of a box spanning the origin to
// size, seen from the positive octant.
func Room(size mgl32.Vec3) []Vertex {
	w, h, d := size[0], size[1], size[2]
	origin := mgl32.Vec3{}
	top := mgl32.Vec3{0, h, 0}
	x := mgl32.Vec3{w, 0, 0}
	z := mgl32.Vec3{0, 0, d}

	out := make([]Vertex, 0, 18)
	out = append(out, Quad(mgl32.Vec3{0, h, d}, z, origin, top)...) // x = 0 wall
	out = append(out, Quad(top, origin, x, mgl32.Vec3{w, h, 0})...) // z = 0 wall
	out = append(out, Quad(origin, z, mgl32.Vec3{w, 0, d}, x)...)   // floor
	return out
}

// Table is a flat top on four corner legs standing on y = 0. top is the
// slab size; leg is the size of one leg, whose height lifts the top.
type Table struct {
	Top mgl32.Vec3
	Leg mgl32.Vec3
}

// Desk builds the table with legs reaching the underside of the top.
func Desk(t Table) []Vertex {
	out := RectangularPrism(mgl32.Vec3{0, t.Leg[1] + t.Top[1]/2, 0}, t.Top)
	return append(out, legs(t.Top, t.Leg)...)
}

// Chair builds a lower seat: the legs are three quarters of the leg height.
func Chair(t Table) []Vertex {
	leg := mgl32.Vec3{t.Leg[0], t.Leg[1] * 0.75, t.Leg[2]}
	out := RectangularPrism(mgl32.Vec3{0, leg[1] + t.Top[1]/2, 0}, t.Top)
	return append(out, legs(t.Top, leg)...)
}

func legs(top, leg mgl32.Vec3) []Vertex {
	dx := top[0]/2 - leg[0]/2
	dz := top[2]/2 - leg[2]/2
	out := make([]Vertex, 0, 4*36)
	for _, c := range [][2]float32{{-dx, -dz}, {dx, -dz}, {-dx, dz}, {dx, dz}} {
		out = append(out, RectangularPrism(mgl32.Vec3{c[0], leg[1] / 2, c[1]}, leg)...)
	}
	return out
}
