package gfx

import "github.com/go-gl/mathgl/mgl32"

// Transform places an object in world space. Rotation holds Euler angles in
// radians, applied X then Y then Z.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// At returns the identity transform moved to (x, y, z).
func At(x, y, z float32) Transform {
	t := Identity()
	t.Position = mgl32.Vec3{x, y, z}
	return t
}

func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	m = m.Mul4(mgl32.HomogRotate3DZ(t.Rotation[2]))
	m = m.Mul4(mgl32.HomogRotate3DY(t.Rotation[1]))
	m = m.Mul4(mgl32.HomogRotate3DX(t.Rotation[0]))
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Camera is an orthographic camera. HalfHeight is half the visible world
// height; the width follows the viewport aspect ratio.
type Camera struct {
	Eye, Target, Up mgl32.Vec3
	HalfHeight      float32
	Near, Far       float32
	Aspect          float32
}

func DefaultCamera() Camera {
	return Camera{
		Eye:        mgl32.Vec3{12, 12, 12},
		Up:         mgl32.Vec3{0, 1, 0},
		HalfHeight: 6,
		Near:       0.1,
		Far:        1000,
		Aspect:     1,
	}
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

func (c Camera) Projection() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	h := c.HalfHeight
	return mgl32.Ortho(-h*aspect, h*aspect, -h, h, c.Near, c.Far)
}
