package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DirLight is a directional light. ShadowPosition is only used to place the
// light's view matrix; a directional light has no real position.
type DirLight struct {
	Color          mgl32.Vec3
	Intensity      float32
	Direction      mgl32.Vec3
	ShadowPosition mgl32.Vec3
}

// NewDirLight normalises direction and places the shadow eye distance units
// against it.
func NewDirLight(color mgl32.Vec3, intensity float32, direction mgl32.Vec3, distance float32) *DirLight {
	d := direction.Normalize()
	return &DirLight{
		Color:          color,
		Intensity:      intensity,
		Direction:      d,
		ShadowPosition: d.Mul(-distance),
	}
}

// View looks from ShadowPosition at the origin.
func (l *DirLight) View() mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(l.Direction.Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(l.ShadowPosition, mgl32.Vec3{}, up)
}

// Projection is an orthographic box of half extent size.
func (l *DirLight) Projection(size, near, far float32) mgl32.Mat4 {
	return mgl32.Ortho(-size, size, -size, size, near, far)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
