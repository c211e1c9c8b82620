// Package shading evaluates the lighting the GLSL programs implement, on
// the CPU. Tests use it to pin down the shader maths without a GL context,
// and the passes take their bias defaults from here.
package shading

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultSlopeBias float32 = 0.05
	DefaultMinBias   float32 = 0.005
)

// Surface is one shaded point.
type Surface struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	Base      mgl32.Vec3 // diffuse colour or diffuse texel
	Spec      mgl32.Vec3 // specular colour or specular texel
	Ka        float32
	Kd        float32
	Ks        float32
	Shininess float32
}

type Light struct {
	Color     mgl32.Vec3
	Intensity float32
	Direction mgl32.Vec3 // travel direction, need not be normalised
}

// Terms are the three Blinn-Phong contributions.
type Terms struct {
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
}

func (t Terms) Sum() mgl32.Vec3 {
	return t.Ambient.Add(t.Diffuse).Add(t.Specular)
}

// Lit returns the final colour, dropping the direct terms when shadowed.
func (t Terms) Lit(shadowed bool) mgl32.Vec3 {
	if shadowed {
		return t.Ambient
	}
	return t.Sum()
}

func mulv(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// BlinnPhong mirrors phong.frag.
func BlinnPhong(s Surface, l Light, ambient, camera mgl32.Vec3) Terms {
	n := s.Normal.Normalize()
	ld := l.Direction.Mul(-1).Normalize()
	v := camera.Sub(s.Position).Normalize()
	h := ld.Add(v).Normalize()
	radiance := l.Color.Mul(l.Intensity)

	t := Terms{Ambient: mulv(ambient, s.Base).Mul(s.Ka)}
	ndl := n.Dot(ld)
	if ndl > 0 {
		t.Diffuse = mulv(radiance, s.Base).Mul(s.Kd * ndl)
		spec := float32(math.Pow(float64(max(n.Dot(h), 0)), float64(s.Shininess)))
		t.Specular = mulv(radiance, s.Spec).Mul(s.Ks * spec)
	}
	return t
}

// Bias is the slope-scaled depth bias: max(slope*(1-N.L), min).
func Bias(normal, lightDir mgl32.Vec3, slope, min float32) float32 {
	ndl := normal.Normalize().Dot(lightDir.Mul(-1).Normalize())
	return max(slope*(1-ndl), min)
}

// ShadowCoord maps a world position to shadow-map texture space: xy in
// [0,1] for points inside the light box and z the depth the depth pass
// would store there.
func ShadowCoord(lightSpace mgl32.Mat4, world mgl32.Vec3) mgl32.Vec3 {
	p := lightSpace.Mul4x1(world.Vec4(1))
	ndc := p.Vec3().Mul(1 / p.W())
	return ndc.Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
}

// Shadowed compares a fragment's light-space depth against the stored
// occluder depth. Fragments beyond the light's far plane are always lit.
func Shadowed(coord mgl32.Vec3, stored, bias float32) bool {
	if coord.Z() > 1 {
		return false
	}
	return coord.Z()-bias > stored
}

// DepthGrey mirrors depth_debug.frag.
func DepthGrey(depth, near, far float32, orthographic bool) float32 {
	if orthographic {
		return depth
	}
	z := depth*2 - 1
	return (2 * near * far) / (far + near - z*(far-near)) / far
}
