package scene

import (
	"errors"
	"fmt"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxMaterialTextures bounds the units a material binds (0..n-1). The shadow
// map sits on the first unit past them.
const MaxMaterialTextures = 4

var ErrTooManyTextures = errors.New("scene: too many material textures")

// Material is a Blinn-Phong surface description
type Material struct {
	ka, kd, ks    float32
	DiffuseColor  mgl32.Vec3
	SpecularColor mgl32.Vec3
	Shininess     float32
	textures      []graphics.Texture
}

// NewMaterial returns a material with all coefficients at 1. Textures bind
// in the order given.
func NewMaterial(diffuse, specular mgl32.Vec3, shininess float32, textures ...graphics.Texture) (*Material, error) {
	if len(textures) > MaxMaterialTextures {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTextures, len(textures), MaxMaterialTextures)
	}
	return &Material{
		ka:            1,
		kd:            1,
		ks:            1,
		DiffuseColor:  diffuse,
		SpecularColor: specular,
		Shininess:     shininess,
		textures:      append([]graphics.Texture(nil), textures...),
	}, nil
}

// DefaultMaterial is white, untextured and moderately shiny.
func DefaultMaterial() *Material {
	m, _ := NewMaterial(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, 32)
	return m
}

func (m *Material) Ka() float32 { return m.ka }
func (m *Material) Kd() float32 { return m.kd }
func (m *Material) Ks() float32 { return m.ks }

func (m *Material) SetKa(v float32) { m.ka = v }
func (m *Material) SetKd(v float32) { m.kd = v }
func (m *Material) SetKs(v float32) { m.ks = v }

// Textures returns a copy of the texture list.
func (m *Material) Textures() []graphics.Texture {
	return append([]graphics.Texture(nil), m.textures...)
}

// Unit returns the unit the first texture of typ binds to.
func (m *Material) Unit(typ graphics.TextureType) (int, bool) {
	for i, t := range m.textures {
		if t.Type == typ {
			return i, true
		}
	}
	return 0, false
}

// Bind binds every texture at its unit, leaving the active unit at the last
// bound one.
func (m *Material) Bind(dev gpu.Device) {
	for i, t := range m.textures {
		dev.BindTexture(i, t.ID)
	}
}
