package render

import (
	"errors"
	"fmt"

	"shadow-demo/internal/assets"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/scene"
)

var ErrNoShadowMap = errors.New("render: shadowed pass needs a depth target")

// PhongPass shades every entity with one directional light. The shadowed
// variant also samples the shadow map at ShadowTextureUnit.
type PhongPass struct {
	dev      gpu.Device
	prog     *graphics.Program
	shadow   *gpu.Target // nil for the plain variant
	fallback *scene.Material

	SlopeBias float32
	MinBias   float32
	Wireframe bool

	prepared
}

// NewPhongPass builds the plain variant.
func NewPhongPass(dev gpu.Device) (*PhongPass, error) {
	prog, err := graphics.NewProgram(dev, PassPhong, assets.PhongVert, assets.PhongFrag)
	if err != nil {
		return nil, fmt.Errorf("phong pass: %w", err)
	}
	return &PhongPass{dev: dev, prog: prog, fallback: scene.DefaultMaterial()}, nil
}

// NewShadowedPhongPass builds the variant that reads shadow's depth texture.
func NewShadowedPhongPass(dev gpu.Device, shadow *gpu.Target, slopeBias, minBias float32) (*PhongPass, error) {
	if shadow == nil {
		return nil, ErrNoShadowMap
	}
	prog, err := graphics.NewProgram(dev, PassPhongShadowed, assets.PhongShadowVert, assets.PhongShadowFrag)
	if err != nil {
		return nil, fmt.Errorf("shadowed phong pass: %w", err)
	}
	return &PhongPass{
		dev:       dev,
		prog:      prog,
		shadow:    shadow,
		fallback:  scene.DefaultMaterial(),
		SlopeBias: slopeBias,
		MinBias:   minBias,
	}, nil
}

func (p *PhongPass) Name() string {
	if p.shadow != nil {
		return PassPhongShadowed
	}
	return PassPhong
}

func (p *PhongPass) Shadowed() bool { return p.shadow != nil }

// Prepare uploads the ambient and light uniforms.
func (p *PhongPass) Prepare(s *scene.Scene, ctx *Context) error {
	if s == nil || s.Light == nil {
		return scene.ErrMissingLight
	}
	p.prog.Use()
	p.prog.SetVec3("ambient", s.Ambient)
	p.prog.SetVec3("light.color", s.Light.Color)
	p.prog.SetFloat("light.intensity", s.Light.Intensity)
	p.prog.SetVec3("light.direction", s.Light.Direction)
	if p.shadow != nil {
		p.prog.SetInt("shadowMap", ShadowTextureUnit)
		p.prog.SetFloat("slopeBias", p.SlopeBias)
		p.prog.SetFloat("minBias", p.MinBias)
	}
	p.mark(s)
	return nil
}

// Render draws into whatever target is bound. The orchestrator binds and
// clears the colour target first.
func (p *PhongPass) Render(s *scene.Scene, ctx *Context) error {
	if p.stale(s) {
		if err := p.Prepare(s, ctx); err != nil {
			return err
		}
	}
	if p.Wireframe {
		p.dev.SetPolygonMode(gpu.Line)
		defer p.dev.SetPolygonMode(gpu.Fill)
	}

	p.prog.Use()
	p.prog.SetMat4("view", ctx.View)
	p.prog.SetMat4("projection", ctx.Proj)
	p.prog.SetVec3("cameraPos", ctx.CameraPos)
	if p.shadow != nil {
		p.dev.BindTexture(ShadowTextureUnit, p.shadow.Texture)
		p.prog.SetMat4("lightSpace", ctx.LightSpace())
	}

	s.Walk(func(id scene.EntityID, e *scene.Entity) {
		if !e.Drawable() {
			return
		}
		p.prog.SetMat4("model", s.Graph.Model(id))
		p.material(e.Material)
		e.Mesh.Draw(p.dev)
	})
	return nil
}

func (p *PhongPass) material(m *scene.Material) {
	if m == nil {
		m = p.fallback
	}
	p.prog.SetFloat("material.ka", m.Ka())
	p.prog.SetFloat("material.kd", m.Kd())
	p.prog.SetFloat("material.ks", m.Ks())
	p.prog.SetVec3("material.diffuseColor", m.DiffuseColor)
	p.prog.SetVec3("material.specularColor", m.SpecularColor)
	p.prog.SetFloat("material.shininess", m.Shininess)

	unit, ok := m.Unit(graphics.TextureDiffuse)
	p.prog.SetBool("material.hasDiffuseMap", ok)
	p.prog.SetInt("material.diffuseMap", int32(unit))
	unit, ok = m.Unit(graphics.TextureSpecular)
	p.prog.SetBool("material.hasSpecularMap", ok)
	p.prog.SetInt("material.specularMap", int32(unit))
	m.Bind(p.dev)
}

func (p *PhongPass) Dispose() {
	p.prog.Delete()
}
