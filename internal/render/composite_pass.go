package render

import (
	"fmt"

	"shadow-demo/internal/assets"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/mesh"
	"shadow-demo/internal/scene"
)

// CompositePass draws a target's texture over the visible framebuffer with
// a full-screen quad. The depth-debug variant shows a depth texture as grey.
type CompositePass struct {
	name   string
	dev    gpu.Device
	prog   *graphics.Program
	quad   *mesh.Mesh // shared, owned by the caller
	source *gpu.Target

	near, far float32
	prepared
}

// NewCompositePass blits source's colour texture.
func NewCompositePass(dev gpu.Device, quad *mesh.Mesh, source *gpu.Target) (*CompositePass, error) {
	prog, err := graphics.NewProgram(dev, PassComposite, assets.QuadVert, assets.QuadFrag)
	if err != nil {
		return nil, fmt.Errorf("composite pass: %w", err)
	}
	return &CompositePass{name: PassComposite, dev: dev, prog: prog, quad: quad, source: source}, nil
}

// NewDepthDebugPass shows source's depth texture. near and far describe the
// projection the depth was rendered with.
func NewDepthDebugPass(dev gpu.Device, quad *mesh.Mesh, source *gpu.Target, near, far float32) (*CompositePass, error) {
	prog, err := graphics.NewProgram(dev, PassDepthDebug, assets.QuadVert, assets.DepthDebugFrag)
	if err != nil {
		return nil, fmt.Errorf("depth debug pass: %w", err)
	}
	return &CompositePass{name: PassDepthDebug, dev: dev, prog: prog, quad: quad, source: source, near: near, far: far}, nil
}

func (p *CompositePass) Name() string { return p.name }

func (p *CompositePass) Prepare(s *scene.Scene, ctx *Context) error {
	p.prog.Use()
	if p.name == PassDepthDebug {
		p.prog.SetInt("depthMap", 0)
		p.prog.SetFloat("nearPlane", p.near)
		p.prog.SetFloat("farPlane", p.far)
		// the light projection is orthographic, so stored depth is linear
		p.prog.SetBool("orthographic", true)
	} else {
		p.prog.SetInt("screenTexture", 0)
	}
	p.mark(s)
	return nil
}

// Render leaves the default framebuffer bound with depth testing off.
func (p *CompositePass) Render(s *scene.Scene, ctx *Context) error {
	if p.stale(s) {
		if err := p.Prepare(s, ctx); err != nil {
			return err
		}
	}
	p.dev.BindTarget(gpu.Target{})
	p.dev.SetViewport(ctx.Screen)
	p.dev.SetDepthTest(false)
	p.dev.SetClearColor(1, 1, 1, 1)
	p.dev.Clear(gpu.ClearColor)

	p.prog.Use()
	p.dev.BindTexture(0, p.source.Texture)
	p.quad.Draw(p.dev)
	return nil
}

func (p *CompositePass) Dispose() {
	p.prog.Delete()
}
