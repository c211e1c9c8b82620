package render

import (
	"fmt"

	"shadow-demo/internal/assets"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/scene"
)

// DepthPass renders scene depth from the light into a depth-only target.
type DepthPass struct {
	dev    gpu.Device
	prog   *graphics.Program
	target *gpu.Target
	prepared
}

func NewDepthPass(dev gpu.Device, target *gpu.Target) (*DepthPass, error) {
	prog, err := graphics.NewProgram(dev, PassDepth, assets.DepthVert, assets.DepthFrag)
	if err != nil {
		return nil, fmt.Errorf("depth pass: %w", err)
	}
	return &DepthPass{dev: dev, prog: prog, target: target}, nil
}

func (p *DepthPass) Name() string { return PassDepth }

// Prepare has nothing per-scene to upload; light matrices change per frame.
func (p *DepthPass) Prepare(s *scene.Scene, ctx *Context) error {
	p.mark(s)
	return nil
}

// Render binds the depth target and leaves it bound with depth testing on.
// The camera in ctx is replaced by the light's view and projection.
func (p *DepthPass) Render(s *scene.Scene, ctx *Context) error {
	if s == nil || s.Light == nil {
		return scene.ErrMissingLight
	}
	if p.stale(s) {
		if err := p.Prepare(s, ctx); err != nil {
			return err
		}
	}
	p.dev.BindTarget(*p.target)
	p.dev.SetViewport(p.target.Viewport())
	p.dev.SetDepthTest(true)
	p.dev.Clear(gpu.ClearDepth)

	ctx.SetCamera(ctx.LightView(), ctx.LightProj(), s.Light.ShadowPosition, s.Light.Direction)

	p.prog.Use()
	p.prog.SetMat4("lightSpace", ctx.LightSpace())
	s.Walk(func(id scene.EntityID, e *scene.Entity) {
		if !e.Drawable() {
			return
		}
		p.prog.SetMat4("model", s.Graph.Model(id))
		e.Mesh.Draw(p.dev)
	})
	return nil
}

func (p *DepthPass) Dispose() {
	p.prog.Delete()
}
