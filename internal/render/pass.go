// Package render composes the frame: an off-screen depth pass from the
// light, a Phong colour pass into an off-screen target and a screen-quad
// composite onto the visible framebuffer, chosen per Mode.
package render

import (
	"shadow-demo/internal/scene"
)

// Pass names as they appear in FrameReport and profiling.
const (
	PassDepth         = "depth"
	PassPhong         = "phong"
	PassPhongShadowed = "phong-shadowed"
	PassComposite     = "composite"
	PassDepthDebug    = "depth-debug"
)

// ShadowTextureUnit is reserved for the shadow map. Material textures use
// units 0..scene.MaxMaterialTextures-1.
const ShadowTextureUnit = scene.MaxMaterialTextures

// Pass is one step of a frame.
type Pass interface {
	Name() string
	// Prepare uploads per-scene uniforms. Render calls it again when the
	// scene, its version or its light changes.
	Prepare(s *scene.Scene, ctx *Context) error
	// Render draws the pass. An error means nothing was drawn.
	Render(s *scene.Scene, ctx *Context) error
	// Dispose releases what the pass created. Safe to call twice.
	Dispose()
}

// prepared remembers which scene version and light a pass last uploaded.
type prepared struct {
	scene   *scene.Scene
	version uint64
	light   scene.DirLight
	lit     bool
}

func (p *prepared) stale(s *scene.Scene) bool {
	if p.scene != s || p.version != s.Version() {
		return true
	}
	if s.Light == nil {
		return p.lit
	}
	return !p.lit || *s.Light != p.light
}

func (p *prepared) mark(s *scene.Scene) {
	p.scene = s
	p.version = s.Version()
	p.lit = s.Light != nil
	if p.lit {
		p.light = *s.Light
	}
}
