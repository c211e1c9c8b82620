package render

import (
	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Context is the per-frame state passes read from and the depth pass writes
// to. The orchestrator owns one and hands it to every pass by pointer.
type Context struct {
	View        mgl32.Mat4
	Proj        mgl32.Mat4
	CameraPos   mgl32.Vec3
	CameraFront mgl32.Vec3

	// Screen is the visible framebuffer's viewport.
	Screen gpu.Viewport

	lightView  mgl32.Mat4
	lightProj  mgl32.Mat4
	lightSpace mgl32.Mat4
	spaceValid bool
	spaceCount int
}

// SetCamera overwrites the camera-facing state.
func (c *Context) SetCamera(view, proj mgl32.Mat4, pos, front mgl32.Vec3) {
	c.View = view
	c.Proj = proj
	c.CameraPos = pos
	c.CameraFront = front
}

// SetLightView stores the light's view and invalidates LightSpace.
func (c *Context) SetLightView(m mgl32.Mat4) {
	c.lightView = m
	c.spaceValid = false
}

// SetLightProj stores the light's projection and invalidates LightSpace.
func (c *Context) SetLightProj(m mgl32.Mat4) {
	c.lightProj = m
	c.spaceValid = false
}

// LightView returns the last view set with SetLightView.
func (c *Context) LightView() mgl32.Mat4 { return c.lightView }

// LightProj returns the last projection set with SetLightProj.
func (c *Context) LightProj() mgl32.Mat4 { return c.lightProj }

// LightSpace returns proj x view, computed on first use after either was set.
func (c *Context) LightSpace() mgl32.Mat4 {
	if !c.spaceValid {
		c.lightSpace = c.lightProj.Mul4(c.lightView)
		c.spaceValid = true
		c.spaceCount++
	}
	return c.lightSpace
}

// LightSpaceComputations counts how often LightSpace recomputed.
func (c *Context) LightSpaceComputations() int { return c.spaceCount }
