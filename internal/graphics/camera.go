package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction is a camera movement direction.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

const (
	MinFOV   = 1
	MaxFOV   = 45
	MaxPitch = 89
)

// Camera is a yaw/pitch fly camera
type Camera struct {
	Position    mgl32.Vec3
	WorldUp     mgl32.Vec3
	Yaw         float32
	Pitch       float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
	Speed       float32
	Sensitivity float32

	front, right, up mgl32.Vec3

	firstMouse   bool
	lastX, lastY float64
}

func NewCamera(pos mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position:    pos,
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Yaw:         yaw,
		Pitch:       clamp(pitch, -MaxPitch, MaxPitch),
		FOV:         MaxFOV,
		NearPlane:   0.1,
		FarPlane:    100,
		Speed:       2.5,
		Sensitivity: 0.1,
		firstMouse:  true,
	}
	c.updateVectors()
	return c
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), c.up)
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.NearPlane, c.FarPlane)
}

func (c *Camera) Eye() mgl32.Vec3   { return c.Position }
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Move translates the camera by Speed*dt along dir.
func (c *Camera) Move(dir Direction, dt float32) {
	v := c.Speed * dt
	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.front.Mul(v))
	case Backward:
		c.Position = c.Position.Sub(c.front.Mul(v))
	case Left:
		c.Position = c.Position.Sub(c.right.Mul(v))
	case Right:
		c.Position = c.Position.Add(c.right.Mul(v))
	case Up:
		c.Position = c.Position.Add(c.WorldUp.Mul(v))
	case Down:
		c.Position = c.Position.Sub(c.WorldUp.Mul(v))
	}
}

// Look applies an absolute cursor position. The first sample after creation
// or ResetMouse only records the position.
func (c *Camera) Look(x, y float64) {
	if c.firstMouse {
		c.lastX, c.lastY = x, y
		c.firstMouse = false
		return
	}
	dx := float32(x-c.lastX) * c.Sensitivity
	dy := float32(c.lastY-y) * c.Sensitivity
	c.lastX, c.lastY = x, y

	c.Yaw += dx
	c.Pitch = clamp(c.Pitch+dy, -MaxPitch, MaxPitch)
	c.updateVectors()
}

// ResetMouse makes the next Look sample a fresh reference point.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// Zoom narrows the field of view for positive offsets.
func (c *Camera) Zoom(yoff float32) {
	c.FOV = clamp(c.FOV-yoff, MinFOV, MaxFOV)
}

func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	c.front = mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
	c.right = c.front.Cross(c.WorldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

func clamp(v, lo, hi float32) float32 {
	return float32(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}
