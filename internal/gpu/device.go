// Package gpu describes the slice of the graphics device the renderer drives.
//
// Passes never call OpenGL directly; they go through Device so that every
// resource they create is accounted for and every bit of global state they
// touch can be checked between passes.
package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle is a device object name. Zero means "none" (or the default
// framebuffer when used as a framebuffer handle).
type Handle uint32

var (
	ErrIncompleteTarget = errors.New("gpu: framebuffer incomplete")
	ErrEmptyMesh        = errors.New("gpu: mesh has no vertices")
	ErrBadLayout        = errors.New("gpu: vertex layout does not divide vertex data")
)

// CompileError reports a shader stage that failed to compile or a program
// that failed to link. Log is the driver's info log.
type CompileError struct {
	Stage string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s failed: %s", e.Stage, e.Log)
}

// TargetKind distinguishes the two off-screen target layouts.
type TargetKind int

const (
	// ColorTarget is a colour texture plus a depth renderbuffer.
	ColorTarget TargetKind = iota
	// DepthTarget is a single depth texture with no colour attachment.
	DepthTarget
)

func (k TargetKind) String() string {
	switch k {
	case ColorTarget:
		return "color"
	case DepthTarget:
		return "depth"
	}
	return fmt.Sprintf("TargetKind(%d)", int(k))
}

// Target is an off-screen framebuffer and its attachments.
type Target struct {
	Kind    TargetKind
	FBO     Handle
	Texture Handle // colour texture (ColorTarget) or depth texture (DepthTarget)
	Depth   Handle // depth renderbuffer, ColorTarget only
	Width   int32
	Height  int32
}

// Valid reports whether the target still owns a framebuffer.
func (t Target) Valid() bool { return t.FBO != 0 }

// Viewport returns the full-size viewport for the target.
func (t Target) Viewport() Viewport { return Viewport{W: t.Width, H: t.Height} }

// ClearMask selects buffers for Clear.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
)

// PolygonMode is the rasterisation mode for front and back faces.
type PolygonMode int

const (
	Fill PolygonMode = iota
	Line
)

type Viewport struct {
	X, Y, W, H int32
}

// Attribute is one float vertex attribute in an interleaved buffer.
type Attribute struct {
	Location uint32
	Size     int32 // component count
}

// MeshData is CPU-side interleaved vertex data plus optional indices.
type MeshData struct {
	Vertices []float32
	Indices  []uint32
	Layout   []Attribute
}

// Stride returns the number of floats per vertex.
func (d MeshData) Stride() int32 {
	var n int32
	for _, a := range d.Layout {
		n += a.Size
	}
	return n
}

// VertexCount returns the number of vertices in Vertices.
func (d MeshData) VertexCount() int32 {
	s := d.Stride()
	if s == 0 {
		return 0
	}
	return int32(len(d.Vertices)) / s
}

// Validate checks the data can be uploaded as described.
func (d MeshData) Validate() error {
	if len(d.Vertices) == 0 {
		return ErrEmptyMesh
	}
	s := d.Stride()
	if s == 0 || int32(len(d.Vertices))%s != 0 {
		return ErrBadLayout
	}
	return nil
}

// MeshBuffers are the device objects backing an uploaded mesh.
type MeshBuffers struct {
	VAO     Handle
	VBO     Handle
	EBO     Handle // zero for non-indexed meshes
	Count   int32  // index count when EBO != 0, vertex count otherwise
	Indexed bool
}

// State is the device-global state every pass must leave in a known condition.
type State struct {
	Framebuffer Handle
	Viewport    Viewport
	DepthTest   bool
	ActiveUnit  int
	Polygon     PolygonMode
}

// Baseline is the state the orchestrator restores after every pass.
func Baseline(v Viewport) State {
	return State{
		Framebuffer: 0,
		Viewport:    v,
		DepthTest:   true,
		ActiveUnit:  0,
		Polygon:     Fill,
	}
}

// Device is the graphics device as seen by the renderer.
type Device interface {
	NewColorTarget(width, height int32) (Target, error)
	NewDepthTarget(width, height int32) (Target, error)
	DeleteTarget(t *Target)
	// BindTarget binds t for drawing; the zero Target is the visible framebuffer.
	BindTarget(t Target)

	SetViewport(v Viewport)
	SetClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	SetCulling(enabled bool)
	SetMultisample(enabled bool)
	SetPolygonMode(m PolygonMode)

	NewTexture(img *image.RGBA) (Handle, error)
	DeleteTexture(h Handle)
	// BindTexture activates unit and binds h to it. The active unit stays at unit.
	BindTexture(unit int, h Handle)
	ActiveTexture(unit int)

	NewProgram(vertexSrc, fragmentSrc string) (Handle, error)
	UseProgram(h Handle)
	DeleteProgram(h Handle)
	UniformLocation(program Handle, name string) int32
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec3(loc int32, v mgl32.Vec3)
	SetUniformMat4(loc int32, m mgl32.Mat4)

	NewMesh(data MeshData) (MeshBuffers, error)
	DrawMesh(m MeshBuffers)
	DeleteMesh(m *MeshBuffers)

	// ReadPixels reads RGBA8 pixels from the bound framebuffer. Row 0 of the
	// result is the bottom row, as the device stores it.
	ReadPixels(x, y, w, h int32) (*image.RGBA, error)

	State() State
}
