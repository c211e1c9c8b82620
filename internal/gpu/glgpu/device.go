// Package glgpu implements gpu.Device on top of OpenGL 4.1 core.
// All methods must be called on the thread that owns the GL context.
package glgpu

import (
	"fmt"
	"image"
	"strings"

	"shadow-demo/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Device drives the current GL context.
type Device struct{}

var _ gpu.Device = (*Device)(nil)

// New initialises the GL function pointers for the current context.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init gl: %w", err)
	}
	return &Device{}, nil
}

// Info returns the GL version, vendor and renderer strings.
func (d *Device) Info() (version, vendor, renderer string) {
	return gl.GoStr(gl.GetString(gl.VERSION)),
		gl.GoStr(gl.GetString(gl.VENDOR)),
		gl.GoStr(gl.GetString(gl.RENDERER))
}

func (d *Device) NewColorTarget(width, height int32) (gpu.Target, error) {
	t := gpu.Target{Kind: gpu.ColorTarget, Width: width, Height: height}

	var fbo, tex, rbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)

	gl.GenRenderbuffers(1, &rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, width, height)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, rbo)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	t.FBO, t.Texture, t.Depth = gpu.Handle(fbo), gpu.Handle(tex), gpu.Handle(rbo)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.DeleteTarget(&t)
		return gpu.Target{}, fmt.Errorf("%w: color %dx%d status=0x%X", gpu.ErrIncompleteTarget, width, height, status)
	}
	return t, nil
}

func (d *Device) NewDepthTarget(width, height int32) (gpu.Target, error) {
	t := gpu.Target{Kind: gpu.DepthTarget, Width: width, Height: height}

	var fbo, tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, width, height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	// Outside the light frustum reads as depth 1.0, i.e. lit.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, tex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	t.FBO, t.Texture = gpu.Handle(fbo), gpu.Handle(tex)
	if status != gl.FRAMEBUFFER_COMPLETE {
		d.DeleteTarget(&t)
		return gpu.Target{}, fmt.Errorf("%w: depth %dx%d status=0x%X", gpu.ErrIncompleteTarget, width, height, status)
	}
	return t, nil
}

func (d *Device) DeleteTarget(t *gpu.Target) {
	if t.FBO != 0 {
		fbo := uint32(t.FBO)
		gl.DeleteFramebuffers(1, &fbo)
		t.FBO = 0
	}
	if t.Texture != 0 {
		tex := uint32(t.Texture)
		gl.DeleteTextures(1, &tex)
		t.Texture = 0
	}
	if t.Depth != 0 {
		rbo := uint32(t.Depth)
		gl.DeleteRenderbuffers(1, &rbo)
		t.Depth = 0
	}
}

func (d *Device) BindTarget(t gpu.Target) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(t.FBO))
}

func (d *Device) SetViewport(v gpu.Viewport) {
	gl.Viewport(v.X, v.Y, v.W, v.H)
}

func (d *Device) SetClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Device) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) SetDepthTest(enabled bool) { toggle(gl.DEPTH_TEST, enabled) }

func (d *Device) SetCulling(enabled bool) {
	toggle(gl.CULL_FACE, enabled)
	if enabled {
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	}
}

func (d *Device) SetMultisample(enabled bool) { toggle(gl.MULTISAMPLE, enabled) }

func (d *Device) SetPolygonMode(m gpu.PolygonMode) {
	if m == gpu.Line {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

func toggle(capability uint32, enabled bool) {
	if enabled {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func (d *Device) NewTexture(img *image.RGBA) (gpu.Handle, error) {
	size := img.Rect.Size()
	if size.X == 0 || size.Y == 0 {
		return 0, fmt.Errorf("gpu: empty texture image")
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(size.X),
		int32(size.Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(img.Pix),
	)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return gpu.Handle(tex), nil
}

func (d *Device) DeleteTexture(h gpu.Handle) {
	if h == 0 {
		return
	}
	tex := uint32(h)
	gl.DeleteTextures(1, &tex)
}

func (d *Device) BindTexture(unit int, h gpu.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(h))
}

func (d *Device) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, &gpu.CompileError{Stage: "link", Log: strings.TrimRight(log, "\x00")}
	}
	return gpu.Handle(program), nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		stage := "vertex shader"
		if shaderType == gl.FRAGMENT_SHADER {
			stage = "fragment shader"
		}
		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return shader, nil
}

func (d *Device) UseProgram(h gpu.Handle) { gl.UseProgram(uint32(h)) }

func (d *Device) DeleteProgram(h gpu.Handle) {
	if h != 0 {
		gl.DeleteProgram(uint32(h))
	}
}

func (d *Device) UniformLocation(program gpu.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
}

func (d *Device) SetUniformInt(loc int32, v int32)     { gl.Uniform1i(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) {
	gl.Uniform3f(loc, v[0], v[1], v[2])
}

func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *Device) NewMesh(data gpu.MeshData) (gpu.MeshBuffers, error) {
	if err := data.Validate(); err != nil {
		return gpu.MeshBuffers{}, err
	}

	var vao, vbo, ebo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	stride := data.Stride() * 4
	var offset uintptr
	for _, a := range data.Layout {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Size, gl.FLOAT, false, stride, offset)
		offset += uintptr(a.Size) * 4
	}

	m := gpu.MeshBuffers{VAO: gpu.Handle(vao), VBO: gpu.Handle(vbo), Count: data.VertexCount()}
	if len(data.Indices) > 0 {
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)
		m.EBO = gpu.Handle(ebo)
		m.Count = int32(len(data.Indices))
		m.Indexed = true
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m, nil
}

func (d *Device) DrawMesh(m gpu.MeshBuffers) {
	gl.BindVertexArray(uint32(m.VAO))
	if m.Indexed {
		gl.DrawElements(gl.TRIANGLES, m.Count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.Count)
	}
	gl.BindVertexArray(0)
}

func (d *Device) DeleteMesh(m *gpu.MeshBuffers) {
	if m.EBO != 0 {
		ebo := uint32(m.EBO)
		gl.DeleteBuffers(1, &ebo)
		m.EBO = 0
	}
	if m.VBO != 0 {
		vbo := uint32(m.VBO)
		gl.DeleteBuffers(1, &vbo)
		m.VBO = 0
	}
	if m.VAO != 0 {
		vao := uint32(m.VAO)
		gl.DeleteVertexArrays(1, &vao)
		m.VAO = 0
	}
}

func (d *Device) ReadPixels(x, y, w, h int32) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gpu: invalid read size %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("gpu: read pixels: gl error 0x%X", e)
	}
	return img, nil
}

func (d *Device) State() gpu.State {
	var fbo, unit int32
	var vp [4]int32
	var poly [2]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &fbo)
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &unit)
	gl.GetIntegerv(gl.POLYGON_MODE, &poly[0])

	mode := gpu.Fill
	if poly[0] == gl.LINE {
		mode = gpu.Line
	}
	return gpu.State{
		Framebuffer: gpu.Handle(fbo),
		Viewport:    gpu.Viewport{X: vp[0], Y: vp[1], W: vp[2], H: vp[3]},
		DepthTest:   gl.IsEnabled(gl.DEPTH_TEST),
		ActiveUnit:  int(unit - gl.TEXTURE0),
		Polygon:     mode,
	}
}
