// Package gputest provides a recording gpu.Device for tests.
//
// Device keeps the global state a real driver would keep, counts every live
// object it hands out and snapshots uniforms and bindings at each draw call.
package gputest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"

	"shadow-demo/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind groups live handles for leak accounting.
type Kind string

const (
	KindFramebuffer  Kind = "framebuffer"
	KindTexture      Kind = "texture"
	KindRenderbuffer Kind = "renderbuffer"
	KindProgram      Kind = "program"
	KindVertexArray  Kind = "vertex-array"
	KindBuffer       Kind = "buffer"
)

var ErrInjected = errors.New("gputest: injected failure")

// Draw is a snapshot taken at DrawMesh.
type Draw struct {
	Program     gpu.Handle
	ProgramName string
	Mesh        gpu.MeshBuffers
	State       gpu.State
	Textures    map[int]gpu.Handle
	Ints        map[string]int32
	Floats      map[string]float32
	Vec3s       map[string]mgl32.Vec3
	Mat4s       map[string]mgl32.Mat4
}

type program struct {
	name   string
	names  []string // location -> uniform name
	ints   map[string]int32
	floats map[string]float32
	vec3s  map[string]mgl32.Vec3
	mat4s  map[string]mgl32.Mat4
}

// Device is a recording, resource-tracking fake.
type Device struct {
	// FailPrograms makes NewProgram fail with a link error.
	FailPrograms bool
	// FailTargets makes NewColorTarget and NewDepthTarget fail.
	FailTargets bool
	// FailReads makes ReadPixels fail.
	FailReads bool
	// Fill is the colour ReadPixels returns.
	Fill color.RGBA

	next       gpu.Handle
	live       map[gpu.Handle]Kind
	state      gpu.State
	bound      map[int]gpu.Handle
	programs   map[gpu.Handle]*program
	current    gpu.Handle
	clearColor [4]float32
	culling    bool
	msaa       bool

	Draws  []Draw
	Clears []ClearEvent
	Log    []string
}

// ClearEvent records which buffers were cleared on which framebuffer.
type ClearEvent struct {
	Framebuffer gpu.Handle
	Mask        gpu.ClearMask
	Color       [4]float32
}

var _ gpu.Device = (*Device)(nil)

// New returns a device in the state a fresh GL context starts in, with the
// given viewport.
func New(v gpu.Viewport) *Device {
	return &Device{
		live:     make(map[gpu.Handle]Kind),
		bound:    make(map[int]gpu.Handle),
		programs: make(map[gpu.Handle]*program),
		state:    gpu.State{Viewport: v},
		Fill:     color.RGBA{A: 255},
	}
}

func (d *Device) alloc(k Kind) gpu.Handle {
	d.next++
	d.live[d.next] = k
	return d.next
}

func (d *Device) free(h gpu.Handle, k Kind) {
	if h == 0 {
		return
	}
	if got, ok := d.live[h]; !ok || got != k {
		d.Log = append(d.Log, fmt.Sprintf("bad delete %s %d", k, h))
		return
	}
	delete(d.live, h)
}

// Live returns the number of live handles of each kind.
func (d *Device) Live() map[Kind]int {
	out := make(map[Kind]int)
	for _, k := range d.live {
		out[k]++
	}
	return out
}

// LiveCount returns the total number of live handles.
func (d *Device) LiveCount() int { return len(d.live) }

// LiveKinds lists kinds that still have live handles, sorted.
func (d *Device) LiveKinds() []string {
	var out []string
	for k, n := range d.Live() {
		out = append(out, fmt.Sprintf("%s=%d", k, n))
	}
	sort.Strings(out)
	return out
}

// BadDeletes returns log lines for deletes of unknown or mismatched handles.
func (d *Device) BadDeletes() []string {
	var out []string
	for _, l := range d.Log {
		if len(l) > 10 && l[:10] == "bad delete" {
			out = append(out, l)
		}
	}
	return out
}

// SetProgramName attaches a name to a program handle for draw snapshots.
func (d *Device) SetProgramName(h gpu.Handle, name string) {
	if p, ok := d.programs[h]; ok {
		p.name = name
	}
}

// DrawsWith returns the draws issued with the named program.
func (d *Device) DrawsWith(name string) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.ProgramName == name {
			out = append(out, dr)
		}
	}
	return out
}

// Reset clears recorded draws, clears and log lines but keeps resources.
func (d *Device) Reset() {
	d.Draws = nil
	d.Clears = nil
	d.Log = nil
}

func (d *Device) Culling() bool     { return d.culling }
func (d *Device) Multisample() bool { return d.msaa }

func (d *Device) NewColorTarget(width, height int32) (gpu.Target, error) {
	if d.FailTargets {
		return gpu.Target{}, fmt.Errorf("%w: %w", gpu.ErrIncompleteTarget, ErrInjected)
	}
	return gpu.Target{
		Kind:    gpu.ColorTarget,
		FBO:     d.alloc(KindFramebuffer),
		Texture: d.alloc(KindTexture),
		Depth:   d.alloc(KindRenderbuffer),
		Width:   width,
		Height:  height,
	}, nil
}

func (d *Device) NewDepthTarget(width, height int32) (gpu.Target, error) {
	if d.FailTargets {
		return gpu.Target{}, fmt.Errorf("%w: %w", gpu.ErrIncompleteTarget, ErrInjected)
	}
	return gpu.Target{
		Kind:    gpu.DepthTarget,
		FBO:     d.alloc(KindFramebuffer),
		Texture: d.alloc(KindTexture),
		Width:   width,
		Height:  height,
	}, nil
}

func (d *Device) DeleteTarget(t *gpu.Target) {
	d.free(t.FBO, KindFramebuffer)
	d.free(t.Texture, KindTexture)
	d.free(t.Depth, KindRenderbuffer)
	t.FBO, t.Texture, t.Depth = 0, 0, 0
}

func (d *Device) BindTarget(t gpu.Target) {
	d.state.Framebuffer = t.FBO
	d.Log = append(d.Log, fmt.Sprintf("bind framebuffer %d", t.FBO))
}

func (d *Device) SetViewport(v gpu.Viewport)        { d.state.Viewport = v }
func (d *Device) SetClearColor(r, g, b, a float32)  { d.clearColor = [4]float32{r, g, b, a} }
func (d *Device) SetDepthTest(enabled bool)         { d.state.DepthTest = enabled }
func (d *Device) SetCulling(enabled bool)           { d.culling = enabled }
func (d *Device) SetMultisample(enabled bool)       { d.msaa = enabled }
func (d *Device) SetPolygonMode(m gpu.PolygonMode)  { d.state.Polygon = m }
func (d *Device) ActiveTexture(unit int)            { d.state.ActiveUnit = unit }
func (d *Device) State() gpu.State                  { return d.state }
func (d *Device) ClearColorValue() [4]float32       { return d.clearColor }
func (d *Device) BoundTexture(unit int) gpu.Handle  { return d.bound[unit] }
func (d *Device) CurrentProgram() gpu.Handle        { return d.current }

func (d *Device) Clear(mask gpu.ClearMask) {
	d.Clears = append(d.Clears, ClearEvent{Framebuffer: d.state.Framebuffer, Mask: mask, Color: d.clearColor})
}

func (d *Device) NewTexture(img *image.RGBA) (gpu.Handle, error) {
	if img == nil || img.Rect.Empty() {
		return 0, fmt.Errorf("gpu: empty texture image")
	}
	return d.alloc(KindTexture), nil
}

func (d *Device) DeleteTexture(h gpu.Handle) { d.free(h, KindTexture) }

func (d *Device) BindTexture(unit int, h gpu.Handle) {
	d.state.ActiveUnit = unit
	d.bound[unit] = h
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	if d.FailPrograms {
		return 0, &gpu.CompileError{Stage: "link", Log: ErrInjected.Error()}
	}
	if vertexSrc == "" || fragmentSrc == "" {
		return 0, &gpu.CompileError{Stage: "vertex shader", Log: "empty source"}
	}
	h := d.alloc(KindProgram)
	d.programs[h] = &program{
		ints:   make(map[string]int32),
		floats: make(map[string]float32),
		vec3s:  make(map[string]mgl32.Vec3),
		mat4s:  make(map[string]mgl32.Mat4),
	}
	return h, nil
}

func (d *Device) UseProgram(h gpu.Handle) { d.current = h }

func (d *Device) DeleteProgram(h gpu.Handle) {
	d.free(h, KindProgram)
	delete(d.programs, h)
	if d.current == h {
		d.current = 0
	}
}

func (d *Device) UniformLocation(h gpu.Handle, name string) int32 {
	p, ok := d.programs[h]
	if !ok {
		return -1
	}
	for i, n := range p.names {
		if n == name {
			return int32(i)
		}
	}
	p.names = append(p.names, name)
	return int32(len(p.names) - 1)
}

func (d *Device) uniform(loc int32) (*program, string, bool) {
	p, ok := d.programs[d.current]
	if !ok || loc < 0 || int(loc) >= len(p.names) {
		return nil, "", false
	}
	return p, p.names[loc], true
}

func (d *Device) SetUniformInt(loc int32, v int32) {
	if p, n, ok := d.uniform(loc); ok {
		p.ints[n] = v
	}
}

func (d *Device) SetUniformFloat(loc int32, v float32) {
	if p, n, ok := d.uniform(loc); ok {
		p.floats[n] = v
	}
}

func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) {
	if p, n, ok := d.uniform(loc); ok {
		p.vec3s[n] = v
	}
}

func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) {
	if p, n, ok := d.uniform(loc); ok {
		p.mat4s[n] = m
	}
}

// Uniforms returns the current uniform values of a program.
func (d *Device) Uniforms(h gpu.Handle) (ints map[string]int32, vec3s map[string]mgl32.Vec3, mat4s map[string]mgl32.Mat4) {
	p, ok := d.programs[h]
	if !ok {
		return nil, nil, nil
	}
	return copyMap(p.ints), copyMap(p.vec3s), copyMap(p.mat4s)
}

func (d *Device) NewMesh(data gpu.MeshData) (gpu.MeshBuffers, error) {
	if err := data.Validate(); err != nil {
		return gpu.MeshBuffers{}, err
	}
	m := gpu.MeshBuffers{
		VAO:   d.alloc(KindVertexArray),
		VBO:   d.alloc(KindBuffer),
		Count: data.VertexCount(),
	}
	if len(data.Indices) > 0 {
		m.EBO = d.alloc(KindBuffer)
		m.Count = int32(len(data.Indices))
		m.Indexed = true
	}
	return m, nil
}

func (d *Device) DrawMesh(m gpu.MeshBuffers) {
	if _, ok := d.live[m.VAO]; !ok {
		d.Log = append(d.Log, fmt.Sprintf("draw with dead vertex array %d", m.VAO))
	}
	dr := Draw{
		Program:  d.current,
		Mesh:     m,
		State:    d.state,
		Textures: copyMap(d.bound),
	}
	if p, ok := d.programs[d.current]; ok {
		dr.ProgramName = p.name
		dr.Ints = copyMap(p.ints)
		dr.Floats = copyMap(p.floats)
		dr.Vec3s = copyMap(p.vec3s)
		dr.Mat4s = copyMap(p.mat4s)
	}
	d.Draws = append(d.Draws, dr)
}

func (d *Device) DeleteMesh(m *gpu.MeshBuffers) {
	d.free(m.EBO, KindBuffer)
	d.free(m.VBO, KindBuffer)
	d.free(m.VAO, KindVertexArray)
	m.VAO, m.VBO, m.EBO = 0, 0, 0
}

func (d *Device) ReadPixels(x, y, w, h int32) (*image.RGBA, error) {
	if d.FailReads {
		return nil, ErrInjected
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gpu: invalid read size %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for py := 0; py < int(h); py++ {
		for px := 0; px < int(w); px++ {
			img.SetRGBA(px, py, d.Fill)
		}
	}
	return img, nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
