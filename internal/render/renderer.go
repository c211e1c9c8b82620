package render

import (
	"errors"
	"fmt"
	"log/slog"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/mesh"
	"shadow-demo/internal/profiling"
	"shadow-demo/internal/scene"
	"shadow-demo/internal/shading"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoScene = errors.New("render: no scene")

// Viewer supplies the camera for a frame.
type Viewer interface {
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix(aspect float32) mgl32.Mat4
	Eye() mgl32.Vec3
	Front() mgl32.Vec3
}

// Options configures the off-screen targets and the light frustum.
type Options struct {
	ShadowMapSize int32
	LightOrtho    float32 // half extent of the orthographic light box
	LightNear     float32
	LightFar      float32
	SlopeBias     float32
	MinBias       float32
	ClearColor    [4]float32
	InitialMode   Mode
}

func DefaultOptions() Options {
	return Options{
		ShadowMapSize: 1024,
		LightOrtho:    10,
		LightNear:     1,
		LightFar:      20,
		SlopeBias:     shading.DefaultSlopeBias,
		MinBias:       shading.DefaultMinBias,
		ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
		InitialMode:   Normal{},
	}
}

// FrameReport says what one Frame did.
type FrameReport struct {
	Mode   Mode
	Passes []string
}

// Sequence is the static pass list for m.
func Sequence(m Mode) []string {
	switch m.(type) {
	case Normal:
		return []string{PassPhong, PassComposite}
	case FromLightPOV:
		return []string{PassPhong, PassComposite}
	case DepthMap:
		return []string{PassDepth, PassDepthDebug}
	case WithShadows:
		return []string{PassDepth, PassPhongShadowed, PassComposite}
	}
	panic(fmt.Sprintf("render: unhandled mode %v", m))
}

// Renderer runs the pass sequence of the current mode each frame and puts
// the device back in its baseline state after every pass.
type Renderer struct {
	dev  gpu.Device
	log  *slog.Logger
	opts Options

	shadow gpu.Target
	color  gpu.Target
	quad   *mesh.Mesh

	depth      *DepthPass
	phong      *PhongPass
	shadowed   *PhongPass
	composite  *CompositePass
	depthDebug *CompositePass

	modes *ModeSwitch
	ctx   Context

	// AfterPass, when set, runs after each pass once state is restored.
	AfterPass func(name string)

	disposed bool
}

// New creates the targets, the screen quad and every pass. On failure
// everything created so far is released.
func New(dev gpu.Device, log *slog.Logger, opts Options, screen gpu.Viewport) (*Renderer, error) {
	if opts.InitialMode == nil {
		opts.InitialMode = Normal{}
	}
	r := &Renderer{
		dev:   dev,
		log:   log,
		opts:  opts,
		modes: NewModeSwitch(opts.InitialMode),
	}
	r.ctx.Screen = screen
	if err := r.init(); err != nil {
		r.Dispose()
		return nil, err
	}
	log.Debug("renderer ready",
		"shadow_map", opts.ShadowMapSize,
		"screen", fmt.Sprintf("%dx%d", screen.W, screen.H),
		"mode", opts.InitialMode)
	return r, nil
}

func (r *Renderer) init() error {
	var err error
	if r.shadow, err = r.dev.NewDepthTarget(r.opts.ShadowMapSize, r.opts.ShadowMapSize); err != nil {
		return fmt.Errorf("shadow map: %w", err)
	}
	if r.color, err = r.dev.NewColorTarget(r.ctx.Screen.W, r.ctx.Screen.H); err != nil {
		return fmt.Errorf("colour target: %w", err)
	}
	if r.quad, err = mesh.ScreenQuad(r.dev); err != nil {
		return err
	}
	if r.depth, err = NewDepthPass(r.dev, &r.shadow); err != nil {
		return err
	}
	if r.phong, err = NewPhongPass(r.dev); err != nil {
		return err
	}
	if r.shadowed, err = NewShadowedPhongPass(r.dev, &r.shadow, r.opts.SlopeBias, r.opts.MinBias); err != nil {
		return err
	}
	if r.composite, err = NewCompositePass(r.dev, r.quad, &r.color); err != nil {
		return err
	}
	if r.depthDebug, err = NewDepthDebugPass(r.dev, r.quad, &r.shadow, r.opts.LightNear, r.opts.LightFar); err != nil {
		return err
	}
	r.restore()
	return nil
}

func (r *Renderer) Modes() *ModeSwitch { return r.modes }
func (r *Renderer) Context() *Context  { return &r.ctx }

// Passes lists every pass in creation order.
func (r *Renderer) Passes() []Pass {
	var out []Pass
	for _, p := range []Pass{r.depth, r.phong, r.shadowed, r.composite, r.depthDebug} {
		if !isNilPass(p) {
			out = append(out, p)
		}
	}
	return out
}

func isNilPass(p Pass) bool {
	switch v := p.(type) {
	case *DepthPass:
		return v == nil
	case *PhongPass:
		return v == nil
	case *CompositePass:
		return v == nil
	}
	return p == nil
}

// SetWireframe toggles line rasterisation for the colour passes.
func (r *Renderer) SetWireframe(enabled bool) {
	r.phong.Wireframe = enabled
	r.shadowed.Wireframe = enabled
}

// Resize follows the visible framebuffer. The colour target is recreated at
// the new size; zero sizes (minimised windows) are ignored. On failure the
// old target and screen size are kept.
func (r *Renderer) Resize(w, h int32) error {
	if w <= 0 || h <= 0 || (w == r.ctx.Screen.W && h == r.ctx.Screen.H) {
		return nil
	}
	color, err := r.dev.NewColorTarget(w, h)
	if err != nil {
		r.restore()
		return fmt.Errorf("resize colour target: %w", err)
	}
	r.dev.DeleteTarget(&r.color)
	r.color = color
	r.ctx.Screen = gpu.Viewport{W: w, H: h}
	r.restore()
	r.log.Debug("resized", "width", w, "height", h)
	return nil
}

// Prepare uploads per-scene uniforms for every pass. Frame does the same
// lazily for passes whose scene is stale.
func (r *Renderer) Prepare(s *scene.Scene) error {
	if s == nil || s.Light == nil {
		return ErrNoScene
	}
	r.updateLight(s)
	for _, p := range r.Passes() {
		if err := p.Prepare(s, &r.ctx); err != nil {
			return fmt.Errorf("prepare %s: %w", p.Name(), err)
		}
	}
	r.restore()
	return nil
}

// Frame renders one frame of s seen through v.
func (r *Renderer) Frame(s *scene.Scene, v Viewer) (FrameReport, error) {
	if s == nil || s.Light == nil {
		return FrameReport{}, ErrNoScene
	}
	mode, changed := r.modes.Latch()
	if changed {
		r.log.Info("render mode", "mode", mode, "passes", Sequence(mode))
	}
	r.updateLight(s)

	r.dev.BindTarget(gpu.Target{})
	r.dev.SetViewport(r.ctx.Screen)
	cc := r.opts.ClearColor
	r.dev.SetClearColor(cc[0], cc[1], cc[2], cc[3])
	r.dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	rep := FrameReport{Mode: mode}
	switch mode.(type) {
	case Normal:
		r.useCamera(v)
		r.colorPass(r.phong, s, &rep)
		r.run(r.composite, s, &rep)
	case FromLightPOV:
		r.ctx.SetCamera(r.ctx.LightView(), r.ctx.LightProj(), s.Light.ShadowPosition, s.Light.Direction)
		r.colorPass(r.phong, s, &rep)
		r.run(r.composite, s, &rep)
	case DepthMap:
		r.run(r.depth, s, &rep)
		r.run(r.depthDebug, s, &rep)
	case WithShadows:
		r.run(r.depth, s, &rep)
		r.useCamera(v)
		r.colorPass(r.shadowed, s, &rep)
		r.run(r.composite, s, &rep)
	default:
		panic(fmt.Sprintf("render: unhandled mode %v", mode))
	}
	return rep, nil
}

func (r *Renderer) updateLight(s *scene.Scene) {
	view := s.Light.View()
	proj := s.Light.Projection(r.opts.LightOrtho, r.opts.LightNear, r.opts.LightFar)
	if view != r.ctx.LightView() {
		r.ctx.SetLightView(view)
	}
	if proj != r.ctx.LightProj() {
		r.ctx.SetLightProj(proj)
	}
}

func (r *Renderer) useCamera(v Viewer) {
	aspect := float32(1)
	if r.ctx.Screen.H > 0 {
		aspect = float32(r.ctx.Screen.W) / float32(r.ctx.Screen.H)
	}
	r.ctx.SetCamera(v.ViewMatrix(), v.ProjectionMatrix(aspect), v.Eye(), v.Front())
}

// colorPass binds and clears the colour target before running p.
func (r *Renderer) colorPass(p *PhongPass, s *scene.Scene, rep *FrameReport) {
	r.dev.BindTarget(r.color)
	r.dev.SetViewport(r.color.Viewport())
	r.dev.SetDepthTest(true)
	cc := r.opts.ClearColor
	r.dev.SetClearColor(cc[0], cc[1], cc[2], cc[3])
	r.dev.Clear(gpu.ClearColor | gpu.ClearDepth)
	r.run(p, s, rep)
}

func (r *Renderer) run(p Pass, s *scene.Scene, rep *FrameReport) {
	stop := profiling.Track("pass." + p.Name())
	err := p.Render(s, &r.ctx)
	stop()
	if err != nil {
		r.log.Error("pass failed", "pass", p.Name(), "err", err)
	}
	r.restore()
	rep.Passes = append(rep.Passes, p.Name())
	if r.AfterPass != nil {
		r.AfterPass(p.Name())
	}
}

// restore puts the device back in the baseline state.
func (r *Renderer) restore() {
	r.dev.BindTarget(gpu.Target{})
	r.dev.SetViewport(r.ctx.Screen)
	r.dev.SetDepthTest(true)
	r.dev.ActiveTexture(0)
	r.dev.SetPolygonMode(gpu.Fill)
}

// Dispose releases every pass, the quad and both targets in reverse
// creation order. Safe to call twice.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	passes := r.Passes()
	for i := len(passes) - 1; i >= 0; i-- {
		passes[i].Dispose()
	}
	if r.quad != nil {
		r.quad.Release(r.dev)
	}
	if r.color.Valid() {
		r.dev.DeleteTarget(&r.color)
	}
	if r.shadow.Valid() {
		r.dev.DeleteTarget(&r.shadow)
	}
}
