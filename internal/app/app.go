// Package app runs the frame loop: poll, sample input, render, present.
package app

import (
	"log/slog"
	"time"

	"shadow-demo/internal/config"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/input"
	"shadow-demo/internal/logging"
	"shadow-demo/internal/profiling"
	"shadow-demo/internal/render"
	"shadow-demo/internal/scene"
)

// Surface is the window the loop draws into.
type Surface interface {
	FramebufferSize() (width, height int)
	Present()
	ShouldClose() bool
	RequestClose()
	// PollEvents delivers pending input to the callbacks installed on the
	// surface.
	PollEvents()
	CursorPos() (x, y float64)
	// Time is seconds since the surface was created.
	Time() float64
}

// Capturer saves the visible framebuffer.
type Capturer interface {
	Capture(dev gpu.Device, width, height int32) (string, error)
}

// SlowFrame is the frame time above which the loop logs its top tasks.
const SlowFrame = 16 * time.Millisecond

type Options struct {
	Surface     Surface
	Device      gpu.Device
	Renderer    *render.Renderer
	Scene       *scene.Scene
	Camera      *graphics.Camera
	Input       *input.InputManager
	Screenshots Capturer
	Log         *slog.Logger
}

type App struct {
	surface  Surface
	dev      gpu.Device
	renderer *render.Renderer
	scene    *scene.Scene
	camera   *graphics.Camera
	input    *input.InputManager
	shots    Capturer
	log      *slog.Logger

	fpsLimiter *FPSLimiter
	lastTime   float64
	frames     int
	fpsCheck   float64

	// Frames is the number of frames rendered so far.
	Frames int
}

func New(o Options) *App {
	if o.Log == nil {
		o.Log = logging.Discard()
	}
	if o.Input == nil {
		o.Input = input.NewInputManager()
	}
	now := o.Surface.Time()
	return &App{
		surface:    o.Surface,
		dev:        o.Device,
		renderer:   o.Renderer,
		scene:      o.Scene,
		camera:     o.Camera,
		input:      o.Input,
		shots:      o.Screenshots,
		log:        o.Log,
		fpsLimiter: NewFPSLimiter(),
		lastTime:   now,
		fpsCheck:   now,
	}
}

// Run ticks until the surface asks to close.
func (a *App) Run() {
	for !a.surface.ShouldClose() {
		a.Tick()
	}
	a.log.Info("loop finished", "frames", a.Frames)
}

// Tick runs one iteration of the loop and returns what the renderer did.
func (a *App) Tick() render.FrameReport {
	profiling.ResetFrame()
	startTick := time.Now()
	now := a.surface.Time()
	dt := float32(now - a.lastTime)
	a.lastTime = now

	func() {
		defer profiling.Track("surface.PollEvents")()
		a.surface.PollEvents()
	}()

	shoot := a.handleInput(dt)
	a.resize()

	rep, err := a.renderer.Frame(a.scene, a.camera)
	if err != nil {
		logging.Err(a.log, err, "frame failed")
	}
	if shoot {
		a.screenshot()
	}

	func() {
		defer profiling.Track("surface.Present")()
		a.surface.Present()
	}()
	a.Frames++

	if d := time.Since(startTick); d > SlowFrame {
		a.log.Warn("slow frame", "duration", d, "top", profiling.TopN(5))
	}

	a.frames++
	if now-a.fpsCheck >= 1 {
		a.log.Debug("fps", "fps", float64(a.frames)/(now-a.fpsCheck), "mode", rep.Mode)
		a.frames = 0
		a.fpsCheck = now
	}

	a.input.PostUpdate()
	a.fpsLimiter.Wait()
	return rep
}

// handleInput applies held and edge-triggered actions. It reports whether a
// screenshot was requested this frame.
func (a *App) handleInput(dt float32) bool {
	im := a.input
	moves := []struct {
		action input.Action
		dir    graphics.Direction
	}{
		{input.ActionMoveForward, graphics.Forward},
		{input.ActionMoveBackward, graphics.Backward},
		{input.ActionMoveLeft, graphics.Left},
		{input.ActionMoveRight, graphics.Right},
		{input.ActionMoveUp, graphics.Up},
		{input.ActionMoveDown, graphics.Down},
	}
	for _, m := range moves {
		if im.IsActive(m.action) {
			a.camera.Move(m.dir, dt)
		}
	}
	a.camera.Look(a.surface.CursorPos())
	if s := im.Scroll(); s != 0 {
		a.camera.Zoom(float32(s))
	}

	for i, act := range input.ModeActions {
		if im.JustPressed(act) {
			a.renderer.Modes().Request(render.Modes[i])
		}
	}

	config.SetWireframe(im.IsActive(input.ActionWireframe))
	a.renderer.SetWireframe(config.GetWireframe())

	if im.JustReleased(input.ActionQuit) {
		a.surface.RequestClose()
	}
	return im.JustReleased(input.ActionScreenshot)
}

func (a *App) resize() {
	w, h := a.surface.FramebufferSize()
	if err := a.renderer.Resize(int32(w), int32(h)); err != nil {
		logging.Err(a.log, err, "resize failed", "width", w, "height", h)
	}
}

func (a *App) screenshot() {
	if a.shots == nil {
		return
	}
	screen := a.renderer.Context().Screen
	path, err := a.shots.Capture(a.dev, screen.W, screen.H)
	if err != nil {
		logging.Err(a.log, err, "screenshot failed")
		return
	}
	a.log.Info("screenshot saved", "path", path)
}
