// Package platform owns the glfw window and its GL context.
package platform

import (
	"fmt"

	"shadow-demo/internal/app"
	"shadow-demo/internal/config"
	"shadow-demo/internal/input"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is a glfw window with a current 4.1 core context. Every method
// must be called from the thread that created it.
type Window struct {
	win *glfw.Window
}

var _ app.Surface = (*Window)(nil)

// Init initialises glfw. Pair it with Terminate.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	return nil
}

func Terminate() { glfw.Terminate() }

// Open creates the window, makes its context current and installs im's
// callbacks. The cursor is captured for mouse look.
func Open(cfg config.Window, im *input.InputManager) (*Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if cfg.Samples > 0 {
		glfw.WindowHint(glfw.Samples, cfg.Samples)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		// the FPS limiter paces frames instead
		glfw.SwapInterval(0)
	}
	win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if im != nil {
		im.SetCallbacks(win)
	}
	return &Window{win: win}, nil
}

func (w *Window) FramebufferSize() (int, int) { return w.win.GetFramebufferSize() }
func (w *Window) Present()                    { w.win.SwapBuffers() }
func (w *Window) ShouldClose() bool           { return w.win.ShouldClose() }
func (w *Window) RequestClose()               { w.win.SetShouldClose(true) }
func (w *Window) PollEvents()                 { glfw.PollEvents() }
func (w *Window) CursorPos() (float64, float64) {
	return w.win.GetCursorPos()
}
func (w *Window) Time() float64 { return glfw.GetTime() }

// Destroy closes the window. The context goes with it, so GL resources must
// be released first.
func (w *Window) Destroy() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
}
