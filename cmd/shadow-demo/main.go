package main

import (
	"fmt"
	"os"
	"runtime"

	"shadow-demo/internal/app"
	"shadow-demo/internal/config"
	"shadow-demo/internal/demo"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/gpu/glgpu"
	"shadow-demo/internal/graphics"
	"shadow-demo/internal/input"
	"shadow-demo/internal/logging"
	"shadow-demo/internal/platform"
	"shadow-demo/internal/render"
	"shadow-demo/internal/screenshot"

	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	// glfw and GL calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "shadow-demo:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags("shadow-demo", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return err
	}
	config.SetFPSLimit(cfg.Render.FPSLimit)

	opts, err := renderOptions(&cfg)
	if err != nil {
		return err
	}

	if err := platform.Init(); err != nil {
		return err
	}
	defer platform.Terminate()

	im := input.NewInputManager()
	win, err := platform.Open(cfg.Window, im)
	if err != nil {
		return err
	}
	defer win.Destroy()

	dev, err := glgpu.New()
	if err != nil {
		return err
	}
	version, vendor, renderer := dev.Info()
	log.Info("gl context", "version", version, "vendor", vendor, "renderer", renderer)
	dev.SetCulling(true)
	dev.SetMultisample(cfg.Window.Samples > 0)

	fbW, fbH := win.FramebufferSize()
	r, err := render.New(dev, log, opts, gpu.Viewport{W: int32(fbW), H: int32(fbH)})
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer r.Dispose()

	d, err := demo.Build(dev, &cfg, log)
	if err != nil {
		return fmt.Errorf("demo scene: %w", err)
	}
	defer d.Release(dev)
	if err := r.Prepare(d.Scene); err != nil {
		return err
	}

	a := app.New(app.Options{
		Surface:     win,
		Device:      dev,
		Renderer:    r,
		Scene:       d.Scene,
		Camera:      newCamera(cfg.Camera),
		Input:       im,
		Screenshots: screenshot.NewWriter(cfg.Screenshot.Dir, cfg.Screenshot.Format),
		Log:         log,
	})
	log.Info("running", "mode", r.Modes().Current(), "fps_limit", config.GetFPSLimit())
	a.Run()
	return nil
}

func renderOptions(cfg *config.Config) (render.Options, error) {
	mode, err := render.ParseMode(cfg.Render.Mode)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		ShadowMapSize: int32(cfg.Render.ShadowMapSize),
		LightOrtho:    cfg.Render.LightOrtho,
		LightNear:     cfg.Render.LightNear,
		LightFar:      cfg.Render.LightFar,
		SlopeBias:     cfg.Render.SlopeBias,
		MinBias:       cfg.Render.MinBias,
		ClearColor:    cfg.Render.ClearColor,
		InitialMode:   mode,
	}, nil
}

func newCamera(c config.Camera) *graphics.Camera {
	cam := graphics.NewCamera(mgl32.Vec3(c.Position), c.Yaw, c.Pitch)
	cam.FOV = c.FOV
	cam.NearPlane = c.Near
	cam.FarPlane = c.Far
	cam.Speed = c.Speed
	cam.Sensitivity = c.Sensitivity
	return cam
}
