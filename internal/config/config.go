package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the startup configuration. Zero values are never used directly;
// Load decodes over Default so a file only needs the keys it changes.
type Config struct {
	Window     Window     `toml:"window"`
	Render     Render     `toml:"render"`
	Camera     Camera     `toml:"camera"`
	Screenshot Screenshot `toml:"screenshot"`
	Scene      Scene      `toml:"scene"`
	Log        Log        `toml:"log"`
}

type Window struct {
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Title   string `toml:"title"`
	VSync   bool   `toml:"vsync"`
	Samples int    `toml:"samples"`
}

type Render struct {
	ShadowMapSize int        `toml:"shadow_map_size"`
	SlopeBias     float32    `toml:"slope_bias"`
	MinBias       float32    `toml:"min_bias"`
	LightOrtho    float32    `toml:"light_ortho"` // half extent of the light frustum box
	LightNear     float32    `toml:"light_near"`
	LightFar      float32    `toml:"light_far"`
	LightDistance float32    `toml:"light_distance"`
	ClearColor    [4]float32 `toml:"clear_color"`
	FPSLimit      int        `toml:"fps_limit"` // 0 disables the limiter
	Mode          string     `toml:"mode"`
}

type Camera struct {
	FOV         float32    `toml:"fov"`
	Near        float32    `toml:"near"`
	Far         float32    `toml:"far"`
	Speed       float32    `toml:"speed"`
	Sensitivity float32    `toml:"sensitivity"`
	Position    [3]float32 `toml:"position"`
	Yaw         float32    `toml:"yaw"`
	Pitch       float32    `toml:"pitch"`
}

type Screenshot struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

type Scene struct {
	ModelPath   string `toml:"model_path"`
	TexturesDir string `toml:"textures_dir"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration the demo ships with.
func Default() Config {
	return Config{
		Window: Window{
			Width:   1280,
			Height:  720,
			Title:   "shadow-demo",
			VSync:   true,
			Samples: 4,
		},
		Render: Render{
			ShadowMapSize: 1024,
			SlopeBias:     0.05,
			MinBias:       0.005,
			LightOrtho:    10,
			LightNear:     1,
			LightFar:      20,
			LightDistance: 10,
			ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
			FPSLimit:      0,
			Mode:          "normal",
		},
		Camera: Camera{
			FOV:         45,
			Near:        0.1,
			Far:         100,
			Speed:       2.5,
			Sensitivity: 0.1,
			Position:    [3]float32{0, 1, 5},
			Yaw:         -90,
			Pitch:       0,
		},
		Screenshot: Screenshot{
			Dir:    "screenshots",
			Format: "png",
		},
		Scene: Scene{
			TexturesDir: "res/textures",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a TOML file over the defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML data into cfg, leaving keys the data omits untouched.
// Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Validate checks ranges that would otherwise fail deep inside setup.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.Samples >= 0, "window.samples %d", c.Window.Samples)
	check(c.Render.ShadowMapSize > 0 && c.Render.ShadowMapSize <= 16384, "render.shadow_map_size %d", c.Render.ShadowMapSize)
	check(c.Render.SlopeBias >= 0 && c.Render.MinBias >= 0, "render bias %g/%g", c.Render.SlopeBias, c.Render.MinBias)
	check(c.Render.LightOrtho > 0, "render.light_ortho %g", c.Render.LightOrtho)
	check(c.Render.LightNear < c.Render.LightFar, "render light near %g >= far %g", c.Render.LightNear, c.Render.LightFar)
	check(c.Render.LightDistance > 0, "render.light_distance %g", c.Render.LightDistance)
	check(c.Render.FPSLimit >= 0, "render.fps_limit %d", c.Render.FPSLimit)
	check(c.Camera.FOV >= 1 && c.Camera.FOV <= 45, "camera.fov %g", c.Camera.FOV)
	check(c.Camera.Near > 0 && c.Camera.Near < c.Camera.Far, "camera near %g far %g", c.Camera.Near, c.Camera.Far)
	switch strings.ToLower(c.Screenshot.Format) {
	case "png", "bmp", "tif", "tiff":
	default:
		check(false, "screenshot.format %q", c.Screenshot.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		check(false, "log.level %q", c.Log.Level)
	}
	return errors.Join(errs...)
}
