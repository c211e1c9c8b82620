package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags are the command-line overrides. Fields left at their zero value do
// not override the file.
type Flags struct {
	ConfigPath string
	LogLevel   string
	Mode       string
	Width      int
	Height     int
	FPSLimit   int
}

// ParseFlags parses args (without the program name).
func ParseFlags(name string, args []string) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "path to a TOML config file")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.Mode, "mode", "", "initial render mode: normal, light, depth or shadows")
	fs.IntVar(&f.Width, "width", 0, "window width")
	fs.IntVar(&f.Height, "height", 0, "window height")
	fs.IntVar(&f.FPSLimit, "fps-limit", -1, "frame cap, 0 for uncapped")
	if err := fs.Parse(args); err != nil {
		return f, fmt.Errorf("parse flags: %w", err)
	}
	return f, nil
}

// Apply writes the set flags over cfg.
func (f Flags) Apply(cfg *Config) {
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.Mode != "" {
		cfg.Render.Mode = f.Mode
	}
	if f.Width > 0 {
		cfg.Window.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Window.Height = f.Height
	}
	if f.FPSLimit >= 0 {
		cfg.Render.FPSLimit = f.FPSLimit
	}
}
