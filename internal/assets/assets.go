// Package assets embeds the GLSL sources the passes compile at startup.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed shaders/*.vert shaders/*.frag
var shaders embed.FS

var ErrUnknownSource = errors.New("assets: unknown shader source")

// Shader source identifiers.
const (
	PhongVert       = "phong.vert"
	PhongFrag       = "phong.frag"
	PhongShadowVert = "phong_shadow.vert"
	PhongShadowFrag = "phong_shadow.frag"
	DepthVert       = "depth.vert"
	DepthFrag       = "depth.frag"
	QuadVert        = "quad.vert"
	QuadFrag        = "quad.frag"
	DepthDebugFrag  = "depth_debug.frag"
)

// Source returns the GLSL text for id.
func Source(id string) (string, error) {
	b, err := shaders.ReadFile("shaders/" + id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrUnknownSource, id)
		}
		return "", err
	}
	return string(b), nil
}

// IDs lists every embedded source identifier, sorted.
func IDs() []string {
	entries, _ := shaders.ReadDir("shaders")
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids
}
