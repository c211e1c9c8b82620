package graphics

import (
	"fmt"
	"image"
	"sync"

	"shadow-demo/internal/gpu"
)

// TextureType is the semantic slot a material samples a texture through.
type TextureType int

const (
	TextureDiffuse TextureType = iota
	TextureSpecular
)

func (t TextureType) String() string {
	switch t {
	case TextureDiffuse:
		return "diffuse"
	case TextureSpecular:
		return "specular"
	}
	return fmt.Sprintf("TextureType(%d)", int(t))
}

// Texture is an uploaded 2D texture.
type Texture struct {
	ID     gpu.Handle
	Type   TextureType
	Path   string
	Width  int
	Height int
}

// WithType returns a copy of t tagged with typ. The device texture is shared.
func (t Texture) WithType(typ TextureType) Texture {
	t.Type = typ
	return t
}

// TextureLoader uploads textures once per path and owns them until Release.
type TextureLoader struct {
	dev   gpu.Device
	mu    sync.Mutex
	cache map[string]Texture
	order []string
	load  func(path string) (*image.RGBA, error)
}

func NewTextureLoader(dev gpu.Device) *TextureLoader {
	return &TextureLoader{
		dev:   dev,
		cache: make(map[string]Texture),
		load:  LoadImage,
	}
}

// Load returns the cached texture for path, decoding and uploading it on
// first use.
func (l *TextureLoader) Load(path string, typ TextureType) (Texture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tex, ok := l.cache[path]; ok {
		return tex.WithType(typ), nil
	}
	img, err := l.load(path)
	if err != nil {
		return Texture{}, fmt.Errorf("load texture %s: %w", path, err)
	}
	return l.upload(path, img, typ)
}

// Procedural uploads img under a synthetic key so it is cached and released
// like a file texture.
func (l *TextureLoader) Procedural(key string, img *image.RGBA, typ TextureType) (Texture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tex, ok := l.cache[key]; ok {
		return tex.WithType(typ), nil
	}
	return l.upload(key, img, typ)
}

func (l *TextureLoader) upload(key string, img *image.RGBA, typ TextureType) (Texture, error) {
	id, err := l.dev.NewTexture(img)
	if err != nil {
		return Texture{}, fmt.Errorf("upload texture %s: %w", key, err)
	}
	tex := Texture{
		ID:     id,
		Type:   typ,
		Path:   key,
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
	}
	l.cache[key] = tex
	l.order = append(l.order, key)
	return tex, nil
}

// Len returns the number of cached textures.
func (l *TextureLoader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// Release deletes every cached texture, newest first.
func (l *TextureLoader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.order) - 1; i >= 0; i-- {
		l.dev.DeleteTexture(l.cache[l.order[i]].ID)
	}
	clear(l.cache)
	l.order = nil
}
