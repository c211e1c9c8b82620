package graphics

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"shadow-demo/internal/assets"
	"shadow-demo/internal/gpu"
	"shadow-demo/internal/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func newDevice() *gputest.Device {
	return gputest.New(gpu.Viewport{W: 64, H: 64})
}

func TestProgramUniformsReachDevice(t *testing.T) {
	dev := newDevice()
	p, err := NewProgram(dev, "phong", assets.PhongVert, assets.PhongFrag)
	require.NoError(t, err)

	p.Use()
	p.SetInt("material.diffuseMap", 0)
	p.SetBool("material.hasDiffuseMap", true)
	p.SetVec3("cameraPos", mgl32.Vec3{1, 2, 3})
	p.SetMat4("model", mgl32.Translate3D(1, 0, 0))
	p.SetMat4("model", mgl32.Ident4())

	ints, vec3s, mat4s := dev.Uniforms(p.ID)
	assert.Equal(t, int32(0), ints["material.diffuseMap"])
	assert.Equal(t, int32(1), ints["material.hasDiffuseMap"])
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, vec3s["cameraPos"])
	assert.Equal(t, mgl32.Ident4(), mat4s["model"])
	assert.Len(t, p.locs, 4)

	vert, frag := p.Sources()
	assert.Equal(t, assets.PhongVert, vert)
	assert.Equal(t, assets.PhongFrag, frag)

	p.Delete()
	p.Delete()
	assert.Zero(t, dev.LiveCount())
	assert.Empty(t, dev.BadDeletes())
}

func TestProgramErrorsNameTheSource(t *testing.T) {
	dev := newDevice()

	_, err := NewProgramFromSource(dev, "broken", "broken.vert", "", "ok.frag", "void main() {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.vert")
	assert.NotContains(t, err.Error(), "ok.frag")
	var ce *gpu.CompileError
	assert.True(t, errors.As(err, &ce))

	dev.FailPrograms = true
	_, err = NewProgram(dev, "depth", assets.DepthVert, assets.DepthFrag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), assets.DepthVert+"+"+assets.DepthFrag)

	_, err = NewProgram(dev, "missing", "nope.vert", assets.DepthFrag)
	assert.ErrorIs(t, err, assets.ErrUnknownSource)
	assert.Zero(t, dev.LiveCount())
}

func TestDecodeImageFlipsRows(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, red)
	src.SetRGBA(0, 1, blue)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	got, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, blue, got.RGBAAt(0, 0), "bottom row comes first")
	assert.Equal(t, red, got.RGBAAt(0, 1))

	buf.Reset()
	require.NoError(t, bmp.Encode(&buf, src))
	got, err = DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, blue, got.RGBAAt(0, 0))

	_, err = DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestTextureLoaderCachesPerPath(t *testing.T) {
	dev := newDevice()
	dir := t.TempDir()
	path := filepath.Join(dir, "box.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, Checker(8, 2, red, blue)))
	require.NoError(t, f.Close())

	l := NewTextureLoader(dev)
	diff, err := l.Load(path, TextureDiffuse)
	require.NoError(t, err)
	spec, err := l.Load(path, TextureSpecular)
	require.NoError(t, err)

	assert.Equal(t, diff.ID, spec.ID)
	assert.Equal(t, TextureDiffuse, diff.Type)
	assert.Equal(t, TextureSpecular, spec.Type)
	assert.Equal(t, 8, diff.Width)
	assert.Equal(t, 1, l.Len())

	_, err = l.Load(filepath.Join(dir, "missing.png"), TextureDiffuse)
	assert.Error(t, err)

	_, err = l.Procedural("checker", Checker(4, 2, red, blue), TextureDiffuse)
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Live()[gputest.KindTexture])

	l.Release()
	assert.Zero(t, dev.LiveCount())
	assert.Zero(t, l.Len())
}

func TestChecker(t *testing.T) {
	img := Checker(4, 2, red, blue)
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, blue, img.RGBAAt(2, 0))
	assert.Equal(t, blue, img.RGBAAt(0, 2))
	assert.Equal(t, red, img.RGBAAt(3, 3))
}

func TestCameraLookClampsPitch(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 3}, -90, 0)
	assert.InDelta(t, -1, c.Front().Z(), 1e-5)

	c.Look(100, 100)
	assert.Equal(t, float32(0), c.Pitch, "first sample only records")

	c.Look(100, -10000)
	assert.Equal(t, float32(MaxPitch), c.Pitch)
	c.Look(100, 10000)
	assert.Equal(t, float32(-MaxPitch), c.Pitch)
}

func TestCameraZoomAndMove(t *testing.T) {
	c := NewCamera(mgl32.Vec3{}, -90, 0)
	c.Zoom(100)
	assert.Equal(t, float32(MinFOV), c.FOV)
	c.Zoom(-100)
	assert.Equal(t, float32(MaxFOV), c.FOV)

	c.Speed = 2
	c.Move(Forward, 0.5)
	assert.InDelta(t, -1, c.Position.Z(), 1e-5)
	c.Move(Up, 1)
	assert.InDelta(t, 2, c.Position.Y(), 1e-5)
	c.Move(Right, 1)
	assert.InDelta(t, 2, c.Position.X(), 1e-5)
}
