package screenshot

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/gpu/gputest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestCaptureFormats(t *testing.T) {
	decoders := map[string]func(f *os.File) (image.Image, error){
		"png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"tiff": func(f *os.File) (image.Image, error) { return tiff.Decode(f) },
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			dev := gputest.New(gpu.Viewport{W: 8, H: 4})
			dev.Fill = color.RGBA{R: 200, G: 10, B: 30, A: 0}
			w := NewWriter(filepath.Join(t.TempDir(), "shots"), format)
			w.Now = func() time.Time { return stamp }

			path, err := w.Capture(dev, 8, 4)
			require.NoError(t, err)
			name := filepath.Base(path)
			assert.Regexp(t, regexp.MustCompile(`^screenshot_2024-03-09_14-05-07_[0-9a-f-]{36}\.`+format+`$`), name)

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			img, err := decode(f)
			require.NoError(t, err)
			assert.Equal(t, 8, img.Bounds().Dx())
			assert.Equal(t, 4, img.Bounds().Dy())
			r, g, b, a := img.At(3, 2).RGBA()
			assert.Equal(t, []uint32{200, 10, 30, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
		})
	}
}

func TestCaptureNamesAreUnique(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 2, H: 2})
	w := NewWriter(t.TempDir(), "png")
	w.Now = func() time.Time { return stamp }
	a, err := w.Capture(dev, 2, 2)
	require.NoError(t, err)
	b, err := w.Capture(dev, 2, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCaptureErrors(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 2, H: 2})
	dir := t.TempDir()

	_, err := NewWriter(dir, "gif").Capture(dev, 2, 2)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	dev.FailReads = true
	_, err = NewWriter(dir, "png").Capture(dev, 2, 2)
	assert.ErrorIs(t, err, gputest.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCaptureReadsVisibleFramebuffer(t *testing.T) {
	dev := gputest.New(gpu.Viewport{W: 2, H: 2})
	target, err := dev.NewColorTarget(2, 2)
	require.NoError(t, err)
	dev.BindTarget(target)

	_, err = NewWriter(t.TempDir(), "").Capture(dev, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, gpu.Handle(0), dev.State().Framebuffer)
}

func TestExt(t *testing.T) {
	for in, want := range map[string]string{"": "png", "PNG": "png", "bmp": "bmp", "tif": "tiff", "tiff": "tiff"} {
		got, err := (&Writer{Format: in}).Ext()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
