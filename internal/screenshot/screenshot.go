// Package screenshot saves the visible framebuffer to disk.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shadow-demo/internal/gpu"
	"shadow-demo/internal/graphics"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnknownFormat = errors.New("screenshot: unknown format")

const timeLayout = "2006-01-02_15-04-05"

// Writer captures frames into Dir as Format (png, bmp or tiff).
type Writer struct {
	Dir    string
	Format string

	// Now stamps file names. Defaults to time.Now.
	Now func() time.Time
}

func NewWriter(dir, format string) *Writer {
	return &Writer{Dir: dir, Format: format}
}

// Ext returns the file extension for the configured format.
func (w *Writer) Ext() (string, error) {
	switch f := strings.ToLower(w.Format); f {
	case "", "png":
		return "png", nil
	case "bmp":
		return "bmp", nil
	case "tif", "tiff":
		return "tiff", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, w.Format)
	}
}

// Capture reads a width x height frame from the visible framebuffer and
// writes it. It returns the path written.
func (w *Writer) Capture(dev gpu.Device, width, height int32) (string, error) {
	ext, err := w.Ext()
	if err != nil {
		return "", err
	}
	dev.BindTarget(gpu.Target{})
	img, err := dev.ReadPixels(0, 0, width, height)
	if err != nil {
		return "", fmt.Errorf("screenshot: read pixels: %w", err)
	}
	graphics.FlipVertical(img)
	opaque(img)

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	path := filepath.Join(w.Dir, w.name(ext))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	if err := Encode(f, img, ext); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return path, nil
}

func (w *Writer) name(ext string) string {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	return fmt.Sprintf("screenshot_%s_%s.%s", now().Format(timeLayout), uuid.NewString(), ext)
}

// Encode writes img to out in the format named by ext.
func Encode(out io.Writer, img image.Image, ext string) error {
	var err error
	switch ext {
	case "png":
		err = png.Encode(out, img)
	case "bmp":
		err = bmp.Encode(out, img)
	case "tiff":
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return fmt.Errorf("screenshot: encode %s: %w", ext, err)
	}
	return nil
}

// opaque forces full alpha; the default framebuffer's alpha is meaningless.
func opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
