// Package debug provides debug visualization utilities.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/fractal-terrain/pkg/heightfield"
)

// ErrUnknownFormat is returned for image formats other than png and bmp.
var ErrUnknownFormat = errors.New("unknown preview format")

// Preview renders top-down images of a terrain grid.
type Preview struct {
	Width  int
	Height int
	Format string // "png" or "bmp"
}

// NewPreview creates a preview renderer producing width x height images.
func NewPreview(width, height int, format string) *Preview {
	return &Preview{Width: width, Height: height, Format: format}
}

// ColorImage lays out per-vertex RGBA colors (4 floats per vertex, row-major
// over a (div+1)² grid) as one pixel per vertex. Row 0 ends up at the bottom
// so +Y points up in the image.
func ColorImage(colors []float32, div int) (*image.RGBA, error) {
	side := div + 1
	if div <= 0 || len(colors) != 4*side*side {
		return nil, fmt.Errorf("color data size mismatch: expected %d, got %d", 4*side*side, len(colors))
	}

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side; i++ {
		y := side - 1 - i // Flip Y
		for j := 0; j < side; j++ {
			p := 4 * (i*side + j)
			img.SetRGBA(j, y, color.RGBA{
				R: unitToByte(colors[p]),
				G: unitToByte(colors[p+1]),
				B: unitToByte(colors[p+2]),
				A: unitToByte(colors[p+3]),
			})
		}
	}
	return img, nil
}

// HeightImage maps elevations linearly onto gray levels, lowest black and
// highest white. A flat field renders mid-gray.
func HeightImage(h *heightfield.HeightField) *image.Gray16 {
	side := h.Side()
	lo, hi := h.Range()
	img := image.NewGray16(image.Rect(0, 0, side, side))

	for i := 0; i < side; i++ {
		y := side - 1 - i
		for j := 0; j < side; j++ {
			v, _ := h.At(i, j)
			level := uint16(0x8000)
			if hi > lo {
				level = uint16((v - lo) / (hi - lo) * 0xffff)
			}
			img.SetGray16(j, y, color.Gray16{Y: level})
		}
	}
	return img
}

// Scale resizes src to the preview dimensions with nearest-neighbour sampling
// so band edges stay sharp.
func (p *Preview) Scale(src image.Image) image.Image {
	if p.Width <= 0 || p.Height <= 0 || src.Bounds().Dx() == p.Width && src.Bounds().Dy() == p.Height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Encode scales img and writes it in the preview format.
func (p *Preview) Encode(w io.Writer, img image.Image) error {
	scaled := p.Scale(img)
	switch strings.ToLower(p.Format) {
	case "", "png":
		if err := png.Encode(w, scaled); err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(w, scaled); err != nil {
			return fmt.Errorf("encoding BMP: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, p.Format)
	}
	return nil
}

// Save writes img to path, creating parent directories. The format is taken
// from the file extension when it names a known one.
func (p *Preview) Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	out := *p
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".bmp":
		out.Format = ext[1:]
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := out.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// ContentType returns the MIME type of the preview format.
func (p *Preview) ContentType() string {
	if strings.EqualFold(p.Format, "bmp") {
		return "image/bmp"
	}
	return "image/png"
}

func unitToByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
