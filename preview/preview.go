// Package preview renders decoded light maps and shadow maps as images.
package preview

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

	"github.com/achilleasa/lightbake/encoder"
	"github.com/achilleasa/lightbake/lighting"
	"github.com/chewxy/math32"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var (
	ErrEmptyImage        = errors.New("preview: image has no texels")
	ErrUnsupportedFormat = errors.New("preview: unsupported image format")
)

type Format uint32

const (
	// Shadow visibility.
	Luminance8 Format = iota

	// Tone mapped lighting with coverage in the alpha channel.
	Rgba8
)

// A preview image and its metadata.
type Texture struct {
	Format Format

	Width  uint32
	Height uint32

	Data []byte
}

// Render the simple light map coefficient of a texture mapping. Linear
// values are scaled by exposure and gamma corrected. Unmapped texels are
// fully transparent.
func FromTextureMapping(q *encoder.QuantizedTextureMapping, exposure float32) (*Texture, error) {
	tex, err := newTexture(Rgba8, q.LightMap.SizeX, q.LightMap.SizeY, len(q.Samples))
	if err != nil {
		return nil, err
	}

	for idx, sample := range q.Dequantize() {
		if !sample.Mapped {
			continue
		}
		rgb := sample.Coefficients[lighting.SimpleCoefficientIndex]
		offset := 4 * idx
		for ch := 0; ch < 3; ch++ {
			tex.Data[offset+ch] = toneMap(rgb[ch] * exposure)
		}
		tex.Data[offset+3] = 255
	}
	return tex, nil
}

// Render the visibility of a texture mapping shadow map.
func FromShadowMap(sm *encoder.QuantizedShadowMap2D) (*Texture, error) {
	tex, err := newTexture(Luminance8, sm.Header.SizeX, sm.Header.SizeY, len(sm.Samples))
	if err != nil {
		return nil, err
	}
	for idx, sample := range sm.Samples {
		tex.Data[idx] = sample.Visibility
	}
	return tex, nil
}

func newTexture(format Format, width, height uint32, numSamples int) (*Texture, error) {
	if width == 0 || height == 0 {
		return nil, ErrEmptyImage
	}
	if int(width)*int(height) != numSamples {
		return nil, fmt.Errorf("preview: expected %dx%d samples; got %d", width, height, numSamples)
	}

	bpp := 1
	if format == Rgba8 {
		bpp = 4
	}
	return &Texture{
		Format: format,
		Width:  width,
		Height: height,
		Data:   make([]byte, bpp*numSamples),
	}, nil
}

func toneMap(v float32) uint8 {
	v = math32.Pow(max(0, min(1, v)), 1/2.2)
	return uint8(v*255 + 0.5)
}

// Get an image.Image view of the texture data. Light map row 0 is the top
// image row.
func (t *Texture) Image() image.Image {
	rect := image.Rect(0, 0, int(t.Width), int(t.Height))
	if t.Format == Luminance8 {
		return &image.Gray{Pix: t.Data, Stride: int(t.Width), Rect: rect}
	}
	return &image.NRGBA{Pix: t.Data, Stride: 4 * int(t.Width), Rect: rect}
}

// Upscale the texture by an integer factor so individual texels stay
// visible.
func (t *Texture) Scaled(factor int) image.Image {
	src := t.Image()
	if factor <= 1 {
		return src
	}

	bounds := src.Bounds()
	rect := image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor)
	var dst draw.Image
	if t.Format == Luminance8 {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewNRGBA(rect)
	}
	draw.NearestNeighbor.Scale(dst, rect, src, bounds, draw.Src, nil)
	return dst
}

// Encode img in the format matching the file extension of name.
func Encode(w io.Writer, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Write img to the file at path.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = Encode(f, path, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Build a grayscale image with one texel per sample for data that has no
// natural 2D layout. Rows hold width samples.
func Strip(values []float32, width int) image.Image {
	if width <= 0 {
		width = len(values)
	}
	height := (len(values) + width - 1) / max(width, 1)
	img := image.NewGray(image.Rect(0, 0, width, height))
	for idx, v := range values {
		img.SetGray(idx%width, idx/width, color.Gray{Y: uint8(max(0, min(1, v))*255 + 0.5)})
	}
	return img
}
