package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
)

// Texture is a 2D RGBA image sampled by plane sprites. Row 0 is the top
// of the image and coordinates outside [0,1] clamp to the edge.
type Texture struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
}

// NewTexture creates a transparent texture.
func NewTexture(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture %dx%d", ErrResourceCreation, width, height)
	}
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}, nil
}

// SetData replaces the texture contents with RGBA8 bytes, row-major from
// the top row. When len(data) != width*height*4 the texture is left
// unchanged and ErrShapeMismatch is returned.
func (t *Texture) SetData(width, height int, data []byte) error {
	if width <= 0 || height <= 0 || len(data) != width*height*4 {
		return fmt.Errorf("%w: %dx%d texture with %d bytes", ErrShapeMismatch, width, height, len(data))
	}
	pix := make([]color.RGBA, width*height)
	for i := range pix {
		pix[i] = color.RGBA{data[i*4], data[i*4+1], data[i*4+2], data[i*4+3]}
	}
	t.Width, t.Height, t.Pixels = width, height, pix
	return nil
}

// LoadTexture loads a texture from an image file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	return TextureFromImage(img)
}

// TextureFromImage copies an image into a new texture.
func TextureFromImage(img image.Image) (*Texture, error) {
	bounds := img.Bounds()
	tex, err := NewTexture(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := range tex.Height {
		for x := range tex.Width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			tex.Pixels[y*tex.Width+x] = color.RGBA(c)
		}
	}
	return tex, nil
}

// GetPixel returns the pixel at (x, y), or transparent black out of range.
func (t *Texture) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return color.RGBA{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample returns the nearest texel to (u, v); v = 0 is the top row.
func (t *Texture) Sample(u, v float64) color.RGBA {
	if t.Width == 0 || t.Height == 0 {
		return color.RGBA{}
	}
	u = math.Max(0, math.Min(1, u))
	v = math.Max(0, math.Min(1, v))

	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.Pixels[y*t.Width+x]
}
