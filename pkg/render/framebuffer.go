// Package render draws voxel sprites and 2D overlays into software
// framebuffers and composites them into a visible surface.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// Framebuffer is a drawing target backed by an image.NRGBA. Colors are
// stored as given, without alpha premultiplication.
type Framebuffer struct {
	Width  int
	Height int
	img    *image.NRGBA
}

// NewFramebuffer allocates a framebuffer. Both dimensions must be positive.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: framebuffer %dx%d", ErrResourceCreation, width, height)
	}
	return &Framebuffer{
		Width:  width,
		Height: height,
		img:    image.NewNRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Clear fills the framebuffer with c.
func (fb *Framebuffer) Clear(c color.RGBA) {
	pix := fb.img.Pix
	if len(pix) == 0 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for i := 4; i < len(pix); i *= 2 {
		copy(pix[i:], pix[:i])
	}
}

// SetPixel writes c at (x, y). Out of range writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	i := fb.img.PixOffset(x, y)
	p := fb.img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// GetPixel returns the color at (x, y), or transparent black out of range.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	i := fb.img.PixOffset(x, y)
	p := fb.img.Pix[i : i+4 : i+4]
	return color.RGBA{p[0], p[1], p[2], p[3]}
}

// BlendPixel composites c over the pixel at (x, y).
func (fb *Framebuffer) BlendPixel(x, y int, c color.RGBA) {
	switch c.A {
	case 0:
		return
	case 255:
		fb.SetPixel(x, y, c)
		return
	}
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.SetPixel(x, y, over(c, fb.GetPixel(x, y)))
}

// over is Porter-Duff source-over on non-premultiplied colors.
func over(src, dst color.RGBA) color.RGBA {
	sa := float64(src.A) / 255
	da := float64(dst.A) / 255 * (1 - sa)
	a := sa + da
	if a == 0 {
		return color.RGBA{}
	}
	mix := func(s, d uint8) uint8 {
		return uint8((float64(s)*sa+float64(d)*da)/a + 0.5)
	}
	return color.RGBA{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: uint8(a*255 + 0.5),
	}
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.BlendPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// FillRect blends c over a rectangle.
func (fb *Framebuffer) FillRect(x, y, w, h int, c color.RGBA) {
	for py := max(y, 0); py < min(y+h, fb.Height); py++ {
		for px := max(x, 0); px < min(x+w, fb.Width); px++ {
			fb.BlendPixel(px, py, c)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Image returns the backing image. It aliases the framebuffer memory.
func (fb *Framebuffer) Image() *image.NRGBA {
	return fb.img
}

// Snapshot returns a copy of the current contents.
func (fb *Framebuffer) Snapshot() *image.NRGBA {
	img := image.NewNRGBA(fb.img.Rect)
	copy(img.Pix, fb.img.Pix)
	return img
}

// Premultiplied returns the pixels as premultiplied RGBA8, reusing dst
// when it is large enough.
func (fb *Framebuffer) Premultiplied(dst []byte) []byte {
	src := fb.img.Pix
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	for i := 0; i < len(src); i += 4 {
		a := uint16(src[i+3])
		if a == 255 {
			copy(dst[i:i+4], src[i:i+4])
			continue
		}
		dst[i] = uint8(uint16(src[i]) * a / 255)
		dst[i+1] = uint8(uint16(src[i+1]) * a / 255)
		dst[i+2] = uint8(uint16(src[i+2]) * a / 255)
		dst[i+3] = src[i+3]
	}
	return dst
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DepthBuffer stores normalized device depth per pixel. A cleared buffer
// holds 1, the far plane.
type DepthBuffer struct {
	Width  int
	Height int
	z      []float64
}

// NewDepthBuffer allocates a cleared depth buffer.
func NewDepthBuffer(width, height int) (*DepthBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: depth buffer %dx%d", ErrResourceCreation, width, height)
	}
	d := &DepthBuffer{Width: width, Height: height, z: make([]float64, width*height)}
	d.Clear()
	return d, nil
}

// Clear resets every sample to the far plane.
func (d *DepthBuffer) Clear() {
	n := len(d.z)
	if n == 0 {
		return
	}
	d.z[0] = 1
	for i := 1; i < n; i *= 2 {
		copy(d.z[i:], d.z[:i])
	}
}

// At returns the depth at (x, y). Out of range reads return -Inf so they
// never pass a depth test.
func (d *DepthBuffer) At(x, y int) float64 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return math.Inf(-1)
	}
	return d.z[y*d.Width+x]
}

// Test reports whether depth z passes a less-or-equal test at (x, y).
// Depths outside [-1, 1] are clipped.
func (d *DepthBuffer) Test(x, y int, z float64) bool {
	if z < -1 || z > 1 {
		return false
	}
	return z <= d.At(x, y)
}

// Set stores z at (x, y).
func (d *DepthBuffer) Set(x, y int, z float64) {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return
	}
	d.z[y*d.Width+x] = z
}
