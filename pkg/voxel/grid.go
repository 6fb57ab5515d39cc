// Package voxel holds the dense RGBA voxel grids that back voxel sprites and
// the grid traversal that finds the first occupied cell along a ray.
package voxel

import (
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"
)

// ErrShapeMismatch is returned when uploaded voxel data does not match the
// declared grid dimensions.
var ErrShapeMismatch = errors.New("voxel: shape mismatch")

// MaxDimension is the largest grid extent accepted on any axis. It matches
// the MagicaVoxel model limit.
const MaxDimension = 256

func validDimensions(width, height, depth int) bool {
	for _, n := range [3]int{width, height, depth} {
		if n < 1 || n > MaxDimension {
			return false
		}
	}
	return true
}

// Sampler is the read side of a voxel grid.
type Sampler interface {
	// Size returns the grid dimensions in voxels.
	Size() (width, height, depth int)
	// VoxelAt returns the texel at an integer grid index. Indices outside the
	// grid are fully transparent.
	VoxelAt(x, y, z int) color.RGBA
}

// Volume is an immutable snapshot of uploaded voxel data. Texels are RGBA8,
// ordered x fastest, then y, then z.
type Volume struct {
	width, height, depth int
	pix                  []byte
}

// Size returns the grid dimensions in voxels.
func (v *Volume) Size() (width, height, depth int) {
	return v.width, v.height, v.depth
}

// VoxelAt returns the texel at (x, y, z), or transparent black when the
// index is outside the grid.
func (v *Volume) VoxelAt(x, y, z int) color.RGBA {
	if x < 0 || y < 0 || z < 0 || x >= v.width || y >= v.height || z >= v.depth {
		return color.RGBA{}
	}
	i := ((z*v.height+y)*v.width + x) * 4
	return color.RGBA{v.pix[i], v.pix[i+1], v.pix[i+2], v.pix[i+3]}
}

// Len returns the number of voxels in the snapshot.
func (v *Volume) Len() int {
	return v.width * v.height * v.depth
}

// Grid is a voxel sprite's graphic. Uploads replace the whole grid at once;
// readers always observe either the previous or the new snapshot.
type Grid struct {
	vol atomic.Pointer[Volume]
}

// NewGrid creates a grid with no data. A grid without data draws nothing.
func NewGrid() *Grid {
	return &Grid{}
}

// SetData uploads a width×height×depth grid. Each dimension must be in
// 1..MaxDimension and data must hold exactly width*height*depth*4 bytes;
// otherwise ErrShapeMismatch is returned and the previous contents are kept.
// data is copied.
func (g *Grid) SetData(width, height, depth int, data []byte) error {
	if !validDimensions(width, height, depth) {
		return fmt.Errorf("%w: dimensions %dx%dx%d must be in 1..%d", ErrShapeMismatch, width, height, depth, MaxDimension)
	}
	want := width * height * depth * 4
	if len(data) != want {
		return fmt.Errorf("%w: %dx%dx%d needs %d bytes, got %d", ErrShapeMismatch, width, height, depth, want, len(data))
	}

	pix := make([]byte, want)
	copy(pix, data)
	g.vol.Store(&Volume{width: width, height: height, depth: depth, pix: pix})
	return nil
}

// SetBuffer uploads the contents of b.
func (g *Grid) SetBuffer(b *Buffer) error {
	return g.SetData(b.Width, b.Height, b.Depth, b.Pix)
}

// Volume returns the current snapshot, or nil if nothing has been uploaded.
func (g *Grid) Volume() *Volume {
	return g.vol.Load()
}

// Buffer is a mutable voxel buffer used to assemble an upload.
type Buffer struct {
	Width, Height, Depth int
	Pix                  []byte
}

// NewBuffer allocates a transparent buffer.
func NewBuffer(width, height, depth int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Depth:  depth,
		Pix:    make([]byte, width*height*depth*4),
	}
}

// Set writes one texel. Out of range writes are ignored.
func (b *Buffer) Set(x, y, z int, c color.RGBA) {
	if x < 0 || y < 0 || z < 0 || x >= b.Width || y >= b.Height || z >= b.Depth {
		return
	}
	i := ((z*b.Height+y)*b.Width + x) * 4
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// At reads one texel.
func (b *Buffer) At(x, y, z int) color.RGBA {
	if x < 0 || y < 0 || z < 0 || x >= b.Width || y >= b.Height || z >= b.Depth {
		return color.RGBA{}
	}
	i := ((z*b.Height+y)*b.Width + x) * 4
	return color.RGBA{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Fill sets every texel of the buffer.
func (b *Buffer) Fill(c color.RGBA) {
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}
