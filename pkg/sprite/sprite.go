package sprite

import (
	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/voxel"
)

// VoxelSprite is a cube whose surface is found by tracing rays through a
// voxel grid. It implements render.VoxelSource.
type VoxelSprite struct {
	Transform
	Name    string
	Graphic *voxel.Grid
	// DiscardMisses leaves pixels whose ray misses every voxel untouched
	// instead of painting the background color.
	DiscardMisses bool
}

// NewVoxelSprite creates a sprite at (0, 0, 5) with half extent 0.5 and a
// perspective from 1 to 9 with ratio 2.
func NewVoxelSprite(name string, graphic *voxel.Grid) *VoxelSprite {
	return &VoxelSprite{
		Transform: NewTransform(math3d.V3(0, 0, 5), math3d.V3(0.5, 0.5, 0.5), 1, 9, 2, 1),
		Name:      name,
		Graphic:   graphic,
	}
}

// Volume returns the current grid snapshot, or nil when the sprite has no
// graphic or the graphic has no data.
func (s *VoxelSprite) Volume() *voxel.Volume {
	if s.Graphic == nil {
		return nil
	}
	return s.Graphic.Volume()
}

// DiscardsMisses implements render.MissDiscarder.
func (s *VoxelSprite) DiscardsMisses() bool {
	return s.DiscardMisses
}

// PlaneSprite is a textured quad drawn as a 2D overlay. It implements
// render.Overlay.
type PlaneSprite struct {
	Transform
	Name    string
	Graphic *render.Texture
}

// NewPlaneSprite creates an orthographic plane sprite at (0, 0, 5).
func NewPlaneSprite(name string, graphic *render.Texture) *PlaneSprite {
	return &PlaneSprite{
		Transform: NewTransform(math3d.V3(0, 0, 5), math3d.V3(1, 1, 1), 1, 9, 1, 1),
		Name:      name,
		Graphic:   graphic,
	}
}

// Scale sets the half width and height; planes keep a depth of 1.
func (s *PlaneSprite) Scale(width, height float64) {
	s.Transform.Scale(width, height, 1)
}

// DrawOverlay implements render.Overlay. A plane without a graphic draws
// nothing.
func (s *PlaneSprite) DrawOverlay(fb *render.Framebuffer, depth *render.DepthBuffer) error {
	render.DrawTexturedQuad(fb, depth, s.MVP(), s.Graphic)
	return nil
}
