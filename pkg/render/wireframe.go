package render

import (
	"image/color"

	"github.com/taigrr/voxsprite/pkg/math3d"
)

// cubeEdges are the 12 edges over UnitCube.Corners().
var cubeEdges = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // back
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // front
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // connecting
}

// DrawHull outlines the [-1,1]³ hull of a voxel sprite. Edges with an
// endpoint behind the camera are skipped.
func DrawHull(fb *Framebuffer, mvp math3d.Mat4, c color.RGBA) {
	corners := UnitCube.Corners()
	var sv [8]screenVertex
	var ok [8]bool
	for i, p := range corners {
		sv[i], ok[i] = project(mvp, p, fb.Width, fb.Height)
	}
	for _, e := range cubeEdges {
		if !ok[e[0]] || !ok[e[1]] {
			continue
		}
		a, b := sv[e[0]], sv[e[1]]
		fb.DrawLine(int(a.X), int(a.Y), int(b.X), int(b.Y), c)
	}
}

// HullOverlay draws the hull outline of each source, for debugging
// sprite placement.
type HullOverlay struct {
	Sources []VoxelSource
	Color   color.RGBA
}

// DrawOverlay implements Overlay. Outlines ignore depth.
func (h *HullOverlay) DrawOverlay(fb *Framebuffer, _ *DepthBuffer) error {
	for _, s := range h.Sources {
		DrawHull(fb, s.MVP(), h.Color)
	}
	return nil
}
