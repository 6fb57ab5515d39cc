package render

import (
	"github.com/taigrr/voxsprite/pkg/math3d"
)

// Overlay is a 2D draw issued after the voxel pass. depth is nil when the
// overlay draws straight onto the visible surface.
type Overlay interface {
	DrawOverlay(fb *Framebuffer, depth *DepthBuffer) error
}

var (
	quadVerts = []math3d.Vec3{
		{X: -1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1},
	}
	// Texture row 0 is the top edge of the quad.
	quadUV = []math3d.Vec3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	quadTris = [][3]int{{0, 1, 2}, {0, 2, 3}}
)

// DrawTexturedQuad draws tex on the local quad [-1,1]² at z = 0 under mvp,
// blending source-over. Transparent texels are skipped. When depth is not
// nil, texels are depth tested and write depth.
func DrawTexturedQuad(fb *Framebuffer, depth *DepthBuffer, mvp math3d.Mat4, tex *Texture) {
	if tex == nil {
		return
	}
	drawMesh(mvp, quadVerts, quadTris, fb.Width, fb.Height, func(tri [3]int) fragmentFunc {
		a, b, c := quadUV[tri[0]], quadUV[tri[1]], quadUV[tri[2]]
		return func(x, y int, z float64, bc [3]float64) {
			if depth != nil && !depth.Test(x, y, z) {
				return
			}
			uv := interpolate(a, b, c, bc)
			texel := tex.Sample(uv.X, uv.Y)
			if texel.A == 0 {
				return
			}
			fb.BlendPixel(x, y, texel)
			if depth != nil {
				depth.Set(x, y, z)
			}
		}
	})
}
