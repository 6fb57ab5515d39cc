package render

import (
	"context"
	"fmt"

	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/voxel"
	"golang.org/x/sync/errgroup"
)

// VoxelSource is a voxel sprite as the rasterizer sees it.
type VoxelSource interface {
	// MVP maps the local [-1,1]³ cube to clip space.
	MVP() math3d.Mat4
	// ModelInverse maps world space back to the local cube.
	ModelInverse() math3d.Mat4
	// Ratio is the perspective ratio; above 1 rays diverge from the camera.
	Ratio() float64
	// Volume is the grid snapshot to trace, or nil to skip the draw.
	Volume() *voxel.Volume
}

// MissDiscarder is implemented by sources that leave pixels untouched
// when their ray misses every voxel.
type MissDiscarder interface {
	DiscardsMisses() bool
}

// Stats counts the work done by a Rasterizer since the last Reset.
type Stats struct {
	Tested  int // Voxel sprites submitted
	Culled  int // Sprites rejected by the frustum test
	Drawn   int // Sprites rasterized
	Samples int // Traversals run
	Hits    int // Traversals that found a voxel
}

// cubeTris are the 12 hull triangles over UnitCube.Corners().
var cubeTris = [][3]int{
	{0, 1, 2}, {0, 2, 3}, // back
	{5, 4, 7}, {5, 7, 6}, // front
	{4, 0, 3}, {4, 3, 7}, // left
	{1, 5, 6}, {1, 6, 2}, // right
	{3, 2, 6}, {3, 6, 7}, // top
	{4, 5, 1}, {4, 1, 0}, // bottom
}

type coverage struct {
	local math3d.Vec3
	z     float64
	set   bool
}

// Rasterizer draws voxel sprites into a color target and depth buffer.
type Rasterizer struct {
	fb    *Framebuffer
	depth *DepthBuffer

	// Workers is the number of goroutines shading row bands. Values
	// below 1 mean 1.
	Workers int
	Stats   Stats

	cover []coverage
}

// NewRasterizer creates a rasterizer over fb and depth, which must have
// the same size.
func NewRasterizer(fb *Framebuffer, depth *DepthBuffer) *Rasterizer {
	return &Rasterizer{
		fb:    fb,
		depth: depth,
		cover: make([]coverage, fb.Width*fb.Height),
	}
}

// ResetStats zeroes the counters (call once per frame).
func (r *Rasterizer) ResetStats() {
	r.Stats = Stats{}
}

// DrawVoxels rasterizes the hull of src and shades every covered pixel by
// tracing a ray through its grid. Pixels failing the depth test are left
// alone. The only error is ctx's.
func (r *Rasterizer) DrawVoxels(ctx context.Context, src VoxelSource) error {
	r.Stats.Tested++
	vol := src.Volume()
	if vol == nil {
		return nil
	}
	mvp := src.MVP()
	if !NewFrustumFromMatrix(mvp).IntersectAABB(UnitCube) {
		r.Stats.Culled++
		return nil
	}
	r.Stats.Drawn++

	width, height := r.fb.Width, r.fb.Height
	corners := UnitCube.Corners()
	bounds := [4]int{width, height, -1, -1} // minX, minY, maxX, maxY

	drawMesh(mvp, corners[:], cubeTris, width, height, func(tri [3]int) fragmentFunc {
		a, b, c := corners[tri[0]], corners[tri[1]], corners[tri[2]]
		return func(x, y int, z float64, bc [3]float64) {
			if !r.depth.Test(x, y, z) {
				return
			}
			cv := &r.cover[y*width+x]
			if cv.set && cv.z <= z {
				return
			}
			if !cv.set {
				bounds[0], bounds[1] = min(bounds[0], x), min(bounds[1], y)
				bounds[2], bounds[3] = max(bounds[2], x), max(bounds[3], y)
			}
			*cv = coverage{local: interpolate(a, b, c, bc).Clamp(-1, 1), z: z, set: true}
		}
	})
	if bounds[2] < 0 {
		return nil
	}

	discard := false
	if d, ok := src.(MissDiscarder); ok {
		discard = d.DiscardsMisses()
	}
	samples, hits, err := r.shade(ctx, vol, src.ModelInverse(), src.Ratio(), bounds, discard)
	r.Stats.Samples += samples
	r.Stats.Hits += hits
	if err != nil {
		return fmt.Errorf("shade voxels: %w", err)
	}
	return nil
}

type bandResult struct {
	samples, hits int
}

// shade traces every covered pixel inside bounds, in row bands run by up
// to r.Workers goroutines. Bands own disjoint rows of the target, depth
// and coverage buffers. Coverage is cleared as it is consumed.
func (r *Rasterizer) shade(ctx context.Context, vol *voxel.Volume, inv math3d.Mat4, ratio float64, bounds [4]int, discard bool) (int, int, error) {
	workers := max(r.Workers, 1)
	rows := bounds[3] - bounds[1] + 1
	bandRows := max((rows+workers-1)/workers, 1)
	results := make([]bandResult, (rows+bandRows-1)/bandRows)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for band := range results {
		y0 := bounds[1] + band*bandRows
		y1 := min(y0+bandRows, bounds[3]+1)
		g.Go(func() error {
			res := &results[band]
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					r.clearCoverage(y, y1, bounds)
					return err
				}
				row := r.cover[y*r.fb.Width : (y+1)*r.fb.Width]
				for x := bounds[0]; x <= bounds[2]; x++ {
					cv := &row[x]
					if !cv.set {
						continue
					}
					cv.set = false
					hit := voxel.Trace(vol, voxel.CameraRay(inv, cv.local, ratio))
					res.samples++
					if hit.Hit {
						res.hits++
					} else if discard {
						continue
					}
					r.fb.SetPixel(x, y, hit.Color)
					r.depth.Set(x, y, cv.z)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	var samples, hits int
	for _, res := range results {
		samples += res.samples
		hits += res.hits
	}
	return samples, hits, err
}

func (r *Rasterizer) clearCoverage(y0, y1 int, bounds [4]int) {
	for y := y0; y < y1; y++ {
		row := r.cover[y*r.fb.Width : (y+1)*r.fb.Width]
		for x := bounds[0]; x <= bounds[2]; x++ {
			row[x].set = false
		}
	}
}
