package voxel

import (
	"image/color"
	"math"

	"github.com/taigrr/voxsprite/pkg/math3d"
)

const (
	// MaxSteps bounds the number of cells visited per ray.
	MaxSteps = 256
	// HitAlpha is the normalized alpha at or above which a voxel is solid.
	HitAlpha = 0.2
)

// Background is returned for rays that leave the grid or run out of steps.
var Background = color.RGBA{R: 204, G: 204, B: 204, A: 255}

// Result is the outcome of tracing one ray.
type Result struct {
	Color color.RGBA
	Hit   bool
	// Voxel is the grid index where the walk stopped.
	Voxel [3]int
	// Steps is the number of cells examined, counting the final one.
	Steps int
}

// walker carries the incremental state of a 3D DDA through the grid.
type walker struct {
	size   [3]int
	cur    [3]int
	step   [3]int
	tMax   [3]float64
	tDelta [3]float64
}

func newWalker(w, h, d int, r Ray) walker {
	pos := r.gridPosition(w, h, d)
	dir := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}

	wk := walker{size: [3]int{w, h, d}}
	// Grid rows run top to bottom, so Y steps against the ray's Y.
	wk.step = [3]int{
		int(math3d.Sign(dir[0])),
		-int(math3d.Sign(dir[1])),
		int(math3d.Sign(dir[2])),
	}

	abs := [3]float64{math.Abs(dir[0]), math.Abs(dir[1]), math.Abs(dir[2])}
	rayLen := math.Sqrt(abs[0]*abs[0] + abs[1]*abs[1] + abs[2]*abs[2])

	for axis := range 3 {
		wk.cur[axis] = int(math.Floor(pos[axis]))
		// A ray starting on the far face and heading back in belongs to
		// the last cell, not the one past it.
		if wk.step[axis] < 0 && pos[axis] >= float64(wk.size[axis]) {
			wk.cur[axis]--
		}

		if abs[axis] == 0 {
			wk.tMax[axis] = math.Inf(1)
			continue
		}
		wk.tDelta[axis] = rayLen / abs[axis]
		wk.tMax[axis] = (float64(wk.cur[axis]) - pos[axis]) * float64(wk.step[axis]) * wk.tDelta[axis]
		if wk.step[axis] >= 0 {
			wk.tMax[axis] += wk.tDelta[axis]
		}
	}
	return wk
}

// exited reports whether the walk has left the grid on a side it can no
// longer come back from.
func (wk *walker) exited() bool {
	for axis := range 3 {
		c, s := wk.cur[axis], wk.step[axis]
		if (c < 0 && s <= 0) || (c >= wk.size[axis] && s >= 0) {
			return true
		}
	}
	return false
}

// advance moves to the neighbouring cell across the nearest boundary.
// Ties go to x over y, then to that winner over z.
func (wk *walker) advance() {
	axis := 0
	if wk.tMax[1] < wk.tMax[0] {
		axis = 1
	}
	if wk.tMax[2] < wk.tMax[axis] {
		axis = 2
	}
	wk.tMax[axis] += wk.tDelta[axis]
	wk.cur[axis] += wk.step[axis]
}

// Trace walks r through the grid and returns the color of the first voxel
// whose alpha reaches HitAlpha. Rays that leave the grid, or that are still
// inside after MaxSteps cells, return Background.
func Trace(s Sampler, r Ray) Result {
	w, h, d := s.Size()
	wk := newWalker(w, h, d, r)

	for i := 1; i <= MaxSteps; i++ {
		if wk.exited() {
			return Result{Color: Background, Voxel: wk.cur, Steps: i}
		}
		c := s.VoxelAt(wk.cur[0], wk.cur[1], wk.cur[2])
		if float64(c.A)/255 >= HitAlpha {
			return Result{Color: c, Hit: true, Voxel: wk.cur, Steps: i}
		}
		wk.advance()
	}
	return Result{Color: Background, Voxel: wk.cur, Steps: MaxSteps}
}
