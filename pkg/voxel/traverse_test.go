package voxel

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/voxsprite/pkg/math3d"
)

var red = color.RGBA{255, 0, 0, 255}

func gridWith(t *testing.T, w, h, d int, set map[[3]int]color.RGBA) *Volume {
	t.Helper()
	b := NewBuffer(w, h, d)
	for idx, c := range set {
		b.Set(idx[0], idx[1], idx[2], c)
	}
	g := NewGrid()
	require.NoError(t, g.SetBuffer(b))
	return g.Volume()
}

// recorder wraps a sampler and remembers every visited index.
type recorder struct {
	Sampler
	visited [][3]int
}

func (r *recorder) VoxelAt(x, y, z int) color.RGBA {
	r.visited = append(r.visited, [3]int{x, y, z})
	return r.Sampler.VoxelAt(x, y, z)
}

func TestTraceEmptyGridReturnsBackground(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, nil)

	rays := []Ray{
		{Origin: math3d.V3(-1, 0.3, 0.1), Dir: math3d.V3(1, 0, 0)},
		{Origin: math3d.V3(0.2, 1, -0.4), Dir: math3d.V3(0.1, -1, 0.3)},
		{Origin: math3d.V3(0.9, -0.9, 1), Dir: math3d.V3(-2, 1, -1)},
		{Origin: math3d.V3(0, 0, 0), Dir: math3d.V3(0, 0, 0)},
	}

	for _, r := range rays {
		res := Trace(vol, r)
		assert.False(t, res.Hit)
		assert.Equal(t, Background, res.Color)
	}
}

func TestTraceHitsStartingVoxelFirst(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, map[[3]int]color.RGBA{{0, 0, 0}: red})

	res := Trace(vol, Ray{Origin: math3d.V3(-0.75, 0.75, -0.75), Dir: math3d.V3(0.3, 0.5, 1)})
	assert.True(t, res.Hit)
	assert.Equal(t, red, res.Color)
	assert.Equal(t, [3]int{0, 0, 0}, res.Voxel)
	assert.Equal(t, 1, res.Steps)
}

func TestTraceFarFaceBelongsToLastCell(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, map[[3]int]color.RGBA{{3, 0, 0}: red})

	// x = 1 maps to grid position 4.0; heading -x it must start in cell 3.
	res := Trace(vol, Ray{Origin: math3d.V3(1, 0.9, -0.9), Dir: math3d.V3(-1, 0, 0)})
	require.True(t, res.Hit)
	assert.Equal(t, [3]int{3, 0, 0}, res.Voxel)
	assert.Equal(t, 1, res.Steps)
}

func TestTraceFlatAxisNeverMoves(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, nil)
	rec := &recorder{Sampler: vol}

	Trace(rec, Ray{Origin: math3d.V3(-1, 0.1, -1), Dir: math3d.V3(1, 0, 0.6)})
	require.NotEmpty(t, rec.visited)
	for _, v := range rec.visited {
		assert.Equal(t, 1, v[1], "y index changed at %v", v)
	}
}

func TestAdvanceTieGoesToX(t *testing.T) {
	// tDelta = (1.5, 1.5, 3) and the origin sits mid-cell, so
	// tMax = (0.75, 0.75, 1.5).
	wk := newWalker(4, 4, 4, Ray{Origin: math3d.V3(-0.75, 0.75, -0.75), Dir: math3d.V3(1, -1, 0.5)})
	require.InDelta(t, wk.tMax[0], wk.tMax[1], 1e-12)
	require.Less(t, wk.tMax[1], wk.tMax[2])

	wk.advance()
	assert.Equal(t, [3]int{1, 0, 0}, wk.cur)

	wk.advance()
	assert.Equal(t, [3]int{1, 1, 0}, wk.cur)
}

func TestAdvanceTieBetweenWinnerAndZ(t *testing.T) {
	wk := newWalker(4, 4, 4, Ray{Origin: math3d.V3(-0.75, 0.75, -0.75), Dir: math3d.V3(0.5, -1, 1)})
	require.InDelta(t, wk.tMax[1], wk.tMax[2], 1e-12)
	require.Less(t, wk.tMax[1], wk.tMax[0])

	wk.advance()
	assert.Equal(t, [3]int{0, 1, 0}, wk.cur)
}

func TestWalkerDegenerateAxis(t *testing.T) {
	wk := newWalker(4, 4, 4, Ray{Origin: math3d.V3(0, 0, 0), Dir: math3d.V3(0, 1, 0)})
	assert.True(t, math.IsInf(wk.tMax[0], 1))
	assert.True(t, math.IsInf(wk.tMax[2], 1))
	assert.Equal(t, 0.0, wk.tDelta[0])
	assert.Equal(t, -1, wk.step[1])
}

func TestTraceDiagonalSweep(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, map[[3]int]color.RGBA{{3, 3, 3}: red})
	origin := math3d.V3(-0.75, 0.75, -0.75)

	hit := Trace(vol, Ray{Origin: origin, Dir: math3d.V3(1, -1, 1)})
	require.True(t, hit.Hit)
	assert.Equal(t, red, hit.Color)
	assert.Equal(t, [3]int{3, 3, 3}, hit.Voxel)
	assert.Equal(t, 10, hit.Steps)

	miss := Trace(vol, Ray{Origin: origin, Dir: math3d.V3(1, -1, 0)})
	assert.False(t, miss.Hit)
	assert.Equal(t, Background, miss.Color)
}

func TestTraceAlphaThreshold(t *testing.T) {
	tests := []struct {
		alpha uint8
		hit   bool
	}{
		{0, false},
		{50, false},
		{51, true},
		{255, true},
	}

	for _, tt := range tests {
		vol := gridWith(t, 1, 1, 1, map[[3]int]color.RGBA{{0, 0, 0}: {10, 20, 30, tt.alpha}})
		res := Trace(vol, Ray{Origin: math3d.V3(0, 0, -1), Dir: math3d.V3(0, 0, 1)})
		assert.Equal(t, tt.hit, res.Hit, "alpha %d", tt.alpha)
	}
}

func TestTraceStepBudget(t *testing.T) {
	vol := gridWith(t, 1, 1, 1, nil)
	res := Trace(vol, Ray{Origin: math3d.V3(0, 0, 0), Dir: math3d.V3(0, 0, 0)})
	assert.False(t, res.Hit)
	assert.Equal(t, MaxSteps, res.Steps)
	assert.Equal(t, Background, res.Color)
}

func TestTraceEntersFromOutside(t *testing.T) {
	vol := gridWith(t, 4, 4, 4, map[[3]int]color.RGBA{{0, 2, 2}: red})

	res := Trace(vol, Ray{Origin: math3d.V3(-1.5, -0.25, 0.25), Dir: math3d.V3(1, 0, 0)})
	require.True(t, res.Hit)
	assert.Equal(t, [3]int{0, 2, 2}, res.Voxel)
}

func TestCameraRay(t *testing.T) {
	model := math3d.Translate(math3d.V3(0, 0, 2)).Mul(math3d.Scale(math3d.V3(0.25, 0.25, 0.25)))
	inv := model.Inverse()
	surface := math3d.V3(0.5, 0.5, -1)

	// The camera at the world origin is at local (0, 0, -8).
	persp := CameraRay(inv, surface, 2)
	assert.Equal(t, surface, persp.Origin)
	assert.InDelta(t, 0.5, persp.Dir.X, 1e-12)
	assert.InDelta(t, 0.5, persp.Dir.Y, 1e-12)
	assert.InDelta(t, 7, persp.Dir.Z, 1e-12)

	ortho := CameraRay(inv, surface, 1)
	assert.InDelta(t, 0, ortho.Dir.X, 1e-12)
	assert.InDelta(t, 0, ortho.Dir.Y, 1e-12)
	assert.InDelta(t, 8, ortho.Dir.Z, 1e-12)
}

func BenchmarkTraceDemo(b *testing.B) {
	g := NewGrid()
	if err := g.SetBuffer(DemoBuffer()); err != nil {
		b.Fatal(err)
	}
	vol := g.Volume()
	r := Ray{Origin: math3d.V3(-0.9, 0.9, -1), Dir: math3d.V3(0.7, -0.4, 1)}

	for b.Loop() {
		_ = Trace(vol, r)
	}
}
