package render

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/voxel"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

// cube is a minimal VoxelSource: a cube of half-size 0.5 at pos.
type cube struct {
	pos     math3d.Vec3
	ratio   float64
	vol     *voxel.Volume
	discard bool
}

func (c *cube) model() math3d.Mat4 {
	return math3d.Translate(c.pos).Mul(math3d.Scale(math3d.V3(0.5, 0.5, 0.5)))
}

func (c *cube) MVP() math3d.Mat4 {
	return math3d.Frustum(-1, 1, -1, 1, 1, 9, c.ratio).Mul(c.model())
}
func (c *cube) ModelInverse() math3d.Mat4 { return c.model().Inverse() }
func (c *cube) Ratio() float64            { return c.ratio }
func (c *cube) Volume() *voxel.Volume     { return c.vol }
func (c *cube) DiscardsMisses() bool      { return c.discard }

func solid(t testing.TB, c color.RGBA) *voxel.Volume {
	t.Helper()
	b := voxel.NewBuffer(4, 4, 4)
	b.Fill(c)
	g := voxel.NewGrid()
	require.NoError(t, g.SetBuffer(b))
	return g.Volume()
}

func newTestRasterizer(t testing.TB, w, h int) (*Rasterizer, *Framebuffer, *DepthBuffer) {
	t.Helper()
	fb, err := NewFramebuffer(w, h)
	require.NoError(t, err)
	depth, err := NewDepthBuffer(w, h)
	require.NoError(t, err)
	fb.Clear(White)
	return NewRasterizer(fb, depth), fb, depth
}

func TestDrawVoxelsCoversHullOnly(t *testing.T) {
	r, fb, depth := newTestRasterizer(t, 20, 20)
	require.NoError(t, r.DrawVoxels(context.Background(), &cube{pos: math3d.V3(0, 0, 5), ratio: 1, vol: solid(t, red)}))

	assert.Equal(t, red, fb.GetPixel(10, 10))
	assert.Equal(t, White, fb.GetPixel(1, 1))
	assert.Equal(t, White, fb.GetPixel(18, 10))

	// Front face at z = 4.5 under near 1, far 9.
	assert.InDelta(t, -0.125, depth.At(10, 10), 1e-9)
	assert.Equal(t, 1.0, depth.At(1, 1))

	assert.Equal(t, Stats{Tested: 1, Drawn: 1, Samples: r.Stats.Samples, Hits: r.Stats.Samples}, r.Stats)
	assert.Equal(t, 100, r.Stats.Samples)
}

func TestDrawVoxelsMisses(t *testing.T) {
	tests := []struct {
		name    string
		discard bool
		color   color.RGBA
		depth   float64
	}{
		{"background written", false, voxel.Background, -0.125},
		{"misses discarded", true, White, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fb, depth := newTestRasterizer(t, 20, 20)
			src := &cube{pos: math3d.V3(0, 0, 5), ratio: 1, vol: solid(t, color.RGBA{}), discard: tt.discard}
			require.NoError(t, r.DrawVoxels(context.Background(), src))

			assert.Equal(t, tt.color, fb.GetPixel(10, 10))
			assert.InDelta(t, tt.depth, depth.At(10, 10), 1e-9)
			assert.Zero(t, r.Stats.Hits)
		})
	}
}

func TestDrawVoxelsDepthOrderIndependent(t *testing.T) {
	near := &cube{pos: math3d.V3(0, 0, 3), ratio: 1, vol: solid(t, red)}
	far := &cube{pos: math3d.V3(0, 0, 6), ratio: 1, vol: solid(t, blue)}

	for _, order := range [][]*cube{{near, far}, {far, near}} {
		r, fb, _ := newTestRasterizer(t, 20, 20)
		for _, c := range order {
			require.NoError(t, r.DrawVoxels(context.Background(), c))
		}
		assert.Equal(t, red, fb.GetPixel(10, 10))
	}
}

func TestDrawVoxelsSkipsAndCulls(t *testing.T) {
	r, fb, _ := newTestRasterizer(t, 20, 20)
	ctx := context.Background()

	require.NoError(t, r.DrawVoxels(ctx, &cube{pos: math3d.V3(0, 0, 5), ratio: 1}))
	require.NoError(t, r.DrawVoxels(ctx, &cube{pos: math3d.V3(10, 0, 5), ratio: 1, vol: solid(t, red)}))

	assert.Equal(t, Stats{Tested: 2, Culled: 1}, r.Stats)
	for y := range 20 {
		for x := range 20 {
			require.Equal(t, White, fb.GetPixel(x, y))
		}
	}
}

func TestDrawVoxelsWorkersMatchSerial(t *testing.T) {
	g := voxel.NewGrid()
	require.NoError(t, g.SetBuffer(voxel.DemoBuffer()))
	src := &cube{pos: math3d.V3(0, 0, 3), ratio: 2, vol: g.Volume()}

	serial, want, _ := newTestRasterizer(t, 48, 32)
	require.NoError(t, serial.DrawVoxels(context.Background(), src))

	parallel, got, _ := newTestRasterizer(t, 48, 32)
	parallel.Workers = 4
	require.NoError(t, parallel.DrawVoxels(context.Background(), src))

	assert.Equal(t, want.Image().Pix, got.Image().Pix)
	assert.Equal(t, serial.Stats, parallel.Stats)
	assert.Positive(t, serial.Stats.Hits)
}

func TestDrawVoxelsCanceled(t *testing.T) {
	r, fb, _ := newTestRasterizer(t, 20, 20)
	src := &cube{pos: math3d.V3(0, 0, 5), ratio: 1, vol: solid(t, red)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.DrawVoxels(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, White, fb.GetPixel(10, 10))

	// Coverage from the canceled draw must not leak into the next one.
	require.NoError(t, r.DrawVoxels(context.Background(), &cube{pos: math3d.V3(0, 0, 5), ratio: 1, vol: solid(t, color.RGBA{}), discard: true}))
	assert.Equal(t, White, fb.GetPixel(10, 10))
}

func BenchmarkDrawVoxelsDemo(b *testing.B) {
	g := voxel.NewGrid()
	if err := g.SetBuffer(voxel.DemoBuffer()); err != nil {
		b.Fatal(err)
	}
	src := &cube{pos: math3d.V3(0, 0, 3), ratio: 2, vol: g.Volume()}
	r, fb, depth := newTestRasterizer(b, 160, 96)

	for b.Loop() {
		fb.Clear(White)
		depth.Clear()
		_ = r.DrawVoxels(context.Background(), src)
	}
}
