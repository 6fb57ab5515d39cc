package scene

import (
	"context"
	"errors"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/sprite"
	"github.com/taigrr/voxsprite/pkg/viewport"
	"github.com/taigrr/voxsprite/pkg/voxel"
)

func demoScene(t *testing.T, w, h int) *Scene {
	t.Helper()
	cfg := config.Default()
	cfg.Viewport.Width, cfg.Viewport.Height = w, h
	s, err := New(cfg, viewport.New(w, h, 1))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewDemoScene(t *testing.T) {
	s := demoScene(t, 32, 32)

	require.Len(t, s.Voxels, 1)
	require.Len(t, s.Planes, 1)
	require.Len(t, s.Controls, 1)
	assert.Nil(t, s.Script)
	assert.Nil(t, s.HUD)

	cube := s.Sprite("cube")
	require.NotNil(t, cube)
	assert.Equal(t, math3d.V3(0, 0, 2), cube.Position())
	assert.Equal(t, math3d.V3(0.25, 0.25, 0.25), cube.Extents())
	assert.True(t, cube.AutoResizing())

	tile := s.Sprite("tile")
	require.NotNil(t, tile)
	assert.Equal(t, math3d.V3(1.0/8, 1.0/8, 1), tile.Extents())
	assert.Equal(t, 1.0, tile.Ratio())

	assert.Nil(t, s.Sprite("missing"))
}

func TestFrameDrawsDemo(t *testing.T) {
	s := demoScene(t, 32, 32)
	require.NoError(t, s.Frame(context.Background(), 0))

	surface := s.Compositor.Surface()
	assert.NotEqual(t, render.White, surface.GetPixel(16, 16), "cube in the middle")
	assert.Equal(t, render.White, surface.GetPixel(31, 0))

	// The tile is the bottom-left 4×4 pixels, one per texel.
	dark := color.RGBA{51, 51, 51, 255}
	light := color.RGBA{204, 204, 204, 255}
	assert.Equal(t, dark, surface.GetPixel(0, 31))
	assert.Equal(t, dark, surface.GetPixel(3, 28))
	assert.Equal(t, light, surface.GetPixel(1, 29))

	st := s.Compositor.Stats()
	assert.Equal(t, 1, st.Drawn)
	assert.Positive(t, st.Samples)
}

func TestFrameAppliesQueuedResize(t *testing.T) {
	s := demoScene(t, 32, 32)

	s.RequestResize(64, 16)
	s.RequestResize(16, 8)
	assert.Equal(t, viewport.Size{Width: 32, Height: 32}, s.Compositor.Size())

	require.NoError(t, s.Frame(context.Background(), 0))
	assert.Equal(t, viewport.Size{Width: 16, Height: 8}, s.Compositor.Size())
	assert.Equal(t, 16, s.Compositor.Surface().Width)

	p := s.Voxels[0].Perspective()
	assert.Equal(t, [2]float64{-2, 2}, [2]float64{p.Left, p.Right})
	assert.Equal(t, [2]float64{-1, 1}, [2]float64{p.Bottom, p.Top})
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	vp := viewport.New(8, 8, 1)
	s, err := New(config.Default(), vp)
	require.NoError(t, err)
	require.Equal(t, 3, vp.Listeners(), "compositor and two sprites")

	s.Close()
	assert.Equal(t, 1, vp.Listeners())
	assert.False(t, s.Voxels[0].AutoResizing())
}

func TestFixedPerspectiveSprite(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Sprites[0].AutoResize = &off

	vp := viewport.New(40, 20, 1)
	s, err := New(cfg, vp)
	require.NoError(t, err)
	defer s.Close()

	cube := s.Voxels[0]
	assert.False(t, cube.AutoResizing())
	assert.Equal(t, 2.0, cube.Perspective().Right)

	vp.Resize(10, 20)
	assert.Equal(t, 2.0, cube.Perspective().Right)
}

func TestOptionalOverlays(t *testing.T) {
	cfg := config.Default()
	cfg.HUD = true
	cfg.Hull = true
	cfg.OverlayMode = "direct"

	s, err := New(cfg, viewport.New(64, 64, 1))
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.HUD)
	require.NotNil(t, s.Hull)
	assert.Len(t, s.Hull.Sources, 1)
	assert.Len(t, s.overlays(), 3)

	require.NoError(t, s.Frame(context.Background(), 0))
	require.NoError(t, s.Frame(context.Background(), 0.1))
	assert.Contains(t, s.HUD.Lines(), "0 fps  frame 2")
}

func TestScriptDrivesSprites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
		function frame(t)
			sprites.tile:translate(0, 0, 5 + t)
		end
	`), 0o644))

	cfg := config.Default()
	cfg.Script = path
	s, err := New(cfg, viewport.New(16, 16, 1))
	require.NoError(t, err)
	defer s.Close()
	require.NotNil(t, s.Script)

	require.NoError(t, s.Frame(context.Background(), 2))
	assert.Equal(t, math3d.V3(0, 0, 7), s.Sprite("tile").Position())
}

func TestBrokenScriptIsDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function (`), 0o644))

	cfg := config.Default()
	cfg.Script = path
	s, err := New(cfg, viewport.New(16, 16, 1))
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Script)
	assert.NoError(t, s.Frame(context.Background(), 0))
}

func TestNewFailsOnBadSource(t *testing.T) {
	cfg := config.Default()
	cfg.Sprites[0].Source = config.SourceVox
	cfg.Sprites[0].Path = filepath.Join(t.TempDir(), "missing.vox")

	_, err := New(cfg, viewport.New(16, 16, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sprite cube")
}

func TestLoadRawShapeMismatch(t *testing.T) {
	raw := config.Sprite{Name: "raw", Source: config.SourceRaw, Raw: &config.Raw{Width: 2, Height: 2, Depth: 2, Data: make([]byte, 3)}}

	_, err := LoadGrid(raw)
	assert.ErrorIs(t, err, voxel.ErrShapeMismatch)

	_, err = LoadTexture(raw)
	assert.ErrorIs(t, err, render.ErrShapeMismatch)

	raw.Raw.Width = 0
	_, err = LoadTexture(raw)
	assert.ErrorIs(t, err, render.ErrResourceCreation)
}

func TestLoadRaw(t *testing.T) {
	raw := config.Sprite{Source: config.SourceRaw, Raw: &config.Raw{Width: 1, Height: 1, Depth: 1, Data: []byte{1, 2, 3, 4}}}

	g, err := LoadGrid(raw)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 4}, g.Volume().VoxelAt(0, 0, 0))

	tex, err := LoadTexture(raw)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 4}, tex.GetPixel(0, 0))
}

func TestPointerControl(t *testing.T) {
	tr := sprite.NewTransform(math3d.V3(0, 0, 2), math3d.V3(1, 1, 1), 1, 9, 2, 1)
	c := NewPointerControl(&tr, 30, config.Smoothing{Frequency: 4, Damping: 1})

	c.Update(viewport.Pointer{X: 0.5, Y: -2, Down: true})
	yaw, pitch := c.Target()
	assert.InDelta(t, -math.Pi/2, yaw, 1e-12)
	assert.InDelta(t, math.Pi, pitch, 1e-12, "pitch is clamped")

	// Released pointer movement is ignored; the latched target stays.
	for range 300 {
		c.Update(viewport.Pointer{X: -1, Y: 1})
	}
	assert.InDelta(t, -math.Pi/2, tr.Rotation().Y, 1e-3)
	assert.InDelta(t, math.Pi, tr.Rotation().X, 1e-3)
}

func TestPointerControlEasesFromCurrentRotation(t *testing.T) {
	tr := sprite.NewTransform(math3d.V3(0, 0, 2), math3d.V3(1, 1, 1), 1, 9, 2, 1)
	tr.RotateY(1)
	c := NewPointerControl(&tr, 30, config.Smoothing{Frequency: 4, Damping: 1})

	c.Update(viewport.Pointer{})
	y := tr.Rotation().Y
	assert.Less(t, y, 1.0)
	assert.Greater(t, y, 0.0, "critically damped springs do not jump to the target")
}

func TestLoopFrameLimit(t *testing.T) {
	s := demoScene(t, 8, 8)
	l := &Loop{Scene: s, FPS: 30, Frames: 3, Unthrottled: true}

	n := 0
	require.NoError(t, l.Run(context.Background(), PresenterFunc(func(*render.Framebuffer) error {
		n++
		return nil
	})))
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, l.Frame())
	assert.ErrorIs(t, l.Step(context.Background(), PresenterFunc(func(*render.Framebuffer) error { return nil })), ErrDone)
}

func TestLoopStops(t *testing.T) {
	s := demoScene(t, 8, 8)
	boom := errors.New("boom")

	tests := []struct {
		name    string
		present error
		want    error
	}{
		{"presenter done", ErrDone, nil},
		{"presenter error", boom, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loop{Scene: s, FPS: 1000}
			err := l.Run(context.Background(), PresenterFunc(func(*render.Framebuffer) error { return tt.present }))
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, 1, l.Frame())
		})
	}
}

func TestLoopCancelled(t *testing.T) {
	s := demoScene(t, 8, 8)
	ctx, cancel := context.WithCancel(context.Background())

	l := &Loop{Scene: s, FPS: 1000}
	err := l.Run(ctx, PresenterFunc(func(*render.Framebuffer) error {
		if l.Frame() == 2 {
			cancel()
		}
		return nil
	}))
	assert.NoError(t, err)
	assert.Equal(t, 2, l.Frame())
}

func TestTee(t *testing.T) {
	var order []string
	p := Tee(
		PresenterFunc(func(*render.Framebuffer) error { order = append(order, "a"); return nil }),
		PresenterFunc(func(*render.Framebuffer) error { order = append(order, "b"); return ErrDone }),
		PresenterFunc(func(*render.Framebuffer) error { order = append(order, "c"); return nil }),
	)
	assert.ErrorIs(t, p.Present(nil), ErrDone)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRecorderGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	rec, err := NewRecorder(path, 20)
	require.NoError(t, err)

	l := &Loop{Scene: demoScene(t, 16, 12), FPS: 20, Frames: 4, Unthrottled: true}
	require.NoError(t, l.Run(context.Background(), rec))
	require.Equal(t, 4, rec.Frames())
	require.NoError(t, rec.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 4)
	assert.Equal(t, []int{5, 5, 5, 5}, g.Delay)
	assert.Equal(t, 16, g.Image[0].Bounds().Dx())
}

func TestRecorderPNGKeepsLastFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	rec, err := NewRecorder(path, 30)
	require.NoError(t, err)

	l := &Loop{Scene: demoScene(t, 16, 16), FPS: 30, Frames: 2, Unthrottled: true}
	require.NoError(t, l.Run(context.Background(), rec))
	assert.Equal(t, 1, rec.Frames())
	require.NoError(t, rec.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestRecorderRejectsUnknownExtension(t *testing.T) {
	_, err := NewRecorder("frame.jpg", 30)
	assert.ErrorIs(t, err, ErrOutputFormat)

	rec, err := NewRecorder(filepath.Join(t.TempDir(), "empty.gif"), 30)
	require.NoError(t, err)
	assert.NoError(t, rec.Close())
}
