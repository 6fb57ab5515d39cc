// Package scene builds sprites from a config and runs the frame loop that
// animates, composes and presents them.
package scene

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/script"
	"github.com/taigrr/voxsprite/pkg/sprite"
	"github.com/taigrr/voxsprite/pkg/viewport"
)

var hullColor = color.RGBA{255, 0, 255, 255}

// Scene is a set of sprites drawn by one compositor into one viewport.
type Scene struct {
	Viewport   *viewport.Viewport
	Compositor *render.Compositor
	Voxels     []*sprite.VoxelSprite
	Planes     []*sprite.PlaneSprite
	HUD        *render.HUD
	Hull       *render.HullOverlay
	Script     *script.Script
	Controls   []*PointerControl

	mu      sync.Mutex
	pending *viewport.Size
}

// New loads every sprite in cfg and places it in vp. A script that fails
// to load is logged and left out; any other load failure is returned.
func New(cfg *config.Config, vp *viewport.Viewport) (*Scene, error) {
	opts := render.Options{
		SurfaceClear: cfg.Background.ToRGBA(),
		FrameClear:   cfg.FrameClear.ToRGBA(),
		Workers:      cfg.Workers,
	}
	if cfg.OverlayMode == render.OverlayDirect.String() {
		opts.OverlayMode = render.OverlayDirect
	}
	comp, err := render.NewCompositor(vp.PhysicalSize(), opts)
	if err != nil {
		return nil, err
	}
	comp.Attach(vp)

	s := &Scene{Viewport: vp, Compositor: comp}
	for _, sc := range cfg.Sprites {
		if err := s.add(cfg, sc); err != nil {
			return nil, fmt.Errorf("sprite %s: %w", sc.Name, err)
		}
	}

	if cfg.Hull {
		s.Hull = &render.HullOverlay{Color: hullColor}
		for _, v := range s.Voxels {
			s.Hull.Sources = append(s.Hull.Sources, v)
		}
	}
	if cfg.HUD {
		s.HUD = render.NewHUD("voxsprite")
	}
	if cfg.Script != "" {
		s.loadScript(cfg.Script)
	}

	slogger().Info("scene: ready", "voxels", len(s.Voxels), "planes", len(s.Planes),
		"width", comp.Size().Width, "height", comp.Size().Height)
	return s, nil
}

func (s *Scene) add(cfg *config.Config, sc config.Sprite) error {
	switch sc.Kind {
	case config.KindVoxel:
		grid, err := LoadGrid(sc)
		if err != nil {
			return err
		}
		vs := sprite.NewVoxelSprite(sc.Name, grid)
		vs.DiscardMisses = sc.DiscardMisses
		s.place(&vs.Transform, sc, sc.Scale[2])
		if sc.PointerControl {
			s.Controls = append(s.Controls, NewPointerControl(&vs.Transform, cfg.FPS, cfg.Smoothing))
		}
		s.Voxels = append(s.Voxels, vs)
	case config.KindPlane:
		tex, err := LoadTexture(sc)
		if err != nil {
			return err
		}
		ps := sprite.NewPlaneSprite(sc.Name, tex)
		s.place(&ps.Transform, sc, 1)
		if sc.PointerControl {
			s.Controls = append(s.Controls, NewPointerControl(&ps.Transform, cfg.FPS, cfg.Smoothing))
		}
		s.Planes = append(s.Planes, ps)
	default:
		return fmt.Errorf("%w: kind %q", config.ErrInvalid, sc.Kind)
	}
	return nil
}

func (s *Scene) place(t *sprite.Transform, sc config.Sprite, depth float64) {
	pos, scale := sc.Position, sc.Scale
	t.Translate(pos[0], pos[1], pos[2])
	t.RotateX(sc.RotDeg[0] * math.Pi / 180)
	t.RotateY(sc.RotDeg[1] * math.Pi / 180)
	t.RotateZ(sc.RotDeg[2] * math.Pi / 180)
	t.Scale(scale[0], scale[1], depth)

	p := sc.Perspective
	t.SetDepthRange(p.Near, p.Far, p.Ratio)
	t.SetSize(p.Size)
	if sc.Follows() {
		t.RegisterAutoResize(s.Viewport)
	} else {
		t.SetPerspective(s.Viewport.PhysicalSize())
	}
}

func (s *Scene) loadScript(path string) {
	sc := script.New()
	for _, v := range s.Voxels {
		sc.Bind(v.Name, &v.Transform)
	}
	for _, p := range s.Planes {
		sc.Bind(p.Name, &p.Transform)
	}
	if err := sc.LoadFile(path); err != nil {
		slogger().Error("scene: script disabled", "path", path, "err", err)
		sc.Close()
		return
	}
	s.Script = sc
}

// Sprite returns the transform of the named sprite, or nil.
func (s *Scene) Sprite(name string) *sprite.Transform {
	for _, v := range s.Voxels {
		if v.Name == name {
			return &v.Transform
		}
	}
	for _, p := range s.Planes {
		if p.Name == name {
			return &p.Transform
		}
	}
	return nil
}

// RequestResize queues a client size for the next frame. It is safe to
// call from any goroutine; only the latest request is applied.
func (s *Scene) RequestResize(width, height int) {
	s.mu.Lock()
	s.pending = &viewport.Size{Width: width, Height: height}
	s.mu.Unlock()
}

func (s *Scene) applyResize() {
	s.mu.Lock()
	size := s.pending
	s.pending = nil
	s.mu.Unlock()
	if size == nil || *size == s.Viewport.ClientSize() {
		return
	}
	slogger().Debug("scene: resize", "width", size.Width, "height", size.Height)
	s.Viewport.Resize(size.Width, size.Height)
}

// Frame runs one frame at scene time t seconds: it applies a queued
// resize, runs the script and pointer controls, then draws every sprite.
// Draw failures are logged and the frame is still presented; only
// compositor order errors are returned.
func (s *Scene) Frame(ctx context.Context, t float64) error {
	s.applyResize()

	p := s.Viewport.Pointer()
	if s.Script != nil {
		if err := s.Script.Frame(ctx, t, p); err != nil {
			slogger().Warn("scene: script frame skipped", "err", err)
		}
	}
	for _, c := range s.Controls {
		c.Update(p)
	}

	if err := s.Compositor.Begin(); err != nil {
		return err
	}
	for _, v := range s.Voxels {
		if err := s.Compositor.DrawVoxels(ctx, v); err != nil {
			slogger().Warn("scene: voxel draw failed", "sprite", v.Name, "err", err)
		}
	}
	for _, o := range s.overlays() {
		if err := s.Compositor.DrawOverlay(o); err != nil {
			slogger().Warn("scene: overlay failed", "err", err)
		}
	}
	if err := s.Compositor.Present(); err != nil {
		return err
	}
	if s.HUD != nil {
		s.HUD.Tick(s.Compositor.Stats())
	}
	return nil
}

func (s *Scene) overlays() []render.Overlay {
	out := make([]render.Overlay, 0, len(s.Planes)+2)
	for _, p := range s.Planes {
		out = append(out, p)
	}
	if s.Hull != nil {
		out = append(out, s.Hull)
	}
	if s.HUD != nil {
		out = append(out, s.HUD)
	}
	return out
}

// Close releases the sprites' viewport subscriptions and the script.
func (s *Scene) Close() {
	for _, v := range s.Voxels {
		v.ReleaseAutoResize()
	}
	for _, p := range s.Planes {
		p.ReleaseAutoResize()
	}
	if s.Script != nil {
		s.Script.Close()
	}
}
