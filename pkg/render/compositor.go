package render

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/google/uuid"
	"github.com/taigrr/voxsprite/pkg/viewport"
	"golang.org/x/image/draw"
)

// OverlayMode selects where 2D overlays are drawn.
type OverlayMode int

const (
	// OverlayTarget draws overlays into the off-screen target, depth
	// tested against the voxel pass.
	OverlayTarget OverlayMode = iota
	// OverlayDirect draws overlays onto the visible surface before the
	// target is blitted over it.
	OverlayDirect
)

func (m OverlayMode) String() string {
	if m == OverlayDirect {
		return "direct"
	}
	return "target"
}

// White is the default clear color for both the surface and the target.
var White = color.RGBA{255, 255, 255, 255}

// Options configures a Compositor.
type Options struct {
	SurfaceClear color.RGBA
	FrameClear   color.RGBA
	OverlayMode  OverlayMode
	Workers      int
}

// DefaultOptions clears both buffers to opaque white and draws overlays
// into the target.
func DefaultOptions() Options {
	return Options{SurfaceClear: White, FrameClear: White, Workers: 1}
}

type phase int

const (
	phaseIdle phase = iota
	phaseVoxels
	phaseOverlays
)

var phaseNames = [...]string{"idle", "voxels", "overlays"}

func (p phase) String() string { return phaseNames[p] }

// Compositor owns the visible surface and an off-screen color+depth
// target of the same size. Each frame runs
//
//	Begin → DrawVoxels* → DrawOverlay* → Present
//
// and any call out of that order fails with ErrFrameOrder without
// drawing. Resizes requested mid-frame take effect at the next Begin.
type Compositor struct {
	mu      sync.Mutex
	opts    Options
	phase   phase
	surface *Framebuffer
	target  *Framebuffer
	depth   *DepthBuffer
	raster  *Rasterizer
	pending *viewport.Size
	stats   Stats
}

// NewCompositor allocates a compositor for a physical size.
func NewCompositor(size viewport.Size, opts Options) (*Compositor, error) {
	c := &Compositor{opts: opts}
	if err := c.allocate(size); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Compositor) allocate(size viewport.Size) error {
	surface, err := NewFramebuffer(size.Width, size.Height)
	if err != nil {
		return err
	}
	target, err := NewFramebuffer(size.Width, size.Height)
	if err != nil {
		return err
	}
	depth, err := NewDepthBuffer(size.Width, size.Height)
	if err != nil {
		return err
	}
	c.surface, c.target, c.depth = surface, target, depth
	c.raster = NewRasterizer(target, depth)
	c.raster.Workers = c.opts.Workers
	return nil
}

// Attach subscribes the compositor to vp's resizes and returns the
// subscription id.
func (c *Compositor) Attach(vp *viewport.Viewport) uuid.UUID {
	return vp.OnResize(func(s viewport.Size) {
		if err := c.Resize(s); err != nil {
			slogger().Warn("compositor: resize rejected", "width", s.Width, "height", s.Height, "err", err)
		}
	})
}

// Resize reallocates the surface and target. Between frames it takes
// effect immediately; during a frame it is deferred to the next Begin. A
// non-positive size fails with ErrResourceCreation and keeps the current
// buffers.
func (c *Compositor) Resize(size viewport.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("%w: target %dx%d", ErrResourceCreation, size.Width, size.Height)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseIdle {
		c.pending = &size
		return nil
	}
	if size == c.size() {
		return nil
	}
	slogger().Debug("compositor: resize", "width", size.Width, "height", size.Height)
	return c.allocate(size)
}

func (c *Compositor) size() viewport.Size {
	return viewport.Size{Width: c.target.Width, Height: c.target.Height}
}

// Size returns the current target size.
func (c *Compositor) Size() viewport.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size()
}

func (c *Compositor) expect(op string, allowed ...phase) error {
	for _, p := range allowed {
		if c.phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s during %s phase", ErrFrameOrder, op, c.phase)
}

// Begin starts a frame: it applies any deferred resize, then clears the
// visible surface, the target and the depth buffer.
func (c *Compositor) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("begin", phaseIdle); err != nil {
		return err
	}
	if c.pending != nil {
		size := *c.pending
		c.pending = nil
		if size != c.size() {
			if err := c.allocate(size); err != nil {
				return err
			}
		}
	}
	c.surface.Clear(c.opts.SurfaceClear)
	c.target.Clear(c.opts.FrameClear)
	c.depth.Clear()
	c.raster.ResetStats()
	c.phase = phaseVoxels
	return nil
}

// DrawVoxels draws a voxel sprite into the target.
func (c *Compositor) DrawVoxels(ctx context.Context, src VoxelSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("draw voxels", phaseVoxels); err != nil {
		return err
	}
	return c.raster.DrawVoxels(ctx, src)
}

// DrawOverlay draws a 2D overlay according to the overlay mode. The first
// overlay ends the voxel pass.
func (c *Compositor) DrawOverlay(o Overlay) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("draw overlay", phaseVoxels, phaseOverlays); err != nil {
		return err
	}
	c.phase = phaseOverlays
	if c.opts.OverlayMode == OverlayDirect {
		return o.DrawOverlay(c.surface, nil)
	}
	return o.DrawOverlay(c.target, c.depth)
}

// Present blits the target over the visible surface and ends the frame.
func (c *Compositor) Present() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("present", phaseVoxels, phaseOverlays); err != nil {
		return err
	}
	dst, src := c.surface.Image(), c.target.Image()
	if dst.Bounds() == src.Bounds() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	} else {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	}
	c.stats = c.raster.Stats
	c.phase = phaseIdle
	return nil
}

// Surface returns the visible surface. Its contents are complete after
// Present; the pointer changes on resize.
func (c *Compositor) Surface() *Framebuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Target returns the off-screen target.
func (c *Compositor) Target() *Framebuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Stats returns the rasterizer counters of the last presented frame.
func (c *Compositor) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
