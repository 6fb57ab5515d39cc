// Package window presents a scene in a desktop window.
package window

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/taigrr/voxsprite/pkg/render"
	"github.com/taigrr/voxsprite/pkg/scene"
)

// Window is an ebiten game that steps a scene loop once per tick. The
// window's outside size drives the scene viewport; the left mouse button
// and cursor drive its pointer.
type Window struct {
	ctx   context.Context
	loop  *scene.Loop
	extra scene.Presenter

	img   *ebiten.Image
	pix   []byte
	ratio float64
}

// New creates a window for loop. Every presented frame is also passed to
// extra when it is not nil.
func New(ctx context.Context, loop *scene.Loop, extra scene.Presenter) *Window {
	return &Window{
		ctx:   ctx,
		loop:  loop,
		extra: extra,
		ratio: loop.Scene.Viewport.PixelRatio(),
	}
}

// Run opens the window and blocks until it is closed, Escape is pressed,
// ctx is done or the loop reaches its frame limit.
func (w *Window) Run(title string) error {
	size := w.loop.Scene.Viewport.ClientSize()
	ebiten.SetWindowSize(size.Width, size.Height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(max(w.loop.FPS, 1))
	return ebiten.RunGame(w)
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	vp := w.loop.Scene.Viewport
	x, y := ebiten.CursorPosition()
	vp.MovePointer(float64(x)/w.ratio, float64(y)/w.ratio)
	vp.SetPointerDown(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))

	err := w.loop.Step(w.ctx, w)
	if errors.Is(err, scene.ErrDone) {
		return ebiten.Termination
	}
	return err
}

// Present implements scene.Presenter by uploading the surface.
func (w *Window) Present(surface *render.Framebuffer) error {
	if w.img == nil || w.img.Bounds().Dx() != surface.Width || w.img.Bounds().Dy() != surface.Height {
		if w.img != nil {
			w.img.Deallocate()
		}
		w.img = ebiten.NewImage(surface.Width, surface.Height)
	}
	w.pix = surface.Premultiplied(w.pix)
	w.img.WritePixels(w.pix)

	if w.extra != nil {
		return w.extra.Present(surface)
	}
	return nil
}

// Draw implements ebiten.Game, stretching the last frame over the screen.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.img == nil {
		return
	}
	sb, ib := screen.Bounds(), w.img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sb.Dx())/float64(ib.Dx()), float64(sb.Dy())/float64(ib.Dy()))
	screen.DrawImage(w.img, op)
}

// Layout implements ebiten.Game. The screen is the viewport's physical
// size; the new client size is queued for the next frame.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	vp := w.loop.Scene.Viewport
	if r := ebiten.Monitor().DeviceScaleFactor(); r > 0 && r != w.ratio {
		w.ratio = r
		vp.SetPixelRatio(r)
	}
	w.loop.Scene.RequestResize(outsideWidth, outsideHeight)
	return max(int(float64(outsideWidth)*w.ratio), 1), max(int(float64(outsideHeight)*w.ratio), 1)
}
