package scene

import (
	"context"
	"errors"
	"time"

	"github.com/taigrr/voxsprite/pkg/render"
)

// ErrDone is returned by Step once the loop has shown its frame limit.
// Presenters may return it to stop the loop early.
var ErrDone = errors.New("scene: done")

// Presenter shows a finished surface.
type Presenter interface {
	Present(surface *render.Framebuffer) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(surface *render.Framebuffer) error

func (f PresenterFunc) Present(surface *render.Framebuffer) error {
	return f(surface)
}

// Tee presents to every presenter in order, stopping at the first error.
func Tee(ps ...Presenter) Presenter {
	return PresenterFunc(func(surface *render.Framebuffer) error {
		for _, p := range ps {
			if err := p.Present(surface); err != nil {
				return err
			}
		}
		return nil
	})
}

// Loop drives a scene at a fixed rate. Scene time advances by 1/FPS per
// frame regardless of wall time, so runs are reproducible.
type Loop struct {
	Scene *Scene
	FPS   int
	// Frames stops the loop after this many frames; 0 runs until the
	// context is done.
	Frames int
	// Unthrottled renders frames back to back instead of waiting for
	// the next tick.
	Unthrottled bool

	frame int
}

// Frame returns the number of frames shown so far.
func (l *Loop) Frame() int {
	return l.frame
}

// Step renders and presents one frame. Scene failures are logged; a
// presenter error is returned as is.
func (l *Loop) Step(ctx context.Context, p Presenter) error {
	if l.Frames > 0 && l.frame >= l.Frames {
		return ErrDone
	}
	t := float64(l.frame) / float64(max(l.FPS, 1))
	if err := l.Scene.Frame(ctx, t); err != nil {
		slogger().Error("scene: frame failed", "frame", l.frame, "err", err)
	}
	l.frame++
	return p.Present(l.Scene.Compositor.Surface())
}

// Run steps the loop until ctx is done, the frame limit is reached or the
// presenter fails. Reaching the limit or a presenter returning ErrDone is
// a clean stop.
func (l *Loop) Run(ctx context.Context, p Presenter) error {
	var tick <-chan time.Time
	if !l.Unthrottled {
		ticker := time.NewTicker(time.Second / time.Duration(max(l.FPS, 1)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := l.Step(ctx, p); err != nil {
			if errors.Is(err, ErrDone) {
				return nil
			}
			return err
		}
		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}
