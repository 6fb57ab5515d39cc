// Package viewport tracks the size of the visible drawing surface and the
// pointer state sampled from it.
package viewport

import (
	"sync"

	"github.com/google/uuid"
)

// Size is a surface size in pixels.
type Size struct {
	Width, Height int
}

// Viewport is the logical (client) size of the output together with its
// pixel ratio. The physical size, client size × ratio, is what drawing
// targets are allocated at.
//
// Resize listeners run synchronously on the goroutine calling Resize, in
// subscription order.
type Viewport struct {
	mu        sync.Mutex
	client    Size
	ratio     float64
	pointer   Pointer
	listeners []listener
}

type listener struct {
	id uuid.UUID
	fn func(Size)
}

// New creates a viewport with the given client size and pixel ratio.
// A ratio of 0 or less is treated as 1.
func New(width, height int, ratio float64) *Viewport {
	if ratio <= 0 {
		ratio = 1
	}
	return &Viewport{
		client:  Size{width, height},
		ratio:   ratio,
		pointer: Pointer{X: -256, Y: -256},
	}
}

// ClientSize returns the logical size.
func (v *Viewport) ClientSize() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.client
}

// PixelRatio returns the device pixel ratio.
func (v *Viewport) PixelRatio() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ratio
}

// PhysicalSize returns the drawing buffer size in pixels.
func (v *Viewport) PhysicalSize() Size {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.physical()
}

func (v *Viewport) physical() Size {
	return Size{
		Width:  int(float64(v.client.Width) * v.ratio),
		Height: int(float64(v.client.Height) * v.ratio),
	}
}

// Resize updates the client size and notifies every listener with the new
// physical size. Resizing to the current size still notifies.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	v.client = Size{width, height}
	phys := v.physical()
	fns := make([]func(Size), len(v.listeners))
	for i, l := range v.listeners {
		fns[i] = l.fn
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(phys)
	}
}

// SetPixelRatio changes the pixel ratio and notifies listeners.
func (v *Viewport) SetPixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	v.mu.Lock()
	v.ratio = ratio
	c := v.client
	v.mu.Unlock()
	v.Resize(c.Width, c.Height)
}

// OnResize registers fn to run after every resize and returns an id for
// Unsubscribe.
func (v *Viewport) OnResize(fn func(Size)) uuid.UUID {
	id := uuid.New()
	v.mu.Lock()
	v.listeners = append(v.listeners, listener{id: id, fn: fn})
	v.mu.Unlock()
	return id
}

// Unsubscribe removes a resize listener. Unknown ids are ignored.
func (v *Viewport) Unsubscribe(id uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, l := range v.listeners {
		if l.id == id {
			v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of registered resize listeners.
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
