package viewport

// Pointer is the pointer state in normalized viewport coordinates. The
// shorter side of the viewport spans [-1, 1]; the longer side is stretched
// by long/short so a unit of X equals a unit of Y on screen. Y grows
// downward.
type Pointer struct {
	X, Y float64
	Down bool
}

// MovePointer records a pointer position given in client pixels.
func (v *Viewport) MovePointer(clientX, clientY float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	w, h := float64(v.client.Width), float64(v.client.Height)
	if w <= 0 || h <= 0 {
		return
	}
	x := clientX/w*2 - 1
	y := clientY/h*2 - 1
	if w > h {
		x *= w / h
	} else {
		y *= h / w
	}
	v.pointer.X, v.pointer.Y = x, y
}

// SetPointerDown records whether the primary button or touch is held.
func (v *Viewport) SetPointerDown(down bool) {
	v.mu.Lock()
	v.pointer.Down = down
	v.mu.Unlock()
}

// Pointer returns the current pointer state.
func (v *Viewport) Pointer() Pointer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pointer
}
