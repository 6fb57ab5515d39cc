// Package sprite holds the placement state shared by voxel and plane
// sprites and the sprites themselves.
package sprite

import (
	"github.com/google/uuid"
	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/viewport"
)

// Perspective describes the projection volume. Left/Right/Bottom/Top are
// derived from the viewport; Near, Far, Ratio and Size are set directly.
type Perspective struct {
	Left, Right, Bottom, Top float64
	Near, Far                float64
	// Ratio is the clip w at the far plane relative to the near plane.
	// 1 is orthographic.
	Ratio float64
	// Size scales the derived bounds; larger shows more of the scene.
	Size float64
}

// Transform is a sprite's placement. Every setter recomputes the model,
// projection, MVP and inverse model matrices before it returns, so the
// matrices always match the inputs.
type Transform struct {
	position math3d.Vec3
	rotation math3d.Vec3
	scale    math3d.Vec3
	persp    Perspective
	view     viewport.Size

	model      math3d.Mat4
	projection math3d.Mat4
	mvp        math3d.Mat4
	inverse    math3d.Mat4

	vp  *viewport.Viewport
	sub uuid.UUID
}

// NewTransform creates a transform at position with scale and the given
// projection depth range and ratio. The projection bounds start as the
// unit square scaled by size until SetPerspective sees a viewport.
func NewTransform(position, scale math3d.Vec3, near, far, ratio, size float64) Transform {
	t := Transform{
		position: position,
		scale:    scale,
		persp:    Perspective{Near: near, Far: far, Ratio: ratio, Size: size},
		view:     viewport.Size{Width: 1, Height: 1},
	}
	t.derive()
	return t
}

// Translate moves the sprite to (left, down, near) in world space.
func (t *Transform) Translate(left, down, near float64) {
	t.position = math3d.V3(left, down, near)
	t.update()
}

// RotateX sets the rotation about the X axis in radians.
func (t *Transform) RotateX(radian float64) {
	t.rotation.X = radian
	t.update()
}

// RotateY sets the rotation about the Y axis in radians.
func (t *Transform) RotateY(radian float64) {
	t.rotation.Y = radian
	t.update()
}

// RotateZ sets the rotation about the Z axis in radians.
func (t *Transform) RotateZ(radian float64) {
	t.rotation.Z = radian
	t.update()
}

// Scale sets the half extents of the sprite.
func (t *Transform) Scale(width, height, depth float64) {
	t.scale = math3d.V3(width, height, depth)
	t.update()
}

// SetSize scales the projection bounds and re-derives them from the last
// viewport seen.
func (t *Transform) SetSize(size float64) {
	t.persp.Size = size
	t.derive()
}

// SetDepthRange sets the near and far planes and the perspective ratio.
func (t *Transform) SetDepthRange(near, far, ratio float64) {
	t.persp.Near, t.persp.Far, t.persp.Ratio = near, far, ratio
	t.update()
}

// SetPerspective derives the projection bounds from a physical viewport
// size: the shorter side spans [-1, 1], the longer side is stretched by
// long/short, and both are multiplied by the size.
func (t *Transform) SetPerspective(s viewport.Size) {
	t.view = s
	t.derive()
}

func (t *Transform) derive() {
	w, h := 1.0, 1.0
	if t.view.Width > 0 && t.view.Height > 0 {
		if t.view.Height > t.view.Width {
			h = float64(t.view.Height) / float64(t.view.Width)
		} else {
			w = float64(t.view.Width) / float64(t.view.Height)
		}
	}
	w *= t.persp.Size
	h *= t.persp.Size
	t.persp.Left, t.persp.Right = -w, w
	t.persp.Bottom, t.persp.Top = -h, h
	t.update()
}

func (t *Transform) update() {
	t.model = math3d.Translate(t.position).
		Mul(math3d.RotateX(t.rotation.X)).
		Mul(math3d.RotateY(t.rotation.Y)).
		Mul(math3d.RotateZ(t.rotation.Z)).
		Mul(math3d.Scale(t.scale))
	p := t.persp
	t.projection = math3d.Frustum(p.Left, p.Right, p.Bottom, p.Top, p.Near, p.Far, p.Ratio)
	t.mvp = t.projection.Mul(t.model)
	t.inverse = t.model.Inverse()
}

// RegisterAutoResize applies vp's current size and re-derives the
// projection whenever vp is resized. Registering again while registered
// does nothing.
func (t *Transform) RegisterAutoResize(vp *viewport.Viewport) {
	if t.vp != nil {
		return
	}
	t.vp = vp
	t.sub = vp.OnResize(t.SetPerspective)
	t.SetPerspective(vp.PhysicalSize())
}

// ReleaseAutoResize stops following viewport resizes. It does nothing
// when no subscription is held.
func (t *Transform) ReleaseAutoResize() {
	if t.vp == nil {
		return
	}
	t.vp.Unsubscribe(t.sub)
	t.vp = nil
}

// AutoResizing reports whether the transform follows a viewport.
func (t *Transform) AutoResizing() bool {
	return t.vp != nil
}

// Model returns Translate·RotateX·RotateY·RotateZ·Scale.
func (t *Transform) Model() math3d.Mat4 { return t.model }

// Projection returns the perspective matrix.
func (t *Transform) Projection() math3d.Mat4 { return t.projection }

// MVP returns Projection·Model.
func (t *Transform) MVP() math3d.Mat4 { return t.mvp }

// ModelInverse returns the inverse of Model.
func (t *Transform) ModelInverse() math3d.Mat4 { return t.inverse }

// Ratio returns the perspective ratio.
func (t *Transform) Ratio() float64 { return t.persp.Ratio }

// Position returns the translation.
func (t *Transform) Position() math3d.Vec3 { return t.position }

// Rotation returns the rotation angles about X, Y and Z.
func (t *Transform) Rotation() math3d.Vec3 { return t.rotation }

// Extents returns the scale factors.
func (t *Transform) Extents() math3d.Vec3 { return t.scale }

// Perspective returns the projection parameters.
func (t *Transform) Perspective() Perspective { return t.persp }
