package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/voxsprite/pkg/config"
	"github.com/taigrr/voxsprite/pkg/sprite"
	"github.com/taigrr/voxsprite/pkg/viewport"
)

// PointerControl turns a sprite to face the pointer. While the pointer is
// down its position is latched; every update eases yaw toward -px·π and
// pitch toward -py·π, clamped to [-π, π].
type PointerControl struct {
	target *sprite.Transform
	spring harmonica.Spring

	px, py        float64
	yaw, yawVel   float64
	pitch, pitVel float64
}

// NewPointerControl creates a control stepping its springs fps times a
// second. The sprite eases from its current rotation.
func NewPointerControl(t *sprite.Transform, fps int, s config.Smoothing) *PointerControl {
	rot := t.Rotation()
	return &PointerControl{
		target: t,
		spring: harmonica.NewSpring(harmonica.FPS(fps), s.Frequency, s.Damping),
		yaw:    rot.Y,
		pitch:  rot.X,
	}
}

// Update samples p and advances the springs by one frame.
func (c *PointerControl) Update(p viewport.Pointer) {
	if p.Down {
		c.px, c.py = p.X, p.Y
	}
	yaw, pitch := c.Target()
	c.yaw, c.yawVel = c.spring.Update(c.yaw, c.yawVel, yaw)
	c.pitch, c.pitVel = c.spring.Update(c.pitch, c.pitVel, pitch)
	c.target.RotateY(c.yaw)
	c.target.RotateX(c.pitch)
}

// Target returns the angles the springs are heading for.
func (c *PointerControl) Target() (yaw, pitch float64) {
	return -c.px * math.Pi, min(max(-math.Pi, -c.py*math.Pi), math.Pi)
}
