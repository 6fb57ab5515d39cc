package voxel

import (
	"github.com/taigrr/voxsprite/pkg/math3d"
)

// Ray is a ray in a sprite's local cube space, where the grid occupies
// [-1,1] on every axis and +Y points up.
type Ray struct {
	Origin math3d.Vec3
	Dir    math3d.Vec3
}

// gridPosition maps the ray origin into grid-index space. Y is flipped so
// that index row 0 is the top of the cube.
func (r Ray) gridPosition(w, h, d int) [3]float64 {
	return [3]float64{
		(r.Origin.X + 1) / 2 * float64(w),
		(1 - r.Origin.Y) / 2 * float64(h),
		(r.Origin.Z + 1) / 2 * float64(d),
	}
}

// CameraRay builds the ray for one sample on a sprite's surface.
//
// The camera sits at the world origin; modelInverse brings it into the
// sprite's local space. With a perspective ratio above 1 every sample gets
// its own direction from the camera through the surface point. Otherwise
// all samples share the direction from the camera to the sprite's origin.
func CameraRay(modelInverse math3d.Mat4, surface math3d.Vec3, ratio float64) Ray {
	camera := modelInverse.MulVec4(math3d.V4(0, 0, 0, 1)).PerspectiveDivide()

	dir := camera.Negate()
	if ratio > 1 {
		dir = surface.Sub(camera)
	}
	return Ray{Origin: surface, Dir: dir}
}
