package render

import (
	"math"
	"testing"

	"github.com/taigrr/voxsprite/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", plane.Normal.Len())
	}
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}

	zero := Plane{D: 3}
	zero.Normalize()
	if zero.D != 3 {
		t.Errorf("degenerate plane changed: %v", zero)
	}
}

func TestAABBTransform(t *testing.T) {
	t.Run("translation", func(t *testing.T) {
		got := UnitCube.Transform(math3d.Translate(math3d.V3(10, 20, 30)))
		if got.Min != math3d.V3(9, 19, 29) || got.Max != math3d.V3(11, 21, 31) {
			t.Errorf("translated = %v, want (9,19,29)-(11,21,31)", got)
		}
	})

	t.Run("rotation grows bounds", func(t *testing.T) {
		got := UnitCube.Transform(math3d.RotateY(math.Pi / 4))
		want := math.Sqrt2
		if math.Abs(got.Max.X-want) > 1e-9 || math.Abs(got.Min.Z+want) > 1e-9 {
			t.Errorf("rotated = %v, want x/z extent %v", got, want)
		}
		if math.Abs(got.Max.Y-1) > 1e-9 {
			t.Errorf("rotated Y max = %v, want 1", got.Max.Y)
		}
	})
}

func TestFrustumContainsPoint(t *testing.T) {
	// near 1, far 9, w doubles from near to far.
	f := NewFrustumFromMatrix(math3d.Frustum(-1, 1, -1, 1, 1, 9, 2))

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center", math3d.V3(0, 0, 5), true},
		{"before near", math3d.V3(0, 0, 0.5), false},
		{"past far", math3d.V3(0, 0, 10), false},
		{"wide at far end", math3d.V3(1.9, 0, 8.9), true},
		{"too wide mid depth", math3d.V3(2.5, 0, 5), false},
		{"below", math3d.V3(0, -1.2, 1.1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectUnitCubeUnderMVP(t *testing.T) {
	proj := math3d.Frustum(-1, 1, -1, 1, 1, 9, 2)
	half := math3d.Scale(math3d.V3(0.5, 0.5, 0.5))

	tests := []struct {
		name     string
		pos      math3d.Vec3
		expected bool
	}{
		{"in view", math3d.V3(0, 0, 5), true},
		{"straddling near", math3d.V3(0, 0, 1), true},
		{"far right", math3d.V3(10, 0, 5), false},
		{"behind camera", math3d.V3(0, 0, -5), false},
		{"beyond far", math3d.V3(0, 0, 12), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mvp := proj.Mul(math3d.Translate(tc.pos)).Mul(half)
			if got := NewFrustumFromMatrix(mvp).IntersectAABB(UnitCube); got != tc.expected {
				t.Errorf("IntersectAABB at %v = %v, want %v", tc.pos, got, tc.expected)
			}
		})
	}
}

func BenchmarkFrustumExtraction(b *testing.B) {
	m := math3d.Frustum(-1, 1, -1, 1, 1, 9, 2).Mul(math3d.Translate(math3d.V3(0, 0, 5)))
	for b.Loop() {
		_ = NewFrustumFromMatrix(m)
	}
}

func BenchmarkFrustumIntersectAABB(b *testing.B) {
	f := NewFrustumFromMatrix(math3d.Frustum(-1, 1, -1, 1, 1, 9, 2))
	box := UnitCube.Transform(math3d.Translate(math3d.V3(0, 0, 5)))
	for b.Loop() {
		_ = f.IntersectAABB(box)
	}
}
