package voxel

import (
	"image/color"
	"math"

	"github.com/taigrr/voxsprite/pkg/math3d"
	"github.com/taigrr/voxsprite/pkg/models"
)

// Voxelize rasterizes the surface of mesh into a width×height×depth buffer.
// The mesh is scaled uniformly to fit the grid and centred in it. Each cell
// touched by a triangle takes the triangle's material base color, or opaque
// white when the face has no material.
func Voxelize(mesh *models.Mesh, width, height, depth int) *Buffer {
	b := NewBuffer(width, height, depth)
	if mesh == nil || len(mesh.Faces) == 0 {
		return b
	}

	mesh.CalculateBounds()
	center := mesh.Center()
	size := mesh.Size()

	fit := math.Inf(1)
	for axis, n := range [3]int{width, height, depth} {
		if ext := size.Axis(axis); ext > 0 {
			fit = math.Min(fit, float64(n)/ext)
		}
	}
	if math.IsInf(fit, 1) {
		fit = 1
	}

	toGrid := func(p math3d.Vec3) math3d.Vec3 {
		q := p.Sub(center).Scale(fit)
		return math3d.V3(
			q.X+float64(width)/2,
			float64(height)/2-q.Y,
			q.Z+float64(depth)/2,
		)
	}

	for _, f := range mesh.Faces {
		c := faceColor(mesh, f)
		a := toGrid(mesh.Vertices[f.V[0]].Position)
		e1 := toGrid(mesh.Vertices[f.V[1]].Position).Sub(a)
		e2 := toGrid(mesh.Vertices[f.V[2]].Position).Sub(a)

		// Sample on a lattice spaced at most half a cell along each edge.
		// Slivers narrower than that can still fall between samples.
		longest := math.Max(e1.Len(), math.Max(e2.Len(), e2.Sub(e1).Len()))
		n := int(math.Ceil(longest*2)) + 1

		for i := 0; i <= n; i++ {
			for j := 0; i+j <= n; j++ {
				u, v := float64(i)/float64(n), float64(j)/float64(n)
				p := a.Add(e1.Scale(u)).Add(e2.Scale(v))
				b.Set(cell(p.X, width), cell(p.Y, height), cell(p.Z, depth), c)
			}
		}
	}
	return b
}

// cell converts a grid coordinate to an index, folding the far face into the
// last cell.
func cell(v float64, n int) int {
	i := int(math.Floor(v))
	if i == n {
		i = n - 1
	}
	return i
}

func faceColor(mesh *models.Mesh, f models.Face) color.RGBA {
	mat := mesh.GetMaterial(f.Material)
	if mat == nil {
		return color.RGBA{255, 255, 255, 255}
	}
	to8 := func(v float64) uint8 {
		return uint8(math3d.Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.RGBA{to8(mat.BaseColor[0]), to8(mat.BaseColor[1]), to8(mat.BaseColor[2]), to8(mat.BaseColor[3])}
}
