package render

import (
	"math"

	"github.com/taigrr/voxsprite/pkg/math3d"
)

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Pixel coordinates, y down
	Z    float64 // NDC depth
	InvW float64 // 1/w for perspective-correct interpolation
}

// project maps a local-space point through mvp onto a width×height pixel
// grid. It fails for points on or behind the camera plane (w <= 0).
func project(mvp math3d.Mat4, p math3d.Vec3, width, height int) (screenVertex, bool) {
	clip := mvp.MulVec4(math3d.Point(p))
	if clip.W <= 0 {
		return screenVertex{}, false
	}
	invW := 1.0 / clip.W
	return screenVertex{
		X:    (clip.X*invW + 1) * 0.5 * float64(width),
		Y:    (1 - clip.Y*invW) * 0.5 * float64(height), // Y flipped
		Z:    clip.Z * invW,
		InvW: invW,
	}, true
}

// edgeCoeffs returns A, B, C such that A*x + B*y + C is the signed
// parallelogram area of (x0,y0), (x1,y1) and a point (x, y).
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1
	B = x1 - x0
	C = x0*y1 - x1*y0
	return
}

// fragmentFunc receives one covered pixel: its NDC depth and the
// perspective-correct barycentric weights of the three vertices.
type fragmentFunc func(x, y int, z float64, bc [3]float64)

// rasterizeTriangle walks the pixel centres covered by sv inside a
// width×height target using incremental edge functions. Both windings
// are drawn. Fragments with depth outside [-1, 1] are clipped.
func rasterizeTriangle(sv [3]screenVertex, width, height int, fn fragmentFunc) {
	minX := max(0, int(math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := min(width-1, int(math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := max(0, int(math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := min(height-1, int(math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge i is opposite vertex i.
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	area := A2*sv[2].X + B2*sv[2].Y + C2
	if area == 0 {
		return
	}
	invArea := 1.0 / area

	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	w0Row := (A0*px + B0*py + C0) * invArea
	w1Row := (A1*px + B1*py + C1) * invArea
	w2Row := (A2*px + B2*py + C2) * invArea

	// Normalized steps keep the inside test sign-independent of winding.
	dx0, dx1, dx2 := A0*invArea, A1*invArea, A2*invArea
	dy0, dy1, dy2 := B0*invArea, B1*invArea, B2*invArea

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				z := w0*sv[0].Z + w1*sv[1].Z + w2*sv[2].Z
				if z >= -1 && z <= 1 {
					p0, p1, p2 := w0*sv[0].InvW, w1*sv[1].InvW, w2*sv[2].InvW
					if sum := p0 + p1 + p2; sum > 0 {
						fn(x, y, z, [3]float64{p0 / sum, p1 / sum, p2 / sum})
					}
				}
			}
			w0 += dx0
			w1 += dx1
			w2 += dx2
		}
		w0Row += dy0
		w1Row += dy1
		w2Row += dy2
	}
}

// drawMesh projects the triangles of a small indexed mesh and rasterizes
// every triangle whose vertices are all in front of the camera.
func drawMesh(mvp math3d.Mat4, verts []math3d.Vec3, tris [][3]int, width, height int, fn func(tri [3]int) fragmentFunc) {
	sv := make([]screenVertex, len(verts))
	ok := make([]bool, len(verts))
	for i, v := range verts {
		sv[i], ok[i] = project(mvp, v, width, height)
	}
	for _, t := range tris {
		if !ok[t[0]] || !ok[t[1]] || !ok[t[2]] {
			continue
		}
		rasterizeTriangle([3]screenVertex{sv[t[0]], sv[t[1]], sv[t[2]]}, width, height, fn(t))
	}
}

func interpolate(a, b, c math3d.Vec3, bc [3]float64) math3d.Vec3 {
	return a.Scale(bc[0]).Add(b.Scale(bc[1])).Add(c.Scale(bc[2]))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
