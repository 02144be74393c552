package geom

import (
	"math"
	"testing"
)

func TestTriangleArea(t *testing.T) {
	area := TriangleArea(Vec3{0, 0, 0}, Vec3{2, 0, 0}, Vec3{0, 3, 0})
	if math.Abs(area-3) > 1e-12 {
		t.Errorf("area = %v, want 3", area)
	}
}

func TestTetVolume(t *testing.T) {
	vol := TetVolume(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1})
	if math.Abs(vol-1.0/6.0) > 1e-12 {
		t.Errorf("volume = %v, want 1/6", vol)
	}
}

func TestSignedTriVolumeCubeClosure(t *testing.T) {
	// A unit cube's 12 triangles, summed and divided by 6, must equal 1.
	min := Vec3{0, 0, 0}
	max := Vec3{1, 1, 1}
	tris := cubeTriangles(min, max)

	sum := 0.0
	for _, tr := range tris {
		sum += SignedTriVolume(tr[0], tr[1], tr[2])
	}
	vol := sum / 6
	if math.Abs(vol-1) > 1e-9 {
		t.Errorf("cube volume = %v, want 1", vol)
	}
}

// cubeTriangles returns 12 outward-wound triangles covering an axis-aligned
// box, the watertight closure TestSignedTriVolumeCubeClosure sums over.
func cubeTriangles(min, max Vec3) [][3]Vec3 {
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z

	v := func(x, y, z float64) Vec3 { return Vec3{x, y, z} }

	return [][3]Vec3{
		// -x face (normal -x)
		{v(x0, y0, z0), v(x0, y0, z1), v(x0, y1, z1)},
		{v(x0, y0, z0), v(x0, y1, z1), v(x0, y1, z0)},
		// +x face
		{v(x1, y0, z0), v(x1, y1, z0), v(x1, y1, z1)},
		{v(x1, y0, z0), v(x1, y1, z1), v(x1, y0, z1)},
		// -y face
		{v(x0, y0, z0), v(x1, y0, z0), v(x1, y0, z1)},
		{v(x0, y0, z0), v(x1, y0, z1), v(x0, y0, z1)},
		// +y face
		{v(x0, y1, z0), v(x0, y1, z1), v(x1, y1, z1)},
		{v(x0, y1, z0), v(x1, y1, z1), v(x1, y1, z0)},
		// -z face
		{v(x0, y0, z0), v(x0, y1, z0), v(x1, y1, z0)},
		{v(x0, y0, z0), v(x1, y1, z0), v(x1, y0, z0)},
		// +z face
		{v(x0, y0, z1), v(x1, y0, z1), v(x1, y1, z1)},
		{v(x0, y0, z1), v(x1, y1, z1), v(x0, y1, z1)},
	}
}
