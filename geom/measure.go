package geom

import "math"

// SignedTriVolume is the per-triangle contribution to a mesh's enclosed
// volume, v0.(v1-v0)x(v2-v0), summed over every surface triangle and divided
// by 6 at the caller (spec.md S4.6).
func SignedTriVolume(v0, v1, v2 Vec3) float64 {
	return v0.Dot(v1.Sub(v0).Cross(v2.Sub(v0)))
}

// TriangleArea is half the magnitude of the cross product of two edges.
func TriangleArea(v0, v1, v2 Vec3) float64 {
	return 0.5 * v1.Sub(v0).Cross(v2.Sub(v0)).Length()
}

// TetVolume is the unsigned volume of a tetrahedron.
func TetVolume(v0, v1, v2, v3 Vec3) float64 {
	vol := v1.Sub(v0).Cross(v2.Sub(v0)).Dot(v3.Sub(v0)) / 6
	return math.Abs(vol)
}
