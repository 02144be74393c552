package geom

// tetFaces is the fixed winding of spec.md S4.2: face i is the triangle
// opposite vertex 3-i, wound outward.
var tetFaces = [4][3]int{
	{0, 2, 1},
	{0, 1, 3},
	{0, 3, 2},
	{1, 2, 3},
}

// TetContains implements the signed-face-test containment check of
// spec.md S4.2. Unlike the Plucker kernel, no tolerance is applied: a face
// test of exactly zero means p lies in that face's plane and is compatible
// with either sign, so a point on a face of the tet is reported as inside;
// the result is "outside" only when the nonzero signs disagree.
func TetContains(p, v0, v1, v2, v3 Vec3) bool {
	verts := [4]Vec3{v0, v1, v2, v3}

	sign := 0
	for _, face := range tetFaces {
		a, b, c := verts[face[0]], verts[face[1]], verts[face[2]]
		val := a.Sub(p).Cross(b.Sub(p)).Dot(c.Sub(p))
		if val == 0 {
			continue
		}
		s := 1
		if val < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	return true
}
