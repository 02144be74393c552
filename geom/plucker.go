package geom

import "math"

// machineEpsilon is 2^-52, the double-precision unit round-off.
const machineEpsilon = 2.220446049250313e-16

// ZeroTol is the clamp threshold for a Plucker test result: anything smaller
// in magnitude is numerical noise from the edge cancellation and is treated
// as exactly zero (spec.md S4.1).
const ZeroTol = 20 * machineEpsilon

// TetTol is intentionally absent: tetrahedron containment (tetra.go) applies
// no tolerance at all, per spec.md S4.2.

// Orientation is the face-cull argument to IntersectTriangle: +1 rejects a
// back-facing hit, -1 rejects a front-facing hit. OrientationNone disables
// the cull and instead requires all nonzero pip values to agree in sign.
type Orientation int

const (
	OrientationNone Orientation = 0
	OrientationCullBack Orientation = 1
	OrientationCullFront Orientation = -1
)

// TriangleQuery carries the optional distance bounds and orientation filter
// for a single Plucker test (spec.md S4.1's "Input").
type TriangleQuery struct {
	TMax float64 // required; pass math.Inf(1) for an unlimited ray

	HasTMin bool
	TMin    float64 // negative, when present

	Orientation Orientation
}

// IntersectTriangle implements the Plucker-coordinate ray/triangle test of
// spec.md S4.1. v0,v1,v2 define the triangle with front-facing normal
// (v1-v0)x(v2-v0); origin/dir define the ray (dir need not be unit length
// for this routine, but callers in this module always pass a unit vector).
//
// Edge canonicalization: for each edge, the tail is the lexicographically
// smaller of its two endpoints (strict order on x, then y, then z); if that
// reverses the triangle's winding for that edge, the resulting pip value is
// negated. This is what makes two triangles sharing an edge agree bit-
// exactly on the Plucker value for that edge.
func IntersectTriangle(origin, dir, v0, v1, v2 Vec3, q TriangleQuery) (hit bool, t float64) {
	// Edge i is opposite vertex (i+2) mod 3: edge0=(v0,v1), edge1=(v1,v2), edge2=(v2,v0).
	edgeHeadTail := [3][2]Vec3{
		{v0, v1},
		{v1, v2},
		{v2, v0},
	}

	uCrossR := dir.Cross(origin)

	var pip [3]float64
	for i, e := range edgeHeadTail {
		a, b := e[0], e[1]
		tail, head := a, b
		negate := false
		if b.Less(a) {
			tail, head = b, a
			negate = true
		}
		edgeDir := head.Sub(tail)
		v := pluckerTest(dir, uCrossR, edgeDir, tail)
		if negate {
			v = -v
		}
		if math.Abs(v) < ZeroTol {
			v = 0
		}
		pip[i] = v
	}

	switch {
	case q.Orientation != OrientationNone:
		ori := float64(q.Orientation)
		for _, v := range pip {
			if ori*v > 0 {
				return false, 0
			}
		}
	default:
		sign := 0
		for _, v := range pip {
			if v == 0 {
				continue
			}
			s := 1
			if v < 0 {
				s = -1
			}
			if sign == 0 {
				sign = s
			} else if sign != s {
				return false, 0
			}
		}
	}

	if pip[0] == 0 && pip[1] == 0 && pip[2] == 0 {
		return false, 0 // coplanar
	}

	sum := pip[0] + pip[1] + pip[2]
	if sum == 0 {
		return false, 0
	}

	w0 := pip[0] / sum
	w1 := pip[1] / sum
	w2 := pip[2] / sum

	// Cyclic map: edge i's weight lands on the vertex opposite that edge,
	// i.e. w0 (from edge v0-v1) weights v2, w1 (edge v1-v2) weights v0, w2
	// (edge v2-v0) weights v1. Not a typo — see spec.md S9, open question 1.
	p := v2.Scale(w0).Add(v0.Scale(w1)).Add(v1.Scale(w2))

	axis := dir.MaxAxis()
	u := dir.Component(axis)
	if u == 0 {
		return false, 0
	}
	t = (p.Component(axis) - origin.Component(axis)) / u

	if t > q.TMax {
		return false, 0
	}
	if q.HasTMin {
		if t <= q.TMin {
			return false, 0
		}
	} else if t < 0 {
		return false, 0
	}

	return true, t
}

// pluckerTest computes u.(e x v) + (u x r).e for one edge, matching
// spec.md's pip_i = u.(e×v) + (u×r)·e exactly.
func pluckerTest(u, uCrossR, edgeDir, tail Vec3) float64 {
	return u.Dot(edgeDir.Cross(tail)) + uCrossR.Dot(edgeDir)
}
