// Package geom provides the double-precision vector, bounding-box, and
// intersection kernels that every higher layer of XDG is built on.
package geom

import "math"

// Vec3 is a point or direction in R^3, always double precision. Every
// coordinate that crosses a query boundary in XDG is a Vec3 — there is no
// single-precision mirror in the core.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Negate() Vec3 { return Vec3{-a.X, -a.Y, -a.Z} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) LengthSq() float64 { return a.Dot(a) }
func (a Vec3) Length() float64   { return math.Sqrt(a.LengthSq()) }

// Normalize returns a unit vector along a. The zero vector normalizes to
// itself; callers that can hand in a zero direction must check first.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Component returns the i'th coordinate (0=X, 1=Y, 2=Z), used by the
// Plucker kernel to pick the axis of the ray direction's largest magnitude.
func (a Vec3) Component(i int) float64 {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

// MaxAxis returns the index (0,1,2) of the component of a with the largest
// absolute value.
func (a Vec3) MaxAxis() int {
	ax, ay, az := math.Abs(a.X), math.Abs(a.Y), math.Abs(a.Z)
	axis := 0
	best := ax
	if ay > best {
		axis, best = 1, ay
	}
	if az > best {
		axis = 2
	}
	return axis
}

func MinVec(a, b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func MaxVec(a, b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// Less implements the strict lexicographic order (x, then y, then z) the
// Plucker kernel uses to canonicalize edge direction.
func (a Vec3) Less(b Vec3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// TriangleNormal returns the (unnormalized) front-facing normal of a
// triangle under the convention (v1-v0) x (v2-v0).
func TriangleNormal(v0, v1, v2 Vec3) Vec3 {
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

// DefaultProbeDirection is point_in_volume's fixed probe when the caller
// supplies none (spec.md S4.4): arbitrary and non-axial, since an
// axis-aligned probe risks tangent hits against meshes with axis-planar
// triangles (spec.md S9 open question).
var DefaultProbeDirection = Vec3{X: 0.7071067811865476, Y: 0.7071067811865476, Z: 0}
