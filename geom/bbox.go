package geom

import "math"

// BoundingBox is an axis-aligned box, the same shape as the teacher's
// physics.AABB (internal/physics/aabb.go) but kept in double precision and
// extended with the dilation and ray-slab tests the BVH layer needs.
type BoundingBox struct {
	Min, Max Vec3
}

// EmptyBoundingBox returns a box with inverted extents, ready to be grown
// with Union or UnionPoint.
func EmptyBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBoundingBoxFromCenter mirrors physics.NewAABBFromCenter: a center point
// and full-size extents.
func NewBoundingBoxFromCenter(center, size Vec3) BoundingBox {
	half := size.Scale(0.5)
	return BoundingBox{Min: center.Sub(half), Max: center.Add(half)}
}

func (b BoundingBox) UnionPoint(p Vec3) BoundingBox {
	return BoundingBox{Min: MinVec(b.Min, p), Max: MaxVec(b.Max, p)}
}

func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{Min: MinVec(b.Min, o.Min), Max: MaxVec(b.Max, o.Max)}
}

// Intersects reports whether two boxes overlap, including touching at a
// face (same semantics as physics.AABB.Intersects).
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

func (b BoundingBox) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b BoundingBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BoundingBox) Diagonal() float64 {
	return b.Size().Length()
}

// Dilate grows the box by amount along every axis, in both directions. This
// is the "box_bump" of spec.md S5: register-time dilation that makes BVH
// traversal robust to floating-point error at the leaf boundary.
func (b BoundingBox) Dilate(amount float64) BoundingBox {
	d := Vec3{amount, amount, amount}
	return BoundingBox{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// LongestAxis returns the index of the box's longest edge, used by the CPU
// BVH builder to choose a split axis (grounded on
// components.MeshCollider.buildBVHNode's "find longest axis" step).
func (b BoundingBox) LongestAxis() int {
	return b.Size().MaxAxis()
}

// IntersectsRay runs the standard slab test (grounded on
// physics.raycastBox, generalized to an unbounded or bounded [tMin,tMax]
// range) used by the BVH to prune subtrees before invoking the per-leaf
// Plucker test. It reports overlap only, not a hit distance: the leaf
// callback recomputes the true distance.
func (b BoundingBox) IntersectsRay(origin, dir Vec3, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		o := origin.Component(axis)
		d := dir.Component(axis)
		lo := b.Min.Component(axis)
		hi := b.Max.Component(axis)
		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// DistanceSq returns the squared distance from p to the box (zero if p is
// inside), used to prune BVH subtrees during a closest-point query.
func (b BoundingBox) DistanceSq(p Vec3) float64 {
	dx := math.Max(b.Min.X-p.X, math.Max(0, p.X-b.Max.X))
	dy := math.Max(b.Min.Y-p.Y, math.Max(0, p.Y-b.Max.Y))
	dz := math.Max(b.Min.Z-p.Z, math.Max(0, p.Z-b.Max.Z))
	return dx*dx + dy*dy + dz*dz
}
