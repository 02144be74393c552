// Package raytracer implements the RayTracer facade of spec.md S4.4/S4.5:
// it registers MeshProvider volumes as AccelBackend scenes and turns raw
// BVH leaf callbacks into orientation- and exclusion-filtered hits.
package raytracer

import (
	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
)

// volumeOrientedNormal returns the volume-oriented normal for a triangle hit: the
// provider's intrinsic normal, flipped whenever the ref's sense (computed at
// registration time relative to this tree's volume) is REVERSE, unless the
// fire is FIND_VOLUME — spec.md S4.5 step 3 suppresses the flip there so
// find_volume/find_element see the triangle's intrinsic side regardless of
// which named volume happens to own the scene.
func volumeOrientedNormal(provider mesh.Provider, ref *primitive.Ref, kind accel.FireKind) geom.Vec3 {
	n := provider.FaceNormal(ref.PrimitiveID)
	if kind != accel.FireFindVolume && ref.Sense == primitive.SenseReverse {
		n = n.Negate()
	}
	return n
}

func excluded(exclude []primitive.MeshID, id primitive.MeshID) bool {
	for _, ex := range exclude {
		if ex == id {
			return true
		}
	}
	return false
}

// orientationCull reports whether a candidate hit must be rejected under
// spec.md S4.5 step 4. Only FireVolume queries apply the cull.
func orientationCull(kind accel.FireKind, orientation accel.Orientation, dir, normal geom.Vec3) bool {
	if kind != accel.FireVolume {
		return false
	}
	d := dir.Dot(normal)
	switch orientation {
	case accel.OrientationExiting:
		return d < 0
	case accel.OrientationEntering:
		return d >= 0
	default:
		return false
	}
}

// triangleIntersect builds the accel.IntersectFunc for one triangle leaf,
// implementing spec.md S4.5 steps 1-6 in order.
func triangleIntersect(provider mesh.Provider, ref *primitive.Ref) accel.IntersectFunc {
	return func(_ int, payload *accel.Payload) {
		v := provider.FaceVertices(ref.PrimitiveID)
		hit, t := geom.IntersectTriangle(payload.Origin, payload.Dir, v[0], v[1], v[2], geom.TriangleQuery{
			TMax: payload.TFar,
		})
		if !hit {
			return
		}
		normal := volumeOrientedNormal(provider, ref, payload.Kind)
		if orientationCull(payload.Kind, payload.Orientation, payload.Dir, normal) {
			return
		}
		if excluded(payload.Exclude, ref.PrimitiveID) {
			return
		}
		if payload.Hit && t >= payload.T {
			return
		}
		payload.Hit = true
		payload.T = t
		payload.TFar = t
		payload.PrimID = ref.PrimitiveID
		payload.SurfaceID = ref.Batch.SurfaceID
		payload.Normal = normal
	}
}

// triangleOcclude is the occlusion-query counterpart: the same filter, but
// any passing hit terminates the ray instead of only tightening TFar
// (spec.md S4.5, "Occlusion callback").
func triangleOcclude(provider mesh.Provider, ref *primitive.Ref) accel.OccludeFunc {
	return func(_ int, payload *accel.Payload) bool {
		v := provider.FaceVertices(ref.PrimitiveID)
		hit, t := geom.IntersectTriangle(payload.Origin, payload.Dir, v[0], v[1], v[2], geom.TriangleQuery{
			TMax: payload.TFar,
		})
		if !hit {
			return false
		}
		normal := volumeOrientedNormal(provider, ref, payload.Kind)
		if orientationCull(payload.Kind, payload.Orientation, payload.Dir, normal) {
			return false
		}
		if excluded(payload.Exclude, ref.PrimitiveID) {
			return false
		}
		payload.Hit = true
		payload.T = t
		payload.PrimID = ref.PrimitiveID
		payload.SurfaceID = ref.Batch.SurfaceID
		payload.Normal = normal
		return true
	}
}

// trianglePointQuery builds the closest-point callback for §4.3's kernel,
// used by Closest and by surface_normal's "nearest to p" fallback.
func trianglePointQuery(provider mesh.Provider, ref *primitive.Ref) accel.PointQueryFunc {
	return func(_ int, p geom.Vec3, acc *accel.PointQueryState) {
		v := provider.FaceVertices(ref.PrimitiveID)
		cp := geom.ClosestPointOnTriangle(p, v[0], v[1], v[2])
		d := cp.Sub(p).LengthSq()
		if d < acc.BestDist {
			acc.BestDist = d
			acc.BestPrim = ref.PrimitiveID
		}
	}
}

// tetContainsPointQuery builds the find_element point-containment callback:
// the first tet found containing p terminates the BVH traversal immediately
// (spec.md S4.4, "sets t = -inf to terminate BVH traversal").
func tetContainsPointQuery(provider mesh.Provider, ref *primitive.Ref) accel.PointQueryFunc {
	return func(_ int, p geom.Vec3, acc *accel.PointQueryState) {
		v := provider.ElementVertices(ref.PrimitiveID)
		if geom.TetContains(p, v[0], v[1], v[2], v[3]) {
			acc.BestDist = 0
			acc.BestPrim = ref.PrimitiveID
			acc.Terminated = true
		}
	}
}
