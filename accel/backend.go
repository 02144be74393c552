// Package accel defines the AccelBackend capability (spec.md S6): a minimal
// BVH abstraction the RayTracer facade builds scenes against and fires rays
// into, without the core ever depending on a specific ray-tracing library by
// name.
package accel

import (
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/primitive"
)

// FireKind distinguishes the three ray-fire flavors of spec.md S3's ray
// payload: a volume-bounded fire, a find-volume probe, and an element
// (point-in-tet) query.
type FireKind int

const (
	FireVolume FireKind = iota
	FireFindVolume
	FireElement
)

// Orientation is the caller-facing orientation filter of spec.md S3/S4.5.
type Orientation int

const (
	OrientationEntering Orientation = iota
	OrientationExiting
	OrientationAny
)

// Payload is the per-query, stack-local state the backend threads through
// every leaf callback (spec.md S3 "Ray payload"). It is never shared across
// goroutines or queries.
type Payload struct {
	Origin geom.Vec3
	Dir    geom.Vec3 // unit direction

	TNear float64
	TFar  float64 // incoming limit; +Inf for an unlimited query

	Kind        FireKind
	Orientation Orientation

	// Exclude, when non-nil, lists primitive ids the candidate callback
	// must reject outright (spec.md S4.5 step 5).
	Exclude []primitive.MeshID

	// SceneVolume is the volume this scene's ray_fire is being issued
	// against; the filter uses it to decide whether to flip a triangle's
	// intrinsic normal (spec.md S4.5 step 3).
	SceneVolume primitive.MeshID

	// Committed hit, valid only when Hit is true.
	Hit       bool
	T         float64
	PrimID    primitive.MeshID
	SurfaceID primitive.MeshID
	Normal    geom.Vec3

	// Terminated is set by an occlusion query once any hit commits; the
	// backend stops traversing once it sees this (spec.md S4.5,
	// "Occlusion callback").
	Terminated bool
}

// BoundsFunc returns the bounding box of primitive index i within a
// geometry batch.
type BoundsFunc func(i int) geom.BoundingBox

// IntersectFunc is invoked once per BVH leaf the traversal reaches; it may
// update payload in place (spec.md S4.5).
type IntersectFunc func(i int, payload *Payload)

// OccludeFunc is the occlusion-query counterpart; it returns true once the
// ray should stop traversing.
type OccludeFunc func(i int, payload *Payload) bool

// PointQueryFunc is invoked for every candidate primitive of a closest-
// point or point-in-element query; it updates the caller-owned accumulator.
type PointQueryFunc func(i int, p geom.Vec3, acc *PointQueryState)

// PointQueryState accumulates the best candidate seen so far during a point
// query (closest-feature search).
type PointQueryState struct {
	BestDist float64
	BestPrim primitive.MeshID
	// Terminated lets a point-in-element query stop traversal the instant a
	// containing element is found (spec.md S4.4, find_element).
	Terminated bool
}

// Scene is one committed BVH over a fixed set of user geometry batches.
type Scene interface {
	// AttachGeometry registers a contiguous run of primCount leaves backed
	// by the given callbacks. User data is whatever the caller closes over
	// in bounds/intersect/occlude/pointQuery — the backend never interprets
	// it. pointQuery may be nil for a batch that never participates in a
	// closest-feature search.
	AttachGeometry(primCount int, bounds BoundsFunc, intersect IntersectFunc, occlude OccludeFunc, pointQuery PointQueryFunc) error

	// Commit finalizes the scene's geometry and builds the BVH. No more
	// AttachGeometry calls are permitted afterward.
	Commit() error

	// Intersect1 fires a single ray, invoking IntersectFunc for every
	// candidate leaf until the closest passing hit is found.
	Intersect1(payload *Payload)

	// Occluded1 fires a single occlusion ray.
	Occluded1(payload *Payload) bool

	// PointQuery runs a closest-feature search against every leaf whose
	// bounds could contain the answer, invoking each batch's own
	// PointQueryFunc (registered via AttachGeometry) rather than a single
	// query-time callback, so the backend never has to disambiguate which
	// batch a bare leaf index belongs to.
	PointQuery(p geom.Vec3) PointQueryState

	// Release tears down the scene's BVH nodes. The caller must not use the
	// scene afterward.
	Release()
}

// Backend creates and owns scenes; its device handle, if any, is process-
// wide (spec.md S9 "Process-wide state").
type Backend interface {
	NewScene() (Scene, error)
	Release()
}
