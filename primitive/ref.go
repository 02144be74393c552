// Package primitive holds the per-leaf metadata that links a BVH leaf back
// to a MeshProvider primitive and to its parent surface/volume (spec.md S3).
package primitive

// MeshID is a provider-scoped identifier. IDNone is the sentinel used
// throughout XDG for "no such entity".
type MeshID int64

const IDNone MeshID = -1

// TreeID is an opaque handle to a BVH scene. Surface trees and element
// trees live in distinct namespaces even though both are TreeID values —
// a raytracer.RayTracer never confuses the two because it looks them up
// through separate maps.
type TreeID int64

const NoTree TreeID = -1

// Well-known sentinels for the provider-agnostic aggregate trees (spec.md
// S3).
const (
	GlobalSurfaceTree TreeID = -2
	GlobalElementTree TreeID = -3
)

// Sense is a triangle's orientation relative to the volume whose surface
// tree contains it.
type Sense int

const (
	SenseUnset Sense = iota
	SenseForward
	SenseReverse
)

func (s Sense) String() string {
	switch s {
	case SenseForward:
		return "forward"
	case SenseReverse:
		return "reverse"
	default:
		return "unset"
	}
}

// Kind distinguishes a triangle leaf from a tetrahedron leaf within a scene.
// A single scene only ever holds one Kind, but the BVH backend doesn't need
// to know that — it just carries whatever Ref the RayTracer attached.
type Kind int

const (
	KindTriangle Kind = iota
	KindTetrahedron
)

// Ref is one entry in a scene's PrimitiveRef buffer: one per BVH leaf,
// contiguous, owned by the RayTracer for the scene's lifetime (spec.md S3
// "PrimitiveRef buffer"). It must not be reallocated once the scene backing
// it has been committed.
type Ref struct {
	Kind        Kind
	PrimitiveID MeshID // the provider's triangle or tetrahedron id
	Sense       Sense  // always SenseForward for tetrahedra
	Batch       *Batch // the geometry batch (surface or volume) this leaf belongs to
}

// Batch is the per-surface (or per-volume, for element trees) group that a
// contiguous run of PrimitiveRef entries shares. Spec.md S3 attaches
// surface_id, {forward_vol,reverse_vol}, and box_bump to the batch rather
// than to each triangle, because every triangle in a surface shares them.
type Batch struct {
	SurfaceID  MeshID // IDNone for element (tetrahedron) batches
	VolumeID   MeshID // the volume a tetrahedron batch belongs to
	ForwardVol MeshID
	ReverseVol MeshID
	BoxBump    float64
}
