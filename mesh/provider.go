// Package mesh defines the MeshProvider capability the XDG core consumes
// (spec.md S6) and a Mock implementation used by tests and by callers that
// want to exercise the core without linking a real mesh library.
package mesh

import (
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/primitive"
)

type MeshID = primitive.MeshID

const IDNone = primitive.IDNone

// Provider is the read-only geometry source the core queries against. A
// real binding (MOAB, LibMesh, a file reader) implements this directly; it
// is never implemented by the core itself, matching spec.md S9's
// "polymorphism" note that MeshProvider has at least two concrete
// implementations, neither of which the core depends on by name.
type Provider interface {
	Volumes() []MeshID
	Surfaces() []MeshID

	VolumeSurfaces(volume MeshID) []MeshID
	SurfaceFaces(surface MeshID) []MeshID
	VolumeElements(volume MeshID) []MeshID

	// ParentVolumes returns (forward, reverse); either may be IDNone,
	// meaning the implicit complement.
	ParentVolumes(surface MeshID) (forward, reverse MeshID)

	FaceVertices(tri MeshID) [3]geom.Vec3
	ElementVertices(tet MeshID) [4]geom.Vec3

	// FaceNormal need not be unit length; sign is all that's used.
	FaceNormal(tri MeshID) geom.Vec3

	FaceBoundingBox(tri MeshID) geom.BoundingBox
	ElementBoundingBox(tet MeshID) geom.BoundingBox
	GlobalBoundingBox() geom.BoundingBox

	ImplicitComplement() MeshID

	// NextElement is only required for element tracking (walker.Walker):
	// it returns the tet adjacent to elem across the face the ray (r,u)
	// exits through, and the distance to that face. next is IDNone when
	// elem has no neighbor across that face (a mesh boundary).
	NextElement(elem MeshID, r, u geom.Vec3) (next MeshID, exitDistance float64)
}

// MetadataProvider is an optional capability used by tools, never by the
// core (spec.md S6).
type MetadataProvider interface {
	GetVolumeProperty(volume MeshID, key string) (string, bool)
	GetSurfaceProperty(surface MeshID, key string) (string, bool)
}
