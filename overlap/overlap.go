// Package overlap implements the overlap checker of spec.md S4.8: given a
// set of explicit volumes, it probes vertices and edges of their triangle
// meshes for points where more than one volume claims to contain the same
// location — an authoring error in a geometry model that, left unnoticed,
// would have a particle exist inside two volumes simultaneously.
package overlap

import (
	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
	"github.com/xdg-org/xdg-sub000/raytracer"
)

// Record is one detected overlap: a literal coordinate and every volume
// whose point_in_volume claimed it at the time of the probe.
type Record struct {
	Location geom.Vec3
	Volumes  []mesh.MeshID
}

// defaultOffset is spec.md S4.8's vertex-probe displacement ("off=1e-9"):
// large enough to push the sample off the triangle plane so point_in_volume
// doesn't fire tangent to the very surface it's probing, small enough that
// it never crosses into a third, unrelated volume.
const defaultOffset = 1e-9

// Checker runs the overlap probe over every volume registered with it.
type Checker struct {
	rt       *raytracer.RayTracer
	provider mesh.Provider
	probeDir geom.Vec3

	volumes []mesh.MeshID
	trees   map[mesh.MeshID]primitive.TreeID
}

// New builds a Checker. probeDir is the fixed direction used both to
// displace vertex probes off their triangle plane and to fire
// point_in_volume's internal ray; spec.md S9's point_in_volume rationale
// applies here too, so geom.DefaultProbeDirection is the natural choice.
func New(backend accel.Backend, provider mesh.Provider, probeDir geom.Vec3) *Checker {
	return &Checker{
		rt:       raytracer.New(backend, provider),
		provider: provider,
		probeDir: probeDir,
		trees:    make(map[mesh.MeshID]primitive.TreeID),
	}
}

// RegisterVolume registers volume with the underlying RayTracer so its
// surface tree is available for probing.
func (c *Checker) RegisterVolume(volume mesh.MeshID) {
	surfaceTree, _ := c.rt.RegisterVolume(volume)
	c.trees[volume] = surfaceTree
	c.volumes = append(c.volumes, volume)
}

// CheckForOverlaps runs both probe modes over every registered volume's
// triangles and returns one Record per distinct overlapping location,
// deduplicated by literal (not approximate) coordinate equality.
func (c *Checker) CheckForOverlaps() []Record {
	var out []Record
	seen := make(map[geom.Vec3]bool)

	record := func(loc geom.Vec3, volumes []mesh.MeshID) {
		if seen[loc] {
			return
		}
		seen[loc] = true
		out = append(out, Record{Location: loc, Volumes: volumes})
	}

	for _, v := range c.volumes {
		for _, surf := range c.provider.VolumeSurfaces(v) {
			for _, f := range c.provider.SurfaceFaces(surf) {
				verts := c.provider.FaceVertices(f)
				for _, vert := range verts {
					c.vertexProbe(vert, record)
				}
				for i := 0; i < 3; i++ {
					c.edgeProbe(surf, verts[i], verts[(i+1)%3], record)
				}
			}
		}
	}
	return out
}

// vertexProbe implements spec.md S4.8's vertex mode: displace vert by
// ±defaultOffset along the probe direction and count how many registered
// volumes claim the displaced point.
func (c *Checker) vertexProbe(vert geom.Vec3, record func(geom.Vec3, []mesh.MeshID)) {
	for _, sign := range [2]float64{1, -1} {
		p := vert.Add(c.probeDir.Scale(sign * defaultOffset))
		if insiders := c.insiders(p); len(insiders) >= 2 {
			record(p, insiders)
		}
	}
}

// edgeProbe implements spec.md S4.8's edge mode: a finite ray between the
// edge's two vertices, fired with orientation EXITING against every volume
// other than the edge-owning surface's two parents. For every foreign volume
// the ray exits through, the nearest exit point is recorded together with
// the edge's owning volume (the surface's non-complement parent).
func (c *Checker) edgeProbe(surf mesh.MeshID, a, b geom.Vec3, record func(geom.Vec3, []mesh.MeshID)) {
	fwd, rev := c.provider.ParentVolumes(surf)
	owner := fwd
	if owner == mesh.IDNone {
		owner = rev
	}

	dir := b.Sub(a)
	length := dir.Length()
	if length == 0 {
		return
	}
	u := dir.Scale(1 / length)

	for _, v := range c.volumes {
		if v == fwd || v == rev {
			continue
		}
		t, surfaceID := c.rt.RayFire(c.trees[v], a, u, length, accel.OrientationExiting, nil)
		if surfaceID == mesh.IDNone {
			continue
		}
		loc := a.Add(u.Scale(t))
		record(loc, []mesh.MeshID{owner, v})
	}
}

// insiders returns every registered volume whose surface tree reports p
// inside along the checker's probe direction.
func (c *Checker) insiders(p geom.Vec3) []mesh.MeshID {
	var ids []mesh.MeshID
	for _, v := range c.volumes {
		if c.rt.PointInVolume(c.trees[v], p, c.probeDir) {
			ids = append(ids, v)
		}
	}
	return ids
}
