package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/xdg-org/xdg-sub000/geom"
)

// Mock is a self-contained, in-memory Provider used by tests and by callers
// that want to drive the core without a real mesh library — the role MOAB
// plays for XDG's original C++ implementation
// (original_source/src/moab/direct_access.cpp). It builds simple watertight
// meshes (a box, a tetrahedral brick, a coarse icosphere) good enough to
// exercise every query the core supports.
type Mock struct {
	nextMeshID MeshID

	volumes  []MeshID
	surfaces []MeshID

	volumeSurfaces map[MeshID][]MeshID
	surfaceFaces   map[MeshID][]MeshID
	volumeElements map[MeshID][]MeshID
	parents        map[MeshID][2]MeshID

	faceVerts   map[MeshID][3]geom.Vec3
	faceNormals map[MeshID]geom.Vec3

	tetVerts     map[MeshID][4]geom.Vec3
	tetNeighbors map[MeshID][4]MeshID // indexed the same way as geom's tetFaces winding

	implicitComplement MeshID
	bbox                geom.BoundingBox
	haveBBox            bool
}

func newMock() *Mock {
	return &Mock{
		nextMeshID:          1,
		volumeSurfaces:      make(map[MeshID][]MeshID),
		surfaceFaces:        make(map[MeshID][]MeshID),
		volumeElements:      make(map[MeshID][]MeshID),
		parents:             make(map[MeshID][2]MeshID),
		faceVerts:           make(map[MeshID][3]geom.Vec3),
		faceNormals:         make(map[MeshID]geom.Vec3),
		tetVerts:            make(map[MeshID][4]geom.Vec3),
		tetNeighbors:        make(map[MeshID][4]MeshID),
		implicitComplement:  IDNone,
	}
}

func (m *Mock) allocID() MeshID {
	id := m.nextMeshID
	m.nextMeshID++
	return id
}

func (m *Mock) growBBox(b geom.BoundingBox) {
	if !m.haveBBox {
		m.bbox = b
		m.haveBBox = true
		return
	}
	m.bbox = m.bbox.Union(b)
}

// addTriangle registers one triangle face under the given surface.
func (m *Mock) addTriangle(surface MeshID, v0, v1, v2 geom.Vec3) {
	id := m.allocID()
	m.faceVerts[id] = [3]geom.Vec3{v0, v1, v2}
	m.faceNormals[id] = geom.TriangleNormal(v0, v1, v2)
	m.surfaceFaces[surface] = append(m.surfaceFaces[surface], id)
	m.growBBox(geom.BoundingBox{Min: geom.MinVec(geom.MinVec(v0, v1), v2), Max: geom.MaxVec(geom.MaxVec(v0, v1), v2)})
}

// NewBoxMesh builds a single watertight volume (id 1) bounded by a single
// outward-oriented surface (id 2) over the 12 triangles of an axis-aligned
// box. The surface's reverse parent is IDNone: outside the box is the
// implicit complement, exactly the S1/S2/S3 fixture shape in spec.md S8.
func NewBoxMesh(min, max geom.Vec3) *Mock {
	m := newMock()

	volume := m.allocID()
	surface := m.allocID()

	m.volumes = append(m.volumes, volume)
	m.surfaces = append(m.surfaces, surface)
	m.volumeSurfaces[volume] = []MeshID{surface}
	m.parents[surface] = [2]MeshID{volume, IDNone}

	for _, tri := range boxTriangles(min, max) {
		m.addTriangle(surface, tri[0], tri[1], tri[2])
	}

	m.implicitComplement = m.allocID()
	return m
}

// NewOverlappingBoxesMesh builds two independent watertight box volumes
// (ids 1 and 2, each with its own single surface) whose bounding regions
// intersect, the S6 fixture of spec.md S8: an overlap checker run against it
// reports overlap records keyed by {1,2}, one record per distinct overlapping
// location; the records are not merged into a single entry per volume pair. Each
// volume's surface has reverse parent IDNone, so outside either box is that
// box's own implicit complement — the checker is what discovers the two
// volumes actually share space.
func NewOverlappingBoxesMesh(boxA, boxB [2]geom.Vec3) *Mock {
	m := newMock()

	volumeIDs := [2]MeshID{m.allocID(), m.allocID()}
	for i, box := range [][2]geom.Vec3{boxA, boxB} {
		volume := volumeIDs[i]
		surface := m.allocID()
		m.volumes = append(m.volumes, volume)
		m.surfaces = append(m.surfaces, surface)
		m.volumeSurfaces[volume] = []MeshID{surface}
		m.parents[surface] = [2]MeshID{volume, IDNone}
		for _, tri := range boxTriangles(box[0], box[1]) {
			m.addTriangle(surface, tri[0], tri[1], tri[2])
		}
	}

	m.implicitComplement = m.allocID()
	return m
}

// boxTriangles returns 12 outward-wound triangles covering an axis-aligned
// box (two per face).
func boxTriangles(min, max geom.Vec3) [][3]geom.Vec3 {
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z
	v := func(x, y, z float64) geom.Vec3 { return geom.Vec3{X: x, Y: y, Z: z} }

	return [][3]geom.Vec3{
		{v(x0, y0, z0), v(x0, y0, z1), v(x0, y1, z1)},
		{v(x0, y0, z0), v(x0, y1, z1), v(x0, y1, z0)},
		{v(x1, y0, z0), v(x1, y1, z0), v(x1, y1, z1)},
		{v(x1, y0, z0), v(x1, y1, z1), v(x1, y0, z1)},
		{v(x0, y0, z0), v(x1, y0, z0), v(x1, y0, z1)},
		{v(x0, y0, z0), v(x1, y0, z1), v(x0, y0, z1)},
		{v(x0, y1, z0), v(x0, y1, z1), v(x1, y1, z1)},
		{v(x0, y1, z0), v(x1, y1, z1), v(x1, y1, z0)},
		{v(x0, y0, z0), v(x0, y1, z0), v(x1, y1, z0)},
		{v(x0, y0, z0), v(x1, y1, z0), v(x1, y0, z0)},
		{v(x0, y0, z1), v(x1, y0, z1), v(x1, y1, z1)},
		{v(x0, y0, z1), v(x1, y1, z1), v(x0, y1, z1)},
	}
}

// NewBrickMesh builds a single volume made of a cellsPerAxis^3 grid of cubic
// cells of edge size/cellsPerAxis, each cut into 6 tetrahedra (the Freudenthal/Kuhn triangulation),
// plus the boundary surface over the outer faces of the brick.
func NewBrickMesh(origin geom.Vec3, size float64, cellsPerAxis int) *Mock {
	m := newMock()
	volume := m.allocID()
	surface := m.allocID()
	m.volumes = append(m.volumes, volume)
	m.surfaces = append(m.surfaces, surface)
	m.volumeSurfaces[volume] = []MeshID{surface}
	m.parents[surface] = [2]MeshID{volume, IDNone}

	cell := size / float64(cellsPerAxis)
	corner := func(ix, iy, iz int) geom.Vec3 {
		return geom.Vec3{
			X: origin.X + float64(ix)*cell,
			Y: origin.Y + float64(iy)*cell,
			Z: origin.Z + float64(iz)*cell,
		}
	}

	// triKey interns a triangle's three vertices (by exact coordinate, since
	// every cell shares corners with its neighbors bit-for-bit) to discover
	// adjacency between tets generated from different cells.
	faceOwner := make(map[string][]MeshID)
	faceOwnerLocalIdx := make(map[string][]int)

	boundaryTris := make([][3]geom.Vec3, 0)

	for ix := 0; ix < cellsPerAxis; ix++ {
		for iy := 0; iy < cellsPerAxis; iy++ {
			for iz := 0; iz < cellsPerAxis; iz++ {
				c000 := corner(ix, iy, iz)
				c100 := corner(ix+1, iy, iz)
				c010 := corner(ix, iy+1, iz)
				c001 := corner(ix, iy, iz+1)
				c110 := corner(ix+1, iy+1, iz)
				c101 := corner(ix+1, iy, iz+1)
				c011 := corner(ix, iy+1, iz+1)
				c111 := corner(ix+1, iy+1, iz+1)

				tets := [6][4]geom.Vec3{
					{c000, c100, c110, c111},
					{c000, c100, c111, c101},
					{c000, c110, c010, c111},
					{c000, c010, c111, c011},
					{c000, c101, c111, c001},
					{c000, c111, c011, c001},
				}

				for _, t := range tets {
					v0, v1, v2, v3 := orientTet(t[0], t[1], t[2], t[3])
					id := m.allocID()
					m.tetVerts[id] = [4]geom.Vec3{v0, v1, v2, v3}
					m.volumeElements[volume] = append(m.volumeElements[volume], id)
					m.growBBox(geom.BoundingBox{
						Min: geom.MinVec(geom.MinVec(v0, v1), geom.MinVec(v2, v3)),
						Max: geom.MaxVec(geom.MaxVec(v0, v1), geom.MaxVec(v2, v3)),
					})

					for localIdx, face := range tetFaceIndices {
						a, b, c := [4]geom.Vec3{v0, v1, v2, v3}[face[0]], [4]geom.Vec3{v0, v1, v2, v3}[face[1]], [4]geom.Vec3{v0, v1, v2, v3}[face[2]]
						key := triKey(a, b, c)
						faceOwner[key] = append(faceOwner[key], id)
						faceOwnerLocalIdx[key] = append(faceOwnerLocalIdx[key], localIdx)
					}
				}
			}
		}
	}

	// Resolve adjacency: a face shared by exactly two tets links them;
	// a face owned by one tet only is a mesh boundary and becomes part of
	// the outer surface.
	for key, owners := range faceOwner {
		locals := faceOwnerLocalIdx[key]
		switch len(owners) {
		case 2:
			m.setNeighbor(owners[0], locals[0], owners[1])
			m.setNeighbor(owners[1], locals[1], owners[0])
		case 1:
			verts := m.tetVerts[owners[0]]
			arr := [4]geom.Vec3{verts[0], verts[1], verts[2], verts[3]}
			face := tetFaceIndices[locals[0]]
			boundaryTris = append(boundaryTris, [3]geom.Vec3{arr[face[0]], arr[face[1]], arr[face[2]]})
		default:
			panic(fmt.Sprintf("mesh.Mock: face %s shared by %d tets, expected 1 or 2", key, len(owners)))
		}
	}

	for _, tri := range boundaryTris {
		m.addTriangle(surface, tri[0], tri[1], tri[2])
	}

	m.implicitComplement = m.allocID()
	return m
}

// tetFaceIndices mirrors geom's tetFaces winding: face i is opposite
// vertex 3-i, wound outward for a canonically-oriented tet.
var tetFaceIndices = [4][3]int{
	{0, 2, 1},
	{0, 1, 3},
	{0, 3, 2},
	{1, 2, 3},
}

func (m *Mock) setNeighbor(tet MeshID, localFace int, neighbor MeshID) {
	n := m.tetNeighbors[tet]
	n[localFace] = neighbor
	m.tetNeighbors[tet] = n
}

// orientTet swaps v2,v3 if needed so the tet has positive signed volume,
// guaranteeing tetFaceIndices produces outward-facing normals.
func orientTet(v0, v1, v2, v3 geom.Vec3) (geom.Vec3, geom.Vec3, geom.Vec3, geom.Vec3) {
	vol := v1.Sub(v0).Cross(v2.Sub(v0)).Dot(v3.Sub(v0))
	if vol < 0 {
		return v0, v1, v3, v2
	}
	return v0, v1, v2, v3
}

func triKey(a, b, c geom.Vec3) string {
	pts := []geom.Vec3{a, b, c}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Less(pts[j]) })
	return fmt.Sprintf("%.12g|%.12g|%.12g/%.12g|%.12g|%.12g/%.12g|%.12g|%.12g",
		pts[0].X, pts[0].Y, pts[0].Z, pts[1].X, pts[1].Y, pts[1].Z, pts[2].X, pts[2].Y, pts[2].Z)
}

// NewIcosphereMesh builds a single volume whose surface is a unit-icosahedron
// subdivided `levels` times and normalized to the given radius — a coarse
// approximation of a sphere, good enough to exercise point-in-volume and
// ray-fire against curved geometry without requiring an exact NURBS surface.
func NewIcosphereMesh(center geom.Vec3, radius float64, levels int) *Mock {
	m := newMock()
	volume := m.allocID()
	surface := m.allocID()
	m.volumes = append(m.volumes, volume)
	m.surfaces = append(m.surfaces, surface)
	m.volumeSurfaces[volume] = []MeshID{surface}
	m.parents[surface] = [2]MeshID{volume, IDNone}

	verts, tris := icosahedron()
	for i := 0; i < levels; i++ {
		verts, tris = subdivide(verts, tris)
	}

	for _, tri := range tris {
		a := verts[tri[0]].Normalize().Scale(radius).Add(center)
		b := verts[tri[1]].Normalize().Scale(radius).Add(center)
		c := verts[tri[2]].Normalize().Scale(radius).Add(center)
		m.addTriangle(surface, a, b, c)
	}

	m.implicitComplement = m.allocID()
	return m
}

func icosahedron() ([]geom.Vec3, [][3]int) {
	t := (1 + math.Sqrt(5)) / 2
	raw := []geom.Vec3{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return raw, faces
}

// subdivide splits every triangle into four by bisecting each edge,
// deduplicating shared midpoints by coordinate.
func subdivide(verts []geom.Vec3, tris [][3]int) ([]geom.Vec3, [][3]int) {
	midCache := make(map[[2]int]int)
	midpoint := func(i, j int) int {
		key := [2]int{i, j}
		if i > j {
			key = [2]int{j, i}
		}
		if idx, ok := midCache[key]; ok {
			return idx
		}
		mid := verts[i].Add(verts[j]).Scale(0.5)
		idx := len(verts)
		verts = append(verts, mid)
		midCache[key] = idx
		return idx
	}

	newTris := make([][3]int, 0, len(tris)*4)
	for _, tr := range tris {
		a, b, c := tr[0], tr[1], tr[2]
		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)
		newTris = append(newTris,
			[3]int{a, ab, ca},
			[3]int{b, bc, ab},
			[3]int{c, ca, bc},
			[3]int{ab, bc, ca},
		)
	}
	return verts, newTris
}

func (m *Mock) Volumes() []MeshID  { return m.volumes }
func (m *Mock) Surfaces() []MeshID { return m.surfaces }

func (m *Mock) VolumeSurfaces(volume MeshID) []MeshID { return m.volumeSurfaces[volume] }
func (m *Mock) SurfaceFaces(surface MeshID) []MeshID  { return m.surfaceFaces[surface] }
func (m *Mock) VolumeElements(volume MeshID) []MeshID { return m.volumeElements[volume] }

func (m *Mock) ParentVolumes(surface MeshID) (MeshID, MeshID) {
	p := m.parents[surface]
	return p[0], p[1]
}

func (m *Mock) FaceVertices(tri MeshID) [3]geom.Vec3 { return m.faceVerts[tri] }
func (m *Mock) ElementVertices(tet MeshID) [4]geom.Vec3 { return m.tetVerts[tet] }
func (m *Mock) FaceNormal(tri MeshID) geom.Vec3       { return m.faceNormals[tri] }

func (m *Mock) FaceBoundingBox(tri MeshID) geom.BoundingBox {
	v := m.faceVerts[tri]
	return geom.BoundingBox{
		Min: geom.MinVec(geom.MinVec(v[0], v[1]), v[2]),
		Max: geom.MaxVec(geom.MaxVec(v[0], v[1]), v[2]),
	}
}

func (m *Mock) ElementBoundingBox(tet MeshID) geom.BoundingBox {
	v := m.tetVerts[tet]
	return geom.BoundingBox{
		Min: geom.MinVec(geom.MinVec(v[0], v[1]), geom.MinVec(v[2], v[3])),
		Max: geom.MaxVec(geom.MaxVec(v[0], v[1]), geom.MaxVec(v[2], v[3])),
	}
}

func (m *Mock) GlobalBoundingBox() geom.BoundingBox { return m.bbox }
func (m *Mock) ImplicitComplement() MeshID          { return m.implicitComplement }

// NextElement walks the tet's four faces, accepting only the ones whose
// outward normal satisfies n.u > 0, and returns the nearest such crossing
// together with the neighbor tet precomputed at mesh-build time (spec.md
// S4.7).
func (m *Mock) NextElement(elem MeshID, r, u geom.Vec3) (MeshID, float64) {
	verts, ok := m.tetVerts[elem]
	if !ok {
		return IDNone, math.Inf(1)
	}
	arr := [4]geom.Vec3{verts[0], verts[1], verts[2], verts[3]}
	neighbors := m.tetNeighbors[elem]

	bestT := math.Inf(1)
	bestNeighbor := IDNone
	found := false

	for i, face := range tetFaceIndices {
		a, b, c := arr[face[0]], arr[face[1]], arr[face[2]]
		n := geom.TriangleNormal(a, b, c)
		if n.Dot(u) <= 0 {
			continue
		}
		hit, t := geom.IntersectTriangle(r, u, a, b, c, geom.TriangleQuery{TMax: math.Inf(1)})
		if !hit {
			continue
		}
		if !found || t < bestT {
			found = true
			bestT = t
			neighborID := neighbors[i]
			if neighborID == 0 {
				neighborID = IDNone
			}
			bestNeighbor = neighborID
		}
	}

	if !found {
		return IDNone, math.Inf(1)
	}
	return bestNeighbor, bestT
}
