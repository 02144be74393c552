package raytracer

import (
	"math"
	"sync"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
	"github.com/xdg-org/xdg-sub000/xdgerr"
)

// sceneEntry is everything the facade needs to interpret a committed scene's
// hits: the scene itself, its leaf metadata (in BVH-leaf order), and the
// volume it was registered for (IDNone for an aggregate global tree).
type sceneEntry struct {
	scene  accel.Scene
	refs   []primitive.Ref
	volume mesh.MeshID
}

// RayTracer is the spec.md S4.4 facade: it owns every BVH scene built over
// a MeshProvider's volumes, plus the two well-known global aggregate trees.
type RayTracer struct {
	backend  accel.Backend
	provider mesh.Provider

	// mu guards registration; query methods only read committed state
	// (spec.md S5 "register_volume is not thread-safe; queries are
	// re-entrant read-only on a committed scene").
	mu sync.Mutex

	scenes map[primitive.TreeID]*sceneEntry
	nextID int64

	volumeSurfaceTree map[mesh.MeshID]primitive.TreeID
	volumeElementTree map[mesh.MeshID]primitive.TreeID

	registeredVolumes []mesh.MeshID
}

// New creates an empty RayTracer over the given backend and provider. The
// provider must outlive every scene the RayTracer builds.
func New(backend accel.Backend, provider mesh.Provider) *RayTracer {
	return &RayTracer{
		backend:           backend,
		provider:          provider,
		scenes:            make(map[primitive.TreeID]*sceneEntry),
		volumeSurfaceTree: make(map[mesh.MeshID]primitive.TreeID),
		volumeElementTree: make(map[mesh.MeshID]primitive.TreeID),
	}
}

func (rt *RayTracer) allocTreeID() primitive.TreeID {
	rt.nextID++
	return primitive.TreeID(rt.nextID)
}

func boxBump(bbox geom.BoundingBox) float64 {
	return math.Max(primitive.MinBoxBump, primitive.BoxBumpFactor*bbox.Diagonal())
}

// volumeBoundingBox unions the bounding boxes of every triangle (and, if
// present, tetrahedron) belonging to volume, since MeshProvider has no
// direct per-volume bbox accessor.
func (rt *RayTracer) volumeBoundingBox(volume mesh.MeshID) geom.BoundingBox {
	bb := geom.EmptyBoundingBox()
	for _, surf := range rt.provider.VolumeSurfaces(volume) {
		for _, f := range rt.provider.SurfaceFaces(surf) {
			bb = bb.Union(rt.provider.FaceBoundingBox(f))
		}
	}
	for _, e := range rt.provider.VolumeElements(volume) {
		bb = bb.Union(rt.provider.ElementBoundingBox(e))
	}
	return bb
}

// RegisterVolume implements spec.md S4.4's register_volume: it allocates a
// surface-tree scene (always) and an element-tree scene (only if the
// provider exposes tetrahedra for volume), returning their tree handles.
func (rt *RayTracer) RegisterVolume(volume mesh.MeshID) (surfaceTree, elementTree primitive.TreeID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, exists := rt.volumeSurfaceTree[volume]; exists {
		xdgerr.Fatalf("raytracer: volume %d already registered", volume)
	}

	bump := boxBump(rt.volumeBoundingBox(volume))

	surfaceTree = rt.buildSurfaceScene(volume, bump)
	rt.volumeSurfaceTree[volume] = surfaceTree

	elementTree = primitive.NoTree
	if elems := rt.provider.VolumeElements(volume); len(elems) > 0 {
		elementTree = rt.buildElementScene(volume, elems)
		rt.volumeElementTree[volume] = elementTree
	}

	rt.registeredVolumes = append(rt.registeredVolumes, volume)
	return surfaceTree, elementTree
}

func (rt *RayTracer) buildSurfaceScene(volume mesh.MeshID, bump float64) primitive.TreeID {
	scene, err := rt.backend.NewScene()
	if err != nil {
		xdgerr.Fatalf("raytracer: create scene for volume %d: %v", volume, err)
	}
	entry := &sceneEntry{scene: scene, volume: volume}

	for _, surf := range rt.provider.VolumeSurfaces(volume) {
		fwd, rev := rt.provider.ParentVolumes(surf)
		var sense primitive.Sense
		switch volume {
		case fwd:
			sense = primitive.SenseForward
		case rev:
			sense = primitive.SenseReverse
		default:
			xdgerr.Fatalf("raytracer: surface %d's parents (%d,%d) do not include volume %d", surf, fwd, rev, volume)
		}

		batch := &primitive.Batch{SurfaceID: surf, ForwardVol: fwd, ReverseVol: rev, BoxBump: bump}
		faces := rt.provider.SurfaceFaces(surf)
		base := len(entry.refs)
		for _, f := range faces {
			entry.refs = append(entry.refs, primitive.Ref{Kind: primitive.KindTriangle, PrimitiveID: f, Sense: sense, Batch: batch})
		}
		rt.attachTriangleBatch(scene, entry, base, len(faces), bump)
	}

	if err := scene.Commit(); err != nil {
		xdgerr.Fatalf("raytracer: commit surface scene for volume %d: %v", volume, err)
	}
	treeID := rt.allocTreeID()
	rt.scenes[treeID] = entry
	return treeID
}

func (rt *RayTracer) attachTriangleBatch(scene accel.Scene, entry *sceneEntry, base, count int, bump float64) {
	err := scene.AttachGeometry(count,
		func(i int) geom.BoundingBox {
			ref := &entry.refs[base+i]
			return rt.provider.FaceBoundingBox(ref.PrimitiveID).Dilate(bump)
		},
		func(i int, payload *accel.Payload) {
			triangleIntersect(rt.provider, &entry.refs[base+i])(i, payload)
		},
		func(i int, payload *accel.Payload) bool {
			return triangleOcclude(rt.provider, &entry.refs[base+i])(i, payload)
		},
		func(i int, p geom.Vec3, acc *accel.PointQueryState) {
			trianglePointQuery(rt.provider, &entry.refs[base+i])(i, p, acc)
		},
	)
	if err != nil {
		xdgerr.Fatalf("raytracer: attach surface batch: %v", err)
	}
}

func (rt *RayTracer) buildElementScene(volume mesh.MeshID, elems []mesh.MeshID) primitive.TreeID {
	scene, err := rt.backend.NewScene()
	if err != nil {
		xdgerr.Fatalf("raytracer: create element scene for volume %d: %v", volume, err)
	}
	entry := &sceneEntry{scene: scene, volume: volume}
	batch := &primitive.Batch{SurfaceID: primitive.IDNone, VolumeID: volume}
	for _, e := range elems {
		entry.refs = append(entry.refs, primitive.Ref{Kind: primitive.KindTetrahedron, PrimitiveID: e, Sense: primitive.SenseForward, Batch: batch})
	}

	err = scene.AttachGeometry(len(elems),
		func(i int) geom.BoundingBox {
			return rt.provider.ElementBoundingBox(entry.refs[i].PrimitiveID)
		},
		func(i int, payload *accel.Payload) {}, // element trees are never ray-fired, only point-queried
		func(i int, payload *accel.Payload) bool { return false },
		func(i int, p geom.Vec3, acc *accel.PointQueryState) {
			tetContainsPointQuery(rt.provider, &entry.refs[i])(i, p, acc)
		},
	)
	if err != nil {
		xdgerr.Fatalf("raytracer: attach element batch: %v", err)
	}
	if err := scene.Commit(); err != nil {
		xdgerr.Fatalf("raytracer: commit element scene for volume %d: %v", volume, err)
	}
	treeID := rt.allocTreeID()
	rt.scenes[treeID] = entry
	return treeID
}

// CreateGlobalSurfaceTree builds the provider-agnostic aggregate scene over
// every volume registered so far (spec.md S4.4). It may be called only
// once; a second call is a fatal error, matching the "registering a second
// tree" programmer error of spec.md S7.
func (rt *RayTracer) CreateGlobalSurfaceTree() primitive.TreeID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.scenes[primitive.GlobalSurfaceTree]; exists {
		xdgerr.Fatalf("raytracer: global surface tree already created")
	}

	scene, err := rt.backend.NewScene()
	if err != nil {
		xdgerr.Fatalf("raytracer: create global surface scene: %v", err)
	}
	entry := &sceneEntry{scene: scene, volume: primitive.IDNone}

	for _, volume := range rt.registeredVolumes {
		bump := boxBump(rt.volumeBoundingBox(volume))
		for _, surf := range rt.provider.VolumeSurfaces(volume) {
			fwd, rev := rt.provider.ParentVolumes(surf)
			var sense primitive.Sense
			switch volume {
			case fwd:
				sense = primitive.SenseForward
			case rev:
				sense = primitive.SenseReverse
			default:
				continue // already validated during RegisterVolume
			}
			batch := &primitive.Batch{SurfaceID: surf, ForwardVol: fwd, ReverseVol: rev, BoxBump: bump}
			faces := rt.provider.SurfaceFaces(surf)
			base := len(entry.refs)
			for _, f := range faces {
				entry.refs = append(entry.refs, primitive.Ref{Kind: primitive.KindTriangle, PrimitiveID: f, Sense: sense, Batch: batch})
			}
			rt.attachTriangleBatch(scene, entry, base, len(faces), bump)
		}
	}

	if err := scene.Commit(); err != nil {
		xdgerr.Fatalf("raytracer: commit global surface scene: %v", err)
	}
	rt.scenes[primitive.GlobalSurfaceTree] = entry
	return primitive.GlobalSurfaceTree
}

// CreateGlobalElementTree is CreateGlobalSurfaceTree's tetrahedron
// counterpart, used by find_element when the caller has no single volume in
// mind.
func (rt *RayTracer) CreateGlobalElementTree() primitive.TreeID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.scenes[primitive.GlobalElementTree]; exists {
		xdgerr.Fatalf("raytracer: global element tree already created")
	}

	scene, err := rt.backend.NewScene()
	if err != nil {
		xdgerr.Fatalf("raytracer: create global element scene: %v", err)
	}
	entry := &sceneEntry{scene: scene, volume: primitive.IDNone}

	for _, volume := range rt.registeredVolumes {
		elems := rt.provider.VolumeElements(volume)
		if len(elems) == 0 {
			continue
		}
		batch := &primitive.Batch{SurfaceID: primitive.IDNone, VolumeID: volume}
		base := len(entry.refs)
		for _, e := range elems {
			entry.refs = append(entry.refs, primitive.Ref{Kind: primitive.KindTetrahedron, PrimitiveID: e, Sense: primitive.SenseForward, Batch: batch})
		}
		err = scene.AttachGeometry(len(elems),
			func(i int) geom.BoundingBox { return rt.provider.ElementBoundingBox(entry.refs[base+i].PrimitiveID) },
			func(i int, payload *accel.Payload) {},
			func(i int, payload *accel.Payload) bool { return false },
			func(i int, p geom.Vec3, acc *accel.PointQueryState) {
				tetContainsPointQuery(rt.provider, &entry.refs[base+i])(i, p, acc)
			},
		)
		if err != nil {
			xdgerr.Fatalf("raytracer: attach global element batch: %v", err)
		}
	}

	if err := scene.Commit(); err != nil {
		xdgerr.Fatalf("raytracer: commit global element scene: %v", err)
	}
	rt.scenes[primitive.GlobalElementTree] = entry
	return primitive.GlobalElementTree
}

func (rt *RayTracer) entry(tree primitive.TreeID) *sceneEntry {
	e, ok := rt.scenes[tree]
	if !ok {
		xdgerr.Fatalf("raytracer: unknown tree id %d", tree)
	}
	return e
}

// RayFire implements spec.md S4.4's ray_fire. A nil exclude is accepted and
// simply not appended to. TLimit is the incoming t_far (+Inf for unlimited).
func (rt *RayTracer) RayFire(tree primitive.TreeID, origin, dir geom.Vec3, tLimit float64, orientation accel.Orientation, exclude *[]primitive.MeshID) (t float64, surfaceID primitive.MeshID) {
	entry := rt.entry(tree)
	payload := &accel.Payload{
		Origin:      origin,
		Dir:         dir,
		TNear:       0,
		TFar:        tLimit,
		Kind:        accel.FireVolume,
		Orientation: orientation,
		SceneVolume: entry.volume,
	}
	if exclude != nil {
		payload.Exclude = *exclude
	}
	entry.scene.Intersect1(payload)
	if !payload.Hit {
		return math.Inf(1), primitive.IDNone
	}
	if exclude != nil {
		*exclude = append(*exclude, payload.PrimID)
	}
	return payload.T, payload.SurfaceID
}

// PointInVolume implements spec.md S4.4's point_in_volume. direction is the
// optional probe; a zero Vec3 means "use the default probe".
func (rt *RayTracer) PointInVolume(tree primitive.TreeID, p geom.Vec3, direction geom.Vec3) bool {
	entry := rt.entry(tree)
	probe := direction
	if probe == (geom.Vec3{}) {
		probe = geom.DefaultProbeDirection
	}
	payload := &accel.Payload{
		Origin:      p,
		Dir:         probe,
		TNear:       0,
		TFar:        math.Inf(1),
		Kind:        accel.FireVolume,
		Orientation: accel.OrientationAny,
		SceneVolume: entry.volume,
	}
	entry.scene.Intersect1(payload)
	if !payload.Hit {
		return false
	}
	return payload.Dir.Dot(payload.Normal) > 0
}

// Closest implements spec.md S4.4's closest: the nearest surface triangle
// to p and its distance, or (+Inf, ID_NONE) for an empty tree.
func (rt *RayTracer) Closest(tree primitive.TreeID, p geom.Vec3) (t float64, primID primitive.MeshID) {
	entry := rt.entry(tree)
	state := entry.scene.PointQuery(p)
	if state.BestPrim == primitive.IDNone {
		return math.Inf(1), primitive.IDNone
	}
	return math.Sqrt(state.BestDist), state.BestPrim
}

// Occluded implements spec.md S4.4's occluded: a FIND_VOLUME-typed
// occlusion ray. Returns whether anything was hit and, if so, the distance.
func (rt *RayTracer) Occluded(tree primitive.TreeID, origin, dir geom.Vec3, tLimit float64) (hit bool, t float64) {
	entry := rt.entry(tree)
	payload := &accel.Payload{
		Origin:      origin,
		Dir:         dir,
		TNear:       0,
		TFar:        tLimit,
		Kind:        accel.FireFindVolume,
		Orientation: accel.OrientationAny,
		SceneVolume: entry.volume,
	}
	if !entry.scene.Occluded1(payload) {
		return false, 0
	}
	return true, payload.T
}

// FindElement implements spec.md S4.4's find_element: a point-containment
// search over an element tree, terminating at the first containing tet.
func (rt *RayTracer) FindElement(elementTree primitive.TreeID, p geom.Vec3) primitive.MeshID {
	if elementTree == primitive.NoTree {
		xdgerr.Warning("raytracer: find_element on a volume with no element tree")
		return primitive.IDNone
	}
	entry := rt.entry(elementTree)
	state := entry.scene.PointQuery(p)
	if !state.Terminated {
		return primitive.IDNone
	}
	return state.BestPrim
}

// RayFireBatch and PointInVolumeBatch give every scalar entry point an N-ray
// counterpart with identical per-ray semantics (spec.md S4.4 "Batch
// variants"); N==0 is a no-op and output index i matches input index i. The
// CPU path here is, as spec.md S9's open question notes of the source,
// simply a loop over the scalar API.
func (rt *RayTracer) RayFireBatch(tree primitive.TreeID, origins, dirs []geom.Vec3, tLimit float64, orientation accel.Orientation, exclude []*[]primitive.MeshID) (ts []float64, surfaceIDs []primitive.MeshID) {
	n := len(origins)
	if n == 0 {
		return nil, nil
	}
	ts = make([]float64, n)
	surfaceIDs = make([]primitive.MeshID, n)
	for i := 0; i < n; i++ {
		var ex *[]primitive.MeshID
		if exclude != nil {
			ex = exclude[i]
		}
		ts[i], surfaceIDs[i] = rt.RayFire(tree, origins[i], dirs[i], tLimit, orientation, ex)
	}
	return ts, surfaceIDs
}

// PointInVolumeBatch is PointInVolume's batch counterpart. hasDirection, if
// non-nil, selects which entries use directions[i] as their probe; entries
// outside the mask (or when hasDirection is nil) use the default probe.
func (rt *RayTracer) PointInVolumeBatch(tree primitive.TreeID, points, directions []geom.Vec3, hasDirection []bool) []bool {
	n := len(points)
	if n == 0 {
		return nil
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		dir := geom.Vec3{}
		if hasDirection != nil && i < len(hasDirection) && hasDirection[i] {
			dir = directions[i]
		}
		out[i] = rt.PointInVolume(tree, points[i], dir)
	}
	return out
}
