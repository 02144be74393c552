// Package xdg is the service layer of spec.md S4.6: it wraps a RayTracer
// facade with the volume-resolving, chord-tracking, and measurement
// operations tools actually call, instead of the lower-level tree/scene API.
package xdg

import (
	"math"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
	"github.com/xdg-org/xdg-sub000/raytracer"
	"github.com/xdg-org/xdg-sub000/xdgerr"
)

// volumeTrees is the pair of tree handles register_volume produced for one
// volume, kept so the service layer never has to re-derive them.
type volumeTrees struct {
	surface primitive.TreeID
	element primitive.TreeID
}

// Service is the spec.md S4.6 XDG facade. It owns a RayTracer and the
// registration order of its volumes, which find_volume's unspecified-but-
// deterministic iteration relies on.
type Service struct {
	rt       *raytracer.RayTracer
	provider mesh.Provider

	order []mesh.MeshID
	trees map[mesh.MeshID]volumeTrees
}

// New builds an XDG service over backend/provider with no volumes registered
// yet.
func New(backend accel.Backend, provider mesh.Provider) *Service {
	return &Service{
		rt:       raytracer.New(backend, provider),
		provider: provider,
		trees:    make(map[mesh.MeshID]volumeTrees),
	}
}

// RegisterVolume registers volume with the underlying RayTracer and records
// its tree handles for find_volume/segments/measure to use.
func (s *Service) RegisterVolume(volume mesh.MeshID) {
	surf, elem := s.rt.RegisterVolume(volume)
	s.trees[volume] = volumeTrees{surface: surf, element: elem}
	s.order = append(s.order, volume)
}

// FindVolume implements spec.md S4.6's find_volume: the first registered
// volume (in registration order) whose surface tree reports p inside along
// u, or ID_NONE.
func (s *Service) FindVolume(p, u geom.Vec3) mesh.MeshID {
	for _, v := range s.order {
		if s.rt.PointInVolume(s.trees[v].surface, p, u) {
			return v
		}
	}
	return mesh.IDNone
}

// Segment is one element (or implicit-complement boundary) of a traced
// chord: the element the chord passed through and the length of travel
// inside it.
type Segment struct {
	ElementID mesh.MeshID
	SubLength float64
}

// Segments implements spec.md S4.6's segments(volume, start, end): it fires
// repeatedly within volume's surface tree, each hit advancing the origin
// past the crossed triangle by TinyBit and pushing it onto the exclude list
// so the next fire finds the next boundary. Each traversed span is resolved
// to its containing element via volume's element tree (or ID_NONE when the
// volume carries no tetrahedra).
func (s *Service) Segments(volume mesh.MeshID, start, end geom.Vec3) []Segment {
	trees, ok := s.trees[volume]
	if !ok {
		xdgerr.Fatalf("xdg: segments: volume %d not registered", volume)
	}

	total := end.Sub(start).Length()
	if total == 0 {
		return nil
	}
	u := end.Sub(start).Scale(1 / total)

	var out []Segment
	var exclude []primitive.MeshID
	pos := start
	remaining := total

	for remaining > 0 {
		t, surfaceID := s.rt.RayFire(trees.surface, pos, u, remaining, accel.OrientationExiting, &exclude)
		if surfaceID == mesh.IDNone {
			out = append(out, Segment{ElementID: s.elementAt(trees.element, pos, u, remaining), SubLength: remaining})
			break
		}
		out = append(out, Segment{ElementID: s.elementAt(trees.element, pos, u, t), SubLength: t})
		step := t + primitive.TinyBit
		if step > remaining {
			step = remaining
		}
		pos = pos.Add(u.Scale(step))
		remaining -= step
	}
	return out
}

// elementAt resolves the element containing the midpoint of a span of
// length d starting at pos along u, falling back to ID_NONE when the volume
// has no element tree (a pure-surface mesh).
func (s *Service) elementAt(elementTree primitive.TreeID, pos, u geom.Vec3, d float64) mesh.MeshID {
	if elementTree == primitive.NoTree {
		return mesh.IDNone
	}
	mid := pos.Add(u.Scale(d / 2))
	return s.rt.FindElement(elementTree, mid)
}

// SegmentsAuto is the unqualified overload of spec.md S4.6's segments: it
// has no fixed volume, instead locating find_volume(start, u) and switching
// volumes every time the chord exits one and re-enters another, located by
// find_volume at the exit point plus TinyBit*u.
func (s *Service) SegmentsAuto(start, end geom.Vec3) []Segment {
	total := end.Sub(start).Length()
	if total == 0 {
		return nil
	}
	u := end.Sub(start).Scale(1 / total)

	var out []Segment
	pos := start
	remaining := total
	volume := s.FindVolume(pos, u)

	for remaining > 0 {
		if volume == mesh.IDNone {
			// Outside every registered volume: look for a volume just ahead
			// (at most 1e-6 along u) and stop if there is none. A gap of
			// empty space between volumes is not crossed.
			next := s.FindVolume(pos.Add(u.Scale(math.Min(remaining, 1e-6))), u)
			if next == mesh.IDNone {
				break
			}
			volume = next
			continue
		}
		trees := s.trees[volume]
		var exclude []primitive.MeshID
		t, surfaceID := s.rt.RayFire(trees.surface, pos, u, remaining, accel.OrientationExiting, &exclude)
		if surfaceID == mesh.IDNone {
			out = append(out, Segment{ElementID: s.elementAt(trees.element, pos, u, remaining), SubLength: remaining})
			break
		}
		out = append(out, Segment{ElementID: s.elementAt(trees.element, pos, u, t), SubLength: t})
		step := t + primitive.TinyBit
		if step > remaining {
			step = remaining
		}
		pos = pos.Add(u.Scale(step))
		remaining -= step
		volume = s.FindVolume(pos.Add(u.Scale(primitive.TinyBit)), u)
	}
	return out
}

// SurfaceNormal implements spec.md S4.6's surface_normal: the normal of the
// most recently hit triangle when exclude carries one, else the normal of
// the triangle closest to p within the surface's forward-parent volume.
func (s *Service) SurfaceNormal(surface mesh.MeshID, p geom.Vec3, exclude []primitive.MeshID) geom.Vec3 {
	if len(exclude) > 0 {
		return s.provider.FaceNormal(exclude[len(exclude)-1])
	}
	fwd, _ := s.provider.ParentVolumes(surface)
	trees, ok := s.trees[fwd]
	if !ok {
		xdgerr.Fatalf("xdg: surface_normal: surface %d's forward volume %d not registered", surface, fwd)
	}
	_, primID := s.rt.Closest(trees.surface, p)
	if primID == mesh.IDNone {
		return geom.Vec3{}
	}
	return s.provider.FaceNormal(primID)
}

// MeasureVolume implements spec.md S4.6's measure_volume: the divergence-
// theorem sum over every bounding surface's triangles, sign-flipped for
// surfaces whose sense relative to v is REVERSE.
func (s *Service) MeasureVolume(v mesh.MeshID) float64 {
	var sum float64
	for _, surf := range s.provider.VolumeSurfaces(v) {
		fwd, rev := s.provider.ParentVolumes(surf)
		var sign float64
		switch v {
		case fwd:
			sign = 1
		case rev:
			sign = -1
		default:
			xdgerr.Fatalf("xdg: measure_volume: surface %d's parents (%d,%d) do not include volume %d", surf, fwd, rev, v)
		}
		for _, f := range s.provider.SurfaceFaces(surf) {
			verts := s.provider.FaceVertices(f)
			sum += sign * geom.SignedTriVolume(verts[0], verts[1], verts[2])
		}
	}
	return sum / 6
}

// MeasureSurfaceArea implements spec.md S4.6's measure_surface_area.
func (s *Service) MeasureSurfaceArea(surface mesh.MeshID) float64 {
	var sum float64
	for _, f := range s.provider.SurfaceFaces(surface) {
		verts := s.provider.FaceVertices(f)
		sum += geom.TriangleArea(verts[0], verts[1], verts[2])
	}
	return sum
}

// MeasureVolumeArea implements spec.md S4.6's measure_volume_area: the sum
// of measure_surface_area over every surface bounding v.
func (s *Service) MeasureVolumeArea(v mesh.MeshID) float64 {
	var sum float64
	for _, surf := range s.provider.VolumeSurfaces(v) {
		sum += s.MeasureSurfaceArea(surf)
	}
	return sum
}

// TallySegments accumulates the per-element path length across one or more
// Segments results, the downstream scoring step original_source/tools/
// tally_segments.cpp performs on a segments() trace. It is purely additive
// over Segment.ElementID/SubLength; it does not retrace or reorder anything
// Segments/SegmentsAuto already computed.
func TallySegments(spans ...[]Segment) map[mesh.MeshID]float64 {
	tally := make(map[mesh.MeshID]float64)
	for _, segs := range spans {
		for _, sg := range segs {
			tally[sg.ElementID] += sg.SubLength
		}
	}
	return tally
}
