// Package cpu implements accel.Backend as a pure-CPU median-split BVH.
// Grounded directly on components.MeshCollider's buildBVHNode/computeBounds/
// partitionTriangles/queryBVH (internal/components/meshcollider.go) — the
// teacher's own mesh BVH, generalized here from raylib Vector3/float32
// triangles to arbitrary user geometry batches in double precision.
package cpu

import (
	"fmt"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
)

// maxLeafSize and maxDepth match the teacher's BVH tuning
// (meshcollider.go's `len(indices) <= 4 || depth > 20`).
const (
	maxLeafSize = 4
	maxDepth    = 20
)

type Backend struct{}

// New returns a CPU accel.Backend. There is no process-wide device to
// initialize — BVH construction happens entirely in-process, per scene.
func New() *Backend { return &Backend{} }

func (b *Backend) NewScene() (accel.Scene, error) {
	return &Scene{}, nil
}

func (b *Backend) Release() {}

type geometryBatch struct {
	primCount  int
	bounds     accel.BoundsFunc
	intersect  accel.IntersectFunc
	occlude    accel.OccludeFunc
	pointQuery accel.PointQueryFunc
}

type leaf struct {
	batch      *geometryBatch
	localIndex int
	bounds     geom.BoundingBox
}

type node struct {
	bounds geom.BoundingBox
	left   *node
	right  *node
	leaves []int // indices into Scene.leaves; only set on leaf nodes
}

// Scene is a committed BVH over one or more AttachGeometry batches.
type Scene struct {
	batches   []*geometryBatch
	leaves    []leaf
	root      *node
	committed bool
}

func (s *Scene) AttachGeometry(primCount int, bounds accel.BoundsFunc, intersect accel.IntersectFunc, occlude accel.OccludeFunc, pointQuery accel.PointQueryFunc) error {
	if s.committed {
		return fmt.Errorf("cpu: cannot attach geometry after commit")
	}
	batch := &geometryBatch{primCount: primCount, bounds: bounds, intersect: intersect, occlude: occlude, pointQuery: pointQuery}
	s.batches = append(s.batches, batch)
	for i := 0; i < primCount; i++ {
		s.leaves = append(s.leaves, leaf{batch: batch, localIndex: i, bounds: bounds(i)})
	}
	return nil
}

func (s *Scene) Commit() error {
	if s.committed {
		return fmt.Errorf("cpu: scene already committed")
	}
	indices := make([]int, len(s.leaves))
	for i := range indices {
		indices[i] = i
	}
	s.root = s.build(indices, 0)
	s.committed = true
	return nil
}

func (s *Scene) build(indices []int, depth int) *node {
	n := &node{bounds: s.computeBounds(indices)}

	if len(indices) <= maxLeafSize || depth > maxDepth {
		n.leaves = indices
		return n
	}

	axis := n.bounds.LongestAxis()
	mid := s.partition(indices, axis)
	if mid == 0 || mid == len(indices) {
		n.leaves = indices
		return n
	}

	n.left = s.build(indices[:mid], depth+1)
	n.right = s.build(indices[mid:], depth+1)
	return n
}

func (s *Scene) computeBounds(indices []int) geom.BoundingBox {
	bb := geom.EmptyBoundingBox()
	for _, idx := range indices {
		bb = bb.Union(s.leaves[idx].bounds)
	}
	return bb
}

// partition splits indices around the median centroid on the given axis,
// mirroring meshcollider.go's partitionTriangles.
func (s *Scene) partition(indices []int, axis int) int {
	center := 0.0
	for _, idx := range indices {
		center += s.leaves[idx].bounds.Center().Component(axis)
	}
	center /= float64(len(indices))

	left, right := 0, len(indices)-1
	for left <= right {
		c := s.leaves[indices[left]].bounds.Center().Component(axis)
		if c < center {
			left++
		} else {
			indices[left], indices[right] = indices[right], indices[left]
			right--
		}
	}
	return left
}

func (s *Scene) Release() {
	s.root = nil
	s.leaves = nil
	s.batches = nil
}
