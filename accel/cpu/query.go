package cpu

import (
	"math"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/primitive"
)

// Intersect1 walks the BVH depth-first, shrinking payload.TFar as closer
// hits commit, so a subtree whose box no longer overlaps [TNear,TFar] is
// skipped entirely (grounded on meshcollider.go's queryBVH early-out).
func (s *Scene) Intersect1(payload *accel.Payload) {
	if s.root == nil {
		return
	}
	s.walkIntersect(s.root, payload)
}

func (s *Scene) walkIntersect(n *node, payload *accel.Payload) {
	if n == nil {
		return
	}
	if !n.bounds.IntersectsRay(payload.Origin, payload.Dir, payload.TNear, payload.TFar) {
		return
	}
	if n.leaves != nil {
		for _, idx := range n.leaves {
			l := s.leaves[idx]
			l.batch.intersect(l.localIndex, payload)
		}
		return
	}
	s.walkIntersect(n.left, payload)
	s.walkIntersect(n.right, payload)
}

// Occluded1 stops the instant any leaf callback sets payload.Terminated,
// matching the shadow-ray early exit spec.md S4.5 describes for occlusion
// queries.
func (s *Scene) Occluded1(payload *accel.Payload) bool {
	if s.root == nil {
		return false
	}
	s.walkOccluded(s.root, payload)
	return payload.Terminated
}

func (s *Scene) walkOccluded(n *node, payload *accel.Payload) {
	if n == nil || payload.Terminated {
		return
	}
	if !n.bounds.IntersectsRay(payload.Origin, payload.Dir, payload.TNear, payload.TFar) {
		return
	}
	if n.leaves != nil {
		for _, idx := range n.leaves {
			l := s.leaves[idx]
			if l.batch.occlude(l.localIndex, payload) {
				payload.Terminated = true
				return
			}
		}
		return
	}
	s.walkOccluded(n.left, payload)
	if payload.Terminated {
		return
	}
	s.walkOccluded(n.right, payload)
}

// PointQuery runs a best-first closest-feature search: a subtree is only
// descended into when its box could hold something closer than the best
// candidate found so far (geom.BoundingBox.DistanceSq pruning), generalizing
// meshcollider.go's sphere-overlap queryBVH to an unbounded point query. Each
// leaf's own batch.pointQuery is invoked, so a scene mixing batches with
// different primitive kinds routes correctly without the traversal needing
// to know what a leaf "is".
func (s *Scene) PointQuery(p geom.Vec3) accel.PointQueryState {
	state := accel.PointQueryState{BestDist: math.Inf(1), BestPrim: primitive.IDNone}
	if s.root == nil {
		return state
	}
	s.walkPoint(s.root, p, &state)
	return state
}

func (s *Scene) walkPoint(n *node, p geom.Vec3, state *accel.PointQueryState) {
	if n == nil || state.Terminated {
		return
	}
	if n.bounds.DistanceSq(p) > state.BestDist {
		return
	}
	if n.leaves != nil {
		for _, idx := range n.leaves {
			l := s.leaves[idx]
			if l.batch.pointQuery == nil {
				continue
			}
			l.batch.pointQuery(l.localIndex, p, state)
			if state.Terminated {
				return
			}
		}
		return
	}
	// Descend into the nearer child first so BestDist tightens early and
	// prunes the farther subtree more often.
	leftDist := math.Inf(1)
	rightDist := math.Inf(1)
	if n.left != nil {
		leftDist = n.left.bounds.DistanceSq(p)
	}
	if n.right != nil {
		rightDist = n.right.bounds.DistanceSq(p)
	}
	first, second := n.left, n.right
	if rightDist < leftDist {
		first, second = n.right, n.left
	}
	s.walkPoint(first, p, state)
	s.walkPoint(second, p, state)
}
