package cpu

import (
	"math"
	"testing"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/primitive"
)

// buildPointScene attaches one degenerate (point) primitive per entry in
// points, each "hit" by any ray passing within 1e-9 of it along x. Used to
// exercise the BVH split/traverse logic without depending on the mesh
// package.
func buildPointScene(t *testing.T, points []geom.Vec3) *Scene {
	t.Helper()
	s := &Scene{}
	err := s.AttachGeometry(len(points),
		func(i int) geom.BoundingBox {
			return geom.BoundingBox{Min: points[i], Max: points[i]}
		},
		func(i int, payload *accel.Payload) {
			d := points[i].Sub(payload.Origin)
			dist := d.X
			if dist < payload.TNear || dist > payload.TFar {
				return
			}
			if math.Abs(d.Y) > 1e-9 || math.Abs(d.Z) > 1e-9 {
				return
			}
			if payload.Hit && dist >= payload.T {
				return
			}
			payload.Hit = true
			payload.T = dist
			payload.PrimID = primitive.MeshID(i)
		},
		func(i int, payload *accel.Payload) bool {
			d := points[i].Sub(payload.Origin)
			dist := d.X
			return dist >= payload.TNear && dist <= payload.TFar && math.Abs(d.Y) < 1e-9 && math.Abs(d.Z) < 1e-9
		},
		nil,
	)
	if err != nil {
		t.Fatalf("AttachGeometry: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return s
}

func TestSceneIntersectFindsNearest(t *testing.T) {
	points := make([]geom.Vec3, 0, 20)
	for i := 0; i < 20; i++ {
		points = append(points, geom.Vec3{X: float64(i), Y: 0, Z: 0})
	}
	s := buildPointScene(t, points)
	defer s.Release()

	payload := &accel.Payload{
		Origin: geom.Vec3{X: -1},
		Dir:    geom.Vec3{X: 1},
		TNear:  0,
		TFar:   math.Inf(1),
	}
	s.Intersect1(payload)
	if !payload.Hit {
		t.Fatal("expected a hit")
	}
	if math.Abs(payload.T-1) > 1e-9 {
		t.Errorf("T = %v, want 1 (nearest point at x=0)", payload.T)
	}
}

func TestSceneIntersectRespectsTFar(t *testing.T) {
	points := []geom.Vec3{{X: 5}, {X: 10}}
	s := buildPointScene(t, points)
	defer s.Release()

	payload := &accel.Payload{
		Origin: geom.Vec3{},
		Dir:    geom.Vec3{X: 1},
		TNear:  0,
		TFar:   4,
	}
	s.Intersect1(payload)
	if payload.Hit {
		t.Errorf("expected no hit within TFar=4, got T=%v", payload.T)
	}
}

func TestSceneOccludedStopsEarly(t *testing.T) {
	points := make([]geom.Vec3, 0, 50)
	for i := 0; i < 50; i++ {
		points = append(points, geom.Vec3{X: float64(i)})
	}
	s := buildPointScene(t, points)
	defer s.Release()

	payload := &accel.Payload{
		Origin: geom.Vec3{X: -1},
		Dir:    geom.Vec3{X: 1},
		TNear:  0,
		TFar:   math.Inf(1),
	}
	if !s.Occluded1(payload) {
		t.Fatal("expected occlusion")
	}
}

func TestScenePointQueryFindsNearest(t *testing.T) {
	points := []geom.Vec3{{X: 0}, {X: 10}, {X: -20}, {X: 3}}
	s := &Scene{}
	err := s.AttachGeometry(len(points),
		func(i int) geom.BoundingBox { return geom.BoundingBox{Min: points[i], Max: points[i]} },
		func(i int, payload *accel.Payload) {},
		func(i int, payload *accel.Payload) bool { return false },
		func(i int, p geom.Vec3, acc *accel.PointQueryState) {
			d := points[i].Sub(p).LengthSq()
			if d < acc.BestDist {
				acc.BestDist = d
				acc.BestPrim = primitive.MeshID(i)
			}
		},
	)
	if err != nil {
		t.Fatalf("AttachGeometry: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	defer s.Release()

	state := s.PointQuery(geom.Vec3{X: 4})
	if state.BestPrim != primitive.MeshID(3) {
		t.Errorf("BestPrim = %v, want index 3 (x=3, nearest to x=4)", state.BestPrim)
	}
}

func TestSceneCommitTwiceErrors(t *testing.T) {
	s := &Scene{}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Commit(); err == nil {
		t.Error("expected error on double commit")
	}
	if err := s.AttachGeometry(1, nil, nil, nil, nil); err == nil {
		t.Error("expected error attaching geometry after commit")
	}
}
