package raytracer

import (
	"math"
	"testing"

	"github.com/xdg-org/xdg-sub000/accel"
	"github.com/xdg-org/xdg-sub000/accel/cpu"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
	"github.com/xdg-org/xdg-sub000/primitive"
)

func newBoxRayTracer(t *testing.T) (*RayTracer, *mesh.Mock, primitive.TreeID) {
	t.Helper()
	m := mesh.NewBoxMesh(geom.Vec3{X: -2, Y: -3, Z: -4}, geom.Vec3{X: 5, Y: 6, Z: 7})
	rt := New(cpu.New(), m)
	tree, _ := rt.RegisterVolume(m.Volumes()[0])
	return rt, m, tree
}

// TestRayFireBoxAxes reproduces spec.md's S1 scenario literally.
func TestRayFireBoxAxes(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	cases := []struct {
		name string
		dir  geom.Vec3
		want float64
	}{
		{"+x", geom.Vec3{X: 1}, 5.0},
		{"-x", geom.Vec3{X: -1}, 2.0},
		{"+y", geom.Vec3{Y: 1}, 6.0},
		{"-y", geom.Vec3{Y: -1}, 3.0},
		{"+z", geom.Vec3{Z: 1}, 7.0},
		{"-z", geom.Vec3{Z: -1}, 4.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tt, surf := rt.RayFire(tree, geom.Vec3{}, c.dir, math.Inf(1), accel.OrientationExiting, nil)
			if math.Abs(tt-c.want) > 1e-9 {
				t.Errorf("t = %v, want %v", tt, c.want)
			}
			if surf == primitive.IDNone {
				t.Error("expected a surface hit")
			}
		})
	}
}

// TestRayFireBoxSkipsEnteringFace reproduces spec.md's S2 scenario.
func TestRayFireBoxSkipsEnteringFace(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	tExit, _ := rt.RayFire(tree, geom.Vec3{X: -10}, geom.Vec3{X: 1}, math.Inf(1), accel.OrientationExiting, nil)
	if math.Abs(tExit-15.0) > 1e-9 {
		t.Errorf("exiting t = %v, want 15.0", tExit)
	}

	tEnter, _ := rt.RayFire(tree, geom.Vec3{X: -10}, geom.Vec3{X: 1}, math.Inf(1), accel.OrientationEntering, nil)
	if math.Abs(tEnter-8.0) > 1e-9 {
		t.Errorf("entering t = %v, want 8.0", tEnter)
	}
}

// TestRayFireExcludeAdvances reproduces spec.md's S3 scenario.
func TestRayFireExcludeAdvances(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	var exclude []primitive.MeshID
	t1, surf1 := rt.RayFire(tree, geom.Vec3{}, geom.Vec3{X: 1}, math.Inf(1), accel.OrientationExiting, &exclude)
	if math.Abs(t1-5.0) > 1e-9 || surf1 == primitive.IDNone {
		t.Fatalf("first fire = (%v,%v), want (5.0, a surface)", t1, surf1)
	}
	if len(exclude) != 1 {
		t.Fatalf("exclude list after first fire = %v, want 1 entry", exclude)
	}

	t2, surf2 := rt.RayFire(tree, geom.Vec3{}, geom.Vec3{X: 1}, math.Inf(1), accel.OrientationExiting, &exclude)
	if !math.IsInf(t2, 1) || surf2 != primitive.IDNone {
		t.Errorf("second fire = (%v,%v), want (+Inf, ID_NONE)", t2, surf2)
	}
}

func TestPointInVolume(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	if !rt.PointInVolume(tree, geom.Vec3{}, geom.Vec3{}) {
		t.Error("origin should be inside the box")
	}
	if rt.PointInVolume(tree, geom.Vec3{X: 100}, geom.Vec3{}) {
		t.Error("far outside point should not be inside the box")
	}
}

func TestClosestFindsNearestTriangle(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	tDist, prim := rt.Closest(tree, geom.Vec3{X: 4.9})
	if prim == primitive.IDNone {
		t.Fatal("expected a closest hit")
	}
	if tDist < 0 || tDist > 1.0 {
		t.Errorf("closest distance = %v, want small (near the +x face)", tDist)
	}
}

func TestOccludedReportsHit(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	hit, tDist := rt.Occluded(tree, geom.Vec3{}, geom.Vec3{X: 1}, math.Inf(1))
	if !hit {
		t.Fatal("expected occlusion")
	}
	if math.Abs(tDist-5.0) > 1e-9 {
		t.Errorf("occluded t = %v, want 5.0", tDist)
	}
}

func TestFindElementBrickMesh(t *testing.T) {
	m := mesh.NewBrickMesh(geom.Vec3{}, 10, 2)
	rt := New(cpu.New(), m)
	_, elemTree := rt.RegisterVolume(m.Volumes()[0])

	elem := rt.FindElement(elemTree, geom.Vec3{X: 5, Y: 5, Z: 5})
	if elem == primitive.IDNone {
		t.Fatal("expected to find an element containing the cube's center")
	}

	outside := rt.FindElement(elemTree, geom.Vec3{X: 500, Y: 500, Z: 500})
	if outside != primitive.IDNone {
		t.Errorf("expected ID_NONE far outside the brick, got %v", outside)
	}
}

func TestRayFireBatchMatchesScalar(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)

	origins := []geom.Vec3{{}, {}, {X: -10}}
	dirs := []geom.Vec3{{X: 1}, {Y: 1}, {X: 1}}
	ts, surfaces := rt.RayFireBatch(tree, origins, dirs, math.Inf(1), accel.OrientationExiting, nil)

	want := []float64{5.0, 6.0, 15.0}
	for i, w := range want {
		if math.Abs(ts[i]-w) > 1e-9 {
			t.Errorf("batch[%d] t = %v, want %v", i, ts[i], w)
		}
		if surfaces[i] == primitive.IDNone {
			t.Errorf("batch[%d] expected a surface hit", i)
		}
	}
}

func TestRayFireBatchEmptyIsNoOp(t *testing.T) {
	rt, _, tree := newBoxRayTracer(t)
	ts, surfaces := rt.RayFireBatch(tree, nil, nil, math.Inf(1), accel.OrientationExiting, nil)
	if ts != nil || surfaces != nil {
		t.Error("expected nil results for N=0 batch")
	}
}

func TestGlobalSurfaceTreeAggregatesVolumes(t *testing.T) {
	boxA := mesh.NewBoxMesh(geom.Vec3{X: -1, Y: -1, Z: -1}, geom.Vec3{X: 1, Y: 1, Z: 1})
	rt := New(cpu.New(), boxA)
	rt.RegisterVolume(boxA.Volumes()[0])
	global := rt.CreateGlobalSurfaceTree()

	t1, surf := rt.RayFire(global, geom.Vec3{}, geom.Vec3{X: 1}, math.Inf(1), accel.OrientationExiting, nil)
	if math.Abs(t1-1.0) > 1e-9 || surf == primitive.IDNone {
		t.Errorf("global tree fire = (%v,%v), want (1.0, a surface)", t1, surf)
	}
}

func TestRegisterVolumeTwiceFatal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double registration")
		}
	}()
	rt, m, _ := newBoxRayTracer(t)
	rt.RegisterVolume(m.Volumes()[0])
}
