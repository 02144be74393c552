package xdg

import (
	"math"
	"testing"

	"github.com/xdg-org/xdg-sub000/accel/cpu"
	"github.com/xdg-org/xdg-sub000/geom"
	"github.com/xdg-org/xdg-sub000/mesh"
)

func newBoxService(t *testing.T) (*Service, *mesh.Mock) {
	t.Helper()
	m := mesh.NewBoxMesh(geom.Vec3{X: -2, Y: -3, Z: -4}, geom.Vec3{X: 5, Y: 6, Z: 7})
	svc := New(cpu.New(), m)
	svc.RegisterVolume(m.Volumes()[0])
	return svc, m
}

func TestMeasureVolumeBox(t *testing.T) {
	svc, m := newBoxService(t)

	got := svc.MeasureVolume(m.Volumes()[0])
	want := 7.0 * 9.0 * 11.0 // [-2,5] x [-3,6] x [-4,7]
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("MeasureVolume = %v, want %v", got, want)
	}
}

func TestMeasureVolumeAreaBox(t *testing.T) {
	svc, m := newBoxService(t)

	got := svc.MeasureVolumeArea(m.Volumes()[0])
	want := 2 * (7*9 + 7*11 + 9*11.0)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("MeasureVolumeArea = %v, want %v", got, want)
	}
}

func TestFindVolumeBox(t *testing.T) {
	svc, m := newBoxService(t)

	if got := svc.FindVolume(geom.Vec3{}, geom.Vec3{X: 1}); got != m.Volumes()[0] {
		t.Errorf("FindVolume(origin) = %v, want %v", got, m.Volumes()[0])
	}
	if got := svc.FindVolume(geom.Vec3{X: 1000}, geom.Vec3{X: 1}); got != mesh.IDNone {
		t.Errorf("FindVolume(far outside) = %v, want ID_NONE", got)
	}
}

func TestSegmentsBoxSingleSpan(t *testing.T) {
	svc, m := newBoxService(t)

	segs := svc.Segments(m.Volumes()[0], geom.Vec3{}, geom.Vec3{X: 5})
	if len(segs) == 0 {
		t.Fatal("expected at least one segment")
	}
	var total float64
	for _, sg := range segs {
		total += sg.SubLength
	}
	if math.Abs(total-5.0) > 1e-6 {
		t.Errorf("total segment length = %v, want 5.0", total)
	}
}

func TestTallySegmentsAccumulatesByElement(t *testing.T) {
	svc, m := newBoxService(t)

	segs := svc.Segments(m.Volumes()[0], geom.Vec3{}, geom.Vec3{X: 5})
	tally := TallySegments(segs, segs)

	var fromSegs float64
	for _, sg := range segs {
		fromSegs += sg.SubLength
	}
	var fromTally float64
	for _, length := range tally {
		fromTally += length
	}
	if math.Abs(fromTally-2*fromSegs) > 1e-6 {
		t.Errorf("tally total = %v, want %v (segs counted twice)", fromTally, 2*fromSegs)
	}
}

func TestSurfaceNormalFallsBackToClosest(t *testing.T) {
	svc, m := newBoxService(t)

	n := svc.SurfaceNormal(m.Surfaces()[0], geom.Vec3{X: 4.9}, nil)
	if n.X <= 0 {
		t.Errorf("expected an outward (+x) normal near the +x face, got %+v", n)
	}
}
