package geom

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := a.Cross(b); got != (Vec3{-3, 6, -3}) {
		t.Errorf("Cross = %+v", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}
	n := v.Normalize()
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Errorf("Normalize length = %v, want 1", n.Length())
	}

	zero := Vec3{}.Normalize()
	if zero != (Vec3{}) {
		t.Errorf("zero vector should normalize to itself, got %+v", zero)
	}
}

func TestVec3MaxAxis(t *testing.T) {
	cases := []struct {
		v    Vec3
		want int
	}{
		{Vec3{5, 1, 1}, 0},
		{Vec3{1, -5, 1}, 1},
		{Vec3{1, 1, 5}, 2},
	}
	for _, c := range cases {
		if got := c.v.MaxAxis(); got != c.want {
			t.Errorf("MaxAxis(%+v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestVec3Less(t *testing.T) {
	if !(Vec3{0, 0, 0}.Less(Vec3{1, 0, 0})) {
		t.Error("expected (0,0,0) < (1,0,0)")
	}
	if !(Vec3{1, 0, 0}.Less(Vec3{1, 1, 0})) {
		t.Error("expected (1,0,0) < (1,1,0)")
	}
	if (Vec3{1, 1, 1}).Less(Vec3{1, 1, 1}) {
		t.Error("equal vectors must not be Less")
	}
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})
	if n != (Vec3{0, 0, 1}) {
		t.Errorf("TriangleNormal = %+v, want (0,0,1)", n)
	}
}
