package gpu

import "testing"

func TestSceneResolveMapsFlatIndexToBatch(t *testing.T) {
	s := &Scene{
		batches: []*geometryBatch{
			{primCount: 3, base: 0},
			{primCount: 2, base: 3},
			{primCount: 4, base: 5},
		},
	}

	cases := []struct {
		flat      int
		wantBatch int
		wantLocal int
	}{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{4, 1, 1},
		{5, 2, 0},
		{8, 2, 3},
	}
	for _, c := range cases {
		b, local := s.resolve(c.flat)
		if b != s.batches[c.wantBatch] || local != c.wantLocal {
			t.Errorf("resolve(%d) = (batch %p, %d), want (batch %p, %d)",
				c.flat, b, local, s.batches[c.wantBatch], c.wantLocal)
		}
	}
}

func TestClampFar(t *testing.T) {
	if got := clampFar(10); got != 10 {
		t.Errorf("clampFar(10) = %v, want 10", got)
	}
	if got := clampFar(1e300); got >= 1e300 {
		t.Errorf("clampFar(1e300) = %v, want clamped below float32 max", got)
	}
}
