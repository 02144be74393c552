package primitive

import "testing"

func TestBlockMappingRoundTrip(t *testing.T) {
	bm := NewBlockMapping()

	i7 := bm.Add(MeshID(7))
	i3 := bm.Add(MeshID(3))
	i7Again := bm.Add(MeshID(7))

	if i7 != i7Again {
		t.Fatalf("Add is not idempotent: %d vs %d", i7, i7Again)
	}
	if i7 == i3 {
		t.Fatal("distinct ids must get distinct indices")
	}

	if bm.ID(i7) != MeshID(7) {
		t.Errorf("ID(%d) = %v, want 7", i7, bm.ID(i7))
	}
	if idx, ok := bm.Index(MeshID(3)); !ok || idx != i3 {
		t.Errorf("Index(3) = (%d,%v), want (%d,true)", idx, ok, i3)
	}
	if _, ok := bm.Index(MeshID(99)); ok {
		t.Error("Index of unknown id should report false")
	}
	if bm.Len() != 2 {
		t.Errorf("Len() = %d, want 2", bm.Len())
	}
}

func TestBlockMappingOutOfRange(t *testing.T) {
	bm := NewBlockMapping()
	bm.Add(MeshID(1))
	if got := bm.ID(5); got != IDNone {
		t.Errorf("ID(5) = %v, want IDNone", got)
	}
}
