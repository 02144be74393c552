package primitive

// BlockMapping maps a possibly-gappy external MeshID space onto a compact,
// contiguous range of indices [0,N), and back. Grounded on the
// UID->GameObject lookup in the teacher's engine.Scene / GameObjectRef
// (internal/engine/scene.go, internal/engine/gameobject_ref.go): an
// external, caller-chosen identifier resolved through a map, with an
// O(1) inverse.
type BlockMapping struct {
	idToIndex map[MeshID]int
	indexToID []MeshID
}

func NewBlockMapping() *BlockMapping {
	return &BlockMapping{idToIndex: make(map[MeshID]int)}
}

// Add appends id to the mapping if it isn't already present and returns its
// compact index either way.
func (b *BlockMapping) Add(id MeshID) int {
	if idx, ok := b.idToIndex[id]; ok {
		return idx
	}
	idx := len(b.indexToID)
	b.idToIndex[id] = idx
	b.indexToID = append(b.indexToID, id)
	return idx
}

// Index returns the compact index for id, or (-1, false) if id was never
// added.
func (b *BlockMapping) Index(id MeshID) (int, bool) {
	idx, ok := b.idToIndex[id]
	if !ok {
		return -1, false
	}
	return idx, true
}

// ID returns the external id stored at a compact index.
func (b *BlockMapping) ID(index int) MeshID {
	if index < 0 || index >= len(b.indexToID) {
		return IDNone
	}
	return b.indexToID[index]
}

func (b *BlockMapping) Len() int {
	return len(b.indexToID)
}
