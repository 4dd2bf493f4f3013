package world

import (
	"slices"
	"testing"
)

func TestChunkStoreAddRemove(t *testing.T) {
	cs := NewChunkStore()
	a := newChunk(1)
	if !cs.Add(ChunkCoord{1, 2}, a) {
		t.Fatal("first Add should succeed")
	}
	if cs.Add(ChunkCoord{1, 2}, newChunk(2)) {
		t.Fatal("second Add at the same coord should fail")
	}
	if cs.Get(ChunkCoord{1, 2}) != a {
		t.Fatal("Get returned a different chunk")
	}
	if cs.ModCount() != 1 {
		t.Errorf("ModCount = %d, want 1", cs.ModCount())
	}
	if cs.Remove(ChunkCoord{1, 2}) != a {
		t.Fatal("Remove returned a different chunk")
	}
	if cs.Remove(ChunkCoord{1, 2}) != nil {
		t.Fatal("Remove of a missing coord should return nil")
	}
	if cs.Len() != 0 || cs.ModCount() != 2 {
		t.Errorf("Len = %d ModCount = %d, want 0 and 2", cs.Len(), cs.ModCount())
	}
}

func TestChunkStoreCoordsSortedAndOutside(t *testing.T) {
	cs := NewChunkStore()
	for i, c := range []ChunkCoord{{2, 0}, {-1, 1}, {0, 0}, {0, -1}} {
		cs.Add(c, newChunk(uint64(i)))
	}
	want := []ChunkCoord{{0, -1}, {0, 0}, {2, 0}, {-1, 1}}
	if got := cs.Coords(); !slices.Equal(got, want) {
		t.Errorf("Coords = %v, want %v", got, want)
	}
	if got := cs.CoordsOutside(ChunkCoord{}, 1); !slices.Equal(got, []ChunkCoord{{2, 0}}) {
		t.Errorf("CoordsOutside = %v", got)
	}
}

func TestChunkPoolIsLIFO(t *testing.T) {
	var p ChunkPool
	a, b := newChunk(1), newChunk(2)
	a.coord, a.state = ChunkCoord{3, 3}, ChunkActive
	p.Put(a)
	p.Put(b)
	if a.state != ChunkPooled || a.coord != (ChunkCoord{}) {
		t.Errorf("Put did not reset chunk: %v %v", a.state, a.coord)
	}
	if got, _ := p.Get(); got != b {
		t.Error("expected last released chunk first")
	}
	if got, _ := p.Get(); got != a {
		t.Error("expected first released chunk second")
	}
	if _, ok := p.Get(); ok {
		t.Error("empty pool returned a chunk")
	}
}
