package world

import (
	"slices"
	"sync"

	"witchwood/internal/profiling"
)

// ChunkStore is the resident set: at most one chunk per coordinate.
// Reads are safe from any goroutine; writes come from the tick goroutine.
type ChunkStore struct {
	chunks   map[ChunkCoord]*Chunk
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*Chunk)}
}

// Get returns the chunk at coord, or nil.
func (cs *ChunkStore) Get(coord ChunkCoord) *Chunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// Has reports whether coord is resident.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[coord]
	cs.mu.RUnlock()
	return ok
}

// Add makes chunk resident at coord. It reports false, leaving the store
// unchanged, when coord is already taken.
func (cs *ChunkStore) Add(coord ChunkCoord, chunk *Chunk) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; ok {
		return false
	}
	cs.chunks[coord] = chunk
	cs.modCount++
	return true
}

// Remove drops coord and returns the chunk that was there.
func (cs *ChunkStore) Remove(coord ChunkCoord) *Chunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.chunks[coord]
	if !ok {
		return nil
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return c
}

func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Coords returns the resident coordinates sorted by Z then X.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		out = append(out, coord)
	}
	cs.mu.RUnlock()
	slices.SortFunc(out, compareCoords)
	return out
}

// AppendChunks appends every resident chunk to dst in coordinate order.
func (cs *ChunkStore) AppendChunks(dst []*Chunk) []*Chunk {
	for _, coord := range cs.Coords() {
		if c := cs.Get(coord); c != nil {
			dst = append(dst, c)
		}
	}
	return dst
}

// CoordsOutside lists resident coordinates farther than radius (Chebyshev)
// from center, in coordinate order.
func (cs *ChunkStore) CoordsOutside(center ChunkCoord, radius int) []ChunkCoord {
	defer profiling.Track("world.CoordsOutside")()
	var out []ChunkCoord
	for _, coord := range cs.Coords() {
		if coord.ChebyshevDistance(center) > radius {
			out = append(out, coord)
		}
	}
	return out
}

// ModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

func compareCoords(a, b ChunkCoord) int {
	if a.Z != b.Z {
		return a.Z - b.Z
	}
	return a.X - b.X
}
