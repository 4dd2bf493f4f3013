package world

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/meshing"
	"witchwood/internal/vegetation"
)

// ChunkState is where a chunk sits in its lifecycle.
type ChunkState uint8

const (
	// ChunkPooled chunks are parked in the pool and own no coordinate.
	ChunkPooled ChunkState = iota
	// ChunkActive chunks are resident, collidable and drawn.
	ChunkActive
	// ChunkHidden chunks are resident but beyond the LOD range.
	ChunkHidden
)

func (s ChunkState) String() string {
	switch s {
	case ChunkPooled:
		return "pooled"
	case ChunkActive:
		return "active"
	case ChunkHidden:
		return "hidden"
	}
	return "unknown"
}

// Chunk is one square tile of terrain plus its vegetation. Meshes and
// transforms are double-buffered: rebuilds write the back buffer and swap,
// so the front mesh handed to collaborators never changes underneath them.
type Chunk struct {
	id         uint64
	coord      ChunkCoord
	state      ChunkState
	resolution int

	front, back *meshing.Mesh

	transforms, spare []mgl32.Mat4
	batches           [][]mgl32.Mat4
}

func newChunk(id uint64) *Chunk {
	return &Chunk{
		id:    id,
		front: &meshing.Mesh{},
		back:  &meshing.Mesh{},
	}
}

// ID is unique per constructed chunk and survives pooling.
func (c *Chunk) ID() uint64 { return c.id }

// Coord is the chunk's current coordinate; meaningless while pooled.
func (c *Chunk) Coord() ChunkCoord { return c.coord }

// State reports where the chunk is in its pool lifecycle.
func (c *Chunk) State() ChunkState { return c.state }

// Resolution is the cell count per side of the current mesh.
func (c *Chunk) Resolution() int { return c.resolution }

// Mesh returns the current front mesh, or nil while pooled.
func (c *Chunk) Mesh() *meshing.Mesh {
	if c.state == ChunkPooled {
		return nil
	}
	return c.front
}

// Transforms returns the vegetation instances of the chunk.
func (c *Chunk) Transforms() []mgl32.Mat4 { return c.transforms }

// Batches returns the transforms split for instanced draws.
func (c *Chunk) Batches() [][]mgl32.Mat4 { return c.batches }

// rebuild regenerates mesh and vegetation for the chunk's coordinate at
// resolution res.
func (c *Chunk) rebuild(b *meshing.Builder, sc *vegetation.Scatterer, chunkSize float64, res int) {
	origin := c.coord.Origin(chunkSize)
	b.BuildInto(c.back, origin, chunkSize, res)
	c.front, c.back = c.back, c.front
	c.resolution = res
	c.rescatter(sc, origin, chunkSize)
}

// install takes ownership of a mesh built elsewhere. The previous front mesh
// becomes the spare buffer.
func (c *Chunk) install(m *meshing.Mesh, sc *vegetation.Scatterer, chunkSize float64) {
	c.back = c.front
	c.front = m
	c.resolution = m.Resolution
	c.rescatter(sc, c.coord.Origin(chunkSize), chunkSize)
}

func (c *Chunk) rescatter(sc *vegetation.Scatterer, origin mgl64.Vec2, chunkSize float64) {
	if sc == nil {
		c.transforms = c.transforms[:0]
		c.batches = nil
		return
	}
	c.spare = sc.Scatter(c.coord.X, c.coord.Z, origin, chunkSize, c.spare)
	c.transforms, c.spare = c.spare, c.transforms
	c.batches = vegetation.Batches(c.transforms)
}

// reset drops per-coordinate state. Buffers are kept for the next user.
func (c *Chunk) reset() {
	c.state = ChunkPooled
	c.coord = ChunkCoord{}
	c.resolution = 0
	c.transforms = c.transforms[:0]
	c.batches = nil
}
