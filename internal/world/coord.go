package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkCoord identifies a chunk in the streaming grid.
type ChunkCoord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Origin returns the world-space corner of the chunk.
func (c ChunkCoord) Origin(chunkSize float64) mgl64.Vec2 {
	return mgl64.Vec2{float64(c.X) * chunkSize, float64(c.Z) * chunkSize}
}

// ChebyshevDistance is the chessboard distance in chunks.
func (c ChunkCoord) ChebyshevDistance(o ChunkCoord) int {
	return max(abs(c.X-o.X), abs(c.Z-o.Z))
}

// CoordFromPosition returns the chunk containing world (x, z). Non-finite
// input or a non-positive chunk size maps to the origin chunk.
func CoordFromPosition(x, z, chunkSize float64) ChunkCoord {
	if !(chunkSize > 0) {
		return ChunkCoord{}
	}
	cx := math.Floor(x / chunkSize)
	cz := math.Floor(z / chunkSize)
	if !inIntRange(cx) || !inIntRange(cz) {
		return ChunkCoord{}
	}
	return ChunkCoord{X: int(cx), Z: int(cz)}
}

// Neighbourhood returns every coordinate within Chebyshev radius of center,
// row by row.
func Neighbourhood(center ChunkCoord, radius int) []ChunkCoord {
	if radius < 0 {
		return nil
	}
	side := 2*radius + 1
	out := make([]ChunkCoord, 0, side*side)
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			out = append(out, ChunkCoord{X: center.X + dx, Z: center.Z + dz})
		}
	}
	return out
}

func inIntRange(v float64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
