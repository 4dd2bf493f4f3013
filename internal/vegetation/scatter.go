// Package vegetation places tree instances on terrain chunks.
package vegetation

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
	"witchwood/internal/profiling"
)

const (
	// MaxInstancesPerBatch is the hardware instancing limit per draw.
	MaxInstancesPerBatch = 1023

	maxCellsPerAxis = 256
	minScale        = 0.8
	maxScale        = 1.2
)

// Exclusion keeps trees off paths and clearings.
type Exclusion interface {
	IsWithin(p mgl64.Vec2) bool
}

// Heights gives the ground height a tree is planted at.
type Heights interface {
	Height(x, z float64) float64
}

// Scatterer produces deterministic tree transforms for a chunk.
type Scatterer struct {
	seed      int64
	density   float64
	minDist   float64
	maxTilt   float32 // radians
	exclusion Exclusion
	heights   Heights
}

// NewScatterer reads the tree options of s. exclusion may be nil.
func NewScatterer(seed int64, s *config.Terrain, exclusion Exclusion, heights Heights) *Scatterer {
	return &Scatterer{
		seed:      seed,
		density:   s.TreeDensity,
		minDist:   s.MinTreeDistance,
		maxTilt:   mgl32.DegToRad(float32(s.MaxTreeTilt)),
		exclusion: exclusion,
		heights:   heights,
	}
}

// Scatter appends the world-space transforms for chunk (cx, cz) to dst[:0]
// and returns it. The random stream is keyed by world seed and chunk
// coordinate, so a chunk recycled through the pool gets the layout a fresh
// chunk at the same coordinate would.
func (s *Scatterer) Scatter(cx, cz int, origin mgl64.Vec2, size float64, dst []mgl32.Mat4) []mgl32.Mat4 {
	defer profiling.Track("vegetation.Scatter")()
	dst = dst[:0]
	if s.density <= 0 || !(size > 0) || math.IsInf(size, 0) {
		return dst
	}

	step := 1 / s.density
	cells := int(math.Ceil(size / step))
	if cells > maxCellsPerAxis {
		cells = maxCellsPerAxis
		step = size / float64(cells)
	}

	rng := rand.New(rand.NewPCG(uint64(s.seed), coordHash(cx, cz)))
	accepted := make([]mgl64.Vec2, 0, cells)
	minDistSq := s.minDist * s.minDist

	for j := 0; j < cells; j++ {
		for i := 0; i < cells; i++ {
			// every cell consumes the same draws so a rejection never shifts
			// the rest of the layout
			jx, jz := rng.Float64(), rng.Float64()
			yaw := rng.Float32() * 2 * math.Pi
			tiltX := (rng.Float32()*2 - 1) * s.maxTilt
			tiltZ := (rng.Float32()*2 - 1) * s.maxTilt
			scale := minScale + rng.Float32()*(maxScale-minScale)

			lx := (float64(i) + jx) * step
			lz := (float64(j) + jz) * step
			if lx >= size || lz >= size {
				continue
			}
			p := mgl64.Vec2{origin.X() + lx, origin.Y() + lz}
			if s.exclusion != nil && s.exclusion.IsWithin(p) {
				continue
			}
			if tooClose(p, accepted, minDistSq) {
				continue
			}
			accepted = append(accepted, p)

			y := 0.0
			if s.heights != nil {
				y = s.heights.Height(p.X(), p.Y())
			}
			m := mgl32.Translate3D(float32(p.X()), float32(y), float32(p.Y())).
				Mul4(mgl32.HomogRotate3DY(yaw)).
				Mul4(mgl32.HomogRotate3DX(tiltX)).
				Mul4(mgl32.HomogRotate3DZ(tiltZ)).
				Mul4(mgl32.Scale3D(scale, scale, scale))
			dst = append(dst, m)
		}
	}
	profiling.Count("vegetation.placed", int64(len(dst)))
	return dst
}

func tooClose(p mgl64.Vec2, accepted []mgl64.Vec2, minDistSq float64) bool {
	for _, q := range accepted {
		d := p.Sub(q)
		if d.Dot(d) < minDistSq {
			return true
		}
	}
	return false
}

func coordHash(x, z int) uint64 {
	v := uint64(int64(x))*0x9E3779B97F4A7C15 ^ uint64(int64(z))*0xC2B2AE3D27D4EB4F
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// Batches splits transforms into consecutive groups of at most
// MaxInstancesPerBatch. The groups alias transforms.
func Batches(transforms []mgl32.Mat4) [][]mgl32.Mat4 {
	if len(transforms) == 0 {
		return nil
	}
	out := make([][]mgl32.Mat4, 0, (len(transforms)+MaxInstancesPerBatch-1)/MaxInstancesPerBatch)
	for start := 0; start < len(transforms); start += MaxInstancesPerBatch {
		end := min(start+MaxInstancesPerBatch, len(transforms))
		out = append(out, transforms[start:end:end])
	}
	return out
}
