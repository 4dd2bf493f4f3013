package terrain

import (
	"math"

	"witchwood/internal/config"
)

// noiseUnit converts world units to noise lattice units at noiseScale 1.
const noiseUnit = 100.0

// NoiseField is a seeded fractal gradient-noise height sampler. It is pure:
// the same seed, settings and coordinates always give the same height, which
// is what lets neighbouring chunks at different resolutions agree on shared
// sample points.
type NoiseField struct {
	seed        int64
	scale       float64
	octaves     int
	persistence float64
	lacunarity  float64
	amplitude   float64
}

// NewNoiseField captures the noise options of s; later changes to s are not seen.
func NewNoiseField(seed int64, s *config.Terrain) *NoiseField {
	return &NoiseField{
		seed:        seed,
		scale:       s.NoiseScale,
		octaves:     max(s.Octaves, 0),
		persistence: s.Persistence,
		lacunarity:  s.Lacunarity,
		amplitude:   s.Amplitude,
	}
}

// Height returns the noise height at world (x, z), roughly in [-amplitude, amplitude].
func (n *NoiseField) Height(x, z float64) float64 {
	f := n.scale / noiseUnit
	return octaveNoise2D(x*f, z*f, n.seed, n.octaves, n.persistence, n.lacunarity) * n.amplitude
}

func fade(t float64) float64 {
	// 6t^5 - 15t^4 + 10t^3
	return t * t * t * (t*(t*6-15) + 10)
}

func hash2(x int64, z int64, seed int64) uint64 {
	// SplitMix64 finaliser over the packed lattice coordinate
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0xC2B2AE3D27D4EB4F + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

// eight unit gradients around the circle
var gradients = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{math.Sqrt2 / 2, math.Sqrt2 / 2}, {-math.Sqrt2 / 2, math.Sqrt2 / 2},
	{math.Sqrt2 / 2, -math.Sqrt2 / 2}, {-math.Sqrt2 / 2, -math.Sqrt2 / 2},
}

func gradDot(ix, iz int64, seed int64, dx, dz float64) float64 {
	g := gradients[hash2(ix, iz, seed)&7]
	return g[0]*dx + g[1]*dz
}

// gradientNoise2D is Perlin-style noise in [-1, 1], zero at lattice points.
func gradientNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	fx := x - x0
	fz := z - z0
	ix := int64(x0)
	iz := int64(z0)

	n00 := gradDot(ix, iz, seed, fx, fz)
	n10 := gradDot(ix+1, iz, seed, fx-1, fz)
	n01 := gradDot(ix, iz+1, seed, fx, fz-1)
	n11 := gradDot(ix+1, iz+1, seed, fx-1, fz-1)

	u := fade(fx)
	v := fade(fz)
	i0 := lerp(n00, n10, u)
	i1 := lerp(n01, n11, u)
	// unit gradients peak at sqrt(1/2); stretch to the full range
	return clamp(lerp(i0, i1, v)*math.Sqrt2, -1, 1)
}

// octaveNoise2D sums octaves and normalises by the weights actually used.
func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := range octaves {
		v := gradientNoise2D(x*frequency, z*frequency, seed+int64(i*131))
		sum += v * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
