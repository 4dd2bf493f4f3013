package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// ErrMissing is returned by constructors that are handed a nil settings bundle.
var ErrMissing = errors.New("missing settings")

// MaxResolution bounds cells per chunk edge so vertex indices fit in uint32
// and a chunk's height grid stays allocatable.
const MaxResolution = 4096

// Config is the read-only settings bundle of one world. It is loaded once at
// world start and shared by pointer; nothing in the terrain core mutates it.
type Config struct {
	Seed    int64   `yaml:"seed"`
	Terrain Terrain `yaml:"terrain"`
	Stream  Stream  `yaml:"stream"`
	Debug   Debug   `yaml:"debug"`
}

// Terrain holds chunk geometry, noise, flattening, path and vegetation options.
type Terrain struct {
	ChunkSize  float64 `yaml:"chunkSize"`
	Resolution int     `yaml:"resolution"` // maximum LOD resolution, cells per chunk edge

	NoiseScale  float64 `yaml:"noiseScale"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Amplitude   float64 `yaml:"amplitude"`

	FlattenPointCount int     `yaml:"flattenPointCount"`
	FlattenRadius     float64 `yaml:"flattenRadius"`
	MinPointDistance  float64 `yaml:"minPointDistance"`
	PathWidth         float64 `yaml:"pathWidth"`

	TreeDensity     float64 `yaml:"treeDensity"` // candidates per world unit along each axis
	MinTreeDistance float64 `yaml:"minTreeDistance"`
	MaxTreeTilt     float64 `yaml:"maxTreeTilt"` // degrees
}

// Stream controls chunk residency and level of detail.
type Stream struct {
	ViewDistance  int  `yaml:"viewDistance"` // Chebyshev radius in chunks
	LODRange      int  `yaml:"lodRange"`     // chunks farther than this are hidden
	StaticTerrain bool `yaml:"staticTerrain"`
}

// Debug configures the optional inspection server.
type Debug struct {
	Listen string `yaml:"listen"`
}

// Default returns the settings the game ships with.
func Default() *Config {
	return &Config{
		Seed: 0,
		Terrain: Terrain{
			ChunkSize:         10,
			Resolution:        100,
			NoiseScale:        1,
			Octaves:           4,
			Persistence:       0.5,
			Lacunarity:        2,
			Amplitude:         10,
			FlattenPointCount: 16,
			FlattenRadius:     8,
			MinPointDistance:  16,
			PathWidth:         4,
			TreeDensity:       0.2,
			MinTreeDistance:   2,
			MaxTreeTilt:       5,
		},
		Stream: Stream{
			ViewDistance: 3,
			LODRange:     3,
		},
	}
}

// Validate reports the first option that cannot produce a usable world.
func (c *Config) Validate() error {
	t := &c.Terrain
	if !finite(t.ChunkSize) || t.ChunkSize <= 0 {
		return fmt.Errorf("%w: terrain.chunkSize must be positive", ErrInvalid)
	}
	if t.Resolution < 1 {
		return fmt.Errorf("%w: terrain.resolution must be at least 1", ErrInvalid)
	}
	if t.Resolution > MaxResolution {
		return fmt.Errorf("%w: terrain.resolution must be at most %d", ErrInvalid, MaxResolution)
	}
	if t.Octaves < 0 || t.Octaves > 16 {
		return fmt.Errorf("%w: terrain.octaves must be in [0,16]", ErrInvalid)
	}
	if !finite(t.NoiseScale) || !finite(t.Persistence) || !finite(t.Lacunarity) || !finite(t.Amplitude) {
		return fmt.Errorf("%w: terrain noise options must be finite", ErrInvalid)
	}
	if t.Persistence <= 0 || t.Lacunarity <= 0 {
		return fmt.Errorf("%w: terrain.persistence and terrain.lacunarity must be positive", ErrInvalid)
	}
	if t.FlattenPointCount < 0 {
		return fmt.Errorf("%w: terrain.flattenPointCount cannot be negative", ErrInvalid)
	}
	for name, v := range map[string]float64{
		"flattenRadius":    t.FlattenRadius,
		"minPointDistance": t.MinPointDistance,
		"pathWidth":        t.PathWidth,
		"treeDensity":      t.TreeDensity,
		"minTreeDistance":  t.MinTreeDistance,
	} {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%w: terrain.%s must be a non-negative number", ErrInvalid, name)
		}
	}
	if !finite(t.MaxTreeTilt) || t.MaxTreeTilt < 0 || t.MaxTreeTilt > 90 {
		return fmt.Errorf("%w: terrain.maxTreeTilt must be in [0,90] degrees", ErrInvalid)
	}
	if c.Stream.ViewDistance < 0 {
		return fmt.Errorf("%w: stream.viewDistance cannot be negative", ErrInvalid)
	}
	if c.Stream.LODRange < 0 {
		return fmt.Errorf("%w: stream.lodRange cannot be negative", ErrInvalid)
	}
	return nil
}

// Normalize clamps values that have an obvious safe minimum so that a
// hand-built Config never divides by zero downstream.
func (c *Config) Normalize() {
	c.Terrain.Resolution = min(max(c.Terrain.Resolution, 1), MaxResolution)
	if c.Terrain.Octaves < 0 {
		c.Terrain.Octaves = 0
	}
	if c.Stream.ViewDistance < 0 {
		c.Stream.ViewDistance = 0
	}
	if c.Stream.LODRange < 0 {
		c.Stream.LODRange = 0
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
