package world

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/boundary"
	"witchwood/internal/config"
	"witchwood/internal/meshing"
	"witchwood/internal/profiling"
	"witchwood/internal/terrain"
	"witchwood/internal/vegetation"
)

// World is one terrain session: the height field, the path network laid out
// around the origin, and the streamer that keeps chunks resident around the
// viewer. Everything is derived from the settings once at construction.
type World struct {
	cfg      *config.Config
	log      *slog.Logger
	heights  *terrain.HeightSampler
	builder  *meshing.Builder
	scatter  *vegetation.Scatterer
	streamer *ChunkStreamer
	bounds   *boundary.Tracker
}

// New builds a session from cfg. cfg is validated; a nil logger uses
// slog.Default.
func New(cfg *config.Config, collab Collaborators, log *slog.Logger) (*World, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		log.Error("world: no settings supplied")
		return nil, config.ErrMissing
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}

	noise := terrain.NewNoiseField(cfg.Seed, &cfg.Terrain)
	network := terrain.NewPathNetwork(cfg.Seed, &cfg.Terrain, cfg.Stream.ViewDistance, 0, 0)
	heights := terrain.NewHeightSampler(noise, network, &cfg.Terrain)
	builder := meshing.NewBuilder(heights, log.With("component", "meshing"))
	scatter := vegetation.NewScatterer(cfg.Seed, &cfg.Terrain, network, heights)

	streamer, err := NewChunkStreamer(cfg, builder, scatter, collab, log.With("component", "streamer"))
	if err != nil {
		return nil, err
	}
	bounds, err := boundary.NewTracker(network, log.With("component", "boundary"))
	if err != nil {
		return nil, err
	}
	log.Info("world ready",
		"seed", cfg.Seed,
		"flattenPoints", len(network.Points()),
		"chunkSize", cfg.Terrain.ChunkSize,
		"viewDistance", cfg.Stream.ViewDistance)

	return &World{
		cfg:      cfg,
		log:      log,
		heights:  heights,
		builder:  builder,
		scatter:  scatter,
		streamer: streamer,
		bounds:   bounds,
	}, nil
}

func (w *World) Config() *config.Config { return w.cfg }

func (w *World) Heights() *terrain.HeightSampler { return w.heights }

func (w *World) Network() *terrain.PathNetwork { return w.heights.Network() }

func (w *World) Streamer() *ChunkStreamer { return w.streamer }

// Boundary is the tracker a walking viewer is clamped by.
func (w *World) Boundary() *boundary.Tracker { return w.bounds }

// HeightAt is the terrain height at world (x, z).
func (w *World) HeightAt(x, z float64) float64 { return w.heights.Height(x, z) }

// Tick advances streaming by one frame.
func (w *World) Tick() TickReport {
	return w.streamer.Update()
}

// Prewarm builds every chunk around the viewer on workers goroutines before
// the first tick, so a static terrain session starts complete. Meshes are
// installed on the calling goroutine. It is a no-op once streaming started.
func (w *World) Prewarm(ctx context.Context, workers int) error {
	defer profiling.Track("world.Prewarm")()
	s := w.streamer
	if s.hasCurrent {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("world: prewarm: %w", err)
	}
	center := s.ViewerChunk()
	coords := Neighbourhood(center, s.viewDistance)

	pool := meshing.NewWorkerPool(w.builder, workers, len(coords))
	defer pool.Shutdown()

	results := make(chan meshing.MeshResult, len(coords))
	for _, coord := range coords {
		res, visible := LODResolution(s.maxRes, coord.ChebyshevDistance(center), s.lodRange)
		if !visible {
			res = lodTier(s.maxRes, 8, 2)
		}
		job := meshing.MeshJob{
			Key:        [2]int{coord.X, coord.Z},
			Origin:     coord.Origin(s.chunkSize),
			Size:       s.chunkSize,
			Resolution: res,
			ResultChan: results,
		}
		if err := pool.SubmitJobBlocking(ctx, job); err != nil {
			return fmt.Errorf("world: prewarm: %w", err)
		}
	}

	built := make(map[ChunkCoord]*meshing.Mesh, len(coords))
	for range coords {
		select {
		case r := <-results:
			built[ChunkCoord{X: r.Key[0], Z: r.Key[1]}] = r.Mesh
		case <-ctx.Done():
			return fmt.Errorf("world: prewarm: %w", ctx.Err())
		}
	}

	s.current = center
	s.hasCurrent = true
	for _, coord := range coords {
		s.activate(coord, built[coord])
	}
	if s.static {
		s.frozen = true
	}
	s.publish(center)
	w.log.Info("prewarmed chunks", "count", len(coords), "center", center.String())
	return nil
}

// BuildFixedTerrain builds a single cells x cells grid with cellSize spacing
// whose heights fall off toward the corners, for scenes that want a bounded
// island instead of streaming.
func BuildFixedTerrain(cfg *config.Config, cells int, cellSize float64, log *slog.Logger) (*meshing.Mesh, error) {
	if cfg == nil {
		return nil, config.ErrMissing
	}
	if cells < 1 {
		return nil, fmt.Errorf("%w: fixed terrain needs at least one cell", config.ErrInvalid)
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: fixed terrain cell size must be positive", config.ErrInvalid)
	}
	size := float64(cells) * cellSize
	center := mgl64.Vec2{size / 2, size / 2}
	noise := terrain.NewNoiseField(cfg.Seed, &cfg.Terrain)
	heights := terrain.NewHeightSampler(noise, nil, &cfg.Terrain,
		terrain.WithFalloff(center, center.Len()))
	return meshing.NewBuilder(heights, log).Build(mgl64.Vec2{}, size, cells), nil
}
