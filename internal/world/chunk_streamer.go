package world

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/config"
	"witchwood/internal/meshing"
	"witchwood/internal/profiling"
	"witchwood/internal/vegetation"
)

// TickReport lists what one Update changed.
type TickReport struct {
	Viewer    ChunkCoord
	Churned   bool
	Activated []ChunkCoord
	Released  []ChunkCoord
	Rebuilt   []ChunkCoord
	Hidden    []ChunkCoord
	Shown     []ChunkCoord
}

// Stats are cumulative churn counters.
type Stats struct {
	Resident    int `json:"resident"`
	Pooled      int `json:"pooled"`
	Constructed int `json:"constructed"`
	Recycled    int `json:"recycled"`
	Activated   int `json:"activated"`
	Released    int `json:"released"`
	Rebuilt     int `json:"rebuilt"`
}

// ChunkInfo is a copy of one resident chunk's state, safe to read from
// other goroutines.
type ChunkInfo struct {
	Coord      ChunkCoord `json:"coord"`
	State      string     `json:"state"`
	Resolution int        `json:"resolution"`
	Trees      int        `json:"trees"`
}

// Snapshot is the streamer state as of the last Update, safe to read from
// other goroutines.
type Snapshot struct {
	Viewer ChunkCoord  `json:"viewer"`
	Stats  Stats       `json:"stats"`
	Chunks []ChunkInfo `json:"chunks"`
}

// ChunkStreamer keeps the square of chunks around the viewer resident and
// picks a level of detail for each. Update must be called from a single
// goroutine.
type ChunkStreamer struct {
	chunkSize    float64
	maxRes       int
	viewDistance int
	lodRange     int
	static       bool

	store   *ChunkStore
	pool    ChunkPool
	builder *meshing.Builder
	scatter *vegetation.Scatterer
	collab  Collaborators
	log     *slog.Logger

	current    ChunkCoord
	hasCurrent bool
	frozen     bool
	viewerLost bool
	nextID     uint64
	stats      Stats

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// NewChunkStreamer wires a streamer. scatter may be nil for bare terrain.
func NewChunkStreamer(cfg *config.Config, builder *meshing.Builder, scatter *vegetation.Scatterer, collab Collaborators, log *slog.Logger) (*ChunkStreamer, error) {
	if cfg == nil {
		return nil, config.ErrMissing
	}
	if builder == nil {
		return nil, errors.New("world: chunk streamer needs a mesh builder")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChunkStreamer{
		chunkSize:    cfg.Terrain.ChunkSize,
		maxRes:       max(cfg.Terrain.Resolution, 1),
		viewDistance: max(cfg.Stream.ViewDistance, 0),
		lodRange:     max(cfg.Stream.LODRange, 0),
		static:       cfg.Stream.StaticTerrain,
		store:        NewChunkStore(),
		builder:      builder,
		scatter:      scatter,
		collab:       collab.withDefaults(),
		log:          log,
	}, nil
}

// Store exposes the resident set.
func (s *ChunkStreamer) Store() *ChunkStore { return s.store }

// Resident returns the resident coordinates in sorted order.
func (s *ChunkStreamer) Resident() []ChunkCoord { return s.store.Coords() }

// Current is the viewer chunk the resident set was last built around.
func (s *ChunkStreamer) Current() (ChunkCoord, bool) { return s.current, s.hasCurrent }

// Stats returns the churn counters together with the current resident and
// pooled counts.
func (s *ChunkStreamer) Stats() Stats {
	st := s.stats
	st.Resident = s.store.Len()
	st.Pooled = s.pool.Len()
	return st
}

// Snapshot returns a copy of the state published by the last Update.
func (s *ChunkStreamer) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	snap := s.snapshot
	snap.Chunks = slices.Clone(snap.Chunks)
	return snap
}

// ViewerChunk returns the chunk the viewer stands in. A missing viewer is
// logged once and treated as standing at the origin.
func (s *ChunkStreamer) ViewerChunk() ChunkCoord {
	pos := s.viewerPosition()
	return CoordFromPosition(float64(pos.X()), float64(pos.Z()), s.chunkSize)
}

func (s *ChunkStreamer) viewerPosition() mgl32.Vec3 {
	var (
		pos mgl32.Vec3
		ok  bool
	)
	if s.collab.Viewer != nil {
		pos, ok = s.collab.Viewer.ViewerPosition()
	}
	if ok && (!finite32(pos.X()) || !finite32(pos.Z())) {
		ok = false
	}
	if !ok {
		if !s.viewerLost {
			s.log.Error("no viewer position, streaming around the origin")
			s.viewerLost = true
		}
		return mgl32.Vec3{}
	}
	if s.viewerLost {
		s.log.Info("viewer position restored")
		s.viewerLost = false
	}
	return pos
}

// Update runs one streaming step: churn the resident set if the viewer
// changed chunk, then assign levels of detail.
func (s *ChunkStreamer) Update() TickReport {
	defer profiling.Track("world.Update")()

	viewer := s.ViewerChunk()
	var rep TickReport
	rep.Viewer = viewer
	if !s.frozen && (!s.hasCurrent || viewer != s.current) {
		s.current = viewer
		s.hasCurrent = true
		s.UpdateChunks(&rep)
		rep.Churned = true
		if s.static {
			s.frozen = true
		}
	}
	s.updateLOD(viewer, &rep)
	s.publish(viewer)
	return rep
}

// UpdateChunks makes the resident set equal the square around the current
// viewer chunk. Departed chunks are released first so their buffers can be
// recycled by the arrivals.
func (s *ChunkStreamer) UpdateChunks(rep *TickReport) {
	defer profiling.Track("world.UpdateChunks")()
	if rep == nil {
		rep = &TickReport{}
	}
	for _, coord := range s.store.CoordsOutside(s.current, s.viewDistance) {
		s.release(coord)
		rep.Released = append(rep.Released, coord)
	}
	for _, coord := range Neighbourhood(s.current, s.viewDistance) {
		if s.store.Has(coord) {
			continue
		}
		s.activate(coord, nil)
		rep.Activated = append(rep.Activated, coord)
	}
	profiling.Count("world.activated", int64(len(rep.Activated)))
	profiling.Count("world.released", int64(len(rep.Released)))
}

func (s *ChunkStreamer) acquire() *Chunk {
	if c, ok := s.pool.Get(); ok {
		s.stats.Recycled++
		return c
	}
	s.nextID++
	s.stats.Constructed++
	return newChunk(s.nextID)
}

// activate makes a chunk resident at coord. A prebuilt mesh at the right
// resolution is installed instead of building one.
func (s *ChunkStreamer) activate(coord ChunkCoord, prebuilt *meshing.Mesh) *Chunk {
	c := s.acquire()
	c.coord = coord
	res, visible := LODResolution(s.maxRes, coord.ChebyshevDistance(s.current), s.lodRange)
	if !visible {
		res = lodTier(s.maxRes, 8, 2)
	}
	if prebuilt != nil && prebuilt.Resolution == res {
		c.install(prebuilt, s.scatter, s.chunkSize)
	} else {
		c.rebuild(s.builder, s.scatter, s.chunkSize, res)
	}
	s.store.Add(coord, c)
	s.stats.Activated++

	s.collab.Collision.Attach(coord, c.front)
	s.collab.Terrain.Attach(coord, c.front)
	if visible {
		c.state = ChunkActive
		s.collab.Instances.Submit(coord, s.collab.TreeMesh, s.collab.TreeMaterial, c.batches)
	} else {
		c.state = ChunkHidden
		s.collab.Collision.SetEnabled(coord, false)
		s.collab.Terrain.SetEnabled(coord, false)
	}
	return c
}

func (s *ChunkStreamer) release(coord ChunkCoord) {
	c := s.store.Remove(coord)
	if c == nil {
		return
	}
	s.collab.Collision.Detach(coord)
	s.collab.Terrain.Detach(coord)
	s.collab.Instances.Clear(coord)
	s.pool.Put(c)
	s.stats.Released++
}

func (s *ChunkStreamer) updateLOD(viewer ChunkCoord, rep *TickReport) {
	defer profiling.Track("world.updateLOD")()
	for _, c := range s.store.AppendChunks(nil) {
		coord := c.coord
		res, visible := LODResolution(s.maxRes, coord.ChebyshevDistance(viewer), s.lodRange)
		if !visible {
			if c.state != ChunkHidden {
				c.state = ChunkHidden
				s.collab.Collision.SetEnabled(coord, false)
				s.collab.Terrain.SetEnabled(coord, false)
				s.collab.Instances.Clear(coord)
				rep.Hidden = append(rep.Hidden, coord)
			}
			continue
		}

		wasHidden := c.state == ChunkHidden
		if res != c.resolution {
			c.rebuild(s.builder, s.scatter, s.chunkSize, res)
			s.collab.Collision.Attach(coord, c.front)
			s.collab.Terrain.Attach(coord, c.front)
			s.stats.Rebuilt++
			rep.Rebuilt = append(rep.Rebuilt, coord)
		} else if !wasHidden {
			continue
		}
		if wasHidden {
			s.collab.Collision.SetEnabled(coord, true)
			s.collab.Terrain.SetEnabled(coord, true)
			rep.Shown = append(rep.Shown, coord)
		}
		c.state = ChunkActive
		s.collab.Instances.Submit(coord, s.collab.TreeMesh, s.collab.TreeMaterial, c.batches)
	}
}

func (s *ChunkStreamer) publish(viewer ChunkCoord) {
	chunks := s.store.AppendChunks(nil)
	stats := s.Stats()
	s.snapMu.Lock()
	s.snapshot.Viewer = viewer
	s.snapshot.Stats = stats
	s.snapshot.Chunks = s.snapshot.Chunks[:0]
	for _, c := range chunks {
		s.snapshot.Chunks = append(s.snapshot.Chunks, ChunkInfo{
			Coord:      c.coord,
			State:      c.state.String(),
			Resolution: c.resolution,
			Trees:      len(c.transforms),
		})
	}
	s.snapMu.Unlock()
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
