package terrain

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
)

// MaxPlacementAttempts bounds rejection sampling per flatten point. A point
// that cannot be placed in that many attempts is skipped.
const MaxPlacementAttempts = 50

// Segment is one leg of the path, from flatten point i to i+1.
type Segment struct {
	A, B mgl64.Vec2
}

// PathNetwork is the ordered chain of flatten points carved into the terrain.
// Points are world (x, z) pairs stored as mgl64.Vec2{x, z}.
type PathNetwork struct {
	points    []mgl64.Vec2
	segments  []Segment
	radius    float64
	pathWidth float64
}

// NewPathNetwork rejection-samples up to s.FlattenPointCount points inside the
// square covered by the initial view around center, then chains them by
// greedy nearest neighbour starting from the leftmost point.
func NewPathNetwork(seed int64, s *config.Terrain, viewDistance int, centerX, centerZ int) *PathNetwork {
	size := s.ChunkSize
	worldSize := size * float64(viewDistance*2+1)
	edge := size * 0.5
	cx := float64(centerX)*size + edge
	cz := float64(centerZ)*size + edge

	// inset twice by the edge buffer
	lo := mgl64.Vec2{cx - worldSize/2 + 2*edge, cz - worldSize/2 + 2*edge}
	hi := mgl64.Vec2{cx + worldSize/2 - 2*edge, cz + worldSize/2 - 2*edge}
	if hi.X() < lo.X() || hi.Y() < lo.Y() {
		lo = mgl64.Vec2{cx, cz}
		hi = lo
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eedf1a7))
	points := samplePoints(rng, lo, hi, max(s.FlattenPointCount, 0), s.MinPointDistance)
	return NewPathNetworkFromPoints(orderGreedy(points), s)
}

// NewPathNetworkFromPoints uses points as the already-ordered path.
func NewPathNetworkFromPoints(points []mgl64.Vec2, s *config.Terrain) *PathNetwork {
	n := &PathNetwork{
		points:    append([]mgl64.Vec2(nil), points...),
		radius:    s.FlattenRadius,
		pathWidth: s.PathWidth,
	}
	for i := 0; i+1 < len(n.points); i++ {
		n.segments = append(n.segments, Segment{A: n.points[i], B: n.points[i+1]})
	}
	return n
}

func samplePoints(rng *rand.Rand, lo, hi mgl64.Vec2, count int, minSpacing float64) []mgl64.Vec2 {
	points := make([]mgl64.Vec2, 0, count)
	for range count {
		for range MaxPlacementAttempts {
			p := mgl64.Vec2{
				lo.X() + rng.Float64()*(hi.X()-lo.X()),
				lo.Y() + rng.Float64()*(hi.Y()-lo.Y()),
			}
			if farFromAll(p, points, minSpacing) {
				points = append(points, p)
				break
			}
		}
	}
	return points
}

func farFromAll(p mgl64.Vec2, points []mgl64.Vec2, spacing float64) bool {
	for _, q := range points {
		if p.Sub(q).Len() < spacing {
			return false
		}
	}
	return true
}

// orderGreedy chains points by repeatedly taking the nearest unvisited one.
// It is not a shortest tour.
func orderGreedy(points []mgl64.Vec2) []mgl64.Vec2 {
	if len(points) < 2 {
		return points
	}
	remaining := append([]mgl64.Vec2(nil), points...)
	start := 0
	for i, p := range remaining {
		if p.X() < remaining[start].X() {
			start = i
		}
	}
	ordered := make([]mgl64.Vec2, 0, len(points))
	ordered = append(ordered, remaining[start])
	remaining = append(remaining[:start], remaining[start+1:]...)

	for len(remaining) > 0 {
		cur := ordered[len(ordered)-1]
		nearest := 0
		best := math.MaxFloat64
		for i, p := range remaining {
			if d := cur.Sub(p).Len(); d < best {
				best = d
				nearest = i
			}
		}
		ordered = append(ordered, remaining[nearest])
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}
	return ordered
}

// Points returns the flatten points in path order.
func (n *PathNetwork) Points() []mgl64.Vec2 { return n.points }

// Segments returns the path legs in order.
func (n *PathNetwork) Segments() []Segment { return n.segments }

// Radius is the flatten radius around each point.
func (n *PathNetwork) Radius() float64 { return n.radius }

// PathWidth is the carve half-width around each segment.
func (n *PathNetwork) PathWidth() float64 { return n.pathWidth }

// DistanceToNearestSegment returns +Inf when the network has no segments.
func (n *PathNetwork) DistanceToNearestSegment(p mgl64.Vec2) float64 {
	best := math.Inf(1)
	for _, s := range n.segments {
		d, _ := distanceToSegment(p, s.A, s.B)
		best = math.Min(best, d)
	}
	return best
}

// InfluenceWeight is the smoothstep falloff of the nearest flatten point
// within radius, in [0, 1].
func (n *PathNetwork) InfluenceWeight(p mgl64.Vec2, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	w := 0.0
	for _, q := range n.points {
		d := p.Sub(q).Len()
		if d < radius {
			w = math.Max(w, smoothstep(1-d/radius))
		}
	}
	return w
}

// IsWithin reports whether p lies inside a flatten zone or a path corridor.
func (n *PathNetwork) IsWithin(p mgl64.Vec2) bool {
	for _, q := range n.points {
		if p.Sub(q).Len() < n.radius {
			return true
		}
	}
	return n.DistanceToNearestSegment(p) < n.pathWidth
}

// distanceToSegment returns the distance from p to segment ab and the clamped
// projection parameter along it.
func distanceToSegment(p, a, b mgl64.Vec2) (float64, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Len(), 0
	}
	t := clamp01(p.Sub(a).Dot(ab) / lenSq)
	return p.Sub(a.Add(ab.Mul(t))).Len(), t
}
